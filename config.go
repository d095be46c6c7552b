package pagesplit

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the tuning parameters of a [Splitter].
//
// A Config can be built in code, or read from a YAML or TOML file with
// [LoadConfig]:
//
//	# pagesplit.yaml
//	maxGroups: 8
//	roundDeviationUpTo: 0.5
//	concurrency: 4
type Config struct {
	// RoundDeviationUpTo is the floor for every candidate's deviation.
	// Deviations below it are raised to it before the score k/deviation is
	// computed. Zero disables the floor; a candidate with zero deviation
	// then scores +Inf.
	RoundDeviationUpTo float64 `yaml:"roundDeviationUpTo" toml:"round_deviation_up_to"`

	// MaxGroups is the largest group count evaluated. The search space is
	// 2..min(len(items), MaxGroups).
	MaxGroups int `yaml:"maxGroups" toml:"max_groups"`

	// Concurrency bounds the goroutines used per split. Zero means the
	// host's parallelism (GOMAXPROCS).
	Concurrency int `yaml:"concurrency" toml:"concurrency"`

	// DetachContext hides the caller's context values from workers.
	DetachContext bool `yaml:"detachContext" toml:"detach_context"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		RoundDeviationUpTo: DefaultRoundDeviationUpTo,
		MaxGroups:          DefaultMaxGroups,
	}
}

// Validate reports the first unusable parameter as a [*ConfigError].
func (cfg *Config) Validate() error {
	if cfg.MaxGroups < 2 {
		return &ConfigError{Field: "maxGroups", Reason: fmt.Sprintf("must be at least 2, got %d", cfg.MaxGroups)}
	}
	if !validFloor(cfg.RoundDeviationUpTo) {
		return &ConfigError{Field: "roundDeviationUpTo", Reason: fmt.Sprintf("must be finite and non-negative, got %v", cfg.RoundDeviationUpTo)}
	}
	if cfg.Concurrency < 0 {
		return &ConfigError{Field: "concurrency", Reason: fmt.Sprintf("must be non-negative, got %d", cfg.Concurrency)}
	}
	return nil
}

// Config file formats understood by [ParseConfig].
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// LoadConfig reads a Config from path. The format is chosen by extension:
// .toml for TOML, anything else for YAML. Fields absent from the file keep
// their [DefaultConfig] values. The result is validated.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = FormatTOML
	}

	cfg, err := ParseConfig(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes data in the given format (FormatYAML or FormatTOML)
// on top of [DefaultConfig] and validates the result.
func ParseConfig(data []byte, format string) (Config, error) {
	cfg := DefaultConfig()

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document leaves the defaults untouched.
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decoding yaml: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("decoding toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("decoding toml: unknown key %q", undecoded[0].String())
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", format)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
