package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/baxromumarov/pagesplit"
	"github.com/baxromumarov/pagesplit/logging"
)

// item is one entry of the input file.
type item struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

type page struct {
	Sum   float64  `yaml:"sum"`
	Items []string `yaml:"items"`
}

type candidate struct {
	Groups    int     `yaml:"groups"`
	Deviation float64 `yaml:"deviation"`
	Score     float64 `yaml:"score"`
}

type report struct {
	Groups     int         `yaml:"groups"`
	Deviation  float64     `yaml:"deviation"`
	Score      float64     `yaml:"score"`
	Pages      []page      `yaml:"pages"`
	Candidates []candidate `yaml:"candidates,omitempty"`
}

type splitFlags struct {
	configPath  string
	maxGroups   int
	roundUp     float64
	concurrency int
	detach      bool
}

func newSplitCmd(root *rootFlags) *cobra.Command {
	flags := &splitFlags{}

	cmd := &cobra.Command{
		Use:   "split <items-file|->",
		Short: "Split the items of a YAML or JSON file into balanced groups",
		Long: `Reads a list of {name, weight} entries and prints the grouping whose
greedy assignment has the best groups/deviation score.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, root, flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "YAML or TOML config file")
	cmd.Flags().IntVar(&flags.maxGroups, "max-groups", pagesplit.DefaultMaxGroups, "largest group count to evaluate")
	cmd.Flags().Float64Var(&flags.roundUp, "round-up", pagesplit.DefaultRoundDeviationUpTo, "floor applied to every deviation")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "goroutines per split (0 = GOMAXPROCS)")
	cmd.Flags().BoolVar(&flags.detach, "detach", false, "hide caller context values from workers")

	return cmd
}

func runSplit(cmd *cobra.Command, root *rootFlags, flags *splitFlags, path string) error {
	logger, err := newLogger(root.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := resolveConfig(cmd, flags)
	if err != nil {
		return err
	}

	items, err := readItems(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	logger.Debug("items loaded", zap.String("source", path), zap.Int("count", len(items)))

	s, err := pagesplit.New[item](func(it item) float64 { return it.Weight },
		pagesplit.WithConfig(cfg),
		pagesplit.WithLogger(logging.NewZap(logger)),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	a, err := s.Split(cmd.Context(), items)
	if err != nil {
		logger.Error("split failed", zap.Error(err))
		return err
	}
	logger.Info("split done",
		zap.Int("items", len(items)),
		zap.Int("groups", a.K),
		zap.Float64("deviation", a.Deviation),
		zap.Duration("elapsed", time.Since(start)),
	)

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(newReport(a)); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return enc.Close()
}

// resolveConfig layers explicitly set flags over the config file (or the
// defaults when no file is given).
func resolveConfig(cmd *cobra.Command, flags *splitFlags) (pagesplit.Config, error) {
	cfg := pagesplit.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := pagesplit.LoadConfig(flags.configPath)
		if err != nil {
			return pagesplit.Config{}, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("max-groups") {
		cfg.MaxGroups = flags.maxGroups
	}
	if cmd.Flags().Changed("round-up") {
		cfg.RoundDeviationUpTo = flags.roundUp
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = flags.concurrency
	}
	if cmd.Flags().Changed("detach") {
		cfg.DetachContext = flags.detach
	}

	if err := cfg.Validate(); err != nil {
		return pagesplit.Config{}, err
	}
	return cfg, nil
}

// readItems decodes the item list from path, or from stdin when path is "-".
// JSON input is accepted since it is valid YAML.
func readItems(stdin io.Reader, path string) ([]item, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading items: %w", err)
	}

	var items []item
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding items from %s: %w", path, err)
	}
	for i, it := range items {
		if it.Name == "" {
			items[i].Name = fmt.Sprintf("item-%d", i)
		}
	}
	return items, nil
}

func newReport(a *pagesplit.Assignment[item]) report {
	r := report{
		Groups:    a.K,
		Deviation: a.Deviation,
		Score:     a.Score,
		Pages:     make([]page, len(a.Groups)),
	}
	for i, g := range a.Groups {
		names := make([]string, len(g))
		for j, it := range g {
			names[j] = it.Name
		}
		r.Pages[i] = page{Sum: a.Sums[i], Items: names}
	}
	for _, c := range a.Candidates {
		r.Candidates = append(r.Candidates, candidate{Groups: c.K, Deviation: c.Deviation, Score: c.Score})
	}
	return r
}
