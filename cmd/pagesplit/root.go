package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type rootFlags struct {
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          "pagesplit",
		Short:        "Balance weighted items across a self-selected number of groups",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log verbosity (debug, info, warn, error)")

	root.AddCommand(newSplitCmd(flags))
	return root
}

// newLogger builds a production zap logger writing to stderr.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return config.Build()
}
