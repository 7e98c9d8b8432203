package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yowbook/internal/config"
)

// cli holds what every subcommand shares once flags are parsed.
type cli struct {
	configPath string
	verbose    bool
	booksDir   string

	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:          "yowbook",
		Short:        "Opening book and personality service for Ye Old Wizard",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (default $YOWBOOK_CONFIG)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&c.booksDir, "books-dir", "", "directory of polyglot books")

	root.AddCommand(
		newServeCmd(c),
		newMovesCmd(c),
		newSelectCmd(c),
		newLineCmd(c),
		newNormalizeCmd(c),
		newPersonalityCmd(c),
		newImportCmd(c),
		newInitConfigCmd(c),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.booksDir != "" {
		cfg.BooksDir = c.booksDir
	}
	c.cfg = cfg

	zc := zap.NewProductionConfig()
	if c.verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := zc.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	c.log = log
	return nil
}
