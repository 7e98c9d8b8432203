package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newInitConfigCmd(c *cli) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write the effective configuration, with its tables spelled out, as YAML",
		Long: `init-config writes the configuration in effect (environment plus any
existing file) to --config or $YOWBOOK_CONFIG. The default substitution
and override tables are written out so they can be edited in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(c.cfg.ConfigPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", c.cfg.ConfigPath)
			}
			cfg := c.cfg
			cfg.Substitutions = cfg.SubstitutionTable()
			cfg.Overrides = cfg.OverrideTable()
			// the admin token stays out of the file
			cfg.AdminToken = ""
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", cfg.ConfigPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
