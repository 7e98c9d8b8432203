package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yowbook/internal/app"
	"yowbook/internal/db"
	"yowbook/internal/personality"
)

func newPersonalityCmd(c *cli) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "personality [NAME]",
		Short: "Decode one personality record and print it as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dec := personality.NewDecoder(c.cfg.PersonalitiesDir, c.cfg.SubstitutionTable(), c.log)
			out := cmd.OutOrStdout()

			if list {
				names, err := dec.Names()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("personality name required (or --list)")
			}

			rec, err := dec.Decode(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list the personalities that have a record")
	return cmd
}

func newImportCmd(c *cli) *cobra.Command {
	var (
		jsonOut string
		merge   bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Build the personality catalog and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profiles, err := app.BuildCatalog(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(c.cfg.DBPath), 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			store, err := db.Open(c.cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()
			total, err := app.ImportCatalog(ctx, store, profiles, !merge)
			if err != nil {
				return err
			}
			c.log.Info("catalog imported",
				zap.Int("built", len(profiles)),
				zap.Int("catalog", total),
				zap.Bool("merge", merge),
			)

			if jsonOut != "" {
				f, err := os.Create(jsonOut)
				if err != nil {
					return fmt.Errorf("create %s: %w", jsonOut, err)
				}
				if err := personality.ExportJSON(f, profiles); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d personalities, catalog holds %d\n", len(profiles), total)
			return nil
		},
	}
	cmd.Flags().StringVar(&jsonOut, "json", "", "also write the catalog to this JSON file")
	cmd.Flags().BoolVar(&merge, "merge", false, "upsert into the stored catalog instead of replacing it")
	return cmd
}
