package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yowbook/internal/book"
)

func newNormalizeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize SRC [DST]",
		Short: "Write header-corrected copies of legacy .obk books",
		Long: `normalize rewrites the header of a legacy book file, or of every .obk
file in a directory, to the canonical form. DST defaults to the fixed books
directory ($YOWBOOK_FIXED_BOOKS_DIR). Sources are never modified.

The corrected copies are still in the legacy layout: convert them to
polyglot .bin files (for example with obk2bin) and place those in the books
directory before the service can look moves up in them.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			dst := c.cfg.FixedBooksDir
			if len(args) == 2 {
				dst = args[1]
			}

			info, err := os.Stat(src)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if info.IsDir() {
				if err := os.MkdirAll(dst, 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
				report, err := book.NormalizeDir(cmd.Context(), src, dst, c.log)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "fixed %d, unchanged %d\n", len(report.Fixed), len(report.Unchanged))
				return nil
			}

			if len(args) < 2 {
				if err := os.MkdirAll(dst, 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
				dst = filepath.Join(dst, filepath.Base(src))
			} else if st, err := os.Stat(dst); err == nil && st.IsDir() {
				dst = filepath.Join(dst, filepath.Base(src))
			}
			changed, err := book.NormalizeFile(src, dst)
			if err != nil {
				return err
			}
			c.log.Info("normalize", zap.String("src", src), zap.String("dst", dst), zap.Bool("changed", changed))
			if changed {
				fmt.Fprintln(out, "fixed", dst)
			} else {
				fmt.Fprintln(out, "unchanged", src)
			}
			return nil
		},
	}
}
