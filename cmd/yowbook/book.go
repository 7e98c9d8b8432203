package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"yowbook/internal/book"
	"yowbook/internal/db"
)

func (c *cli) library() (*book.Library, error) {
	return book.NewLibrary(c.cfg.BooksDir,
		book.WithLogger(c.log.Named("book")),
		book.WithCacheSize(c.cfg.BookCacheSize),
	)
}

// settings reads the stored defaults; a missing catalog database means the
// built-in ones.
func (c *cli) settings(cmd *cobra.Command) db.Settings {
	defaults := db.DefaultSettings
	store, err := db.Open(c.cfg.DBPath)
	if err != nil {
		c.log.Debug("no settings store, using defaults")
		return defaults
	}
	defer store.Close()
	s, err := store.GetSettings(cmd.Context())
	if err != nil {
		return defaults
	}
	return s
}

// bookArg resolves the book named on the command line, falling back to the
// stored default book.
func (c *cli) bookArg(cmd *cobra.Command, args []string) (string, []string, error) {
	if len(args) > 0 && strings.HasSuffix(strings.ToLower(args[0]), ".bin") {
		return args[0], args[1:], nil
	}
	name := c.settings(cmd).DefaultBook
	if name == "" {
		return "", nil, fmt.Errorf("no book given and no default book configured")
	}
	return name, args, nil
}

func newMovesCmd(c *cli) *cobra.Command {
	var fen string
	cmd := &cobra.Command{
		Use:   "moves [BOOK.bin] [MOVE...]",
		Short: "List the book moves of a position",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, moves, err := c.bookArg(cmd, args)
			if err != nil {
				return err
			}
			lib, err := c.library()
			if err != nil {
				return err
			}

			var candidates []book.MoveWeight
			if fen != "" {
				candidates, err = lib.LookupFEN(cmd.Context(), fen, name)
			} else {
				candidates, err = lib.LookupMoves(cmd.Context(), moves, name)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(candidates) == 0 {
				fmt.Fprintln(out, "no book moves")
				return nil
			}
			for _, mv := range candidates {
				fmt.Fprintf(out, "%-6s %6d\n", mv.UCI, mv.Weight)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fen, "fen", "", "look up this position instead of a move list")
	return cmd
}

func newSelectCmd(c *cli) *cobra.Command {
	var policy string
	cmd := &cobra.Command{
		Use:   "select [BOOK.bin] [MOVE...]",
		Short: "Pick a book move for the position reached by the moves",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, moves, err := c.bookArg(cmd, args)
			if err != nil {
				return err
			}
			if policy == "" {
				policy = c.settings(cmd).SelectPolicy
			}
			p, err := book.ParsePolicy(policy)
			if err != nil {
				return err
			}
			lib, err := c.library()
			if err != nil {
				return err
			}

			mv, ok, err := lib.SelectMove(cmd.Context(), moves, name, p)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no book move")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), mv)
			return nil
		},
	}
	cmd.Flags().StringVar(&policy, "policy", "", "weighted or uniform (default from settings)")
	return cmd
}

func newLineCmd(c *cli) *cobra.Command {
	var plies int
	cmd := &cobra.Command{
		Use:   "line [BOOK.bin]",
		Short: "Play a weighted line out of the book from the start position",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _, err := c.bookArg(cmd, args)
			if err != nil {
				return err
			}
			if plies <= 0 {
				plies = c.settings(cmd).BookMaxPlies
			}
			lib, err := c.library()
			if err != nil {
				return err
			}
			line, err := lib.Line(cmd.Context(), name, plies)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(line, " "))
			return nil
		},
	}
	cmd.Flags().IntVar(&plies, "plies", 0, "stop after this many plies (default from settings)")
	return cmd
}
