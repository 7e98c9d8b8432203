package main

import (
	"fmt"
	"os"
	"strings"

	"yowbook/internal/book"
	"yowbook/internal/rules"
)

// bookcheck prints the candidates a book offers after a move list.
//
//	bookcheck data/books/Wizard.bin e4 e5 Nf3
func main() {
	path := "data/books/Wizard.bin"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	var moves []string
	if len(os.Args) > 2 {
		moves = os.Args[2:]
	}

	b, err := book.Load(path)
	if err != nil {
		fmt.Println("load error:", err)
		os.Exit(1)
	}
	res, err := rules.Replay(moves)
	if err != nil {
		fmt.Println("replay error:", err)
		os.Exit(1)
	}
	key, err := book.FingerprintOf(res.Position)
	if err != nil {
		fmt.Println("fingerprint error:", err)
		os.Exit(1)
	}
	candidates, err := b.Moves(res.Position)
	if err != nil {
		fmt.Println("lookup error:", err)
		os.Exit(1)
	}

	fmt.Printf("entries: %d\nfen: %s\nkey: %s\n", b.Len(), res.FEN, key)
	move, ok := b.Lookup(res.Position)
	fmt.Println("heaviest:", move, "ok:", ok)
	if len(candidates) == 0 {
		fmt.Println("no book moves")
		return
	}
	parts := make([]string, 0, len(candidates))
	for _, mv := range candidates {
		parts = append(parts, fmt.Sprintf("%s(%d)", mv.UCI, mv.Weight))
	}
	fmt.Println("moves:", strings.Join(parts, " "))
}
