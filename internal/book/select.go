package book

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
)

// NoMove is returned when no candidate may be chosen. It is an outcome, not
// an error: callers fall back to another way of producing a move.
const NoMove = ""

type Policy string

const (
	PolicyWeighted Policy = "weighted"
	PolicyUniform  Policy = "uniform"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyWeighted:
		return PolicyWeighted, nil
	case PolicyUniform:
		return PolicyUniform, nil
	default:
		return "", fmt.Errorf("unknown selection policy %q", s)
	}
}

// RandSource supplies uniform integers in [0, n). *math/rand.Rand is the
// usual implementation; a fixed source makes selection reproducible. The
// package-level selectors call it from one goroutine only.
type RandSource interface {
	Intn(n int) int
}

// lockedRand serializes draws from a source that is not safe for concurrent
// use, such as *math/rand.Rand.
type lockedRand struct {
	mu  sync.Mutex
	src RandSource
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

// globalRand draws from the process-wide math/rand/v2 source, which is safe
// for concurrent use.
type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.IntN(n) }

// UniformSelect picks any candidate with equal probability, ignoring weight.
func UniformSelect(moves []MoveWeight, rnd RandSource) (MoveWeight, bool) {
	if len(moves) == 0 {
		return MoveWeight{UCI: NoMove}, false
	}
	return moves[rnd.Intn(len(moves))], true
}

// WeightedSelect picks a candidate with probability proportional to its
// weight. Zero-weight candidates are never chosen; when nothing has weight
// the result is NoMove.
func WeightedSelect(moves []MoveWeight, rnd RandSource) (MoveWeight, bool) {
	total := 0
	for _, m := range moves {
		if m.Weight > 0 {
			total += m.Weight
		}
	}
	if total == 0 {
		return MoveWeight{UCI: NoMove}, false
	}

	r := rnd.Intn(total)
	for _, m := range moves {
		if m.Weight <= 0 {
			continue
		}
		if r < m.Weight {
			return m, true
		}
		r -= m.Weight
	}
	// unreachable while rnd honours [0, total)
	return MoveWeight{UCI: NoMove}, false
}

// Select applies policy to moves.
func Select(policy Policy, moves []MoveWeight, rnd RandSource) (MoveWeight, bool) {
	if policy == PolicyUniform {
		return UniformSelect(moves, rnd)
	}
	return WeightedSelect(moves, rnd)
}
