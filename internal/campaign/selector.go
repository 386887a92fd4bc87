package campaign

import (
	"fmt"
	"math/rand/v2"
)

// Selector draws one variant from a pool. Each pool gets its own Selector
// instance so stateful strategies don't interleave across pools.
type Selector interface {
	Pick(pool []string) string
}

// Strategy names a variant selection policy.
type Strategy string

const (
	// StrategyRandom samples uniformly with replacement; the same variant
	// can repeat on consecutive recipients.
	StrategyRandom Strategy = "random"

	// StrategyRoundRobin cycles the pool in order.
	StrategyRoundRobin Strategy = "round-robin"
)

// SelectorFactory creates fresh Selector instances, one per pool.
type SelectorFactory func() Selector

// NewSelectorFactory returns the factory for a named strategy.
func NewSelectorFactory(s Strategy) (SelectorFactory, error) {
	switch s {
	case StrategyRandom, "":
		return func() Selector { return randomSelector{} }, nil
	case StrategyRoundRobin:
		return func() Selector { return &roundRobinSelector{} }, nil
	default:
		return nil, fmt.Errorf("unknown selection strategy %q", s)
	}
}

type randomSelector struct{}

func (randomSelector) Pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[rand.IntN(len(pool))]
}

type roundRobinSelector struct {
	next int
}

func (s *roundRobinSelector) Pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	v := pool[s.next%len(pool)]
	s.next++
	return v
}
