// Package naming allocates globally unique physical names for resources whose
// names must not collide across accounts, such as S3 buckets.
package naming

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// SuffixRange bounds the numeric suffix: suffixes are drawn from [0, SuffixRange).
const SuffixRange = 1_000_000

// Allocator hands out name suffixes from one seeded source. Suffixes never
// repeat within one allocator. An Allocator is not safe for concurrent use;
// a stack is built by a single goroutine.
type Allocator struct {
	seed uint64
	rng  *rand.Rand
	used map[int]bool
}

// New returns an allocator seeded with seed. The same seed yields the same
// sequence of suffixes.
func New(seed uint64) *Allocator {
	return &Allocator{
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		used: make(map[int]bool),
	}
}

// NewRandom returns an allocator seeded from the clock, for one-off runs where
// names only need to be unlikely to collide with an earlier deployment.
func NewRandom() *Allocator {
	return New(uint64(time.Now().UnixNano()))
}

// Seed returns the seed the allocator was created with, so a run can be
// reproduced.
func (a *Allocator) Seed() uint64 {
	return a.seed
}

// Suffix returns a suffix in [0, SuffixRange) not returned before by a.
func (a *Allocator) Suffix() (int, error) {
	if len(a.used) >= SuffixRange {
		return 0, fmt.Errorf("naming: all %d suffixes allocated", SuffixRange)
	}
	for {
		n := a.rng.IntN(SuffixRange)
		if !a.used[n] {
			a.used[n] = true
			return n, nil
		}
	}
}

// Name returns "<prefix>-<suffix>".
func (a *Allocator) Name(prefix string) (string, error) {
	n, err := a.Suffix()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", prefix, n), nil
}
