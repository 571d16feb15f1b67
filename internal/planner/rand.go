package planner

import "math/rand/v2"

// Rand is the random source used for topic choice and item sampling.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// NewSeededRand returns a deterministic source for tests and replays.
func NewSeededRand(seed1, seed2 uint64) Rand {
	return rand.New(rand.NewPCG(seed1, seed2))
}
