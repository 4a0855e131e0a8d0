package pricing

import "math/rand"

// GlobalRand draws from math/rand's shared locked source, so one value can be
// handed to the simulator and the HTTP reprice path concurrently.
type GlobalRand struct{}

func (GlobalRand) Float64() float64 { return rand.Float64() }
