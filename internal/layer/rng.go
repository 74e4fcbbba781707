package layer

import "math"

// RNG is a small deterministic generator (splitmix64) used for reproducible
// weight initialization, dropout masks and noise injection.
type RNG struct {
	state uint64
}

// NewRNG creates a generator from a seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{state: seed}
}

// RandUint64 returns the next 64-bit value.
func (r *RNG) RandUint64() uint64 {
	r.state += 0x9e3779b97f4a7c15
	z := r.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// RandFloat returns a uniform value in [0, 1).
func (r *RNG) RandFloat() float64 {
	return float64(r.RandUint64()>>11) / (1 << 53)
}

// RandNorm returns a standard normal value (Box-Muller).
func (r *RNG) RandNorm() float64 {
	u1 := r.RandFloat()
	for u1 == 0 {
		u1 = r.RandFloat()
	}
	u2 := r.RandFloat()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
