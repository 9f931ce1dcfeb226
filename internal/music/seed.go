package music

import "github.com/khor-project/khord/internal/metrics"

// mix64 is one splitmix64 round, used both to fold inputs into a seed and
// as the PRNG step itself.
func mix64(z uint64) uint64 {
	z += 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func quantize(v float64) uint64 {
	return uint64(clamp01(v) * 1000)
}

// seedFrom derives a deterministic seed from the cursor and the quantized
// signals. Two calls with identical (bar, step, s) always produce the same
// seed and therefore the same frame.
func seedFrom(bar uint64, step uint32, s metrics.Signal01) uint64 {
	x := mix64(bar ^ uint64(step))
	x = mix64(x ^ quantize(s.Exec))
	x = mix64(x ^ quantize(s.Rx)<<8)
	x = mix64(x ^ quantize(s.Tx)<<16)
	x = mix64(x ^ quantize(s.Csw)<<24)
	x = mix64(x ^ quantize(s.IO)<<32)
	return x
}

// rng is a tiny deterministic generator drawn from a tick's seed. Draws must
// happen in a fixed order within a tick for determinism to hold across
// preset branches that draw a variable number of values.
type rng struct {
	state uint64
}

func newRNG(seed uint64) *rng {
	return &rng{state: seed}
}

func (r *rng) next() uint64 {
	r.state = mix64(r.state)
	return r.state
}

// float64 returns a value in [0,1).
func (r *rng) float64() float64 {
	return float64(r.next()>>11) * (1.0 / (1 << 53))
}

// intn returns a value in [0,n).
func (r *rng) intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.next() % uint64(n))
}
