package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	jitterSpread = 0.25
	jitterFloor  = 0.8
	jitterCeil   = 1.25
)

// Rand supplies uniform samples in [0, 1).
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// DefaultRand draws from the process-wide math/rand/v2 source.
var DefaultRand Rand = globalRand{}

// PreJitter returns min(base * multiplier^attempt, max) in milliseconds.
func PreJitter(p Policy, attempt int) float64 {
	base := float64(p.BaseDelay) / float64(time.Millisecond)
	limit := float64(p.MaxDelay) / float64(time.Millisecond)
	return math.Min(base*math.Pow(p.Multiplier, float64(attempt)), limit)
}

// Delay computes the wait before retry number attempt (0-indexed).
// With jitter the value is perturbed by up to ±25% and clamped to
// [0.8, 1.25] of the pre-jitter delay; it is rounded to whole milliseconds.
func Delay(p Policy, attempt int, rnd Rand) time.Duration {
	pre := PreJitter(p, attempt)
	if !p.Jitter {
		return time.Duration(math.Round(pre)) * time.Millisecond
	}
	if rnd == nil {
		rnd = DefaultRand
	}
	offset := (rnd.Float64()*2*jitterSpread - jitterSpread) * pre
	d := pre + offset
	d = math.Max(d, jitterFloor*pre)
	d = math.Min(d, jitterCeil*pre)
	return time.Duration(math.Round(d)) * time.Millisecond
}
