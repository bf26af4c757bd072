package scheduler

import (
	"fmt"
	"math"
	"slices"

	"github.com/eon-protocol/eonmsm/msm"
)

// Profile records the share of a batch each device should receive. The CPU
// takes whatever the devices leave. Count is the number of samples folded
// into the running average.
type Profile struct {
	Fractions []float64
	Count     uint64
}

// EvenSplit gives every device and the CPU the same share.
func EvenSplit(devices int) Profile {
	f := make([]float64, devices)
	for i := range f {
		f[i] = 1 / float64(devices+1)
	}
	return Profile{Fractions: f}
}

func (p Profile) Clone() Profile {
	return Profile{Fractions: slices.Clone(p.Fractions), Count: p.Count}
}

// Validate checks p against the current device count.
func (p Profile) Validate(devices int) error {
	if len(p.Fractions) != devices {
		return fmt.Errorf("%w: profile has %d fractions for %d devices", msm.ErrInputLengthMismatch, len(p.Fractions), devices)
	}
	sum := 0.0
	for i, f := range p.Fractions {
		if math.IsNaN(f) || f < 0 {
			return fmt.Errorf("scheduler: invalid fraction %v for device %d", f, i)
		}
		sum += f
	}
	if sum > 1+1e-9 {
		return fmt.Errorf("scheduler: fractions sum to %v", sum)
	}
	return nil
}

// Partition returns round(fraction·n) elements per device, clipped to what
// is left, and the CPU remainder.
func (p Profile) Partition(n int) ([]int, int) {
	counts := make([]int, len(p.Fractions))
	left := n
	for d, f := range p.Fractions {
		c := int(math.Round(f * float64(n)))
		c = max(0, min(c, left))
		counts[d] = c
		left -= c
	}
	return counts, left
}

// Update folds one measurement into the running average. Throughputs are in
// elements per second; each device's new fraction is its share of the total
// throughput, blended as (new + count·old)/(count+1).
func (p *Profile) Update(devices []float64, cpu float64) {
	total := cpu
	for _, t := range devices {
		total += t
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return
	}

	samples := float64(p.Count)
	p.Count++
	if len(p.Fractions) != len(devices) {
		p.Fractions = make([]float64, len(devices))
		for d, t := range devices {
			p.Fractions[d] = t / total
		}
		return
	}
	for d, t := range devices {
		p.Fractions[d] = (t/total + samples*p.Fractions[d]) / float64(p.Count)
	}
}

func throughput(elements int, took float64) float64 {
	if elements == 0 || took <= 0 {
		return 0
	}
	return float64(elements) / took
}
