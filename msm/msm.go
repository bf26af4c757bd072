// Package msm computes multi-scalar multiplications Σ sᵢ·Pᵢ on BLS12-381 G1
// with Pippenger's bucket method.
package msm

import (
	"fmt"
	"math/bits"
	"runtime"

	"github.com/bits-and-blooms/bitset"
	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/sync/errgroup"

	"github.com/eon-protocol/eonmsm/batch"
	"github.com/eon-protocol/eonmsm/bucket"
)

const (
	// MAX_WINDOW bounds the window width accepted by MultiplyWithWindow.
	// Every window allocates all of its 2^c-1 buckets, whatever the input
	// size.
	MAX_WINDOW = 16

	// SPLIT_WINDOW is the widest window reduced in one piece. Wider windows
	// go through bucket.ReduceSplit in ranges of 2^SPLIT_WINDOW buckets.
	SPLIT_WINDOW = 12
)

// ErrInputLengthMismatch is returned when bases and scalars differ in length.
var ErrInputLengthMismatch = bucket.ErrInputLengthMismatch

// WindowSum is the accumulated sum of one window and its width in bits.
type WindowSum struct {
	Sum  curve.G1Jac
	Bits int
}

// WindowSize returns the window width for n elements. Small inputs use one
// bit per window on the batched path and three on the unbatched one.
func WindowSize(n int, batched bool) int {
	if n < 32 {
		if batched {
			return 1
		}
		return 3
	}
	return min(lnWithoutFloats(n)+2, MAX_WINDOW)
}

// lnWithoutFloats approximates ln(n) as ⌈log2 n⌉·0.69.
func lnWithoutFloats(n int) int {
	return bits.Len(uint(n-1)) * 69 / 100
}

// Multiply returns Σ scalars[i]·bases[i].
func Multiply(bases []curve.G1Affine, scalars []fr.Element) (curve.G1Jac, error) {
	return MultiplyWithWindow(bases, scalars, WindowSize(len(scalars), true))
}

// MultiplyWithWindow is Multiply with an explicit window width c. Every
// window reduces its buckets with bucket.Reduce, so all additions of one tree
// level share an inversion. Windows wider than SPLIT_WINDOW are reduced one
// bucket range at a time.
func MultiplyWithWindow(bases []curve.G1Affine, scalars []fr.Element, c int) (curve.G1Jac, error) {
	var res curve.G1Jac
	if len(bases) != len(scalars) {
		return res, fmt.Errorf("%w: %d bases, %d scalars", ErrInputLengthMismatch, len(bases), len(scalars))
	}
	if c < 1 || c > MAX_WINDOW {
		return res, fmt.Errorf("msm: window width %d out of range [1, %d]", c, MAX_WINDOW)
	}
	if len(scalars) == 0 {
		return res, nil
	}

	limbs, skip, ones := prepare(bases, scalars)

	sums := make([]WindowSum, (fr.Bits-1)/c+1)
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for w := range sums {
		g.Go(func() error {
			ws, err := windowSum(bases, limbs, skip, w*c, c)
			if err != nil {
				return fmt.Errorf("window %d: %w", w, err)
			}
			sums[w] = ws
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	// unit scalars only enter the lowest window
	for _, i := range ones {
		sums[0].Sum.AddMixed(&bases[i])
	}
	return combine(sums), nil
}

// prepare converts scalars out of Montgomery form and marks the positions no
// window has to bucket: zero scalars, points at infinity and unit scalars.
func prepare(bases []curve.G1Affine, scalars []fr.Element) ([]batch.Scalar, *bitset.BitSet, []int) {
	n := len(scalars)
	limbs := make([]batch.Scalar, n)
	skip := bitset.New(uint(n))
	var ones []int
	for i := range scalars {
		switch {
		case scalars[i].IsZero() || bases[i].IsInfinity():
			skip.Set(uint(i))
		case scalars[i].IsOne():
			skip.Set(uint(i))
			ones = append(ones, i)
		default:
			limbs[i] = scalars[i].Bits()
		}
	}
	return limbs, skip, ones
}

func windowSum(bases []curve.G1Affine, limbs []batch.Scalar, skip *bitset.BitSet, start, c int) (WindowSum, error) {
	bucketCount := 1<<c - 1

	elements := make([]curve.G1Affine, 0, len(bases)-int(skip.Count()))
	assignment := make([]uint32, 0, cap(elements))
	for i := range limbs {
		if skip.Test(uint(i)) {
			continue
		}
		// digit 0 has no bucket
		d := batch.Digit(&limbs[i], start, c)
		if d == 0 {
			continue
		}
		elements = append(elements, bases[i])
		assignment = append(assignment, uint32(d-1))
	}

	var (
		buckets []curve.G1Affine
		err     error
	)
	if c > SPLIT_WINDOW {
		buckets, err = bucket.ReduceSplit(bucketCount, elements, assignment, SPLIT_WINDOW)
	} else {
		buckets, err = bucket.Reduce(bucketCount, elements, assignment)
	}
	if err != nil {
		return WindowSum{}, err
	}
	return WindowSum{Sum: runningSum(buckets), Bits: c}, nil
}

// runningSum returns Σ (b+1)·buckets[b] with one pass from the top bucket
// down, using additions only.
func runningSum(buckets []curve.G1Affine) curve.G1Jac {
	var running, sum curve.G1Jac
	for b := len(buckets) - 1; b >= 0; b-- {
		if !buckets[b].IsInfinity() {
			running.AddMixed(&buckets[b])
		}
		sum.AddAssign(&running)
	}
	return sum
}

// combine folds window sums from the highest window down, doubling by the
// width of each lower window before adding it.
func combine(sums []WindowSum) curve.G1Jac {
	total := sums[len(sums)-1].Sum
	for w := len(sums) - 2; w >= 0; w-- {
		for j := 0; j < sums[w].Bits; j++ {
			total.DoubleAssign()
		}
		total.AddAssign(&sums[w].Sum)
	}
	return total
}
