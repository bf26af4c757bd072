package msm

import (
	"fmt"
	"runtime"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/sync/errgroup"

	"github.com/eon-protocol/eonmsm/batch"
)

// MultiplyUnbatched is Pippenger's method with Jacobian buckets and no batch
// affine reduction.
func MultiplyUnbatched(bases []curve.G1Affine, scalars []fr.Element) (curve.G1Jac, error) {
	var res curve.G1Jac
	if len(bases) != len(scalars) {
		return res, fmt.Errorf("%w: %d bases, %d scalars", ErrInputLengthMismatch, len(bases), len(scalars))
	}
	if len(scalars) == 0 {
		return res, nil
	}
	c := WindowSize(len(scalars), false)
	limbs, skip, ones := prepare(bases, scalars)

	sums := make([]WindowSum, (fr.Bits-1)/c+1)
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for w := range sums {
		g.Go(func() error {
			buckets := make([]curve.G1Jac, 1<<c-1)
			for i := range limbs {
				if skip.Test(uint(i)) {
					continue
				}
				if d := batch.Digit(&limbs[i], w*c, c); d != 0 {
					buckets[d-1].AddMixed(&bases[i])
				}
			}
			var running, sum curve.G1Jac
			for b := len(buckets) - 1; b >= 0; b-- {
				running.AddAssign(&buckets[b])
				sum.AddAssign(&running)
			}
			sums[w] = WindowSum{Sum: sum, Bits: c}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	for _, i := range ones {
		sums[0].Sum.AddMixed(&bases[i])
	}
	return combine(sums), nil
}

// Reference computes Σ scalars[i]·bases[i] by plain double-and-add over every
// scalar bit. It is slow and exists as a correctness oracle.
func Reference(bases []curve.G1Affine, scalars []fr.Element) (curve.G1Jac, error) {
	var res curve.G1Jac
	if len(bases) != len(scalars) {
		return res, fmt.Errorf("%w: %d bases, %d scalars", ErrInputLengthMismatch, len(bases), len(scalars))
	}
	for i := range scalars {
		s := scalars[i].Bits()
		var acc curve.G1Jac
		for bit := fr.Bits - 1; bit >= 0; bit-- {
			acc.DoubleAssign()
			if s[bit/64]>>(uint(bit)%64)&1 == 1 {
				acc.AddMixed(&bases[i])
			}
		}
		res.AddAssign(&acc)
	}
	return res, nil
}
