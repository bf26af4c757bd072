package batch

import (
	"encoding/binary"
	"math/big"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/eonmsm/glv"
)

// ScalarMulGLV replaces points[i] with scalars[i]·points[i]. Each scalar is
// split as k ≡ ±k1 ± k2·λ, the ladder runs over the 2n points ±P, ±φ(P)
// with half-width scalars, and the two halves are added back pairwise.
func ScalarMulGLV(points []curve.G1Affine, scalars []Scalar, window int) {
	n := len(points)
	if n == 0 {
		return
	}
	g := glv.BLS12381G1()

	work := make([]curve.G1Affine, 2*n)
	halves := make([]Scalar, 2*n)
	Parallelize(n, func(start, end int) {
		var k big.Int
		for i := start; i < end; i++ {
			d := g.Decompose(toBig(&k, &scalars[i]))

			work[i] = points[i]
			if d.K1.Neg {
				work[i].Neg(&work[i])
			}
			work[n+i] = g.Phi(&points[i])
			if d.K2.Neg {
				work[n+i].Neg(&work[n+i])
			}
			halves[i] = fromBig(d.K1.Abs)
			halves[n+i] = fromBig(d.K2.Abs)
		}
	})

	ScalarMul(work, halves, window)

	instr := make([]Instruction, n)
	for i := range instr {
		instr[i] = Instruction{Dst: uint32(i), Src: uint32(i)}
	}
	AddAssign(work[:n], work[n:], instr)
	copy(points, work[:n])
}

// VerifyInSubgroup reports whether every point lies in the prime-order
// subgroup, by multiplying the whole batch by the group order.
func VerifyInSubgroup(points []curve.G1Affine) bool {
	if len(points) == 0 {
		return true
	}
	order := fromBig(fr.Modulus())
	work := make([]curve.G1Affine, len(points))
	copy(work, points)
	scalars := make([]Scalar, len(points))
	for i := range scalars {
		scalars[i] = order
	}
	ScalarMulGLV(work, scalars, LADDER_WINDOW)
	for i := range work {
		if !work[i].IsInfinity() {
			return false
		}
	}
	return true
}

func toBig(dst *big.Int, s *Scalar) *big.Int {
	var buf [fr.Limbs * 8]byte
	for i := range s {
		binary.BigEndian.PutUint64(buf[len(buf)-8*(i+1):], s[i])
	}
	return dst.SetBytes(buf[:])
}

func fromBig(x *big.Int) Scalar {
	var buf [fr.Limbs * 8]byte
	x.FillBytes(buf[:])
	var s Scalar
	for i := range s {
		s[i] = binary.BigEndian.Uint64(buf[len(buf)-8*(i+1):])
	}
	return s
}
