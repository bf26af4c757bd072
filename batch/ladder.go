package batch

import (
	"math/bits"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// LADDER_WINDOW is the default digit width of the batched ladder.
const LADDER_WINDOW = 4

// Scalar is a little-endian integer in regular (non-Montgomery) form. It may
// hold values up to 2^256-1, the group order included.
type Scalar = [fr.Limbs]uint64

// ScalarMul replaces points[i] with scalars[i]·points[i] using a windowed
// ladder evaluated across the whole batch, so every doubling and every table
// addition of a round shares one inversion.
func ScalarMul(points []curve.G1Affine, scalars []Scalar, window int) {
	n := len(points)
	if n == 0 {
		return
	}
	if window <= 0 {
		window = LADDER_WINDOW
	}

	maxBits := 0
	for i := range scalars {
		maxBits = max(maxBits, bitLen(&scalars[i]))
	}
	if maxBits == 0 {
		clear(points)
		return
	}

	table := buildTable(points, 1<<window-1)
	nbWindows := (maxBits-1)/window + 1

	acc := make([]curve.G1Affine, n)
	instr := make([]Instruction, 0, n)
	for w := nbWindows - 1; w >= 0; w-- {
		if w != nbWindows-1 {
			for j := 0; j < window; j++ {
				DoubleAll(acc)
			}
		}
		instr = instr[:0]
		for i := range scalars {
			d := Digit(&scalars[i], w*window, window)
			if d != 0 {
				instr = append(instr, Instruction{Dst: uint32(i), Src: uint32((int(d)-1)*n + i)})
			}
		}
		AddAssign(acc, table, instr)
	}
	copy(points, acc)
}

// buildTable returns m·n points laid out so that entry (d-1)·n+i holds d·P_i.
func buildTable(points []curve.G1Affine, m int) []curve.G1Affine {
	n := len(points)
	table := make([]curve.G1Affine, m*n)
	copy(table, points)
	if m == 1 {
		return table
	}
	copy(table[n:2*n], points)
	DoubleAll(table[n : 2*n])

	instr := make([]Instruction, n)
	for i := range instr {
		instr[i] = Instruction{Dst: uint32(i), Src: uint32(i)}
	}
	for d := 3; d <= m; d++ {
		row := table[(d-1)*n : d*n]
		copy(row, table[(d-2)*n:(d-1)*n])
		AddAssign(row, points, instr)
	}
	return table
}

// Digit returns the c-bit digit of s starting at bit start. c must be below
// 64.
func Digit(s *Scalar, start, c int) uint64 {
	limb, off := start/64, uint(start%64)
	if limb >= len(s) {
		return 0
	}
	d := s[limb] >> off
	if int(off)+c > 64 && limb+1 < len(s) {
		d |= s[limb+1] << (64 - off)
	}
	return d & (1<<uint(c) - 1)
}

func bitLen(s *Scalar) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != 0 {
			return i*64 + bits.Len64(s[i])
		}
	}
	return 0
}

// ScalarsFromElements converts field elements into ladder scalars.
func ScalarsFromElements(scalars []fr.Element) []Scalar {
	res := make([]Scalar, len(scalars))
	for i := range scalars {
		res[i] = scalars[i].Bits()
	}
	return res
}
