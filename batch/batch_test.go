package batch

import (
	"fmt"
	"math/big"
	"testing"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

func randomPoints(n int) []curve.G1Affine {
	if n <= 0 {
		return nil
	}
	_, _, gen, _ := curve.Generators()
	return curve.BatchScalarMultiplicationG1(&gen, randomScalars(n))
}

func randomScalars(n int) []fr.Element {
	s := make([]fr.Element, n)
	for i := range s {
		if _, err := s[i].SetRandom(); err != nil {
			panic(err)
		}
	}
	return s
}

func naiveMul(p *curve.G1Affine, s *big.Int) curve.G1Affine {
	var res curve.G1Affine
	res.ScalarMultiplication(p, s)
	return res
}

func TestAddAssign_EdgeCases(t *testing.T) {
	pts := randomPoints(4)
	var neg curve.G1Affine
	neg.Neg(&pts[1])

	dst := []curve.G1Affine{pts[0], pts[1], {}, pts[2], pts[3]}
	src := []curve.G1Affine{pts[1], neg, pts[3], pts[2], {}}
	instr := []Instruction{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}}

	want := make([]curve.G1Affine, len(dst))
	want[0].Add(&pts[0], &pts[1])
	// P + (-P)
	want[1] = curve.G1Affine{}
	// ∞ + Q
	want[2] = pts[3]
	// P + P
	want[3].Double(&pts[2])
	// Q + ∞
	want[4] = pts[3]

	AddAssign(dst, src, instr)
	for i := range want {
		if !dst[i].Equal(&want[i]) {
			t.Fatalf("case %d: got %s, want %s", i, dst[i].String(), want[i].String())
		}
	}
}

func TestAddAssign_SameSliceLargeBatch(t *testing.T) {
	// spans several BATCH_ADD_SIZE chunks
	n := 2*BATCH_ADD_SIZE + 17
	pts := randomPoints(2 * n)
	orig := make([]curve.G1Affine, len(pts))
	copy(orig, pts)

	instr := make([]Instruction, n)
	for i := range instr {
		instr[i] = Instruction{Dst: uint32(2 * i), Src: uint32(2*i + 1)}
	}
	AddAssign(pts, pts, instr)

	for i := 0; i < n; i++ {
		var want curve.G1Affine
		want.Add(&orig[2*i], &orig[2*i+1])
		if !pts[2*i].Equal(&want) {
			t.Fatalf("pair %d mismatch", i)
		}
		if !pts[2*i+1].Equal(&orig[2*i+1]) {
			t.Fatalf("source %d was modified", 2*i+1)
		}
	}
}

func TestDoubleAll(t *testing.T) {
	pts := append(randomPoints(33), curve.G1Affine{})
	want := make([]curve.G1Affine, len(pts))
	for i := range pts {
		want[i].Double(&pts[i])
	}
	DoubleAll(pts)
	for i := range pts {
		if !pts[i].Equal(&want[i]) {
			t.Fatalf("point %d mismatch", i)
		}
	}
}

func TestScalarMul_MatchesNaive(t *testing.T) {
	for _, n := range []int{1, 7, 64} {
		for _, w := range []int{1, 3, LADDER_WINDOW, 5} {
			t.Run(fmt.Sprintf("n=%d/w=%d", n, w), func(t *testing.T) {
				pts := randomPoints(n)
				scalars := randomScalars(n)
				// small and special scalars
				scalars[0].SetUint64(0)
				if n > 2 {
					scalars[1].SetOne()
					scalars[2].SetUint64(2)
				}

				want := make([]curve.G1Affine, n)
				for i := range pts {
					var s big.Int
					want[i] = naiveMul(&pts[i], scalars[i].BigInt(&s))
				}

				got := make([]curve.G1Affine, n)
				copy(got, pts)
				ScalarMul(got, ScalarsFromElements(scalars), w)
				for i := range got {
					if !got[i].Equal(&want[i]) {
						t.Fatalf("point %d mismatch", i)
					}
				}
			})
		}
	}
}

func TestScalarMulGLV_MatchesNaive(t *testing.T) {
	n := 50
	pts := randomPoints(n)
	scalars := randomScalars(n)
	scalars[0].SetUint64(0)
	scalars[1].SetOne()
	scalars[2].SetOne()
	scalars[2].Neg(&scalars[2])
	pts[3] = curve.G1Affine{}

	got := make([]curve.G1Affine, n)
	copy(got, pts)
	ScalarMulGLV(got, ScalarsFromElements(scalars), LADDER_WINDOW)

	for i := range pts {
		var s big.Int
		want := naiveMul(&pts[i], scalars[i].BigInt(&s))
		if !got[i].Equal(&want) {
			t.Fatalf("point %d mismatch", i)
		}
	}
}

func TestVerifyInSubgroup(t *testing.T) {
	pts := randomPoints(16)
	if !VerifyInSubgroup(pts) {
		t.Fatalf("subgroup points rejected")
	}
	if !VerifyInSubgroup(nil) {
		t.Fatalf("empty batch rejected")
	}

	pts[5] = pointOutsideSubgroup(t)
	if !pts[5].IsOnCurve() {
		t.Fatalf("test point is not on the curve")
	}
	if VerifyInSubgroup(pts) {
		t.Fatalf("point outside the subgroup accepted")
	}
}

// pointOutsideSubgroup lifts small x values onto y² = x³ + 4 until it finds a
// point that is not in G1. The cofactor is large so the first hit almost
// always works.
func pointOutsideSubgroup(t *testing.T) curve.G1Affine {
	t.Helper()
	var four fp.Element
	four.SetUint64(4)
	for x := uint64(1); x < 1000; x++ {
		var p curve.G1Affine
		p.X.SetUint64(x)
		var rhs fp.Element
		rhs.Square(&p.X).Mul(&rhs, &p.X).Add(&rhs, &four)
		if p.Y.Sqrt(&rhs) == nil {
			continue
		}
		if !p.IsInSubGroup() {
			return p
		}
	}
	t.Fatalf("no point outside the subgroup found")
	return curve.G1Affine{}
}

func TestParallelize_CoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 5, 1000} {
		seen := make([]int32, n)
		Parallelize(n, func(start, end int) {
			for i := start; i < end; i++ {
				seen[i]++
			}
		}, 3)
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
	}
}
