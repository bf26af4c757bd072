package glv

import (
	"math/big"
	"testing"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func randomScalar(t *testing.T) *big.Int {
	t.Helper()
	var e fr.Element
	if _, err := e.SetRandom(); err != nil {
		t.Fatalf("SetRandom: %v", err)
	}
	var b big.Int
	return e.BigInt(&b)
}

func checkDecomposition(t *testing.T, p *Params, k *big.Int) {
	t.Helper()
	d := p.Decompose(k)
	if got := p.Recompose(d); got.Cmp(new(big.Int).Mod(k, p.Modulus)) != 0 {
		t.Fatalf("k=%s: recomposed %s", k, got)
	}
	bound := int(p.RBits/2 + 1)
	if d.K1.Abs.BitLen() > bound || d.K2.Abs.BitLen() > bound {
		t.Fatalf("k=%s: parts too wide (%d, %d bits)", k, d.K1.Abs.BitLen(), d.K2.Abs.BitLen())
	}
}

func TestDecompose_RoundTrip(t *testing.T) {
	g := BLS12381G1()
	iterations := 1000
	if testing.Short() {
		iterations = 100
	}
	for i := 0; i < iterations; i++ {
		checkDecomposition(t, g.Params, randomScalar(t))
	}
}

func TestDecompose_EdgeScalars(t *testing.T) {
	g := BLS12381G1()
	n := g.Modulus
	cases := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(2),
		new(big.Int).Set(g.Lambda),
		new(big.Int).Add(g.Lambda, big.NewInt(1)),
		new(big.Int).Sub(n, big.NewInt(1)),
		new(big.Int).Rsh(n, 1),
		new(big.Int).Lsh(big.NewInt(1), 128),
	}
	for _, k := range cases {
		checkDecomposition(t, g.Params, k)
	}
}

func TestDecompose_Modulus(t *testing.T) {
	g := BLS12381G1()
	d := g.Decompose(g.Modulus)
	if d.K1.Neg || d.K2.Neg || d.K1.Abs.Cmp(g.Modulus) != 0 || d.K2.Abs.Sign() != 0 {
		t.Fatalf("k == n must decompose as (n, 0), got (%v %s, %v %s)", d.K1.Neg, d.K1.Abs, d.K2.Neg, d.K2.Abs)
	}
}

func TestDerive_BLS12381Basis(t *testing.T) {
	g := BLS12381G1()
	lambda := g.Lambda

	// n = λ² + λ + 1, so the basis is (1, -(λ+1)), (λ, 1)
	if !g.B1IsNeg || g.B2IsNeg {
		t.Fatalf("unexpected signs %v %v", g.B1IsNeg, g.B2IsNeg)
	}
	if want := new(big.Int).Add(lambda, big.NewInt(1)); g.B1.Cmp(want) != 0 {
		t.Fatalf("B1 = %s, want %s", g.B1, want)
	}
	if g.B2.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("B2 = %s, want 1", g.B2)
	}
	if g.RBits != 256 {
		t.Fatalf("RBits = %d", g.RBits)
	}
}

func TestDerive_Rejects(t *testing.T) {
	n := fr.Modulus()
	if _, err := Derive(n, big.NewInt(0), fr.Limbs); err == nil {
		t.Fatalf("lambda = 0 accepted")
	}
	if _, err := Derive(n, n, fr.Limbs); err == nil {
		t.Fatalf("lambda = n accepted")
	}
}

// The loop-based reduction and a single conditional correction agree on this
// curve because |d1 - d2| never reaches n.
func TestDecompose_DifferenceBelowModulus(t *testing.T) {
	g := BLS12381G1()
	half := new(big.Int).Lsh(big.NewInt(1), g.RBits-1)
	for i := 0; i < 200; i++ {
		k := randomScalar(t)
		c1 := new(big.Int).Mul(k, g.Q1)
		c1.Add(c1, half).Rsh(c1, g.RBits)
		c2 := new(big.Int).Mul(k, g.Q2)
		c2.Add(c2, half).Rsh(c2, g.RBits)
		diff := new(big.Int).Sub(c2.Mul(c2, g.B2), c1.Mul(c1, g.B1))
		if diff.Abs(diff).Cmp(g.Modulus) >= 0 {
			t.Fatalf("k=%s: |d2-d1| >= n", k)
		}
	}
}

func TestPhi_IsLambdaMultiplication(t *testing.T) {
	g := BLS12381G1()
	_, _, g1, _ := curve.Generators()

	var p curve.G1Affine
	p.ScalarMultiplication(&g1, randomScalar(t))

	var want curve.G1Affine
	want.ScalarMultiplication(&p, g.Lambda)
	got := g.Phi(&p)
	if !got.Equal(&want) {
		t.Fatalf("φ(P) != λ·P")
	}

	inf := curve.G1Affine{}
	if got := g.Phi(&inf); !got.IsInfinity() {
		t.Fatalf("φ(∞) != ∞")
	}
}

func TestDecompose_Property(t *testing.T) {
	g := BLS12381G1()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("k1 + k2·λ ≡ k", prop.ForAll(
		func(a, b, c, d uint64) bool {
			k := new(big.Int).SetUint64(a)
			for _, limb := range []uint64{b, c, d} {
				k.Lsh(k, 64).Or(k, new(big.Int).SetUint64(limb))
			}
			k.Mod(k, g.Modulus)
			dec := g.Decompose(k)
			return g.Recompose(dec).Cmp(k) == 0 &&
				dec.K1.Abs.BitLen() <= int(g.RBits/2+1) &&
				dec.K2.Abs.BitLen() <= int(g.RBits/2+1)
		},
		gen.UInt64(), gen.UInt64(), gen.UInt64(), gen.UInt64(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestDecomposeElement(t *testing.T) {
	g := BLS12381G1()
	var e fr.Element
	e.SetUint64(123456789)
	d := g.DecomposeElement(&e)
	if got := g.Recompose(d); got.Cmp(big.NewInt(123456789)) != 0 {
		t.Fatalf("recomposed %s", got)
	}
}
