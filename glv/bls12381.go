package glv

import (
	"math/big"
	"sync"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// LAMBDA_BLS12_381 is z²-1 for the BLS parameter z = -0xd201000000010000. It
// is a primitive cube root of unity in Fr.
const LAMBDA_BLS12_381 = "ac45a4010001a40200000000ffffffff"

// G1 bundles the BLS12-381 G1 decomposition constants with ω, the cube root
// of unity in Fp for which φ(x, y) = (ωx, y) equals λ·(x, y).
type G1 struct {
	*Params
	Omega fp.Element
}

// BLS12381G1 returns the G1 parameters, derived on first use.
var BLS12381G1 = sync.OnceValue(func() *G1 {
	lambda, _ := new(big.Int).SetString(LAMBDA_BLS12_381, 16)
	params, err := Derive(fr.Modulus(), lambda, fr.Limbs)
	if err != nil {
		panic("glv: bls12-381 constants: " + err.Error())
	}
	return &G1{Params: params, Omega: matchOmega(lambda)}
})

// matchOmega picks the cube root of unity ω ∈ Fp consistent with λ on the
// group generator. The other root corresponds to λ².
func matchOmega(lambda *big.Int) fp.Element {
	p := fp.Modulus()
	e := new(big.Int).Sub(p, big.NewInt(1))
	e.Quo(e, big.NewInt(3))

	var omega fp.Element
	w := new(big.Int)
	for g := int64(2); ; g++ {
		w.Exp(big.NewInt(g), e, p)
		if w.Cmp(big.NewInt(1)) != 0 {
			break
		}
	}
	omega.SetBigInt(w)

	_, _, gen, _ := curve.Generators()
	var want curve.G1Affine
	want.ScalarMultiplication(&gen, lambda)

	var x fp.Element
	x.Mul(&gen.X, &omega)
	if x.Equal(&want.X) {
		return omega
	}
	omega.Square(&omega)
	return omega
}

// Phi returns φ(p) = λ·p.
func (g *G1) Phi(p *curve.G1Affine) curve.G1Affine {
	if p.IsInfinity() {
		return *p
	}
	var res curve.G1Affine
	res.X.Mul(&p.X, &g.Omega)
	res.Y = p.Y
	return res
}

// DecomposeElement splits a field element.
func (g *G1) DecomposeElement(k *fr.Element) Decomposition {
	var b big.Int
	return g.Decompose(k.BigInt(&b))
}
