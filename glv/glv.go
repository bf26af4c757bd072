// Package glv splits a scalar k into two half-width scalars k1, k2 with
// k ≡ k1 + k2·λ (mod n), where λ is the eigenvalue of an efficient curve
// endomorphism φ. A multiplication k·P then becomes k1·P + k2·φ(P) and needs
// only half as many doublings.
package glv

import (
	"math/big"
)

// Params holds the lattice-basis constants of one curve.
//
//	Q1 = ⌊R·|B2|/n⌋, Q2 = ⌊R·|B1|/n⌋, R = 2^RBits
//
// B1 and B2 are magnitudes; the signs live in B1IsNeg and B2IsNeg. Both basis
// vectors (a, b) satisfy a - b·λ ≡ 0 (mod n).
type Params struct {
	Modulus *big.Int
	Lambda  *big.Int
	Q1, Q2  *big.Int
	B1, B2  *big.Int
	B1IsNeg bool
	B2IsNeg bool
	RBits   uint
}

// Part is one signed half of a decomposition.
type Part struct {
	Neg bool
	Abs *big.Int
}

// Decomposition satisfies k ≡ ±K1.Abs + (±K2.Abs)·λ (mod n).
type Decomposition struct {
	K1, K2 Part
}

// Decompose splits k. k is expected in [0, n]; k == n is returned unchanged
// as (n, 0) so that a subgroup check multiplies by the full order instead of
// two halves that may cancel.
func (p *Params) Decompose(k *big.Int) Decomposition {
	if k.Cmp(p.Modulus) == 0 {
		return Decomposition{
			K1: Part{Abs: new(big.Int).Set(k)},
			K2: Part{Abs: new(big.Int)},
		}
	}

	half := new(big.Int).Lsh(big.NewInt(1), p.RBits-1)

	// c1 ≈ round(k·|B2|/n), c2 ≈ round(k·|B1|/n)
	c1 := new(big.Int).Mul(k, p.Q1)
	c1.Add(c1, half).Rsh(c1, p.RBits)
	c2 := new(big.Int).Mul(k, p.Q2)
	c2.Add(c2, half).Rsh(c2, p.RBits)

	d1 := c1.Mul(c1, p.B1)
	d2 := c2.Mul(c2, p.B2)

	k2 := new(big.Int)
	if p.B1IsNeg {
		k2.Sub(d2, d1)
	} else {
		k2.Sub(d1, d2)
	}
	// reduce into [0, n) whichever side of the range k2 landed on
	k2.Mod(k2, p.Modulus)

	k1 := new(big.Int).Mul(k2, p.Lambda)
	k1.Sub(k, k1).Mod(k1, p.Modulus)

	return Decomposition{K1: p.signed(k1), K2: p.signed(k2)}
}

// signed maps x ∈ [0, n) to its shortest signed representative.
func (p *Params) signed(x *big.Int) Part {
	if uint(x.BitLen()) > p.RBits/2+1 {
		return Part{Neg: true, Abs: x.Sub(p.Modulus, x)}
	}
	return Part{Abs: x}
}

// Recompose returns (±K1 + (±K2)·λ) mod n.
func (p *Params) Recompose(d Decomposition) *big.Int {
	k1 := new(big.Int).Set(d.K1.Abs)
	if d.K1.Neg {
		k1.Neg(k1)
	}
	k2 := new(big.Int).Mul(d.K2.Abs, p.Lambda)
	if d.K2.Neg {
		k2.Neg(k2)
	}
	k1.Add(k1, k2)
	return k1.Mod(k1, p.Modulus)
}
