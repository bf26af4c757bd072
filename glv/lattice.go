package glv

import (
	"errors"
	"fmt"
	"math/big"
)

// Derive computes the decomposition constants for a group of order modulus
// and endomorphism eigenvalue lambda. limbs is the 64-bit limb count of the
// scalar representation and fixes R = 2^(64·limbs).
//
// The short basis comes from the extended Euclidean algorithm on (n, λ),
// stopped at the first remainder below √n: every step keeps
// sᵢ·n + tᵢ·λ = rᵢ, so (rᵢ, tᵢ) satisfies rᵢ - tᵢ·λ ≡ 0 (mod n).
func Derive(modulus, lambda *big.Int, limbs uint) (*Params, error) {
	if modulus.Sign() <= 0 || lambda.Sign() <= 0 || lambda.Cmp(modulus) >= 0 {
		return nil, errors.New("glv: lambda must lie in (0, n)")
	}
	n := modulus

	r := [3]*big.Int{new(big.Int).Set(n), new(big.Int).Set(lambda), new(big.Int).Set(n)}
	t := [3]*big.Int{new(big.Int), big.NewInt(1), new(big.Int)}

	sq := new(big.Int)
	q := new(big.Int)
	i := 0
	for sq.Mul(r[i%3], r[i%3]).Cmp(n) >= 0 {
		div := r[(i+1)%3]
		if div.Sign() == 0 {
			return nil, fmt.Errorf("glv: degenerate basis at step %d", i)
		}
		rem := new(big.Int)
		q.DivMod(r[i%3], div, rem)
		r[(i+2)%3] = rem

		next := new(big.Int).Mul(q, t[(i+1)%3])
		next.Sub(t[i%3], next).Mod(next, n)
		t[(i+2)%3] = next
		i++
	}

	maxBits := (n.BitLen()-1)/2 + 1
	shortest := func(x *big.Int) (bool, *big.Int) {
		if x.BitLen() <= maxBits {
			return false, new(big.Int).Set(x)
		}
		return true, new(big.Int).Sub(n, x)
	}

	last, prev := (i+1)%3, i%3
	b1Neg, b1 := shortest(t[last])
	b2Neg, b2 := shortest(t[prev])
	if b1Neg == b2Neg {
		return nil, errors.New("glv: basis vectors with equal signs are not supported")
	}

	for _, v := range [][2]*big.Int{{r[last], t[last]}, {r[prev], t[prev]}} {
		check := new(big.Int).Mul(v[1], lambda)
		check.Sub(v[0], check).Mod(check, n)
		if check.Sign() != 0 {
			return nil, errors.New("glv: basis vector is not in the lattice")
		}
	}

	rBits := limbs * 64
	R := new(big.Int).Lsh(big.NewInt(1), rBits)
	q1 := new(big.Int).Mul(b2, R)
	q1.Quo(q1, n)
	q2 := new(big.Int).Mul(b1, R)
	q2.Quo(q2, n)

	return &Params{
		Modulus: new(big.Int).Set(n),
		Lambda:  new(big.Int).Set(lambda),
		Q1:      q1,
		Q2:      q2,
		B1:      b1,
		B2:      b2,
		B1IsNeg: b1Neg,
		B2IsNeg: b2Neg,
		RBits:   rBits,
	}, nil
}
