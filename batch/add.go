// Package batch implements affine point arithmetic over many independent
// points at once. Every call shares a single field inversion per chunk of
// BATCH_ADD_SIZE operations, which is what makes affine coordinates cheaper
// than projective ones when the batch is large.
package batch

import (
	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
)

// BATCH_ADD_SIZE is the number of additions sharing one inversion.
const BATCH_ADD_SIZE = 4096

// Instruction adds src[Src] into dst[Dst].
type Instruction struct {
	Dst, Src uint32
}

type opKind uint8

const (
	opSkip opKind = iota
	opCopy
	opAdd
	opDouble
	opInfinity
)

// AddAssign computes dst[i.Dst] += src[i.Src] for every instruction. dst and
// src may be the same slice. Destinations must be pairwise distinct and no
// destination may be read as a source by another instruction of the call.
func AddAssign(dst, src []curve.G1Affine, instr []Instruction) {
	chunks(len(instr), BATCH_ADD_SIZE, func(lo, hi int) {
		addChunk(dst, src, instr[lo:hi])
	})
}

func addChunk(dst, src []curve.G1Affine, instr []Instruction) {
	kinds := make([]opKind, len(instr))
	den := make([]fp.Element, len(instr))

	for k, in := range instr {
		p, q := &dst[in.Dst], &src[in.Src]
		switch {
		case q.IsInfinity():
			kinds[k] = opSkip
		case p.IsInfinity():
			kinds[k] = opCopy
		case p.X.Equal(&q.X):
			if p.Y.Equal(&q.Y) && !p.Y.IsZero() {
				kinds[k] = opDouble
				den[k].Double(&p.Y)
			} else {
				// P + (-P)
				kinds[k] = opInfinity
			}
		default:
			kinds[k] = opAdd
			den[k].Sub(&q.X, &p.X)
		}
	}

	inv := fp.BatchInvert(den)

	var lambda, t, x3 fp.Element
	for k, in := range instr {
		p, q := &dst[in.Dst], &src[in.Src]
		switch kinds[k] {
		case opCopy:
			*p = *q
		case opInfinity:
			*p = curve.G1Affine{}
		case opAdd:
			// λ = (y2 - y1) / (x2 - x1)
			lambda.Sub(&q.Y, &p.Y).Mul(&lambda, &inv[k])
			x3.Square(&lambda).Sub(&x3, &p.X).Sub(&x3, &q.X)
			t.Sub(&p.X, &x3).Mul(&t, &lambda).Sub(&t, &p.Y)
			p.X, p.Y = x3, t
		case opDouble:
			doubleWith(p, &inv[k])
		}
	}
}

// doubleWith doubles p given inv = 1/(2y).
func doubleWith(p *curve.G1Affine, inv *fp.Element) {
	var lambda, t, x3 fp.Element
	// λ = 3x² / 2y
	lambda.Square(&p.X)
	t.Double(&lambda)
	lambda.Add(&lambda, &t).Mul(&lambda, inv)
	x3.Square(&lambda)
	t.Double(&p.X)
	x3.Sub(&x3, &t)
	t.Sub(&p.X, &x3).Mul(&t, &lambda).Sub(&t, &p.Y)
	p.X, p.Y = x3, t
}

// DoubleAll doubles every point in place.
func DoubleAll(points []curve.G1Affine) {
	chunks(len(points), BATCH_ADD_SIZE, func(lo, hi int) {
		doubleChunk(points[lo:hi])
	})
}

func doubleChunk(points []curve.G1Affine) {
	den := make([]fp.Element, len(points))
	for i := range points {
		if !points[i].IsInfinity() {
			den[i].Double(&points[i].Y)
		}
	}
	inv := fp.BatchInvert(den)
	for i := range points {
		if points[i].IsInfinity() {
			continue
		}
		if den[i].IsZero() {
			// 2-torsion
			points[i] = curve.G1Affine{}
			continue
		}
		doubleWith(&points[i], &inv[i])
	}
}
