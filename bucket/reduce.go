// Package bucket sums many affine points into a fixed number of buckets.
//
// Points that share a bucket are reduced with a binary addition tree. All
// additions of one tree level, across every bucket, form a single batch of
// disjoint affine additions that share their field inversions.
package bucket

import (
	"errors"
	"fmt"
	"math/bits"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"

	"github.com/eon-protocol/eonmsm/batch"
)

var (
	// ErrInternalConsistency is returned when the addition tree leaves a
	// bucket with more than one element. It signals a bug, never bad input.
	ErrInternalConsistency = errors.New("bucket: addition tree did not reduce")

	// ErrInputLengthMismatch is returned when two inputs that pair up
	// element by element differ in length. Every package of the module wraps
	// this one value.
	ErrInputLengthMismatch = errors.New("input lengths differ")
)

// Position pairs an element index with its bucket. A bucket id at or above
// the bucket count marks an element to skip.
type Position struct {
	Bucket uint32
	Index  uint32
}

// Reduce returns, for every bucket b < bucketCount, the sum of the elements
// whose assignment is b, or infinity for an empty bucket. Elements assigned
// to an id ≥ bucketCount are ignored. elements is used as scratch space and
// holds partial sums on return.
func Reduce(bucketCount int, elements []curve.G1Affine, assignment []uint32) ([]curve.G1Affine, error) {
	if len(elements) != len(assignment) {
		return nil, fmt.Errorf("%w: %d != %d", ErrInputLengthMismatch, len(elements), len(assignment))
	}
	res := make([]curve.G1Affine, bucketCount)
	if bucketCount <= 0 || len(elements) == 0 {
		return res, nil
	}

	index := buildIndex(bucketCount, assignment)

	maxLen := 0
	for b := 0; b < bucketCount; b++ {
		maxLen = max(maxLen, index.len(b))
	}
	maxDepth := log2Ceil(maxLen)

	instr := make([]batch.Instruction, 0, len(elements)/2)
	for depth := 0; depth < maxDepth; depth++ {
		threshold := 1 << (maxDepth - depth - 1)
		instr = instr[:0]
		for b := 0; b < bucketCount; b++ {
			l := index.len(b)
			if l <= threshold {
				continue
			}
			pos := index.positions(b)
			half := l / 2
			for j := 0; j < half; j++ {
				instr = append(instr, batch.Instruction{Dst: pos[2*j], Src: pos[2*j+1]})
				pos[j] = pos[2*j]
			}
			if l%2 == 1 {
				pos[half] = pos[l-1]
			}
			index.truncate(b, (l+1)/2)
		}
		batch.AddAssign(elements, elements, instr)
	}

	for b := 0; b < bucketCount; b++ {
		switch index.len(b) {
		case 0:
		case 1:
			res[b] = elements[index.positions(b)[0]]
		default:
			return nil, fmt.Errorf("%w: bucket %d holds %d elements", ErrInternalConsistency, b, index.len(b))
		}
	}
	return res, nil
}

// buildIndex inserts positions in two passes. The first pass groups them by
// coarse bucket range so the second pass writes the flat array with good
// locality.
func buildIndex(bucketCount int, assignment []uint32) *invertedIndex {
	n := len(assignment)
	offset := 2 * ((n-1)/bucketCount + 1)
	index := newInvertedIndex(bucketCount, offset)

	numSplit := 1 << (log2Ceil(bucketCount)/2 + 2)
	splitSize := (bucketCount-1)/numSplit + 1

	groups := make([][]Position, numSplit)
	for i, b := range assignment {
		if int(b) >= bucketCount {
			continue
		}
		g := int(b) / splitSize
		groups[g] = append(groups[g], Position{Bucket: b, Index: uint32(i)})
	}
	for _, g := range groups {
		for _, p := range g {
			index.push(int(p.Bucket), p.Index)
		}
	}
	return index
}

// log2Ceil returns ⌈log2 n⌉, with log2Ceil(0) = log2Ceil(1) = 0.
func log2Ceil(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}
