package bucket

import (
	"fmt"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
)

// LARGE_BUCKET_COUNT is the bucket count from which ReduceSplit switches to
// fixed windows of 2^16 buckets.
const LARGE_BUCKET_COUNT = 1 << 26

// ReduceSplit is Reduce for very large bucket counts. It cuts the bucket
// range into windows of 2^log2Split buckets (2^16 at or above
// LARGE_BUCKET_COUNT), reduces each window on its own copy of the matching
// elements, and concatenates the window results in bucket order. Windows with
// no elements are left at infinity without being reduced. elements is left
// untouched.
func ReduceSplit(bucketCount int, elements []curve.G1Affine, assignment []uint32, log2Split int) ([]curve.G1Affine, error) {
	if len(elements) != len(assignment) {
		return nil, fmt.Errorf("%w: %d != %d", ErrInputLengthMismatch, len(elements), len(assignment))
	}
	if bucketCount <= 0 {
		return nil, nil
	}

	splitSize := 1 << log2Split
	if bucketCount >= LARGE_BUCKET_COUNT {
		splitSize = 1 << 16
	}
	numSplit := (bucketCount-1)/splitSize + 1

	elemSplit := make([][]curve.G1Affine, numSplit)
	bucketSplit := make([][]uint32, numSplit)
	for i, b := range assignment {
		if int(b) >= bucketCount {
			continue
		}
		s := int(b) / splitSize
		elemSplit[s] = append(elemSplit[s], elements[i])
		bucketSplit[s] = append(bucketSplit[s], b%uint32(splitSize))
	}

	res := make([]curve.G1Affine, 0, bucketCount)
	for s := 0; s < numSplit; s++ {
		size := min(splitSize, bucketCount-s*splitSize)
		if len(elemSplit[s]) == 0 {
			res = res[:len(res)+size]
			continue
		}
		sums, err := Reduce(size, elemSplit[s], bucketSplit[s])
		if err != nil {
			return nil, fmt.Errorf("split %d: %w", s, err)
		}
		res = append(res, sums...)
	}
	return res, nil
}
