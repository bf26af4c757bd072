//go:build icicle

package bls12_381_gpu

import (
	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	icicle_core "github.com/ingonyama-zk/icicle-gnark/v3/wrappers/golang/core"
	icicle_bls12_381 "github.com/ingonyama-zk/icicle-gnark/v3/wrappers/golang/curves/bls12381"
	icicle_msm "github.com/ingonyama-zk/icicle-gnark/v3/wrappers/golang/curves/bls12381/msm"
	icicle_runtime "github.com/ingonyama-zk/icicle-gnark/v3/wrappers/golang/runtime"
)

func fpFromIcicle(b []byte) fp.Element {
	e, _ := fp.LittleEndian.Element((*[fp.Bytes]byte)(b))
	return e
}

// projectiveToAffine converts icicle projective results (X/Z, Y/Z) into
// gnark affine points with a single batched inversion. Z = 0 maps to the
// point at infinity.
func projectiveToAffine(in []icicle_bls12_381.Projective, out []curve.G1Affine) {
	zs := make([]fp.Element, len(in))
	for i := range in {
		zs[i] = fpFromIcicle(in[i].Z.ToBytesLittleEndian())
	}
	zInv := fp.BatchInvert(zs)
	for i := range in {
		if zs[i].IsZero() {
			out[i] = curve.G1Affine{}
			continue
		}
		x := fpFromIcicle(in[i].X.ToBytesLittleEndian())
		y := fpFromIcicle(in[i].Y.ToBytesLittleEndian())
		out[i].X.Mul(&x, &zInv[i])
		out[i].Y.Mul(&y, &zInv[i])
	}
}

// CopyBasesToDevice uploads gnark affine points and converts them out of
// Montgomery form on the device. The caller frees the slice.
func CopyBasesToDevice(bases []curve.G1Affine) (icicle_core.DeviceSlice, icicle_runtime.EIcicleError) {
	host := icicle_core.HostSlice[curve.G1Affine](bases)
	var basesDev icicle_core.DeviceSlice
	host.CopyToDevice(&basesDev, true)
	if st := icicle_bls12_381.AffineFromMontgomery(basesDev); st != icicle_runtime.Success {
		_ = basesDev.Free()
		return icicle_core.DeviceSlice{}, st
	}
	return basesDev, icicle_runtime.Success
}

// OnDeviceMultiExp computes Σ scalars[i]·bases[i] against bases already on
// the device (see CopyBasesToDevice). Scalars stay in Montgomery form.
func OnDeviceMultiExp(scalars []fr.Element, basesDev icicle_core.DeviceSlice) (curve.G1Affine, icicle_runtime.EIcicleError) {
	host := icicle_core.HostSliceFromElements(scalars)
	var scalarsDev icicle_core.DeviceSlice
	host.CopyToDevice(&scalarsDev, true)
	defer scalarsDev.Free()

	cfg := icicle_msm.GetDefaultMSMConfig()
	cfg.AreScalarsMontgomeryForm = true
	cfg.AreBasesMontgomeryForm = false
	cfg.PrecomputeFactor = 1

	out := make(icicle_core.HostSlice[icicle_bls12_381.Projective], 1)
	if st := icicle_msm.Msm(scalarsDev, basesDev, &cfg, out); st != icicle_runtime.Success {
		return curve.G1Affine{}, st
	}
	res := make([]curve.G1Affine, 1)
	projectiveToAffine(out, res)
	return res[0], icicle_runtime.Success
}

// OnDeviceScalarMul replaces points[i] with scalars[i]·points[i]. It runs as a
// batch of len(points) single-term MSMs that do not share bases.
func OnDeviceScalarMul(points []curve.G1Affine, scalars []fr.Element) icicle_runtime.EIcicleError {
	if len(points) != len(scalars) {
		return icicle_runtime.InvalidArgument
	}
	if len(points) == 0 {
		return icicle_runtime.Success
	}

	basesDev, st := CopyBasesToDevice(points)
	if st != icicle_runtime.Success {
		return st
	}
	defer basesDev.Free()

	host := icicle_core.HostSliceFromElements(scalars)
	var scalarsDev icicle_core.DeviceSlice
	host.CopyToDevice(&scalarsDev, true)
	defer scalarsDev.Free()

	cfg := icicle_msm.GetDefaultMSMConfig()
	cfg.BatchSize = int32(len(points))
	cfg.ArePointsSharedInBatch = false
	cfg.AreScalarsMontgomeryForm = true
	cfg.AreBasesMontgomeryForm = false
	cfg.PrecomputeFactor = 1

	out := make(icicle_core.HostSlice[icicle_bls12_381.Projective], len(points))
	if st := icicle_msm.Msm(scalarsDev, basesDev, &cfg, out); st != icicle_runtime.Success {
		return st
	}
	projectiveToAffine(out, points)
	return icicle_runtime.Success
}
