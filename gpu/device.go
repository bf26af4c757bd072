//go:build icicle

package gpu

import (
	"context"
	"errors"
	"fmt"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/logger"
	icicle_runtime "github.com/ingonyama-zk/icicle-gnark/v3/wrappers/golang/runtime"

	bls12_381_gpu "github.com/eon-protocol/eonmsm/gpu/bls12381"
)

const HasIcicle = true

var ErrNoDevice = errors.New("gpu: no icicle device available")

// Device is one icicle accelerator. Every call runs inside RunOnDevice so
// several devices can be driven from the same process.
type Device struct {
	dev       icicle_runtime.Device
	id        int
	groupSize int
}

// Open loads the icicle backend and returns every available device of
// DEVICE_TYPE. Scalar multiplications are submitted in groups of groupSize
// points.
func Open(groupSize int) ([]*Device, error) {
	if groupSize <= 0 {
		return nil, fmt.Errorf("gpu: invalid group size %d", groupSize)
	}
	if st := icicle_runtime.LoadBackendFromEnvOrDefault(); st != icicle_runtime.Success {
		return nil, fmt.Errorf("load icicle backend: %s", st.AsString())
	}

	first := icicle_runtime.CreateDevice(DEVICE_TYPE, 0)
	if !icicle_runtime.IsDeviceAvailable(&first) {
		return nil, ErrNoDevice
	}
	if st := icicle_runtime.SetDevice(&first); st != icicle_runtime.Success {
		return nil, fmt.Errorf("set device: %s", st.AsString())
	}
	count, st := icicle_runtime.GetDeviceCount()
	if st != icicle_runtime.Success {
		return nil, fmt.Errorf("device count: %s", st.AsString())
	}

	log := logger.Logger()
	devices := make([]*Device, 0, count)
	for i := 0; i < count; i++ {
		dev := icicle_runtime.CreateDevice(DEVICE_TYPE, i)
		if !icicle_runtime.IsDeviceAvailable(&dev) {
			log.Warn().Int("id", i).Str("type", DEVICE_TYPE).Msg("device unavailable, skipping")
			continue
		}
		devices = append(devices, &Device{dev: dev, id: i, groupSize: groupSize})
	}
	if len(devices) == 0 {
		return nil, ErrNoDevice
	}
	log.Debug().Int("devices", len(devices)).Int("groupSize", groupSize).Msg("icicle devices ready")
	return devices, nil
}

func (d *Device) Name() string { return fmt.Sprintf("%s:%d", DEVICE_TYPE, d.id) }

func (d *Device) run(f func() icicle_runtime.EIcicleError) error {
	st := icicle_runtime.Success
	done := make(chan struct{})
	icicle_runtime.RunOnDevice(&d.dev, func(args ...any) {
		defer close(done)
		st = f()
	})
	<-done
	if st != icicle_runtime.Success {
		return errors.New(st.AsString())
	}
	return nil
}

// ScalarMul replaces points[i] with scalars[i]·points[i], one group at a
// time. The context is checked between groups.
func (d *Device) ScalarMul(ctx context.Context, points []curve.G1Affine, scalars []fr.Element) error {
	if len(points) != len(scalars) {
		return fmt.Errorf("gpu: %d points, %d scalars", len(points), len(scalars))
	}
	for lo := 0; lo < len(points); lo += d.groupSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		hi := min(lo+d.groupSize, len(points))
		err := d.run(func() icicle_runtime.EIcicleError {
			return bls12_381_gpu.OnDeviceScalarMul(points[lo:hi], scalars[lo:hi])
		})
		if err != nil {
			return fmt.Errorf("scalar mul [%d:%d]: %w", lo, hi, err)
		}
	}
	return nil
}

// MultiExp computes Σ scalars[i]·bases[i] on the device.
func (d *Device) MultiExp(ctx context.Context, bases []curve.G1Affine, scalars []fr.Element) (curve.G1Jac, error) {
	var res curve.G1Jac
	if len(bases) != len(scalars) {
		return res, fmt.Errorf("gpu: %d bases, %d scalars", len(bases), len(scalars))
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	var aff curve.G1Affine
	err := d.run(func() icicle_runtime.EIcicleError {
		basesDev, st := bls12_381_gpu.CopyBasesToDevice(bases)
		if st != icicle_runtime.Success {
			return st
		}
		defer basesDev.Free()
		aff, st = bls12_381_gpu.OnDeviceMultiExp(scalars, basesDev)
		return st
	})
	if err != nil {
		return res, fmt.Errorf("multi exp: %w", err)
	}
	res.FromAffine(&aff)
	return res, nil
}
