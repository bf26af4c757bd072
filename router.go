// Package eonmsm computes multi-scalar multiplications and batches of
// independent scalar multiplications on BLS12-381 G1, on the CPU or shared
// with icicle accelerators.
package eonmsm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/logger"

	"github.com/eon-protocol/eonmsm/batch"
	"github.com/eon-protocol/eonmsm/gpu"
	"github.com/eon-protocol/eonmsm/msm"
	"github.com/eon-protocol/eonmsm/scheduler"
)

var _ scheduler.Device = (*gpu.Device)(nil)

var (
	devicesMu sync.Mutex
	devices   = map[int][]*gpu.Device{}
)

// openDevices opens the icicle devices once per group size.
func openDevices(groupSize int) ([]*gpu.Device, error) {
	devicesMu.Lock()
	defer devicesMu.Unlock()
	if devs, ok := devices[groupSize]; ok {
		return devs, nil
	}
	devs, err := gpu.Open(groupSize)
	if err != nil {
		return nil, err
	}
	devices[groupSize] = devs
	return devs, nil
}

func (o options) useIcicle() bool {
	return o.accelerator == ACCELERATOR_ICICLE && gpu.HasIcicle
}

// Multiply returns Σ scalars[i]·bases[i]. With the icicle accelerator the sum
// runs on the first device; if that fails the CPU result is returned and the
// failure is logged.
func Multiply(bases []curve.G1Affine, scalars []fr.Element, opts ...Option) (curve.G1Jac, error) {
	if len(bases) != len(scalars) {
		return curve.G1Jac{}, fmt.Errorf("%w: %d bases, %d scalars", ErrInputLengthMismatch, len(bases), len(scalars))
	}
	o := newOptions(opts...)

	log := logger.Logger().With().
		Str("accelerator", o.accelerator).
		Int("n", len(bases)).Logger()

	if o.useIcicle() && len(bases) > 0 {
		start := time.Now()
		res, err := multiplyOnDevice(o, bases, scalars)
		if err == nil {
			log.Debug().Dur("took", time.Since(start)).Msg("device msm done")
			return res, nil
		}
		log.Warn().Err(err).Msg("device msm failed, falling back to cpu")
	}

	start := time.Now()
	res, err := msm.Multiply(bases, scalars)
	if err != nil {
		return res, err
	}
	log.Debug().Dur("took", time.Since(start)).Msg("msm done")
	return res, nil
}

func multiplyOnDevice(o options, bases []curve.G1Affine, scalars []fr.Element) (curve.G1Jac, error) {
	devs, err := openDevices(o.scheduler.CudaGroupSize)
	if err != nil {
		return curve.G1Jac{}, err
	}
	res, err := devs[0].MultiExp(context.Background(), bases, scalars)
	if err != nil {
		return res, fmt.Errorf("%w: %s: %w", ErrDevice, devs[0].Name(), err)
	}
	return res, nil
}

// NewScheduler builds a scheduler over the CPU and, with the icicle
// accelerator, every available device. Having no device falls back to the
// CPU; any other device initialization failure is returned.
func NewScheduler(opts ...Option) (*scheduler.Scheduler, error) {
	o := newOptions(opts...)
	provider := scheduler.CPUOnly()
	if o.useIcicle() {
		var err error
		provider, err = deviceProvider(openDevices, o.scheduler.CudaGroupSize)
		if err != nil {
			return nil, err
		}
	}
	return scheduler.New(o.scheduler, provider, o.extra...)
}

func deviceProvider(open func(int) ([]*gpu.Device, error), groupSize int) (scheduler.CapabilityProvider, error) {
	devs, err := open(groupSize)
	if errors.Is(err, gpu.ErrNoDevice) {
		log := logger.Logger()
		log.Warn().Err(err).Msg("no icicle device, scheduling on cpu only")
		return scheduler.CPUOnly(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open icicle devices: %w", ErrDevice, err)
	}
	sd := make([]scheduler.Device, len(devs))
	for i, d := range devs {
		sd[i] = d
	}
	return scheduler.CPUPlusDevices(sd...), nil
}

// BatchScalarMultiply returns scalars[i]·bases[i] for every i through a
// scheduler built for this call.
func BatchScalarMultiply(ctx context.Context, bases []curve.G1Affine, scalars []fr.Element, opts ...Option) ([]curve.G1Affine, error) {
	s, err := NewScheduler(opts...)
	if err != nil {
		return nil, err
	}
	return s.BatchScalarMultiply(ctx, bases, scalars)
}

// VerifyInSubgroup reports whether every point lies in the prime-order
// subgroup.
func VerifyInSubgroup(points []curve.G1Affine) bool {
	return batch.VerifyInSubgroup(points)
}
