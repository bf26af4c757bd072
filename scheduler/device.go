package scheduler

import (
	"context"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Device multiplies points by scalars on an accelerator. ScalarMul replaces
// points[i] with scalars[i]·points[i] and blocks until the kernel returns.
type Device interface {
	Name() string
	ScalarMul(ctx context.Context, points []curve.G1Affine, scalars []fr.Element) error
}

// CapabilityProvider tells the scheduler which accelerators it may use. The
// CPU always participates.
type CapabilityProvider interface {
	Devices() []Device
}

type cpuOnly struct{}

func (cpuOnly) Devices() []Device { return nil }

// CPUOnly runs everything on the CPU.
func CPUOnly() CapabilityProvider { return cpuOnly{} }

type cpuPlusDevices struct {
	devices []Device
}

func (p cpuPlusDevices) Devices() []Device { return p.devices }

// CPUPlusDevices shares work between the CPU and the given devices. With no
// devices it behaves like CPUOnly.
func CPUPlusDevices(devices ...Device) CapabilityProvider {
	return cpuPlusDevices{devices: append([]Device(nil), devices...)}
}
