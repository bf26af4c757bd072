//go:build !icicle

package gpu

import (
	"context"
	"errors"
	"fmt"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

const HasIcicle = false

var (
	ErrNoDevice = errors.New("gpu: no icicle device available")
	errNoIcicle = fmt.Errorf("%w: program compiled without 'icicle' build tag", ErrNoDevice)
)

type Device struct{}

func Open(_ int) ([]*Device, error) {
	return nil, errNoIcicle
}

func (*Device) Name() string { return DEVICE_TYPE }

func (*Device) ScalarMul(_ context.Context, _ []curve.G1Affine, _ []fr.Element) error {
	return errNoIcicle
}

func (*Device) MultiExp(_ context.Context, _ []curve.G1Affine, _ []fr.Element) (curve.G1Jac, error) {
	return curve.G1Jac{}, errNoIcicle
}
