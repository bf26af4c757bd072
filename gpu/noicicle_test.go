//go:build !icicle

package gpu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenWithoutIcicle(t *testing.T) {
	require.False(t, HasIcicle)

	devices, err := Open(256)
	require.ErrorIs(t, err, ErrNoDevice)
	require.Empty(t, devices)

	var d Device
	require.Error(t, d.ScalarMul(context.Background(), nil, nil))
	_, err = d.MultiExp(context.Background(), nil, nil)
	require.Error(t, err)
}
