package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/schollz/progressbar/v3"

	"github.com/eon-protocol/eonmsm/msm"
)

// Calibrate runs rounds static batches over the given sample and returns the
// resulting profile. The sample is not modified.
func (s *Scheduler) Calibrate(ctx context.Context, bases []curve.G1Affine, scalars []fr.Element, rounds int) (Profile, error) {
	if len(s.devices) == 0 {
		return Profile{}, errors.New("scheduler: calibration needs at least one device")
	}
	if len(bases) != len(scalars) {
		return Profile{}, fmt.Errorf("%w: %d bases, %d scalars", msm.ErrInputLengthMismatch, len(bases), len(scalars))
	}
	if len(bases) == 0 || rounds <= 0 {
		return s.Profile(), nil
	}

	bar := progressbar.NewOptions(rounds,
		progressbar.OptionSetWriter(s.progress),
		progressbar.OptionSetDescription("calibrating "+s.cfg.Namespace),
	)
	for r := 0; r < rounds; r++ {
		if err := s.runStatic(ctx, slices.Clone(bases), scalars); err != nil {
			return Profile{}, fmt.Errorf("calibration round %d: %w", r, err)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	p := s.Profile()
	s.log.Info().Int("rounds", rounds).Floats64("fractions", p.Fractions).Uint64("samples", p.Count).Msg("calibration done")
	return p, nil
}
