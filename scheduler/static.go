package scheduler

import (
	"context"
	"time"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/sync/errgroup"
)

// runStatic partitions points by the current profile, runs every share
// concurrently, then folds the measured throughputs back into the profile
// and persists it.
func (s *Scheduler) runStatic(ctx context.Context, points []curve.G1Affine, scalars []fr.Element) error {
	n := len(points)

	s.ensureProfile()
	s.mu.Lock()
	profile := s.profile.Clone()
	s.mu.Unlock()

	counts, cpuCount := profile.Partition(n)

	var (
		elapsed    = make([]time.Duration, len(s.devices))
		cpuElapsed time.Duration
	)
	g, gctx := errgroup.WithContext(ctx)
	lo := 0
	for d, dev := range s.devices {
		hi := lo + counts[d]
		pts, sc := points[lo:hi], scalars[lo:hi]
		lo = hi
		if len(pts) == 0 {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			if err := s.deviceScalarMul(gctx, dev, pts, sc); err != nil {
				return err
			}
			elapsed[d] = time.Since(start)
			return nil
		})
	}
	if cpuCount > 0 {
		pts, sc := points[lo:], scalars[lo:]
		g.Go(func() error {
			start := time.Now()
			if err := s.cpuScalarMul(gctx, pts, sc); err != nil {
				return err
			}
			cpuElapsed = time.Since(start)
			s.metrics.elements.WithLabelValues(CPU_PARTICIPANT).Add(float64(len(pts)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	thr := make([]float64, len(s.devices))
	for d := range thr {
		thr[d] = throughput(counts[d], elapsed[d].Seconds())
	}
	cpuThr := throughput(cpuCount, cpuElapsed.Seconds())

	s.mu.Lock()
	p := s.profile
	p.Update(thr, cpuThr)
	updated := p.Clone()
	s.mu.Unlock()
	s.metrics.observeProfile(updated)

	s.log.Debug().
		Ints("counts", counts).
		Int("cpu", cpuCount).
		Floats64("fractions", updated.Fractions).
		Msg("static partition done")

	if s.cfg.CacheDir != "" {
		if err := s.store.Persist(updated); err != nil {
			s.log.Warn().Err(err).Str("path", s.store.Path()).Msg("profile not persisted")
		}
	}
	return nil
}
