package scheduler

import (
	"context"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/sync/errgroup"
)

// CONSUMERS_PER_DEVICE keeps a device busy while its previous job is copied
// back to the host.
const CONSUMERS_PER_DEVICE = 2

type job struct {
	lo, hi int
}

// newQueue returns a closed channel holding every job of a batch of n
// elements. A receive that reports !ok means there is no work left.
func newQueue(n, size int) <-chan job {
	q := make(chan job, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		q <- job{lo: lo, hi: min(lo+size, n)}
	}
	close(q)
	return q
}

// runDynamic lets CONSUMERS_PER_DEVICE consumers per device and one CPU
// consumer drain a shared job queue. The first failure cancels the others.
func (s *Scheduler) runDynamic(ctx context.Context, points []curve.G1Affine, scalars []fr.Element) error {
	queue := newQueue(len(points), s.cfg.JobChunkSize)
	g, gctx := errgroup.WithContext(ctx)

	for _, dev := range s.devices {
		for range CONSUMERS_PER_DEVICE {
			g.Go(func() error {
				for j := range queue {
					if err := s.deviceScalarMul(gctx, dev, points[j.lo:j.hi], scalars[j.lo:j.hi]); err != nil {
						return err
					}
				}
				return nil
			})
		}
	}
	g.Go(func() error {
		for j := range queue {
			if err := s.cpuScalarMul(gctx, points[j.lo:j.hi], scalars[j.lo:j.hi]); err != nil {
				return err
			}
			s.metrics.elements.WithLabelValues(CPU_PARTICIPANT).Add(float64(j.hi - j.lo))
		}
		return nil
	})
	return g.Wait()
}
