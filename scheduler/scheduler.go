// Package scheduler spreads batch scalar multiplication k_i·P_i over the CPU
// and any number of accelerators, either by a persisted throughput profile
// (static) or through a shared job queue (dynamic).
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"slices"
	"sync"
	"time"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/eon-protocol/eonmsm/batch"
	"github.com/eon-protocol/eonmsm/msm"
)

var ErrDevice = errors.New("scheduler: device failure")

const CPU_PARTICIPANT = "cpu"

// Scheduler is safe for concurrent use. Profile updates from concurrent
// static batches are serialized.
type Scheduler struct {
	cfg      Config
	devices  []Device
	store    ProfileStore
	metrics  *metrics
	log      zerolog.Logger
	progress io.Writer
	reg      prometheus.Registerer

	mu      sync.Mutex
	profile *Profile
}

type Option func(*Scheduler)

// WithRegisterer registers the scheduler metrics on reg instead of a private
// registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Scheduler) { s.reg = reg }
}

// WithProgress reports calibration progress to w.
func WithProgress(w io.Writer) Option {
	return func(s *Scheduler) { s.progress = w }
}

// WithProfile starts from p instead of the persisted profile.
func WithProfile(p Profile) Option {
	return func(s *Scheduler) {
		c := p.Clone()
		s.profile = &c
	}
}

func New(cfg Config, provider CapabilityProvider, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		provider = CPUOnly()
	}
	s := &Scheduler{
		cfg:      cfg,
		devices:  provider.Devices(),
		store:    ProfileStore{Dir: cfg.CacheDir, Namespace: cfg.Namespace},
		progress: io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.profile != nil {
		if err := s.profile.Validate(len(s.devices)); err != nil {
			return nil, err
		}
	}

	m, err := newMetrics(s.reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	s.metrics = m

	names := make([]string, len(s.devices))
	for i, d := range s.devices {
		names[i] = d.Name()
	}
	s.log = logger.Logger().With().
		Str("component", "scheduler").
		Str("namespace", cfg.Namespace).
		Strs("devices", names).Logger()
	return s, nil
}

func (s *Scheduler) Config() Config { return s.cfg }

func (s *Scheduler) HasDevices() bool { return len(s.devices) > 0 }

// LoadProfile replaces the in-memory profile with the persisted one. When
// the cache cannot be used the profile is reset to an even split and the
// reason is returned.
func (s *Scheduler) LoadProfile() error {
	p, err := s.loadProfile()
	s.mu.Lock()
	s.profile = &p
	s.mu.Unlock()
	s.metrics.observeProfile(p)
	return err
}

func (s *Scheduler) loadProfile() (Profile, error) {
	if s.cfg.CacheDir == "" {
		return EvenSplit(len(s.devices)), nil
	}
	return s.store.Load(len(s.devices))
}

// PersistProfile writes the in-memory profile. It is a no-op without a
// cache directory.
func (s *Scheduler) PersistProfile() error {
	if s.cfg.CacheDir == "" {
		return nil
	}
	return s.store.Persist(s.Profile())
}

// ClearProfile resets to an even split and truncates the persisted profile.
func (s *Scheduler) ClearProfile() error {
	p := EvenSplit(len(s.devices))
	s.mu.Lock()
	s.profile = &p
	s.mu.Unlock()
	if s.cfg.CacheDir == "" {
		return nil
	}
	return s.store.Clear()
}

// Profile returns a copy of the current profile, loading it on first use.
func (s *Scheduler) Profile() Profile {
	s.ensureProfile()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

func (s *Scheduler) SetProfile(p Profile) error {
	if err := p.Validate(len(s.devices)); err != nil {
		return err
	}
	c := p.Clone()
	s.mu.Lock()
	s.profile = &c
	s.mu.Unlock()
	s.metrics.observeProfile(c)
	return nil
}

// ensureProfile loads the persisted profile on first use. The cache is read
// without s.mu held; a profile installed in the meantime is kept.
func (s *Scheduler) ensureProfile() {
	s.mu.Lock()
	loaded := s.profile != nil
	s.mu.Unlock()
	if loaded {
		return
	}

	p, err := s.loadProfile()
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.store.Path()).Msg("discarding cached profile")
	}
	s.mu.Lock()
	if s.profile == nil {
		s.profile = &p
	}
	s.mu.Unlock()
}

// BatchScalarMultiply returns scalars[i]·bases[i] for every i. The inputs
// are not modified. On error no partial result is returned.
func (s *Scheduler) BatchScalarMultiply(ctx context.Context, bases []curve.G1Affine, scalars []fr.Element) ([]curve.G1Affine, error) {
	if len(bases) != len(scalars) {
		return nil, fmt.Errorf("%w: %d bases, %d scalars", msm.ErrInputLengthMismatch, len(bases), len(scalars))
	}
	points := slices.Clone(bases)
	if len(points) == 0 {
		return points, nil
	}

	var (
		err      error
		strategy = s.cfg.Strategy
		start    = time.Now()
	)
	switch {
	case len(s.devices) == 0:
		strategy = "cpu"
		err = s.cpuScalarMul(ctx, points, scalars)
		if err == nil {
			s.metrics.elements.WithLabelValues(CPU_PARTICIPANT).Add(float64(len(points)))
		}
	case strategy == Dynamic:
		err = s.runDynamic(ctx, points, scalars)
	default:
		err = s.runStatic(ctx, points, scalars)
	}
	if err != nil {
		return nil, err
	}
	took := time.Since(start)
	s.metrics.batches.WithLabelValues(string(strategy)).Observe(took.Seconds())
	s.log.Debug().Str("strategy", string(strategy)).Int("n", len(points)).Dur("took", took).Msg("batch scalar multiplication done")
	return points, nil
}

// cpuScalarMul runs the batched GLV ladder over CPUChunkSize chunks in
// parallel, in place.
func (s *Scheduler) cpuScalarMul(ctx context.Context, points []curve.G1Affine, scalars []fr.Element) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for lo := 0; lo < len(points); lo += s.cfg.CPUChunkSize {
		hi := min(lo+s.cfg.CPUChunkSize, len(points))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			batch.ScalarMulGLV(points[lo:hi], batch.ScalarsFromElements(scalars[lo:hi]), s.cfg.Window)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) deviceScalarMul(ctx context.Context, d Device, points []curve.G1Affine, scalars []fr.Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.ScalarMul(ctx, points, scalars); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDevice, d.Name(), err)
	}
	s.metrics.elements.WithLabelValues(d.Name()).Add(float64(len(points)))
	return nil
}
