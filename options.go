package eonmsm

import (
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eon-protocol/eonmsm/scheduler"
)

type options struct {
	accelerator string
	scheduler   scheduler.Config
	extra       []scheduler.Option
}

type Option func(*options)

func newOptions(opts ...Option) options {
	o := options{
		accelerator: ACCELERATOR_CPU,
		scheduler:   scheduler.DefaultConfig(),
	}
	if b := os.Getenv(ENV_BACKEND); b != "" {
		o.accelerator = b
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithAccelerator selects "cpu" or "icicle". Icicle only takes effect in
// binaries built with the icicle tag.
func WithAccelerator(name string) Option {
	return func(o *options) { o.accelerator = name }
}

func WithStrategy(s scheduler.Strategy) Option {
	return func(o *options) { o.scheduler.Strategy = s }
}

func WithJobChunkSize(n int) Option {
	return func(o *options) { o.scheduler.JobChunkSize = n }
}

func WithCPUChunkSize(n int) Option {
	return func(o *options) { o.scheduler.CPUChunkSize = n }
}

func WithCudaGroupSize(n int) Option {
	return func(o *options) { o.scheduler.CudaGroupSize = n }
}

// WithWindow sets the digit width of the CPU ladder.
func WithWindow(w int) Option {
	return func(o *options) { o.scheduler.Window = w }
}

// WithCacheDir sets where the throughput profile is kept. An empty dir keeps
// the profile in memory only.
func WithCacheDir(dir string) Option {
	return func(o *options) { o.scheduler.CacheDir = dir }
}

func WithNamespace(ns string) Option {
	return func(o *options) { o.scheduler.Namespace = ns }
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.extra = append(o.extra, scheduler.WithRegisterer(reg)) }
}

func WithProgress(w io.Writer) Option {
	return func(o *options) { o.extra = append(o.extra, scheduler.WithProgress(w)) }
}
