package scheduler

import (
	"fmt"
	"os"

	"github.com/eon-protocol/eonmsm/batch"
)

// Strategy selects how a batch is divided between devices and the CPU.
type Strategy string

const (
	// Static splits the batch once, sized by the throughput profile.
	Static Strategy = "static"
	// Dynamic lets every participant pull fixed-size jobs from a shared queue.
	Dynamic Strategy = "dynamic"
)

const (
	ENV_CACHE_DIR = "EONMSM_CACHE_DIR"
	ENV_STRATEGY  = "EONMSM_STRATEGY"

	DEFAULT_NAMESPACE       = "bls12_381_g1"
	DEFAULT_CUDA_GROUP_SIZE = 1 << 12
	DEFAULT_JOB_CHUNK_SIZE  = 1 << 14
	DEFAULT_CPU_CHUNK_SIZE  = 1 << 12
)

// Config holds the tuning knobs of a Scheduler.
type Config struct {
	// CudaGroupSize is the number of points a device handles per kernel launch.
	CudaGroupSize int `json:"cudaGroupSize"`
	// JobChunkSize is the size of one job of the dynamic queue.
	JobChunkSize int `json:"jobChunkSize"`
	// CPUChunkSize is the size of one batched ladder run on the CPU.
	CPUChunkSize int      `json:"cpuChunkSize"`
	Strategy     Strategy `json:"strategy"`
	// Window is the digit width of the CPU ladder.
	Window int `json:"window"`
	// CacheDir is the root of the persisted profile. Empty disables
	// persistence.
	CacheDir  string `json:"cacheDir"`
	Namespace string `json:"namespace"`
}

// DefaultConfig returns the default configuration with environment
// overrides applied.
func DefaultConfig() Config {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	cfg := Config{
		CudaGroupSize: DEFAULT_CUDA_GROUP_SIZE,
		JobChunkSize:  DEFAULT_JOB_CHUNK_SIZE,
		CPUChunkSize:  DEFAULT_CPU_CHUNK_SIZE,
		Strategy:      Static,
		Window:        batch.LADDER_WINDOW,
		CacheDir:      cacheDir,
		Namespace:     DEFAULT_NAMESPACE,
	}
	return cfg.WithEnv()
}

// WithEnv returns a copy of c with EONMSM_CACHE_DIR and EONMSM_STRATEGY
// applied when set.
func (c Config) WithEnv() Config {
	if dir, ok := os.LookupEnv(ENV_CACHE_DIR); ok {
		c.CacheDir = dir
	}
	if s := os.Getenv(ENV_STRATEGY); s != "" {
		c.Strategy = Strategy(s)
	}
	return c
}

func (c Config) Validate() error {
	switch {
	case c.CudaGroupSize <= 0:
		return fmt.Errorf("scheduler: invalid cuda group size %d", c.CudaGroupSize)
	case c.JobChunkSize <= 0:
		return fmt.Errorf("scheduler: invalid job chunk size %d", c.JobChunkSize)
	case c.CPUChunkSize <= 0:
		return fmt.Errorf("scheduler: invalid cpu chunk size %d", c.CPUChunkSize)
	case c.Window <= 0 || c.Window > 16:
		return fmt.Errorf("scheduler: invalid ladder window %d", c.Window)
	case c.Strategy != Static && c.Strategy != Dynamic:
		return fmt.Errorf("scheduler: unknown strategy %q", c.Strategy)
	case c.Namespace == "":
		return fmt.Errorf("scheduler: empty namespace")
	}
	return nil
}
