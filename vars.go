package eonmsm

import (
	"github.com/eon-protocol/eonmsm/bucket"
	"github.com/eon-protocol/eonmsm/msm"
	"github.com/eon-protocol/eonmsm/scheduler"
)

const ACCELERATOR_CPU = "cpu"
const ACCELERATOR_ICICLE = "icicle"

// ENV_BACKEND selects the default accelerator.
const ENV_BACKEND = "EONMSM_BACKEND"

var (
	ErrInputLengthMismatch = msm.ErrInputLengthMismatch
	ErrInternalConsistency = bucket.ErrInternalConsistency
	ErrDevice              = scheduler.ErrDevice
	ErrCacheIO             = scheduler.ErrCacheIO
)
