// Package gpu exposes icicle accelerators as batch scalar multiplication
// devices. Without the icicle build tag every entry point reports that
// acceleration is unavailable.
package gpu

// DEVICE_TYPE is the icicle backend devices are created on.
const DEVICE_TYPE = "CUDA"
