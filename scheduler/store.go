package scheduler

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/renameio/v2"
)

var ErrCacheIO = errors.New("scheduler: profile cache unreadable")

const PROFILE_FILE = "profile_data.cbor"

type profileRecord struct {
	_         struct{} `cbor:",toarray"`
	Fractions []float64
	Count     uint64
}

// ProfileStore persists a Profile under
// <Dir>/eonmsm/scalar-mul-profiler/<Namespace>/profile_data.cbor.
type ProfileStore struct {
	Dir       string
	Namespace string
}

func (s ProfileStore) Path() string {
	return filepath.Join(s.Dir, "eonmsm", "scalar-mul-profiler", s.Namespace, PROFILE_FILE)
}

// Load reads the profile for the given device count. A missing or cleared
// file yields an even split and no error. An unreadable file or one recorded
// for a different device count yields an even split and an error describing
// why it was discarded.
func (s ProfileStore) Load(devices int) (Profile, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return EvenSplit(devices), nil
	}
	if err != nil {
		return EvenSplit(devices), fmt.Errorf("%w: %w", ErrCacheIO, err)
	}
	if len(data) == 0 {
		return EvenSplit(devices), nil
	}

	var rec profileRecord
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return EvenSplit(devices), fmt.Errorf("%w: %s: %w", ErrCacheIO, s.Path(), err)
	}
	p := Profile{Fractions: rec.Fractions, Count: rec.Count}
	if err := p.Validate(devices); err != nil {
		return EvenSplit(devices), err
	}
	return p, nil
}

func (s ProfileStore) Persist(p Profile) error {
	data, err := cbor.Marshal(profileRecord{Fractions: p.Fractions, Count: p.Count})
	if err != nil {
		return err
	}
	return s.write(data)
}

// Clear truncates the stored profile so the next Load starts from an even
// split.
func (s ProfileStore) Clear() error {
	return s.write(nil)
}

func (s ProfileStore) write(data []byte) error {
	path := s.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrCacheIO, err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrCacheIO, err)
	}
	return nil
}
