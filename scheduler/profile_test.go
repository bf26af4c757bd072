package scheduler

import (
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/eon-protocol/eonmsm/msm"
)

func TestEvenSplit(t *testing.T) {
	p := EvenSplit(3)
	require.Equal(t, []float64{0.25, 0.25, 0.25}, p.Fractions)
	require.Zero(t, p.Count)
	require.NoError(t, p.Validate(3))

	require.Empty(t, EvenSplit(0).Fractions)
}

func TestProfile_Partition(t *testing.T) {
	cases := []struct {
		fractions []float64
		n         int
		counts    []int
		cpu       int
	}{
		{nil, 10, []int{}, 10},
		{[]float64{0.3, 0.3}, 100, []int{30, 30}, 40},
		{[]float64{0.5, 0.5}, 3, []int{2, 1}, 0},
		{[]float64{1}, 7, []int{7}, 0},
		{[]float64{0}, 7, []int{0}, 7},
		{[]float64{0.25, 0.25, 0.25}, 0, []int{0, 0, 0}, 0},
	}
	for _, tc := range cases {
		counts, cpu := Profile{Fractions: tc.fractions}.Partition(tc.n)
		require.Equal(t, tc.counts, counts, "%v n=%d", tc.fractions, tc.n)
		require.Equal(t, tc.cpu, cpu, "%v n=%d", tc.fractions, tc.n)
	}
}

func TestProfile_Validate(t *testing.T) {
	require.ErrorIs(t, Profile{Fractions: []float64{0.5}}.Validate(2), msm.ErrInputLengthMismatch)
	require.Error(t, Profile{Fractions: []float64{-0.1}}.Validate(1))
	require.Error(t, Profile{Fractions: []float64{math.NaN()}}.Validate(1))
	require.Error(t, Profile{Fractions: []float64{0.7, 0.7}}.Validate(2))
	require.NoError(t, Profile{Fractions: []float64{0.5, 0.5}}.Validate(2))
}

func TestProfile_Update(t *testing.T) {
	var p Profile

	// first sample is taken as is
	p.Update([]float64{300}, 100)
	require.Equal(t, uint64(1), p.Count)
	require.InDelta(t, 0.75, p.Fractions[0], 1e-12)

	// second sample is averaged with the first
	p.Update([]float64{100}, 100)
	require.Equal(t, uint64(2), p.Count)
	require.InDelta(t, (0.5+0.75)/2, p.Fractions[0], 1e-12)

	// nothing measured, nothing learned
	p.Update([]float64{0}, 0)
	require.Equal(t, uint64(2), p.Count)

	// a device that got no work counts as zero throughput
	p.Update([]float64{0}, 100)
	require.Equal(t, uint64(3), p.Count)
	require.InDelta(t, (0+2*0.625)/3, p.Fractions[0], 1e-12)
}

// Noisy measurements of a device twice as fast as the CPU settle near 2/3.
func TestProfile_UpdateConverges(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	p := EvenSplit(1)

	var tail []float64
	for i := 0; i < 400; i++ {
		noise := 1 + 0.2*(rng.Float64()-0.5)
		p.Update([]float64{2000 * noise}, 1000)
		if i >= 300 {
			tail = append(tail, p.Fractions[0])
		}
	}
	require.InDelta(t, 2.0/3, stat.Mean(tail, nil), 0.01)
	require.Less(t, stat.Variance(tail, nil), 1e-5)
	require.LessOrEqual(t, floats.Sum(p.Fractions), 1.0)
}

func TestProfileStore(t *testing.T) {
	store := ProfileStore{Dir: t.TempDir(), Namespace: "test"}
	require.Equal(t, filepath.Join(store.Dir, "eonmsm", "scalar-mul-profiler", "test", PROFILE_FILE), store.Path())

	// missing file
	p, err := store.Load(2)
	require.NoError(t, err)
	require.Equal(t, EvenSplit(2), p)

	want := Profile{Fractions: []float64{0.125, 0.5}, Count: 9}
	require.NoError(t, store.Persist(want))
	p, err = store.Load(2)
	require.NoError(t, err)
	require.Equal(t, want, p)

	// recorded for another device count
	p, err = store.Load(3)
	require.ErrorIs(t, err, msm.ErrInputLengthMismatch)
	require.Equal(t, EvenSplit(3), p)

	// corrupt file
	require.NoError(t, os.WriteFile(store.Path(), []byte{0x9f, 0x01}, 0o644))
	p, err = store.Load(2)
	require.ErrorIs(t, err, ErrCacheIO)
	require.Equal(t, EvenSplit(2), p)

	// cleared file
	require.NoError(t, store.Clear())
	p, err = store.Load(2)
	require.NoError(t, err)
	require.Equal(t, EvenSplit(2), p)
}

func TestNewQueue(t *testing.T) {
	var jobs []job
	for j := range newQueue(10, 4) {
		jobs = append(jobs, j)
	}
	require.Equal(t, []job{{0, 4}, {4, 8}, {8, 10}}, jobs)

	_, ok := <-newQueue(0, 4)
	require.False(t, ok)
}
