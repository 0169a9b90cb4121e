package querybench

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/lzhtan/intdb-bench/internal/backend"
	"github.com/lzhtan/intdb-bench/internal/generator"
	"github.com/lzhtan/intdb-bench/pkg/types"
)

type call struct {
	backend types.BackendName
	qt      types.QueryType
	param   string
}

type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) add(c call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

// scriptedBackend succeeds or fails according to ok(invocation index).
// Like a real client it fails once its context is done.
type scriptedBackend struct {
	name   types.BackendName
	rec    *recorder
	ok     func(n int) bool
	onCall func(n int)
	n      int
}

func (s *scriptedBackend) Name() types.BackendName { return s.name }

func (s *scriptedBackend) Write(context.Context, types.Batch) backend.WriteResult {
	return backend.WriteResult{}
}

func (s *scriptedBackend) Query(ctx context.Context, qt types.QueryType, param string) ([]byte, error) {
	s.rec.add(call{s.name, qt, param})
	n := s.n
	s.n++
	if s.onCall != nil {
		s.onCall(n)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.ok != nil && !s.ok(n) {
		return nil, errors.New("query failed")
	}
	return []byte(`{"count":1}`), nil
}

func (s *scriptedBackend) Ping(context.Context) error { return nil }

func (s *scriptedBackend) CountRows([]byte) int { return 1 }

func newPair(okA, okB func(int) bool) (*scriptedBackend, *scriptedBackend, *recorder) {
	rec := &recorder{}
	return &scriptedBackend{name: types.BackendIntDB, rec: rec, ok: okA},
		&scriptedBackend{name: types.BackendInfluxDB, rec: rec, ok: okB},
		rec
}

func params() ParamSource {
	return generator.NewWithSeed(5)
}

func TestRun_WarmupThenAlternating(t *testing.T) {
	a, b, rec := newPair(nil, nil)
	r := NewRunner(a, b, params(), Options{Iterations: 4, Warmup: DefaultWarmup})

	cmp, err := r.Run(context.Background(), types.QueryPathPattern)
	require.NoError(t, err)

	require.Len(t, rec.calls, 2*DefaultWarmup+2*4)
	for i, c := range rec.calls {
		want := types.BackendIntDB
		if i%2 == 1 {
			want = types.BackendInfluxDB
		}
		assert.Equal(t, want, c.backend, "call %d", i)
		assert.Equal(t, rec.calls[0].param, c.param, "pattern switch is fixed")
	}

	assert.Len(t, cmp.IntDB.Samples, 4)
	assert.Len(t, cmp.InfluxDB.Samples, 4)
	assert.Equal(t, 4, cmp.IntDB.Attempts)
	require.NotNil(t, cmp.IntDB.Stats)
	assert.Equal(t, 1.0, cmp.IntDB.SuccessRate())
	assert.Len(t, r.Samples(), 8)
	assert.Equal(t, 1, r.Samples()[0].Rows)
}

func TestRun_ReconstructionDrawsFreshIDs(t *testing.T) {
	a, b, rec := newPair(nil, nil)
	r := NewRunner(a, b, params(), Options{Iterations: 10, Warmup: 0})

	_, err := r.Run(context.Background(), types.QueryPathReconstruction)
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < len(rec.calls); i += 2 {
		assert.Equal(t, rec.calls[i].param, rec.calls[i+1].param, "both backends get the same id")
		assert.Regexp(t, `^flow_\d{6}_1[01]\d$`, rec.calls[i].param)
		seen[rec.calls[i].param] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestRun_AggregationWindow(t *testing.T) {
	a, b, rec := newPair(nil, nil)
	r := NewRunner(a, b, params(), Options{Iterations: 1, Warmup: 0})

	cmp, err := r.Run(context.Background(), types.QueryPathAggregation)
	require.NoError(t, err)
	assert.Equal(t, "60", rec.calls[0].param)
	assert.Equal(t, "60", cmp.IntDB.Param)
}

func TestRun_FailuresExcludedFromSamples(t *testing.T) {
	a, b, _ := newPair(
		func(n int) bool { return n%2 == 0 },
		func(int) bool { return false },
	)
	r := NewRunner(a, b, params(), Options{Iterations: 6, Warmup: 0})

	cmp, err := r.Run(context.Background(), types.QueryPathPattern)
	require.NoError(t, err)

	assert.Len(t, cmp.IntDB.Samples, 3)
	assert.Equal(t, 3, cmp.IntDB.Successes)
	assert.Equal(t, 6, cmp.IntDB.Attempts)
	assert.InDelta(t, 0.5, cmp.IntDB.SuccessRate(), 1e-9)

	assert.Empty(t, cmp.InfluxDB.Samples)
	assert.Nil(t, cmp.InfluxDB.Stats)
	assert.Zero(t, cmp.InfluxDB.SuccessRate())
	assert.Equal(t, 6, cmp.InfluxDB.Attempts)
}

func TestRun_SampleBoundProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		iterations := rapid.IntRange(1, 40).Draw(t, "iterations")
		pattern := rapid.SliceOfN(rapid.Bool(), 80, 80).Draw(t, "pattern")
		ok := func(n int) bool { return pattern[n%len(pattern)] }

		a, b, _ := newPair(ok, ok)
		r := NewRunner(a, b, params(), Options{Iterations: iterations, Warmup: 0})
		cmp, err := r.Run(context.Background(), types.QueryPathReconstruction)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, res := range []*types.QueryResult{cmp.IntDB, cmp.InfluxDB} {
			if len(res.Samples) > iterations {
				t.Fatalf("%d samples for %d iterations", len(res.Samples), iterations)
			}
			if len(res.Samples) != res.Successes {
				t.Fatalf("samples %d != successes %d", len(res.Samples), res.Successes)
			}
			if res.Attempts != iterations {
				t.Fatalf("attempts %d != iterations %d", res.Attempts, iterations)
			}
		}
	})
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, b, rec := newPair(nil, nil)
	r := NewRunner(a, b, params(), Options{Iterations: 5, Warmup: 0})
	cmp, err := r.Run(ctx, types.QueryPathPattern)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, cmp)
	assert.Zero(t, cmp.IntDB.Attempts)
	assert.Empty(t, rec.calls)
}

func TestRun_CancelDuringQueryKeepsItSuccessful(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, b, rec := newPair(nil, nil)
	// the first measured call follows one warmup call
	a.onCall = func(n int) {
		if n == 1 {
			cancel()
		}
	}
	r := NewRunner(a, b, params(), Options{Iterations: 5, Warmup: 1})

	cmp, err := r.Run(ctx, types.QueryPathPattern)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, cmp)
	assert.Len(t, rec.calls, 4)
	for _, res := range []*types.QueryResult{cmp.IntDB, cmp.InfluxDB} {
		assert.Equal(t, 1, res.Attempts, res.Backend)
		assert.Equal(t, res.Attempts, res.Successes, res.Backend)
		assert.Len(t, res.Samples, 1)
	}
	for _, s := range r.Samples() {
		assert.True(t, s.Success)
		assert.Empty(t, s.Error)
	}
}

func TestRunAll_Order(t *testing.T) {
	a, b, _ := newPair(nil, nil)
	r := NewRunner(a, b, params(), Options{Iterations: 2, Warmup: 1})

	results, err := r.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, qt := range types.AllQueryTypes {
		assert.Equal(t, qt, results[i].QueryType)
	}
}

func TestNewRunner_Defaults(t *testing.T) {
	a, b, _ := newPair(nil, nil)
	r := NewRunner(a, b, params(), Options{Warmup: -1})
	assert.Equal(t, DefaultIterations, r.opts.Iterations)
	assert.Equal(t, 0, r.opts.Warmup)
	assert.Equal(t, DefaultWindowMinutes, r.opts.WindowMinutes)
}
