package delegation_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"pgregory.net/rapid"

	"github.com/cmwaters/liquid/delegation"
	"github.com/cmwaters/liquid/metrics"
	"github.com/cmwaters/liquid/pkg/registry"
)

var testCtx = context.Background()

func newEngine(t testing.TB, params delegation.Parameters, edges ...string) *delegation.Engine {
	t.Helper()
	return delegation.New(newRegistry(t, edges...), params, delegation.WithLogger(zerolog.Nop()))
}

func TestEngineToggleAndTally(t *testing.T) {
	engine := newEngine(t, delegation.DefaultParameters(), "a>b", "b>a")

	result := engine.Tally(testCtx)
	require.Equal(t, 2, result.NoVote)

	// the click flow: a toggles to yay and b inherits it
	p, err := engine.ToggleVote("a")
	require.NoError(t, err)
	require.Equal(t, delegation.Yay, p)
	result = engine.Tally(testCtx)
	require.Equal(t, 1, result.YayDirect)
	require.Equal(t, 1, result.YayDelegated)

	for _, want := range []delegation.Position{delegation.Nay, delegation.Blank, delegation.NoVote} {
		p, err = engine.ToggleVote("a")
		require.NoError(t, err)
		require.Equal(t, want, p)
	}
	result = engine.Tally(testCtx)
	require.Equal(t, 2, result.NoVote)
}

func TestEngineSetClearReplace(t *testing.T) {
	engine := newEngine(t, delegation.Parameters{}, "a>b", "b>c", "c>d", "d")

	require.NoError(t, engine.SetVote("d", delegation.Nay))
	require.Equal(t, 4, engine.Tally(testCtx).NayTotal)

	engine.ClearVotes()
	require.Zero(t, engine.VoteSet().Len())
	require.Equal(t, 4, engine.Tally(testCtx).NoVote)

	require.NoError(t, engine.ReplaceVotes(delegation.Votes{"b": delegation.Blank, "d": delegation.Yay}))
	result := engine.Tally(testCtx)
	require.Equal(t, 2, result.BlankTotal)
	require.Equal(t, 2, result.YayTotal)

	err := engine.ReplaceVotes(delegation.Votes{"x": delegation.Yay})
	require.ErrorIs(t, err, delegation.ErrUnknownVoter)
	require.Equal(t, result, engine.Tally(testCtx))
}

func TestEngineResolve(t *testing.T) {
	engine := newEngine(t, delegation.Parameters{}, "a>b", "b>c", "c")
	require.NoError(t, engine.SetVote("c", delegation.Blank))

	res, err := engine.Resolve("a")
	require.NoError(t, err)
	require.Equal(t, delegation.Blank, res.Position)
	require.Equal(t, "c", res.Source)

	_, err = engine.Resolve("z")
	require.ErrorIs(t, err, delegation.ErrUnknownVoter)
}

func TestEngineRejectsUnknownVoters(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewPrometheusCollector(reg)
	engine := delegation.New(newRegistry(t, "a"), delegation.Parameters{},
		delegation.WithLogger(zerolog.Nop()), delegation.WithMetrics(collector))

	_, err := engine.ToggleVote("z")
	require.ErrorIs(t, err, delegation.ErrUnknownVoter)
	require.ErrorIs(t, engine.SetVote("z", delegation.Yay), delegation.ErrUnknownVoter)
	require.NoError(t, engine.SetVote("a", delegation.Yay))

	count, err := testutil.GatherAndCount(reg, "liquid_voteset_rejections_total")
	require.NoError(t, err)
	require.Equal(t, 2, count) // one series per operation
}

func TestEngineCachesByRevision(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewPrometheusCollector(reg)
	engine := delegation.New(newRegistry(t, "a>b", "b"), delegation.Parameters{CacheSize: 4},
		delegation.WithLogger(zerolog.Nop()), delegation.WithMetrics(collector))

	first := engine.Tally(testCtx)
	second := engine.Tally(testCtx)
	require.Equal(t, first, second)

	// callers cannot corrupt the cached copy
	second.Annotations[0].Position = delegation.Blank
	require.Equal(t, first, engine.Tally(testCtx))

	// a change made straight on the vote set invalidates the cache
	require.NoError(t, engine.VoteSet().Set("b", delegation.Yay))
	require.Equal(t, 2, engine.Tally(testCtx).YayTotal)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() != nil {
				values[mf.GetName()] += m.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, 2.0, values["liquid_tally_computed_total"])
	require.Equal(t, 2.0, values["liquid_tally_cache_hits_total"])
}

func TestEngineWorkersMatchSequentialTally(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		vs, votes := population(t)
		reg, err := registry.New(vs)
		require.NoError(t, err)
		want := delegation.Tally(reg, votes)

		workers := rapid.IntRange(2, 8).Draw(t, "workers")
		memo := rapid.Bool().Draw(t, "memo")
		engine := delegation.New(reg, delegation.Parameters{Workers: workers, DisableMemo: !memo},
			delegation.WithLogger(zerolog.Nop()))
		require.NoError(t, engine.ReplaceVotes(votes))
		require.Equal(t, want, engine.Tally(testCtx))
	})
}

func TestEngineLargeLoopWithWorkers(t *testing.T) {
	// a single long loop with no voters, split across more workers than
	// there are natural boundaries
	engine := newEngine(t, delegation.Parameters{Workers: 7}, loop(1000)...)
	result := engine.Tally(testCtx)
	require.Equal(t, 1000, result.NoVote)

	require.NoError(t, engine.SetVote("v500", delegation.Nay))
	result = engine.Tally(testCtx)
	require.Equal(t, 999, result.NayDelegated)
	require.Equal(t, 1, result.NayDirect)
	ann, ok := result.Annotation("v501")
	require.True(t, ok)
	require.Equal(t, "v500", ann.Source)
}

func TestEngineLogsTallies(t *testing.T) {
	var buf bytes.Buffer
	engine := delegation.New(newRegistry(t, "a>b", "b"), delegation.Parameters{},
		delegation.WithLogger(zerolog.New(&buf)),
		delegation.WithTracerProvider(trace.NewNoopTracerProvider()))
	require.NoError(t, engine.SetVote("b", delegation.Nay))
	_ = engine.Tally(testCtx)
	require.Contains(t, buf.String(), `"message":"computed tally"`)
	require.Contains(t, buf.String(), `"nay":2`)

	_, err := engine.ToggleVote("nobody")
	require.Error(t, err)
	require.Contains(t, buf.String(), fmt.Sprintf(`"voter":%q`, "nobody"))
}
