package delegation

import (
	"context"
	"fmt"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/cmwaters/liquid/metrics"
	"github.com/cmwaters/liquid/pkg/registry"
)

const tracerName = "github.com/cmwaters/liquid/delegation"

// Engine owns a voter registry and the vote set cast against it. It is the entry
// point for applications: votes are toggled, set, cleared or replaced through it,
// and each call to Tally resolves every voter against the current votes.
//
// The registry is fixed for the lifetime of the engine. Tallies are computed
// from a snapshot of the vote set, so mutations and tallies may run concurrently.
type Engine struct {
	registry *registry.Registry
	votes    *VoteSet

	// parameters control parallelism, memoization and caching of tally passes
	parameters Parameters

	// cache maps a vote set revision to the tally computed for it. Nil when
	// caching is disabled.
	cache *lru.Cache[uint64, Result]

	metrics metrics.TallyCollector
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// New creates an engine over reg with an empty vote set
func New(reg *registry.Registry, parameters Parameters, opts ...Option) *Engine {
	e := &Engine{
		registry:   reg,
		votes:      NewVoteSet(reg),
		parameters: parameters,
		metrics:    metrics.NewNoopCollector(),
		tracer:     otel.Tracer(tracerName),
		logger:     zerolog.New(os.Stdout),
	}

	if parameters.CacheSize > 0 {
		cache, err := lru.New[uint64, Result](parameters.CacheSize)
		if err != nil {
			// only possible for a non-positive size
			panic(err)
		}
		e.cache = cache
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Registry returns the voters the engine tallies
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// VoteSet returns the live vote set. Mutating it directly is allowed; the tally
// cache is keyed by its revision and stays consistent.
func (e *Engine) VoteSet() *VoteSet {
	return e.votes
}

// ToggleVote cycles the direct vote of uid and returns the position it lands on.
func (e *Engine) ToggleVote(uid string) (Position, error) {
	p, err := e.votes.Toggle(uid)
	if err != nil {
		e.rejected(metrics.OpToggle, uid, err)
		return NoVote, err
	}
	e.metrics.VoteChanged(metrics.OpToggle)
	e.logger.Debug().Str("voter", uid).Stringer("position", p).Msg("toggled vote")
	return p, nil
}

// SetVote records p as the direct vote of uid. NoVote withdraws it.
func (e *Engine) SetVote(uid string, p Position) error {
	if err := e.votes.Set(uid, p); err != nil {
		e.rejected(metrics.OpSet, uid, err)
		return err
	}
	e.metrics.VoteChanged(metrics.OpSet)
	e.logger.Debug().Str("voter", uid).Stringer("position", p).Msg("set vote")
	return nil
}

// ClearVotes withdraws every direct vote
func (e *Engine) ClearVotes() {
	e.votes.Clear()
	e.metrics.VoteChanged(metrics.OpClear)
	e.logger.Debug().Msg("cleared votes")
}

// ReplaceVotes installs a complete new set of direct votes, as when a new round
// of votes is simulated or imported. Nothing changes if any entry is invalid.
func (e *Engine) ReplaceVotes(votes Votes) error {
	if err := e.votes.Replace(votes); err != nil {
		e.rejected(metrics.OpReplace, "", err)
		return err
	}
	e.metrics.VoteChanged(metrics.OpReplace)
	e.logger.Debug().Int("votes", e.votes.Len()).Msg("replaced votes")
	return nil
}

// Resolve returns the effective position of a single voter under the current
// votes.
func (e *Engine) Resolve(uid string) (Resolution, error) {
	if !e.registry.Has(uid) {
		return Resolution{}, fmt.Errorf("%w: %q", ErrUnknownVoter, uid)
	}
	votes, _ := e.votes.Snapshot()
	return Resolve(e.registry, votes, uid), nil
}

// Tally resolves every registered voter against the current votes. The context
// only carries the tracing span; a tally pass always runs to completion.
func (e *Engine) Tally(ctx context.Context) Result {
	votes, revision := e.votes.Snapshot()

	if e.cache != nil {
		if result, ok := e.cache.Get(revision); ok {
			e.metrics.TallyCacheHit()
			return result.clone()
		}
	}

	_, span := e.tracer.Start(ctx, "delegation.Tally", trace.WithAttributes(
		attribute.Int("voters", e.registry.Size()),
		attribute.Int("direct_votes", len(votes)),
		attribute.Int64("revision", int64(revision)),
	))
	defer span.End()

	start := time.Now()
	result := e.compute(votes)
	duration := time.Since(start)

	span.SetAttributes(
		attribute.Int("quorum", result.Quorum),
		attribute.Int("no_vote", result.NoVote),
	)
	e.metrics.TallyComputed(duration, result.Voters, result.Quorum, result.DelegatedTotal, result.NoVote)
	e.logger.Info().
		Uint64("revision", revision).
		Int("yay", result.YayTotal).
		Int("nay", result.NayTotal).
		Int("blank", result.BlankTotal).
		Int("no_vote", result.NoVote).
		Int("quorum", result.Quorum).
		Int("delegated", result.DelegatedTotal).
		Dur("duration", duration).
		Msg("computed tally")

	if e.cache != nil {
		e.cache.Add(revision, result.clone())
	}
	return result
}

// compute runs one tally pass over a snapshot of votes. The voters are split
// into contiguous shares, one per worker, and every share is resolved with its
// own Resolver so that no memo or cursor is shared between goroutines.
func (e *Engine) compute(votes Votes) Result {
	voters := e.registry.Voters()
	workers := e.parameters.Workers
	if workers > len(voters) {
		workers = len(voters)
	}
	if workers < 2 {
		workers = 1
	}

	annotations := make([]Annotation, len(voters))
	share := (len(voters) + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < len(voters); start += share {
		end := start + share
		if end > len(voters) {
			end = len(voters)
		}
		first, last := start, end
		resolve := func() error {
			resolver := e.newResolver(votes)
			for i := first; i < last; i++ {
				annotations[i] = annotate(resolver, votes, voters[i].UID)
			}
			return nil
		}
		if workers == 1 {
			_ = resolve()
			continue
		}
		g.Go(resolve)
	}
	// workers never fail
	_ = g.Wait()

	return aggregate(annotations)
}

func (e *Engine) newResolver(votes Votes) *Resolver {
	if e.parameters.DisableMemo {
		return &Resolver{dir: e.registry, ballots: votes}
	}
	return NewResolver(e.registry, votes)
}

func (e *Engine) rejected(op, uid string, err error) {
	e.metrics.VoteRejected(op)
	e.logger.Warn().Err(err).Str("op", op).Str("voter", uid).Msg("vote change refused")
}

// clone copies the annotations so cached results cannot be mutated by callers.
func (r Result) clone() Result {
	if r.Annotations != nil {
		annotations := make([]Annotation, len(r.Annotations))
		copy(annotations, r.Annotations)
		r.Annotations = annotations
	}
	return r
}
