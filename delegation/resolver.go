package delegation

import (
	"github.com/cmwaters/liquid/pkg/registry"
)

// Resolution is the outcome of following a voter's delegation chain.
type Resolution struct {
	Position Position
	// Source is the uid whose direct vote the position was taken from. It equals
	// the resolved voter for a direct vote and is empty for NoVote.
	Source string
	// Steps counts the delegate hops taken by the leading cursor.
	Steps int
}

// Direct reports whether the resolution came from the voter's own vote.
func (r Resolution) Direct(uid string) bool {
	return r.Steps == 0 && r.Source == uid
}

// Resolver works out the effective position of voters. A Resolver remembers
// every voter it has resolved so that later chains passing through them stop
// early. It is therefore bound to one snapshot of ballots and must not be shared
// between goroutines; use one Resolver per worker.
type Resolver struct {
	dir     registry.Directory
	ballots Ballots
	memo    map[string]Resolution
}

// NewResolver returns a memoizing resolver over the given voters and ballots.
func NewResolver(dir registry.Directory, ballots Ballots) *Resolver {
	return &Resolver{
		dir:     dir,
		ballots: ballots,
		memo:    make(map[string]Resolution),
	}
}

// Resolve is a one shot resolution of uid without memoization.
func Resolve(dir registry.Directory, ballots Ballots, uid string) Resolution {
	r := &Resolver{dir: dir, ballots: ballots}
	return r.Resolve(uid)
}

// Resolve returns the effective position of uid: its own vote if it cast one,
// otherwise the vote found by following delegates. A chain that ends with a
// voter who has no delegate, or that loops through voters none of whom voted,
// resolves to NoVote.
//
// Loops are detected with Floyd's tortoise and hare. Both cursors start at uid
// and are local to this call. Per iteration the hare moves two hops and the
// tortoise one; each hare position is checked for a vote. If the hare catches up
// with the tortoise the chain is a loop without a vote. The walk therefore takes
// at most a number of hops proportional to the chain length plus the loop length.
func (r *Resolver) Resolve(uid string) Resolution {
	if res, ok := r.lookup(uid); ok {
		return res
	}
	if p, ok := r.ballots.Position(uid); ok {
		return r.remember(uid, Resolution{Position: p, Source: uid})
	}

	tortoise, hare := uid, uid
	steps := 0
	for {
		// the hare leads by two hops per iteration
		for i := 0; i < 2; i++ {
			next, ok := r.delegateOf(hare)
			if !ok {
				return r.remember(uid, Resolution{Steps: steps})
			}
			hare = next
			steps++
			if res, found := r.found(hare); found {
				res.Steps = steps
				return r.remember(uid, res)
			}
		}

		tortoise, _ = r.delegateOf(tortoise)
		if hare == tortoise {
			return r.remember(uid, Resolution{Steps: steps})
		}
	}
}

// found checks whether the chain can stop at uid, either because uid voted or
// because its resolution is already known.
func (r *Resolver) found(uid string) (Resolution, bool) {
	if p, ok := r.ballots.Position(uid); ok {
		return Resolution{Position: p, Source: uid}, true
	}
	if res, ok := r.lookup(uid); ok {
		return res, true
	}
	return Resolution{}, false
}

func (r *Resolver) delegateOf(uid string) (string, bool) {
	v, ok := r.dir.Voter(uid)
	if !ok || !v.HasDelegate() {
		return "", false
	}
	return v.Delegate, true
}

func (r *Resolver) lookup(uid string) (Resolution, bool) {
	if r.memo == nil {
		return Resolution{}, false
	}
	res, ok := r.memo[uid]
	return res, ok
}

func (r *Resolver) remember(uid string, res Resolution) Resolution {
	if r.memo != nil {
		r.memo[uid] = res
	}
	return res
}
