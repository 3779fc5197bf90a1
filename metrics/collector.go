package metrics

import "time"

// TallyCollector receives observations from a delegation engine.
type TallyCollector interface {
	// TallyComputed is called after every tally pass that was not served from
	// the cache.
	TallyComputed(duration time.Duration, voters, quorum, delegated, noVote int)
	// TallyCacheHit is called when a tally is served from the cache.
	TallyCacheHit()
	// VoteChanged counts accepted vote mutations by operation.
	VoteChanged(op string)
	// VoteRejected counts vote mutations refused by validation.
	VoteRejected(op string)
}

// Vote mutation operations used as label values.
const (
	OpToggle  = "toggle"
	OpSet     = "set"
	OpClear   = "clear"
	OpReplace = "replace"
)

const (
	namespaceLiquid  = "liquid"
	subsystemTally   = "tally"
	subsystemVoteSet = "voteset"
	labelOperation   = "operation"
)
