// Package delegation resolves the effective vote of every voter in a liquid
// democracy and tallies the outcome.
//
// Each voter either votes directly or defers to a delegate. A voter without a
// direct vote takes the position of the first voter along its delegation chain
// that has one. Chains that loop through voters none of whom voted resolve to
// NoVote; loops are detected with Floyd's tortoise and hare so that every
// resolution terminates in time proportional to the chain length.
//
// ComputeTally is a pure function over a voter list and a set of ballots. Engine
// wraps a registry and a mutable VoteSet for applications that change votes
// between tallies.
package delegation
