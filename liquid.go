// Package liquid resolves delegation chains and tallies votes for a liquid
// democracy. Voters either vote directly or inherit the position of their
// delegate, transitively, until someone who voted is reached.
//
// The heavy lifting lives in the delegation package. This package wires it to
// voter and vote files.
package liquid

import (
	"github.com/cmwaters/liquid/delegation"
	"github.com/cmwaters/liquid/pkg/dataset"
)

// New loads the voters stored at path and returns an engine with no votes cast.
func New(path string, parameters delegation.Parameters, opts ...delegation.Option) (*delegation.Engine, error) {
	reg, err := dataset.LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	return delegation.New(reg, parameters, opts...), nil
}

// Simulate replaces every vote of engine with the ones stored at path.
func Simulate(engine *delegation.Engine, path string) error {
	votes, err := dataset.LoadVotes(path)
	if err != nil {
		return err
	}
	return engine.ReplaceVotes(votes)
}
