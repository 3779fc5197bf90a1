package registry

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrEmptyUID         = errors.New("voter has an empty uid")
	ErrDuplicateVoter   = errors.New("voter uid registered more than once")
	ErrDanglingDelegate = errors.New("delegate is not a registered voter")
)

// Directory is the read-only view of the voter population that is needed to
// follow a delegation chain.
type Directory interface {
	Voter(uid string) (Voter, bool)
}

var _ Directory = (*Registry)(nil)

// Registry is an immutable collection of voters indexed by uid. It is built once
// at load time and guarantees that uids are unique and that every delegate refers
// to a registered voter. It is safe for concurrent reads.
type Registry struct {
	voters []Voter
	index  map[string]int
}

// New builds a registry from an ordered set of voters. The order is preserved and
// is the order in which a tally pass visits voters. Every validation problem is
// reported, not just the first.
func New(voters []Voter) (*Registry, error) {
	r := &Registry{
		voters: make([]Voter, len(voters)),
		index:  make(map[string]int, len(voters)),
	}
	copy(r.voters, voters)

	var errs *multierror.Error
	for idx, v := range r.voters {
		if v.UID == "" {
			errs = multierror.Append(errs, fmt.Errorf("voter %d: %w", idx, ErrEmptyUID))
			continue
		}
		if prev, ok := r.index[v.UID]; ok {
			errs = multierror.Append(errs, fmt.Errorf("voters %d and %d (%q): %w", prev, idx, v.UID, ErrDuplicateVoter))
			continue
		}
		r.index[v.UID] = idx
	}

	// delegates can only be checked once every uid is indexed
	for _, v := range r.voters {
		if !v.HasDelegate() {
			continue
		}
		if _, ok := r.index[v.Delegate]; !ok {
			errs = multierror.Append(errs, fmt.Errorf("voter %q delegates to %q: %w", v.UID, v.Delegate, ErrDanglingDelegate))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return r, nil
}

// Voter returns the voter registered under uid.
func (r *Registry) Voter(uid string) (Voter, bool) {
	idx, ok := r.index[uid]
	if !ok {
		return Voter{}, false
	}
	return r.voters[idx], true
}

// Has reports whether uid is registered
func (r *Registry) Has(uid string) bool {
	_, ok := r.index[uid]
	return ok
}

// Voters returns a copy of the voters in load order.
func (r *Registry) Voters() []Voter {
	voters := make([]Voter, len(r.voters))
	copy(voters, r.voters)
	return voters
}

// Size returns the number of registered voters.
func (r *Registry) Size() int {
	return len(r.voters)
}

// Delegators returns the uids of the voters that delegate directly to uid, in
// load order.
func (r *Registry) Delegators(uid string) []string {
	delegators := make([]string, 0)
	for _, v := range r.voters {
		if v.Delegate == uid {
			delegators = append(delegators, v.UID)
		}
	}
	return delegators
}
