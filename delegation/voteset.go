package delegation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cmwaters/liquid/pkg/registry"
)

var ErrUnknownVoter = errors.New("voter is not registered")

// Ballots is the read side of a vote set: it reports the direct vote, if any,
// that a voter cast.
type Ballots interface {
	Position(uid string) (Position, bool)
}

var (
	_ Ballots = (*VoteSet)(nil)
	_ Ballots = Votes(nil)
)

// Votes is a plain, unsynchronized mapping of direct votes. It is what a VoteSet
// hands out as a snapshot and what vote files decode into.
type Votes map[string]Position

func (v Votes) Position(uid string) (Position, bool) {
	p, ok := v[uid]
	return p, ok
}

// VoteSet records the voters who voted explicitly. Only registered voters may
// vote and only Yay, Nay and Blank are ever stored; setting NoVote withdraws the
// entry. A rejected mutation leaves the set untouched.
//
// Every mutation that changes the contents bumps the revision, which lets callers
// tell whether a previously computed tally is still current.
type VoteSet struct {
	dir registry.Directory

	mtx      sync.RWMutex
	votes    map[string]Position
	revision uint64
}

// NewVoteSet creates an empty vote set whose keys are validated against dir.
func NewVoteSet(dir registry.Directory) *VoteSet {
	return &VoteSet{
		dir:   dir,
		votes: make(map[string]Position),
	}
}

// Position returns the direct vote of uid, if there is one.
func (s *VoteSet) Position(uid string) (Position, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	p, ok := s.votes[uid]
	return p, ok
}

// Toggle advances the direct vote of uid through yay, nay, blank and back to
// no vote at all. A voter without an entry starts at yay. It returns the
// position the voter lands on.
func (s *VoteSet) Toggle(uid string) (Position, error) {
	if err := s.checkVoter(uid); err != nil {
		return NoVote, err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	current, ok := s.votes[uid]
	if !ok {
		current = NoVote
	}
	next := current.next()
	s.apply(uid, next)
	return next, nil
}

// Set records p as the direct vote of uid. Setting NoVote removes the entry.
// Setting the position a voter already holds is a no-op.
func (s *VoteSet) Set(uid string, p Position) error {
	if err := s.checkVoter(uid); err != nil {
		return err
	}
	if !p.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidPosition, uint8(p))
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.apply(uid, p)
	return nil
}

// Clear withdraws every direct vote.
func (s *VoteSet) Clear() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if len(s.votes) == 0 {
		return
	}
	s.votes = make(map[string]Position)
	s.revision++
}

// Replace swaps the whole set for votes. Entries holding NoVote are dropped.
// Every entry is validated before anything changes.
func (s *VoteSet) Replace(votes Votes) error {
	next := make(map[string]Position, len(votes))
	for uid, p := range votes {
		if err := s.checkVoter(uid); err != nil {
			return err
		}
		if !p.IsValid() {
			return fmt.Errorf("vote of %q: %w: %d", uid, ErrInvalidPosition, uint8(p))
		}
		if p == NoVote {
			continue
		}
		next[uid] = p
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.votes = next
	s.revision++
	return nil
}

// Len returns the number of direct votes.
func (s *VoteSet) Len() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.votes)
}

// Revision returns a counter that increases every time the contents change.
func (s *VoteSet) Revision() uint64 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.revision
}

// Snapshot returns a copy of the direct votes together with the revision they
// belong to.
func (s *VoteSet) Snapshot() (Votes, uint64) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	votes := make(Votes, len(s.votes))
	for uid, p := range s.votes {
		votes[uid] = p
	}
	return votes, s.revision
}

// apply must be called with the write lock held.
func (s *VoteSet) apply(uid string, p Position) {
	current, ok := s.votes[uid]
	switch {
	case p == NoVote && !ok:
		return
	case p == NoVote:
		delete(s.votes, uid)
	case ok && current == p:
		return
	default:
		s.votes[uid] = p
	}
	s.revision++
}

func (s *VoteSet) checkVoter(uid string) error {
	if _, ok := s.dir.Voter(uid); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVoter, uid)
	}
	return nil
}
