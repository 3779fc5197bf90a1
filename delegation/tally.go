package delegation

import (
	"fmt"

	"github.com/cmwaters/liquid/pkg/registry"
)

// Annotation describes how a single voter was counted. It is what presentation
// layers use to colour and label each voter.
type Annotation struct {
	UID       string   `json:"uid"`
	Position  Position `json:"position"`
	Delegated bool     `json:"is_delegated"`
	// Source is the voter whose direct vote was inherited. Empty for NoVote.
	Source string `json:"source,omitempty"`
}

// Result is the outcome of one tally pass. Counts are split by whether the voter
// cast the vote itself or inherited it through delegation. NoVote is never split:
// a voter can only resolve to it through delegation.
type Result struct {
	YayDirect      int `json:"yay_direct"`
	YayDelegated   int `json:"yay_delegated"`
	NayDirect      int `json:"nay_direct"`
	NayDelegated   int `json:"nay_delegated"`
	BlankDirect    int `json:"blank_direct"`
	BlankDelegated int `json:"blank_delegated"`
	NoVote         int `json:"no_vote"`

	YayTotal       int `json:"yay_total"`
	NayTotal       int `json:"nay_total"`
	BlankTotal     int `json:"blank_total"`
	Quorum         int `json:"quorum_count"`
	DelegatedTotal int `json:"delegated_total"`

	// Voters is the size of the population that was tallied.
	Voters int `json:"voters"`

	Annotations []Annotation `json:"annotations,omitempty"`
}

// Tally counts every voter of the registry in load order.
func Tally(reg *registry.Registry, ballots Ballots) Result {
	return ComputeTally(reg.Voters(), reg, ballots)
}

// ComputeTally resolves every voter and aggregates the outcome. It carries no
// state between voters or between calls apart from the memo of a fresh Resolver,
// so identical inputs always produce identical results. The counts do not depend
// on the order of voters; the annotations follow it.
func ComputeTally(voters []registry.Voter, dir registry.Directory, ballots Ballots) Result {
	resolver := NewResolver(dir, ballots)
	annotations := make([]Annotation, len(voters))
	for i, v := range voters {
		annotations[i] = annotate(resolver, ballots, v.UID)
	}
	return aggregate(annotations)
}

func annotate(resolver *Resolver, ballots Ballots, uid string) Annotation {
	res := resolver.Resolve(uid)
	_, direct := ballots.Position(uid)
	return Annotation{
		UID:       uid,
		Position:  res.Position,
		Delegated: !direct,
		Source:    res.Source,
	}
}

// aggregate builds a result from per-voter annotations.
func aggregate(annotations []Annotation) Result {
	r := Result{Annotations: annotations}
	for _, a := range annotations {
		r.add(a)
	}
	r.finalize(len(annotations))
	return r
}

func (r *Result) add(a Annotation) {
	switch a.Position {
	case Yay:
		if a.Delegated {
			r.YayDelegated++
		} else {
			r.YayDirect++
		}
	case Nay:
		if a.Delegated {
			r.NayDelegated++
		} else {
			r.NayDirect++
		}
	case Blank:
		if a.Delegated {
			r.BlankDelegated++
		} else {
			r.BlankDirect++
		}
	default:
		r.NoVote++
	}
}

func (r *Result) finalize(voters int) {
	r.Voters = voters
	r.YayTotal = r.YayDirect + r.YayDelegated
	r.NayTotal = r.NayDirect + r.NayDelegated
	r.BlankTotal = r.BlankDirect + r.BlankDelegated
	r.Quorum = voters - r.NoVote
	r.DelegatedTotal = r.YayDelegated + r.NayDelegated + r.BlankDelegated
}

// Annotation returns the annotation of uid.
func (r Result) Annotation(uid string) (Annotation, bool) {
	for _, a := range r.Annotations {
		if a.UID == uid {
			return a, true
		}
	}
	return Annotation{}, false
}

// Counts returns a copy of the result without the per-voter annotations.
func (r Result) Counts() Result {
	r.Annotations = nil
	return r
}

func (r Result) String() string {
	return fmt.Sprintf("yay %d (%d delegated), nay %d (%d delegated), blank %d (%d delegated), no vote %d, quorum %d/%d",
		r.YayTotal, r.YayDelegated, r.NayTotal, r.NayDelegated, r.BlankTotal, r.BlankDelegated,
		r.NoVote, r.Quorum, r.Voters)
}
