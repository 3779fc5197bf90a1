package delegation_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cmwaters/liquid/delegation"
	"github.com/cmwaters/liquid/pkg/registry"
)

// voters builds a population from "uid>delegate" edges. A bare "uid" has no
// delegate.
func voters(edges ...string) []registry.Voter {
	out := make([]registry.Voter, 0, len(edges))
	for _, edge := range edges {
		uid, delegate, _ := strings.Cut(edge, ">")
		out = append(out, registry.Voter{UID: uid, FullName: strings.ToUpper(uid), Delegate: delegate})
	}
	return out
}

func newRegistry(t testing.TB, edges ...string) *registry.Registry {
	t.Helper()
	reg, err := registry.New(voters(edges...))
	require.NoError(t, err)
	return reg
}

// chain returns n voters v0 -> v1 -> ... -> v(n-1) where the last has no delegate.
func chain(n int) []string {
	edges := make([]string, n)
	for i := 0; i < n; i++ {
		if i == n-1 {
			edges[i] = fmt.Sprintf("v%d", i)
			continue
		}
		edges[i] = fmt.Sprintf("v%d>v%d", i, i+1)
	}
	return edges
}

// loop returns n voters v0 -> v1 -> ... -> v(n-1) -> v0.
func loop(n int) []string {
	edges := make([]string, n)
	for i := 0; i < n; i++ {
		edges[i] = fmt.Sprintf("v%d>v%d", i, (i+1)%n)
	}
	return edges
}

// population draws an arbitrary delegate graph together with a set of direct
// votes over it.
func population(t *rapid.T) ([]registry.Voter, delegation.Votes) {
	n := rapid.IntRange(1, 40).Draw(t, "voters")
	vs := make([]registry.Voter, n)
	votes := make(delegation.Votes)
	for i := 0; i < n; i++ {
		uid := fmt.Sprintf("v%d", i)
		vs[i] = registry.Voter{UID: uid}
		if d := rapid.IntRange(-1, n-1).Draw(t, "delegate"); d >= 0 {
			vs[i].Delegate = fmt.Sprintf("v%d", d)
		}
		if p := delegation.Position(rapid.IntRange(0, 3).Draw(t, "position")); p != delegation.NoVote {
			votes[uid] = p
		}
	}
	return vs, votes
}

// naiveResolve follows the chain while remembering every voter it visited.
func naiveResolve(dir registry.Directory, votes delegation.Votes, uid string) (delegation.Position, string) {
	seen := make(map[string]bool)
	cur := uid
	for {
		if p, ok := votes[cur]; ok {
			return p, cur
		}
		if seen[cur] {
			return delegation.NoVote, ""
		}
		seen[cur] = true
		v, ok := dir.Voter(cur)
		if !ok || !v.HasDelegate() {
			return delegation.NoVote, ""
		}
		cur = v.Delegate
	}
}
