package registry

// Voter is a member of the population. Each voter delegates to at most one other
// voter, which makes the delegate relation a functional graph that may contain
// cycles (including a voter delegating to itself).
type Voter struct {
	UID      string `json:"uid" yaml:"uid"`
	FullName string `json:"full_name" yaml:"full_name"`
	// Delegate is the uid of the voter this voter defers to. Empty means the
	// voter has no delegate and its chain ends with it.
	Delegate string `json:"delegate,omitempty" yaml:"delegate,omitempty"`
}

// HasDelegate reports whether the voter defers to anyone.
func (v Voter) HasDelegate() bool {
	return v.Delegate != ""
}

// DelegatesToSelf reports whether the voter is its own delegate.
func (v Voter) DelegatesToSelf() bool {
	return v.Delegate == v.UID
}
