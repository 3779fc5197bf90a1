package delegation

// Parameters tune how an Engine computes tallies. The zero value is valid and
// means a sequential, memoized pass with no result cache.
type Parameters struct {
	// Workers is the number of goroutines a tally pass is split across. Each
	// worker resolves a contiguous share of the voters with its own Resolver.
	// Values below 2 run the pass on the calling goroutine.
	Workers int

	// DisableMemo turns off the per-pass memo, so that every voter walks its
	// full delegation chain. Only the cycle guard bounds the work then.
	DisableMemo bool

	// CacheSize is the number of tally results kept, keyed by vote set revision.
	// A tally requested again before any vote changes is served from the cache.
	// 0 disables caching.
	CacheSize int
}

// DefaultParameters are used by the command line tool.
func DefaultParameters() Parameters {
	return Parameters{
		Workers:   1,
		CacheSize: 8,
	}
}
