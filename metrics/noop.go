package metrics

import "time"

var _ TallyCollector = (*NoopCollector)(nil)

type NoopCollector struct{}

func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (nc *NoopCollector) TallyComputed(time.Duration, int, int, int, int) {}
func (nc *NoopCollector) TallyCacheHit()                                  {}
func (nc *NoopCollector) VoteChanged(string)                              {}
func (nc *NoopCollector) VoteRejected(string)                             {}
