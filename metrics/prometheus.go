package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ TallyCollector = (*PrometheusCollector)(nil)

// PrometheusCollector exports tally and vote set activity as Prometheus metrics.
type PrometheusCollector struct {
	tallyDuration  prometheus.Histogram
	tallies        prometheus.Counter
	cacheHits      prometheus.Counter
	voters         prometheus.Gauge
	quorum         prometheus.Gauge
	delegated      prometheus.Gauge
	noVote         prometheus.Gauge
	voteChanges    *prometheus.CounterVec
	voteRejections *prometheus.CounterVec
}

// NewPrometheusCollector registers the collector's metrics with reg. Passing
// prometheus.DefaultRegisterer exposes them on the default handler.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)
	return &PrometheusCollector{
		tallyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:      "duration_seconds",
			Namespace: namespaceLiquid,
			Subsystem: subsystemTally,
			Help:      "time taken to resolve every voter and aggregate a tally",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		tallies: factory.NewCounter(prometheus.CounterOpts{
			Name:      "computed_total",
			Namespace: namespaceLiquid,
			Subsystem: subsystemTally,
			Help:      "number of tally passes computed",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name:      "cache_hits_total",
			Namespace: namespaceLiquid,
			Subsystem: subsystemTally,
			Help:      "number of tallies served without recomputation",
		}),
		voters: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "voters",
			Namespace: namespaceLiquid,
			Subsystem: subsystemTally,
			Help:      "size of the population in the last tally",
		}),
		quorum: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "quorum",
			Namespace: namespaceLiquid,
			Subsystem: subsystemTally,
			Help:      "voters whose resolved position was not no_vote in the last tally",
		}),
		delegated: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "delegated",
			Namespace: namespaceLiquid,
			Subsystem: subsystemTally,
			Help:      "votes inherited through delegation in the last tally",
		}),
		noVote: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "no_vote",
			Namespace: namespaceLiquid,
			Subsystem: subsystemTally,
			Help:      "voters that resolved to no_vote in the last tally",
		}),
		voteChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "changes_total",
			Namespace: namespaceLiquid,
			Subsystem: subsystemVoteSet,
			Help:      "accepted vote set mutations",
		}, []string{labelOperation}),
		voteRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "rejections_total",
			Namespace: namespaceLiquid,
			Subsystem: subsystemVoteSet,
			Help:      "vote set mutations refused by validation",
		}, []string{labelOperation}),
	}
}

func (c *PrometheusCollector) TallyComputed(duration time.Duration, voters, quorum, delegated, noVote int) {
	c.tallyDuration.Observe(duration.Seconds())
	c.tallies.Inc()
	c.voters.Set(float64(voters))
	c.quorum.Set(float64(quorum))
	c.delegated.Set(float64(delegated))
	c.noVote.Set(float64(noVote))
}

func (c *PrometheusCollector) TallyCacheHit() {
	c.cacheHits.Inc()
}

func (c *PrometheusCollector) VoteChanged(op string) {
	c.voteChanges.WithLabelValues(op).Inc()
}

func (c *PrometheusCollector) VoteRejected(op string) {
	c.voteRejections.WithLabelValues(op).Inc()
}
