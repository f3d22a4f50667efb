// Package metrics exposes engine counters to Prometheus. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Close triggers
const (
	TriggerManual   = "manual"
	TriggerDeadline = "deadline"
)

type Metrics struct {
	votesCast          *prometheus.CounterVec
	votesRejected      *prometheus.CounterVec
	scenariosStarted   prometheus.Counter
	scenariosClosed    *prometheus.CounterVec
	campaignsCompleted prometheus.Counter
	tallyDuration      *prometheus.HistogramVec
}

// New registers the engine metrics with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		votesCast: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenvote_votes_cast_total",
			Help: "accepted vote submissions, including resubmissions",
		}, []string{"mechanism"}),
		votesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenvote_votes_rejected_total",
			Help: "rejected vote submissions by error kind",
		}, []string{"reason"}),
		scenariosStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "tokenvote_scenarios_started_total",
			Help: "scenarios moved to Voting",
		}),
		scenariosClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenvote_scenarios_closed_total",
			Help: "scenarios closed, by trigger",
		}, []string{"trigger"}),
		campaignsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "tokenvote_campaigns_completed_total",
			Help: "campaigns that reached Completed",
		}),
		tallyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tokenvote_tally_duration_seconds",
			Help:    "time spent counting a scenario",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}, []string{"mechanism"}),
	}
}

func (m *Metrics) VoteCast(mechanism string) {
	if m == nil {
		return
	}
	m.votesCast.WithLabelValues(mechanism).Inc()
}

func (m *Metrics) VoteRejected(reason string) {
	if m == nil {
		return
	}
	m.votesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ScenarioStarted() {
	if m == nil {
		return
	}
	m.scenariosStarted.Inc()
}

func (m *Metrics) ScenarioClosed(trigger string) {
	if m == nil {
		return
	}
	m.scenariosClosed.WithLabelValues(trigger).Inc()
}

func (m *Metrics) CampaignCompleted() {
	if m == nil {
		return
	}
	m.campaignsCompleted.Inc()
}

// ObserveTally records how long counting took since start
func (m *Metrics) ObserveTally(mechanism string, start time.Time) {
	if m == nil {
		return
	}
	m.tallyDuration.WithLabelValues(mechanism).Observe(time.Since(start).Seconds())
}
