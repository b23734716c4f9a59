package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	WalksCreated = prometheus.NewCounter(prometheus.CounterOpts{Name: "leash_walks_created_total", Help: "Walk requests created"})
	Transitions  = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "leash_walk_transitions_total", Help: "Durable walk status transitions applied"},
		[]string{"to"},
	)
	TransitionConflicts = prometheus.NewCounter(prometheus.CounterOpts{Name: "leash_walk_transition_conflicts_total", Help: "Conditional status writes lost to a concurrent writer"})
	MissionOffers       = prometheus.NewCounter(prometheus.CounterOpts{Name: "leash_mission_offers_total", Help: "Mission offers dispatched to petsitters"})
	CompletionTooFar    = prometheus.NewCounter(prometheus.CounterOpts{Name: "leash_completion_too_far_total", Help: "Walk completions refused by the distance gate"})
	ActiveWalks         = prometheus.NewGauge(prometheus.GaugeOpts{Name: "leash_active_walks", Help: "Walks currently tracked in the ephemeral store"})
	SittersOnline       = prometheus.NewGauge(prometheus.GaugeOpts{Name: "leash_sitters_online", Help: "Petsitters currently online"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			WalksCreated,
			Transitions,
			TransitionConflicts,
			MissionOffers,
			CompletionTooFar,
			ActiveWalks,
			SittersOnline,
		)
	})
	return promhttp.Handler()
}
