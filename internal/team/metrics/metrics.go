package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics provides observability for the team module.
// Tracks member lifecycle counts, ordering failures and operation durations.
type Metrics struct {
	MembersCreated     prometheus.Counter
	MembersDeleted     prometheus.Counter
	Moves              *prometheus.CounterVec
	PartialReorders    *prometheus.CounterVec
	InconsistentOrders prometheus.Counter
	OperationDuration  *prometheus.HistogramVec
}

// New creates a Metrics instance registered with reg.
// Pass prometheus.DefaultRegisterer to use the global registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MembersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "binoqule_team_members_created_total",
			Help: "Total number of team members created",
		}),
		MembersDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "binoqule_team_members_deleted_total",
			Help: "Total number of team members deleted",
		}),
		Moves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "binoqule_team_moves_total",
			Help: "Total number of applied member moves by direction",
		}, []string{"direction"}),
		PartialReorders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "binoqule_team_partial_reorders_total",
			Help: "Ordering operations that stopped after some position writes succeeded",
		}, []string{"op"}),
		InconsistentOrders: factory.NewCounter(prometheus.CounterOpts{
			Name: "binoqule_team_inconsistent_order_total",
			Help: "Mutations refused because stored positions were not 0..N-1",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "binoqule_team_operation_duration_seconds",
			Help:    "Duration of team service operations",
			Buckets: durationBuckets,
		}, []string{"op"}),
	}
}

// IncrementMembersCreated records a successful member creation.
func (m *Metrics) IncrementMembersCreated() {
	m.MembersCreated.Inc()
}

// IncrementMembersDeleted records a successful member deletion.
func (m *Metrics) IncrementMembersDeleted() {
	m.MembersDeleted.Inc()
}

// IncrementMoves records an applied move.
func (m *Metrics) IncrementMoves(direction string) {
	m.Moves.WithLabelValues(direction).Inc()
}

// IncrementPartialReorder records an ordering operation left half done.
func (m *Metrics) IncrementPartialReorder(op string) {
	m.PartialReorders.WithLabelValues(op).Inc()
}

// IncrementInconsistentOrder records a mutation refused over a gapped order.
func (m *Metrics) IncrementInconsistentOrder() {
	m.InconsistentOrders.Inc()
}

// ObserveOperation records the duration of op.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time) {
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
