package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal — все обработанные апдейты по типу (message/callback).
	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_updates_total",
		Help: "Processed Telegram updates by kind.",
	}, []string{"kind"})

	// PermissionDenied — отказы по командам.
	PermissionDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_permission_denied_total",
		Help: "Commands rejected by the permission resolver.",
	}, []string{"command"})

	// Scenarios — жизненный цикл сценариев: started/completed/cancelled/rejected.
	Scenarios = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_scenarios_total",
		Help: "Scenario lifecycle events.",
	}, []string{"scenario", "event"})

	// AllocationRejected — отклонённые распределения материала.
	AllocationRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_allocation_rejected_total",
		Help: "Material allocations rejected for insufficient quantity.",
	})

	// HandlerPanics — паники, перехваченные на границе диспетчера.
	HandlerPanics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_handler_panics_total",
		Help: "Panics recovered at the dispatcher boundary.",
	})
)
