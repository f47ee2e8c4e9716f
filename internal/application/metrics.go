package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsHandledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicengine_commands_handled_total",
			Help: "Total number of commands accepted by the command gateway.",
		},
		[]string{"command_type"},
	)

	commandsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicengine_commands_rejected_total",
			Help: "Total number of commands rejected by the command gateway, by reason kind.",
		},
		[]string{"command_type", "reason"},
	)

	eventsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicengine_events_dispatched_total",
			Help: "Total number of events delivered to at least one subscriber.",
		},
		[]string{"event_type"},
	)

	handlerFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicengine_dispatcher_handler_failures_total",
			Help: "Total number of event handler failures isolated by the dispatcher.",
		},
		[]string{"event_type"},
	)

	syncTransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicengine_sync_transfers_total",
			Help: "Total number of events transferred during peer-to-peer sync.",
		},
		[]string{"direction"},
	)

	syncDuplicatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicengine_sync_duplicates_total",
			Help: "Total number of events observed as duplicates during peer-to-peer sync.",
		},
		[]string{"direction"},
	)
)

// RecordCommandHandled increments the accepted-command counter.
func RecordCommandHandled(commandType string) {
	commandsHandledTotal.WithLabelValues(commandType).Inc()
}

// RecordCommandRejected increments the rejected-command counter with the
// kind of error that rejected it (domain, concurrency, unknown). Only
// rejections returned by a handler are counted; envelope and mapping
// failures in the gateway are not.
func RecordCommandRejected(commandType, reason string) {
	commandsRejectedTotal.WithLabelValues(commandType, reason).Inc()
}

// RecordEventDispatched increments the dispatched-event counter.
func RecordEventDispatched(eventType string) {
	eventsDispatchedTotal.WithLabelValues(eventType).Inc()
}

// RecordSyncTransfer records transferred/duplicate counts for one
// direction of a sync call ("a_to_b" or "b_to_a").
func RecordSyncTransfer(direction string, transferred, duplicates int) {
	syncTransfersTotal.WithLabelValues(direction).Add(float64(transferred))
	syncDuplicatesTotal.WithLabelValues(direction).Add(float64(duplicates))
}
