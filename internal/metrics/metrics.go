// Package metrics exposes Prometheus instrumentation for the quiz service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_sessions_created_total",
		Help: "Number of quiz sessions created.",
	})

	SessionsEnded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_sessions_ended_total",
		Help: "Number of quiz sessions that reached the ended state.",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quiz_sessions_active",
		Help: "Sessions currently in the waiting or active state.",
	})

	ParticipantsJoined = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_participants_joined_total",
		Help: "Number of distinct participant joins across all sessions.",
	})

	AnswersAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_answers_accepted_total",
		Help: "Answer submissions that were recorded and scored.",
	})

	AnswersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_answers_rejected_total",
		Help: "Answer submissions rejected, by reason.",
	}, []string{"reason"})

	AutoAdvances = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_auto_advances_total",
		Help: "Question advances triggered by timer expiry instead of the host.",
	})

	WSSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quiz_ws_subscribers",
		Help: "Currently connected websocket subscribers.",
	})
)
