package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConversationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_conversations_created_total",
			Help: "Total conversations created",
		},
	)

	MessagesBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_broadcast_total",
			Help: "Total messages broadcast to a room",
		},
		[]string{"room_type"}, // "conversation" or "aggregate"
	)

	MessagesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_persisted_total",
			Help: "Total messages appended to conversation history",
		},
	)

	PersistenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_persistence_failures_total",
			Help: "Total failed history appends in the broadcast path",
		},
	)

	AttachmentsUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_attachments_uploaded_total",
			Help: "Total attachments uploaded to blob storage",
		},
	)

	BroadcastFanout = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_broadcast_fanout",
			Help:    "Connections reached per broadcast",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)
)
