package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lostfound_messages_sent_total",
		Help: "Chat messages accepted by POST /api/messages.",
	})

	notificationsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lostfound_notifications_enqueued_total",
		Help: "Notifications enqueued for async persistence.",
	})
)
