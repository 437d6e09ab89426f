package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_notifications_total",
			Help: "Send requests by final status",
		},
		[]string{"status", "reason"},
	)

	channelSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_channel_sends_total",
			Help: "Channel adapter calls by outcome",
		},
		[]string{"channel", "result"},
	)

	channelSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notifier_channel_send_duration_seconds",
			Help:    "Duration of channel adapter calls",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"channel"},
	)
)
