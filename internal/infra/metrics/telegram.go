package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		telegramUpdatesReceivedTotal,
		telegramRejectionsTotal,
		telegramFloodWaitsTotal,
	)
}

var (
	telegramUpdatesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_received_total",
			Help: "Incoming messages by matched route.",
		},
		[]string{"route"},
	)

	telegramRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_rejections_total",
			Help: "Attachments rejected before upload, by reason.",
		},
		[]string{"reason"}, // not_image, too_large
	)

	telegramFloodWaitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_flood_waits_total",
			Help: "Total number of flood-wait cooldowns honored.",
		},
	)
)

func IncTelegramUpdate(route string) {
	telegramUpdatesReceivedTotal.WithLabelValues(norm(route)).Inc()
}

func IncRejection(reason string) {
	telegramRejectionsTotal.WithLabelValues(norm(reason)).Inc()
}

func IncFloodWait() {
	telegramFloodWaitsTotal.Inc()
}
