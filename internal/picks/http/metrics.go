package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	usersRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "picks_users_registered_total",
		Help: "Cadastros concluídos",
	})
	picksPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "picks_published_total",
		Help: "Picks criados pelo admin",
	})
	picksUpdatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "picks_updated_total",
		Help: "Picks atualizados/graduados",
	})
	billingEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picks_billing_events_total",
		Help: "Eventos de billing processados por tipo",
	}, []string{"type"})
)
