package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	betsPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betting_bets_placed_total",
		Help: "Apostas criadas com sucesso",
	})
	betsSettledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betting_bets_settled_total",
		Help: "Apostas liquidadas por resultado",
	}, []string{"result"})
	betsCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betting_bets_cancelled_total",
		Help: "Apostas canceladas com estorno",
	})
	oddsCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betting_odds_cache_hits_total",
		Help: "Consultas de odds servidas do cache",
	})
	oddsCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betting_odds_cache_misses_total",
		Help: "Consultas de odds que foram ao provedor",
	})
	oddsUpstreamErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betting_odds_upstream_errors_total",
		Help: "Falhas na chamada ao provedor de odds",
	})
)
