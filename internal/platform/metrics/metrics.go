package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	entryRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rifa_entry_requests_total",
		Help: "Total de tentativas de entrada na rodada",
	}, []string{"status"})

	drawsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rifa_draws_total",
		Help: "Total de sorteios por gatilho e resultado",
	}, []string{"gatilho", "status"})

	snapshotFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rifa_snapshot_fetch_duration_seconds",
		Help:    "Tempo para buscar o snapshot de holders",
		Buckets: prometheus.DefBuckets,
	})

	snapshotFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rifa_snapshot_fallback_total",
		Help: "Total de vezes que o cache local substituiu o snapshot ao vivo",
	})

	roundTickets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rifa_round_tickets",
		Help: "Total de bilhetes na rodada atual",
	})
)

func ObserveEntryRequest(status string) {
	entryRequestsTotal.WithLabelValues(status).Inc()
}

func ObserveDraw(gatilho, status string) {
	drawsTotal.WithLabelValues(gatilho, status).Inc()
}

func ObserveSnapshotFetch(seconds float64) {
	snapshotFetchDuration.Observe(seconds)
}

func IncSnapshotFallback() {
	snapshotFallbackTotal.Inc()
}

func SetRoundTickets(total int64) {
	roundTickets.Set(float64(total))
}
