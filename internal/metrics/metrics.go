// Package metrics содержит Prometheus-метрики сервиса подарочных карт.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CardsIssued считает выпущенные карты по виду (PHYSICAL/DIGITAL).
	CardsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "giftcard",
		Name:      "cards_issued_total",
		Help:      "Number of gift cards provisioned or purchased.",
	}, []string{"kind"})

	// Activations считает активации физических карт.
	Activations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "giftcard",
		Name:      "activations_total",
		Help:      "Number of gift card activations.",
	})

	// Redemptions считает успешные списания с карт.
	Redemptions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "giftcard",
		Name:      "redemptions_total",
		Help:      "Number of successful gift card redemptions.",
	})

	// Charges считает обращения к платёжному шлюзу по результату.
	Charges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "giftcard",
		Name:      "gateway_charges_total",
		Help:      "Number of card charge gateway calls by result.",
	}, []string{"result"})

	// CheckoutsFinalized считает успешно зафиксированные оплаты заказов.
	CheckoutsFinalized = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "giftcard",
		Name:      "checkouts_finalized_total",
		Help:      "Number of finalized checkout sessions.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "giftcard",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "status"})
)

// Handler возвращает HTTP-обработчик для эндпоинта /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware записывает длительность HTTP-запросов.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		requestDuration.WithLabelValues(r.Method, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}
