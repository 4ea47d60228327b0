// Package metrics exposes Prometheus collectors for the HTTP API and the
// domain operations worth tracking.
package metrics

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "plugconversa"

var (
	// httpRequests counts handled requests.
	// Labels: method, route (chi pattern), status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	// httpDuration measures request latency.
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Copies counts flow and folder duplications.
	// Labels: kind (flow, folder, import), result (ok, error)
	Copies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "flow",
		Name:      "copies_total",
		Help:      "Flow graph duplications by kind and result",
	}, []string{"kind", "result"})

	// CopiedSteps counts steps written by duplications and imports.
	CopiedSteps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "flow",
		Name:      "copied_steps_total",
		Help:      "Steps inserted by flow copies and imports",
	})

	// ConversationEvents counts inbox events by type.
	ConversationEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "inbox",
		Name:      "events_total",
		Help:      "Conversation events recorded by type",
	}, []string{"type"})

	// WhatsAppMessages counts WhatsApp traffic.
	// Labels: direction (in, out), result (ok, error, duplicate, ignored)
	WhatsAppMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "whatsapp",
		Name:      "messages_total",
		Help:      "WhatsApp messages by direction and result",
	}, []string{"direction", "result"})
)

var sseClients atomic.Pointer[func() int]

func init() {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sse",
		Name:      "clients",
		Help:      "Connected inbox event stream clients",
	}, func() float64 {
		if count := sseClients.Load(); count != nil {
			return float64((*count)())
		}
		return 0
	})
}

// TrackSSEClients makes the sse_clients gauge report count.
func TrackSSEClients(count func() int) {
	sseClients.Store(&count)
}

// Result returns the result label for err.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency per chi route pattern.
// Unmatched requests are reported under the "unmatched" route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
