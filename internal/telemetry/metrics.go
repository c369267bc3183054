package telemetry

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lbship/internal/logging"
)

const namespace = "lbship"

var (
	// ObjectsTotal counts source objects handled, by status (ok|failed).
	ObjectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "objects_total",
		Help:      "Source objects processed, partitioned by status.",
	}, []string{"status"})

	// RecordsTotal counts log records, by status (ok|parse_error|transform_error).
	RecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_total",
		Help:      "Log records seen, partitioned by status.",
	}, []string{"status"})

	// DeliveredTotal counts lines handed to each sink, by sink and status.
	DeliveredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivered_lines_total",
		Help:      "Lines pushed to sinks, partitioned by sink and status.",
	}, []string{"sink", "status"})
)

func init() {
	prometheus.MustRegister(ObjectsTotal, RecordsTotal, DeliveredTotal)
}

// Status maps an error to the "status" label value.
func Status(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}

// Expose serves /metrics on port in the background. Port 0 disables it. A
// listener failure (port in use) is logged; it does not stop the pipeline.
func Expose(port int) {
	if port == 0 {
		return
	}
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: Handler()}
	go func() {
		if err := serve(srv); err != nil {
			logging.L().Error("telemetry: metrics endpoint stopped", "addr", srv.Addr, "err", err)
		}
	}()
}

// Handler returns the /metrics mux.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func serve(srv *http.Server) error {
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
