package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"todo-calendar/internal/logging"
)

const (
	namespace = "todo_calendar"

	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Import outcomes for ImportRecords.
const (
	ResultImported = "imported"
	ResultSkipped  = "skipped"
	ResultUndated  = "undated"
)

// Metrics holds the planner's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	Commands      *prometheus.CounterVec
	TasksCreated  prometheus.Counter
	ReportsSent   prometheus.Counter
	ImportRecords *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Bot commands and callbacks handled, by name.",
		}, []string{"command"}),
		TasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_created_total",
			Help:      "Tasks created through the bot.",
		}),
		ReportsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_sent_total",
			Help:      "Daily reports delivered.",
		}),
		ImportRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_records_total",
			Help:      "Imported todo records, by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.Commands,
		m.TasksCreated,
		m.ReportsSent,
		m.ImportRecords,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Command(name string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(name).Inc()
}

func (m *Metrics) TaskCreated() {
	if m == nil {
		return
	}
	m.TasksCreated.Inc()
}

func (m *Metrics) ReportSent() {
	if m == nil {
		return
	}
	m.ReportsSent.Inc()
}

func (m *Metrics) ImportRecord(result string) {
	if m == nil {
		return
	}
	m.ImportRecords.WithLabelValues(result).Inc()
}

// Handler serves /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Serve runs the metrics endpoint on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log *logging.Logger) error {
	if log == nil {
		log = logging.Default()
	}
	log = log.WithComponent(logging.ComponentMetrics)

	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting metrics server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down metrics server")
		return srv.Shutdown(shutdownCtx)
	}
}
