package taskpool

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names exported by Exporter.
const (
	MetricThreadCount  = "taskpool_thread_count"
	MetricMinThreads   = "taskpool_min_threads"
	MetricMaxThreads   = "taskpool_max_threads"
	MetricIdleThreads  = "taskpool_idle_threads"
	MetricQueueSize    = "taskpool_queue_size"
	MetricStartedTotal = "taskpool_started_total"
)

// pollInterval is how often Exporter samples the pool's Stats while
// running.
const pollInterval = 500 * time.Millisecond

// ExporterConfig configures a pool's Prometheus exporter.
type ExporterConfig struct {
	// Addr is the listen address for the metrics HTTP server, e.g. ":9090".
	Addr string

	// Path is the URL path serving metrics. Default: "/metrics".
	Path string

	// Namespace prefixes every metric name. Default: "taskpool".
	Namespace string
}

// Exporter samples a Pool's Stats on a fixed interval and serves them over
// HTTP in Prometheus exposition format.
//
// Thread safety: Start/Stop are safe for concurrent use; a single Exporter
// is meant to be started once per pool lifetime.
type Exporter struct {
	mu sync.Mutex

	pool   *Pool
	config ExporterConfig

	registry *prometheus.Registry

	threadCount *prometheus.GaugeVec
	minThreads  *prometheus.GaugeVec
	maxThreads  *prometheus.GaugeVec
	idleThreads *prometheus.GaugeVec
	queueSize   *prometheus.GaugeVec
	started     *prometheus.GaugeVec

	server *http.Server
	ln     net.Listener

	stopPoll chan struct{}
	pollDone chan struct{}
	running  bool
}

// NewExporter builds an Exporter for pool. It does not start serving until
// Start is called.
func NewExporter(pool *Pool, cfg ExporterConfig) *Exporter {
	if cfg.Path == "" {
		cfg.Path = "/metrics"
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "taskpool"
	}

	registry := prometheus.NewRegistry()
	labels := []string{"pool"}

	e := &Exporter{
		pool:     pool,
		config:   cfg,
		registry: registry,
		threadCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace, Name: "thread_count", Help: "Current worker count.",
		}, labels),
		minThreads: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace, Name: "min_threads", Help: "Configured minimum worker count.",
		}, labels),
		maxThreads: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace, Name: "max_threads", Help: "Configured maximum worker count.",
		}, labels),
		idleThreads: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace, Name: "idle_threads", Help: "Workers currently idle.",
		}, labels),
		queueSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace, Name: "queue_size", Help: "Tasks waiting in the queue.",
		}, labels),
		started: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace, Name: "started_total", Help: "Workers spawned over the pool's lifetime.",
		}, labels),
	}

	registry.MustRegister(e.threadCount, e.minThreads, e.maxThreads, e.idleThreads, e.queueSize, e.started)
	return e
}

// Start samples pool.Stats every pollInterval and serves them at cfg.Addr.
// A no-op if already running.
func (e *Exporter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}

	ln, err := net.Listen("tcp", e.config.Addr)
	if err != nil {
		return fmt.Errorf("taskpool: starting metrics exporter: %w", err)
	}
	e.ln = ln

	mux := http.NewServeMux()
	mux.Handle(e.config.Path, promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	e.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		_ = e.server.Serve(ln)
	}()

	e.stopPoll = make(chan struct{})
	e.pollDone = make(chan struct{})
	go e.poll(e.stopPoll, e.pollDone)

	e.running = true
	return nil
}

// Stop shuts down the HTTP server and the sampling goroutine.
func (e *Exporter) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil
	}
	e.running = false

	close(e.stopPoll)
	<-e.pollDone

	if e.server != nil {
		return e.server.Shutdown(ctx)
	}
	return nil
}

func (e *Exporter) poll(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.sample()
		}
	}
}

func (e *Exporter) sample() {
	s := e.pool.Stats()
	labels := prometheus.Labels{"pool": e.pool.name}
	e.threadCount.With(labels).Set(float64(s.ThreadCount))
	e.minThreads.With(labels).Set(float64(s.MinThreads))
	e.maxThreads.With(labels).Set(float64(s.MaxThreads))
	e.idleThreads.With(labels).Set(float64(s.IdleThreads))
	e.queueSize.With(labels).Set(float64(s.QueueSize))
	e.started.With(labels).Set(float64(s.Started))
}
