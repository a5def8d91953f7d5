// Package main provides the CLI entry point for taskpoolctl, a demo harness
// for the taskpool library: load a pool from a YAML config, drive it with a
// synthetic, rate-limited workload, print periodic stats, and shut down
// cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/example/taskpool"
	"golang.org/x/time/rate"
)

// Version information (populated at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// CLI flags.
var (
	configPath    string
	duration      time.Duration
	qps           float64
	verbose       bool
	validate      bool
	showVersion   bool
	metricsAddr   string
	taskLatencyMs int
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to the YAML pool configuration file")
	flag.StringVar(&configPath, "c", "", "Path to the YAML pool configuration file (shorthand)")

	flag.DurationVar(&duration, "duration", 30*time.Second, "How long to run the synthetic workload")
	flag.DurationVar(&duration, "d", 30*time.Second, "How long to run the synthetic workload (shorthand)")
	flag.Float64Var(&qps, "qps", 50, "Synthetic task submission rate, in tasks per second")
	flag.IntVar(&taskLatencyMs, "task-latency-ms", 20, "Simulated per-task work duration, in milliseconds")

	flag.BoolVar(&verbose, "verbose", false, "Enable verbose output")
	flag.BoolVar(&verbose, "v", false, "Enable verbose output (shorthand)")
	flag.BoolVar(&validate, "validate", false, "Validate the configuration and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.StringVar(&metricsAddr, "metrics", os.Getenv("TASKPOOL_METRICS_ADDR"), "Prometheus metrics listen address, e.g. :9090 (default from TASKPOOL_METRICS_ADDR)")

	flag.Usage = printUsage
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `taskpoolctl - worker pool demo harness

USAGE:
    taskpoolctl -config <path> [options]

DESCRIPTION:
    Loads a taskpool.FileConfig, starts a pool, and submits a synthetic,
    rate-limited workload against it for -duration, printing stats on a
    fixed interval. Interrupt (Ctrl-C) or SIGTERM triggers a graceful
    drain and destroy.

OPTIONS:
    -config, -c <path>       Path to the YAML pool configuration file
    -duration, -d <dur>      How long to run the workload (default 30s)
    -qps <n>                 Synthetic submission rate (default 50)
    -task-latency-ms <n>     Simulated per-task work duration (default 20)
    -metrics <addr>          Prometheus metrics listen address (e.g. :9090)
    -validate                Validate the configuration and exit
    -verbose, -v             Enable verbose output
    -version                 Show version information

EXAMPLES:
    taskpoolctl -config configs/checkout-pool.yaml
    taskpoolctl -c pool.yaml -qps 200 -duration 1m -metrics :9090
`)
}

func main() {
	flag.Parse()

	if showVersion {
		printVersion()
		os.Exit(0)
	}

	if configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -config flag is required")
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}

	absConfigPath, err := filepath.Abs(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving config path: %v\n", err)
		os.Exit(1)
	}

	cfg, err := taskpool.LoadFileConfig(absConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if validate {
		fmt.Printf("Configuration '%s' is valid.\n", cfg.Name)
		printConfigSummary(cfg)
		os.Exit(0)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("taskpoolctl version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

func printConfigSummary(cfg *taskpool.FileConfig) {
	fmt.Printf("  initialCount: %d\n", cfg.InitialCount)
	fmt.Printf("  minThreads:   %d\n", cfg.MinThreads)
	fmt.Printf("  maxThreads:   %d\n", cfg.MaxThreads)
	if cfg.AutoAdjust.Enabled {
		fmt.Printf("  autoAdjust:   high=%d low=%d interval=%v\n",
			cfg.AutoAdjust.HighWatermark, cfg.AutoAdjust.LowWatermark, cfg.AutoAdjust.Interval)
	}
}

func run(cfg *taskpool.FileConfig) error {
	if metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = metricsAddr
	}

	pool, err := taskpool.NewFromFileConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating pool: %w", err)
	}

	var exporter *taskpool.Exporter
	if cfg.Metrics.Enabled {
		exporter = taskpool.NewExporter(pool, taskpool.ExporterConfig{Addr: cfg.Metrics.Addr})
		if err := exporter.Start(); err != nil {
			return fmt.Errorf("starting metrics exporter: %w", err)
		}
		fmt.Printf("Metrics listening on %s%s\n", cfg.Metrics.Addr, "/metrics")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workloadDone := make(chan struct{})
	go generateWorkload(ctx, pool, workloadDone)

	statsTicker := time.NewTicker(time.Second)
	defer statsTicker.Stop()

	deadline := time.After(duration)

loop:
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nShutdown signal received, draining...")
			break loop
		case <-deadline:
			fmt.Println("Duration elapsed, draining...")
			break loop
		case <-statsTicker.C:
			printStats(pool)
		}
	}

	stop()
	<-workloadDone

	if exporter != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = exporter.Stop(sctx)
	}

	if err := pool.Destroy(func(taskID uint64, name string, _ any) {
		if verbose {
			fmt.Printf("  dropped unstarted task %d (%s)\n", taskID, name)
		}
	}); err != nil {
		return fmt.Errorf("destroying pool: %w", err)
	}

	printStats(pool)
	fmt.Println("Pool destroyed.")
	return nil
}

func printStats(p *taskpool.Pool) {
	s := p.Stats()
	fmt.Printf("[stats] threads=%d idle=%d queue=%d started=%d\n",
		s.ThreadCount, s.IdleThreads, s.QueueSize, s.Started)
}

// generateWorkload submits synthetic tasks at qps until ctx is cancelled,
// then closes done.
func generateWorkload(ctx context.Context, pool *taskpool.Pool, done chan struct{}) {
	defer close(done)

	limiter := rate.NewLimiter(rate.Limit(qps), int(qps)+1)
	latency := time.Duration(taskLatencyMs) * time.Millisecond
	priorities := []taskpool.Priority{taskpool.HIGH, taskpool.NORMAL, taskpool.NORMAL, taskpool.LOW}

	var submitted int
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		submitted++
		priority := priorities[rand.Intn(len(priorities))]
		name := fmt.Sprintf("demo-task-%d", submitted)

		_, err := pool.Submit(func(any) {
			time.Sleep(jitter(latency))
		}, nil, name, priority)
		if err != nil {
			return
		}
	}
}

// jitter returns base scaled by a random factor in [0.5, 1.5), so simulated
// task durations aren't perfectly uniform.
func jitter(base time.Duration) time.Duration {
	return time.Duration(float64(base) * (0.5 + rand.Float64()))
}
