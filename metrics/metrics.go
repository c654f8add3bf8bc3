// Package metrics exposes Prometheus counters for detection runs.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mevwatcher/logger"
	"mevwatcher/types"
)

const namespace = "mevwatcher"

var (
	BlocksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blocks_processed_total",
		Help:      "Blocks run through the detectors, by command",
	}, []string{"source"})

	Detections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detections_total",
		Help:      "Detected MEV records, by kind",
	}, []string{"kind"})

	KindsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "asset_kinds_resolved_total",
		Help:      "Contracts probed for their asset kind, by resolved kind",
	}, []string{"kind"})

	ProbeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probe_retries_total",
		Help:      "Probe batches retried after a timeout",
	}, []string{"probe"})

	DetectDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "detect_duration_seconds",
		Help:      "Time spent detecting one block",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"source"})

	LastProcessedBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_processed_block",
		Help:      "Highest block number fully processed",
	})
)

// ObserveReport counts the records of one block report.
func ObserveReport(source string, r *types.Report, elapsed time.Duration) {
	BlocksProcessed.WithLabelValues(source).Inc()
	DetectDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	Detections.WithLabelValues("arbitrage").Add(float64(len(r.Arbitrages)))
	Detections.WithLabelValues("sandwich").Add(float64(len(r.Sandwiches)))
	Detections.WithLabelValues("jit_sandwich").Add(float64(len(r.JitSandwiches)))
	Detections.WithLabelValues("liquidation").Add(float64(len(r.Liquidations)))
	Detections.WithLabelValues("nft_arbitrage").Add(float64(len(r.NftArbitrages)))
	Detections.WithLabelValues("pure_arbitrage").Add(float64(len(r.PureArbitrages)))
}

// Serve exposes /metrics on addr until ctx is done. An empty addr disables it.
func Serve(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	go func() {
		logger.GlobalLogger.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.GlobalLogger.Error("Metrics server stopped", "err", err)
		}
	}()
}
