package monitoring

import (
	"errors"
	"net/http"
	"time"

	"github.com/mezonai/runtime/logx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ExtrinsicRejectedReason string

var (
	ExtrinsicBadProof   ExtrinsicRejectedReason = "bad_proof"
	ExtrinsicPayment    ExtrinsicRejectedReason = "payment"
	ExtrinsicStale      ExtrinsicRejectedReason = "stale"
	ExtrinsicFuture     ExtrinsicRejectedReason = "future"
	ExtrinsicPoolFull   ExtrinsicRejectedReason = "pool_full"
	ExtrinsicDuplicated ExtrinsicRejectedReason = "duplicated"
	ExtrinsicBlacklist  ExtrinsicRejectedReason = "blacklisted"
	ExtrinsicRateLimit  ExtrinsicRejectedReason = "rate_limited"
	ExtrinsicUnknown    ExtrinsicRejectedReason = "other"
)

type ImportFailureReason string

var (
	ImportStateRoot      ImportFailureReason = "state_root"
	ImportExtrinsicsRoot ImportFailureReason = "extrinsics_root"
	ImportInvalidBlock   ImportFailureReason = "invalid_block"
	ImportStorage        ImportFailureReason = "storage"
)

type runtimePromMetrics struct {
	upUnixSeconds      prometheus.Gauge
	appliedExtrinsics  *prometheus.CounterVec
	rejectedExtrinsics *prometheus.CounterVec
	blockHeight        prometheus.Gauge
	totalIssuance      prometheus.Gauge
	importFailures     *prometheus.CounterVec
	blockExecutionTime prometheus.Histogram
	extrinsicsInBlock  prometheus.Histogram
	poolSize           prometheus.Gauge
	panicCount         prometheus.Counter
}

func newRuntimePromMetrics() *runtimePromMetrics {
	return &runtimePromMetrics{
		upUnixSeconds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "runtime_up_timestamp_unix_seconds",
				Help: "Unix timestamp of the process start",
			},
		),
		appliedExtrinsics: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runtime_applied_extrinsic_count",
				Help: "Extrinsics included in a block, by dispatch outcome",
			},
			[]string{"outcome"},
		),
		rejectedExtrinsics: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runtime_rejected_extrinsic_count",
				Help: "Extrinsics excluded from blocks or refused by the pool",
			},
			[]string{"reason"},
		),
		blockHeight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "runtime_block_height",
				Help: "Number of the last finalized or imported block",
			},
		),
		totalIssuance: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "runtime_total_issuance",
				Help: "Total issuance after the last block, saturated to float precision",
			},
		),
		importFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runtime_import_failure_count",
				Help: "Rejected block imports",
			},
			[]string{"reason"},
		),
		blockExecutionTime: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "runtime_block_execution_seconds",
				Help: "Time spent in execute_block",
			},
		),
		extrinsicsInBlock: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "runtime_extrinsics_in_block",
				Help:    "Number of extrinsics per block",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		poolSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "runtime_pool_size",
				Help: "Extrinsics waiting in the pool",
			},
		),
		panicCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "runtime_panic_count",
				Help: "Recovered panics in background goroutines",
			},
		),
	}
}

var runtimeMetrics = newRuntimePromMetrics()

// InitMetrics stamps the start time
func InitMetrics() {
	runtimeMetrics.upUnixSeconds.SetToCurrentTime()
}

func RegisterMetrics(mux *http.ServeMux) {
	logx.Info("MONITORING", "Registering prometheus metrics")
	mux.Handle("/metrics", promhttp.Handler())
}

// Serve blocks serving /metrics on addr
func Serve(addr string) error {
	mux := http.NewServeMux()
	RegisterMetrics(mux)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logx.Info("MONITORING", "metrics listening on ", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func RecordAppliedExtrinsic(success bool) {
	outcome := "success"
	if !success {
		outcome = "dispatch_error"
	}
	runtimeMetrics.appliedExtrinsics.With(prometheus.Labels{
		"outcome": outcome,
	}).Inc()
}

func RecordRejectedExtrinsic(reason ExtrinsicRejectedReason) {
	runtimeMetrics.rejectedExtrinsics.With(prometheus.Labels{
		"reason": string(reason),
	}).Inc()
}

func SetBlockHeight(number uint32) {
	runtimeMetrics.blockHeight.Set(float64(number))
}

func SetTotalIssuance(issuance float64) {
	runtimeMetrics.totalIssuance.Set(issuance)
}

func RecordImportFailure(reason ImportFailureReason) {
	runtimeMetrics.importFailures.With(prometheus.Labels{
		"reason": string(reason),
	}).Inc()
}

func RecordBlockExecutionTime(duration time.Duration) {
	runtimeMetrics.blockExecutionTime.Observe(duration.Seconds())
}

func RecordExtrinsicsInBlock(count int) {
	runtimeMetrics.extrinsicsInBlock.Observe(float64(count))
}

func RecordPoolSize(size int) {
	runtimeMetrics.poolSize.Set(float64(size))
}

func IncreasePanicCount() {
	runtimeMetrics.panicCount.Inc()
}
