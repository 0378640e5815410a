package sweep

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Runner drives scheduled sweeps in daemon mode.
type Runner struct {
	Log  *zap.Logger
	S    *Sweeper
	Tick time.Duration

	mSweeps    prometheus.Counter
	mFetchErrs prometheus.Counter
	mParsed    prometheus.Counter
	mAppended  prometheus.Counter
	mErr       prometheus.Counter
	mLedger    prometheus.Gauge
	mSweepDur  prometheus.Histogram
}

func NewRunner(log *zap.Logger, s *Sweeper, tick time.Duration) *Runner {
	return &Runner{
		Log:  log,
		S:    s,
		Tick: tick,
		mSweeps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulse_sweeps_total", Help: "Sweeps attempted",
		}),
		mFetchErrs: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulse_fetch_errors_total", Help: "Per-source fetch failures",
		}),
		mParsed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulse_records_parsed_total", Help: "Candidate records parsed",
		}),
		mAppended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulse_records_appended_total", Help: "Records appended to the ledger",
		}),
		mErr: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulse_sweep_errors_total", Help: "Sweeps that failed outright",
		}),
		mLedger: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pulse_ledger_size", Help: "Records in the history ledger",
		}),
		mSweepDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "pulse_sweep_duration_seconds", Help: "Sweep duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	r.mSweeps.Inc()

	res, err := r.S.Sweep(ctx)
	if err != nil {
		r.mErr.Inc()
		r.Log.Warn("sweep error", zap.Error(err))
	}
	r.mFetchErrs.Add(float64(res.FetchErrors))
	r.mParsed.Add(float64(res.Parsed))
	r.mAppended.Add(float64(res.Appended))
	if err == nil {
		r.mLedger.Set(float64(res.LedgerSize))
	}
	r.mSweepDur.Observe(time.Since(start).Seconds())
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Tick)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}
