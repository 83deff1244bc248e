package gateway

import (
	"context"
	"time"

	"github.com/iov-one/blendsafe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendermint/tendermint/libs/log"
)

// Metrics are the collectors of an instrumented gateway.
type Metrics struct {
	Duration *prometheus.HistogramVec
	Failures *prometheus.CounterVec
}

// NewMetrics creates the gateway collectors and registers them with reg,
// if not nil. Collectors that are already registered are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "blendsafe",
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Duration of signing gateway calls.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 2, 5, 10, 30},
		}, []string{"method"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blendsafe",
			Subsystem: "gateway",
			Name:      "failures_total",
			Help:      "Number of failed signing gateway calls.",
		}, []string{"method"}),
	}
	if reg == nil {
		return m
	}
	if err := reg.Register(m.Duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.Duration = are.ExistingCollector.(*prometheus.HistogramVec)
		}
	}
	if err := reg.Register(m.Failures); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.Failures = are.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	return m
}

// Instrument wraps the gateway so that every call is logged and measured.
func Instrument(gw blendsafe.SigningGateway, logger log.Logger, m *Metrics) blendsafe.SigningGateway {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if m == nil {
		m = NewMetrics(nil)
	}
	return &instrumented{
		gw:      gw,
		logger:  logger,
		metrics: m,
	}
}

type instrumented struct {
	gw      blendsafe.SigningGateway
	logger  log.Logger
	metrics *Metrics
}

func (i *instrumented) PublicKey(ctx context.Context, path blendsafe.DerivationPath) ([]byte, error) {
	start := time.Now()
	pub, err := i.gw.PublicKey(ctx, path)
	i.observe("public_key", path, start, err)
	return pub, err
}

func (i *instrumented) Sign(ctx context.Context, path blendsafe.DerivationPath, hash []byte) ([]byte, error) {
	start := time.Now()
	sig, err := i.gw.Sign(ctx, path, hash)
	i.observe("sign", path, start, err)
	return sig, err
}

func (i *instrumented) observe(method string, path blendsafe.DerivationPath, start time.Time, err error) {
	took := time.Since(start)
	i.metrics.Duration.WithLabelValues(method).Observe(took.Seconds())
	if err != nil {
		i.metrics.Failures.WithLabelValues(method).Inc()
		i.logger.Error("gateway call failed", "method", method, "path", path.String(), "took", took, "err", err)
		return
	}
	i.logger.Debug("gateway call", "method", method, "path", path.String(), "took", took)
}
