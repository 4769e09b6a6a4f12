package etherlite

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const prometheusNamespace = "etherlite"

/*
Prometheus collectors for RPC traffic and transaction submissions. Created by
"NewMetrics" and registered by the caller, or automatically by "NewClient"
when "Config.Registerer" is set.
*/
type Metrics struct {
	RpcCalls    *prometheus.CounterVec
	RpcErrors   *prometheus.CounterVec
	RpcDuration *prometheus.HistogramVec
	TxsSent     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		RpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      "rpc_calls_total",
			Help:      "Number of JSON-RPC calls made",
		}, []string{"method"}),

		RpcErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      "rpc_errors_total",
			Help:      "Number of JSON-RPC calls that failed",
		}, []string{"method"}),

		RpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: prometheusNamespace,
			Name:      "rpc_duration_seconds",
			Help:      "Duration of JSON-RPC calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		TxsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Name:      "transactions_sent_total",
			Help:      "Number of transactions broadcast, by signing kind",
		}, []string{"kind"}),
	}
}

// Registers every collector. Collectors that are already registered are
// reused rather than reported as errors.
func (self *Metrics) Register(reg prometheus.Registerer) error {
	var err error
	if self.RpcCalls, err = registerCollector(reg, self.RpcCalls); err != nil {
		return err
	}
	if self.RpcErrors, err = registerCollector(reg, self.RpcErrors); err != nil {
		return err
	}
	if self.RpcDuration, err = registerCollector(reg, self.RpcDuration); err != nil {
		return err
	}
	self.TxsSent, err = registerCollector(reg, self.TxsSent)
	return err
}

func registerCollector[T prometheus.Collector](reg prometheus.Registerer, coll T) (T, error) {
	err := reg.Register(coll)
	if err == nil {
		return coll, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return coll, errors.Wrap(err, "failed to register metrics")
}

// Nil-safe. Counts one broadcast transaction of the given kind ("raw" or
// "node").
func (self *Metrics) txSent(kind string) {
	if self != nil {
		self.TxsSent.WithLabelValues(kind).Inc()
	}
}

/*
Wraps a transport so that every call is counted and timed. The result
implements "Trans" and forwards "Connected" unchanged.
*/
func InstrumentTrans(trans Trans, metrics *Metrics) Trans {
	if metrics == nil {
		return trans
	}
	return instrumentedTrans{trans, metrics}
}

type instrumentedTrans struct {
	Trans
	metrics *Metrics
}

func (self instrumentedTrans) Call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	start := time.Now()
	err := self.Trans.Call(ctx, out, method, params...)

	self.metrics.RpcCalls.WithLabelValues(method).Inc()
	self.metrics.RpcDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		self.metrics.RpcErrors.WithLabelValues(method).Inc()
	}
	return err
}
