// Package metrics defines the Prometheus instruments for the ledger and its RPC surface.
package metrics

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/splitcircle/internal/apperr"
)

const namespace = "splitcircle"

// Outcome labels.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metrics holds every instrument. A nil *Metrics records nothing.
type Metrics struct {
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	splits        prometheus.Counter
	rpcDuration   *prometheus.HistogramVec
}

// New creates the instruments and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_transitions_total",
			Help:      "Settlement state machine transitions by transition and outcome.",
		}, []string{"transition", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications handed to the notifier by type and outcome.",
		}, []string{"type", "outcome"}),
		splits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "split_expenses_recorded_total",
			Help:      "Split transactions recorded, directly or through accepted claims.",
		}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC handling time by procedure and Connect code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}
	reg.MustRegister(m.transitions, m.notifications, m.splits, m.rpcDuration)
	return m
}

// Transition counts a state machine transition attempt. The outcome is "ok" or the error kind.
func (m *Metrics) Transition(name string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}
	m.transitions.WithLabelValues(name, outcome).Inc()
}

// Notification counts a notifier call.
func (m *Metrics) Notification(notificationType string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeFailed
	}
	m.notifications.WithLabelValues(notificationType, outcome).Inc()
}

// SplitRecorded counts a recorded split transaction.
func (m *Metrics) SplitRecorded() {
	if m == nil {
		return
	}
	m.splits.Inc()
}

// Interceptor returns a Connect interceptor observing RPC durations.
func (m *Metrics) Interceptor() connect.Interceptor {
	return &rpcInterceptor{m: m}
}

type rpcInterceptor struct {
	m *Metrics
}

func (i *rpcInterceptor) observe(procedure string, start time.Time, err error) {
	if i.m == nil {
		return
	}
	code := "ok"
	if err != nil {
		code = connect.CodeOf(err).String()
		if errors.Is(err, context.Canceled) {
			code = connect.CodeCanceled.String()
		}
	}
	i.m.rpcDuration.WithLabelValues(procedure, code).Observe(time.Since(start).Seconds())
}

func (i *rpcInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		if !req.Spec().IsClient {
			i.observe(req.Spec().Procedure, start, err)
		}
		return resp, err
	}
}

func (i *rpcInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *rpcInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		err := next(ctx, conn)
		i.observe(conn.Spec().Procedure, start, err)
		return err
	}
}
