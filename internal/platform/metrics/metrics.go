package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// 拒否理由のラベル値です。
const (
	ReasonValidation      = "validation"
	ReasonPasswordPolicy  = "password_policy"
	ReasonDuplicateCode   = "duplicate_code"
	ReasonDuplicateDate   = "duplicate_date"
	ReasonSelfDelete      = "self_delete"
	ReasonUnauthenticated = "unauthenticated"
	ReasonForbidden       = "forbidden"
)

// Metrics はアプリケーションの Prometheus メトリクスを保持します。
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RejectionsTotal *prometheus.CounterVec
}

// New はメトリクスを生成し reg に登録します。reg が nil の場合は既定のレジストリを使用します。
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "daily_report_grpc_requests_total",
			Help: "Total number of gRPC requests by method and status code",
		}, []string{"method", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "daily_report_grpc_request_duration_seconds",
			Help:    "Latency of gRPC requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		RejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "daily_report_rejections_total",
			Help: "Total number of requests rejected by business rules",
		}, []string{"reason"}),
	}
}

// RecordRejection は業務ルールによる拒否を記録します。
func (m *Metrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.RejectionsTotal.WithLabelValues(reason).Inc()
}

// UnaryServerInterceptor は RPC ごとの件数と所要時間を記録します。
func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		m.RequestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		m.RequestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())

		return resp, err
	}
}
