// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア、サービス層、ワーカーから利用する。
type MetricsCollector interface {
	RecordSessionResolution(source string)
	RecordGateDenial(reason string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(method string, duration time.Duration)
	RecordSignup(role string, outcome string)
	RecordSessionsPurged(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sessionResolutions *prometheus.CounterVec
	gateDenials        *prometheus.CounterVec
	httpStatus         *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	signups            *prometheus.CounterVec
	sessionsPurged     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orihub_session_resolutions_total",
			Help: "解決元別のセッション解決数",
		}, []string{"source"}),
		gateDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orihub_gate_denials_total",
			Help: "理由別のロールゲート拒否数",
		}, []string{"reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orihub_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orihub_request_latency_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orihub_signups_total",
			Help: "ロールと結果別のユーザー登録数",
		}, []string{"role", "outcome"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orihub_sessions_purged_total",
			Help: "削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.sessionResolutions,
		c.gateDenials,
		c.httpStatus,
		c.requestLatency,
		c.signups,
		c.sessionsPurged,
	)

	return c
}

// RecordSessionResolution はセッション解決の解決元を記録する。
func (c *Collector) RecordSessionResolution(source string) {
	c.sessionResolutions.WithLabelValues(source).Inc()
}

// RecordGateDenial はロールゲートでの拒否を記録する。
func (c *Collector) RecordGateDenial(reason string) {
	c.gateDenials.WithLabelValues(reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(method string, duration time.Duration) {
	c.requestLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordSignup はユーザー登録の結果を記録する。
func (c *Collector) RecordSignup(role string, outcome string) {
	c.signups.WithLabelValues(role, outcome).Inc()
}

// RecordSessionsPurged は削除された期限切れセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int) {
	c.sessionsPurged.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
