// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 認証とタスクサービスのMetricsRecorderインターフェースを満たす。
type Collector struct {
	httpStatus   *prometheus.CounterVec
	tokenResolve *prometheus.CounterVec
	signIn       *prometheus.CounterVec
	storeOp      *prometheus.HistogramVec
	tasksCreated prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		tokenResolve: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_token_resolve_total",
			Help: "トークン検証の結果別の合計数",
		}, []string{"outcome"}),
		signIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_signin_total",
			Help: "サインイン試行の結果別の合計数",
		}, []string{"outcome"}),
		storeOp: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskman_store_op_seconds",
			Help:    "ストア操作のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		tasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskman_tasks_created_total",
			Help: "作成されたタスクの合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.tokenResolve,
		c.signIn,
		c.storeOp,
		c.tasksCreated,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordTokenResolve はトークン検証の結果を記録する。
func (c *Collector) RecordTokenResolve(outcome string) {
	c.tokenResolve.WithLabelValues(outcome).Inc()
}

// RecordSignIn はサインイン試行の結果を記録する。
func (c *Collector) RecordSignIn(outcome string) {
	c.signIn.WithLabelValues(outcome).Inc()
}

// RecordStoreOp はストア操作のレイテンシを記録する。
func (c *Collector) RecordStoreOp(op string, duration time.Duration) {
	c.storeOp.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordTaskCreated はタスク作成を記録する。
func (c *Collector) RecordTaskCreated() {
	c.tasksCreated.Inc()
}

// statusWriter はhttp.ResponseWriterをラップし、ステータスコードを捕捉する。
type statusWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.written {
		sw.statusCode = code
		sw.written = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.written {
		sw.statusCode = http.StatusOK
		sw.written = true
	}
	return sw.ResponseWriter.Write(b)
}

// Middleware はレスポンスのステータスコードを記録するHTTPミドルウェアを返す。
func (c *Collector) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(sw, r)
			c.RecordHTTPStatus(sw.statusCode)
		})
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
