// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 認証サービスとHTTPミドルウェアから利用する。
type Collector struct {
	signup       *prometheus.CounterVec
	login        *prometheus.CounterVec
	tokenRenewal *prometheus.CounterVec
	revocation   prometheus.Counter
	httpStatus   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentorlink_signup_total",
			Help: "サインアップ試行の結果別合計数",
		}, []string{"result"}),
		login: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentorlink_login_total",
			Help: "ログイン試行の結果別合計数",
		}, []string{"result"}),
		tokenRenewal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentorlink_token_renewal_total",
			Help: "トークン更新試行の結果別合計数",
		}, []string{"result"}),
		revocation: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mentorlink_session_revocation_total",
			Help: "セッション失効の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentorlink_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.signup,
		c.login,
		c.tokenRenewal,
		c.revocation,
		c.httpStatus,
	)

	return c
}

// RecordSignup はサインアップ試行の結果を記録する。
func (c *Collector) RecordSignup(result string) {
	c.signup.WithLabelValues(result).Inc()
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.login.WithLabelValues(result).Inc()
}

// RecordTokenRenewal はトークン更新試行の結果を記録する。
func (c *Collector) RecordTokenRenewal(result string) {
	c.tokenRenewal.WithLabelValues(result).Inc()
}

// RecordRevocation はセッション失効を記録する。
func (c *Collector) RecordRevocation() {
	c.revocation.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
