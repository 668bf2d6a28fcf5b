// Package metrics はゲートウェイのPrometheusメトリクスを提供する。
//
// メトリクスはプロセス共通のデフォルトレジストリではなく、
// Metricsごとに専用のレジストリへ登録する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// namespace はメトリクス名の接頭辞。
const namespace = "docsgw"

// 取得結果のラベル値。
const (
	ResultOK          = "ok"
	ResultUnreachable = "unreachable"
	ResultBadResponse = "bad_response"
	ResultNotFound    = "not_found"
)

// ServiceUnknown はカタログに存在しないサービス名の代わりに使うラベル値。
const ServiceUnknown = "unknown"

// Metrics はゲートウェイが公開するメトリクスの集合。
type Metrics struct {
	registry *prometheus.Registry

	// FetchTotal はドキュメント取得の回数（service, result別）。
	FetchTotal *prometheus.CounterVec
	// FetchDuration はドキュメント取得にかかった時間。
	FetchDuration *prometheus.HistogramVec
	// CatalogServices は現在のカタログに含まれるサービス数。
	CatalogServices prometheus.Gauge
	// CatalogWarnings はカタログ構築時の警告の累計。
	CatalogWarnings prometheus.Counter
	// RefreshTotal はカタログ再構築の回数（result別）。
	RefreshTotal *prometheus.CounterVec
}

// New は新しいMetricsを生成し、専用レジストリに登録する。
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Number of API document fetches by service and result.",
		}, []string{"service", "result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of upstream API document fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		CatalogServices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_services",
			Help:      "Number of services in the current catalog.",
		}),
		CatalogWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_warnings_total",
			Help:      "Number of route definitions skipped or overwritten while building the catalog.",
		}),
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_refresh_total",
			Help:      "Number of catalog rebuilds by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.FetchTotal,
		m.FetchDuration,
		m.CatalogServices,
		m.CatalogWarnings,
		m.RefreshTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry は専用のPrometheusレジストリを返す。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler は /metrics 用のHTTPハンドラを返す。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFetch はドキュメント取得の結果と所要時間を記録する。
// mがnilの場合は何もしない。
func (m *Metrics) ObserveFetch(service, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(service, result).Inc()
	m.FetchDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}

// ObserveCatalog はカタログのサービス数と警告数を記録する。
func (m *Metrics) ObserveCatalog(services, warnings int) {
	if m == nil {
		return
	}
	m.CatalogServices.Set(float64(services))
	m.CatalogWarnings.Add(float64(warnings))
}

// ObserveRefresh はカタログ再構築の結果を記録する。
func (m *Metrics) ObserveRefresh(result string) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(result).Inc()
}
