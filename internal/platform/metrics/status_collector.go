// Package metrics exposes company sync status as Prometheus metrics.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"company_sync/internal/feature/companies/usecase"
)

const scrapeTimeout = 10 * time.Second

// StatusSource reports the current sync status.
type StatusSource interface {
	SyncStatus(ctx context.Context) (*usecase.SyncStatus, error)
}

// StatusCollector computes company gauges from the store on every scrape.
type StatusCollector struct {
	source StatusSource

	total      *prometheus.Desc
	withPrice  *prometheus.Desc
	lastUpdate *prometheus.Desc
	up         *prometheus.Desc
}

var _ prometheus.Collector = (*StatusCollector)(nil)

// NewStatusCollector creates a StatusCollector.
func NewStatusCollector(source StatusSource) *StatusCollector {
	return &StatusCollector{
		source: source,
		total: prometheus.NewDesc(
			"companies_total",
			"Number of rows in the companies table",
			nil, nil,
		),
		withPrice: prometheus.NewDesc(
			"companies_with_price",
			"Number of companies whose extra_data carries Current_Price",
			nil, nil,
		),
		lastUpdate: prometheus.NewDesc(
			"companies_last_price_update_timestamp_seconds",
			"Unix time of the most recent Price_Update",
			nil, nil,
		),
		up: prometheus.NewDesc(
			"companies_status_up",
			"Whether the last status query succeeded (1=yes, 0=no)",
			nil, nil,
		),
	}
}

func (c *StatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.withPrice
	ch <- c.lastUpdate
	ch <- c.up
}

func (c *StatusCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	st, err := c.source.SyncStatus(ctx)
	if err != nil {
		slog.Warn("status query for metrics failed", "error", err)
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(st.TotalCompanies))
	ch <- prometheus.MustNewConstMetric(c.withPrice, prometheus.GaugeValue, float64(st.StocksWithPrices))
	if st.LastPriceUpdate != nil {
		ch <- prometheus.MustNewConstMetric(c.lastUpdate, prometheus.GaugeValue, float64(st.LastPriceUpdate.Unix()))
	}
}
