package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SaleLifecycleTotal counts sale lifecycle transitions by operation and result.
	SaleLifecycleTotal *prometheus.CounterVec
	// SaleTotalAmount observes completed sale totals in minor units.
	SaleTotalAmount prometheus.Histogram
	// StockRejectionsTotal counts sales rejected for insufficient stock.
	StockRejectionsTotal prometheus.Counter
	// ReceiptJobsTotal counts receipt render jobs by result.
	ReceiptJobsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SaleLifecycleTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_lifecycle_total",
			Help:      "Count of sale lifecycle operations by outcome.",
		}, []string{"operation", "result"})
		SaleTotalAmount = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_total_amount_cents",
			Help:      "Distribution of completed sale totals in cents.",
			Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000, 500000},
		})
		StockRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_stock_rejections_total",
			Help:      "Number of sales rejected because stock was insufficient.",
		})
		ReceiptJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_jobs_total",
			Help:      "Count of receipt render jobs by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, SaleLifecycleTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SaleLifecycleTotal = v
			}
		})
		mustRegisterCollector(reg, SaleTotalAmount, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				SaleTotalAmount = v
			}
		})
		mustRegisterCollector(reg, StockRejectionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				StockRejectionsTotal = v
			}
		})
		mustRegisterCollector(reg, ReceiptJobsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReceiptJobsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
