// Package metrics exposes the state of the token registry and of the
// concurrency policy as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/exascience/tokwork/concurrency"
	"github.com/exascience/tokwork/token"
)

const namespace = "tokwork"

var (
	tokensLiveDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "tokens", "live"),
		"Number of distinct strings in the token registry.",
		nil, nil,
	)
	tokensImmortalDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "tokens", "immortal"),
		"Number of immortal strings in the token registry.",
		nil, nil,
	)
	tokenSetsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "tokens", "sets"),
		"Number of independently locked sets of the token registry.",
		nil, nil,
	)
	limitDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "concurrency", "limit"),
		"Current concurrency limit.",
		[]string{"overridden"}, nil,
	)
	physicalDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "concurrency", "physical"),
		"Physical concurrency of the host.",
		nil, nil,
	)
)

// Collector implements prometheus.Collector. Every scrape reads the
// registry statistics and the concurrency policy afresh.
type Collector struct {
	policy func() *concurrency.Policy
	stats  func() token.Stats
}

// NewCollector returns a collector for the process-wide token registry
// and whichever policy is the process-wide one at scrape time.
func NewCollector() *Collector {
	return &Collector{policy: concurrency.Default, stats: token.ReadStats}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- tokensLiveDesc
	ch <- tokensImmortalDesc
	ch <- tokenSetsDesc
	ch <- limitDesc
	ch <- physicalDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.stats()
	ch <- prometheus.MustNewConstMetric(tokensLiveDesc, prometheus.GaugeValue, float64(stats.Live))
	ch <- prometheus.MustNewConstMetric(tokensImmortalDesc, prometheus.GaugeValue, float64(stats.Immortal))
	ch <- prometheus.MustNewConstMetric(tokenSetsDesc, prometheus.GaugeValue, float64(stats.Sets))

	policy := c.policy()
	overridden := "false"
	if policy.Overridden() {
		overridden = "true"
	}
	ch <- prometheus.MustNewConstMetric(limitDesc, prometheus.GaugeValue, float64(policy.Limit()), overridden)
	ch <- prometheus.MustNewConstMetric(physicalDesc, prometheus.GaugeValue, float64(policy.PhysicalLimit()))
}

// Register registers a new Collector with reg.
func Register(reg prometheus.Registerer) error {
	return reg.Register(NewCollector())
}
