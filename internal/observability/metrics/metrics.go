package metrics

import "github.com/prometheus/client_golang/prometheus"

// CMSMetrics exposes counters/histograms for content fetches.
type CMSMetrics struct {
	fetchTotal   *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	cacheTotal   *prometheus.CounterVec
}

func NewCMSMetrics(reg prometheus.Registerer) *CMSMetrics {
	m := &CMSMetrics{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ktrh",
			Subsystem: "cms",
			Name:      "fetch_total",
			Help:      "Total CMS requests by resource and outcome",
		}, []string{"resource", "outcome"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ktrh",
			Subsystem: "cms",
			Name:      "fetch_latency_seconds",
			Help:      "Latency of CMS requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ktrh",
			Subsystem: "cms",
			Name:      "cache_total",
			Help:      "CMS response cache lookups by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.fetchTotal, m.fetchLatency, m.cacheTotal)
	return m
}

func (m *CMSMetrics) ObserveFetch(resource, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(resource, outcome).Inc()
	m.fetchLatency.WithLabelValues(resource).Observe(seconds)
}

// ObserveCache records a cache lookup result: hit, miss or error.
func (m *CMSMetrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}

// SiteMetrics covers form submissions and live page sessions.
type SiteMetrics struct {
	submissions  *prometheus.CounterVec
	liveSessions prometheus.Gauge
	liveEvents   *prometheus.CounterVec
}

func NewSiteMetrics(reg prometheus.Registerer) *SiteMetrics {
	m := &SiteMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ktrh",
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Form submissions by form and outcome",
		}, []string{"form", "outcome"}),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ktrh",
			Subsystem: "live",
			Name:      "sessions",
			Help:      "Open live page websocket sessions",
		}),
		liveEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ktrh",
			Subsystem: "live",
			Name:      "events_total",
			Help:      "Live page events by type",
		}, []string{"type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions, m.liveSessions, m.liveEvents)
	return m
}

func (m *SiteMetrics) ObserveSubmission(form, outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(form, outcome).Inc()
}

func (m *SiteMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.liveSessions.Inc()
}

func (m *SiteMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.liveSessions.Dec()
}

func (m *SiteMetrics) ObserveLiveEvent(eventType string) {
	if m == nil {
		return
	}
	m.liveEvents.WithLabelValues(eventType).Inc()
}
