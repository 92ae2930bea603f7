package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	stageDuration  *prom.HistogramVec
	runDuration    prom.Histogram
	stageResults   *prom.CounterVec
	runOutcome     *prom.CounterVec
	unitsScanned   prom.Gauge
	routesBuilt    prom.Gauge
	issuesFound    prom.Gauge
	filesPublished prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitepress",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual run stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitepress",
			Name:      "run_duration_seconds",
			Help:      "Total publishing run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitepress",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitepress",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"})
		pr.unitsScanned = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitepress",
			Name:      "units_scanned",
			Help:      "Content units discovered by the last run",
		})
		pr.routesBuilt = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitepress",
			Name:      "routes_built",
			Help:      "Routes in the table of the last run",
		})
		pr.issuesFound = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitepress",
			Name:      "validation_issues",
			Help:      "Validation issues found by the last run",
		})
		pr.filesPublished = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitepress",
			Name:      "files_published",
			Help:      "Files written by the last publish",
		})
		reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome,
			pr.unitsScanned, pr.routesBuilt, pr.issuesFound, pr.filesPublished)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetUnitsScanned(n int) {
	if p == nil || p.unitsScanned == nil {
		return
	}
	p.unitsScanned.Set(float64(n))
}

func (p *PrometheusRecorder) SetRoutesBuilt(n int) {
	if p == nil || p.routesBuilt == nil {
		return
	}
	p.routesBuilt.Set(float64(n))
}

func (p *PrometheusRecorder) SetIssuesFound(n int) {
	if p == nil || p.issuesFound == nil {
		return
	}
	p.issuesFound.Set(float64(n))
}

func (p *PrometheusRecorder) SetFilesPublished(n int) {
	if p == nil || p.filesPublished == nil {
		return
	}
	p.filesPublished.Set(float64(n))
}
