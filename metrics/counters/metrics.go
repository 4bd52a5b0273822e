package counters

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metersCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pm",
	Name:      "meters_total",
	Help:      "Remote meters changed, by action.",
}, []string{"action", "util_type"})

var readingsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pm",
	Name:      "readings_uploaded_total",
	Help:      "Readings sent to Portfolio Manager.",
}, []string{"util_type"})

var utilityErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pm",
	Name:      "utility_errors_total",
	Help:      "Per utility failures during sync passes.",
}, []string{"direction"})

var uploadsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ingest",
	Name:      "uploads_total",
	Help:      "Utility files uploaded, by outcome.",
}, []string{"util_type", "outcome"})

var jobsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sync",
	Name:      "jobs_total",
	Help:      "Finished import and export jobs, by status.",
}, []string{"kind", "status"})

var runningJobsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "sync",
	Name:      "jobs_running",
	Help:      "Import and export jobs in progress.",
}, []string{"kind"})

var feedClientsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "server",
	Name:      "feed_connections_active",
	Help:      "Number of active job feed ws connections",
})

func CountMeter(action, utilType string) {
	if len(action) == 0 || len(utilType) == 0 {
		return
	}
	metersCounter.With(prometheus.Labels{"action": action, "util_type": utilType}).Inc()
}

func CountReadings(utilType string, count int) {
	if len(utilType) == 0 || count == 0 {
		return
	}
	readingsCounter.With(prometheus.Labels{"util_type": utilType}).Add(float64(count))
}

func CountUtilityError(direction string) {
	if len(direction) == 0 {
		return
	}
	utilityErrors.With(prometheus.Labels{"direction": direction}).Inc()
}

func CountUpload(utilType, outcome string) {
	if len(utilType) == 0 || len(outcome) == 0 {
		return
	}
	uploadsCounter.With(prometheus.Labels{"util_type": utilType, "outcome": outcome}).Inc()
}

func CountJob(kind, status string) {
	if len(kind) == 0 || len(status) == 0 {
		return
	}
	jobsCounter.With(prometheus.Labels{"kind": kind, "status": status}).Inc()
}

func ObserveRunningJobs(kind string, count int) {
	if len(kind) == 0 {
		return
	}
	runningJobsGauge.With(prometheus.Labels{"kind": kind}).Set(float64(count))
}

func ObserveFeedClients(count int) {
	feedClientsGauge.Set(float64(count))
}
