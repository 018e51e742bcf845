package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	jobCompleted = "completed"
	jobFailed    = "failed"
	jobRequeued  = "requeued"
)

// jobsTotal counts seed jobs by how they ended.
var jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rando_worker_jobs_total",
	Help: "Seed jobs handled by workers, by outcome.",
}, []string{"outcome"})
