package randomize

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// attemptsTotal counts item attempts and start rejections by outcome
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rando_attempts_total",
		Help: "Randomization attempts by result",
	}, []string{"result"})

	// attemptSteps tracks how many steps an attempt ran before it finished or got stuck
	attemptSteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rando_attempt_steps",
		Help:    "Number of placement steps per attempt",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200},
	})

	// traversalDuration tracks one forward plus reverse traversal pair
	traversalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rando_traversal_duration_seconds",
		Help:    "Duration of a forward and reverse traversal pair in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16), // 10us to ~330ms
	})

	// generateDuration tracks whole seed generations by result
	generateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rando_generate_duration_seconds",
		Help:    "Duration of seed generation in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
	}, []string{"result"})
)

const (
	resultSuccess       = "success"
	resultStuck         = "stuck"
	resultStartRejected = "start_rejected"
	resultMalformed     = "malformed"
	resultExhausted     = "exhausted"
	resultCanceled      = "canceled"
)
