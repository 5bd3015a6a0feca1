package simulation

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/df07/go-uv-exposure/pkg/integrator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	stageLabel   = "stage"
	reasonLabel  = "reason"
	errTypeLabel = "error_type"
)

var (
	runs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uvsim_runs",
		Help: "The number of simulation runs started.",
	})

	runErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uvsim_run_errors",
		Help: "The errors that ended or degraded a simulation run.",
	}, []string{
		errTypeLabel,
	})

	stageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "uvsim_stage_latency",
		Help: "The time spent in each simulation stage.",
	}, []string{
		stageLabel,
	})

	samplePoints = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uvsim_sample_points",
		Help: "The number of measurement points evaluated.",
	})

	photonsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uvsim_photons_emitted",
		Help: "The number of photons emitted from lights.",
	})

	photonTerminations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uvsim_photon_terminations",
		Help: "The number of photon paths ended, by reason.",
	}, []string{
		reasonLabel,
	})
)

func instrumentStage(stage string, start time.Time) {
	stageLatency.With(prometheus.Labels{
		stageLabel: stage,
	}).Observe(time.Since(start).Seconds())
}

func instrumentRunError(err error) {
	runErrors.With(prometheus.Labels{
		errTypeLabel: errors.Type(err),
	}).Inc()
}

func instrumentPhotons(stats integrator.PhotonStats) {
	photonsEmitted.Add(float64(stats.Emitted))
	for reason, n := range map[string]int{
		"escaped":               stats.Escaped,
		"max_bounces":           stats.MaxBounces,
		"energy_roulette":       stats.EnergyRoulette,
		"reflectivity_roulette": stats.ReflectivityRoulette,
		"absorbed":              stats.Absorbed,
	} {
		photonTerminations.With(prometheus.Labels{
			reasonLabel: reason,
		}).Add(float64(n))
	}
}
