package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsRestored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_sessions_restored_total",
			Help: "Total number of sessions restored from saved progress",
		},
		[]string{"outcome"},
	)

	AutosaveWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboarding_autosave_writes_total",
			Help: "Total number of debounced progress snapshots persisted",
		},
	)

	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_step_transitions_total",
			Help: "Total number of wizard step transitions",
		},
		[]string{"direction"},
	)

	UploadsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_uploads_processed_total",
			Help: "Total number of document uploads processed",
		},
		[]string{"field", "outcome"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_submissions_total",
			Help: "Total number of submission attempts by outcome",
		},
		[]string{"outcome"},
	)

	SubmissionStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "onboarding_submission_stage_duration_seconds",
			Help: "Duration of each submission saga stage in seconds",
		},
		[]string{"stage"},
	)
)
