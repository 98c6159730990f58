package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	assetsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_assets_generated_total",
			Help: "Total number of asset generation attempts.",
		},
		[]string{"kind", "status"}, // status: "success", "error_provider", "error_store"
	)
	generationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_asset_generation_duration_seconds",
		Help:    "Duration of one asset generation attempt.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
	rendersSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_renders_submitted_total",
			Help: "Total number of render submissions.",
		},
		[]string{"status"}, // "accepted", "rejected"
	)
	renderCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_render_callbacks_total",
			Help: "Total number of render completion callbacks processed.",
		},
		[]string{"status"}, // "completed", "failed", "duplicate"
	)
	moderationResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_moderation_resolved_total",
			Help: "Total number of resolved moderation entries.",
		},
		[]string{"decision"},
	)
)
