package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is shared by asset generation jobs and video generation jobs.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusSubmitted JobStatus = "submitted" // video jobs only
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// AssetGenerationJob records one generation attempt for one slot. A retry
// always creates a new job; jobs are never reused.
type AssetGenerationJob struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	ProjectID    uuid.UUID  `db:"project_id" json:"projectId"`
	PromptID     *uuid.UUID `db:"prompt_id" json:"promptId,omitempty"` // nil for library-backed slots
	AssetID      *uuid.UUID `db:"asset_id" json:"assetId,omitempty"`
	SlotKey      string     `db:"slot_key" json:"slotKey"`
	Status       JobStatus  `db:"status" json:"status"`
	ErrorMessage string     `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	FinishedAt   *time.Time `db:"finished_at" json:"finishedAt,omitempty"`
}

// VideoGenerationJob records one render submission for a project. At most one
// job per project may be pending or submitted at a time.
type VideoGenerationJob struct {
	ID               uuid.UUID `db:"id" json:"id"`
	ProjectID        uuid.UUID `db:"project_id" json:"projectId"`
	TemplateType     string    `db:"template_type" json:"templateType"`
	PayloadVersion   int       `db:"payload_version" json:"payloadVersion"`
	SubmittedBy      string    `db:"submitted_by" json:"submittedBy"`
	Status           JobStatus `db:"status" json:"status"`
	ExternalRenderID string    `db:"external_render_id" json:"externalRenderId,omitempty"`
	OutputURL        string    `db:"output_url" json:"outputUrl,omitempty"`
	ErrorMessage     string    `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}
