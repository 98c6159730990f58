package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus is the moderation decision state of a finished video.
type ApprovalStatus string

const (
	ApprovalStatusPendingReview ApprovalStatus = "pending_review"
	ApprovalStatusApproved      ApprovalStatus = "approved"
	ApprovalStatusRejected      ApprovalStatus = "rejected"
)

// ChildApprovedVideo is a finished render awaiting (or past) human moderation.
// Created once per completed VideoGenerationJob; the output URL stays
// provisional until the render backend confirms completion.
type ChildApprovedVideo struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	VideoJobID      uuid.UUID      `db:"video_job_id" json:"videoJobId"`
	ChildID         uuid.UUID      `db:"child_id" json:"childId"`
	TemplateType    string         `db:"template_type" json:"templateType"`
	ApprovalStatus  ApprovalStatus `db:"approval_status" json:"approvalStatus"`
	OutputURL       string         `db:"output_url" json:"outputUrl"`
	DurationSeconds int            `db:"duration_seconds" json:"durationSeconds"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// ModerationStatus is the queue state of a moderation entry.
type ModerationStatus string

const (
	ModerationStatusPending  ModerationStatus = "pending"
	ModerationStatusInReview ModerationStatus = "in_review"
	ModerationStatusResolved ModerationStatus = "resolved"
)

// ModerationQueueEntry is one reviewable video in the moderation queue,
// consumed by exactly one moderator at a time.
type ModerationQueueEntry struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	ApprovedVideoID uuid.UUID        `db:"approved_video_id" json:"approvedVideoId"`
	Priority        int              `db:"priority" json:"priority"`
	Status          ModerationStatus `db:"status" json:"status"`
	ClaimedBy       string           `db:"claimed_by" json:"claimedBy,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updatedAt"`
}
