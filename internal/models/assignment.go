package models

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentStatus is the lifecycle status of a ChildVideoAssignment.
// Only "rejected" is terminal for uniqueness purposes: at most one
// non-rejected assignment may exist per (child, template type).
type AssignmentStatus string

const (
	AssignmentStatusAssigned   AssignmentStatus = "assigned"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusApproved   AssignmentStatus = "approved"
	AssignmentStatusRejected   AssignmentStatus = "rejected"
)

// ChildVideoAssignment tracks that a child should receive a video of a given
// template type.
type ChildVideoAssignment struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	ChildID      uuid.UUID        `db:"child_id" json:"childId"`
	TemplateType string           `db:"template_type" json:"templateType"`
	Status       AssignmentStatus `db:"status" json:"status"`
	Priority     int              `db:"priority" json:"priority"`
	DueDate      *time.Time       `db:"due_date" json:"dueDate,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updatedAt"`
}

// MissingVideoReport is one row of the per-child dashboard aggregation.
type MissingVideoReport struct {
	ChildID      uuid.UUID `db:"child_id" json:"childId"`
	ChildName    string    `db:"child_name" json:"childName"`
	TemplateType string    `db:"template_type" json:"templateType"`
	Reason       string    `db:"reason" json:"reason"` // "no_assignment" or "not_approved"
}
