package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the overall lifecycle status of a StoryProject.
type ProjectStatus string

const (
	ProjectStatusDrafting      ProjectStatus = "drafting"
	ProjectStatusPromptsReady  ProjectStatus = "prompts_ready"
	ProjectStatusGenerating    ProjectStatus = "generating"
	ProjectStatusReadyToRender ProjectStatus = "ready_to_render"
	ProjectStatusRendering     ProjectStatus = "rendering"
	ProjectStatusCompleted     ProjectStatus = "completed"
	ProjectStatusFailed        ProjectStatus = "failed"
)

// StoryProject is the root entity of one personalized story. It owns its
// prompts, assets and render job until completion.
type StoryProject struct {
	ID           uuid.UUID         `db:"id" json:"id"`
	ChildID      uuid.UUID         `db:"child_id" json:"childId"`
	TemplateType string            `db:"template_type" json:"templateType"`
	Variables    map[string]string `db:"variables" json:"variables"`
	Status       ProjectStatus     `db:"status" json:"status"`
	CreatedAt    time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updatedAt"`
}

// Child is a minimal reference row; child CRUD lives in the surrounding app.
type Child struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
