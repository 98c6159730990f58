package models

import (
	"time"

	"github.com/google/uuid"
)

// AssetKind distinguishes what a prompt or asset produces.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindAudio AssetKind = "audio"
	AssetKindVideo AssetKind = "video"
)

// PromptStatus is the lifecycle status of a Prompt.
type PromptStatus string

const (
	PromptStatusPending   PromptStatus = "pending"
	PromptStatusCompleted PromptStatus = "completed"
)

// Prompt is one generated prompt for one slot. Regeneration appends a new row;
// the newest row for a slot wins.
type Prompt struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	ProjectID     uuid.UUID    `db:"project_id" json:"projectId"`
	SlotKey       string       `db:"slot_key" json:"slotKey"`
	AssetKind     AssetKind    `db:"asset_kind" json:"assetKind"`
	PromptText    string       `db:"prompt_text" json:"promptText"`
	NarrationText string       `db:"narration_text" json:"narrationText"`
	SafeZone      string       `db:"safe_zone" json:"safeZone"`
	Status        PromptStatus `db:"status" json:"status"`
	CreatedAt     time.Time    `db:"created_at" json:"createdAt"`
}
