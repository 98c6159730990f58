package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AssetStatus is the lifecycle status of an Asset. Transitions are monotonic
// along the chain generating -> pending_review -> approved|rejected; a
// regeneration always creates a new Asset row instead of moving one back.
type AssetStatus string

const (
	AssetStatusMissing       AssetStatus = "missing" // computed, never stored
	AssetStatusGenerating    AssetStatus = "generating"
	AssetStatusPendingReview AssetStatus = "pending_review"
	AssetStatusApproved      AssetStatus = "approved"
	AssetStatusRejected      AssetStatus = "rejected"
)

// Asset is one durable generated media item bound to a project slot.
type Asset struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	ProjectID    uuid.UUID       `db:"project_id" json:"projectId"`
	SlotKey      string          `db:"slot_key" json:"slotKey"`
	Kind         AssetKind       `db:"kind" json:"kind"`
	Status       AssetStatus     `db:"status" json:"status"`
	StorageURL   string          `db:"storage_url" json:"storageUrl"`
	SafeZone     string          `db:"safe_zone" json:"safeZone"`
	Title        string          `db:"title" json:"title"`
	Tags         []string        `db:"tags" json:"tags"`
	ProviderMeta json.RawMessage `db:"provider_meta" json:"providerMeta,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// ReviewMetadata carries the cosmetic fields a reviewer may rewrite together
// with the approval itself.
type ReviewMetadata struct {
	Title    string   `json:"title,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	SafeZone string   `json:"safeZone,omitempty"`
}

// LibraryAsset is a pre-approved reusable media item (e.g. shared background
// music) referenced by template manifests instead of a generated prompt.
type LibraryAsset struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Ref        string    `db:"ref" json:"ref"`
	Kind       AssetKind `db:"kind" json:"kind"`
	StorageURL string    `db:"storage_url" json:"storageUrl"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
