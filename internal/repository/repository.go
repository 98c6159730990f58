// Package repository defines the persistence interfaces of the pipeline and
// their PostgreSQL implementations. The database is the sole source of truth
// and the sole coordination point: uniqueness and in-flight invariants are
// enforced here with constraints and conditional writes, not in callers.
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"storyreel-server/internal/models"
)

// ProjectRepository persists StoryProjects.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.StoryProject) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.StoryProject, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProjectStatus) error
	// UpdateVariables replaces the project's story variables (replanning).
	UpdateVariables(ctx context.Context, id uuid.UUID, variables map[string]string) error
	// CASStatus transitions the project status only when it currently equals
	// from; reports whether this call performed the transition.
	CASStatus(ctx context.Context, id uuid.UUID, from, to models.ProjectStatus) (bool, error)
}

// ChildRepository reads child reference rows (populated by the surrounding app).
type ChildRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Child, error)
}

// PromptRepository is the append-only prompt store.
type PromptRepository interface {
	Save(ctx context.Context, prompt *models.Prompt) error
	// Latest returns the most recently created prompt for a slot, resolving
	// ties by creation time descending then id.
	Latest(ctx context.Context, projectID uuid.UUID, slotKey string) (*models.Prompt, error)
}

// AssetRepository persists generated assets.
type AssetRepository interface {
	Create(ctx context.Context, asset *models.Asset) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	// MarkPendingReview moves a generating asset to pending_review with its
	// storage URL and provider metadata. Returns ErrInvalidTransition if the
	// asset is not generating.
	MarkPendingReview(ctx context.Context, id uuid.UUID, storageURL string, providerMeta json.RawMessage) error
	// Approve moves a pending_review asset to approved, rewriting cosmetic
	// metadata atomically with the status change.
	Approve(ctx context.Context, id uuid.UUID, meta models.ReviewMetadata) error
	// RejectFrom moves an asset to rejected from the given starting status.
	RejectFrom(ctx context.Context, id uuid.UUID, from models.AssetStatus) error
	// LatestPerSlot returns the most recent non-rejected asset for every slot
	// of the project that has one.
	LatestPerSlot(ctx context.Context, projectID uuid.UUID) (map[string]*models.Asset, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Asset, error)
}

// GenerationJobRepository records asset generation attempts.
type GenerationJobRepository interface {
	Create(ctx context.Context, job *models.AssetGenerationJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AssetGenerationJob, error)
	MarkCompleted(ctx context.Context, id, assetID uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
}

// VideoJobRepository records render submissions. Create surfaces
// models.ErrAlreadyInFlight when another pending/submitted job exists for the
// project (partial unique index).
type VideoJobRepository interface {
	Create(ctx context.Context, job *models.VideoGenerationJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.VideoGenerationJob, error)
	MarkSubmitted(ctx context.Context, id uuid.UUID, externalRenderID, provisionalURL string) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
	// CompleteFromSubmitted performs the idempotent terminal transition
	// submitted -> completed; reports whether this call won the transition.
	CompleteFromSubmitted(ctx context.Context, id uuid.UUID, outputURL string) (bool, error)
	// FailFromSubmitted performs submitted -> failed; reports whether this
	// call won the transition.
	FailFromSubmitted(ctx context.Context, id uuid.UUID, errorMessage string) (bool, error)
}

// ApprovedVideoRepository persists finished renders awaiting moderation.
// video_job_id is unique, so Create is idempotent per render job: inserting
// for a job that already has a video loads the existing row instead.
type ApprovedVideoRepository interface {
	Create(ctx context.Context, video *models.ChildApprovedVideo) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ChildApprovedVideo, error)
	// GetByJobID returns the video produced by a render job, or
	// models.ErrNotFound when the job has none yet.
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.ChildApprovedVideo, error)
	UpdateApproval(ctx context.Context, id uuid.UUID, status models.ApprovalStatus) error
}

// ModerationRepository is the durable moderation queue.
type ModerationRepository interface {
	Enqueue(ctx context.Context, entry *models.ModerationQueueEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ModerationQueueEntry, error)
	// ClaimNext atomically assigns the highest-priority pending entry to the
	// moderator. Returns models.ErrQueueEmpty when nothing is pending.
	ClaimNext(ctx context.Context, moderatorID string) (*models.ModerationQueueEntry, error)
	// Release returns a claimed entry to pending; owner-checked.
	Release(ctx context.Context, id uuid.UUID, moderatorID string) error
	// Resolve terminates a claimed entry; owner-checked.
	Resolve(ctx context.Context, id uuid.UUID, moderatorID string) (*models.ModerationQueueEntry, error)
}

// AssignmentRepository tracks per-child template assignments. Create surfaces
// models.ErrAlreadyAssigned on the active-assignment uniqueness constraint.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.ChildVideoAssignment) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.AssignmentStatus) error
	// MissingFor reports, per child, whether the given template type has no
	// active assignment or no approved video yet.
	MissingFor(ctx context.Context, templateType string) ([]models.MissingVideoReport, error)
}

// LibraryAssetRepository reads the pre-approved reusable asset library.
type LibraryAssetRepository interface {
	GetByRef(ctx context.Context, ref string) (*models.LibraryAsset, error)
}

// ClaimLease is the short-lived exclusivity token backing moderation claims.
type ClaimLease interface {
	// Acquire takes the lease for an entry; reports false when someone else
	// holds it.
	Acquire(ctx context.Context, entryID uuid.UUID, moderatorID string, ttl time.Duration) (bool, error)
	// Release drops the lease if held by the moderator.
	Release(ctx context.Context, entryID uuid.UUID, moderatorID string) error
}
