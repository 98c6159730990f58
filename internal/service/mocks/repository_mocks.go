// Package mocks contains hand-written testify mocks for the service layer's
// dependencies.
package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"storyreel-server/internal/models"
	"storyreel-server/internal/repository"
)

// MockProjectRepository is a mock type for the ProjectRepository type
type MockProjectRepository struct {
	mock.Mock
}

func (_m *MockProjectRepository) Create(ctx context.Context, project *models.StoryProject) error {
	ret := _m.Called(ctx, project)
	return ret.Error(0)
}

func (_m *MockProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StoryProject, error) {
	ret := _m.Called(ctx, id)
	var r0 *models.StoryProject
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.StoryProject)
	}
	return r0, ret.Error(1)
}

func (_m *MockProjectRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProjectStatus) error {
	ret := _m.Called(ctx, id, status)
	return ret.Error(0)
}

func (_m *MockProjectRepository) UpdateVariables(ctx context.Context, id uuid.UUID, variables map[string]string) error {
	ret := _m.Called(ctx, id, variables)
	return ret.Error(0)
}

func (_m *MockProjectRepository) CASStatus(ctx context.Context, id uuid.UUID, from, to models.ProjectStatus) (bool, error) {
	ret := _m.Called(ctx, id, from, to)
	return ret.Bool(0), ret.Error(1)
}

var _ repository.ProjectRepository = (*MockProjectRepository)(nil)

// MockChildRepository is a mock type for the ChildRepository type
type MockChildRepository struct {
	mock.Mock
}

func (_m *MockChildRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Child, error) {
	ret := _m.Called(ctx, id)
	var r0 *models.Child
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Child)
	}
	return r0, ret.Error(1)
}

var _ repository.ChildRepository = (*MockChildRepository)(nil)

// MockPromptRepository is a mock type for the PromptRepository type
type MockPromptRepository struct {
	mock.Mock
}

func (_m *MockPromptRepository) Save(ctx context.Context, prompt *models.Prompt) error {
	ret := _m.Called(ctx, prompt)
	return ret.Error(0)
}

func (_m *MockPromptRepository) Latest(ctx context.Context, projectID uuid.UUID, slotKey string) (*models.Prompt, error) {
	ret := _m.Called(ctx, projectID, slotKey)
	var r0 *models.Prompt
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Prompt)
	}
	return r0, ret.Error(1)
}

var _ repository.PromptRepository = (*MockPromptRepository)(nil)

// MockAssetRepository is a mock type for the AssetRepository type
type MockAssetRepository struct {
	mock.Mock
}

func (_m *MockAssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	ret := _m.Called(ctx, asset)
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	return ret.Error(0)
}

func (_m *MockAssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	ret := _m.Called(ctx, id)
	var r0 *models.Asset
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Asset)
	}
	return r0, ret.Error(1)
}

func (_m *MockAssetRepository) MarkPendingReview(ctx context.Context, id uuid.UUID, storageURL string, providerMeta json.RawMessage) error {
	ret := _m.Called(ctx, id, storageURL, providerMeta)
	return ret.Error(0)
}

func (_m *MockAssetRepository) Approve(ctx context.Context, id uuid.UUID, meta models.ReviewMetadata) error {
	ret := _m.Called(ctx, id, meta)
	return ret.Error(0)
}

func (_m *MockAssetRepository) RejectFrom(ctx context.Context, id uuid.UUID, from models.AssetStatus) error {
	ret := _m.Called(ctx, id, from)
	return ret.Error(0)
}

func (_m *MockAssetRepository) LatestPerSlot(ctx context.Context, projectID uuid.UUID) (map[string]*models.Asset, error) {
	ret := _m.Called(ctx, projectID)
	var r0 map[string]*models.Asset
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[string]*models.Asset)
	}
	return r0, ret.Error(1)
}

func (_m *MockAssetRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Asset, error) {
	ret := _m.Called(ctx, projectID)
	var r0 []*models.Asset
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.Asset)
	}
	return r0, ret.Error(1)
}

var _ repository.AssetRepository = (*MockAssetRepository)(nil)

// MockGenerationJobRepository is a mock type for the GenerationJobRepository type
type MockGenerationJobRepository struct {
	mock.Mock
}

func (_m *MockGenerationJobRepository) Create(ctx context.Context, job *models.AssetGenerationJob) error {
	ret := _m.Called(ctx, job)
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	return ret.Error(0)
}

func (_m *MockGenerationJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AssetGenerationJob, error) {
	ret := _m.Called(ctx, id)
	var r0 *models.AssetGenerationJob
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.AssetGenerationJob)
	}
	return r0, ret.Error(1)
}

func (_m *MockGenerationJobRepository) MarkCompleted(ctx context.Context, id, assetID uuid.UUID) error {
	ret := _m.Called(ctx, id, assetID)
	return ret.Error(0)
}

func (_m *MockGenerationJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	ret := _m.Called(ctx, id, errorMessage)
	return ret.Error(0)
}

var _ repository.GenerationJobRepository = (*MockGenerationJobRepository)(nil)

// MockVideoJobRepository is a mock type for the VideoJobRepository type
type MockVideoJobRepository struct {
	mock.Mock
}

func (_m *MockVideoJobRepository) Create(ctx context.Context, job *models.VideoGenerationJob) error {
	ret := _m.Called(ctx, job)
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	return ret.Error(0)
}

func (_m *MockVideoJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.VideoGenerationJob, error) {
	ret := _m.Called(ctx, id)
	var r0 *models.VideoGenerationJob
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.VideoGenerationJob)
	}
	return r0, ret.Error(1)
}

func (_m *MockVideoJobRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, externalRenderID, provisionalURL string) error {
	ret := _m.Called(ctx, id, externalRenderID, provisionalURL)
	return ret.Error(0)
}

func (_m *MockVideoJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	ret := _m.Called(ctx, id, errorMessage)
	return ret.Error(0)
}

func (_m *MockVideoJobRepository) CompleteFromSubmitted(ctx context.Context, id uuid.UUID, outputURL string) (bool, error) {
	ret := _m.Called(ctx, id, outputURL)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockVideoJobRepository) FailFromSubmitted(ctx context.Context, id uuid.UUID, errorMessage string) (bool, error) {
	ret := _m.Called(ctx, id, errorMessage)
	return ret.Bool(0), ret.Error(1)
}

var _ repository.VideoJobRepository = (*MockVideoJobRepository)(nil)

// MockApprovedVideoRepository is a mock type for the ApprovedVideoRepository type
type MockApprovedVideoRepository struct {
	mock.Mock
}

func (_m *MockApprovedVideoRepository) Create(ctx context.Context, video *models.ChildApprovedVideo) error {
	ret := _m.Called(ctx, video)
	if video.ID == uuid.Nil {
		video.ID = uuid.New()
	}
	return ret.Error(0)
}

func (_m *MockApprovedVideoRepository) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.ChildApprovedVideo, error) {
	ret := _m.Called(ctx, jobID)
	var r0 *models.ChildApprovedVideo
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.ChildApprovedVideo)
	}
	return r0, ret.Error(1)
}

func (_m *MockApprovedVideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ChildApprovedVideo, error) {
	ret := _m.Called(ctx, id)
	var r0 *models.ChildApprovedVideo
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.ChildApprovedVideo)
	}
	return r0, ret.Error(1)
}

func (_m *MockApprovedVideoRepository) UpdateApproval(ctx context.Context, id uuid.UUID, status models.ApprovalStatus) error {
	ret := _m.Called(ctx, id, status)
	return ret.Error(0)
}

var _ repository.ApprovedVideoRepository = (*MockApprovedVideoRepository)(nil)

// MockModerationRepository is a mock type for the ModerationRepository type
type MockModerationRepository struct {
	mock.Mock
}

func (_m *MockModerationRepository) Enqueue(ctx context.Context, entry *models.ModerationQueueEntry) error {
	ret := _m.Called(ctx, entry)
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return ret.Error(0)
}

func (_m *MockModerationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ModerationQueueEntry, error) {
	ret := _m.Called(ctx, id)
	var r0 *models.ModerationQueueEntry
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.ModerationQueueEntry)
	}
	return r0, ret.Error(1)
}

func (_m *MockModerationRepository) ClaimNext(ctx context.Context, moderatorID string) (*models.ModerationQueueEntry, error) {
	ret := _m.Called(ctx, moderatorID)
	var r0 *models.ModerationQueueEntry
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.ModerationQueueEntry)
	}
	return r0, ret.Error(1)
}

func (_m *MockModerationRepository) Release(ctx context.Context, id uuid.UUID, moderatorID string) error {
	ret := _m.Called(ctx, id, moderatorID)
	return ret.Error(0)
}

func (_m *MockModerationRepository) Resolve(ctx context.Context, id uuid.UUID, moderatorID string) (*models.ModerationQueueEntry, error) {
	ret := _m.Called(ctx, id, moderatorID)
	var r0 *models.ModerationQueueEntry
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.ModerationQueueEntry)
	}
	return r0, ret.Error(1)
}

var _ repository.ModerationRepository = (*MockModerationRepository)(nil)

// MockAssignmentRepository is a mock type for the AssignmentRepository type
type MockAssignmentRepository struct {
	mock.Mock
}

func (_m *MockAssignmentRepository) Create(ctx context.Context, assignment *models.ChildVideoAssignment) error {
	ret := _m.Called(ctx, assignment)
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	return ret.Error(0)
}

func (_m *MockAssignmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AssignmentStatus) error {
	ret := _m.Called(ctx, id, status)
	return ret.Error(0)
}

func (_m *MockAssignmentRepository) MissingFor(ctx context.Context, templateType string) ([]models.MissingVideoReport, error) {
	ret := _m.Called(ctx, templateType)
	var r0 []models.MissingVideoReport
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.MissingVideoReport)
	}
	return r0, ret.Error(1)
}

var _ repository.AssignmentRepository = (*MockAssignmentRepository)(nil)

// MockLibraryAssetRepository is a mock type for the LibraryAssetRepository type
type MockLibraryAssetRepository struct {
	mock.Mock
}

func (_m *MockLibraryAssetRepository) GetByRef(ctx context.Context, ref string) (*models.LibraryAsset, error) {
	ret := _m.Called(ctx, ref)
	var r0 *models.LibraryAsset
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.LibraryAsset)
	}
	return r0, ret.Error(1)
}

var _ repository.LibraryAssetRepository = (*MockLibraryAssetRepository)(nil)

// MockClaimLease is a mock type for the ClaimLease type
type MockClaimLease struct {
	mock.Mock
}

func (_m *MockClaimLease) Acquire(ctx context.Context, entryID uuid.UUID, moderatorID string, ttl time.Duration) (bool, error) {
	ret := _m.Called(ctx, entryID, moderatorID, ttl)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockClaimLease) Release(ctx context.Context, entryID uuid.UUID, moderatorID string) error {
	ret := _m.Called(ctx, entryID, moderatorID)
	return ret.Error(0)
}

var _ repository.ClaimLease = (*MockClaimLease)(nil)
