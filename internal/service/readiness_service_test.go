package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storyreel-server/internal/models"
	"storyreel-server/internal/planner"
	"storyreel-server/internal/service/mocks"
)

func approvedAssets(projectID uuid.UUID, template string) map[string]*models.Asset {
	keys, _ := planner.RequiredSlotKeys(template)
	out := make(map[string]*models.Asset, len(keys))
	for _, key := range keys {
		out[key] = &models.Asset{
			ID:         uuid.New(),
			ProjectID:  projectID,
			SlotKey:    key,
			Status:     models.AssetStatusApproved,
			StorageURL: "https://media.local/" + key + ".bin",
		}
	}
	return out
}

func newReadinessFixture(t *testing.T) (*ReadinessService, *mocks.MockProjectRepository, *mocks.MockAssetRepository) {
	t.Helper()
	projects := new(mocks.MockProjectRepository)
	assets := new(mocks.MockAssetRepository)
	return NewReadinessService(projects, assets, zap.NewNop()), projects, assets
}

func TestReadiness_AllApproved(t *testing.T) {
	svc, projects, assets := newReadinessFixture(t)
	projectID := uuid.New()

	projects.On("GetByID", mock.Anything, projectID).Return(lullabyProject(projectID), nil)
	assets.On("LatestPerSlot", mock.Anything, projectID).Return(approvedAssets(projectID, planner.TemplateLullaby), nil)

	ready, err := svc.Check(context.Background(), projectID)
	require.NoError(t, err)

	assert.True(t, ready.Ready)
	assert.Empty(t, ready.MissingSlots)
}

func TestReadiness_SlotNeverGenerated(t *testing.T) {
	svc, projects, assets := newReadinessFixture(t)
	projectID := uuid.New()

	latest := approvedAssets(projectID, planner.TemplateLullaby)
	delete(latest, "page3_image")

	projects.On("GetByID", mock.Anything, projectID).Return(lullabyProject(projectID), nil)
	assets.On("LatestPerSlot", mock.Anything, projectID).Return(latest, nil)

	ready, err := svc.Check(context.Background(), projectID)
	require.NoError(t, err)

	assert.False(t, ready.Ready)
	assert.Equal(t, []string{"page3_image"}, ready.MissingSlots)
}

func TestReadiness_PendingReviewBlocks(t *testing.T) {
	svc, projects, assets := newReadinessFixture(t)
	projectID := uuid.New()

	latest := approvedAssets(projectID, planner.TemplateLullaby)
	latest["page1_audio"].Status = models.AssetStatusPendingReview

	projects.On("GetByID", mock.Anything, projectID).Return(lullabyProject(projectID), nil)
	assets.On("LatestPerSlot", mock.Anything, projectID).Return(latest, nil)

	ready, err := svc.Check(context.Background(), projectID)
	require.NoError(t, err)

	assert.False(t, ready.Ready)
	assert.Contains(t, ready.MissingSlots, "page1_audio")
}

func TestReadiness_ApprovedWithoutURLBlocks(t *testing.T) {
	svc, projects, assets := newReadinessFixture(t)
	projectID := uuid.New()

	latest := approvedAssets(projectID, planner.TemplateLullaby)
	latest["page2_image"].StorageURL = ""

	projects.On("GetByID", mock.Anything, projectID).Return(lullabyProject(projectID), nil)
	assets.On("LatestPerSlot", mock.Anything, projectID).Return(latest, nil)

	ready, err := svc.Check(context.Background(), projectID)
	require.NoError(t, err)

	assert.False(t, ready.Ready)
	assert.Equal(t, []string{"page2_image"}, ready.MissingSlots)
}

func TestReadiness_MissingSlotsInManifestOrder(t *testing.T) {
	svc, projects, assets := newReadinessFixture(t)
	projectID := uuid.New()

	latest := approvedAssets(projectID, planner.TemplateLullaby)
	delete(latest, "page3_audio")
	delete(latest, "page1_image")

	projects.On("GetByID", mock.Anything, projectID).Return(lullabyProject(projectID), nil)
	assets.On("LatestPerSlot", mock.Anything, projectID).Return(latest, nil)

	ready, err := svc.Check(context.Background(), projectID)
	require.NoError(t, err)

	assert.Equal(t, []string{"page1_image", "page3_audio"}, ready.MissingSlots)
}
