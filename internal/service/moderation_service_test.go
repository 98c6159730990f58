package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storyreel-server/internal/models"
	"storyreel-server/internal/service/mocks"
)

type moderationFixture struct {
	svc       *ModerationService
	queue     *mocks.MockModerationRepository
	videos    *mocks.MockApprovedVideoRepository
	lease     *mocks.MockClaimLease
	publisher *mocks.MockEventPublisher
}

func newModerationFixture(t *testing.T) *moderationFixture {
	t.Helper()
	f := &moderationFixture{
		queue:     new(mocks.MockModerationRepository),
		videos:    new(mocks.MockApprovedVideoRepository),
		lease:     new(mocks.MockClaimLease),
		publisher: new(mocks.MockEventPublisher),
	}
	f.svc = NewModerationService(f.queue, f.videos, f.lease, 10*time.Minute, f.publisher, zap.NewNop())
	return f
}

func queuedEntry() (*models.ModerationQueueEntry, *models.ChildApprovedVideo) {
	video := &models.ChildApprovedVideo{
		ID:             uuid.New(),
		VideoJobID:     uuid.New(),
		ChildID:        uuid.New(),
		TemplateType:   "lullaby",
		ApprovalStatus: models.ApprovalStatusPendingReview,
		OutputURL:      "https://render.local/final/42.mp4",
	}
	entry := &models.ModerationQueueEntry{
		ID:              uuid.New(),
		ApprovedVideoID: video.ID,
		Status:          models.ModerationStatusInReview,
		ClaimedBy:       "mod-1",
	}
	return entry, video
}

func TestClaim_HappyPath(t *testing.T) {
	f := newModerationFixture(t)
	entry, video := queuedEntry()

	f.queue.On("ClaimNext", mock.Anything, "mod-1").Return(entry, nil)
	f.lease.On("Acquire", mock.Anything, entry.ID, "mod-1", 10*time.Minute).Return(true, nil)
	f.videos.On("GetByID", mock.Anything, video.ID).Return(video, nil)

	gotEntry, gotVideo, err := f.svc.Claim(context.Background(), "mod-1")
	require.NoError(t, err)

	assert.Equal(t, entry.ID, gotEntry.ID)
	assert.Equal(t, video.OutputURL, gotVideo.OutputURL)
}

func TestClaim_EmptyQueue(t *testing.T) {
	f := newModerationFixture(t)

	f.queue.On("ClaimNext", mock.Anything, "mod-1").Return(nil, models.ErrQueueEmpty)

	_, _, err := f.svc.Claim(context.Background(), "mod-1")
	assert.ErrorIs(t, err, models.ErrQueueEmpty)
	f.lease.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestClaim_RequiresModeratorID(t *testing.T) {
	f := newModerationFixture(t)

	_, _, err := f.svc.Claim(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	f.queue.AssertNotCalled(t, "ClaimNext", mock.Anything, mock.Anything)
}

func TestClaim_LeaseFailureDoesNotBlockClaim(t *testing.T) {
	f := newModerationFixture(t)
	entry, video := queuedEntry()

	f.queue.On("ClaimNext", mock.Anything, "mod-1").Return(entry, nil)
	f.lease.On("Acquire", mock.Anything, entry.ID, "mod-1", mock.Anything).Return(false, nil)
	f.videos.On("GetByID", mock.Anything, video.ID).Return(video, nil)

	gotEntry, _, err := f.svc.Claim(context.Background(), "mod-1")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, gotEntry.ID)
}

func TestResolve_Approve(t *testing.T) {
	f := newModerationFixture(t)
	entry, _ := queuedEntry()

	f.queue.On("Resolve", mock.Anything, entry.ID, "mod-1").Return(entry, nil)
	f.videos.On("UpdateApproval", mock.Anything, entry.ApprovedVideoID, models.ApprovalStatusApproved).Return(nil)
	f.lease.On("Release", mock.Anything, entry.ID, "mod-1").Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Resolve(context.Background(), entry.ID, "mod-1", true)
	require.NoError(t, err)

	f.videos.AssertCalled(t, "UpdateApproval", mock.Anything, entry.ApprovedVideoID, models.ApprovalStatusApproved)
}

func TestResolve_Reject(t *testing.T) {
	f := newModerationFixture(t)
	entry, _ := queuedEntry()

	f.queue.On("Resolve", mock.Anything, entry.ID, "mod-1").Return(entry, nil)
	f.videos.On("UpdateApproval", mock.Anything, entry.ApprovedVideoID, models.ApprovalStatusRejected).Return(nil)
	f.lease.On("Release", mock.Anything, entry.ID, "mod-1").Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Resolve(context.Background(), entry.ID, "mod-1", false)
	require.NoError(t, err)
}

func TestResolve_NotOwner(t *testing.T) {
	f := newModerationFixture(t)
	entry, _ := queuedEntry()

	f.queue.On("Resolve", mock.Anything, entry.ID, "mod-2").Return(nil, models.ErrNotClaimOwner)

	_, err := f.svc.Resolve(context.Background(), entry.ID, "mod-2", true)
	assert.ErrorIs(t, err, models.ErrNotClaimOwner)
	f.videos.AssertNotCalled(t, "UpdateApproval", mock.Anything, mock.Anything, mock.Anything)
}

func TestRelease_HappyPath(t *testing.T) {
	f := newModerationFixture(t)
	entry, _ := queuedEntry()

	f.queue.On("Release", mock.Anything, entry.ID, "mod-1").Return(nil)
	f.lease.On("Release", mock.Anything, entry.ID, "mod-1").Return(nil)

	err := f.svc.Release(context.Background(), entry.ID, "mod-1")
	require.NoError(t, err)
}

func TestRelease_NotOwner(t *testing.T) {
	f := newModerationFixture(t)
	entry, _ := queuedEntry()

	f.queue.On("Release", mock.Anything, entry.ID, "mod-2").Return(models.ErrNotClaimOwner)

	err := f.svc.Release(context.Background(), entry.ID, "mod-2")
	assert.ErrorIs(t, err, models.ErrNotClaimOwner)
	f.lease.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}
