package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyreel-server/internal/messaging"
	"storyreel-server/internal/models"
	"storyreel-server/internal/repository"
)

// ModerationService hands queued videos to moderators one at a time and
// applies their decisions. The database row is the authority on who holds an
// entry; the Redis lease only bounds how long a silent claim stays exclusive.
type ModerationService struct {
	queue     repository.ModerationRepository
	videos    repository.ApprovedVideoRepository
	lease     repository.ClaimLease
	leaseTTL  time.Duration
	publisher messaging.EventPublisher
	logger    *zap.Logger
}

func NewModerationService(
	queue repository.ModerationRepository,
	videos repository.ApprovedVideoRepository,
	lease repository.ClaimLease,
	leaseTTL time.Duration,
	publisher messaging.EventPublisher,
	logger *zap.Logger,
) *ModerationService {
	return &ModerationService{
		queue:     queue,
		videos:    videos,
		lease:     lease,
		leaseTTL:  leaseTTL,
		publisher: publisher,
		logger:    logger.Named("ModerationService"),
	}
}

// Claim assigns the highest-priority pending entry to the moderator. Two
// concurrent claims never receive the same entry. Returns the entry together
// with the video under review.
func (s *ModerationService) Claim(ctx context.Context, moderatorID string) (*models.ModerationQueueEntry, *models.ChildApprovedVideo, error) {
	if moderatorID == "" {
		return nil, nil, fmt.Errorf("%w: moderator id is required", models.ErrInvalidInput)
	}

	entry, err := s.queue.ClaimNext(ctx, moderatorID)
	if err != nil {
		return nil, nil, err
	}

	if ok, leaseErr := s.lease.Acquire(ctx, entry.ID, moderatorID, s.leaseTTL); leaseErr != nil {
		s.logger.Warn("Failed to acquire claim lease", zap.String("entryID", entry.ID.String()), zap.Error(leaseErr))
	} else if !ok {
		// The DB claim already succeeded, so a held lease is stale state
		// from a previous holder; it expires on its own.
		s.logger.Warn("Claim lease already held", zap.String("entryID", entry.ID.String()))
	}

	video, err := s.videos.GetByID(ctx, entry.ApprovedVideoID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Moderation entry claimed",
		zap.String("entryID", entry.ID.String()),
		zap.String("moderatorID", moderatorID))
	return entry, video, nil
}

// Resolve applies the moderator's decision to the claimed entry and its video.
// Only the claiming moderator may resolve.
func (s *ModerationService) Resolve(ctx context.Context, entryID uuid.UUID, moderatorID string, approve bool) (*models.ModerationQueueEntry, error) {
	entry, err := s.queue.Resolve(ctx, entryID, moderatorID)
	if err != nil {
		return nil, err
	}

	decision := models.ApprovalStatusRejected
	if approve {
		decision = models.ApprovalStatusApproved
	}
	if err := s.videos.UpdateApproval(ctx, entry.ApprovedVideoID, decision); err != nil {
		return nil, err
	}

	if err := s.lease.Release(ctx, entryID, moderatorID); err != nil {
		s.logger.Warn("Failed to release claim lease", zap.String("entryID", entryID.String()), zap.Error(err))
	}

	moderationResolved.WithLabelValues(string(decision)).Inc()
	if err := s.publisher.Publish(ctx, messaging.PipelineEvent{
		Type:     messaging.EventVideoModerated,
		EntityID: entry.ApprovedVideoID.String(),
		Decision: string(decision),
	}); err != nil {
		s.logger.Warn("Failed to publish moderation event", zap.Error(err))
	}

	s.logger.Info("Moderation entry resolved",
		zap.String("entryID", entryID.String()),
		zap.String("moderatorID", moderatorID),
		zap.String("decision", string(decision)))
	return entry, nil
}

// Release hands a claimed entry back to the queue without a decision.
func (s *ModerationService) Release(ctx context.Context, entryID uuid.UUID, moderatorID string) error {
	if err := s.queue.Release(ctx, entryID, moderatorID); err != nil {
		return err
	}
	if err := s.lease.Release(ctx, entryID, moderatorID); err != nil {
		s.logger.Warn("Failed to release claim lease", zap.String("entryID", entryID.String()), zap.Error(err))
	}
	s.logger.Info("Moderation entry released",
		zap.String("entryID", entryID.String()),
		zap.String("moderatorID", moderatorID))
	return nil
}
