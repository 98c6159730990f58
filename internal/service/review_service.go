package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyreel-server/internal/messaging"
	"storyreel-server/internal/models"
	"storyreel-server/internal/repository"
)

// ReviewService is the per-asset approval gate. Decisions apply only to
// assets in pending_review; everything else is an invalid transition.
type ReviewService struct {
	projects  repository.ProjectRepository
	assets    repository.AssetRepository
	readiness *ReadinessService
	publisher messaging.EventPublisher
	logger    *zap.Logger
}

func NewReviewService(
	projects repository.ProjectRepository,
	assets repository.AssetRepository,
	readiness *ReadinessService,
	publisher messaging.EventPublisher,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		projects:  projects,
		assets:    assets,
		readiness: readiness,
		publisher: publisher,
		logger:    logger.Named("ReviewService"),
	}
}

// Approve accepts a pending_review asset, atomically rewriting its cosmetic
// metadata with the status change. When the approval completes the project's
// asset set, the project advances to ready_to_render.
func (s *ReviewService) Approve(ctx context.Context, assetID uuid.UUID, meta models.ReviewMetadata) (*models.Asset, error) {
	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.Status != models.AssetStatusPendingReview {
		return nil, fmt.Errorf("%w: asset is %s, not pending_review", models.ErrInvalidTransition, asset.Status)
	}
	if asset.StorageURL == "" {
		return nil, models.ErrAssetMissingURL
	}

	if err := s.assets.Approve(ctx, assetID, meta); err != nil {
		return nil, err
	}
	asset, err = s.assets.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}

	s.publishDecision(ctx, asset, "approved")

	ready, err := s.readiness.Check(ctx, asset.ProjectID)
	if err != nil {
		s.logger.Warn("Failed to re-check readiness after approval",
			zap.String("projectID", asset.ProjectID.String()), zap.Error(err))
		return asset, nil
	}
	if ready.Ready {
		if _, err := s.projects.CASStatus(ctx, asset.ProjectID, models.ProjectStatusGenerating, models.ProjectStatusReadyToRender); err != nil {
			s.logger.Warn("Failed to advance project to ready_to_render",
				zap.String("projectID", asset.ProjectID.String()), zap.Error(err))
		}
	}

	s.logger.Info("Asset approved",
		zap.String("assetID", assetID.String()),
		zap.String("projectID", asset.ProjectID.String()),
		zap.Bool("projectReady", ready.Ready))
	return asset, nil
}

// Reject declines a pending_review asset. The slot returns to needing
// regeneration; nothing else about the project changes.
func (s *ReviewService) Reject(ctx context.Context, assetID uuid.UUID, reason string) (*models.Asset, error) {
	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.Status != models.AssetStatusPendingReview {
		return nil, fmt.Errorf("%w: asset is %s, not pending_review", models.ErrInvalidTransition, asset.Status)
	}

	if err := s.assets.RejectFrom(ctx, assetID, models.AssetStatusPendingReview); err != nil {
		return nil, err
	}
	asset.Status = models.AssetStatusRejected

	s.publishDecision(ctx, asset, "rejected")
	s.logger.Info("Asset rejected",
		zap.String("assetID", assetID.String()),
		zap.String("projectID", asset.ProjectID.String()),
		zap.String("reason", reason))
	return asset, nil
}

func (s *ReviewService) publishDecision(ctx context.Context, asset *models.Asset, decision string) {
	if err := s.publisher.Publish(ctx, messaging.PipelineEvent{
		Type:      messaging.EventAssetReviewed,
		ProjectID: asset.ProjectID.String(),
		SlotKey:   asset.SlotKey,
		EntityID:  asset.ID.String(),
		Decision:  decision,
	}); err != nil {
		s.logger.Warn("Failed to publish review event", zap.Error(err))
	}
}
