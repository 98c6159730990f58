package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyreel-server/internal/models"
	"storyreel-server/internal/planner"
	"storyreel-server/internal/repository"
)

// Readiness is the aggregated render-readiness verdict for a project.
// MissingSlots lists every blocking slot in manifest order.
type Readiness struct {
	Ready        bool     `json:"ready"`
	MissingSlots []string `json:"missingSlots"`
}

// ReadinessService computes whether a project can be rendered. A slot counts
// as ready only when its latest non-rejected asset is approved AND has a
// non-empty storage URL; both checks are repeated here even though review
// refuses to approve URL-less assets.
type ReadinessService struct {
	projects repository.ProjectRepository
	assets   repository.AssetRepository
	logger   *zap.Logger
}

func NewReadinessService(projects repository.ProjectRepository, assets repository.AssetRepository, logger *zap.Logger) *ReadinessService {
	return &ReadinessService{
		projects: projects,
		assets:   assets,
		logger:   logger.Named("ReadinessService"),
	}
}

// Check reports the readiness of a project at this moment. The verdict is
// advisory; render submission re-checks under its own conflict guards.
func (s *ReadinessService) Check(ctx context.Context, projectID uuid.UUID) (*Readiness, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	manifest, err := planner.ManifestFor(project.TemplateType)
	if err != nil {
		return nil, err
	}

	latest, err := s.assets.LatestPerSlot(ctx, projectID)
	if err != nil {
		return nil, err
	}

	missing := make([]string, 0)
	for _, slot := range manifest.Slots {
		asset, ok := latest[slot.Key]
		if !ok || asset.Status != models.AssetStatusApproved || asset.StorageURL == "" {
			missing = append(missing, slot.Key)
		}
	}

	return &Readiness{Ready: len(missing) == 0, MissingSlots: missing}, nil
}
