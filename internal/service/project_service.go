package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyreel-server/internal/models"
	"storyreel-server/internal/planner"
	"storyreel-server/internal/repository"
)

// SlotReport is the per-slot view of a project: the effective asset for the
// slot (latest non-rejected) or the computed "missing" status when the slot
// has none.
type SlotReport struct {
	SlotKey string             `json:"slotKey"`
	Kind    models.AssetKind   `json:"kind"`
	Status  models.AssetStatus `json:"status"`
	Asset   *models.Asset      `json:"asset,omitempty"`
}

// ProjectReport is the full dashboard view of one project.
type ProjectReport struct {
	Project *models.StoryProject `json:"project"`
	Slots   []SlotReport         `json:"slots"`
	Ready   bool                 `json:"ready"`
}

// ProjectService serves read-side project views.
type ProjectService struct {
	projects repository.ProjectRepository
	assets   repository.AssetRepository
	logger   *zap.Logger
}

func NewProjectService(projects repository.ProjectRepository, assets repository.AssetRepository, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		projects: projects,
		assets:   assets,
		logger:   logger.Named("ProjectService"),
	}
}

// Report returns the project with one entry per manifest slot in manifest
// order. Slots whose every asset was rejected (or that never generated) show
// as missing.
func (s *ProjectService) Report(ctx context.Context, projectID uuid.UUID) (*ProjectReport, error) {
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

	slots := make([]SlotReport, 0, len(manifest.Slots))
	ready := true
	for _, slot := range manifest.Slots {
		report := SlotReport{SlotKey: slot.Key, Kind: slot.Kind, Status: models.AssetStatusMissing}
		if asset, ok := latest[slot.Key]; ok {
			report.Status = asset.Status
			report.Asset = asset
		}
		if report.Status != models.AssetStatusApproved || report.Asset == nil || report.Asset.StorageURL == "" {
			ready = false
		}
		slots = append(slots, report)
	}

	return &ProjectReport{Project: project, Slots: slots, Ready: ready}, nil
}
