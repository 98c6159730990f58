package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyreel-server/internal/messaging"
	"storyreel-server/internal/models"
	"storyreel-server/internal/planner"
	"storyreel-server/internal/repository"
)

// GeneratePromptsRequest describes one planning call. ProjectID is optional:
// when absent a new project is created for (ChildID, TemplateType).
type GeneratePromptsRequest struct {
	ProjectID    *uuid.UUID
	ChildID      uuid.UUID
	TemplateType string
	Variables    map[string]string
	Slots        []string // empty means all template slots
}

// PromptService plans prompts for a project and persists them in the
// append-only prompt store.
type PromptService struct {
	projects  repository.ProjectRepository
	children  repository.ChildRepository
	prompts   repository.PromptRepository
	publisher messaging.EventPublisher
	logger    *zap.Logger
}

func NewPromptService(
	projects repository.ProjectRepository,
	children repository.ChildRepository,
	prompts repository.PromptRepository,
	publisher messaging.EventPublisher,
	logger *zap.Logger,
) *PromptService {
	return &PromptService{
		projects:  projects,
		children:  children,
		prompts:   prompts,
		publisher: publisher,
		logger:    logger.Named("PromptService"),
	}
}

// GeneratePrompts plans the template slots and saves one new prompt row per
// planned slot. Planning is validated before any row is written, so an
// invalid request leaves no trace.
func (s *PromptService) GeneratePrompts(ctx context.Context, req GeneratePromptsRequest) (*models.StoryProject, []planner.PromptSpec, error) {
	var project *models.StoryProject
	var err error

	if req.ProjectID != nil {
		project, err = s.projects.GetByID(ctx, *req.ProjectID)
		if err != nil {
			return nil, nil, err
		}
	}

	childID := req.ChildID
	templateType := req.TemplateType
	variables := req.Variables
	if project != nil {
		childID = project.ChildID
		templateType = project.TemplateType
		if len(variables) == 0 {
			variables = project.Variables
		}
	}

	child, err := s.children.GetByID(ctx, childID)
	if err != nil {
		return nil, nil, err
	}

	specs, err := planner.Plan(child, templateType, variables)
	if err != nil {
		return nil, nil, err
	}

	if len(req.Slots) > 0 {
		specs, err = filterSpecs(specs, req.Slots)
		if err != nil {
			return nil, nil, err
		}
	}

	if project == nil {
		project = &models.StoryProject{
			ChildID:      childID,
			TemplateType: templateType,
			Variables:    variables,
			Status:       models.ProjectStatusDrafting,
		}
		if err := s.projects.Create(ctx, project); err != nil {
			return nil, nil, err
		}
	} else if len(req.Variables) > 0 {
		// Replanning with fresh variables: the prompts below are planned from
		// them, so the stored project must carry the same ones.
		if err := s.projects.UpdateVariables(ctx, project.ID, variables); err != nil {
			return nil, nil, err
		}
		project.Variables = variables
	}

	for i := range specs {
		spec := specs[i]
		slot, slotErr := planner.SlotFor(templateType, spec.SlotKey)
		if slotErr != nil {
			return nil, nil, slotErr
		}
		if slot.Reusable {
			// Library-backed slots have no prompt; the generator resolves
			// them against the asset library directly.
			continue
		}
		prompt := &models.Prompt{
			ProjectID:     project.ID,
			SlotKey:       spec.SlotKey,
			AssetKind:     spec.Kind,
			PromptText:    spec.ImageText,
			NarrationText: spec.NarrationText,
			SafeZone:      spec.SafeZone,
			Status:        models.PromptStatusCompleted,
		}
		if err := s.prompts.Save(ctx, prompt); err != nil {
			return nil, nil, err
		}
	}

	// First planning moves a fresh project forward; replanning a project that
	// is already generating leaves its status alone.
	won, err := s.projects.CASStatus(ctx, project.ID, models.ProjectStatusDrafting, models.ProjectStatusPromptsReady)
	if err != nil {
		return nil, nil, err
	}
	if won {
		project.Status = models.ProjectStatusPromptsReady
	}

	if err := s.publisher.Publish(ctx, messaging.PipelineEvent{
		Type:      messaging.EventPromptsPlanned,
		ProjectID: project.ID.String(),
	}); err != nil {
		s.logger.Warn("Failed to publish prompts planned event", zap.Error(err))
	}

	s.logger.Info("Prompts planned",
		zap.String("projectID", project.ID.String()),
		zap.String("template", templateType),
		zap.Int("slots", len(specs)))
	return project, specs, nil
}

func filterSpecs(specs []planner.PromptSpec, slots []string) ([]planner.PromptSpec, error) {
	wanted := make(map[string]bool, len(slots))
	for _, s := range slots {
		wanted[s] = true
	}
	filtered := make([]planner.PromptSpec, 0, len(slots))
	for _, spec := range specs {
		if wanted[spec.SlotKey] {
			filtered = append(filtered, spec)
			delete(wanted, spec.SlotKey)
		}
	}
	for slot := range wanted {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownSlot, slot)
	}
	return filtered, nil
}
