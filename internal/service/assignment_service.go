package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyreel-server/internal/models"
	"storyreel-server/internal/planner"
	"storyreel-server/internal/repository"
)

// AssignmentService tracks which child should receive which video and reports
// what is still missing.
type AssignmentService struct {
	assignments repository.AssignmentRepository
	children    repository.ChildRepository
	logger      *zap.Logger
}

func NewAssignmentService(
	assignments repository.AssignmentRepository,
	children repository.ChildRepository,
	logger *zap.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		children:    children,
		logger:      logger.Named("AssignmentService"),
	}
}

// Assign creates an assignment for (child, template type). At most one
// non-rejected assignment may exist per pair; a concurrent duplicate loses
// with models.ErrAlreadyAssigned.
func (s *AssignmentService) Assign(ctx context.Context, childID uuid.UUID, templateType string, priority int, dueDate *time.Time) (*models.ChildVideoAssignment, error) {
	if _, err := planner.ManifestFor(templateType); err != nil {
		return nil, err
	}
	if _, err := s.children.GetByID(ctx, childID); err != nil {
		return nil, err
	}

	assignment := &models.ChildVideoAssignment{
		ChildID:      childID,
		TemplateType: templateType,
		Status:       models.AssignmentStatusAssigned,
		Priority:     priority,
		DueDate:      dueDate,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, err
	}

	s.logger.Info("Assignment created",
		zap.String("childID", childID.String()),
		zap.String("template", templateType))
	return assignment, nil
}

// UpdateStatus moves an assignment along its lifecycle.
func (s *AssignmentService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AssignmentStatus) error {
	switch status {
	case models.AssignmentStatusAssigned, models.AssignmentStatusInProgress,
		models.AssignmentStatusCompleted, models.AssignmentStatusApproved,
		models.AssignmentStatusRejected:
	default:
		return models.ErrInvalidInput
	}
	return s.assignments.UpdateStatus(ctx, id, status)
}

// Missing reports, per child, the template types with no active assignment or
// no approved video yet. An empty templateType covers every known template.
func (s *AssignmentService) Missing(ctx context.Context, templateType string) ([]models.MissingVideoReport, error) {
	types := []string{templateType}
	if templateType == "" {
		types = planner.TemplateTypes()
	} else if _, err := planner.ManifestFor(templateType); err != nil {
		return nil, err
	}

	reports := make([]models.MissingVideoReport, 0)
	for _, t := range types {
		rows, err := s.assignments.MissingFor(ctx, t)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rows...)
	}
	return reports, nil
}
