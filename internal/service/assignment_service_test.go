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

func newAssignmentFixture(t *testing.T) (*AssignmentService, *mocks.MockAssignmentRepository, *mocks.MockChildRepository) {
	t.Helper()
	assignments := new(mocks.MockAssignmentRepository)
	children := new(mocks.MockChildRepository)
	return NewAssignmentService(assignments, children, zap.NewNop()), assignments, children
}

func TestAssign_HappyPath(t *testing.T) {
	svc, assignments, children := newAssignmentFixture(t)
	childID := uuid.New()

	children.On("GetByID", mock.Anything, childID).Return(&models.Child{ID: childID, Name: "Mia"}, nil)
	assignments.On("Create", mock.Anything, mock.MatchedBy(func(a *models.ChildVideoAssignment) bool {
		return a.ChildID == childID && a.Status == models.AssignmentStatusAssigned && a.Priority == 5
	})).Return(nil)

	got, err := svc.Assign(context.Background(), childID, planner.TemplateLullaby, 5, nil)
	require.NoError(t, err)

	assert.Equal(t, planner.TemplateLullaby, got.TemplateType)
}

func TestAssign_UnknownTemplate(t *testing.T) {
	svc, assignments, _ := newAssignmentFixture(t)

	_, err := svc.Assign(context.Background(), uuid.New(), "birthday", 0, nil)
	assert.ErrorIs(t, err, models.ErrUnknownTemplate)
	assignments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAssign_UnknownChild(t *testing.T) {
	svc, assignments, children := newAssignmentFixture(t)
	childID := uuid.New()

	children.On("GetByID", mock.Anything, childID).Return(nil, models.ErrChildNotFound)

	_, err := svc.Assign(context.Background(), childID, planner.TemplateLullaby, 0, nil)
	assert.ErrorIs(t, err, models.ErrChildNotFound)
	assignments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAssign_DuplicateActiveAssignment(t *testing.T) {
	svc, assignments, children := newAssignmentFixture(t)
	childID := uuid.New()

	children.On("GetByID", mock.Anything, childID).Return(&models.Child{ID: childID}, nil)
	assignments.On("Create", mock.Anything, mock.Anything).Return(models.ErrAlreadyAssigned)

	_, err := svc.Assign(context.Background(), childID, planner.TemplateLullaby, 0, nil)
	assert.ErrorIs(t, err, models.ErrAlreadyAssigned)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	svc, assignments, _ := newAssignmentFixture(t)

	err := svc.UpdateStatus(context.Background(), uuid.New(), models.AssignmentStatus("archived"))
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assignments.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestMissing_SingleTemplate(t *testing.T) {
	svc, assignments, _ := newAssignmentFixture(t)
	childID := uuid.New()

	assignments.On("MissingFor", mock.Anything, planner.TemplateLullaby).Return([]models.MissingVideoReport{
		{ChildID: childID, ChildName: "Mia", TemplateType: planner.TemplateLullaby, Reason: "no_assignment"},
	}, nil)

	reports, err := svc.Missing(context.Background(), planner.TemplateLullaby)
	require.NoError(t, err)

	require.Len(t, reports, 1)
	assert.Equal(t, "no_assignment", reports[0].Reason)
	assignments.AssertNumberOfCalls(t, "MissingFor", 1)
}

func TestMissing_AllTemplates(t *testing.T) {
	svc, assignments, _ := newAssignmentFixture(t)

	assignments.On("MissingFor", mock.Anything, planner.TemplateLetter).Return([]models.MissingVideoReport{
		{ChildID: uuid.New(), TemplateType: planner.TemplateLetter, Reason: "not_approved"},
	}, nil)
	assignments.On("MissingFor", mock.Anything, planner.TemplateLullaby).Return(nil, nil)

	reports, err := svc.Missing(context.Background(), "")
	require.NoError(t, err)

	assert.Len(t, reports, 1)
	assignments.AssertNumberOfCalls(t, "MissingFor", 2)
}

func TestMissing_UnknownTemplate(t *testing.T) {
	svc, assignments, _ := newAssignmentFixture(t)

	_, err := svc.Missing(context.Background(), "birthday")
	assert.ErrorIs(t, err, models.ErrUnknownTemplate)
	assignments.AssertNotCalled(t, "MissingFor", mock.Anything, mock.Anything)
}
