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

func lullabyVariables() map[string]string {
	return map[string]string{
		"child_name":      "Mia",
		"favorite_animal": "red panda",
		"bedtime_place":   "her cozy attic room",
	}
}

func newPromptService(t *testing.T) (*PromptService, *mocks.MockProjectRepository, *mocks.MockChildRepository, *mocks.MockPromptRepository, *mocks.MockEventPublisher) {
	t.Helper()
	projects := new(mocks.MockProjectRepository)
	children := new(mocks.MockChildRepository)
	prompts := new(mocks.MockPromptRepository)
	publisher := new(mocks.MockEventPublisher)
	svc := NewPromptService(projects, children, prompts, publisher, zap.NewNop())
	return svc, projects, children, prompts, publisher
}

func TestGeneratePrompts_NewProject(t *testing.T) {
	svc, projects, children, prompts, publisher := newPromptService(t)
	childID := uuid.New()

	children.On("GetByID", mock.Anything, childID).Return(&models.Child{ID: childID, Name: "Mia"}, nil)
	projects.On("Create", mock.Anything, mock.AnythingOfType("*models.StoryProject")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.StoryProject).ID = uuid.New()
	}).Return(nil)
	prompts.On("Save", mock.Anything, mock.AnythingOfType("*models.Prompt")).Return(nil)
	projects.On("CASStatus", mock.Anything, mock.Anything, models.ProjectStatusDrafting, models.ProjectStatusPromptsReady).Return(true, nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	project, specs, err := svc.GeneratePrompts(context.Background(), GeneratePromptsRequest{
		ChildID:      childID,
		TemplateType: planner.TemplateLullaby,
		Variables:    lullabyVariables(),
	})
	require.NoError(t, err)
	require.NotNil(t, project)

	assert.Equal(t, models.ProjectStatusPromptsReady, project.Status)
	assert.Len(t, specs, 7)
	// The reusable background_music slot gets no stored prompt.
	prompts.AssertNumberOfCalls(t, "Save", 6)
}

func TestGeneratePrompts_SavedAsCompleted(t *testing.T) {
	svc, projects, children, prompts, publisher := newPromptService(t)
	childID := uuid.New()

	children.On("GetByID", mock.Anything, childID).Return(&models.Child{ID: childID, Name: "Ava"}, nil)
	projects.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*models.StoryProject).ID = uuid.New()
	}).Return(nil)
	prompts.On("Save", mock.Anything, mock.MatchedBy(func(p *models.Prompt) bool {
		return p.Status == models.PromptStatusCompleted
	})).Return(nil)
	projects.On("CASStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, _, err := svc.GeneratePrompts(context.Background(), GeneratePromptsRequest{
		ChildID:      childID,
		TemplateType: planner.TemplateLetter,
		Variables:    map[string]string{"child_name": "Ava", "letter": "B"},
	})
	require.NoError(t, err)
	prompts.AssertExpectations(t)
}

func TestGeneratePrompts_InvalidVariablesWritesNothing(t *testing.T) {
	svc, projects, children, prompts, _ := newPromptService(t)
	childID := uuid.New()

	children.On("GetByID", mock.Anything, childID).Return(&models.Child{ID: childID}, nil)

	_, _, err := svc.GeneratePrompts(context.Background(), GeneratePromptsRequest{
		ChildID:      childID,
		TemplateType: planner.TemplateLullaby,
		Variables:    map[string]string{"child_name": "Mia"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidVariables)

	projects.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	prompts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestGeneratePrompts_UnknownSlotFilter(t *testing.T) {
	svc, projects, children, prompts, _ := newPromptService(t)
	childID := uuid.New()

	children.On("GetByID", mock.Anything, childID).Return(&models.Child{ID: childID, Name: "Mia"}, nil)

	_, _, err := svc.GeneratePrompts(context.Background(), GeneratePromptsRequest{
		ChildID:      childID,
		TemplateType: planner.TemplateLullaby,
		Variables:    lullabyVariables(),
		Slots:        []string{"page1_image", "page9_image"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownSlot)

	projects.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	prompts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestGeneratePrompts_RegenerateSingleSlot(t *testing.T) {
	svc, projects, children, prompts, publisher := newPromptService(t)
	childID := uuid.New()
	projectID := uuid.New()
	existing := &models.StoryProject{
		ID:           projectID,
		ChildID:      childID,
		TemplateType: planner.TemplateLullaby,
		Variables:    lullabyVariables(),
		Status:       models.ProjectStatusGenerating,
	}

	projects.On("GetByID", mock.Anything, projectID).Return(existing, nil)
	children.On("GetByID", mock.Anything, childID).Return(&models.Child{ID: childID, Name: "Mia"}, nil)
	prompts.On("Save", mock.Anything, mock.MatchedBy(func(p *models.Prompt) bool {
		return p.SlotKey == "page2_image" && p.ProjectID == projectID
	})).Return(nil)
	// Replanning a generating project does not move its status.
	projects.On("CASStatus", mock.Anything, projectID, models.ProjectStatusDrafting, models.ProjectStatusPromptsReady).Return(false, nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, specs, err := svc.GeneratePrompts(context.Background(), GeneratePromptsRequest{
		ProjectID: &projectID,
		ChildID:   childID,
		Slots:     []string{"page2_image"},
	})
	require.NoError(t, err)

	require.Len(t, specs, 1)
	assert.Equal(t, "page2_image", specs[0].SlotKey)
	prompts.AssertNumberOfCalls(t, "Save", 1)
}

func TestGeneratePrompts_ReplanPersistsNewVariables(t *testing.T) {
	svc, projects, children, prompts, publisher := newPromptService(t)
	childID := uuid.New()
	projectID := uuid.New()
	existing := &models.StoryProject{
		ID:           projectID,
		ChildID:      childID,
		TemplateType: planner.TemplateLullaby,
		Variables:    lullabyVariables(),
		Status:       models.ProjectStatusGenerating,
	}
	updated := lullabyVariables()
	updated["favorite_animal"] = "snow leopard"

	projects.On("GetByID", mock.Anything, projectID).Return(existing, nil)
	children.On("GetByID", mock.Anything, childID).Return(&models.Child{ID: childID, Name: "Mia"}, nil)
	projects.On("UpdateVariables", mock.Anything, projectID, updated).Return(nil)
	prompts.On("Save", mock.Anything, mock.Anything).Return(nil)
	projects.On("CASStatus", mock.Anything, projectID, models.ProjectStatusDrafting, models.ProjectStatusPromptsReady).Return(false, nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	project, _, err := svc.GeneratePrompts(context.Background(), GeneratePromptsRequest{
		ProjectID: &projectID,
		Variables: updated,
	})
	require.NoError(t, err)

	// The stored project now carries the variables the prompts were planned
	// from, not the stale originals.
	assert.Equal(t, "snow leopard", project.Variables["favorite_animal"])
	projects.AssertCalled(t, "UpdateVariables", mock.Anything, projectID, updated)
}

func TestGeneratePrompts_ReplanWithoutVariablesKeepsStored(t *testing.T) {
	svc, projects, children, prompts, publisher := newPromptService(t)
	childID := uuid.New()
	projectID := uuid.New()
	existing := &models.StoryProject{
		ID:           projectID,
		ChildID:      childID,
		TemplateType: planner.TemplateLullaby,
		Variables:    lullabyVariables(),
		Status:       models.ProjectStatusGenerating,
	}

	projects.On("GetByID", mock.Anything, projectID).Return(existing, nil)
	children.On("GetByID", mock.Anything, childID).Return(&models.Child{ID: childID, Name: "Mia"}, nil)
	prompts.On("Save", mock.Anything, mock.Anything).Return(nil)
	projects.On("CASStatus", mock.Anything, projectID, models.ProjectStatusDrafting, models.ProjectStatusPromptsReady).Return(false, nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, _, err := svc.GeneratePrompts(context.Background(), GeneratePromptsRequest{ProjectID: &projectID})
	require.NoError(t, err)

	projects.AssertNotCalled(t, "UpdateVariables", mock.Anything, mock.Anything, mock.Anything)
}

func TestGeneratePrompts_ProjectNotFound(t *testing.T) {
	svc, projects, _, _, _ := newPromptService(t)
	projectID := uuid.New()

	projects.On("GetByID", mock.Anything, projectID).Return(nil, models.ErrProjectNotFound)

	_, _, err := svc.GeneratePrompts(context.Background(), GeneratePromptsRequest{ProjectID: &projectID})
	assert.ErrorIs(t, err, models.ErrProjectNotFound)
}
