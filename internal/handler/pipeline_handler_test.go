package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storyreel-server/internal/models"
	"storyreel-server/internal/planner"
	"storyreel-server/internal/service"
	"storyreel-server/internal/service/mocks"
)

type handlerFixture struct {
	router      *gin.Engine
	projects    *mocks.MockProjectRepository
	children    *mocks.MockChildRepository
	prompts     *mocks.MockPromptRepository
	assets      *mocks.MockAssetRepository
	videoJobs   *mocks.MockVideoJobRepository
	videos      *mocks.MockApprovedVideoRepository
	queue       *mocks.MockModerationRepository
	assignments *mocks.MockAssignmentRepository
	backend     *mocks.MockRenderBackend
	lease       *mocks.MockClaimLease
	publisher   *mocks.MockEventPublisher
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &handlerFixture{
		projects:    new(mocks.MockProjectRepository),
		children:    new(mocks.MockChildRepository),
		prompts:     new(mocks.MockPromptRepository),
		assets:      new(mocks.MockAssetRepository),
		videoJobs:   new(mocks.MockVideoJobRepository),
		videos:      new(mocks.MockApprovedVideoRepository),
		queue:       new(mocks.MockModerationRepository),
		assignments: new(mocks.MockAssignmentRepository),
		backend:     new(mocks.MockRenderBackend),
		lease:       new(mocks.MockClaimLease),
		publisher:   new(mocks.MockEventPublisher),
	}

	nop := zap.NewNop()
	genJobs := new(mocks.MockGenerationJobRepository)
	library := new(mocks.MockLibraryAssetRepository)
	images := new(mocks.MockImageProvider)
	speech := new(mocks.MockSpeechProvider)
	media := new(mocks.MockMediaStore)

	promptSvc := service.NewPromptService(f.projects, f.children, f.prompts, f.publisher, nop)
	genSvc := service.NewGenerationService(f.projects, f.prompts, f.assets, genJobs, library, images, speech, media, f.publisher, 1, nop)
	readinessSvc := service.NewReadinessService(f.projects, f.assets, nop)
	reviewSvc := service.NewReviewService(f.projects, f.assets, readinessSvc, f.publisher, nop)
	projectSvc := service.NewProjectService(f.projects, f.assets, nop)
	renderSvc := service.NewRenderService(f.projects, f.assets, f.videoJobs, f.videos, f.queue, readinessSvc, f.backend, f.publisher, nop)
	moderationSvc := service.NewModerationService(f.queue, f.videos, f.lease, 0, f.publisher, nop)
	assignmentSvc := service.NewAssignmentService(f.assignments, f.children, nop)

	h := NewPipelineHandler(promptSvc, genSvc, reviewSvc, readinessSvc, projectSvc, renderSvc, moderationSvc, assignmentSvc, nop)

	f.router = gin.New()
	h.RegisterRoutes(f.router)
	return f
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGeneratePrompts_BadVariablesReturns400(t *testing.T) {
	f := newHandlerFixture(t)
	childID := uuid.New()

	f.children.On("GetByID", mock.Anything, childID).Return(&models.Child{ID: childID}, nil)

	w := f.do(t, http.MethodPost, "/api/prompts/generate", gin.H{
		"childId":      childID,
		"templateType": "lullaby",
		"variables":    gin.H{"child_name": "Mia"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var apiErr APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Contains(t, apiErr.Message, "favorite_animal")
}

func TestGetReadiness_ProjectNotFoundReturns404(t *testing.T) {
	f := newHandlerFixture(t)
	projectID := uuid.New()

	f.projects.On("GetByID", mock.Anything, projectID).Return(nil, models.ErrProjectNotFound)

	w := f.do(t, http.MethodGet, "/api/projects/"+projectID.String()+"/readiness", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetReadiness_InvalidUUIDReturns400(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/api/projects/not-a-uuid/readiness", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitRender_NotReadyReturns422WithSlots(t *testing.T) {
	f := newHandlerFixture(t)
	projectID := uuid.New()

	project := &models.StoryProject{
		ID:           projectID,
		TemplateType: planner.TemplateLullaby,
		Status:       models.ProjectStatusGenerating,
	}
	f.projects.On("GetByID", mock.Anything, projectID).Return(project, nil)
	f.assets.On("LatestPerSlot", mock.Anything, projectID).Return(map[string]*models.Asset{}, nil)

	w := f.do(t, http.MethodPost, "/api/projects/"+projectID.String()+"/render", gin.H{"submittedBy": "producer"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Len(t, apiErr.MissingSlots, 7)
}

func TestSubmitRender_InFlightReturns409(t *testing.T) {
	f := newHandlerFixture(t)
	projectID := uuid.New()

	project := &models.StoryProject{
		ID:           projectID,
		TemplateType: planner.TemplateLullaby,
		Status:       models.ProjectStatusReadyToRender,
	}
	keys, _ := planner.RequiredSlotKeys(planner.TemplateLullaby)
	latest := make(map[string]*models.Asset, len(keys))
	for _, key := range keys {
		latest[key] = &models.Asset{
			ID:         uuid.New(),
			ProjectID:  projectID,
			SlotKey:    key,
			Status:     models.AssetStatusApproved,
			StorageURL: fmt.Sprintf("https://media.local/%s.bin", key),
		}
	}

	f.projects.On("GetByID", mock.Anything, projectID).Return(project, nil)
	f.assets.On("LatestPerSlot", mock.Anything, projectID).Return(latest, nil)
	f.videoJobs.On("Create", mock.Anything, mock.Anything).Return(models.ErrAlreadyInFlight)

	w := f.do(t, http.MethodPost, "/api/projects/"+projectID.String()+"/render", gin.H{"submittedBy": "producer"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRenderCallback_DuplicateIsAcknowledged(t *testing.T) {
	f := newHandlerFixture(t)
	jobID := uuid.New()

	job := &models.VideoGenerationJob{
		ID:     jobID,
		Status: models.JobStatusCompleted,
	}
	f.videoJobs.On("GetByID", mock.Anything, jobID).Return(job, nil)
	f.videoJobs.On("CompleteFromSubmitted", mock.Anything, jobID, mock.Anything).Return(false, nil)
	f.videos.On("GetByJobID", mock.Anything, jobID).Return(&models.ChildApprovedVideo{
		ID:         uuid.New(),
		VideoJobID: jobID,
	}, nil)

	w := f.do(t, http.MethodPost, "/api/render/callback", gin.H{
		"jobId":     jobID,
		"status":    "completed",
		"outputUrl": "https://render.local/final.mp4",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClaimModeration_EmptyQueueReturns404(t *testing.T) {
	f := newHandlerFixture(t)

	f.queue.On("ClaimNext", mock.Anything, "mod-1").Return(nil, models.ErrQueueEmpty)

	w := f.do(t, http.MethodPost, "/api/moderation/claim", gin.H{"moderatorId": "mod-1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveModeration_NotOwnerReturns409(t *testing.T) {
	f := newHandlerFixture(t)
	entryID := uuid.New()

	f.queue.On("Resolve", mock.Anything, entryID, "mod-2").Return(nil, models.ErrNotClaimOwner)

	w := f.do(t, http.MethodPost, "/api/moderation/"+entryID.String()+"/resolve", gin.H{
		"moderatorId": "mod-2",
		"approve":     true,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateAssignment_DuplicateReturns409(t *testing.T) {
	f := newHandlerFixture(t)
	childID := uuid.New()

	f.children.On("GetByID", mock.Anything, childID).Return(&models.Child{ID: childID}, nil)
	f.assignments.On("Create", mock.Anything, mock.Anything).Return(models.ErrAlreadyAssigned)

	w := f.do(t, http.MethodPost, "/api/assignments", gin.H{
		"childId":      childID,
		"templateType": "lullaby",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateAssignment_UnknownTemplateReturns400(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/api/assignments", gin.H{
		"childId":      uuid.New(),
		"templateType": "birthday",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
