// Package handler exposes the pipeline over HTTP with gin.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyreel-server/internal/models"
	"storyreel-server/internal/service"
)

// PipelineHandler groups the HTTP handlers of every pipeline stage.
type PipelineHandler struct {
	prompts     *service.PromptService
	generation  *service.GenerationService
	review      *service.ReviewService
	readiness   *service.ReadinessService
	projectView *service.ProjectService
	render      *service.RenderService
	moderation  *service.ModerationService
	assignments *service.AssignmentService
	logger      *zap.Logger
}

func NewPipelineHandler(
	prompts *service.PromptService,
	generation *service.GenerationService,
	review *service.ReviewService,
	readiness *service.ReadinessService,
	projectView *service.ProjectService,
	render *service.RenderService,
	moderation *service.ModerationService,
	assignments *service.AssignmentService,
	logger *zap.Logger,
) *PipelineHandler {
	return &PipelineHandler{
		prompts:     prompts,
		generation:  generation,
		review:      review,
		readiness:   readiness,
		projectView: projectView,
		render:      render,
		moderation:  moderation,
		assignments: assignments,
		logger:      logger.Named("PipelineHandler"),
	}
}

// RegisterRoutes mounts the API under /api.
func (h *PipelineHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/prompts/generate", h.generatePrompts)

		api.GET("/projects/:id", h.getProject)
		api.GET("/projects/:id/readiness", h.getReadiness)
		api.POST("/projects/:id/assets/generate", h.generateAssets)
		api.POST("/projects/:id/render", h.submitRender)

		api.POST("/assets/:id/review", h.reviewAsset)

		api.POST("/render/callback", h.renderCallback)
		api.POST("/render/jobs/:id/reconcile", h.reconcileRender)

		api.POST("/assignments", h.createAssignment)
		api.PATCH("/assignments/:id/status", h.updateAssignmentStatus)
		api.GET("/assignments/missing", h.missingVideos)

		api.POST("/moderation/claim", h.claimModeration)
		api.POST("/moderation/:id/resolve", h.resolveModeration)
		api.POST("/moderation/:id/release", h.releaseModeration)
	}
}

type generatePromptsRequest struct {
	ProjectID    *uuid.UUID        `json:"projectId,omitempty"`
	ChildID      uuid.UUID         `json:"childId"`
	TemplateType string            `json:"templateType"`
	Variables    map[string]string `json:"variables"`
	Slots        []string          `json:"slots,omitempty"`
}

func (h *PipelineHandler) generatePrompts(c *gin.Context) {
	var req generatePromptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}
	if req.ProjectID == nil && req.ChildID == uuid.Nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Either projectId or childId is required"})
		return
	}

	project, specs, err := h.prompts.GeneratePrompts(c.Request.Context(), service.GeneratePromptsRequest{
		ProjectID:    req.ProjectID,
		ChildID:      req.ChildID,
		TemplateType: req.TemplateType,
		Variables:    req.Variables,
		Slots:        req.Slots,
	})
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"project": project, "prompts": specs})
}

func (h *PipelineHandler) getProject(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	report, err := h.projectView.Report(c.Request.Context(), projectID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *PipelineHandler) getReadiness(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	ready, err := h.readiness.Check(c.Request.Context(), projectID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, ready)
}

type generateAssetsRequest struct {
	Slots []string `json:"slots" binding:"required,min=1"`
}

type slotResultResponse struct {
	SlotKey string                     `json:"slotKey"`
	Job     *models.AssetGenerationJob `json:"job,omitempty"`
	Error   string                     `json:"error,omitempty"`
}

func (h *PipelineHandler) generateAssets(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req generateAssetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	results := h.generation.GenerateBatch(c.Request.Context(), projectID, req.Slots)

	resp := make([]slotResultResponse, 0, len(results))
	allFailed := len(results) > 0
	for _, r := range results {
		out := slotResultResponse{SlotKey: r.SlotKey, Job: r.Job}
		if r.Err != nil {
			out.Error = r.Err.Error()
		} else {
			allFailed = false
		}
		resp = append(resp, out)
	}

	status := http.StatusAccepted
	if allFailed {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"results": resp})
}

type reviewAssetRequest struct {
	Decision string   `json:"decision" binding:"required,oneof=approve reject"`
	Reason   string   `json:"reason,omitempty"`
	Title    string   `json:"title,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	SafeZone string   `json:"safeZone,omitempty"`
}

func (h *PipelineHandler) reviewAsset(c *gin.Context) {
	assetID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req reviewAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	var asset *models.Asset
	var err error
	if req.Decision == "approve" {
		asset, err = h.review.Approve(c.Request.Context(), assetID, models.ReviewMetadata{
			Title:    req.Title,
			Tags:     req.Tags,
			SafeZone: req.SafeZone,
		})
	} else {
		asset, err = h.review.Reject(c.Request.Context(), assetID, req.Reason)
	}
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, asset)
}

type submitRenderRequest struct {
	SubmittedBy string `json:"submittedBy"`
}

func (h *PipelineHandler) submitRender(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req submitRenderRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	job, err := h.render.Submit(c.Request.Context(), projectID, req.SubmittedBy)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

type renderCallbackRequest struct {
	JobID     uuid.UUID `json:"jobId" binding:"required"`
	Status    string    `json:"status" binding:"required,oneof=completed failed"`
	OutputURL string    `json:"outputUrl,omitempty"`
	Error     string    `json:"error,omitempty"`
	Duration  int       `json:"durationSeconds,omitempty"`
}

func (h *PipelineHandler) renderCallback(c *gin.Context) {
	var req renderCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	err := h.render.HandleCallback(c.Request.Context(), service.RenderCallback{
		JobID:     req.JobID,
		Status:    req.Status,
		OutputURL: req.OutputURL,
		Error:     req.Error,
		Duration:  req.Duration,
	})
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "acknowledged"})
}

func (h *PipelineHandler) reconcileRender(c *gin.Context) {
	jobID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	job, err := h.render.Reconcile(c.Request.Context(), jobID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, job)
}

type createAssignmentRequest struct {
	ChildID      uuid.UUID  `json:"childId" binding:"required"`
	TemplateType string     `json:"templateType" binding:"required"`
	Priority     int        `json:"priority,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
}

func (h *PipelineHandler) createAssignment(c *gin.Context) {
	var req createAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	assignment, err := h.assignments.Assign(c.Request.Context(), req.ChildID, req.TemplateType, req.Priority, req.DueDate)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

type updateAssignmentStatusRequest struct {
	Status models.AssignmentStatus `json:"status" binding:"required"`
}

func (h *PipelineHandler) updateAssignmentStatus(c *gin.Context) {
	assignmentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req updateAssignmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	if err := h.assignments.UpdateStatus(c.Request.Context(), assignmentID, req.Status); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

func (h *PipelineHandler) missingVideos(c *gin.Context) {
	templateType := c.Query("templateType")

	reports, err := h.assignments.Missing(c.Request.Context(), templateType)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"missing": reports})
}

type claimRequest struct {
	ModeratorID string `json:"moderatorId" binding:"required"`
}

func (h *PipelineHandler) claimModeration(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	entry, video, err := h.moderation.Claim(c.Request.Context(), req.ModeratorID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry, "video": video})
}

type resolveRequest struct {
	ModeratorID string `json:"moderatorId" binding:"required"`
	Approve     *bool  `json:"approve" binding:"required"`
}

func (h *PipelineHandler) resolveModeration(c *gin.Context) {
	entryID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	entry, err := h.moderation.Resolve(c.Request.Context(), entryID, req.ModeratorID, *req.Approve)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *PipelineHandler) releaseModeration(c *gin.Context) {
	entryID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	if err := h.moderation.Release(c.Request.Context(), entryID, req.ModeratorID); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "released"})
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Message: "Invalid " + name + " format"})
		return uuid.Nil, false
	}
	return id, true
}
