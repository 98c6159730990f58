package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyreel-server/internal/messaging"
	"storyreel-server/internal/models"
	"storyreel-server/internal/planner"
	"storyreel-server/internal/provider"
	"storyreel-server/internal/repository"
	"storyreel-server/internal/storage"
)

// GenerationService is the AssetGenerator: it dispatches one prompt to the
// provider selected by asset kind, wraps the attempt in a durable job record
// and materializes an Asset on success. Calls for different slots are fully
// independent; no lock is held across a provider call.
type GenerationService struct {
	projects  repository.ProjectRepository
	prompts   repository.PromptRepository
	assets    repository.AssetRepository
	jobs      repository.GenerationJobRepository
	library   repository.LibraryAssetRepository
	images    provider.ImageProvider
	speech    provider.SpeechProvider
	media     storage.MediaStore
	publisher messaging.EventPublisher
	logger    *zap.Logger

	concurrency int
}

func NewGenerationService(
	projects repository.ProjectRepository,
	prompts repository.PromptRepository,
	assets repository.AssetRepository,
	jobs repository.GenerationJobRepository,
	library repository.LibraryAssetRepository,
	images provider.ImageProvider,
	speech provider.SpeechProvider,
	media storage.MediaStore,
	publisher messaging.EventPublisher,
	concurrency int,
	logger *zap.Logger,
) *GenerationService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &GenerationService{
		projects:    projects,
		prompts:     prompts,
		assets:      assets,
		jobs:        jobs,
		library:     library,
		images:      images,
		speech:      speech,
		media:       media,
		publisher:   publisher,
		concurrency: concurrency,
		logger:      logger.Named("GenerationService"),
	}
}

// Generate runs one generation attempt for one slot. A retry is simply
// another call: it creates a fresh job and a fresh asset, never reusing the
// failed ones. On provider failure the returned job carries the failed status
// and the provider's raw error text; the error is returned alongside it.
func (s *GenerationService) Generate(ctx context.Context, projectID uuid.UUID, slotKey string) (*models.AssetGenerationJob, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	slot, err := planner.SlotFor(project.TemplateType, slotKey)
	if err != nil {
		return nil, err
	}

	if slot.Reusable {
		return s.generateFromLibrary(ctx, project, slot)
	}

	prompt, err := s.prompts.Latest(ctx, projectID, slotKey)
	if err != nil {
		if err == models.ErrPromptNotFound {
			return nil, models.ErrPromptNotReady
		}
		return nil, err
	}
	if prompt.Status != models.PromptStatusCompleted {
		return nil, models.ErrPromptNotReady
	}

	asset := &models.Asset{
		ProjectID: projectID,
		SlotKey:   slotKey,
		Kind:      slot.Kind,
		Status:    models.AssetStatusGenerating,
		SafeZone:  prompt.SafeZone,
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, err
	}

	job := &models.AssetGenerationJob{
		ProjectID: projectID,
		PromptID:  &prompt.ID,
		AssetID:   &asset.ID,
		SlotKey:   slotKey,
		Status:    models.JobStatusPending,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	// First generation attempt moves the project out of prompts_ready.
	if _, err := s.projects.CASStatus(ctx, projectID, models.ProjectStatusPromptsReady, models.ProjectStatusGenerating); err != nil {
		s.logger.Warn("Failed to advance project status", zap.String("projectID", projectID.String()), zap.Error(err))
	}

	started := time.Now()
	media, genErr := s.callProvider(ctx, slot.Kind, prompt)
	generationDuration.Observe(time.Since(started).Seconds())

	if genErr != nil {
		return s.failJob(ctx, job, asset, genErr, "error_provider")
	}

	url, err := s.media.Save(asset.ID.String(), media.ContentType, media.Data)
	if err != nil {
		return s.failJob(ctx, job, asset, err, "error_store")
	}

	if err := s.assets.MarkPendingReview(ctx, asset.ID, url, media.Meta); err != nil {
		// The media is stored but the asset row could not advance; the job
		// must still reach a terminal state instead of dangling pending.
		return s.failJob(ctx, job, asset, err, "error_store")
	}
	if err := s.jobs.MarkCompleted(ctx, job.ID, asset.ID); err != nil {
		// The job was superseded while the provider call was in flight
		// (abandoned attempt); the late result is dropped.
		s.logger.Warn("Dropping late generation result", zap.String("jobID", job.ID.String()), zap.Error(err))
		return s.jobs.GetByID(ctx, job.ID)
	}
	job.Status = models.JobStatusCompleted
	asset.Status = models.AssetStatusPendingReview
	asset.StorageURL = url

	assetsGenerated.WithLabelValues(string(slot.Kind), "success").Inc()
	s.publishEvent(ctx, messaging.PipelineEvent{
		Type:      messaging.EventAssetGenerated,
		ProjectID: projectID.String(),
		SlotKey:   slotKey,
		JobID:     job.ID.String(),
		EntityID:  asset.ID.String(),
	})

	s.logger.Info("Asset generated",
		zap.String("projectID", projectID.String()),
		zap.String("slot", slotKey),
		zap.String("assetID", asset.ID.String()))
	return job, nil
}

// generateFromLibrary satisfies a reusable slot (shared background music) by
// copying the pre-approved library asset reference instead of calling a
// provider. The job record still exists for the audit trail.
func (s *GenerationService) generateFromLibrary(ctx context.Context, project *models.StoryProject, slot planner.SlotSpec) (*models.AssetGenerationJob, error) {
	libAsset, err := s.library.GetByRef(ctx, slot.LibraryRef)
	if err != nil {
		return nil, fmt.Errorf("library asset %q: %w", slot.LibraryRef, err)
	}

	meta, _ := json.Marshal(map[string]string{"libraryRef": libAsset.Ref})
	asset := &models.Asset{
		ProjectID:    project.ID,
		SlotKey:      slot.Key,
		Kind:         slot.Kind,
		Status:       models.AssetStatusApproved,
		StorageURL:   libAsset.StorageURL,
		ProviderMeta: meta,
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, err
	}

	job := &models.AssetGenerationJob{
		ProjectID: project.ID,
		AssetID:   &asset.ID,
		SlotKey:   slot.Key,
		Status:    models.JobStatusPending,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	if err := s.jobs.MarkCompleted(ctx, job.ID, asset.ID); err != nil {
		return nil, err
	}
	job.Status = models.JobStatusCompleted

	assetsGenerated.WithLabelValues(string(slot.Kind), "success").Inc()
	s.publishEvent(ctx, messaging.PipelineEvent{
		Type:      messaging.EventAssetGenerated,
		ProjectID: project.ID.String(),
		SlotKey:   slot.Key,
		JobID:     job.ID.String(),
		EntityID:  asset.ID.String(),
	})
	return job, nil
}

func (s *GenerationService) callProvider(ctx context.Context, kind models.AssetKind, prompt *models.Prompt) (*provider.GeneratedMedia, error) {
	switch kind {
	case models.AssetKindImage:
		return s.images.GenerateImage(ctx, prompt.PromptText)
	case models.AssetKindAudio:
		return s.speech.Synthesize(ctx, prompt.NarrationText)
	default:
		return nil, fmt.Errorf("%w: cannot generate kind %q", models.ErrInvalidInput, kind)
	}
}

// failJob records the failure on the job, retires the placeholder asset and
// leaves every sibling slot untouched.
func (s *GenerationService) failJob(ctx context.Context, job *models.AssetGenerationJob, asset *models.Asset, cause error, metricStatus string) (*models.AssetGenerationJob, error) {
	if err := s.jobs.MarkFailed(ctx, job.ID, cause.Error()); err != nil {
		s.logger.Error("Failed to record job failure", zap.String("jobID", job.ID.String()), zap.Error(err))
	}
	if err := s.assets.RejectFrom(ctx, asset.ID, models.AssetStatusGenerating); err != nil {
		s.logger.Error("Failed to retire placeholder asset", zap.String("assetID", asset.ID.String()), zap.Error(err))
	}
	job.Status = models.JobStatusFailed
	job.ErrorMessage = cause.Error()

	assetsGenerated.WithLabelValues(string(asset.Kind), metricStatus).Inc()
	s.publishEvent(ctx, messaging.PipelineEvent{
		Type:      messaging.EventAssetFailed,
		ProjectID: job.ProjectID.String(),
		SlotKey:   job.SlotKey,
		JobID:     job.ID.String(),
		Error:     cause.Error(),
	})

	s.logger.Error("Asset generation failed",
		zap.String("projectID", job.ProjectID.String()),
		zap.String("slot", job.SlotKey),
		zap.Error(cause))
	return job, fmt.Errorf("%w: %v", models.ErrProviderFailed, cause)
}

// SlotResult is the outcome of one slot in a batch generation call.
type SlotResult struct {
	SlotKey string
	Job     *models.AssetGenerationJob
	Err     error
}

// GenerateBatch fans out over the requested slots with bounded concurrency.
// A failed slot never aborts its siblings; every slot gets its own result.
func (s *GenerationService) GenerateBatch(ctx context.Context, projectID uuid.UUID, slots []string) []SlotResult {
	results := make([]SlotResult, len(slots))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, slotKey := range slots {
		wg.Add(1)
		go func(i int, slotKey string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			job, err := s.Generate(ctx, projectID, slotKey)
			results[i] = SlotResult{SlotKey: slotKey, Job: job, Err: err}
		}(i, slotKey)
	}
	wg.Wait()
	return results
}

func (s *GenerationService) publishEvent(ctx context.Context, event messaging.PipelineEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish pipeline event", zap.String("type", event.Type), zap.Error(err))
	}
}
