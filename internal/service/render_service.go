package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyreel-server/internal/messaging"
	"storyreel-server/internal/models"
	"storyreel-server/internal/planner"
	"storyreel-server/internal/provider"
	"storyreel-server/internal/repository"
)

// AssetsNotReadyError reports a render submission rejected because slots are
// still missing or unapproved. It unwraps to models.ErrAssetsNotReady.
type AssetsNotReadyError struct {
	MissingSlots []string
}

func (e *AssetsNotReadyError) Error() string {
	return fmt.Sprintf("project assets are not ready for render: missing %s", strings.Join(e.MissingSlots, ", "))
}

func (e *AssetsNotReadyError) Is(target error) bool {
	return target == models.ErrAssetsNotReady
}

// RenderCallback is one completion report from the render backend. The same
// callback may arrive more than once; processing is idempotent.
type RenderCallback struct {
	JobID     uuid.UUID
	Status    string // "completed" or "failed"
	OutputURL string
	Error     string
	Duration  int // seconds, completed renders only
}

// RenderService assembles the final render payload, submits it to the render
// backend and processes completion callbacks. The one-in-flight rule per
// project is enforced by the job store, not by this service.
type RenderService struct {
	projects  repository.ProjectRepository
	assets    repository.AssetRepository
	jobs      repository.VideoJobRepository
	videos    repository.ApprovedVideoRepository
	queue     repository.ModerationRepository
	readiness *ReadinessService
	backend   provider.RenderBackend
	publisher messaging.EventPublisher
	logger    *zap.Logger
}

func NewRenderService(
	projects repository.ProjectRepository,
	assets repository.AssetRepository,
	jobs repository.VideoJobRepository,
	videos repository.ApprovedVideoRepository,
	queue repository.ModerationRepository,
	readiness *ReadinessService,
	backend provider.RenderBackend,
	publisher messaging.EventPublisher,
	logger *zap.Logger,
) *RenderService {
	return &RenderService{
		projects:  projects,
		assets:    assets,
		jobs:      jobs,
		videos:    videos,
		queue:     queue,
		readiness: readiness,
		backend:   backend,
		publisher: publisher,
		logger:    logger.Named("RenderService"),
	}
}

// Submit validates readiness, records the job and hands the payload to the
// render backend. A second submission while one is pending or submitted fails
// with models.ErrAlreadyInFlight before anything reaches the backend.
func (s *RenderService) Submit(ctx context.Context, projectID uuid.UUID, submittedBy string) (*models.VideoGenerationJob, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	ready, err := s.readiness.Check(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !ready.Ready {
		rendersSubmitted.WithLabelValues("rejected").Inc()
		return nil, &AssetsNotReadyError{MissingSlots: ready.MissingSlots}
	}

	payload, err := s.buildPayload(ctx, project)
	if err != nil {
		return nil, err
	}

	job := &models.VideoGenerationJob{
		ProjectID:      projectID,
		TemplateType:   project.TemplateType,
		PayloadVersion: payload.Version,
		SubmittedBy:    submittedBy,
		Status:         models.JobStatusPending,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		if err == models.ErrAlreadyInFlight {
			rendersSubmitted.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}

	if _, err := s.projects.CASStatus(ctx, projectID, models.ProjectStatusReadyToRender, models.ProjectStatusRendering); err != nil {
		s.logger.Warn("Failed to advance project to rendering", zap.String("projectID", projectID.String()), zap.Error(err))
	}

	submission, err := s.backend.SubmitRender(ctx, *payload)
	if err != nil {
		if markErr := s.jobs.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			s.logger.Error("Failed to record submission failure", zap.String("jobID", job.ID.String()), zap.Error(markErr))
		}
		if _, casErr := s.projects.CASStatus(ctx, projectID, models.ProjectStatusRendering, models.ProjectStatusReadyToRender); casErr != nil {
			s.logger.Warn("Failed to roll project back to ready_to_render", zap.String("projectID", projectID.String()), zap.Error(casErr))
		}
		job.Status = models.JobStatusFailed
		job.ErrorMessage = err.Error()

		rendersSubmitted.WithLabelValues("rejected").Inc()
		s.publishEvent(ctx, messaging.PipelineEvent{
			Type:      messaging.EventRenderFailed,
			ProjectID: projectID.String(),
			JobID:     job.ID.String(),
			Error:     err.Error(),
		})
		return job, fmt.Errorf("%w: %v", models.ErrProviderFailed, err)
	}

	if err := s.jobs.MarkSubmitted(ctx, job.ID, submission.ExternalRenderID, submission.ProvisionalOutputURL); err != nil {
		// The external id could not be persisted; a job left pending here
		// would hold the one-in-flight slot forever and its callback would
		// never match, so the job is terminated like a backend failure.
		if markErr := s.jobs.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			s.logger.Error("Failed to record submission failure", zap.String("jobID", job.ID.String()), zap.Error(markErr))
		}
		if _, casErr := s.projects.CASStatus(ctx, projectID, models.ProjectStatusRendering, models.ProjectStatusReadyToRender); casErr != nil {
			s.logger.Warn("Failed to roll project back to ready_to_render", zap.String("projectID", projectID.String()), zap.Error(casErr))
		}
		job.Status = models.JobStatusFailed
		job.ErrorMessage = err.Error()

		rendersSubmitted.WithLabelValues("rejected").Inc()
		s.publishEvent(ctx, messaging.PipelineEvent{
			Type:      messaging.EventRenderFailed,
			ProjectID: projectID.String(),
			JobID:     job.ID.String(),
			Error:     err.Error(),
		})
		return job, err
	}
	job.Status = models.JobStatusSubmitted
	job.ExternalRenderID = submission.ExternalRenderID
	job.OutputURL = submission.ProvisionalOutputURL

	rendersSubmitted.WithLabelValues("accepted").Inc()
	s.publishEvent(ctx, messaging.PipelineEvent{
		Type:      messaging.EventRenderSubmitted,
		ProjectID: projectID.String(),
		JobID:     job.ID.String(),
	})

	s.logger.Info("Render submitted",
		zap.String("projectID", projectID.String()),
		zap.String("jobID", job.ID.String()),
		zap.String("externalRenderID", submission.ExternalRenderID))
	return job, nil
}

// buildPayload assembles the fixed-shape render payload from the manifest's
// slot order and the approved asset URLs.
func (s *RenderService) buildPayload(ctx context.Context, project *models.StoryProject) (*provider.RenderPayload, error) {
	manifest, err := planner.ManifestFor(project.TemplateType)
	if err != nil {
		return nil, err
	}
	latest, err := s.assets.LatestPerSlot(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	slotOrder := make([]string, 0, len(manifest.Slots))
	slots := make(map[string]string, len(manifest.Slots))
	for _, slot := range manifest.Slots {
		asset, ok := latest[slot.Key]
		if !ok || asset.Status != models.AssetStatusApproved || asset.StorageURL == "" {
			// Readiness was checked just before; a slot can still regress
			// concurrently, so the payload build re-verifies.
			return nil, &AssetsNotReadyError{MissingSlots: []string{slot.Key}}
		}
		slotOrder = append(slotOrder, slot.Key)
		slots[slot.Key] = asset.StorageURL
	}

	return &provider.RenderPayload{
		ProjectID:    project.ID.String(),
		TemplateType: manifest.Type,
		Version:      manifest.Version,
		SlotOrder:    slotOrder,
		Slots:        slots,
	}, nil
}

// HandleCallback processes one completion report. Exactly one caller wins the
// submitted -> terminal transition; every duplicate is acknowledged without
// side effects, so retried callbacks never enqueue a video twice.
func (s *RenderService) HandleCallback(ctx context.Context, cb RenderCallback) error {
	job, err := s.jobs.GetByID(ctx, cb.JobID)
	if err != nil {
		return err
	}

	switch cb.Status {
	case "completed":
		outputURL := cb.OutputURL
		if outputURL == "" {
			outputURL = job.OutputURL
		}
		won, err := s.jobs.CompleteFromSubmitted(ctx, job.ID, outputURL)
		if err != nil {
			return err
		}
		if won {
			return s.finishCompleted(ctx, job, outputURL, cb.Duration)
		}
		// Losing the transition is usually a plain duplicate, but it is also
		// what a retry sees when an earlier winner crashed after completing
		// the job and before the video reached the moderation queue. That gap
		// must be closed here or the render is lost.
		current, err := s.jobs.GetByID(ctx, job.ID)
		if err != nil {
			return err
		}
		if current.Status == models.JobStatusCompleted {
			if _, err := s.videos.GetByJobID(ctx, current.ID); err != nil {
				if !errors.Is(err, models.ErrNotFound) {
					return err
				}
				s.logger.Warn("Finishing half-completed render", zap.String("jobID", current.ID.String()))
				return s.finishCompleted(ctx, current, current.OutputURL, cb.Duration)
			}
		}
		renderCallbacks.WithLabelValues("duplicate").Inc()
		s.logger.Info("Duplicate render callback ignored", zap.String("jobID", job.ID.String()))
		return nil

	case "failed":
		won, err := s.jobs.FailFromSubmitted(ctx, job.ID, cb.Error)
		if err != nil {
			return err
		}
		if !won {
			renderCallbacks.WithLabelValues("duplicate").Inc()
			s.logger.Info("Duplicate render callback ignored", zap.String("jobID", job.ID.String()))
			return nil
		}
		return s.finishFailed(ctx, job, cb.Error)

	default:
		return fmt.Errorf("%w: unknown callback status %q", models.ErrInvalidInput, cb.Status)
	}
}

func (s *RenderService) finishCompleted(ctx context.Context, job *models.VideoGenerationJob, outputURL string, duration int) error {
	project, err := s.projects.GetByID(ctx, job.ProjectID)
	if err != nil {
		return err
	}

	video := &models.ChildApprovedVideo{
		VideoJobID:      job.ID,
		ChildID:         project.ChildID,
		TemplateType:    job.TemplateType,
		ApprovalStatus:  models.ApprovalStatusPendingReview,
		OutputURL:       outputURL,
		DurationSeconds: duration,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		return err
	}

	entry := &models.ModerationQueueEntry{
		ApprovedVideoID: video.ID,
		Status:          models.ModerationStatusPending,
	}
	if err := s.queue.Enqueue(ctx, entry); err != nil {
		return err
	}

	if _, err := s.projects.CASStatus(ctx, job.ProjectID, models.ProjectStatusRendering, models.ProjectStatusCompleted); err != nil {
		s.logger.Warn("Failed to advance project to completed", zap.String("projectID", job.ProjectID.String()), zap.Error(err))
	}

	renderCallbacks.WithLabelValues("completed").Inc()
	s.publishEvent(ctx, messaging.PipelineEvent{
		Type:      messaging.EventRenderCompleted,
		ProjectID: job.ProjectID.String(),
		JobID:     job.ID.String(),
		EntityID:  video.ID.String(),
	})
	s.publishEvent(ctx, messaging.PipelineEvent{
		Type:      messaging.EventVideoEnqueued,
		ProjectID: job.ProjectID.String(),
		EntityID:  entry.ID.String(),
	})

	s.logger.Info("Render completed",
		zap.String("projectID", job.ProjectID.String()),
		zap.String("jobID", job.ID.String()),
		zap.String("videoID", video.ID.String()))
	return nil
}

func (s *RenderService) finishFailed(ctx context.Context, job *models.VideoGenerationJob, reason string) error {
	if _, err := s.projects.CASStatus(ctx, job.ProjectID, models.ProjectStatusRendering, models.ProjectStatusFailed); err != nil {
		s.logger.Warn("Failed to mark project failed", zap.String("projectID", job.ProjectID.String()), zap.Error(err))
	}

	renderCallbacks.WithLabelValues("failed").Inc()
	s.publishEvent(ctx, messaging.PipelineEvent{
		Type:      messaging.EventRenderFailed,
		ProjectID: job.ProjectID.String(),
		JobID:     job.ID.String(),
		Error:     reason,
	})

	s.logger.Warn("Render failed",
		zap.String("projectID", job.ProjectID.String()),
		zap.String("jobID", job.ID.String()),
		zap.String("reason", reason))
	return nil
}

// Reconcile polls the render backend for a submitted job and funnels the
// observed terminal state through the same idempotent path as callbacks.
// Intended for operators chasing a lost callback.
func (s *RenderService) Reconcile(ctx context.Context, jobID uuid.UUID) (*models.VideoGenerationJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusSubmitted {
		return job, nil
	}

	state, err := s.backend.GetRenderState(ctx, job.ExternalRenderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrProviderFailed, err)
	}

	switch state.Status {
	case "completed":
		if err := s.HandleCallback(ctx, RenderCallback{JobID: jobID, Status: "completed", OutputURL: state.OutputURL}); err != nil {
			return nil, err
		}
	case "failed":
		if err := s.HandleCallback(ctx, RenderCallback{JobID: jobID, Status: "failed", Error: state.Error}); err != nil {
			return nil, err
		}
	}
	return s.jobs.GetByID(ctx, jobID)
}

func (s *RenderService) publishEvent(ctx context.Context, event messaging.PipelineEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish pipeline event", zap.String("type", event.Type), zap.Error(err))
	}
}
