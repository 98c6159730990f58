package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"storyreel-server/internal/models"
)

const approvedVideoFields = `id, video_job_id, child_id, template_type, approval_status, output_url, duration_seconds, created_at, updated_at`

type PgApprovedVideoRepository struct {
	db *pgxpool.Pool
}

func NewPgApprovedVideoRepository(db *pgxpool.Pool) *PgApprovedVideoRepository {
	if db == nil {
		log.Fatal().Msg("Database pool is nil for PgApprovedVideoRepository")
	}
	return &PgApprovedVideoRepository{db: db}
}

func (r *PgApprovedVideoRepository) Create(ctx context.Context, video *models.ChildApprovedVideo) error {
	query := `INSERT INTO child_approved_videos (video_job_id, child_id, template_type, approval_status, output_url, duration_seconds)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (video_job_id) DO NOTHING
	          RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		video.VideoJobID, video.ChildID, video.TemplateType,
		video.ApprovalStatus, video.OutputURL, video.DurationSeconds,
	).Scan(&video.ID, &video.CreatedAt, &video.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// The job's video already exists (retried completion); reuse it.
		existing, getErr := r.GetByJobID(ctx, video.VideoJobID)
		if getErr != nil {
			return getErr
		}
		*video = *existing
		return nil
	}
	if err != nil {
		log.Error().Err(err).Str("video_job_id", video.VideoJobID.String()).Msg("Failed to create approved video")
		return fmt.Errorf("failed to create approved video: %w", err)
	}
	log.Info().Str("video_id", video.ID.String()).Str("child_id", video.ChildID.String()).Msg("Approved video record created")
	return nil
}

func (r *PgApprovedVideoRepository) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.ChildApprovedVideo, error) {
	query := fmt.Sprintf(`SELECT %s FROM child_approved_videos WHERE video_job_id = $1`, approvedVideoFields)
	var v models.ChildApprovedVideo
	err := r.db.QueryRow(ctx, query, jobID).Scan(
		&v.ID, &v.VideoJobID, &v.ChildID, &v.TemplateType,
		&v.ApprovalStatus, &v.OutputURL, &v.DurationSeconds,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		log.Error().Err(err).Str("video_job_id", jobID.String()).Msg("Failed to get approved video by job")
		return nil, fmt.Errorf("failed to get approved video by job: %w", err)
	}
	return &v, nil
}

func (r *PgApprovedVideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ChildApprovedVideo, error) {
	query := fmt.Sprintf(`SELECT %s FROM child_approved_videos WHERE id = $1`, approvedVideoFields)
	var v models.ChildApprovedVideo
	err := r.db.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.VideoJobID, &v.ChildID, &v.TemplateType,
		&v.ApprovalStatus, &v.OutputURL, &v.DurationSeconds,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		log.Error().Err(err).Str("video_id", id.String()).Msg("Failed to get approved video")
		return nil, fmt.Errorf("failed to get approved video: %w", err)
	}
	return &v, nil
}

func (r *PgApprovedVideoRepository) UpdateApproval(ctx context.Context, id uuid.UUID, status models.ApprovalStatus) error {
	query := `UPDATE child_approved_videos SET approval_status = $1, updated_at = NOW()
	          WHERE id = $2 AND approval_status = $3`
	tag, err := r.db.Exec(ctx, query, status, id, models.ApprovalStatusPendingReview)
	if err != nil {
		log.Error().Err(err).Str("video_id", id.String()).Msg("Failed to update video approval")
		return fmt.Errorf("failed to update video approval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInvalidTransition
	}
	return nil
}

var _ ApprovedVideoRepository = (*PgApprovedVideoRepository)(nil)
