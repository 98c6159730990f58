package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"storyreel-server/internal/models"
)

const videoJobFields = `id, project_id, template_type, payload_version, submitted_by, status, external_render_id, output_url, error_message, created_at, updated_at`

type PgVideoJobRepository struct {
	db *pgxpool.Pool
}

func NewPgVideoJobRepository(db *pgxpool.Pool) *PgVideoJobRepository {
	if db == nil {
		log.Fatal().Msg("Database pool is nil for PgVideoJobRepository")
	}
	return &PgVideoJobRepository{db: db}
}

// Create inserts a pending render job. The partial unique index on
// (project_id) WHERE status IN ('pending','submitted') makes the second of
// two concurrent submissions fail atomically instead of racing a pre-check.
func (r *PgVideoJobRepository) Create(ctx context.Context, job *models.VideoGenerationJob) error {
	query := `INSERT INTO video_generation_jobs (project_id, template_type, payload_version, submitted_by, status)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		job.ProjectID, job.TemplateType, job.PayloadVersion, job.SubmittedBy, job.Status,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return models.ErrAlreadyInFlight
		}
		log.Error().Err(err).Str("project_id", job.ProjectID.String()).Msg("Failed to create video job")
		return fmt.Errorf("failed to create video job: %w", err)
	}
	log.Info().Str("job_id", job.ID.String()).Str("project_id", job.ProjectID.String()).Msg("Video job created")
	return nil
}

func (r *PgVideoJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.VideoGenerationJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM video_generation_jobs WHERE id = $1`, videoJobFields)
	var j models.VideoGenerationJob
	err := r.db.QueryRow(ctx, query, id).Scan(
		&j.ID, &j.ProjectID, &j.TemplateType, &j.PayloadVersion, &j.SubmittedBy,
		&j.Status, &j.ExternalRenderID, &j.OutputURL, &j.ErrorMessage,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrJobNotFound
		}
		log.Error().Err(err).Str("job_id", id.String()).Msg("Failed to get video job")
		return nil, fmt.Errorf("failed to get video job: %w", err)
	}
	return &j, nil
}

func (r *PgVideoJobRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, externalRenderID, provisionalURL string) error {
	query := `UPDATE video_generation_jobs SET status = $1, external_render_id = $2, output_url = $3, updated_at = NOW()
	          WHERE id = $4 AND status = $5`
	tag, err := r.db.Exec(ctx, query,
		models.JobStatusSubmitted, externalRenderID, provisionalURL, id, models.JobStatusPending)
	if err != nil {
		log.Error().Err(err).Str("job_id", id.String()).Msg("Failed to mark video job submitted")
		return fmt.Errorf("failed to mark video job submitted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInvalidTransition
	}
	return nil
}

// MarkFailed terminates a pending job after a failed backend submission.
func (r *PgVideoJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `UPDATE video_generation_jobs SET status = $1, error_message = $2, updated_at = NOW()
	          WHERE id = $3 AND status IN ($4, $5)`
	tag, err := r.db.Exec(ctx, query,
		models.JobStatusFailed, errorMessage, id, models.JobStatusPending, models.JobStatusSubmitted)
	if err != nil {
		log.Error().Err(err).Str("job_id", id.String()).Msg("Failed to mark video job failed")
		return fmt.Errorf("failed to mark video job failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInvalidTransition
	}
	return nil
}

// CompleteFromSubmitted is the idempotent completion transition: only the
// first delivery of a terminal callback flips the row, repeats see zero rows.
func (r *PgVideoJobRepository) CompleteFromSubmitted(ctx context.Context, id uuid.UUID, outputURL string) (bool, error) {
	query := `UPDATE video_generation_jobs SET status = $1, output_url = $2, updated_at = NOW()
	          WHERE id = $3 AND status = $4`
	tag, err := r.db.Exec(ctx, query, models.JobStatusCompleted, outputURL, id, models.JobStatusSubmitted)
	if err != nil {
		log.Error().Err(err).Str("job_id", id.String()).Msg("Failed to complete video job")
		return false, fmt.Errorf("failed to complete video job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgVideoJobRepository) FailFromSubmitted(ctx context.Context, id uuid.UUID, errorMessage string) (bool, error) {
	query := `UPDATE video_generation_jobs SET status = $1, error_message = $2, updated_at = NOW()
	          WHERE id = $3 AND status = $4`
	tag, err := r.db.Exec(ctx, query, models.JobStatusFailed, errorMessage, id, models.JobStatusSubmitted)
	if err != nil {
		log.Error().Err(err).Str("job_id", id.String()).Msg("Failed to fail video job")
		return false, fmt.Errorf("failed to fail video job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

var _ VideoJobRepository = (*PgVideoJobRepository)(nil)
