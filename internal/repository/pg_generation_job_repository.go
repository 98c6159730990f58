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

const generationJobFields = `id, project_id, prompt_id, asset_id, slot_key, status, error_message, created_at, finished_at`

type PgGenerationJobRepository struct {
	db *pgxpool.Pool
}

func NewPgGenerationJobRepository(db *pgxpool.Pool) *PgGenerationJobRepository {
	if db == nil {
		log.Fatal().Msg("Database pool is nil for PgGenerationJobRepository")
	}
	return &PgGenerationJobRepository{db: db}
}

func (r *PgGenerationJobRepository) Create(ctx context.Context, job *models.AssetGenerationJob) error {
	query := `INSERT INTO asset_generation_jobs (project_id, prompt_id, asset_id, slot_key, status)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		job.ProjectID, job.PromptID, job.AssetID, job.SlotKey, job.Status,
	).Scan(&job.ID, &job.CreatedAt)
	if err != nil {
		log.Error().Err(err).Str("project_id", job.ProjectID.String()).Str("slot", job.SlotKey).Msg("Failed to create generation job")
		return fmt.Errorf("failed to create generation job: %w", err)
	}
	return nil
}

func (r *PgGenerationJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AssetGenerationJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM asset_generation_jobs WHERE id = $1`, generationJobFields)
	var j models.AssetGenerationJob
	err := r.db.QueryRow(ctx, query, id).Scan(
		&j.ID, &j.ProjectID, &j.PromptID, &j.AssetID, &j.SlotKey,
		&j.Status, &j.ErrorMessage, &j.CreatedAt, &j.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrJobNotFound
		}
		log.Error().Err(err).Str("job_id", id.String()).Msg("Failed to get generation job")
		return nil, fmt.Errorf("failed to get generation job: %w", err)
	}
	return &j, nil
}

func (r *PgGenerationJobRepository) MarkCompleted(ctx context.Context, id, assetID uuid.UUID) error {
	query := `UPDATE asset_generation_jobs SET status = $1, asset_id = $2, finished_at = NOW()
	          WHERE id = $3 AND status = $4`
	tag, err := r.db.Exec(ctx, query, models.JobStatusCompleted, assetID, id, models.JobStatusPending)
	if err != nil {
		log.Error().Err(err).Str("job_id", id.String()).Msg("Failed to mark generation job completed")
		return fmt.Errorf("failed to mark generation job completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Abandoned attempt finishing late: the job has already been
		// superseded, so the result is dropped.
		return models.ErrInvalidTransition
	}
	return nil
}

// MarkFailed records the provider's raw error text on the job so failures
// stay diagnosable even when the caller drops the response.
func (r *PgGenerationJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `UPDATE asset_generation_jobs SET status = $1, error_message = $2, finished_at = NOW()
	          WHERE id = $3 AND status = $4`
	tag, err := r.db.Exec(ctx, query, models.JobStatusFailed, errorMessage, id, models.JobStatusPending)
	if err != nil {
		log.Error().Err(err).Str("job_id", id.String()).Msg("Failed to mark generation job failed")
		return fmt.Errorf("failed to mark generation job failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInvalidTransition
	}
	return nil
}

var _ GenerationJobRepository = (*PgGenerationJobRepository)(nil)
