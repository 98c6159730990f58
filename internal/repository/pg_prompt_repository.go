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

const promptFields = `id, project_id, slot_key, asset_kind, prompt_text, narration_text, safe_zone, status, created_at`

type PgPromptRepository struct {
	db *pgxpool.Pool
}

func NewPgPromptRepository(db *pgxpool.Pool) *PgPromptRepository {
	if db == nil {
		log.Fatal().Msg("Database pool is nil for PgPromptRepository")
	}
	return &PgPromptRepository{db: db}
}

// Save appends a new prompt row. Prior prompts for the same slot are never
// mutated; regeneration simply inserts a newer row.
func (r *PgPromptRepository) Save(ctx context.Context, prompt *models.Prompt) error {
	query := `INSERT INTO prompts (project_id, slot_key, asset_kind, prompt_text, narration_text, safe_zone, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		prompt.ProjectID, prompt.SlotKey, prompt.AssetKind,
		prompt.PromptText, prompt.NarrationText, prompt.SafeZone, prompt.Status,
	).Scan(&prompt.ID, &prompt.CreatedAt)
	if err != nil {
		log.Error().Err(err).Str("project_id", prompt.ProjectID.String()).Str("slot", prompt.SlotKey).Msg("Failed to save prompt")
		return fmt.Errorf("failed to save prompt: %w", err)
	}
	log.Info().Str("prompt_id", prompt.ID.String()).Str("slot", prompt.SlotKey).Msg("Prompt saved")
	return nil
}

// Latest resolves the "latest wins" rule for a slot: newest created_at, ties
// broken by id, so regeneration deterministically shadows older prompts.
func (r *PgPromptRepository) Latest(ctx context.Context, projectID uuid.UUID, slotKey string) (*models.Prompt, error) {
	query := fmt.Sprintf(`SELECT %s FROM prompts WHERE project_id = $1 AND slot_key = $2
	          ORDER BY created_at DESC, id DESC LIMIT 1`, promptFields)
	var p models.Prompt
	err := r.db.QueryRow(ctx, query, projectID, slotKey).Scan(
		&p.ID, &p.ProjectID, &p.SlotKey, &p.AssetKind,
		&p.PromptText, &p.NarrationText, &p.SafeZone, &p.Status, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPromptNotFound
		}
		log.Error().Err(err).Str("project_id", projectID.String()).Str("slot", slotKey).Msg("Failed to get latest prompt")
		return nil, fmt.Errorf("failed to get latest prompt: %w", err)
	}
	return &p, nil
}

var _ PromptRepository = (*PgPromptRepository)(nil)
