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

const moderationFields = `id, approved_video_id, priority, status, claimed_by, created_at, updated_at`

type PgModerationRepository struct {
	db *pgxpool.Pool
}

func NewPgModerationRepository(db *pgxpool.Pool) *PgModerationRepository {
	if db == nil {
		log.Fatal().Msg("Database pool is nil for PgModerationRepository")
	}
	return &PgModerationRepository{db: db}
}

// Enqueue is idempotent per video (approved_video_id is unique): a retried
// render completion re-enqueueing the same video loads the existing entry.
func (r *PgModerationRepository) Enqueue(ctx context.Context, entry *models.ModerationQueueEntry) error {
	query := `INSERT INTO moderation_queue (approved_video_id, priority, status)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (approved_video_id) DO NOTHING
	          RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		entry.ApprovedVideoID, entry.Priority, entry.Status,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		existQuery := fmt.Sprintf(`SELECT %s FROM moderation_queue WHERE approved_video_id = $1`, moderationFields)
		var e models.ModerationQueueEntry
		scanErr := r.db.QueryRow(ctx, existQuery, entry.ApprovedVideoID).Scan(
			&e.ID, &e.ApprovedVideoID, &e.Priority, &e.Status, &e.ClaimedBy,
			&e.CreatedAt, &e.UpdatedAt,
		)
		if scanErr != nil {
			log.Error().Err(scanErr).Str("approved_video_id", entry.ApprovedVideoID.String()).Msg("Failed to load existing moderation entry")
			return fmt.Errorf("failed to load existing moderation entry: %w", scanErr)
		}
		*entry = e
		return nil
	}
	if err != nil {
		log.Error().Err(err).Str("approved_video_id", entry.ApprovedVideoID.String()).Msg("Failed to enqueue moderation entry")
		return fmt.Errorf("failed to enqueue moderation entry: %w", err)
	}
	log.Info().Str("entry_id", entry.ID.String()).Msg("Moderation entry enqueued")
	return nil
}

func (r *PgModerationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ModerationQueueEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM moderation_queue WHERE id = $1`, moderationFields)
	var e models.ModerationQueueEntry
	err := r.db.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.ApprovedVideoID, &e.Priority, &e.Status, &e.ClaimedBy,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrEntryNotFound
		}
		log.Error().Err(err).Str("entry_id", id.String()).Msg("Failed to get moderation entry")
		return nil, fmt.Errorf("failed to get moderation entry: %w", err)
	}
	return &e, nil
}

// ClaimNext hands the highest-priority pending entry to the moderator.
// SKIP LOCKED keeps two concurrent claims from blocking each other or
// grabbing the same row.
func (r *PgModerationRepository) ClaimNext(ctx context.Context, moderatorID string) (*models.ModerationQueueEntry, error) {
	query := fmt.Sprintf(`UPDATE moderation_queue SET status = $1, claimed_by = $2, updated_at = NOW()
	          WHERE id = (
	              SELECT id FROM moderation_queue
	              WHERE status = $3
	              ORDER BY priority DESC, created_at
	              FOR UPDATE SKIP LOCKED
	              LIMIT 1
	          )
	          RETURNING %s`, moderationFields)
	var e models.ModerationQueueEntry
	err := r.db.QueryRow(ctx, query,
		models.ModerationStatusInReview, moderatorID, models.ModerationStatusPending,
	).Scan(
		&e.ID, &e.ApprovedVideoID, &e.Priority, &e.Status, &e.ClaimedBy,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrQueueEmpty
		}
		log.Error().Err(err).Str("moderator", moderatorID).Msg("Failed to claim moderation entry")
		return nil, fmt.Errorf("failed to claim moderation entry: %w", err)
	}
	log.Info().Str("entry_id", e.ID.String()).Str("moderator", moderatorID).Msg("Moderation entry claimed")
	return &e, nil
}

func (r *PgModerationRepository) Release(ctx context.Context, id uuid.UUID, moderatorID string) error {
	query := `UPDATE moderation_queue SET status = $1, claimed_by = '', updated_at = NOW()
	          WHERE id = $2 AND status = $3 AND claimed_by = $4`
	tag, err := r.db.Exec(ctx, query, models.ModerationStatusPending, id, models.ModerationStatusInReview, moderatorID)
	if err != nil {
		log.Error().Err(err).Str("entry_id", id.String()).Msg("Failed to release moderation entry")
		return fmt.Errorf("failed to release moderation entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotClaimOwner
	}
	return nil
}

func (r *PgModerationRepository) Resolve(ctx context.Context, id uuid.UUID, moderatorID string) (*models.ModerationQueueEntry, error) {
	query := fmt.Sprintf(`UPDATE moderation_queue SET status = $1, updated_at = NOW()
	          WHERE id = $2 AND status = $3 AND claimed_by = $4
	          RETURNING %s`, moderationFields)
	var e models.ModerationQueueEntry
	err := r.db.QueryRow(ctx, query,
		models.ModerationStatusResolved, id, models.ModerationStatusInReview, moderatorID,
	).Scan(
		&e.ID, &e.ApprovedVideoID, &e.Priority, &e.Status, &e.ClaimedBy,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotClaimOwner
		}
		log.Error().Err(err).Str("entry_id", id.String()).Msg("Failed to resolve moderation entry")
		return nil, fmt.Errorf("failed to resolve moderation entry: %w", err)
	}
	log.Info().Str("entry_id", id.String()).Str("moderator", moderatorID).Msg("Moderation entry resolved")
	return &e, nil
}

var _ ModerationRepository = (*PgModerationRepository)(nil)
