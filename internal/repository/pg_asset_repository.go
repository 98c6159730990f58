package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"storyreel-server/internal/models"
)

const assetFields = `id, project_id, slot_key, kind, status, storage_url, safe_zone, title, tags, provider_meta, created_at, updated_at`

type PgAssetRepository struct {
	db *pgxpool.Pool
}

func NewPgAssetRepository(db *pgxpool.Pool) *PgAssetRepository {
	if db == nil {
		log.Fatal().Msg("Database pool is nil for PgAssetRepository")
	}
	return &PgAssetRepository{db: db}
}

func (r *PgAssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	if asset.Tags == nil {
		asset.Tags = []string{}
	}
	if asset.ProviderMeta == nil {
		asset.ProviderMeta = json.RawMessage(`{}`)
	}
	query := `INSERT INTO assets (project_id, slot_key, kind, status, storage_url, safe_zone, title, tags, provider_meta)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		asset.ProjectID, asset.SlotKey, asset.Kind, asset.Status,
		asset.StorageURL, asset.SafeZone, asset.Title, asset.Tags, asset.ProviderMeta,
	).Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		log.Error().Err(err).Str("project_id", asset.ProjectID.String()).Str("slot", asset.SlotKey).Msg("Failed to create asset")
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

func (r *PgAssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE id = $1`, assetFields)
	a, err := r.scanOne(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAssetNotFound
		}
		log.Error().Err(err).Str("asset_id", id.String()).Msg("Failed to get asset")
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return a, nil
}

func (r *PgAssetRepository) MarkPendingReview(ctx context.Context, id uuid.UUID, storageURL string, providerMeta json.RawMessage) error {
	if providerMeta == nil {
		providerMeta = json.RawMessage(`{}`)
	}
	query := `UPDATE assets SET status = $1, storage_url = $2, provider_meta = $3, updated_at = NOW()
	          WHERE id = $4 AND status = $5`
	tag, err := r.db.Exec(ctx, query,
		models.AssetStatusPendingReview, storageURL, providerMeta, id, models.AssetStatusGenerating)
	if err != nil {
		log.Error().Err(err).Str("asset_id", id.String()).Msg("Failed to mark asset pending_review")
		return fmt.Errorf("failed to mark asset pending_review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInvalidTransition
	}
	return nil
}

// Approve rewrites cosmetic metadata atomically with the status change.
// COALESCE/NULLIF keeps the existing value when the reviewer left a field empty.
func (r *PgAssetRepository) Approve(ctx context.Context, id uuid.UUID, meta models.ReviewMetadata) error {
	query := `UPDATE assets SET
	            status = $1,
	            title = COALESCE(NULLIF($2, ''), title),
	            safe_zone = COALESCE(NULLIF($3, ''), safe_zone),
	            tags = CASE WHEN $4::text[] IS NULL THEN tags ELSE $4::text[] END,
	            updated_at = NOW()
	          WHERE id = $5 AND status = $6`
	var tags []string
	if meta.Tags != nil {
		tags = meta.Tags
	}
	tag, err := r.db.Exec(ctx, query,
		models.AssetStatusApproved, meta.Title, meta.SafeZone, tags, id, models.AssetStatusPendingReview)
	if err != nil {
		log.Error().Err(err).Str("asset_id", id.String()).Msg("Failed to approve asset")
		return fmt.Errorf("failed to approve asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInvalidTransition
	}
	log.Info().Str("asset_id", id.String()).Msg("Asset approved")
	return nil
}

func (r *PgAssetRepository) RejectFrom(ctx context.Context, id uuid.UUID, from models.AssetStatus) error {
	query := `UPDATE assets SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	tag, err := r.db.Exec(ctx, query, models.AssetStatusRejected, id, from)
	if err != nil {
		log.Error().Err(err).Str("asset_id", id.String()).Msg("Failed to reject asset")
		return fmt.Errorf("failed to reject asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInvalidTransition
	}
	log.Info().Str("asset_id", id.String()).Msg("Asset rejected")
	return nil
}

// LatestPerSlot feeds the readiness aggregation: for each slot, the newest
// asset that has not been rejected. Rejected rows stay for audit but never
// count.
func (r *PgAssetRepository) LatestPerSlot(ctx context.Context, projectID uuid.UUID) (map[string]*models.Asset, error) {
	query := fmt.Sprintf(`SELECT DISTINCT ON (slot_key) %s FROM assets
	          WHERE project_id = $1 AND status <> $2
	          ORDER BY slot_key, created_at DESC, id DESC`, assetFields)
	rows, err := r.db.Query(ctx, query, projectID, models.AssetStatusRejected)
	if err != nil {
		log.Error().Err(err).Str("project_id", projectID.String()).Msg("Failed to query latest assets per slot")
		return nil, fmt.Errorf("failed to query latest assets per slot: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*models.Asset)
	for rows.Next() {
		a, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset row: %w", err)
		}
		result[a.SlotKey] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate asset rows: %w", err)
	}
	return result, nil
}

func (r *PgAssetRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE project_id = $1 ORDER BY created_at`, assetFields)
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		log.Error().Err(err).Str("project_id", projectID.String()).Msg("Failed to list assets")
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		a, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset row: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate asset rows: %w", err)
	}
	return assets, nil
}

func (r *PgAssetRepository) scanOne(row pgx.Row) (*models.Asset, error) {
	var a models.Asset
	err := row.Scan(
		&a.ID, &a.ProjectID, &a.SlotKey, &a.Kind, &a.Status,
		&a.StorageURL, &a.SafeZone, &a.Title, &a.Tags, &a.ProviderMeta,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

var _ AssetRepository = (*PgAssetRepository)(nil)
