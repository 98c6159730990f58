package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"storyreel-server/internal/models"
)

type PgAssignmentRepository struct {
	db *pgxpool.Pool
}

func NewPgAssignmentRepository(db *pgxpool.Pool) *PgAssignmentRepository {
	if db == nil {
		log.Fatal().Msg("Database pool is nil for PgAssignmentRepository")
	}
	return &PgAssignmentRepository{db: db}
}

// Create inserts a new assignment. The partial unique index on
// (child_id, template_type) WHERE status <> 'rejected' makes the check
// atomic: of two concurrent assign calls exactly one succeeds.
func (r *PgAssignmentRepository) Create(ctx context.Context, assignment *models.ChildVideoAssignment) error {
	query := `INSERT INTO child_video_assignments (child_id, template_type, status, priority, due_date)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		assignment.ChildID, assignment.TemplateType, assignment.Status,
		assignment.Priority, assignment.DueDate,
	).Scan(&assignment.ID, &assignment.CreatedAt, &assignment.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return models.ErrAlreadyAssigned
		}
		log.Error().Err(err).Str("child_id", assignment.ChildID.String()).Str("template", assignment.TemplateType).Msg("Failed to create assignment")
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	log.Info().Str("assignment_id", assignment.ID.String()).Str("child_id", assignment.ChildID.String()).Msg("Assignment created")
	return nil
}

func (r *PgAssignmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AssignmentStatus) error {
	query := `UPDATE child_video_assignments SET status = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		log.Error().Err(err).Str("assignment_id", id.String()).Msg("Failed to update assignment status")
		return fmt.Errorf("failed to update assignment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrAssignmentNotFound
	}
	return nil
}

// MissingFor aggregates the dashboard report for one template type: children
// with no active assignment, or with an assignment but no approved video yet.
// Recomputed on demand, never maintained incrementally.
func (r *PgAssignmentRepository) MissingFor(ctx context.Context, templateType string) ([]models.MissingVideoReport, error) {
	query := `
	    SELECT c.id AS child_id,
	           c.name AS child_name,
	           $1::text AS template_type,
	           CASE WHEN a.id IS NULL THEN 'no_assignment' ELSE 'not_approved' END AS reason
	    FROM children c
	    LEFT JOIN child_video_assignments a
	      ON a.child_id = c.id AND a.template_type = $1 AND a.status <> 'rejected'
	    LEFT JOIN child_approved_videos v
	      ON v.child_id = c.id AND v.template_type = $1 AND v.approval_status = 'approved'
	    WHERE v.id IS NULL
	    ORDER BY c.name, c.id`
	var reports []models.MissingVideoReport
	if err := pgxscan.Select(ctx, r.db, &reports, query, templateType); err != nil {
		log.Error().Err(err).Str("template", templateType).Msg("Failed to compute missing assignments report")
		return nil, fmt.Errorf("failed to compute missing assignments report: %w", err)
	}
	return reports, nil
}

var _ AssignmentRepository = (*PgAssignmentRepository)(nil)

type PgLibraryAssetRepository struct {
	db *pgxpool.Pool
}

func NewPgLibraryAssetRepository(db *pgxpool.Pool) *PgLibraryAssetRepository {
	if db == nil {
		log.Fatal().Msg("Database pool is nil for PgLibraryAssetRepository")
	}
	return &PgLibraryAssetRepository{db: db}
}

func (r *PgLibraryAssetRepository) GetByRef(ctx context.Context, ref string) (*models.LibraryAsset, error) {
	var a models.LibraryAsset
	err := pgxscan.Get(ctx, r.db, &a,
		`SELECT id, ref, kind, storage_url, created_at FROM library_assets WHERE ref = $1`, ref)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrAssetNotFound
		}
		log.Error().Err(err).Str("ref", ref).Msg("Failed to get library asset")
		return nil, fmt.Errorf("failed to get library asset: %w", err)
	}
	return &a, nil
}

var _ LibraryAssetRepository = (*PgLibraryAssetRepository)(nil)
