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

const projectFields = `id, child_id, template_type, variables, status, created_at, updated_at`

type PgProjectRepository struct {
	db *pgxpool.Pool
}

func NewPgProjectRepository(db *pgxpool.Pool) *PgProjectRepository {
	if db == nil {
		log.Fatal().Msg("Database pool is nil for PgProjectRepository")
	}
	return &PgProjectRepository{db: db}
}

func (r *PgProjectRepository) Create(ctx context.Context, project *models.StoryProject) error {
	query := `INSERT INTO story_projects (child_id, template_type, variables, status)
	          VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		project.ChildID, project.TemplateType, project.Variables, project.Status,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		log.Error().Err(err).Str("child_id", project.ChildID.String()).Msg("Failed to create story project")
		return fmt.Errorf("failed to create story project: %w", err)
	}
	log.Info().Str("project_id", project.ID.String()).Str("template", project.TemplateType).Msg("Story project created")
	return nil
}

func (r *PgProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StoryProject, error) {
	query := fmt.Sprintf(`SELECT %s FROM story_projects WHERE id = $1`, projectFields)
	var p models.StoryProject
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.ChildID, &p.TemplateType, &p.Variables, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProjectNotFound
		}
		log.Error().Err(err).Str("project_id", id.String()).Msg("Failed to get story project")
		return nil, fmt.Errorf("failed to get story project: %w", err)
	}
	return &p, nil
}

func (r *PgProjectRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProjectStatus) error {
	query := `UPDATE story_projects SET status = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		log.Error().Err(err).Str("project_id", id.String()).Msg("Failed to update project status")
		return fmt.Errorf("failed to update project status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProjectNotFound
	}
	return nil
}

func (r *PgProjectRepository) UpdateVariables(ctx context.Context, id uuid.UUID, variables map[string]string) error {
	query := `UPDATE story_projects SET variables = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, variables, id)
	if err != nil {
		log.Error().Err(err).Str("project_id", id.String()).Msg("Failed to update project variables")
		return fmt.Errorf("failed to update project variables: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProjectNotFound
	}
	return nil
}

// CASStatus is the conditional write used for the single-writer stage
// transitions (e.g. ready_to_render -> rendering on submit).
func (r *PgProjectRepository) CASStatus(ctx context.Context, id uuid.UUID, from, to models.ProjectStatus) (bool, error) {
	query := `UPDATE story_projects SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	tag, err := r.db.Exec(ctx, query, to, id, from)
	if err != nil {
		log.Error().Err(err).Str("project_id", id.String()).Msg("Failed to CAS project status")
		return false, fmt.Errorf("failed to update project status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

var _ ProjectRepository = (*PgProjectRepository)(nil)

type PgChildRepository struct {
	db *pgxpool.Pool
}

func NewPgChildRepository(db *pgxpool.Pool) *PgChildRepository {
	if db == nil {
		log.Fatal().Msg("Database pool is nil for PgChildRepository")
	}
	return &PgChildRepository{db: db}
}

func (r *PgChildRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Child, error) {
	var c models.Child
	err := r.db.QueryRow(ctx, `SELECT id, name, created_at FROM children WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrChildNotFound
		}
		log.Error().Err(err).Str("child_id", id.String()).Msg("Failed to get child")
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return &c, nil
}

var _ ChildRepository = (*PgChildRepository)(nil)
