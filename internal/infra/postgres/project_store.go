package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"overlay-timeline-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ProjectStore loads and saves project JSONB in Postgres.
type ProjectStore struct {
	pool *pgxpool.Pool
}

func NewProjectStore(pool *pgxpool.Pool) *ProjectStore {
	return &ProjectStore{pool: pool}
}

func (s *ProjectStore) LoadProject(ctx context.Context, projectID string) (domain.Project, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM projects WHERE id=$1`, projectID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Project{}, domain.ErrProjectNotFound
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("load project: %w", err)
	}
	var project domain.Project
	if err := json.Unmarshal(raw, &project); err != nil {
		return domain.Project{}, fmt.Errorf("unmarshal project: %w", err)
	}
	if project.ID == "" {
		project.ID = projectID
	}
	return project, nil
}

func (s *ProjectStore) SaveProject(ctx context.Context, project domain.Project) error {
	raw, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO projects (id, data, updated_at) VALUES ($1, $2::jsonb, $3)
		 ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data, updated_at=EXCLUDED.updated_at`,
		project.ID, raw, project.Timestamp)
	if err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

func (s *ProjectStore) ClearProject(ctx context.Context, projectID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id=$1`, projectID); err != nil {
		return fmt.Errorf("clear project: %w", err)
	}
	return nil
}
