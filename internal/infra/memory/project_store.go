package memory

import (
	"context"
	"sync"

	"overlay-timeline-service/internal/domain"
)

// ProjectStore is an in-memory persistence adapter: loader and saver over
// the same map. It backs demo mode, where the service runs without Redis
// or Postgres and projects live only for the process lifetime.
type ProjectStore struct {
	mu       sync.RWMutex
	projects map[string]domain.Project
}

func NewProjectStore(seed map[string]domain.Project) *ProjectStore {
	projects := make(map[string]domain.Project, len(seed))
	for id, project := range seed {
		projects[id] = project
	}
	return &ProjectStore{projects: projects}
}

func (s *ProjectStore) LoadProject(_ context.Context, projectID string) (domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if project, ok := s.projects[projectID]; ok {
		return project, nil
	}
	return domain.Project{}, domain.ErrProjectNotFound
}

func (s *ProjectStore) SaveProject(_ context.Context, project domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.ID] = project
	return nil
}

func (s *ProjectStore) ClearProject(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, projectID)
	return nil
}
