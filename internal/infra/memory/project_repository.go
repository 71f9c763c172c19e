package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"overlay-timeline-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// ProjectLoader fetches project content from a backing store.
type ProjectLoader interface {
	LoadProject(ctx context.Context, projectID string) (domain.Project, error)
}

// ProjectRepository caches projects with TTL to avoid repeated store hits
// while authors reopen previews.
type ProjectRepository struct {
	loader ProjectLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedProject
}

type cachedProject struct {
	project   domain.Project
	expiresAt time.Time
}

func NewProjectRepository(loader ProjectLoader, ttl time.Duration) *ProjectRepository {
	return &ProjectRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedProject),
	}
}

func (r *ProjectRepository) GetProject(ctx context.Context, projectID string) (domain.Project, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[projectID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.project, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(projectID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[projectID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.project, nil
		}
		r.mu.RUnlock()

		project, err := r.loader.LoadProject(ctx, projectID)
		if err != nil {
			return domain.Project{}, err
		}

		r.mu.Lock()
		r.cache[projectID] = cachedProject{
			project:   project,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return project, nil
	})
	if err != nil {
		return domain.Project{}, err
	}
	return result.(domain.Project), nil
}

// Invalidate drops a cached entry, for callers that just saved new content.
func (r *ProjectRepository) Invalidate(projectID string) {
	r.mu.Lock()
	delete(r.cache, projectID)
	r.mu.Unlock()
}

// StaticProjectLoader is a simple loader backed by an in-memory map
// (useful for tests/demos).
type StaticProjectLoader struct {
	projects map[string]domain.Project
}

func NewStaticProjectLoader(projects map[string]domain.Project) *StaticProjectLoader {
	return &StaticProjectLoader{projects: projects}
}

func (l *StaticProjectLoader) LoadProject(_ context.Context, projectID string) (domain.Project, error) {
	if project, ok := l.projects[projectID]; ok {
		return project, nil
	}
	return domain.Project{}, domain.ErrProjectNotFound
}

func (r *ProjectRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
