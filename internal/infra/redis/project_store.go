package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"overlay-timeline-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ProjectLoader fetches project content from a backing store.
type ProjectLoader interface {
	LoadProject(ctx context.Context, projectID string) (domain.Project, error)
}

// ProjectStore keeps whole-project JSON snapshots in Redis and falls back
// to a loader on cache miss. It serves both sides of the persistence
// contract: reads for preview open, best-effort writes for autosave.
// Snapshots are stored as: SET project:{projectID}:elements {json}
type ProjectStore struct {
	client *redis.Client
	loader ProjectLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewProjectStore(client *redis.Client, loader ProjectLoader, ttl time.Duration) *ProjectStore {
	return &ProjectStore{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *ProjectStore) GetProject(ctx context.Context, projectID string) (domain.Project, error) {
	key := s.key(projectID)

	if raw, err := s.client.Get(ctx, key).Bytes(); err == nil && len(raw) > 0 {
		if project, ok := decodeProject(projectID, raw); ok {
			return project, nil
		}
		// Corrupt snapshot: fall through to the loader rather than fail.
	}

	result, err, _ := s.sf.Do(projectID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if raw, err := s.client.Get(ctx, key).Bytes(); err == nil && len(raw) > 0 {
			if project, ok := decodeProject(projectID, raw); ok {
				return project, nil
			}
		}

		var project domain.Project
		var err error
		if s.loader != nil {
			project, err = s.loader.LoadProject(ctx, projectID)
			if err != nil {
				return domain.Project{}, err
			}
		} else {
			return domain.Project{}, domain.ErrProjectNotFound
		}

		s.cache(ctx, project)
		return project, nil
	})
	if err != nil {
		return domain.Project{}, err
	}
	return result.(domain.Project), nil
}

// SaveProject writes the snapshot through to Redis and, when a persistent
// loader backs it, to that store as well.
func (s *ProjectStore) SaveProject(ctx context.Context, project domain.Project) error {
	s.cache(ctx, project)
	if saver, ok := s.loader.(interface {
		SaveProject(ctx context.Context, project domain.Project) error
	}); ok {
		return saver.SaveProject(ctx, project)
	}
	return nil
}

func (s *ProjectStore) ClearProject(ctx context.Context, projectID string) error {
	return s.client.Del(ctx, s.key(projectID)).Err()
}

func (s *ProjectStore) cache(ctx context.Context, project domain.Project) {
	raw, err := json.Marshal(project)
	if err != nil {
		return
	}
	_ = s.client.Set(ctx, s.key(project.ID), raw, s.ttlWithJitter()).Err()
}

func (s *ProjectStore) key(projectID string) string {
	return "project:" + projectID + ":elements"
}

func decodeProject(projectID string, raw []byte) (domain.Project, bool) {
	var project domain.Project
	if err := json.Unmarshal(raw, &project); err != nil {
		return domain.Project{}, false
	}
	if project.ID == "" {
		project.ID = projectID
	}
	return project, true
}

func (s *ProjectStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
