package redis

import (
	"context"
	"sync"
	"time"

	"overlay-timeline-service/internal/app"

	"github.com/redis/go-redis/v9"
)

// PreviewStore is a Redis-aware implementation of app.PreviewRepository.
// Notes:
//   - Previews themselves stay in-process so the existing broadcast logic
//     keeps working; Redis marks which projects have a live preview.
//   - For true multi-instance previews you'd pair this with a pub/sub
//     projector that fans frames out across nodes.
type PreviewStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	previews map[string]*app.Preview
}

func NewPreviewStore(client *redis.Client, ttl time.Duration) *PreviewStore {
	return &PreviewStore{
		client:   client,
		ttl:      ttl,
		previews: make(map[string]*app.Preview),
	}
}

func (s *PreviewStore) GetOrCreate(projectID string, build func() *app.Preview) *app.Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	if preview, ok := s.previews[projectID]; ok {
		return preview
	}
	preview := build()
	s.previews[projectID] = preview
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(projectID), "1", s.ttl).Err()
	return preview
}

func (s *PreviewStore) Get(projectID string) (*app.Preview, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	preview, ok := s.previews[projectID]
	return preview, ok
}

func (s *PreviewStore) DeleteIfEmpty(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	preview, ok := s.previews[projectID]
	if !ok {
		return
	}
	if preview.IsEmpty() {
		delete(s.previews, projectID)
		_ = s.client.Del(context.Background(), s.key(projectID)).Err()
	}
}

func (s *PreviewStore) key(projectID string) string {
	return "project:preview:" + projectID
}
