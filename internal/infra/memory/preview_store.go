package memory

import (
	"sync"

	"overlay-timeline-service/internal/app"
)

// PreviewStore is an in-memory implementation of app.PreviewRepository.
type PreviewStore struct {
	mu       sync.RWMutex
	previews map[string]*app.Preview
}

func NewPreviewStore() *PreviewStore {
	return &PreviewStore{
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
	}
}
