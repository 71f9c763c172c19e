package app

import (
	"context"
	"log"
	"sync"
	"time"

	"overlay-timeline-service/internal/domain"

	"github.com/google/uuid"
)

// ProjectSaver persists element snapshots. Implementations are best-effort:
// failures are logged by the store and never surfaced to editing callers.
type ProjectSaver interface {
	SaveProject(ctx context.Context, project domain.Project) error
	ClearProject(ctx context.Context, projectID string) error
}

// DefaultDuration is the visibility window given to newly placed elements.
const DefaultDuration = 5.0

// endTimeBuffer is added past timestamp when an edit would leave the
// window empty or inverted.
const endTimeBuffer = 1.0

// ElementPatch is a partial update; nil fields are left untouched.
type ElementPatch struct {
	Content   *string
	X         *float64
	Y         *float64
	Width     *float64
	Height    *float64
	Timestamp *float64
	EndTime   *float64
	ZIndex    *int

	QuestionType  *string
	Options       []string
	CorrectAnswer *string
	Quiz          *domain.InteractiveQuiz
	Style         map[string]any
}

// ElementStore owns the overlay element list and selection state for one
// project. All mutations are synchronous; snapshots returned to callers
// are copies and never alias internal state.
type ElementStore struct {
	projectID string
	saver     ProjectSaver
	now       func() time.Time

	mu         sync.RWMutex
	elements   []domain.InteractiveElement
	selectedID string
	dirty      bool
}

func NewElementStore(projectID string, elements []domain.InteractiveElement, saver ProjectSaver) *ElementStore {
	s := &ElementStore{
		projectID: projectID,
		saver:     saver,
		now:       time.Now,
		elements:  make([]domain.InteractiveElement, len(elements)),
	}
	copy(s.elements, elements)
	return s
}

// Add places a new element at (x, y) with a default visibility window
// starting at the current playback time. The new element gets the highest
// z-index and becomes selected.
func (s *ElementStore) Add(elemType domain.ElementType, x, y, currentTime float64) (domain.InteractiveElement, error) {
	if !elemType.Valid() {
		return domain.InteractiveElement{}, domain.ErrInvalidElementType
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := domain.InteractiveElement{
		ID:        uuid.NewString(),
		Type:      elemType,
		X:         x,
		Y:         y,
		Timestamp: currentTime,
		EndTime:   currentTime + DefaultDuration,
		ZIndex:    s.maxZLocked() + 1,
	}
	s.elements = append(s.elements, e)
	s.selectedID = e.ID
	s.dirty = true
	return e, nil
}

// Update merges patch into the matching element. A missing id is a no-op:
// editing callers may race with deletion and must not fail.
func (s *ElementStore) Update(elementID string, patch ElementPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(elementID)
	if i < 0 {
		return
	}
	e := &s.elements[i]

	if patch.Content != nil {
		e.Content = *patch.Content
	}
	if patch.X != nil {
		e.X = *patch.X
	}
	if patch.Y != nil {
		e.Y = *patch.Y
	}
	if patch.Width != nil {
		e.Width = *patch.Width
	}
	if patch.Height != nil {
		e.Height = *patch.Height
	}
	if patch.Timestamp != nil {
		e.Timestamp = *patch.Timestamp
	}
	if patch.EndTime != nil {
		e.EndTime = *patch.EndTime
	}
	if patch.ZIndex != nil {
		e.ZIndex = *patch.ZIndex
	}
	if patch.QuestionType != nil {
		e.QuestionType = *patch.QuestionType
	}
	if patch.Options != nil {
		e.Options = patch.Options
	}
	if patch.CorrectAnswer != nil {
		e.CorrectAnswer = *patch.CorrectAnswer
	}
	if patch.Quiz != nil {
		e.Quiz = patch.Quiz
	}
	if patch.Style != nil {
		e.Style = patch.Style
	}

	// Edits must never leave an empty or inverted window; bump the end
	// rather than reject the edit.
	if e.EndTime <= e.Timestamp {
		e.EndTime = e.Timestamp + endTimeBuffer
	}
	s.dirty = true
}

// ApplyGeometry consumes the drag/resize completion message from the
// host's interaction layer.
func (s *ElementStore) ApplyGeometry(elementID string, g domain.GeometryUpdate) {
	s.Update(elementID, ElementPatch{X: &g.X, Y: &g.Y, Width: &g.Width, Height: &g.Height})
}

// Delete removes the element and clears selection if it was selected.
// Unknown ids are ignored.
func (s *ElementStore) Delete(elementID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(elementID)
	if i < 0 {
		return
	}
	s.elements = append(s.elements[:i], s.elements[i+1:]...)
	if s.selectedID == elementID {
		s.selectedID = ""
	}
	s.dirty = true
}

// Select sets the current selection; the empty id clears it. Selecting an
// element also brings it to front so the most recently touched element
// renders on top.
func (s *ElementStore) Select(elementID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elementID == "" {
		s.selectedID = ""
		return
	}
	i := s.indexLocked(elementID)
	if i < 0 {
		return
	}
	s.selectedID = elementID
	s.bringToFrontLocked(i)
}

// BringToFront reassigns the element's z-index above all others.
func (s *ElementStore) BringToFront(elementID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(elementID); i >= 0 {
		s.bringToFrontLocked(i)
	}
}

// Elements returns a snapshot of the element list in insertion order.
func (s *ElementStore) Elements() []domain.InteractiveElement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.InteractiveElement, len(s.elements))
	copy(out, s.elements)
	return out
}

// SelectedID returns the id of the selected element, or "" if none.
func (s *ElementStore) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

// Get returns the element with the given id.
func (s *ElementStore) Get(elementID string) (domain.InteractiveElement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(elementID); i >= 0 {
		return s.elements[i], true
	}
	return domain.InteractiveElement{}, false
}

// Flush writes a snapshot to the saver if anything changed since the last
// write. Save failures are logged and dropped; the in-memory state stays
// authoritative.
func (s *ElementStore) Flush(ctx context.Context) {
	s.mu.Lock()
	if !s.dirty || s.saver == nil {
		s.mu.Unlock()
		return
	}
	project := domain.Project{
		ID:        s.projectID,
		Elements:  make([]domain.InteractiveElement, len(s.elements)),
		Timestamp: s.now(),
	}
	copy(project.Elements, s.elements)
	s.dirty = false
	s.mu.Unlock()

	if err := s.saver.SaveProject(ctx, project); err != nil {
		log.Printf("autosave project %s: %v", project.ID, err)
	}
}

// Autosave flushes dirty state on a fixed interval until ctx is canceled,
// with a final flush on the way out. It never blocks mutation handling.
func (s *ElementStore) Autosave(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Flush(ctx)
		case <-ctx.Done():
			s.Flush(context.Background())
			return
		}
	}
}

func (s *ElementStore) indexLocked(elementID string) int {
	for i := range s.elements {
		if s.elements[i].ID == elementID {
			return i
		}
	}
	return -1
}

func (s *ElementStore) maxZLocked() int {
	max := 0
	for i := range s.elements {
		if s.elements[i].ZIndex > max {
			max = s.elements[i].ZIndex
		}
	}
	return max
}

func (s *ElementStore) bringToFrontLocked(i int) {
	s.elements[i].ZIndex = s.maxZLocked() + 1
	s.dirty = true
}
