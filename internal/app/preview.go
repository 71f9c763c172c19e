package app

import (
	"context"
	"sync"
	"time"

	"overlay-timeline-service/internal/domain"
)

// Frame is the render snapshot broadcast to subscribers: the elements
// visible at the frame time in back-to-front paint order, the quiz gate,
// and the active quiz session view when one is open.
type Frame struct {
	Time       float64                     `json:"time"`
	Elements   []domain.InteractiveElement `json:"elements"`
	SelectedID string                      `json:"selectedId,omitempty"`
	Quiz       domain.QuizState            `json:"quiz"`
	Session    *SessionView                `json:"session,omitempty"`
}

// PreviewEvent is one item on a subscriber channel: either a frame, a
// playback command, or a final quiz result.
type PreviewEvent struct {
	Frame   *Frame             `json:"frame,omitempty"`
	Command string             `json:"command,omitempty"` // "pause" | "resume"
	Result  *domain.QuizResult `json:"result,omitempty"`
}

// Preview is the live preview of one project, shared by every connected
// client. It owns the element store, the trigger engine, and the active
// quiz session, and broadcasts frames and playback commands to
// subscribers.
type Preview struct {
	projectID string
	store     *ElementStore
	trigger   *TriggerEngine

	mu           sync.Mutex
	lastTime     float64
	session      *QuizSession
	activeID     string // id of the element whose trigger opened the session
	viewers      int
	subscribers  map[chan PreviewEvent]struct{}
	stopAutosave context.CancelFunc
}

func NewPreview(projectID string, elements []domain.InteractiveElement, saver ProjectSaver) *Preview {
	p := &Preview{
		projectID:   projectID,
		subscribers: make(map[chan PreviewEvent]struct{}),
	}
	p.store = NewElementStore(projectID, elements, saver)
	p.trigger = NewTriggerEngine(p)
	return p
}

// ProjectID returns the project this preview renders.
func (p *Preview) ProjectID() string { return p.projectID }

// Store exposes the element store for editing operations.
func (p *Preview) Store() *ElementStore { return p.store }

// Pause implements PlaybackController by broadcasting the command to every
// connected playback surface.
func (p *Preview) Pause() { p.broadcast(PreviewEvent{Command: "pause"}) }

// Resume implements PlaybackController.
func (p *Preview) Resume() { p.broadcast(PreviewEvent{Command: "resume"}) }

// TimeUpdate consumes one playback tick: runs the trigger scan, opens a
// session when a trigger fires, applies timed auto-advance, and broadcasts
// the resulting frame.
func (p *Preview) TimeUpdate(t float64) {
	elements := p.store.Elements()
	fired, ok := p.trigger.Tick(elements, t)

	p.mu.Lock()
	p.lastTime = t
	if ok {
		switch fired.Type {
		case domain.TypeQuiz:
			p.session = NewQuizSession(*fired.Quiz)
		default:
			p.session = QuestionSessionFor(fired)
		}
		p.activeID = fired.ID
	}
	if p.session != nil {
		p.session.Tick(t)
	}
	p.mu.Unlock()

	p.broadcastFrame()
}

// AnswerQuiz stores an answer for the current question.
func (p *Preview) AnswerQuiz(optionID string) error {
	p.mu.Lock()
	if p.session == nil {
		p.mu.Unlock()
		return domain.ErrNoActiveQuiz
	}
	err := p.session.Answer(optionID)
	p.mu.Unlock()

	p.broadcastFrame()
	return err
}

// NextQuestion advances the session (submitting on the last question).
func (p *Preview) NextQuestion() error {
	p.mu.Lock()
	if p.session == nil {
		p.mu.Unlock()
		return domain.ErrNoActiveQuiz
	}
	err := p.session.Next()
	p.mu.Unlock()

	p.broadcastFrame()
	return err
}

// PreviousQuestion steps back without clearing stored responses.
func (p *Preview) PreviousQuestion() {
	p.mu.Lock()
	if p.session != nil {
		p.session.Previous()
	}
	p.mu.Unlock()
	p.broadcastFrame()
}

// SubmitQuiz grades the session in place; the quiz stays open so the
// result can be shown until the author continues.
func (p *Preview) SubmitQuiz() error {
	p.mu.Lock()
	if p.session == nil {
		p.mu.Unlock()
		return domain.ErrNoActiveQuiz
	}
	err := p.session.Submit()
	p.mu.Unlock()

	p.broadcastFrame()
	return err
}

// CloseQuiz ends the open quiz and resumes playback. A submitted session
// emits its result first; an unsubmitted one closes silently (normal
// cancellation).
func (p *Preview) CloseQuiz() {
	p.mu.Lock()
	if p.session == nil {
		p.mu.Unlock()
		return
	}
	elementID := p.activeID
	result := p.session.Close()
	p.session = nil
	p.activeID = ""
	p.mu.Unlock()

	if result != nil {
		p.broadcast(PreviewEvent{Result: result})
	}
	p.trigger.Complete(elementID)
	p.broadcastFrame()
}

// Editing operations. Each one re-broadcasts a frame at the last known
// playback time so viewers see edits immediately.

func (p *Preview) AddElement(elemType domain.ElementType, x, y float64) (domain.InteractiveElement, error) {
	p.mu.Lock()
	t := p.lastTime
	p.mu.Unlock()

	e, err := p.store.Add(elemType, x, y, t)
	if err != nil {
		return domain.InteractiveElement{}, err
	}
	p.broadcastFrame()
	return e, nil
}

func (p *Preview) UpdateElement(elementID string, patch ElementPatch) {
	p.store.Update(elementID, patch)
	p.broadcastFrame()
}

func (p *Preview) ApplyGeometry(elementID string, g domain.GeometryUpdate) {
	p.store.ApplyGeometry(elementID, g)
	p.broadcastFrame()
}

func (p *Preview) DeleteElement(elementID string) {
	p.store.Delete(elementID)
	p.broadcastFrame()
}

func (p *Preview) SelectElement(elementID string) {
	p.store.Select(elementID)
	p.broadcastFrame()
}

func (p *Preview) BringToFront(elementID string) {
	p.store.BringToFront(elementID)
	p.broadcastFrame()
}

// HitTest resolves a canvas click at the last known playback time.
func (p *Preview) HitTest(x, y float64) (domain.InteractiveElement, bool) {
	p.mu.Lock()
	t := p.lastTime
	p.mu.Unlock()
	return HitTest(p.store.Elements(), p.store.SelectedID(), x, y, t)
}

// Join registers a viewer and returns the current frame.
func (p *Preview) Join() Frame {
	p.mu.Lock()
	p.viewers++
	p.mu.Unlock()
	return p.currentFrame()
}

// Leave drops a viewer.
func (p *Preview) Leave() {
	p.mu.Lock()
	if p.viewers > 0 {
		p.viewers--
	}
	p.mu.Unlock()
}

// IsEmpty reports whether no viewers remain.
func (p *Preview) IsEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewers == 0
}

// Flush writes any unsaved element state through the saver.
func (p *Preview) Flush(ctx context.Context) { p.store.Flush(ctx) }

// StartAutosave launches the periodic snapshot loop. It is a no-op when
// one is already running.
func (p *Preview) StartAutosave(interval time.Duration) {
	p.mu.Lock()
	if p.stopAutosave != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.stopAutosave = cancel
	p.mu.Unlock()

	go p.store.Autosave(ctx, interval)
}

// StopAutosave halts the snapshot loop; the loop flushes once on the way out.
func (p *Preview) StopAutosave() {
	p.mu.Lock()
	cancel := p.stopAutosave
	p.stopAutosave = nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Subscribe returns a channel of preview events, starting with the current
// frame. The caller must invoke the returned cancel function to avoid leaks.
func (p *Preview) Subscribe() (<-chan PreviewEvent, func()) {
	ch := make(chan PreviewEvent, 8)

	p.mu.Lock()
	p.subscribers[ch] = struct{}{}
	p.mu.Unlock()

	ch <- PreviewEvent{Frame: p.frame()}

	cancel := func() {
		p.mu.Lock()
		if _, ok := p.subscribers[ch]; ok {
			delete(p.subscribers, ch)
			close(ch)
		}
		p.mu.Unlock()
	}
	return ch, cancel
}

func (p *Preview) currentFrame() Frame { return *p.frame() }

// frame assembles a render snapshot. Trigger and store state are read
// before taking the preview lock so lock order stays engine -> preview.
func (p *Preview) frame() *Frame {
	elements := p.store.Elements()
	selected := p.store.SelectedID()
	state := p.trigger.State()

	p.mu.Lock()
	t := p.lastTime
	var view *SessionView
	if p.session != nil {
		v := p.session.View()
		view = &v
	}
	p.mu.Unlock()

	return &Frame{
		Time:       t,
		Elements:   SortForPaint(VisibleAt(elements, t), selected),
		SelectedID: selected,
		Quiz:       state,
		Session:    view,
	}
}

func (p *Preview) broadcastFrame() {
	p.broadcast(PreviewEvent{Frame: p.frame()})
}

func (p *Preview) broadcast(event PreviewEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.subscribers {
		select {
		case ch <- event:
		default:
			// Drop the oldest queued event so slow clients never block
			// the broadcast path.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}
