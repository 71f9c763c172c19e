package app

import (
	"math"
	"sort"
	"sync"

	"overlay-timeline-service/internal/domain"
)

// PlaybackController is the command side of the playback surface. All
// commands are fire-and-forget; the engine never waits for confirmation.
type PlaybackController interface {
	Pause()
	Resume()
}

// fireTolerance is how far from a trigger point a time update may land and
// still fire it. Players report time coarsely (ticks every ~250ms), so the
// engine cannot rely on exact equality.
const fireTolerance = 0.5

// rearmBuffer is how far playback must rewind before a fired trigger
// re-arms. It is wider than fireTolerance so small backward jitter at the
// trigger point cannot flap between armed and fired.
const rearmBuffer = 1.0

// TriggerEngine watches the playback time stream and opens quizzes as
// their trigger points are crossed, pausing the video while one is open.
// Each trigger fires at most once per forward pass; rewinding more than
// rearmBuffer before a trigger point re-arms it.
type TriggerEngine struct {
	playback PlaybackController

	mu        sync.Mutex
	processed map[string]struct{}
	locked    map[string]struct{} // open multi-question quizzes, by element id
	state     domain.QuizState
}

func NewTriggerEngine(playback PlaybackController) *TriggerEngine {
	return &TriggerEngine{
		playback:  playback,
		processed: make(map[string]struct{}),
		locked:    make(map[string]struct{}),
	}
}

// State returns the current quiz gate.
func (e *TriggerEngine) State() domain.QuizState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Tick inspects the element list at playback time t and fires at most one
// trigger. It returns the fired element and true when a quiz opened on
// this tick. Tick is idempotent under jumps: the processed set is rebuilt
// from t every call, never trusted incrementally.
func (e *TriggerEngine) Tick(elements []domain.InteractiveElement, t float64) (domain.InteractiveElement, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reconcileLocked(elements, t)

	if e.state.Active {
		return domain.InteractiveElement{}, false
	}

	if fired, ok := e.questionTriggerLocked(elements, t); ok {
		return fired, true
	}
	return e.quizTriggerLocked(elements, t)
}

// Complete closes the active quiz and resumes playback. Closing without a
// submission takes the same path; it is a normal cancellation, not an error.
func (e *TriggerEngine) Complete(elementID string) {
	e.mu.Lock()
	if !e.state.Active || e.state.CurrentQuizID != elementID {
		e.mu.Unlock()
		return
	}
	e.state = domain.QuizState{}
	delete(e.locked, elementID)
	e.mu.Unlock()

	if e.playback != nil {
		e.playback.Resume()
	}
}

// reconcileLocked rebuilds the processed set from the current time. A fired
// trigger stays processed while t >= timestamp - rearmBuffer; only a rewind
// past that margin un-marks it. Ids whose element no longer exists drop out.
func (e *TriggerEngine) reconcileLocked(elements []domain.InteractiveElement, t float64) {
	next := make(map[string]struct{}, len(e.processed))
	for _, el := range elements {
		if el.Type != domain.TypeQuestion {
			continue
		}
		if _, ok := e.processed[el.ID]; !ok {
			continue
		}
		if el.Timestamp <= t+rearmBuffer {
			next[el.ID] = struct{}{}
		}
	}
	e.processed = next
}

func (e *TriggerEngine) questionTriggerLocked(elements []domain.InteractiveElement, t float64) (domain.InteractiveElement, bool) {
	triggers := make([]domain.InteractiveElement, 0, len(elements))
	for _, el := range elements {
		if el.Type == domain.TypeQuestion {
			triggers = append(triggers, el)
		}
	}
	sort.SliceStable(triggers, func(i, j int) bool {
		return triggers[i].Timestamp < triggers[j].Timestamp
	})

	for _, trigger := range triggers {
		if _, done := e.processed[trigger.ID]; done {
			continue
		}
		if math.Abs(t-trigger.Timestamp) > fireTolerance {
			continue
		}
		e.processed[trigger.ID] = struct{}{}
		e.fireLocked(trigger.ID)
		return trigger, true
	}
	return domain.InteractiveElement{}, false
}

// quizTriggerLocked handles multi-question quiz elements, which fire on a
// window rather than a point. The lock holds for as long as the quiz UI is
// open and clears only on explicit completion, so repeated ticks inside
// the window cannot retrigger it.
func (e *TriggerEngine) quizTriggerLocked(elements []domain.InteractiveElement, t float64) (domain.InteractiveElement, bool) {
	for _, el := range elements {
		if el.Type != domain.TypeQuiz || el.Quiz == nil {
			continue
		}
		if _, open := e.locked[el.ID]; open {
			continue
		}
		if t < el.Quiz.OverallStartTime || t > el.Quiz.OverallEndTime {
			continue
		}
		e.locked[el.ID] = struct{}{}
		e.fireLocked(el.ID)
		return el, true
	}
	return domain.InteractiveElement{}, false
}

func (e *TriggerEngine) fireLocked(elementID string) {
	e.state = domain.QuizState{Active: true, CurrentQuizID: elementID, Paused: true}
	if e.playback != nil {
		e.playback.Pause()
	}
}
