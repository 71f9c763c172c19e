package app

import (
	"sync"
	"testing"

	"overlay-timeline-service/internal/domain"
)

func questionAt(id string, ts float64) domain.InteractiveElement {
	return domain.InteractiveElement{
		ID:        id,
		Type:      domain.TypeQuestion,
		Timestamp: ts,
		EndTime:   ts + 10,
	}
}

func TestTriggerFiresOncePerPass(t *testing.T) {
	playback := &fakePlayback{}
	engine := NewTriggerEngine(playback)
	elements := []domain.InteractiveElement{questionAt("q10", 10)}

	fires := 0
	for _, tick := range []float64{9.4, 9.6, 9.9, 10.0, 10.6} {
		if fired, ok := engine.Tick(elements, tick); ok {
			fires++
			if fired.ID != "q10" {
				t.Fatalf("unexpected trigger %s", fired.ID)
			}
			if tick != 9.6 {
				t.Fatalf("expected fire at first tick inside tolerance (9.6), fired at %v", tick)
			}
		}
	}
	if fires != 1 {
		t.Fatalf("expected exactly one fire, got %d", fires)
	}
	if playback.pauses() != 1 {
		t.Fatalf("expected one pause command, got %d", playback.pauses())
	}

	state := engine.State()
	if !state.Active || state.CurrentQuizID != "q10" || !state.Paused {
		t.Fatalf("unexpected state after fire: %+v", state)
	}
}

func TestTriggerNoFireOutsideTolerance(t *testing.T) {
	engine := NewTriggerEngine(&fakePlayback{})
	elements := []domain.InteractiveElement{questionAt("q10", 10)}

	for _, tick := range []float64{0, 5, 9.49, 10.51, 20} {
		if _, ok := engine.Tick(elements, tick); ok {
			t.Fatalf("unexpected fire at t=%v", tick)
		}
	}
}

func TestTriggerRearmsOnRewindPastBuffer(t *testing.T) {
	playback := &fakePlayback{}
	engine := NewTriggerEngine(playback)
	elements := []domain.InteractiveElement{questionAt("q10", 10)}

	if _, ok := engine.Tick(elements, 10); !ok {
		t.Fatalf("expected initial fire")
	}
	engine.Complete("q10")
	if playback.resumes() != 1 {
		t.Fatalf("expected resume on completion")
	}

	// Rewind more than 1s before the trigger point, then replay forward.
	if _, ok := engine.Tick(elements, 8); ok {
		t.Fatalf("unexpected fire during rewind tick")
	}
	if _, ok := engine.Tick(elements, 10); !ok {
		t.Fatalf("expected refire after rewind past buffer")
	}
}

func TestTriggerIgnoresSmallBackwardJitter(t *testing.T) {
	engine := NewTriggerEngine(&fakePlayback{})
	elements := []domain.InteractiveElement{questionAt("q10", 10)}

	if _, ok := engine.Tick(elements, 10); !ok {
		t.Fatalf("expected initial fire")
	}
	engine.Complete("q10")

	// 9.7 is within the 1s buffer of the trigger point: stays processed.
	if _, ok := engine.Tick(elements, 9.7); ok {
		t.Fatalf("unexpected fire at jitter tick")
	}
	if _, ok := engine.Tick(elements, 10.0); ok {
		t.Fatalf("trigger must not re-arm from backward jitter inside the buffer")
	}
}

func TestTriggerNoPreemptionWhileActive(t *testing.T) {
	engine := NewTriggerEngine(&fakePlayback{})
	elements := []domain.InteractiveElement{
		questionAt("q10", 10),
		questionAt("q10b", 10.2),
	}

	if fired, ok := engine.Tick(elements, 10); !ok || fired.ID != "q10" {
		t.Fatalf("expected earliest trigger to fire first, got %+v ok=%v", fired, ok)
	}
	// Second trigger is inside tolerance now, but a quiz is open.
	if _, ok := engine.Tick(elements, 10.2); ok {
		t.Fatalf("expected no preemption while a quiz is active")
	}

	engine.Complete("q10")
	if fired, ok := engine.Tick(elements, 10.3); !ok || fired.ID != "q10b" {
		t.Fatalf("expected queued trigger after completion, got ok=%v", ok)
	}
}

func TestTriggerDropsDeletedElements(t *testing.T) {
	engine := NewTriggerEngine(&fakePlayback{})
	elements := []domain.InteractiveElement{questionAt("q10", 10)}

	if _, ok := engine.Tick(elements, 10); !ok {
		t.Fatalf("expected fire")
	}
	engine.Complete("q10")

	// Element deleted, then re-added with the same id far in the future:
	// the processed set must not keep stale entries alive.
	if _, ok := engine.Tick(nil, 10.4); ok {
		t.Fatalf("no elements, no fire")
	}
	if _, ok := engine.Tick(elements, 10.4); !ok {
		t.Fatalf("expected refire after processed entry dropped with its element")
	}
}

func TestQuizWindowTriggerLocks(t *testing.T) {
	playback := &fakePlayback{}
	engine := NewTriggerEngine(playback)
	quiz := domain.InteractiveElement{
		ID:   "quiz-el",
		Type: domain.TypeQuiz,
		Quiz: &domain.InteractiveQuiz{
			ID:               "quiz-1",
			OverallStartTime: 5,
			OverallEndTime:   15,
			Questions:        []domain.QuizQuestion{{ID: "q1"}},
		},
	}
	elements := []domain.InteractiveElement{quiz}

	if _, ok := engine.Tick(elements, 4.9); ok {
		t.Fatalf("unexpected fire before window")
	}
	if fired, ok := engine.Tick(elements, 5); !ok || fired.ID != "quiz-el" {
		t.Fatalf("expected fire at window start")
	}

	// Repeated ticks inside the window must not retrigger while open.
	engine.Complete("quiz-el") // closes quiz, but we re-open below
	if _, ok := engine.Tick(elements, 7); !ok {
		t.Fatalf("expected refire after explicit close inside window")
	}
	for _, tick := range []float64{8, 9, 14, 15} {
		if _, ok := engine.Tick(elements, tick); ok {
			t.Fatalf("lock must hold while quiz is open, fired at %v", tick)
		}
	}

	engine.Complete("quiz-el")
	if _, ok := engine.Tick(elements, 16); ok {
		t.Fatalf("unexpected fire after window end")
	}
}

func TestCompleteUnknownIDIsNoOp(t *testing.T) {
	playback := &fakePlayback{}
	engine := NewTriggerEngine(playback)
	elements := []domain.InteractiveElement{questionAt("q10", 10)}

	if _, ok := engine.Tick(elements, 10); !ok {
		t.Fatalf("expected fire")
	}
	engine.Complete("other")
	if playback.resumes() != 0 {
		t.Fatalf("completing a non-active id must not resume playback")
	}
	if !engine.State().Active {
		t.Fatalf("state must stay active")
	}
}

type fakePlayback struct {
	mu          sync.Mutex
	pauseCount  int
	resumeCount int
}

func (p *fakePlayback) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauseCount++
}

func (p *fakePlayback) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resumeCount++
}

func (p *fakePlayback) pauses() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pauseCount
}

func (p *fakePlayback) resumes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resumeCount
}
