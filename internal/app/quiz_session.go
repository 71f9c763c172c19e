package app

import (
	"fmt"
	"math"

	"overlay-timeline-service/internal/domain"
)

// SessionStatus is the lifecycle phase of a quiz session.
type SessionStatus string

const (
	StatusNotStarted SessionStatus = "not-started"
	StatusInProgress SessionStatus = "in-progress"
	StatusSubmitted  SessionStatus = "submitted"
	StatusClosed     SessionStatus = "closed"
)

// QuizSession drives one quiz from activation to completion. A fresh
// session is created per trigger and discarded after close; sessions are
// never reused. A single question is just a quiz of length 1, so both
// legacy overlay variants run through this one machine.
type QuizSession struct {
	quiz      domain.InteractiveQuiz
	status    SessionStatus
	index     int
	responses map[string]string // question id -> selected option id
	result    *domain.QuizResult
}

// NewQuizSession builds a session for the given quiz. A quiz with no
// questions stays in NotStarted: there is no valid in-progress state, and
// renderers get a nil current question instead of an error.
func NewQuizSession(quiz domain.InteractiveQuiz) *QuizSession {
	s := &QuizSession{
		quiz:      quiz,
		status:    StatusNotStarted,
		responses: make(map[string]string),
	}
	if len(quiz.Questions) > 0 {
		s.status = StatusInProgress
	}
	return s
}

// QuestionSessionFor wraps a single interactive-question element as a
// one-question quiz session.
func QuestionSessionFor(e domain.InteractiveElement) *QuizSession {
	options := make([]domain.QuizOption, 0, len(e.Options))
	for i, text := range e.Options {
		options = append(options, domain.QuizOption{
			ID:        optionID(i),
			Text:      text,
			IsCorrect: text == e.CorrectAnswer,
		})
	}
	return NewQuizSession(domain.InteractiveQuiz{
		ID:    e.ID,
		Title: e.Content,
		Questions: []domain.QuizQuestion{{
			ID:           e.ID,
			QuestionText: e.Content,
			Type:         e.QuestionType,
			Options:      options,
		}},
	})
}

func optionID(i int) string {
	return fmt.Sprintf("opt-%d", i)
}

// Status returns the session phase.
func (s *QuizSession) Status() SessionStatus { return s.status }

// QuizID returns the id of the quiz being run.
func (s *QuizSession) QuizID() string { return s.quiz.ID }

// Current returns the active question, or false when the session has no
// in-progress question (empty quiz, or already submitted).
func (s *QuizSession) Current() (domain.QuizQuestion, bool) {
	if s.status != StatusInProgress {
		return domain.QuizQuestion{}, false
	}
	return s.quiz.Questions[s.index], true
}

// Answered reports whether the current question has a stored response.
func (s *QuizSession) Answered() bool {
	q, ok := s.Current()
	if !ok {
		return false
	}
	_, answered := s.responses[q.ID]
	return answered
}

// Answer stores the selected option for the current question. Re-answering
// before advancing overwrites the previous choice.
func (s *QuizSession) Answer(optionID string) error {
	q, ok := s.Current()
	if !ok {
		return domain.ErrNoActiveQuiz
	}
	s.responses[q.ID] = optionID
	return nil
}

// Next advances to the following question, or submits on the last one.
// Advancing requires the current question to be answered; there is no
// skipping.
func (s *QuizSession) Next() error {
	q, ok := s.Current()
	if !ok {
		return domain.ErrNoActiveQuiz
	}
	if _, answered := s.responses[q.ID]; !answered {
		return domain.ErrAnswerRequired
	}
	if s.index == len(s.quiz.Questions)-1 {
		return s.Submit()
	}
	s.index++
	return nil
}

// Previous steps back one question. Stored responses are kept.
func (s *QuizSession) Previous() {
	if s.status == StatusInProgress && s.index > 0 {
		s.index--
	}
}

// Tick applies timed auto-advance: when the current question carries an
// end time and playback crosses it, an answered question advances exactly
// as a manual next would. An unanswered question waits; the answer guard
// holds regardless of the timer.
func (s *QuizSession) Tick(t float64) {
	q, ok := s.Current()
	if !ok || q.EndTime <= 0 || t < q.EndTime {
		return
	}
	if _, answered := s.responses[q.ID]; !answered {
		return
	}
	_ = s.Next()
}

// Submit grades the quiz and moves the session to Submitted.
func (s *QuizSession) Submit() error {
	if s.status != StatusInProgress {
		return domain.ErrNoActiveQuiz
	}
	s.status = StatusSubmitted
	result := s.calculateResult()
	s.result = &result
	return nil
}

// Close ends the session and returns the result when one was submitted.
// Closing an unsubmitted session is a normal cancellation and yields nil.
func (s *QuizSession) Close() *domain.QuizResult {
	s.status = StatusClosed
	return s.result
}

// Result returns the graded result after submission, or nil.
func (s *QuizSession) Result() *domain.QuizResult { return s.result }

// calculateResult grades every question against its stored response. A
// missing response, or a response naming an option that no longer exists,
// grades false rather than erroring.
func (s *QuizSession) calculateResult() domain.QuizResult {
	result := domain.QuizResult{
		QuizID:         s.quiz.ID,
		TotalQuestions: len(s.quiz.Questions),
		Responses:      make([]domain.QuizResponse, 0, len(s.quiz.Questions)),
	}
	for _, q := range s.quiz.Questions {
		selected := s.responses[q.ID]
		correct := false
		for _, opt := range q.Options {
			if opt.ID == selected {
				correct = opt.IsCorrect
				break
			}
		}
		if correct {
			result.CorrectAnswers++
		}
		result.Responses = append(result.Responses, domain.QuizResponse{
			QuestionID:       q.ID,
			SelectedOptionID: selected,
			IsCorrect:        correct,
		})
	}
	if result.TotalQuestions > 0 {
		result.Score = int(math.Round(float64(result.CorrectAnswers) / float64(result.TotalQuestions) * 100))
	}
	return result
}

// SessionView is the read-only projection renderers consume.
type SessionView struct {
	QuizID         string               `json:"quizId"`
	Title          string               `json:"title"`
	Status         SessionStatus        `json:"status"`
	QuestionIndex  int                  `json:"questionIndex"`
	TotalQuestions int                  `json:"totalQuestions"`
	Question       *domain.QuizQuestion `json:"question,omitempty"`
	Answered       bool                 `json:"answered"`
	Result         *domain.QuizResult   `json:"result,omitempty"`
}

// View snapshots the session for rendering.
func (s *QuizSession) View() SessionView {
	view := SessionView{
		QuizID:         s.quiz.ID,
		Title:          s.quiz.Title,
		Status:         s.status,
		QuestionIndex:  s.index,
		TotalQuestions: len(s.quiz.Questions),
		Answered:       s.Answered(),
		Result:         s.result,
	}
	if q, ok := s.Current(); ok {
		view.Question = &q
	}
	return view
}
