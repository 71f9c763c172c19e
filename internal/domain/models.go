package domain

import "time"

// ElementType is the closed set of overlay element variants.
type ElementType string

const (
	TypeText     ElementType = "text"
	TypePointer  ElementType = "pointer"
	TypeImage    ElementType = "image"
	TypeOpener   ElementType = "opener"
	TypeButton   ElementType = "interactive-button"
	TypeQuestion ElementType = "interactive-question"
	TypeQuiz     ElementType = "interactive-quiz"
)

// Valid reports whether t is a known element type.
func (t ElementType) Valid() bool {
	switch t {
	case TypeText, TypePointer, TypeImage, TypeOpener, TypeButton, TypeQuestion, TypeQuiz:
		return true
	}
	return false
}

// Default hit-box size for elements authored without explicit geometry.
const (
	DefaultWidth  = 120.0
	DefaultHeight = 50.0
)

// InteractiveElement is one placed overlay on the video timeline.
// X/Y are canvas-local pixel coordinates of the top-left corner;
// Timestamp/EndTime bound visibility in playback seconds (closed interval).
// Width/Height of zero mean "use the default hit box".
type InteractiveElement struct {
	ID      string      `json:"id"`
	Type    ElementType `json:"type"`
	Content string      `json:"content"` // alt text for image elements
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	Width   float64     `json:"width,omitempty"`
	Height  float64     `json:"height,omitempty"`

	Timestamp float64 `json:"timestamp"`
	EndTime   float64 `json:"endTime"`
	ZIndex    int     `json:"zIndex"`

	// Single-question fields, used when Type is interactive-question.
	QuestionType  string   `json:"questionType,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`

	// Quiz is set when Type is interactive-quiz.
	Quiz *InteractiveQuiz `json:"quiz,omitempty"`

	// Style is opaque to the engine; it rides through to renderers untouched.
	Style map[string]any `json:"style,omitempty"`
}

// InteractiveQuiz is a timed multi-question unit embedded in an element.
type InteractiveQuiz struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Questions        []QuizQuestion `json:"questions"`
	OverallStartTime float64        `json:"overallStartTime"`
	OverallEndTime   float64        `json:"overallEndTime"`
}

// QuizQuestion models one question; slice order is presentation order.
// EndTime > 0 enables timed auto-advance once the question is answered.
type QuizQuestion struct {
	ID           string       `json:"id"`
	QuestionText string       `json:"questionText"`
	Type         string       `json:"type"` // "mcq" | "true-false"
	Options      []QuizOption `json:"options"`
	StartTime    float64      `json:"startTime,omitempty"`
	EndTime      float64      `json:"endTime,omitempty"`
}

// QuizOption is a selectable answer.
type QuizOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// QuizResponse records one graded answer. Derived, never authored.
type QuizResponse struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId"`
	IsCorrect        bool   `json:"isCorrect"`
}

// QuizResult summarizes a submitted quiz. Score is a 0-100 percentage.
type QuizResult struct {
	QuizID         string         `json:"quizId"`
	Responses      []QuizResponse `json:"responses"`
	TotalQuestions int            `json:"totalQuestions"`
	CorrectAnswers int            `json:"correctAnswers"`
	Score          int            `json:"score"`
}

// QuizState is the ephemeral gate read by renderers: whether a quiz is
// open right now and whether it is holding the video paused.
type QuizState struct {
	Active        bool   `json:"active"`
	CurrentQuizID string `json:"currentQuizId,omitempty"`
	Paused        bool   `json:"paused"`
}

// GeometryUpdate is the typed drag/resize completion message reported by
// the host's interaction layer.
type GeometryUpdate struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Project is the persisted round-trip shape: the element list plus the
// time it was snapshotted.
type Project struct {
	ID        string               `json:"id"`
	Elements  []InteractiveElement `json:"elements"`
	Timestamp time.Time            `json:"timestamp"`
}
