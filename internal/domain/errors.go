package domain

import "errors"

var (
	// ErrProjectNotFound is returned when project content could not be loaded.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidElementType is returned when an author adds an unknown element type.
	ErrInvalidElementType = errors.New("invalid element type")
	// ErrNoActiveQuiz is returned when a quiz action arrives with no quiz open.
	ErrNoActiveQuiz = errors.New("no active quiz")
	// ErrAnswerRequired is returned when advancing past an unanswered question.
	ErrAnswerRequired = errors.New("answer required before continuing")
)
