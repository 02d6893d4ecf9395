package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound is a lookup miss ("invalid code"), not an exceptional
	// condition in steady state.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNoSelection is returned when a submit arrives with no option selected.
	ErrNoSelection = errors.New("no option selected")
	// ErrNameRequired is returned when a student joins without a name.
	ErrNameRequired = errors.New("student name required")
	// ErrSessionState is returned when an operation is invalid in the
	// session's current state.
	ErrSessionState = errors.New("operation not valid in current session state")
)

// ValidationError reports the first invalid authoring input encountered.
// QuestionIndex is -1 for quiz-level fields.
type ValidationError struct {
	Field         string
	QuestionIndex int
	Message       string
}

func (e *ValidationError) Error() string {
	if e.QuestionIndex >= 0 {
		return fmt.Sprintf("question %d: invalid %s: %s", e.QuestionIndex+1, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// PersistenceError means a storage write failed even after fallback. It is
// a warning to callers: a student's already-computed score never depends on
// persistence succeeding.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
