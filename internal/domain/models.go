package domain

import "time"

// OptionCount is the fixed number of answer options per question. Options
// are addressed by position, not identity.
const OptionCount = 4

// Participant is the recorded outcome of one student's completed attempt.
// Records are append-only; a retake appends a fresh entry with no identity
// linkage between attempts.
type Participant struct {
	Name        string    `json:"name"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completedAt"`
}

// Question is a single-correct-answer MCQ. Immutable once its quiz is
// created.
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// Quiz is an authored set of questions identified by an opaque ID and a
// human-shareable 6-digit code.
type Quiz struct {
	ID               string        `json:"id"`
	Code             string        `json:"code"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	TimeLimitMinutes int           `json:"timeLimit"`
	Questions        []Question    `json:"questions"`
	CreatedAt        time.Time     `json:"createdAt"`
	Participants     []Participant `json:"participants"`
}

// TimeLimitSeconds converts the authored limit into the countdown's unit.
func (q Quiz) TimeLimitSeconds() int {
	return q.TimeLimitMinutes * 60
}
