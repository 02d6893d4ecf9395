package session

import "time"

// QuestionView is the student-facing slice of the current question. The
// correct answer is never included.
type QuestionView struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Snapshot is the plain-data view the presentation layer renders from.
type Snapshot struct {
	State       State         `json:"-"`
	StateName   string        `json:"state"`
	StudentName string        `json:"studentName"`
	Question    *QuestionView `json:"question,omitempty"`
	Remaining   int           `json:"remainingSeconds"`
	Answered    int           `json:"answered"`
}

// QuestionReview pairs a question with the student's answer for the
// post-completion review.
type QuestionReview struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Given         int      `json:"given"` // -1 when unanswered (timeout)
	Correct       bool     `json:"correct"`
}

// Result is the terminal outcome of a session.
type Result struct {
	QuizID      string           `json:"quizId"`
	QuizTitle   string           `json:"quizTitle"`
	StudentName string           `json:"studentName"`
	Score       int              `json:"score"`
	Total       int              `json:"total"`
	Percentage  int              `json:"percentage"`
	Review      []QuestionReview `json:"review"`
	CompletedAt time.Time        `json:"completedAt"`
}

// Snapshot returns the current renderable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:       s.state,
		StateName:   s.state.String(),
		StudentName: s.studentName,
		Remaining:   s.remaining,
		Answered:    len(s.answers),
	}
	if s.state == StateInProgress {
		q := s.quiz.Questions[s.current]
		snap.Question = &QuestionView{
			Index:   s.current,
			Total:   len(s.quiz.Questions),
			Text:    q.Text,
			Options: q.Options,
		}
	}
	return snap
}

// Result returns the final outcome; ok is false until the session
// completes.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCompleted {
		return Result{}, false
	}
	return s.result, true
}
