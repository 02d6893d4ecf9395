package session

import (
	"context"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"quizlab-service/internal/domain"
)

// State is the session's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateJoined
	StateInProgress
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateJoined:
		return "joined"
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	}
	return "unknown"
}

// ResultRecorder persists a completed attempt.
type ResultRecorder interface {
	RecordResult(ctx context.Context, quizID string, p domain.Participant) error
}

// Config wires a session to its collaborators. Recorder is required for
// results to persist; the callbacks are optional.
type Config struct {
	Recorder ResultRecorder
	Timer    *Timer // NewTimer() when nil
	// OnTick receives every countdown update, including the initial value.
	OnTick func(remaining int)
	// OnComplete fires exactly once, on either completion path.
	OnComplete func(Result)
	// OnRecordError surfaces a persistence failure as a warning. The
	// computed score stands regardless.
	OnRecordError func(err error)
	Now           func() time.Time
	Logf          func(format string, args ...any)
}

// Session drives one student through one quiz: question progression,
// answer capture, countdown, scoring, and the result-recording side
// effect. It is owned by a single student's run; the mutex only serializes
// presentation intents against timer callbacks.
type Session struct {
	recorder      ResultRecorder
	timer         *Timer
	onTick        func(int)
	onComplete    func(Result)
	onRecordError func(error)
	now           func() time.Time
	logf          func(string, ...any)

	mu          sync.Mutex
	state       State
	quiz        domain.Quiz
	studentName string
	current     int
	answers     []int
	selected    int // -1 when nothing is selected
	remaining   int
	result      Result
}

func New(cfg Config) *Session {
	s := &Session{
		recorder:      cfg.Recorder,
		timer:         cfg.Timer,
		onTick:        cfg.OnTick,
		onComplete:    cfg.OnComplete,
		onRecordError: cfg.OnRecordError,
		now:           cfg.Now,
		logf:          cfg.Logf,
		selected:      -1,
	}
	if s.timer == nil {
		s.timer = NewTimer()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logf == nil {
		s.logf = log.Printf
	}
	return s
}

// Join loads a resolved quiz into an idle session.
func (s *Session) Join(quiz domain.Quiz, studentName string) error {
	studentName = strings.TrimSpace(studentName)
	if studentName == "" {
		return domain.ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return domain.ErrSessionState
	}
	s.quiz = quiz
	s.studentName = studentName
	s.current = 0
	s.answers = nil
	s.selected = -1
	s.remaining = quiz.TimeLimitSeconds()
	s.state = StateJoined
	return nil
}

// Begin starts the countdown and opens the first question.
func (s *Session) Begin() error {
	s.mu.Lock()
	if s.state != StateJoined {
		s.mu.Unlock()
		return domain.ErrSessionState
	}
	s.state = StateInProgress
	initial := s.remaining
	s.mu.Unlock()

	// Started after releasing the lock: the initial tick is delivered
	// synchronously and re-enters the session.
	s.timer.Start(initial, s.handleTick, s.handleExpire)
	return nil
}

// SelectOption highlights an option for the current question. Calls outside
// InProgress or outside the option range are ignored, which tolerates a
// lagging UI.
func (s *Session) SelectOption(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return
	}
	if index < 0 || index >= len(s.quiz.Questions[s.current].Options) {
		return
	}
	s.selected = index
}

// SubmitCurrentAnswer commits the highlighted option. On the last question
// it completes the session; otherwise it advances to the next question.
// Submits on a completed session are ignored without error.
func (s *Session) SubmitCurrentAnswer() error {
	s.mu.Lock()
	if s.state == StateCompleted {
		s.mu.Unlock()
		return nil
	}
	if s.state != StateInProgress {
		s.mu.Unlock()
		return domain.ErrSessionState
	}
	if s.selected < 0 {
		s.mu.Unlock()
		return domain.ErrNoSelection
	}

	s.answers = append(s.answers, s.selected)
	s.selected = -1

	if s.current == len(s.quiz.Questions)-1 {
		res := s.completeLocked()
		s.mu.Unlock()
		s.finalize(res)
		return nil
	}
	s.current++
	s.mu.Unlock()
	return nil
}

// Leave tears down an abandoned run. The timer is stopped on every exit
// path out of InProgress so a stale expiry can never fire against a
// discarded session.
func (s *Session) Leave() {
	s.mu.Lock()
	if s.state == StateJoined || s.state == StateInProgress {
		s.state = StateIdle
		s.quiz = domain.Quiz{}
		s.studentName = ""
		s.answers = nil
		s.selected = -1
		s.remaining = 0
	}
	s.mu.Unlock()
	s.timer.Stop()
}

// handleTick is invoked from the timer. Ticks arriving after completion or
// teardown are dropped.
func (s *Session) handleTick(remaining int) {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return
	}
	if remaining < 0 {
		remaining = 0
	}
	s.remaining = remaining
	cb := s.onTick
	s.mu.Unlock()

	if cb != nil {
		cb(remaining)
	}
}

// handleExpire force-finishes the session with whatever answer prefix has
// been collected. An uncommitted selection is discarded, not auto-submitted.
func (s *Session) handleExpire() {
	s.mu.Lock()
	if s.state != StateInProgress {
		// Normal submission already completed the run; the two terminal
		// transitions stay mutually exclusive.
		s.mu.Unlock()
		return
	}
	s.selected = -1
	s.remaining = 0
	res := s.completeLocked()
	s.mu.Unlock()
	s.finalize(res)
}

// completeLocked transitions to Completed and computes the final result.
// Exactly one caller can observe InProgress, so exactly one path computes
// the score.
func (s *Session) completeLocked() Result {
	s.state = StateCompleted

	total := len(s.quiz.Questions)
	score := 0
	for i, a := range s.answers {
		if a == s.quiz.Questions[i].CorrectAnswer {
			score++
		}
	}

	res := Result{
		QuizID:      s.quiz.ID,
		QuizTitle:   s.quiz.Title,
		StudentName: s.studentName,
		Score:       score,
		Total:       total,
		Percentage:  int(math.Round(100 * float64(score) / float64(total))),
		CompletedAt: s.now().UTC(),
	}
	for i, q := range s.quiz.Questions {
		given := -1
		if i < len(s.answers) {
			given = s.answers[i]
		}
		res.Review = append(res.Review, QuestionReview{
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Given:         given,
			Correct:       given == q.CorrectAnswer,
		})
	}
	s.result = res
	return res
}

// finalize runs the post-completion side effects: stop the countdown,
// record the attempt, notify the owner. A recording failure is a warning;
// it never reverts the state machine or hides the score.
func (s *Session) finalize(res Result) {
	s.timer.Stop()

	if s.recorder != nil {
		// Completion persists even after the originating request is gone.
		err := s.recorder.RecordResult(context.Background(), res.QuizID, domain.Participant{
			Name:        res.StudentName,
			Score:       res.Score,
			CompletedAt: res.CompletedAt,
		})
		if err != nil {
			s.logf("session: record result for quiz %s: %v", res.QuizID, err)
			if s.onRecordError != nil {
				s.onRecordError(err)
			}
		}
	}

	if s.onComplete != nil {
		s.onComplete(res)
	}
}
