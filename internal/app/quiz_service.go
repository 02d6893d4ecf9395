package app

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizlab-service/internal/domain"
	"quizlab-service/internal/storage"
)

// QuizService contains the quiz authoring and lookup use cases over the
// storage provider.
type QuizService struct {
	store   storage.Provider
	baseURL string
	now     func() time.Time
}

func NewQuizService(store storage.Provider, baseURL string) *QuizService {
	return &QuizService{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(store storage.Provider, baseURL string, now func() time.Time) *QuizService {
	s := NewQuizService(store, baseURL)
	s.now = now
	return s
}

// CreateQuiz validates authoring input, assigns id and share code, and
// persists the quiz. The id is a UUIDv7, so no two creations in the same
// process can collide. The 6-digit code is uniform random and deliberately
// not checked for uniqueness against existing quizzes.
func (s *QuizService) CreateQuiz(ctx context.Context, title, description string, timeLimitMinutes int, questions []domain.Question) (domain.Quiz, error) {
	if err := validateQuiz(title, timeLimitMinutes, questions); err != nil {
		return domain.Quiz{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("generate quiz id: %w", err)
	}

	quiz := domain.Quiz{
		ID:               id.String(),
		Code:             generateCode(),
		Title:            strings.TrimSpace(title),
		Description:      strings.TrimSpace(description),
		TimeLimitMinutes: timeLimitMinutes,
		Questions:        questions,
		CreatedAt:        s.now().UTC(),
		Participants:     []domain.Participant{},
	}

	if err := s.store.PutQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, &domain.PersistenceError{Op: "put quiz", Err: err}
	}
	return quiz, nil
}

// ListQuizzes returns every stored quiz; none is an empty slice.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	quizzes, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list quizzes", Err: err}
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	return quizzes, nil
}

// FindByCode resolves a share code to its quiz. A miss surfaces
// domain.ErrQuizNotFound and is reported to students as an invalid code.
func (s *QuizService) FindByCode(ctx context.Context, code string) (domain.Quiz, error) {
	return s.store.FindQuizByCode(ctx, strings.TrimSpace(code))
}

// RecordResult appends one completed attempt to the quiz. Failure is a
// warning to the caller: the student's locally computed score stands.
func (s *QuizService) RecordResult(ctx context.Context, quizID string, p domain.Participant) error {
	if err := s.store.AppendParticipant(ctx, quizID, p); err != nil {
		return &domain.PersistenceError{Op: "append participant", Err: err}
	}
	return nil
}

// ShareLink builds the join-by-link URL carrying the quiz code.
func (s *QuizService) ShareLink(quiz domain.Quiz) string {
	return fmt.Sprintf("%s/?quiz=%s", s.baseURL, quiz.Code)
}

// Leaderboard returns the quiz's attempts sorted by score descending,
// earlier completion first on ties. Every attempt appears; retakes are not
// collapsed.
func (s *QuizService) Leaderboard(quiz domain.Quiz) []domain.Participant {
	entries := make([]domain.Participant, len(quiz.Participants))
	copy(entries, quiz.Participants)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].CompletedAt.Before(entries[j].CompletedAt)
	})
	return entries
}

func validateQuiz(title string, timeLimitMinutes int, questions []domain.Question) error {
	if strings.TrimSpace(title) == "" {
		return &domain.ValidationError{Field: "title", QuestionIndex: -1, Message: "must not be empty"}
	}
	if timeLimitMinutes <= 0 {
		return &domain.ValidationError{Field: "timeLimit", QuestionIndex: -1, Message: "must be a positive number of minutes"}
	}
	if len(questions) == 0 {
		return &domain.ValidationError{Field: "questions", QuestionIndex: -1, Message: "at least one question required"}
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			return &domain.ValidationError{Field: "text", QuestionIndex: i, Message: "must not be empty"}
		}
		if len(q.Options) != domain.OptionCount {
			return &domain.ValidationError{Field: "options", QuestionIndex: i, Message: fmt.Sprintf("exactly %d options required", domain.OptionCount)}
		}
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return &domain.ValidationError{Field: "options", QuestionIndex: i, Message: "options must not be empty"}
			}
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return &domain.ValidationError{Field: "correctAnswer", QuestionIndex: i, Message: "out of range"}
		}
	}
	return nil
}

// generateCode returns a uniform random 6-digit code.
func generateCode() string {
	return fmt.Sprintf("%06d", 100000+rand.Intn(900000))
}
