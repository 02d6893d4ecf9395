package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quizlab-service/internal/domain"
	"quizlab-service/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func sampleQuiz(id, code string) domain.Quiz {
	return domain.Quiz{
		ID:               id,
		Code:             code,
		Title:            "Sample",
		TimeLimitMinutes: 5,
		Questions: []domain.Question{
			{Text: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: 1},
		},
		CreatedAt:    time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Participants: []domain.Participant{},
	}
}

func TestPutAndFindByCode(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	quiz := sampleQuiz("q1", "111111")
	require.NoError(t, store.PutQuiz(ctx, quiz))

	found, err := store.FindQuizByCode(ctx, "111111")
	require.NoError(t, err)
	require.Equal(t, quiz, found)

	_, err = store.FindQuizByCode(ctx, "999999")
	require.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestPutQuizOverwritesDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	quiz := sampleQuiz("q1", "111111")
	require.NoError(t, store.PutQuiz(ctx, quiz))

	quiz.Title = "Renamed"
	require.NoError(t, store.PutQuiz(ctx, quiz))

	quizzes, err := store.ListQuizzes(ctx)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	require.Equal(t, "Renamed", quizzes[0].Title)
}

func TestListQuizzesOrderedByCreation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := sampleQuiz("q1", "111111")
	newer := sampleQuiz("q2", "222222")
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)
	require.NoError(t, store.PutQuiz(ctx, newer))
	require.NoError(t, store.PutQuiz(ctx, older))

	quizzes, err := store.ListQuizzes(ctx)
	require.NoError(t, err)
	require.Len(t, quizzes, 2)
	require.Equal(t, "q1", quizzes[0].ID)
	require.Equal(t, "q2", quizzes[1].ID)
}

func TestAppendParticipantRewritesDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutQuiz(ctx, sampleQuiz("q1", "111111")))

	alice := domain.Participant{Name: "Alice", Score: 1, CompletedAt: time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)}
	bob := domain.Participant{Name: "Bob", Score: 0, CompletedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	require.NoError(t, store.AppendParticipant(ctx, "q1", alice))
	require.NoError(t, store.AppendParticipant(ctx, "q1", bob))

	found, err := store.FindQuizByCode(ctx, "111111")
	require.NoError(t, err)
	require.Equal(t, []domain.Participant{alice, bob}, found.Participants)

	require.ErrorIs(t, store.AppendParticipant(ctx, "missing", alice), domain.ErrQuizNotFound)
}

func TestSubscribeIsNoOp(t *testing.T) {
	store := newTestStore(t)

	sub, err := store.SubscribeQuizzes(context.Background(), func() {})
	require.NoError(t, err)
	require.IsType(t, storage.NopSubscription{}, sub)
	sub.Unsubscribe()
}
