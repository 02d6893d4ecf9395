package storage

import (
	"context"

	"quizlab-service/internal/domain"
)

// Provider is the uniform document-store contract over the device-local
// and shared backends. Callers never learn which backend served a call.
type Provider interface {
	// PutQuiz stores or replaces a quiz document.
	PutQuiz(ctx context.Context, quiz domain.Quiz) error
	// ListQuizzes returns every stored quiz. No quizzes is an empty slice,
	// not an error.
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	// FindQuizByCode looks a quiz up by exact code match. A miss is
	// domain.ErrQuizNotFound.
	FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error)
	// AppendParticipant appends one completed attempt to a quiz.
	AppendParticipant(ctx context.Context, quizID string, p domain.Participant) error
	// SubscribeQuizzes invokes fn whenever the quiz collection changes.
	// Backends without change notification return a no-op subscription.
	SubscribeQuizzes(ctx context.Context, fn func()) (Subscription, error)
}

// Subscription is a handle for an active change-notification stream.
type Subscription interface {
	Unsubscribe()
}

// NopSubscription is the handle returned by backends that never notify.
type NopSubscription struct{}

func (NopSubscription) Unsubscribe() {}
