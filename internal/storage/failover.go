package storage

import (
	"context"
	"errors"
	"log"

	"quizlab-service/internal/domain"
)

// Failover tries the shared remote backend first and transparently retries
// every failed call on the device-local backend. The local outcome then
// becomes the provider's result, so an unreachable shared store never makes
// quiz-taking impossible on a single device.
//
// A remote lookup miss also retries locally, which keeps quizzes created
// while the remote was unreachable findable on the device that holds them.
type Failover struct {
	remote Provider // nil when no remote backend is configured
	local  Provider
	logf   func(format string, args ...any)
}

func NewFailover(remote, local Provider) *Failover {
	return &Failover{remote: remote, local: local, logf: log.Printf}
}

func (f *Failover) PutQuiz(ctx context.Context, quiz domain.Quiz) error {
	if f.remote == nil {
		return f.local.PutQuiz(ctx, quiz)
	}
	if err := f.remote.PutQuiz(ctx, quiz); err != nil {
		f.logf("storage: remote put quiz %s failed, retrying locally: %v", quiz.ID, err)
		return f.local.PutQuiz(ctx, quiz)
	}
	return nil
}

func (f *Failover) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	if f.remote == nil {
		return f.local.ListQuizzes(ctx)
	}
	quizzes, err := f.remote.ListQuizzes(ctx)
	if err != nil {
		f.logf("storage: remote list failed, retrying locally: %v", err)
		return f.local.ListQuizzes(ctx)
	}
	return quizzes, nil
}

func (f *Failover) FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error) {
	if f.remote == nil {
		return f.local.FindQuizByCode(ctx, code)
	}
	quiz, err := f.remote.FindQuizByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, domain.ErrQuizNotFound) {
			f.logf("storage: remote lookup of code %s failed, retrying locally: %v", code, err)
		}
		return f.local.FindQuizByCode(ctx, code)
	}
	return quiz, nil
}

func (f *Failover) AppendParticipant(ctx context.Context, quizID string, p domain.Participant) error {
	if f.remote == nil {
		return f.local.AppendParticipant(ctx, quizID, p)
	}
	if err := f.remote.AppendParticipant(ctx, quizID, p); err != nil {
		f.logf("storage: remote append participant to %s failed, retrying locally: %v", quizID, err)
		return f.local.AppendParticipant(ctx, quizID, p)
	}
	return nil
}

func (f *Failover) SubscribeQuizzes(ctx context.Context, fn func()) (Subscription, error) {
	if f.remote == nil {
		return f.local.SubscribeQuizzes(ctx, fn)
	}
	sub, err := f.remote.SubscribeQuizzes(ctx, fn)
	if err != nil {
		f.logf("storage: remote subscribe failed, falling back to local: %v", err)
		return f.local.SubscribeQuizzes(ctx, fn)
	}
	return sub, nil
}
