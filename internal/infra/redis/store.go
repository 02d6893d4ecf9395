package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"quizlab-service/internal/domain"
	"quizlab-service/internal/storage"
)

// Store is the shared backend. Layout:
//
//	quiz:{id}              quiz document JSON, participants excluded
//	quiz:code:{code}       code -> quiz id
//	quizzes                set of quiz ids
//	quiz:{id}:participants list of participant JSON, one element per attempt
//
// Participants live in their own list so an append is an independent
// RPUSH, never a read-modify-write of the quiz document. Two students
// completing concurrently cannot lose each other's record.
type Store struct {
	client *redis.Client
}

const eventsChannel = "quizzes:events"

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) PutQuiz(ctx context.Context, quiz domain.Quiz) error {
	doc := quiz
	doc.Participants = nil
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.quizKey(quiz.ID), data, 0)
	pipe.Set(ctx, s.codeKey(quiz.Code), quiz.ID, 0)
	pipe.SAdd(ctx, "quizzes", quiz.ID)
	pipe.Publish(ctx, eventsChannel, "put:"+quiz.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put quiz: %w", err)
	}
	return nil
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	ids, err := s.client.SMembers(ctx, "quizzes").Result()
	if err != nil {
		return nil, fmt.Errorf("list quiz ids: %w", err)
	}

	found := make([]*domain.Quiz, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			quiz, err := s.getQuiz(ctx, id)
			if err != nil {
				// An id whose document vanished is skipped, not fatal.
				if errors.Is(err, domain.ErrQuizNotFound) {
					return nil
				}
				return err
			}
			found[i] = &quiz
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	quizzes := make([]domain.Quiz, 0, len(found))
	for _, quiz := range found {
		if quiz != nil {
			quizzes = append(quizzes, *quiz)
		}
	}
	sort.Slice(quizzes, func(i, j int) bool {
		return quizzes[i].CreatedAt.Before(quizzes[j].CreatedAt)
	})
	return quizzes, nil
}

func (s *Store) FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error) {
	id, err := s.client.Get(ctx, s.codeKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, fmt.Errorf("resolve code: %w", err)
	}
	return s.getQuiz(ctx, id)
}

func (s *Store) AppendParticipant(ctx context.Context, quizID string, p domain.Participant) error {
	exists, err := s.client.Exists(ctx, s.quizKey(quizID)).Result()
	if err != nil {
		return fmt.Errorf("check quiz: %w", err)
	}
	if exists == 0 {
		return domain.ErrQuizNotFound
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal participant: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.participantsKey(quizID), data)
	pipe.Publish(ctx, eventsChannel, "participant:"+quizID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append participant: %w", err)
	}
	return nil
}

// SubscribeQuizzes invokes fn once per published collection change until
// the subscription is closed.
func (s *Store) SubscribeQuizzes(ctx context.Context, fn func()) (storage.Subscription, error) {
	pubsub := s.client.Subscribe(ctx, eventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	go func() {
		for range pubsub.Channel() {
			fn()
		}
	}()
	return &subscription{pubsub: pubsub}, nil
}

type subscription struct {
	pubsub *redis.PubSub
}

func (s *subscription) Unsubscribe() {
	_ = s.pubsub.Close()
}

func (s *Store) getQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	data, err := s.client.Get(ctx, s.quizKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, fmt.Errorf("load quiz %s: %w", id, err)
	}

	var quiz domain.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz %s: %w", id, err)
	}

	raw, err := s.client.LRange(ctx, s.participantsKey(id), 0, -1).Result()
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load participants %s: %w", id, err)
	}
	quiz.Participants = make([]domain.Participant, 0, len(raw))
	for _, item := range raw {
		var p domain.Participant
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			return domain.Quiz{}, fmt.Errorf("unmarshal participant: %w", err)
		}
		quiz.Participants = append(quiz.Participants, p)
	}
	return quiz, nil
}

func (s *Store) quizKey(id string) string {
	return "quiz:" + id
}

func (s *Store) codeKey(code string) string {
	return "quiz:code:" + code
}

func (s *Store) participantsKey(id string) string {
	return "quiz:" + id + ":participants"
}
