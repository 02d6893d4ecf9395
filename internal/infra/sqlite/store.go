package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"

	"quizlab-service/internal/domain"
	"quizlab-service/internal/infra/sqlite/migrations"
	"quizlab-service/internal/storage"
)

// quizRow holds one quiz as a single JSON document. Every mutation rewrites
// the whole document, matching the single-device store this backend replaces.
type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        string    `bun:"id,pk"`
	Code      string    `bun:"code"`
	Data      []byte    `bun:"data"`
	CreatedAt time.Time `bun:"created_at"`
}

// Store is the device-local backend: quiz documents in a SQLite file.
type Store struct {
	db *bun.DB
}

// Open opens (or creates) the SQLite database at path. Use
// "file::memory:?cache=shared" for tests.
func Open(path string) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	return &Store{db: bun.NewDB(sqldb, sqlitedialect.New())}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	migrator := migrate.NewMigrator(s.db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}
	_, err := migrator.Migrate(ctx)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) PutQuiz(ctx context.Context, quiz domain.Quiz) error {
	row, err := toRow(quiz)
	if err != nil {
		return err
	}
	_, err = s.db.NewInsert().
		Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("code = EXCLUDED.code").
		Set("data = EXCLUDED.data").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("put quiz: %w", err)
	}
	return nil
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var rows []quizRow
	if err := s.db.NewSelect().Model(&rows).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	quizzes := make([]domain.Quiz, 0, len(rows))
	for _, row := range rows {
		quiz, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

func (s *Store) FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error) {
	var row quizRow
	err := s.db.NewSelect().Model(&row).Where("code = ?", code).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, fmt.Errorf("find quiz by code: %w", err)
	}
	return fromRow(row)
}

// AppendParticipant reads the quiz document, appends the attempt, and
// rewrites the document in full. Fine for a single-device store; the shared
// backend avoids this read-modify-write.
func (s *Store) AppendParticipant(ctx context.Context, quizID string, p domain.Participant) error {
	var row quizRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", quizID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrQuizNotFound
		}
		return fmt.Errorf("load quiz: %w", err)
	}

	quiz, err := fromRow(row)
	if err != nil {
		return err
	}
	quiz.Participants = append(quiz.Participants, p)

	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.db.NewUpdate().
		Model((*quizRow)(nil)).
		Set("data = ?", data).
		Where("id = ?", quizID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("append participant: %w", err)
	}
	return nil
}

// SubscribeQuizzes is a no-op: the local store has no change notification.
func (s *Store) SubscribeQuizzes(_ context.Context, _ func()) (storage.Subscription, error) {
	return storage.NopSubscription{}, nil
}

func toRow(quiz domain.Quiz) (quizRow, error) {
	data, err := json.Marshal(quiz)
	if err != nil {
		return quizRow{}, fmt.Errorf("marshal quiz: %w", err)
	}
	return quizRow{
		ID:        quiz.ID,
		Code:      quiz.Code,
		Data:      data,
		CreatedAt: quiz.CreatedAt,
	}, nil
}

func fromRow(row quizRow) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := json.Unmarshal(row.Data, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz %s: %w", row.ID, err)
	}
	if quiz.Participants == nil {
		quiz.Participants = []domain.Participant{}
	}
	return quiz, nil
}
