package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sngm3741/contact-relay/api/internal/contact/application"
	"github.com/sngm3741/contact-relay/api/internal/contact/domain"
)

// Schema creates the contact_messages table used by MessageRepository.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS contact_messages (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		message    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS contact_messages_created_at_idx ON contact_messages (created_at DESC)`,
}

const insertMessage = `INSERT INTO contact_messages (id, name, email, message, created_at)
	 VALUES ($1, $2, $3, $4, $5)`

// execer is the subset of *pgxpool.Pool used here.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// MessageRepository is the PostgreSQL implementation of application.Store.
type MessageRepository struct {
	db execer
}

var _ application.Store = (*MessageRepository)(nil)

// NewPool は PostgreSQL 接続プールを生成し、疎通を確認する。
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// NewMessageRepository creates a MessageRepository backed by the given pool.
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: pool}
}

// Append inserts a new contact_messages row.
func (r *MessageRepository) Append(ctx context.Context, msg domain.StoredMessage) error {
	_, err := r.db.Exec(ctx, insertMessage, msg.ID, msg.Name, msg.Email, msg.Message, msg.CreatedAt)
	return err
}

// Migrate applies Schema. Safe to run repeatedly.
func (r *MessageRepository) Migrate(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
