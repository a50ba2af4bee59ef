package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/contact-relay/api/internal/contact/domain"
)

type execCall struct {
	sql  string
	args []any
}

// fakeExecer records Exec calls in memory.
type fakeExecer struct {
	mu    sync.Mutex
	calls []execCall
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestMessageRepository_Append(t *testing.T) {
	req := require.New(t)
	db := &fakeExecer{}
	repo := &MessageRepository{db: db}
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	msg := domain.NewStoredMessage(domain.Submission{Name: "Alice", Email: "alice@example.com", Message: "Hi"}, created)

	req.NoError(repo.Append(context.Background(), msg))

	req.Len(db.calls, 1)
	req.Contains(db.calls[0].sql, "INSERT INTO contact_messages")
	req.Equal([]any{msg.ID, "Alice", "alice@example.com", "Hi", created}, db.calls[0].args)
}

func TestMessageRepository_AppendError(t *testing.T) {
	req := require.New(t)
	repo := &MessageRepository{db: &fakeExecer{err: errors.New("connection reset")}}

	err := repo.Append(context.Background(), domain.StoredMessage{ID: "x"})
	req.EqualError(err, "connection reset")
}

func TestMessageRepository_Migrate(t *testing.T) {
	req := require.New(t)
	db := &fakeExecer{}
	repo := &MessageRepository{db: db}

	req.NoError(repo.Migrate(context.Background()))
	req.Len(db.calls, len(Schema))
	req.Contains(db.calls[0].sql, "CREATE TABLE IF NOT EXISTS contact_messages")
	req.Contains(db.calls[1].sql, "CREATE INDEX IF NOT EXISTS")
}
