package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/sngm3741/contact-relay/api/internal/contact/application"
	"github.com/sngm3741/contact-relay/api/internal/contact/domain"
)

const messagePrefix = "msg:"

type diskMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageRepository persists messages in BadgerDB.
type MessageRepository struct {
	db *badger.DB
}

var _ application.Store = (*MessageRepository)(nil)

// Open opens (or creates) a Badger directory with quiet logging.
func Open(path string) (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
}

// NewMessageRepository wraps an opened Badger database.
func NewMessageRepository(db *badger.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append stores the message under "msg:{timestamp_padded}:{id}".
// The 19-digit padding keeps keys in chronological order and the id keeps
// two messages written in the same nanosecond apart.
func (r *MessageRepository) Append(ctx context.Context, msg domain.StoredMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := fmt.Sprintf("%s%019d:%s", messagePrefix, msg.CreatedAt.UnixNano(), msg.ID)
	value, err := json.Marshal(diskMessage{
		ID:        msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Message:   msg.Message,
		Timestamp: msg.CreatedAt,
	})
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Messages returns every stored message, oldest first.
func (r *MessageRepository) Messages() ([]domain.StoredMessage, error) {
	var messages []domain.StoredMessage
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(messagePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var dm diskMessage
				if err := json.Unmarshal(value, &dm); err != nil {
					return err
				}
				messages = append(messages, domain.StoredMessage{
					ID:        dm.ID,
					Name:      dm.Name,
					Email:     dm.Email,
					Message:   dm.Message,
					CreatedAt: dm.Timestamp,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}
