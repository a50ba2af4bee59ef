package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sngm3741/contact-relay/api/internal/contact/application"
	"github.com/sngm3741/contact-relay/api/internal/contact/domain"
)

// Record is one entry of the JSON array kept on disk.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageStore keeps all messages in a single JSON array file.
// Appends read the whole file, add one record and rewrite it through a
// temporary file, serialized by mu. Other processes writing the same file
// are not coordinated.
type MessageStore struct {
	mu   sync.Mutex
	path string
}

var _ application.Store = (*MessageStore)(nil)

// NewMessageStore creates the parent directory if needed.
func NewMessageStore(path string) (*MessageStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create message directory: %w", err)
		}
	}
	return &MessageStore{path: path}, nil
}

// Append adds msg to the end of the file.
func (s *MessageStore) Append(ctx context.Context, msg domain.StoredMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}
	records = append(records, Record{
		ID:        msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Message:   msg.Message,
		Timestamp: msg.CreatedAt,
	})
	return s.write(records)
}

// Records returns every stored record in insertion order.
func (s *MessageStore) Records() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *MessageStore) read() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read message file: %w", err)
	}
	if len(data) == 0 {
		return []Record{}, nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode message file: %w", err)
	}
	return records, nil
}

func (s *MessageStore) write(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode message file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace message file: %w", err)
	}
	return nil
}
