package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sngm3741/contact-relay/api/internal/contact/domain"
)

func newMessage(name string) domain.StoredMessage {
	return domain.NewStoredMessage(domain.Submission{
		Name:    name,
		Email:   name + "@example.com",
		Message: "Hi",
	}, time.Now())
}

func TestMessageStore_AppendKeepsOrder(t *testing.T) {
	req := require.New(t)
	store, err := NewMessageStore(filepath.Join(t.TempDir(), "data", "messages.json"))
	req.NoError(err)

	first := newMessage("alice")
	second := newMessage("bob")
	req.NoError(store.Append(context.Background(), first))
	req.NoError(store.Append(context.Background(), second))

	records, err := store.Records()
	req.NoError(err)
	req.Len(records, 2)
	req.Equal(first.ID, records[0].ID)
	req.Equal("alice", records[0].Name)
	req.Equal("alice@example.com", records[0].Email)
	req.Equal(second.ID, records[1].ID)
}

func TestMessageStore_IdenticalSubmissionsAreKept(t *testing.T) {
	req := require.New(t)
	store, err := NewMessageStore(filepath.Join(t.TempDir(), "messages.json"))
	req.NoError(err)

	req.NoError(store.Append(context.Background(), newMessage("alice")))
	req.NoError(store.Append(context.Background(), newMessage("alice")))

	records, err := store.Records()
	req.NoError(err)
	req.Len(records, 2)
	req.NotEqual(records[0].ID, records[1].ID)
}

func TestMessageStore_ConcurrentAppends(t *testing.T) {
	req := require.New(t)
	store, err := NewMessageStore(filepath.Join(t.TempDir(), "messages.json"))
	req.NoError(err)

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Append(context.Background(), newMessage("user"))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	records, err := store.Records()
	req.NoError(err)
	req.Len(records, n)
	ids := make(map[string]struct{}, n)
	for _, r := range records {
		ids[r.ID] = struct{}{}
	}
	req.Len(ids, n)
}

func TestMessageStore_CorruptFile(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "messages.json")
	req.NoError(os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := NewMessageStore(path)
	req.NoError(err)

	req.Error(store.Append(context.Background(), newMessage("alice")))
	data, err := os.ReadFile(path)
	req.NoError(err)
	req.Equal("{not json", string(data))
}

func TestMessageStore_CancelledContext(t *testing.T) {
	req := require.New(t)
	store, err := NewMessageStore(filepath.Join(t.TempDir(), "messages.json"))
	req.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req.ErrorIs(store.Append(ctx, newMessage("alice")), context.Canceled)
}
