//go:generate go run go.uber.org/mock/mockgen -source=services.go -destination=../../mocks/mock_contact_ports.go -package=mocks
package application

import (
	"context"
	"time"

	"github.com/sngm3741/contact-relay/api/internal/contact/domain"
)

// Store persists accepted submissions. Implementations are append-only and
// must tolerate concurrent Append calls.
type Store interface {
	Append(ctx context.Context, msg domain.StoredMessage) error
}

// Notifier delivers the formatted notification to the operator.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// FailureRecorder keeps a trace of notifications that could not be delivered.
type FailureRecorder interface {
	Record(ctx context.Context, failure FailedNotification) error
}

// FailedNotification captures an undelivered notification for later inspection.
type FailedNotification struct {
	MessageID string
	Name      string
	Email     string
	Message   string
	Target    string
	Error     string
	CreatedAt time.Time
}

// SubmissionService handles a single contact submission end to end.
type SubmissionService interface {
	Handle(ctx context.Context, sub domain.Submission) (domain.Result, error)
}

// PersistPolicy decides whether a store failure aborts the request.
type PersistPolicy string

const (
	// PersistBestEffort logs store failures and still sends the notification.
	PersistBestEffort PersistPolicy = "best-effort"
	// PersistStrict aborts before notifying when the store fails.
	PersistStrict PersistPolicy = "strict"
)

// ParsePersistPolicy maps a configuration value to a policy; unknown values
// fall back to PersistBestEffort.
func ParsePersistPolicy(value string) (PersistPolicy, bool) {
	switch PersistPolicy(value) {
	case PersistStrict:
		return PersistStrict, true
	case PersistBestEffort, "":
		return PersistBestEffort, true
	default:
		return PersistBestEffort, false
	}
}
