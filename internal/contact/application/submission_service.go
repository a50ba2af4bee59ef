package application

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/sngm3741/contact-relay/api/internal/contact/domain"
)

const (
	defaultNotifyTimeout = 10 * time.Second
	defaultStoreTimeout  = 3 * time.Second
	failureRecordTimeout = 3 * time.Second
)

// SubmissionServiceConfig defines dependencies required by the submission service.
type SubmissionServiceConfig struct {
	Logger        *log.Logger
	Store         Store
	Notifier      Notifier
	Failures      FailureRecorder
	Policy        PersistPolicy
	NotifyTimeout time.Duration
	StoreTimeout  time.Duration
	Target        string
	Now           func() time.Time
}

type submissionService struct {
	logger        *log.Logger
	store         Store
	notifier      Notifier
	failures      FailureRecorder
	policy        PersistPolicy
	notifyTimeout time.Duration
	storeTimeout  time.Duration
	target        string
	now           func() time.Time
}

// NewSubmissionService creates a stateless SubmissionService.
func NewSubmissionService(cfg SubmissionServiceConfig) SubmissionService {
	svc := &submissionService{
		logger:        cfg.Logger,
		store:         cfg.Store,
		notifier:      cfg.Notifier,
		failures:      cfg.Failures,
		policy:        cfg.Policy,
		notifyTimeout: cfg.NotifyTimeout,
		storeTimeout:  cfg.StoreTimeout,
		target:        cfg.Target,
		now:           cfg.Now,
	}
	if svc.logger == nil {
		svc.logger = log.New(io.Discard, "", 0)
	}
	if svc.policy == "" {
		svc.policy = PersistBestEffort
	}
	if svc.notifyTimeout <= 0 {
		svc.notifyTimeout = defaultNotifyTimeout
	}
	if svc.storeTimeout <= 0 {
		svc.storeTimeout = defaultStoreTimeout
	}
	if svc.target == "" {
		svc.target = "email"
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// Handle validates, persists and relays a submission.
// The notification outcome alone decides success; the store outcome only
// matters under PersistStrict.
func (s *submissionService) Handle(ctx context.Context, sub domain.Submission) (domain.Result, error) {
	if err := sub.Validate(); err != nil {
		return domain.Failed(domain.MessageFieldsRequired), err
	}

	msg := domain.NewStoredMessage(sub, s.now())
	if err := s.append(ctx, msg); err != nil {
		if s.policy == PersistStrict {
			return domain.Failed(domain.MessageSaveFailed), fmt.Errorf("%w: %v", domain.ErrStore, err)
		}
		s.logger.Printf("メッセージの保存に失敗しました (継続します) id=%s: %v", msg.ID, err)
	}

	notification, err := FormatNotification(sub)
	if err != nil {
		return domain.Failed(domain.MessageSendFailed), fmt.Errorf("%w: %v", domain.ErrNotifier, err)
	}

	if err := s.send(ctx, notification); err != nil {
		s.logger.Printf("通知の送信に失敗しました id=%s: %v", msg.ID, err)
		s.recordFailure(ctx, msg, err)
		return domain.Failed(domain.MessageSendFailed), fmt.Errorf("%w: %v", domain.ErrNotifier, err)
	}

	return domain.Succeeded(), nil
}

func (s *submissionService) append(ctx context.Context, msg domain.StoredMessage) error {
	if s.store == nil {
		s.logger.Printf("ストアが構成されていないため保存をスキップします id=%s", msg.ID)
		return nil
	}
	// 保存はメール送信の前段なので、ストア障害で送信が遅れないよう上限を設ける。
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.Append(ctx, msg)
}

func (s *submissionService) send(ctx context.Context, n Notification) error {
	if s.notifier == nil {
		return fmt.Errorf("notifier is not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	return s.notifier.Send(ctx, n)
}

func (s *submissionService) recordFailure(ctx context.Context, msg domain.StoredMessage, cause error) {
	if s.failures == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureRecordTimeout)
	defer cancel()

	failure := FailedNotification{
		MessageID: msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Message:   msg.Message,
		Target:    s.target,
		Error:     cause.Error(),
		CreatedAt: s.now().UTC(),
	}
	if err := s.failures.Record(ctx, failure); err != nil {
		s.logger.Printf("failed_notifications への保存に失敗: %v", err)
	}
}
