package mail

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/sngm3741/contact-relay/api/internal/contact/application"
)

// Config holds the SMTP transport settings.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	Recipient string
	Timeout   time.Duration
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPNotifier sends the contact notification to a fixed operator address.
type SMTPNotifier struct {
	client    sender
	from      string
	recipient string
	logger    *log.Logger
}

var _ application.Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier builds an authenticated SMTP client. The connection is
// opened per Send, so a bad credential only surfaces when a message is sent.
func NewSMTPNotifier(cfg Config, logger *log.Logger) (*SMTPNotifier, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
	}
	if cfg.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(cfg.Timeout))
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return newSMTPNotifier(client, cfg, logger), nil
}

func newSMTPNotifier(client sender, cfg Config, logger *log.Logger) *SMTPNotifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	recipient := cfg.Recipient
	if recipient == "" {
		recipient = cfg.From
	}
	return &SMTPNotifier{
		client:    client,
		from:      cfg.From,
		recipient: recipient,
		logger:    logger,
	}
}

// Send delivers n in a single attempt.
func (s *SMTPNotifier) Send(ctx context.Context, n application.Notification) error {
	msg, err := s.buildMessage(n)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPNotifier) buildMessage(n application.Notification) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(n.SenderName, s.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(s.recipient); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	if n.ReplyTo != "" {
		// the submitter address is not validated upstream; drop it rather than fail delivery
		if err := msg.ReplyTo(n.ReplyTo); err != nil {
			s.logger.Printf("Reply-To を設定できないためスキップします: %v", err)
		}
	}
	msg.Subject(n.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, n.Text)
	msg.AddAlternativeString(gomail.TypeTextHTML, n.HTML)
	return msg, nil
}
