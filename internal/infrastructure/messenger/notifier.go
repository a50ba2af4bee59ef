package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sngm3741/contact-relay/api/internal/contact/application"
)

const (
	defaultUserID   = "admin"
	tokenIssuer     = "contact-relay"
	tokenTTL        = time.Minute
	maxErrorBodyLen = 1 << 16
)

// Config defines the messenger-gateway destination.
type Config struct {
	Endpoint    string
	Destination string
	UserID      string
	Secret      []byte
	HTTPClient  *http.Client
}

// Notifier relays contact notifications through the messenger gateway
// (LINE / Discord / Slack fan-out lives in the gateway).
type Notifier struct {
	httpClient  *http.Client
	endpoint    string
	destination string
	userID      string
	secret      []byte
	now         func() time.Time
}

var _ application.Notifier = (*Notifier)(nil)

// NewNotifier builds a gateway notifier; UserID defaults to "admin".
func NewNotifier(cfg Config) *Notifier {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	userID := strings.TrimSpace(cfg.UserID)
	if userID == "" {
		userID = defaultUserID
	}
	return &Notifier{
		httpClient:  client,
		endpoint:    strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		destination: strings.TrimSpace(cfg.Destination),
		userID:      userID,
		secret:      cfg.Secret,
		now:         time.Now,
	}
}

// Send posts the notification once; there is no retry.
func (n *Notifier) Send(ctx context.Context, notification application.Notification) error {
	if n.endpoint == "" {
		return errors.New("messenger endpoint is empty")
	}

	payload := map[string]any{
		"userId": n.userID,
		"text":   buildMessengerText(notification),
	}
	if n.destination != "" {
		payload["destination"] = n.destination
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("メッセンジャー送信用ペイロードの作成に失敗: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("メッセンジャー送信リクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if len(n.secret) > 0 {
		token, err := n.signToken()
		if err != nil {
			return fmt.Errorf("メッセンジャー認証トークンの生成に失敗: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("メッセンジャー送信リクエストに失敗: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		message, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBodyLen))
		return fmt.Errorf("メッセンジャー送信でエラーが発生: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(message)))
	}
	return nil
}

func (n *Notifier) signToken() (string, error) {
	now := n.now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   n.userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(n.secret)
}

func buildMessengerText(notification application.Notification) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("**%s**\n", notification.Subject))
	builder.WriteString(notification.Text)
	builder.WriteString("\n")
	return builder.String()
}
