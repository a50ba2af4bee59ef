package messenger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/contact-relay/api/internal/contact/application"
)

var sample = application.Notification{
	SenderName: "Alice",
	ReplyTo:    "alice@example.com",
	Subject:    "New Contact Form Message from Alice",
	Text:       "Name: Alice\nEmail: alice@example.com\n\nMessage:\nHi",
}

func TestNotifier_Send(t *testing.T) {
	req := require.New(t)

	var got map[string]any
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal(http.MethodPost, r.Method)
		req.Equal("/messages", r.URL.Path)
		req.Equal("application/json", r.Header.Get("Content-Type"))
		authHeader = r.Header.Get("Authorization")
		req.NoError(json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	notifier := NewNotifier(Config{Endpoint: server.URL + "/", Destination: "discord"})
	req.NoError(notifier.Send(context.Background(), sample))

	req.Equal("admin", got["userId"])
	req.Equal("discord", got["destination"])
	req.Contains(got["text"], "New Contact Form Message from Alice")
	req.Contains(got["text"], "Message:\nHi")
	req.Empty(authHeader)
}

func TestNotifier_SendsSignedToken(t *testing.T) {
	req := require.New(t)
	secret := []byte("gateway-secret")

	var token string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewNotifier(Config{Endpoint: server.URL, UserID: "operator", Secret: secret})
	req.NoError(notifier.Send(context.Background(), sample))

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	req.NoError(err)
	req.True(parsed.Valid)
	req.Equal("contact-relay", claims.Issuer)
	req.Equal("operator", claims.Subject)
}

func TestNotifier_GatewayError(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "destination unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	notifier := NewNotifier(Config{Endpoint: server.URL})
	err := notifier.Send(context.Background(), sample)

	req.Error(err)
	req.Contains(err.Error(), "status=502")
}

func TestNotifier_EmptyEndpoint(t *testing.T) {
	req := require.New(t)
	notifier := NewNotifier(Config{})
	req.Error(notifier.Send(context.Background(), sample))
}

func TestNotifier_RespectsContext(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	notifier := NewNotifier(Config{Endpoint: server.URL})
	req.Error(notifier.Send(ctx, sample))
}
