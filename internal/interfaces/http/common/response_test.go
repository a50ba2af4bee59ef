package common

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	req := require.New(t)
	rec := httptest.NewRecorder()

	WriteJSON(nil, rec, http.StatusAccepted, map[string]bool{"success": true})

	req.Equal(http.StatusAccepted, rec.Code)
	req.Equal("application/json", rec.Header().Get("Content-Type"))
	req.JSONEq(`{"success":true}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("ok", func(t *testing.T) {
		var dst payload
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Alice"}`))
		require.NoError(t, DecodeJSON(r, MaxContactRequestBody, &dst))
		require.Equal(t, "Alice", dst.Name)
	})

	t.Run("empty", func(t *testing.T) {
		var dst payload
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		require.ErrorIs(t, DecodeJSON(r, MaxContactRequestBody, &dst), ErrEmptyBody)
	})

	t.Run("truncated by limit", func(t *testing.T) {
		var dst payload
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Alice"}`))
		require.Error(t, DecodeJSON(r, 5, &dst))
	})

	t.Run("wrong type", func(t *testing.T) {
		var dst payload
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":5}`))
		require.Error(t, DecodeJSON(r, MaxContactRequestBody, &dst))
	})
}
