package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTelegramSendMessage(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:abc/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	client := NewTelegramClient(srv.URL, "123:abc", NewDefaultHTTPClient(time.Second), zap.NewNop())
	require.NoError(t, client.SendMessage(context.Background(), "@EVMAlertChannel", "ID: EVM-1"))

	assert.Equal(t, "@EVMAlertChannel", got["chat_id"])
	assert.Equal(t, "ID: EVM-1", got["text"])
}

func TestTelegramRejectedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	client := NewTelegramClient(srv.URL, "t", NewDefaultHTTPClient(time.Second), zap.NewNop())
	err := client.SendMessage(context.Background(), "42", "hi")

	require.ErrorIs(t, err, ErrTelegram)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramGetUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Offset  int64 `json:"offset"`
			Timeout int   `json:"timeout"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(7), req.Offset)
		assert.Equal(t, 5, req.Timeout)
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":7,"message":{"message_id":3,"text":"/start","chat":{"id":-100500,"type":"group"}}},
			{"update_id":8}
		]}`))
	}))
	defer srv.Close()

	client := NewTelegramClient(srv.URL, "t", NewDefaultHTTPClient(time.Second), zap.NewNop())
	updates, err := client.GetUpdates(context.Background(), 7, 5)
	require.NoError(t, err)
	require.Len(t, updates, 2)

	assert.Equal(t, int64(7), updates[0].UpdateID)
	require.NotNil(t, updates[0].Message)
	assert.Equal(t, "/start", updates[0].Message.Text)
	assert.Equal(t, int64(-100500), updates[0].Message.Chat.ID)
	assert.Nil(t, updates[1].Message)
}

func TestTelegramTransportErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewTelegramClient(url, "secret-token", NewDefaultHTTPClient(time.Second), zap.NewNop())
	err := client.DeleteWebhook(context.Background(), true)

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestTelegramRateLimitCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 7","parameters":{"retry_after":7}}`))
	}))
	defer srv.Close()

	client := NewTelegramClient(srv.URL, "t", NewDefaultHTTPClient(time.Second), zap.NewNop())
	_, err := client.GetUpdates(context.Background(), 0, 1)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "getUpdates", apiErr.Method)
	assert.Equal(t, 429, apiErr.Code)
	assert.Equal(t, 7*time.Second, apiErr.RetryAfter)
	assert.ErrorIs(t, err, ErrTelegram)
}

func TestTelegramNonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	client := NewTelegramClient(srv.URL, "secret-token", NewDefaultHTTPClient(time.Second), zap.NewNop())
	err := client.SendMessage(context.Background(), "1", "hi")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.NotContains(t, err.Error(), "secret-token")
}
