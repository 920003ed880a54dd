package clients

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// TelegramClient talks to the Telegram Bot API.
type TelegramClient struct {
	base   *BaseClient
	logger *zap.Logger
}

// Chat identifies the chat a message came from.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// IncomingMessage is the subset of a Bot API message the service needs.
type IncomingMessage struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
}

// Update is one entry returned by getUpdates.
type Update struct {
	UpdateID int64            `json:"update_id"`
	Message  *IncomingMessage `json:"message,omitempty"`
}

// NewTelegramClient returns client wrapper.
func NewTelegramClient(apiURL, token string, client HTTPDoer, logger *zap.Logger) *TelegramClient {
	return &TelegramClient{
		base:   NewBaseClient(apiURL+"/bot"+token, client),
		logger: logger,
	}
}

// SendMessage posts text to a chat id or @channel name.
func (c *TelegramClient) SendMessage(ctx context.Context, chatID, text string) error {
	payload := map[string]string{
		"chat_id": chatID,
		"text":    text,
	}
	return c.logRejection(c.base.Call(ctx, "sendMessage", payload, nil))
}

// GetUpdates long-polls for new updates starting at offset.
func (c *TelegramClient) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	payload := map[string]interface{}{
		"offset":          offset,
		"timeout":         timeoutSeconds,
		"allowed_updates": []string{"message"},
	}
	var updates []Update
	if err := c.base.Call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, c.logRejection(err)
	}
	return updates, nil
}

// DeleteWebhook switches the bot to polling and optionally drops queued updates.
func (c *TelegramClient) DeleteWebhook(ctx context.Context, dropPending bool) error {
	return c.logRejection(c.base.Call(ctx, "deleteWebhook", map[string]bool{"drop_pending_updates": dropPending}, nil))
}

func (c *TelegramClient) logRejection(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.logger.Debug("telegram api rejected request",
			zap.String("method", apiErr.Method),
			zap.Int("status", apiErr.Status),
			zap.Duration("retry_after", apiErr.RetryAfter),
		)
	}
	return err
}
