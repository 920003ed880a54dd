package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"evmalert/backend/services/alert-service/internal/clients"
)

// StartCommand is the chat command that starts monitoring.
const StartCommand = "/start"

// Replies sent back to the chat that issued StartCommand.
const (
	ReplyStarted        = "Monitoring started. Alerts will be sent to this chat."
	ReplyAlreadyRunning = "Monitoring is already running."
)

// BotAPI is the part of the Telegram client the listener needs.
type BotAPI interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]clients.Update, error)
	DeleteWebhook(ctx context.Context, dropPending bool) error
	SendMessage(ctx context.Context, chatID, text string) error
}

// Starter starts the poll loop.
type Starter interface {
	Start(origin string) error
}

// TriggerListener long-polls bot updates and starts the loop on /start.
type TriggerListener struct {
	bot        BotAPI
	starter    Starter
	timeout    int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewTriggerListener returns listener.
func NewTriggerListener(bot BotAPI, starter Starter, pollTimeoutSeconds int, logger *zap.Logger) *TriggerListener {
	return &TriggerListener{
		bot:        bot,
		starter:    starter,
		timeout:    pollTimeoutSeconds,
		retryDelay: 5 * time.Second,
		logger:     logger,
	}
}

// Run drops queued updates, then handles new ones until ctx is cancelled.
func (l *TriggerListener) Run(ctx context.Context) error {
	if err := l.bot.DeleteWebhook(ctx, true); err != nil {
		l.logger.Warn("failed to drop pending updates", zap.Error(err))
	}

	var offset int64
	for {
		if ctx.Err() != nil {
			return nil
		}
		updates, err := l.bot.GetUpdates(ctx, offset, l.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			delay := l.retryDelay
			var apiErr *clients.APIError
			if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
				delay = apiErr.RetryAfter
			}
			l.logger.Warn("telegram getUpdates failed", zap.Error(err), zap.Duration("retry_in", delay))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			continue
		}
		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			l.handle(ctx, update)
		}
	}
}

func (l *TriggerListener) handle(ctx context.Context, update clients.Update) {
	msg := update.Message
	if msg == nil || !isStartCommand(msg.Text) {
		return
	}
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	reply := ReplyStarted
	if err := l.starter.Start(chatID); err != nil {
		if !errors.Is(err, ErrAlreadyRunning) {
			l.logger.Error("failed to start monitor", zap.String("chat_id", chatID), zap.Error(err))
			return
		}
		reply = ReplyAlreadyRunning
	}
	if err := l.bot.SendMessage(ctx, chatID, reply); err != nil {
		l.logger.Warn("failed to reply to start command", zap.String("chat_id", chatID), zap.Error(err))
	}
}

// isStartCommand accepts "/start", "/start@bot" and "/start payload".
func isStartCommand(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return cmd == StartCommand
}
