package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"evmalert/backend/services/alert-service/internal/metrics"
	"evmalert/backend/services/alert-service/internal/models"
)

// ErrTransport marks a failed notification delivery.
var ErrTransport = errors.New("notify: delivery failed")

// Delivery channel names used in logs, metrics and errors.
const (
	ChannelEmail     = "email"
	ChannelOrigin    = "chat_origin"
	ChannelBroadcast = "chat_broadcast"
	ChannelFeed      = "feed"
)

// ChatSender delivers text to a chat.
type ChatSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// MailTransport delivers email over a session that can be replaced.
type MailTransport interface {
	SendMail(ctx context.Context, subject, body string) error
	Reconnect(ctx context.Context) error
}

// Feed receives every dispatched alert, e.g. a websocket hub or message bus.
type Feed interface {
	Name() string
	Publish(ctx context.Context, event models.AlertEvent) error
}

// DeliveryError reports one failed target of a dispatch.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver via %s: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// Dispatcher fans an admitted alert out to email, chats and feeds.
type Dispatcher struct {
	chat      ChatSender
	broadcast string
	mail      MailTransport
	feeds     []Feed
	logger    *zap.Logger
}

// NewDispatcher returns dispatcher. mail may be nil when email is disabled.
func NewDispatcher(chat ChatSender, broadcast string, mail MailTransport, logger *zap.Logger, feeds ...Feed) *Dispatcher {
	return &Dispatcher{
		chat:      chat,
		broadcast: broadcast,
		mail:      mail,
		feeds:     feeds,
		logger:    logger,
	}
}

// Dispatch delivers one alert. Email goes first, then the origin chat, the broadcast
// channel and the feeds. A failed target never stops the remaining ones; all failures
// are joined into the returned error.
func (d *Dispatcher) Dispatch(ctx context.Context, origin string, candidate models.AlertCandidate) error {
	msg := Render(candidate)
	var errs []error

	if d.mail != nil {
		if err := d.sendEmail(ctx, msg); err != nil {
			errs = append(errs, d.failed(ChannelEmail, candidate, err))
		}
	}

	if d.chat != nil {
		if origin != "" {
			if err := d.chat.SendMessage(ctx, origin, msg.Body); err != nil {
				errs = append(errs, d.failed(ChannelOrigin, candidate, err))
			}
		}
		if d.broadcast != "" {
			if err := d.chat.SendMessage(ctx, d.broadcast, msg.Body); err != nil {
				errs = append(errs, d.failed(ChannelBroadcast, candidate, err))
			}
		}
	}

	if len(d.feeds) > 0 {
		event := models.AlertEvent{
			ID:         uuid.NewString(),
			Condition:  candidate.Condition,
			DeviceID:   candidate.DeviceID,
			DetectedAt: candidate.DetectedAt,
			Subject:    msg.Subject,
			Text:       msg.Body,
		}
		for _, feed := range d.feeds {
			if err := feed.Publish(ctx, event); err != nil {
				errs = append(errs, d.failed(ChannelFeed+":"+feed.Name(), candidate, err))
			}
		}
	}

	return errors.Join(errs...)
}

// sendEmail tries once, then reconnects and tries exactly one more time.
func (d *Dispatcher) sendEmail(ctx context.Context, msg Message) error {
	err := d.mail.SendMail(ctx, msg.Subject, msg.Body)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	d.logger.Warn("email send failed, reconnecting smtp session", zap.Error(err))
	metrics.EmailRetries.Inc()
	if err := d.mail.Reconnect(ctx); err != nil {
		return fmt.Errorf("smtp reconnect: %w", err)
	}
	return d.mail.SendMail(ctx, msg.Subject, msg.Body)
}

func (d *Dispatcher) failed(channel string, candidate models.AlertCandidate, err error) error {
	metrics.DeliveryFailures.WithLabelValues(channel).Inc()
	d.logger.Warn("alert delivery failed",
		zap.String("channel", channel),
		zap.String("condition", string(candidate.Condition)),
		zap.String("device_id", candidate.DeviceID),
		zap.Error(err),
	)
	return &DeliveryError{Channel: channel, Err: err}
}
