package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"evmalert/backend/services/alert-service/internal/models"
)

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends alert events to alerts.{condition} subjects.
type Publisher struct {
	nc     *nats.Conn
	conn   conn
	prefix string
}

// NewPublisher connects to url.
func NewPublisher(url, prefix string) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("alert-service"))
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, conn: nc, prefix: prefix}, nil
}

// Name identifies the feed in logs.
func (p *Publisher) Name() string {
	return "nats"
}

// Subject returns the subject an event of condition is published on.
func (p *Publisher) Subject(condition models.ConditionType) string {
	if p.prefix == "" {
		return string(condition)
	}
	return fmt.Sprintf("%s.%s", p.prefix, condition)
}

// Publish sends event as JSON.
func (p *Publisher) Publish(ctx context.Context, event models.AlertEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.Subject(event.Condition), data)
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}
