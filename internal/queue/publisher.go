package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/book-lending/internal/config"
)

// Publisher sends ActivityEvents to a durable queue.  Each publish opens its
// own connection, so a broker outage only affects the events raised while
// it lasts.
type Publisher struct {
	url   string
	queue string
	log   logrus.FieldLogger
}

func NewPublisher(cfg config.EventsConfig, log logrus.FieldLogger) *Publisher {
	return &Publisher{url: cfg.URL, queue: cfg.Queue, log: log.WithField("component", "publisher")}
}

// Publish marshals ev and publishes it as a persistent message.  Errors are
// logged and returned so the caller can choose to ignore them.
func (p *Publisher) Publish(ctx context.Context, ev ActivityEvent) error {
	if err := p.publish(ctx, ev); err != nil {
		p.log.WithError(err).WithField("event", ev.Type).Warn("publish failed")
		return err
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, ev ActivityEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, p.queue); err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(ev.Type),
		Body:         body,
	})
}

// declare makes sure the durable queue exists.  It is idempotent.
func declare(ch *amqp.Channel, name string) error {
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}
