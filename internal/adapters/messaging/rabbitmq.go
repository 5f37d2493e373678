package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"eventhub/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RSVPBindingKey matches every RSVP routing key on the topic exchange.
const RSVPBindingKey = "rsvp.*"

func declareExchange(ch *amqp.Channel, exchange string) error {
	return ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
}

// publishChannel is the part of *amqp.Channel the publisher uses.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// session is one broker connection with its publishing channel.
type session struct {
	conn io.Closer
	ch   publishChannel
}

func (s *session) close() error {
	_ = s.ch.Close()
	return s.conn.Close()
}

func dialSession(url, exchange string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareExchange(ch, exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &session{conn: conn, ch: ch}, nil
}

// Publisher publishes RSVP messages to a durable topic exchange. A closed channel or
// connection is reopened on the next publish.
type Publisher struct {
	mu       sync.Mutex
	url      string
	exchange string
	dial     func(url, exchange string) (*session, error)
	sess     *session
}

// NewPublisher dials the broker and declares the exchange.
func NewPublisher(url, exchange string) (*Publisher, error) {
	p := &Publisher{url: url, exchange: exchange, dial: dialSession}
	sess, err := p.dial(url, exchange)
	if err != nil {
		return nil, err
	}
	p.sess = sess
	return p, nil
}

// PublishRSVP sends msg as a persistent JSON message. A publish that fails because the
// broker closed the channel is retried once on a fresh session.
func (p *Publisher) PublishRSVP(ctx context.Context, routingKey string, msg *domain.RSVPMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    msg.OccurredAt,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil || p.sess.ch.IsClosed() {
		if err := p.reconnect(); err != nil {
			return err
		}
	}
	err = p.sess.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, pub)
	if !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	if rerr := p.reconnect(); rerr != nil {
		return errors.Join(err, rerr)
	}
	return p.sess.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, pub)
}

// reconnect replaces the session. Callers hold p.mu.
func (p *Publisher) reconnect() error {
	if p.sess != nil {
		_ = p.sess.close()
		p.sess = nil
	}
	sess, err := p.dial(p.url, p.exchange)
	if err != nil {
		return fmt.Errorf("reconnect rabbitmq: %w", err)
	}
	p.sess = sess
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return nil
	}
	err := p.sess.close()
	p.sess = nil
	return err
}

// Consumer feeds RSVP deliveries from a durable queue to a notifier.
type Consumer struct {
	url      string
	exchange string
	queue    string
	prefetch int
	notifier domain.RSVPNotifier
	logger   *slog.Logger
}

// NewConsumer returns a consumer; nothing is dialed until Run.
func NewConsumer(url, exchange, queue string, notifier domain.RSVPNotifier, logger *slog.Logger) *Consumer {
	return &Consumer{url: url, exchange: exchange, queue: queue, prefetch: 20, notifier: notifier, logger: logger}
}

// Run consumes until ctx is cancelled, reconnecting with exponential backoff when the
// broker goes away.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			backoff = time.Second
			err = errors.New("deliveries channel closed")
		}
		c.logger.Warn("rsvp consumer stopped, reconnecting", "err", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	defer conn.Close()
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := declareExchange(ch, c.exchange); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(c.queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, RSVPBindingKey, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", RSVPBindingKey, err)
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		c.logger.Warn("set qos", "err", err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	c.logger.Info("rsvp consumer started", "queue", q.Name, "exchange", c.exchange)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

// handle acks or nacks one delivery. Undecodable bodies, unknown routing keys and
// successfully handled messages are acked. Other failures are requeued once; a message
// that fails again after redelivery is dropped.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var msg domain.RSVPMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		c.logger.Error("drop undecodable rsvp message", "routing_key", d.RoutingKey, "err", err)
		_ = d.Ack(false)
		return
	}
	err := c.notifier.HandleRSVP(ctx, d.RoutingKey, &msg)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, domain.ErrUnknownRoutingKey):
		c.logger.Warn("drop rsvp message", "routing_key", d.RoutingKey, "err", err)
		_ = d.Ack(false)
	case d.Redelivered:
		c.logger.Error("drop rsvp message after retry", "routing_key", d.RoutingKey, "event_id", msg.EventID, "err", err)
		_ = d.Nack(false, false)
	default:
		c.logger.Warn("requeue rsvp message", "routing_key", d.RoutingKey, "event_id", msg.EventID, "err", err)
		_ = d.Nack(false, true)
	}
}
