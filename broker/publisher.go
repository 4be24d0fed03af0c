package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

// DefaultExchange is the topic exchange events are published to.
const DefaultExchange = "presale.events"

// Message is the JSON body of a published event.
type Message struct {
	Event   string           `json:"event"`
	Account string           `json:"account"`
	Data    presalegen.Event `json:"data"`
	Time    time.Time        `json:"time"`
}

// RoutingKey is "presale.<EventName>", so consumers can bind to "presale.#" or to single events.
func RoutingKey(ev presalegen.Event) string {
	return "presale." + ev.EventName()
}

// NewPublishing builds the persistent JSON message for ev.
func NewPublishing(ev presalegen.Event, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(Message{
		Event:   ev.EventName(),
		Account: ev.EventAccount().String(),
		Data:    ev,
		Time:    now.UTC(),
	})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal %s: %w", ev.EventName(), err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Type:         ev.EventName(),
		Body:         body,
	}, nil
}

// Publisher forwards program events to RabbitMQ.
type Publisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

type Option func(*Publisher)

func WithExchange(name string) Option {
	return func(p *Publisher) {
		p.exchange = name
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// Dial connects to url, retrying until maxRetry elapses, and declares the durable exchange.
func Dial(ctx context.Context, url string, maxRetry time.Duration, opts ...Option) (*Publisher, error) {
	p := &Publisher{exchange: DefaultExchange, logger: zap.NewNop()}
	for _, fn := range opts {
		fn(p)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxRetry
	conn, err := backoff.RetryNotifyWithData(func() (*amqp.Connection, error) {
		return amqp.Dial(url)
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		p.logger.Warn("rabbitmq dial failed", zap.Error(err), zap.Duration("retry_in", wait))
	})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		p.exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}

	p.conn = conn
	p.channel = ch
	p.logger.Info("connected to rabbitmq", zap.String("exchange", p.exchange))
	return p, nil
}

// Emit publishes ev. It satisfies presale.EventSink.
func (p *Publisher) Emit(ctx context.Context, ev presalegen.Event) error {
	msg, err := NewPublishing(ev, time.Now())
	if err != nil {
		return err
	}
	key := RoutingKey(ev)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	p.logger.Debug("event published", zap.String("routing_key", key))
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
