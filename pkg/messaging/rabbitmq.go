package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/medflow/pharmacy-inventory/pkg/config"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DeadLetterExchange receives messages rejected by any consumer queue
const DeadLetterExchange = "dlx.events"

// RabbitMQ owns the broker connection and the single channel shared by the
// inventory publisher and the catalog consumer
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	logger  *logger.Logger
	mu      sync.RWMutex
	closed  bool
}

// New connects to the broker at cfg.URL
func New(cfg *config.RabbitMQConfig, log *logger.Logger) (*RabbitMQ, error) {
	rmq := &RabbitMQ{
		config: cfg,
		logger: log,
	}

	if err := rmq.connect(); err != nil {
		return nil, err
	}

	return rmq, nil
}

// connect dials the broker and opens the shared channel. Callers hold mu or
// own r exclusively.
func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.config.URL)
	if err != nil {
		return fmt.Errorf("dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.Qos(r.config.PrefetchCount, 0, false); err != nil {
		conn.Close()
		return fmt.Errorf("set prefetch %d: %w", r.config.PrefetchCount, err)
	}

	r.conn, r.channel = conn, ch
	r.logger.Info().Int("prefetch", r.config.PrefetchCount).Msg("connected to RabbitMQ")
	return nil
}

// Channel returns the channel of the live connection
func (r *RabbitMQ) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

// Connection returns the live connection
func (r *RabbitMQ) Connection() *amqp.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conn
}

// Close shuts the channel and the connection. Watch and Reconnect stop for good
// afterwards.
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	if r.channel != nil && !r.channel.IsClosed() {
		if err := r.channel.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("close RabbitMQ channel")
		}
	}
	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("close RabbitMQ connection: %w", err)
		}
	}

	r.logger.Info().Msg("RabbitMQ connection closed")
	return nil
}

// Health reports whether the broker connection is open
func (r *RabbitMQ) Health() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.conn == nil || r.conn.IsClosed() {
		return map[string]string{"status": "down", "error": "connection closed"}
	}
	return map[string]string{"status": "up"}
}

func declareTopicExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil)
}

// DeclareExchange declares a durable topic exchange such as inventory.events
func (r *RabbitMQ) DeclareExchange(name string) error {
	return declareTopicExchange(r.Channel(), name)
}

// DeclareQueue declares a durable consumer queue whose rejected messages go to
// DeadLetterExchange
func (r *RabbitMQ) DeclareQueue(name string) (amqp.Queue, error) {
	return r.Channel().QueueDeclare(name, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": DeadLetterExchange,
	})
}

// DeclareDeadLetterQueue declares DeadLetterExchange and binds dlq.<serviceName>
// to every routing key on it. Call it before declaring consumer queues.
func (r *RabbitMQ) DeclareDeadLetterQueue(serviceName string) error {
	ch := r.Channel()
	if err := declareTopicExchange(ch, DeadLetterExchange); err != nil {
		return fmt.Errorf("declare %s: %w", DeadLetterExchange, err)
	}

	queueName := "dlq." + serviceName
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", queueName, err)
	}
	if err := ch.QueueBind(queueName, "#", DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", queueName, err)
	}
	return nil
}

// BindQueue binds queueName to exchange for routingKey, e.g. catalog.product.#
func (r *RabbitMQ) BindQueue(queueName, exchange, routingKey string) error {
	return r.Channel().QueueBind(queueName, routingKey, exchange, false, nil)
}

// Watch reconnects whenever the broker drops the connection and then calls
// onReconnect, e.g. to restart consumers. It returns when ctx is done, the
// connection is closed with Close, or reconnecting gives up.
func (r *RabbitMQ) Watch(ctx context.Context, onReconnect func()) {
	for {
		closed := r.Connection().NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-ctx.Done():
			return
		case amqpErr, ok := <-closed:
			if !ok || amqpErr == nil {
				// graceful Close
				return
			}
			r.logger.Warn().Str("reason", amqpErr.Reason).Int("code", amqpErr.Code).Msg("RabbitMQ connection lost")
		}

		if err := r.Reconnect(ctx); err != nil {
			r.logger.Error().Err(err).Msg("giving up on RabbitMQ")
			return
		}
		if onReconnect != nil {
			onReconnect()
		}
	}
}

// Reconnect redials the broker up to MaxRetries times, waiting ReconnectDelay
// between attempts. Callers of Channel see the new channel once it returns.
func (r *RabbitMQ) Reconnect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New("connection is permanently closed")
	}

	for attempt := 1; attempt <= r.config.MaxRetries; attempt++ {
		err := r.connect()
		if err == nil {
			return nil
		}
		r.logger.Warn().Err(err).Int("attempt", attempt).Msg("RabbitMQ reconnect failed")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.config.ReconnectDelay):
		}
	}

	return fmt.Errorf("RabbitMQ unreachable after %d attempts", r.config.MaxRetries)
}
