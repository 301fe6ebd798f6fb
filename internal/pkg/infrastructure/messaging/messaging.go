package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/logging"
)

const (
	DefaultExchange = "spoolsync"
	publishTimeout  = 5 * time.Second
)

type Config struct {
	URL      string
	Exchange string
	Source   string
}

// Publisher puts every application event on a topic exchange. Event names
// are used as routing keys with ':' replaced by '.'.
type Publisher interface {
	Publish(ctx context.Context, name string, payload any)
	Close() error
}

type publisher struct {
	cfg Config

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func New(ctx context.Context, cfg Config) (Publisher, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}

	p := &publisher{cfg: cfg}
	if err := p.connect(); err != nil {
		return nil, err
	}

	log := logging.GetLoggerFromContext(ctx)
	log.Info().Str("exchange", cfg.Exchange).Msg("connected to message broker")

	return p, nil
}

func (p *publisher) connect() error {
	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to message broker: %w", err)
	}

	p.conn = conn

	if err := p.openChannel(); err != nil {
		conn.Close()
		p.conn = nil
		return err
	}

	return nil
}

// openChannel opens a channel on the current connection and declares the exchange.
func (p *publisher) openChannel() error {
	channel, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(p.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		channel.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", p.cfg.Exchange, err)
	}

	p.channel = channel

	return nil
}

type closable interface {
	IsClosed() bool
}

// reconnect tells what has to be reopened before publishing. A broker
// exception closes the channel but leaves the connection open.
func reconnect(conn, channel closable) (dial, reopen bool) {
	if conn == nil || conn.IsClosed() {
		return true, true
	}
	if channel == nil || channel.IsClosed() {
		return false, true
	}
	return false, false
}

func RoutingKey(name string) string {
	return strings.ReplaceAll(name, ":", ".")
}

func (p *publisher) Publish(ctx context.Context, name string, payload any) {
	log := logging.GetLoggerFromContext(ctx)

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", name).Msg("could not marshal message")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var conn, channel closable
	if p.conn != nil {
		conn = p.conn
	}
	if p.channel != nil {
		channel = p.channel
	}

	switch dial, reopen := reconnect(conn, channel); {
	case dial:
		if err := p.connect(); err != nil {
			log.Error().Err(err).Msg("message broker unavailable")
			return
		}
	case reopen:
		if err := p.openChannel(); err != nil {
			log.Error().Err(err).Msg("could not reopen channel to message broker")
			return
		}
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, p.cfg.Exchange, RoutingKey(name), false, false, amqp.Publishing{
		ContentType: "application/json",
		AppId:       p.cfg.Source,
		Timestamp:   time.Now().UTC(),
		Body:        body,
	})
	if err != nil {
		log.Error().Err(err).Str("topic", RoutingKey(name)).Msg("failed to publish message")
	}
}

func (p *publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}

	err := p.conn.Close()
	p.conn, p.channel = nil, nil

	return err
}
