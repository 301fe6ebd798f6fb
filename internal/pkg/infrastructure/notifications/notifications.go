package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/logging"
)

const (
	EventSource = "github.com/spoolsync/spool-mgmt"
	sendTimeout = 5 * time.Second
	queueSize   = 64
)

type SubscriberConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// Notification subscribes endpoints to one application event, e.g. inventory:low_stock_alert.
type Notification struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Type        string             `yaml:"type"`
	Subscribers []SubscriberConfig `yaml:"subscribers"`
}

// Sender delivers application events as cloud events to configured subscribers.
// Publish queues the event and returns, Send delivers it before returning.
type Sender interface {
	Publish(ctx context.Context, name string, payload any)
	Send(ctx context.Context, name string, payload any) error
	Close()
}

type delivery struct {
	ctx     context.Context
	name    string
	payload any
}

type sender struct {
	client      cloudevents.Client
	subscribers map[string][]SubscriberConfig

	mu     sync.RWMutex
	closed bool
	queue  chan delivery
	done   chan struct{}
}

func New(notifications []Notification) (Sender, error) {
	c, err := cloudevents.NewClientHTTP()
	if err != nil {
		return nil, err
	}

	s := &sender{
		client:      c,
		subscribers: map[string][]SubscriberConfig{},
		queue:       make(chan delivery, queueSize),
		done:        make(chan struct{}),
	}

	for _, n := range notifications {
		s.subscribers[n.Type] = append(s.subscribers[n.Type], n.Subscribers...)
	}

	go s.run()

	return s, nil
}

func (s *sender) run() {
	defer close(s.done)

	for d := range s.queue {
		if err := s.Send(d.ctx, d.name, d.payload); err != nil {
			log := logging.GetLoggerFromContext(d.ctx)
			log.Warn().Err(err).Str("event", d.name).Msg("notification not delivered")
		}
	}
}

// Close stops accepting events and waits for the queued ones to be sent.
func (s *sender) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
}

// EventType converts an application event name to a cloud event type.
func EventType(name string) string {
	return "spoolsync." + strings.ReplaceAll(name, ":", ".")
}

// Publish never waits for a subscriber. Events are dropped when the queue is full.
func (s *sender) Publish(ctx context.Context, name string, payload any) {
	if len(s.subscribers[name]) == 0 {
		return
	}

	log := logging.GetLoggerFromContext(ctx)

	// the caller's context may be cancelled before the event is sent
	d := delivery{
		ctx:     logging.NewContextWithLogger(context.Background(), log),
		name:    name,
		payload: payload,
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}

	select {
	case s.queue <- d:
	default:
		log.Warn().Str("event", name).Msg("notification queue full, event dropped")
	}
}

func (s *sender) Send(ctx context.Context, name string, payload any) error {
	subscribers, ok := s.subscribers[name]
	if !ok || len(subscribers) == 0 {
		return nil
	}

	now := time.Now().UTC()

	event := cloudevents.NewEvent()
	event.SetID(fmt.Sprintf("%s:%s", name, uuid.NewString()))
	event.SetTime(now)
	event.SetSource(EventSource)
	event.SetType(EventType(name))

	err := event.SetData(cloudevents.ApplicationJSON, payload)
	if err != nil {
		return err
	}

	logger := logging.GetLoggerFromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	for _, sub := range subscribers {
		ctxWithTarget := cloudevents.ContextWithTarget(ctx, sub.Endpoint)

		result := s.client.Send(ctxWithTarget, event)
		if cloudevents.IsUndelivered(result) || errors.Is(result, unix.ECONNREFUSED) {
			logger.Error().Err(result).Msgf("failed to send event to %s", sub.Endpoint)
			err = fmt.Errorf("%w", result)
		}
	}

	return err
}
