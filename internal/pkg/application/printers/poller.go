package printers

import (
	"context"
	"sync"
	"time"

	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/logging"
)

const DefaultPollInterval = 30 * time.Second

type Poller interface {
	Start(ctx context.Context)
	Stop()
	SyncAll(ctx context.Context)
}

type pollerImpl struct {
	mu      sync.Mutex
	done    chan struct{}
	stopped chan struct{}

	svc      PrinterService
	interval time.Duration
}

func NewPoller(svc PrinterService, interval time.Duration) Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &pollerImpl{
		svc:      svc,
		interval: interval,
	}
}

func (p *pollerImpl) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		return
	}

	p.done = make(chan struct{})
	p.stopped = make(chan struct{})

	go p.run(ctx, p.done, p.stopped)
}

// Stop returns once any in flight sync has completed.
func (p *pollerImpl) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done == nil {
		return
	}

	close(p.done)
	<-p.stopped

	p.done, p.stopped = nil, nil
}

func (p *pollerImpl) run(ctx context.Context, done, stopped chan struct{}) {
	defer close(stopped)

	log := logging.GetLoggerFromContext(ctx)
	log.Info().Msgf("polling printer status every %s", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.SyncAll(ctx)
		}
	}
}

// SyncAll syncs every printer in turn. A failing printer does not stop the others.
func (p *pollerImpl) SyncAll(ctx context.Context) {
	log := logging.GetLoggerFromContext(ctx)

	printers, err := p.svc.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not list printers")
		return
	}

	for _, printer := range printers {
		if _, err := p.svc.SyncStatus(ctx, printer.ID); err != nil {
			log.Error().Err(err).Msgf("could not sync status for printer %s", printer.ID)
		}
	}
}
