package application

import (
	"context"
	"time"

	"github.com/spoolsync/spool-mgmt/internal/pkg/application/events"
	"github.com/spoolsync/spool-mgmt/internal/pkg/application/printers"
	"github.com/spoolsync/spool-mgmt/internal/pkg/application/sensors"
	"github.com/spoolsync/spool-mgmt/internal/pkg/application/spools"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/firmware"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/integrations"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/repositories/database"
)

type App interface {
	Start(ctx context.Context)
	Stop()

	Sensors() sensors.Reconciler
	Spools() spools.SpoolService
	Printers() printers.PrinterService
}

type Options struct {
	PollInterval  time.Duration
	DebounceDelay time.Duration
}

type app struct {
	sensors  sensors.Reconciler
	spools   spools.SpoolService
	printers printers.PrinterService
	poller   printers.Poller
}

func New(ctx context.Context, store database.Store, registry integrations.Registry, fw firmware.Firmware, sink events.Sink, opts Options) App {
	spoolSvc := spools.New(store, sink)
	printerSvc := printers.New(store, spoolSvc, registry, fw, sink)

	return &app{
		spools:   spoolSvc,
		printers: printerSvc,
		sensors:  sensors.New(ctx, store, spoolSvc, printerSvc, sink, opts.DebounceDelay),
		poller:   printers.NewPoller(printerSvc, opts.PollInterval),
	}
}

func (a *app) Start(ctx context.Context) {
	a.poller.Start(ctx)
}

func (a *app) Stop() {
	a.poller.Stop()
	a.sensors.Stop()
}

func (a *app) Sensors() sensors.Reconciler {
	return a.sensors
}

func (a *app) Spools() spools.SpoolService {
	return a.spools
}

func (a *app) Printers() printers.PrinterService {
	return a.printers
}
