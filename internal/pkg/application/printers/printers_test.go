package printers

import (
	"context"
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/spoolsync/spool-mgmt/internal/pkg/application/events"
	"github.com/spoolsync/spool-mgmt/internal/pkg/application/spools"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/firmware"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/integrations"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/repositories/database"
	"github.com/spoolsync/spool-mgmt/pkg/types"
)

const testIntegration = "prusalink"

func TestPrintCycleCreatesJobAndUpdatesSpoolWeight(t *testing.T) {
	is, ctx, env := testSetup(t)

	printer := env.createPrinter(is, ctx, 1)
	slot := printer.Slots()[0]
	spool := env.createSpool(is, ctx, 1234)

	_, err := env.svc.AssignSpool(ctx, slot.ID, spool.ID, AssignOptions{})
	is.NoErr(err)
	env.setWeight(is, ctx, slot.ID, 1000)

	env.status = types.PrinterPrinting
	printing, err := env.svc.SyncStatus(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(printing.Status, types.PrinterPrinting)
	is.True(printing.PrintingStartedAt != nil)

	snapshot, err := env.store.GetSpool(ctx, spool.ID)
	is.NoErr(err)
	is.Equal(*snapshot.PrintStartWeight, 1000.0)

	env.setWeight(is, ctx, slot.ID, 800)
	env.status = types.PrinterOperational
	env.job = &types.JobDetails{FileName: strPtr("benchy.gcode")}

	done, err := env.svc.SyncStatus(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(done.Status, types.PrinterOperational)
	is.True(done.PrintingStartedAt == nil)

	jobs, err := env.svc.PrintJobs(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(len(jobs), 1)
	is.Equal(*jobs[0].FilamentUsed, 200.0)
	is.Equal(*jobs[0].FileName, "benchy.gcode")
	is.Equal(jobs[0].SpoolID, spool.ID)

	calls := env.spools.UpdateWeightCalls()
	is.Equal(len(calls), 1)
	is.Equal(calls[0].Weight, 800.0)
	is.Equal(calls[0].Source, types.SourcePrintComplete)

	finished, err := env.store.GetSpool(ctx, spool.ID)
	is.NoErr(err)
	is.Equal(finished.CurrentWeight, 800.0)
	is.True(finished.PrintStartWeight == nil)
}

func TestPausedPrintIsNotCompleted(t *testing.T) {
	is, ctx, env := testSetup(t)

	printer := env.createPrinter(is, ctx, 1)
	slot := printer.Slots()[0]
	spool := env.createSpool(is, ctx, 1000)

	_, err := env.svc.AssignSpool(ctx, slot.ID, spool.ID, AssignOptions{})
	is.NoErr(err)
	env.setWeight(is, ctx, slot.ID, 1000)

	env.status = types.PrinterPrinting
	_, err = env.svc.SyncStatus(ctx, printer.ID)
	is.NoErr(err)

	env.status = types.PrinterPaused
	paused, err := env.svc.SyncStatus(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(paused.Status, types.PrinterPaused)
	is.True(paused.PrintingStartedAt != nil)

	jobs, err := env.svc.PrintJobs(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(len(jobs), 0)

	// returning to printing starts over from the current weight
	env.setWeight(is, ctx, slot.ID, 900)
	env.status = types.PrinterPrinting
	resumed, err := env.svc.SyncStatus(ctx, printer.ID)
	is.NoErr(err)
	is.True(resumed.PrintingStartedAt.After(*paused.PrintingStartedAt))

	snapshot, err := env.store.GetSpool(ctx, spool.ID)
	is.NoErr(err)
	is.Equal(*snapshot.PrintStartWeight, 900.0)
	is.Equal(len(env.spools.UpdateWeightCalls()), 0)
}

func TestPrintingAfterAnErrorTakesANewSnapshot(t *testing.T) {
	is, ctx, env := testSetup(t)

	printer := env.createPrinter(is, ctx, 1)
	slot := printer.Slots()[0]
	spool := env.createSpool(is, ctx, 1000)

	_, err := env.svc.AssignSpool(ctx, slot.ID, spool.ID, AssignOptions{})
	is.NoErr(err)
	env.setWeight(is, ctx, slot.ID, 1000)

	env.status = types.PrinterPrinting
	first, err := env.svc.SyncStatus(ctx, printer.ID)
	is.NoErr(err)

	env.err = errors.New("connection reset by peer")
	errored, err := env.svc.SyncStatus(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(errored.Status, types.PrinterError)

	env.err = nil
	env.setWeight(is, ctx, slot.ID, 700)
	second, err := env.svc.SyncStatus(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(second.Status, types.PrinterPrinting)
	is.True(second.PrintingStartedAt.After(*first.PrintingStartedAt))

	snapshot, err := env.store.GetSpool(ctx, spool.ID)
	is.NoErr(err)
	is.Equal(*snapshot.PrintStartWeight, 700.0)

	env.setWeight(is, ctx, slot.ID, 650)
	env.status = types.PrinterOperational
	_, err = env.svc.SyncStatus(ctx, printer.ID)
	is.NoErr(err)

	jobs, err := env.svc.PrintJobs(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(len(jobs), 1)
	is.Equal(*jobs[0].FilamentUsed, 50.0)
}

func TestFailedWeightUpdateDoesNotRecordJobsTwice(t *testing.T) {
	is, ctx, env := testSetup(t)

	printer := env.createPrinter(is, ctx, 2)
	slots := printer.Slots()
	first := env.createSpool(is, ctx, 1000)
	second := env.createSpool(is, ctx, 1000)

	for i, spool := range []database.Spool{first, second} {
		_, err := env.svc.AssignSpool(ctx, slots[i].ID, spool.ID, AssignOptions{})
		is.NoErr(err)
		env.setWeight(is, ctx, slots[i].ID, 1000)
	}

	env.status = types.PrinterPrinting
	_, err := env.svc.SyncStatus(ctx, printer.ID)
	is.NoErr(err)

	spoolSvc := spools.New(env.store, env.sink)
	failed := false
	env.spools.UpdateWeightFunc = func(ctx context.Context, spoolID string, weight float64, source types.WeightSource) (database.Spool, error) {
		if spoolID == second.ID && !failed {
			failed = true
			return database.Spool{}, errors.New("database is locked")
		}
		return spoolSvc.UpdateWeight(ctx, spoolID, weight, source)
	}

	env.setWeight(is, ctx, slots[0].ID, 900)
	env.setWeight(is, ctx, slots[1].ID, 800)
	env.status = types.PrinterOperational

	done, err := env.svc.SyncStatus(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(done.Status, types.PrinterOperational)
	is.True(failed)

	_, err = env.svc.SyncStatus(ctx, printer.ID)
	is.NoErr(err)

	jobs, err := env.svc.PrintJobs(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(len(jobs), 2)

	settled, err := env.store.GetSpool(ctx, first.ID)
	is.NoErr(err)
	is.Equal(settled.CurrentWeight, 900.0)
	is.True(settled.PrintStartWeight == nil)
}

func TestSyncStatusFailureMarksPrinterErrored(t *testing.T) {
	is, ctx, env := testSetup(t)

	printer := env.createPrinter(is, ctx, 1)
	env.err = errors.New("context deadline exceeded")

	before := len(env.sink.PublishCalls())
	errored, err := env.svc.SyncStatus(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(errored.Status, types.PrinterError)

	calls := env.sink.PublishCalls()[before:]
	is.Equal(len(calls), 1)
	is.Equal(calls[0].Name, types.EventPrinterStatusUpdate)
	is.Equal(calls[0].Payload.(types.PrinterStatusUpdate).Status, types.PrinterError)

	stored, err := env.store.GetPrinter(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(stored.Status, types.PrinterError)

	jobs, err := env.svc.PrintJobs(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(len(jobs), 0)
}

func TestSyncStatusIgnoresUnknownIntegration(t *testing.T) {
	is, ctx, env := testSetup(t)

	printer := &database.Printer{Name: "Ender", Type: "octoprint"}
	is.NoErr(env.store.CreatePrinter(ctx, printer))

	synced, err := env.svc.SyncStatus(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(synced.Status, types.PrinterUnknown)
	is.Equal(len(env.adapter.GetStatusCalls()), 0)
	is.Equal(len(env.sink.PublishCalls()), 0)
}

func TestSyncStatusPublishesJobDetails(t *testing.T) {
	is, ctx, env := testSetup(t)

	printer := env.createPrinter(is, ctx, 0)
	env.status = types.PrinterOperational
	env.job = &types.JobDetails{Progress: floatPtr(42)}

	synced, err := env.svc.SyncStatus(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(*synced.CurrentJobDetails.Progress, 42.0)

	is.Equal(eventNames(env.sink)[len(env.sink.PublishCalls())-2:], []string{types.EventPrinterStatusUpdate, types.EventPrinterJobUpdate})
}

func TestAssignSpoolAlreadyInAnotherHolder(t *testing.T) {
	is, ctx, env := testSetup(t)

	printer := env.createPrinter(is, ctx, 2)
	first, second := printer.Slots()[0], printer.Slots()[1]
	spool := env.createSpool(is, ctx, 1000)

	_, err := env.svc.AssignSpool(ctx, first.ID, spool.ID, AssignOptions{})
	is.NoErr(err)

	_, err = env.svc.AssignSpool(ctx, second.ID, spool.ID, AssignOptions{})
	is.True(errors.Is(err, ErrSpoolInUse))
	is.True(errors.Is(err, types.ErrConflict))

	moved, err := env.svc.AssignSpool(ctx, second.ID, spool.ID, AssignOptions{Displace: true})
	is.NoErr(err)
	is.Equal(*moved.AssociatedSpoolID, spool.ID)

	previous, err := env.store.GetHolder(ctx, first.ID)
	is.NoErr(err)
	is.True(previous.AssociatedSpoolID == nil)
}

func TestAssignSpoolToPrintingPrinter(t *testing.T) {
	is, ctx, env := testSetup(t)

	printer := env.createPrinter(is, ctx, 1)
	slot := printer.Slots()[0]
	spool := env.createSpool(is, ctx, 1000)

	_, err := env.store.UpdatePrinter(ctx, printer.ID, database.Fields{"status": types.PrinterPrinting})
	is.NoErr(err)

	_, err = env.svc.AssignSpool(ctx, slot.ID, spool.ID, AssignOptions{Displace: true})
	is.True(errors.Is(err, ErrPrinterIsPrinting))

	_, err = env.svc.AssignSpool(ctx, slot.ID, spool.ID, AssignOptions{OverridePrinting: true})
	is.NoErr(err)

	_, err = env.svc.RemoveSpool(ctx, slot.ID, AssignOptions{})
	is.True(errors.Is(err, ErrPrinterIsPrinting))

	removed, err := env.svc.RemoveSpool(ctx, slot.ID, AssignOptions{OverridePrinting: true})
	is.NoErr(err)
	is.True(removed.AssociatedSpoolID == nil)
}

func TestDisplacingFromPrintingPrinterNeedsOverride(t *testing.T) {
	is, ctx, env := testSetup(t)

	busy := env.createPrinter(is, ctx, 1)
	idle := env.createPrinter(is, ctx, 1)
	spool := env.createSpool(is, ctx, 1000)

	_, err := env.svc.AssignSpool(ctx, busy.Slots()[0].ID, spool.ID, AssignOptions{})
	is.NoErr(err)
	_, err = env.store.UpdatePrinter(ctx, busy.ID, database.Fields{"status": types.PrinterPrinting})
	is.NoErr(err)

	_, err = env.svc.AssignSpool(ctx, idle.Slots()[0].ID, spool.ID, AssignOptions{Displace: true})
	is.True(errors.Is(err, ErrPrinterIsPrinting))

	_, err = env.svc.AssignSpool(ctx, idle.Slots()[0].ID, spool.ID, AssignOptions{Displace: true, OverridePrinting: true})
	is.NoErr(err)
}

func TestAssignSpoolPublishesLoadAndPushesFirmware(t *testing.T) {
	is, ctx, env := testSetup(t)

	env.fw.SupportsFunc = func(string) bool { return true }
	env.fw.PrinterInfoFunc = func(context.Context, types.ConnectionDetails) *firmware.PrinterInfo {
		return &firmware.PrinterInfo{ExtruderCount: intPtr(2)}
	}

	printer, err := env.svc.Create(ctx, NewPrinter{Name: "MK4", Type: testIntegration})
	is.NoErr(err)
	is.Equal(len(printer.Slots()), 2)

	spool := env.createSpool(is, ctx, 1000)

	before := len(env.sink.PublishCalls())
	_, err = env.svc.AssignSpool(ctx, printer.Slots()[1].ID, spool.ID, AssignOptions{})
	is.NoErr(err)

	is.Equal(eventNames(env.sink)[before:], []string{types.EventHolderUpdated, types.EventPrinterSpoolLoaded, types.EventPrinterUpdated})

	pushes := env.fw.PushFilamentCalls()
	is.Equal(len(pushes), 1)
	is.Equal(pushes[0].Tool, 1)
	is.Equal(pushes[0].Filament, firmware.Filament{Material: "PLA", Color: "#ff6600"})

	_, err = env.svc.RemoveSpool(ctx, printer.Slots()[1].ID, AssignOptions{})
	is.NoErr(err)

	pushes = env.fw.PushFilamentCalls()
	is.Equal(len(pushes), 2)
	is.Equal(pushes[1].Filament, firmware.Filament{})
}

func TestCreatePrinterProvisionsFirmwareSlots(t *testing.T) {
	is, ctx, env := testSetup(t)

	env.fw.SupportsFunc = func(integrationType string) bool { return integrationType == firmware.IntegrationType }

	buddy, err := env.svc.Create(ctx, NewPrinter{Name: "XL", Type: firmware.IntegrationType})
	is.NoErr(err)
	is.Equal(len(buddy.Slots()), 1)
	is.Equal(buddy.Slots()[0].Name, "Slot 1")

	syncs := env.fw.SetSyncEnabledCalls()
	is.Equal(len(syncs), 1)
	is.True(syncs[0].Enabled)

	other, err := env.svc.Create(ctx, NewPrinter{Name: "Mini", Type: testIntegration})
	is.NoErr(err)
	is.Equal(len(other.Slots()), 0)

	_, err = env.svc.Create(ctx, NewPrinter{Name: " "})
	is.True(errors.Is(err, types.ErrValidation))
}

func TestSetHolderCountRemovesEmptySlotsFirst(t *testing.T) {
	is, ctx, env := testSetup(t)

	printer := env.createPrinter(is, ctx, 3)
	occupied := printer.Slots()[2]
	spool := env.createSpool(is, ctx, 1000)

	_, err := env.svc.AssignSpool(ctx, occupied.ID, spool.ID, AssignOptions{})
	is.NoErr(err)

	shrunk, err := env.svc.SetHolderCount(ctx, printer.ID, 1)
	is.NoErr(err)
	is.Equal(len(shrunk.Slots()), 1)
	is.Equal(shrunk.Slots()[0].ID, occupied.ID)

	grown, err := env.svc.SetHolderCount(ctx, printer.ID, 2)
	is.NoErr(err)
	is.Equal(len(grown.Slots()), 2)
	is.Equal(grown.Slots()[1].Name, "Slot 2")

	_, err = env.svc.SetHolderCount(ctx, printer.ID, -1)
	is.True(errors.Is(err, ErrInvalidSlotCount))
}

func TestReloadFilaments(t *testing.T) {
	is, ctx, env := testSetup(t)

	printer := env.createPrinter(is, ctx, 2)
	other := env.createPrinter(is, ctx, 1)
	pla := env.createSpool(is, ctx, 1000)
	petg := env.createSpool(is, ctx, 800)

	_, err := env.svc.AssignSpool(ctx, printer.Slots()[0].ID, pla.ID, AssignOptions{})
	is.NoErr(err)

	reloaded, err := env.svc.ReloadFilaments(ctx, printer.ID, []SlotAssignment{
		{HolderID: printer.Slots()[0].ID, SpoolID: &petg.ID},
		{HolderID: printer.Slots()[1].ID, SpoolID: &pla.ID},
	})
	is.NoErr(err)
	is.Equal(*reloaded.Slots()[0].AssociatedSpoolID, petg.ID)
	is.Equal(*reloaded.Slots()[1].AssociatedSpoolID, pla.ID)

	_, err = env.svc.ReloadFilaments(ctx, printer.ID, []SlotAssignment{{HolderID: other.Slots()[0].ID}})
	is.True(errors.Is(err, types.ErrValidation))
}

func TestPollerSyncsEveryPrinter(t *testing.T) {
	is, ctx, env := testSetup(t)

	env.createPrinter(is, ctx, 0)
	env.createPrinter(is, ctx, 0)
	env.err = errors.New("connection refused")

	NewPoller(env.svc, 0).SyncAll(ctx)

	is.Equal(len(env.adapter.GetStatusCalls()), 2)

	all, err := env.svc.List(ctx)
	is.NoErr(err)
	for _, p := range all {
		is.Equal(p.Status, types.PrinterError)
	}
}

type testEnv struct {
	store    database.Store
	sink     *events.SinkMock
	adapter  *integrations.AdapterMock
	registry integrations.Registry
	fw       *firmware.FirmwareMock
	spools   *spools.SpoolServiceMock
	svc      PrinterService

	status types.PrinterStatus
	job    *types.JobDetails
	err    error
}

func testSetup(t *testing.T) (*is.I, context.Context, *testEnv) {
	is := is.New(t)
	ctx := context.Background()

	store, err := database.New(database.NewSQLiteConnector(ctx))
	is.NoErr(err)

	env := &testEnv{
		store:  store,
		sink:   &events.SinkMock{},
		fw:     &firmware.FirmwareMock{},
		status: types.PrinterOperational,
	}

	env.adapter = &integrations.AdapterMock{
		GetStatusFunc: func(ctx context.Context, details types.ConnectionDetails) (types.PrinterStatus, error) {
			return env.status, env.err
		},
		GetPrintProgressFunc: func(ctx context.Context, details types.ConnectionDetails) (*types.JobDetails, error) {
			return env.job, nil
		},
	}
	env.registry = integrations.NewRegistry(map[string]integrations.Adapter{
		testIntegration:          env.adapter,
		firmware.IntegrationType: env.adapter,
	})

	spoolSvc := spools.New(store, env.sink)
	env.spools = &spools.SpoolServiceMock{
		UpdateWeightFunc: spoolSvc.UpdateWeight,
	}

	env.svc = New(store, env.spools, env.registry, env.fw, env.sink)

	return is, ctx, env
}

func (env *testEnv) createPrinter(is *is.I, ctx context.Context, slots int) database.Printer {
	printer := &database.Printer{
		Name:              "MK4",
		Type:              testIntegration,
		ConnectionDetails: types.ConnectionDetails{"base_url": "http://printer.local"},
	}
	is.NoErr(env.store.CreatePrinter(ctx, printer))

	p, err := env.svc.SetHolderCount(ctx, printer.ID, slots)
	is.NoErr(err)

	return p
}

func (env *testEnv) createSpool(is *is.I, ctx context.Context, weight float64) database.Spool {
	ft := &database.FilamentType{Name: "Galaxy Orange", Brand: "Prusament", Material: "PLA", ColorHex: "#ff6600"}
	is.NoErr(env.store.CreateFilamentType(ctx, ft))

	spool := &database.Spool{FilamentTypeID: ft.ID, InitialWeight: weight, CurrentWeight: weight}
	is.NoErr(env.store.CreateSpool(ctx, spool))

	return *spool
}

func (env *testEnv) setWeight(is *is.I, ctx context.Context, holderID string, weight float64) {
	_, err := env.store.UpdateHolder(ctx, holderID, database.Fields{"current_weight": weight})
	is.NoErr(err)
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func eventNames(sink *events.SinkMock) []string {
	names := []string{}
	for _, c := range sink.PublishCalls() {
		names = append(names, c.Name)
	}
	return names
}
