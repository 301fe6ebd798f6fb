package printers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/spoolsync/spool-mgmt/internal/pkg/application/events"
	"github.com/spoolsync/spool-mgmt/internal/pkg/application/spools"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/firmware"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/integrations"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/logging"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/repositories/database"
	"github.com/spoolsync/spool-mgmt/pkg/types"
)

var (
	ErrPrinterIsPrinting = fmt.Errorf("%w: cannot change filament while the printer is printing", types.ErrConflict)
	ErrSpoolInUse        = fmt.Errorf("%w: spool is loaded in another holder", types.ErrConflict)
	ErrInvalidPrinter    = fmt.Errorf("%w: invalid printer", types.ErrValidation)
	ErrInvalidSlotCount  = fmt.Errorf("%w: slot count must not be negative", types.ErrValidation)
	ErrNotAttached       = fmt.Errorf("%w: holder is not attached to the printer", types.ErrValidation)
)

const PrintJobLimit = 50

// AssignOptions are independent overrides for spool assignment. Displace
// moves a spool away from the holder currently carrying it, OverridePrinting
// allows changing filament on a printing printer.
type AssignOptions struct {
	Displace         bool
	OverridePrinting bool
}

type NewPrinter struct {
	Name              string                  `json:"name"`
	Type              string                  `json:"type"`
	ConnectionDetails types.ConnectionDetails `json:"connectionDetails"`
}

type SlotAssignment struct {
	HolderID string  `json:"spoolHolderId"`
	SpoolID  *string `json:"spoolId"`
}

type PrinterService interface {
	Create(ctx context.Context, printer NewPrinter) (database.Printer, error)
	Get(ctx context.Context, printerID string) (database.Printer, error)
	List(ctx context.Context) ([]database.Printer, error)
	SyncStatus(ctx context.Context, printerID string) (database.Printer, error)
	SetHolderCount(ctx context.Context, printerID string, count int) (database.Printer, error)
	AssignSpool(ctx context.Context, holderID, spoolID string, opts AssignOptions) (database.SpoolHolder, error)
	RemoveSpool(ctx context.Context, holderID string, opts AssignOptions) (database.SpoolHolder, error)
	ReloadFilaments(ctx context.Context, printerID string, assignments []SlotAssignment) (database.Printer, error)
	PrintJobs(ctx context.Context, printerID string) ([]database.PrintJob, error)
}

type printerSvc struct {
	store        database.Store
	spools       spools.SpoolService
	integrations integrations.Registry
	firmware     firmware.Firmware
	events       events.Sink

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store database.Store, spoolSvc spools.SpoolService, registry integrations.Registry, fw firmware.Firmware, sink events.Sink) PrinterService {
	return &printerSvc{
		store:        store,
		spools:       spoolSvc,
		integrations: registry,
		firmware:     fw,
		events:       sink,
		locks:        map[string]*sync.Mutex{},
	}
}

func (svc *printerSvc) Create(ctx context.Context, p NewPrinter) (database.Printer, error) {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Type) == "" {
		return database.Printer{}, fmt.Errorf("%w: name and type are required", ErrInvalidPrinter)
	}

	printer := &database.Printer{
		Name:              p.Name,
		Type:              p.Type,
		ConnectionDetails: p.ConnectionDetails,
		Status:            types.PrinterUnknown,
	}

	err := svc.store.CreatePrinter(ctx, printer)
	if err != nil {
		return database.Printer{}, err
	}

	if svc.firmware.Supports(printer.Type) {
		extruders := 1
		if info := svc.firmware.PrinterInfo(ctx, printer.ConnectionDetails); info != nil && info.ExtruderCount != nil {
			extruders = *info.ExtruderCount
		}

		if extruders > 0 {
			if _, err := svc.SetHolderCount(ctx, printer.ID, extruders); err != nil {
				return database.Printer{}, err
			}
		}

		svc.firmware.SetSyncEnabled(ctx, printer.ConnectionDetails, true)
	}

	created, err := svc.store.GetPrinter(ctx, printer.ID)
	if err != nil {
		return database.Printer{}, err
	}

	svc.events.Publish(ctx, types.EventPrinterUpdated, created)

	return created, nil
}

func (svc *printerSvc) Get(ctx context.Context, printerID string) (database.Printer, error) {
	return svc.store.GetPrinter(ctx, printerID)
}

func (svc *printerSvc) List(ctx context.Context) ([]database.Printer, error) {
	return svc.store.ListPrinters(ctx)
}

// SyncStatus polls the printer integration and applies the effects of any
// status transition. Integration failures put the printer in ERROR and are
// not returned.
func (svc *printerSvc) SyncStatus(ctx context.Context, printerID string) (database.Printer, error) {
	unlock := svc.lock(printerID)
	defer unlock()

	printer, err := svc.store.GetPrinter(ctx, printerID)
	if err != nil {
		return database.Printer{}, err
	}

	adapter, ok := svc.integrations.Get(printer.Type)
	if !ok {
		return printer, nil
	}

	log := logging.GetLoggerFromContext(ctx).With().Str("printer_id", printerID).Logger()
	ctx = logging.NewContextWithLogger(ctx, log)

	status, job, err := poll(ctx, adapter, printer.ConnectionDetails)
	if err != nil {
		log.Error().Err(err).Msgf("sync status failed for printer %s", printer.Name)
		return svc.markErrored(ctx, printer)
	}

	now := time.Now().UTC()
	fields := database.Fields{
		"status":              status,
		"current_job_details": job,
	}

	effects := Transition(printer.Status, status)
	snapshot := lo.Contains(effects, EffectSnapshotStartWeights)
	complete := lo.Contains(effects, EffectCompletePrintJobs)

	if complete {
		fields["printing_started_at"] = nil
	}
	if snapshot {
		fields["printing_started_at"] = now
	}

	var updated database.Printer
	var settled []settlement

	err = svc.store.Transaction(ctx, func(tx database.Store) error {
		var err error

		if complete {
			if settled, err = completePrintJobs(ctx, tx, printer, job, now); err != nil {
				return err
			}
		}

		if snapshot {
			if err = snapshotStartWeights(ctx, tx, printerID); err != nil {
				return err
			}
		}

		updated, err = tx.UpdatePrinter(ctx, printerID, fields)
		return err
	})
	if err != nil {
		return database.Printer{}, err
	}

	if len(settled) > 0 {
		svc.settleWeights(ctx, settled)
		if updated, err = svc.store.GetPrinter(ctx, printerID); err != nil {
			return database.Printer{}, err
		}
	}

	if printer.Status != status {
		log.Info().Str("from", string(printer.Status)).Str("to", string(status)).Msg("printer status changed")
	}

	svc.events.Publish(ctx, types.EventPrinterStatusUpdate, types.PrinterStatusUpdate{PrinterID: printerID, Status: status})
	if job != nil {
		svc.events.Publish(ctx, types.EventPrinterJobUpdate, types.PrinterJobUpdate{PrinterID: printerID, JobDetails: job})
	}

	return updated, nil
}

func poll(ctx context.Context, adapter integrations.Adapter, details types.ConnectionDetails) (types.PrinterStatus, *types.JobDetails, error) {
	status, err := adapter.GetStatus(ctx, details)
	if err != nil {
		return types.PrinterError, nil, err
	}

	job, err := adapter.GetPrintProgress(ctx, details)
	if err != nil {
		return types.PrinterError, nil, err
	}

	return status, job, nil
}

// snapshotStartWeights must run in the same transaction as the status flip to PRINTING.
func snapshotStartWeights(ctx context.Context, tx database.Store, printerID string) error {
	holders, err := tx.ListHolders(ctx, database.HolderFilter{AttachedPrinterID: &printerID})
	if err != nil {
		return err
	}

	for _, h := range holders {
		if h.AssociatedSpoolID == nil || h.CurrentWeight == nil {
			continue
		}

		_, err := tx.UpdateSpool(ctx, *h.AssociatedSpoolID, database.Fields{"print_start_weight": *h.CurrentWeight})
		if err != nil {
			return err
		}
	}

	return nil
}

// settlement is the end weight of a spool from a completed print.
type settlement struct {
	spoolID string
	weight  float64
}

// completePrintJobs writes the print jobs and clears the start weights in the
// same transaction as the status flip, so a completed print is recorded once.
// The returned end weights are applied after commit.
func completePrintJobs(ctx context.Context, tx database.Store, printer database.Printer, job *types.JobDetails, now time.Time) ([]settlement, error) {
	log := logging.GetLoggerFromContext(ctx)

	holders, err := tx.ListHolders(ctx, database.HolderFilter{AttachedPrinterID: &printer.ID})
	if err != nil {
		return nil, err
	}

	startedAt := lo.FromPtrOr(printer.PrintingStartedAt, now)

	var fileName *string
	if job != nil {
		fileName = job.FileName
	}

	settled := []settlement{}

	for _, holder := range holders {
		if holder.AssociatedSpoolID == nil {
			continue
		}

		spool, err := tx.GetSpool(ctx, *holder.AssociatedSpoolID)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		endWeight := holder.CurrentWeight

		var used *float64
		if spool.PrintStartWeight != nil && endWeight != nil {
			used = lo.ToPtr(math.Max(0, *spool.PrintStartWeight-*endWeight))
		}

		err = tx.CreatePrintJob(ctx, &database.PrintJob{
			PrinterID:    printer.ID,
			SpoolID:      spool.ID,
			FilamentUsed: used,
			FileName:     fileName,
			StartedAt:    startedAt,
			CompletedAt:  now,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create print job for spool %s: %w", spool.ID, err)
		}

		if _, err := tx.UpdateSpool(ctx, spool.ID, database.Fields{"print_start_weight": nil}); err != nil {
			return nil, err
		}

		if endWeight != nil {
			settled = append(settled, settlement{spoolID: spool.ID, weight: *endWeight})
		}

		log.Info().Str("spool_id", spool.ID).Msg("print job completed")
	}

	return settled, nil
}

// settleWeights applies end weights through the weight-update operation. A
// failing spool is logged and does not stop the others.
func (svc *printerSvc) settleWeights(ctx context.Context, settled []settlement) {
	log := logging.GetLoggerFromContext(ctx)

	for _, s := range settled {
		if _, err := svc.spools.UpdateWeight(ctx, s.spoolID, s.weight, types.SourcePrintComplete); err != nil {
			log.Error().Err(err).Str("spool_id", s.spoolID).Msg("could not update spool weight after print")
		}
	}
}

func (svc *printerSvc) markErrored(ctx context.Context, printer database.Printer) (database.Printer, error) {
	errored, err := svc.store.UpdatePrinter(ctx, printer.ID, database.Fields{"status": types.PrinterError})
	if err != nil {
		return database.Printer{}, err
	}

	svc.events.Publish(ctx, types.EventPrinterStatusUpdate, types.PrinterStatusUpdate{PrinterID: printer.ID, Status: types.PrinterError})

	return errored, nil
}

func (svc *printerSvc) lock(printerID string) func() {
	svc.mu.Lock()
	l, ok := svc.locks[printerID]
	if !ok {
		l = &sync.Mutex{}
		svc.locks[printerID] = l
	}
	svc.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// SetHolderCount creates or removes printer slots until the printer has count
// of them. Empty slots are removed first.
func (svc *printerSvc) SetHolderCount(ctx context.Context, printerID string, count int) (database.Printer, error) {
	if count < 0 {
		return database.Printer{}, ErrInvalidSlotCount
	}

	if _, err := svc.store.GetPrinter(ctx, printerID); err != nil {
		return database.Printer{}, err
	}

	assignment := database.AssignmentPrinter
	existing, err := svc.store.ListHolders(ctx, database.HolderFilter{AttachedPrinterID: &printerID, AssignmentType: &assignment})
	if err != nil {
		return database.Printer{}, err
	}

	for i := len(existing) + 1; i <= count; i++ {
		err := svc.store.CreateHolder(ctx, &database.SpoolHolder{
			Name:              fmt.Sprintf("Slot %d", i),
			Type:              "PASSIVE",
			AssignmentType:    database.AssignmentPrinter,
			AttachedPrinterID: &printerID,
		})
		if err != nil {
			return database.Printer{}, err
		}
	}

	if surplus := len(existing) - count; surplus > 0 {
		sort.SliceStable(existing, func(i, j int) bool {
			return existing[i].AssociatedSpoolID == nil && existing[j].AssociatedSpoolID != nil
		})

		for _, h := range existing[:surplus] {
			if h.AssociatedSpoolID != nil {
				if _, err := svc.store.UpdateSpool(ctx, *h.AssociatedSpoolID, database.Fields{"print_start_weight": nil}); err != nil {
					return database.Printer{}, err
				}
			}

			if err := svc.store.DeleteHolder(ctx, h.ID); err != nil {
				return database.Printer{}, err
			}
		}
	}

	printer, err := svc.store.GetPrinter(ctx, printerID)
	if err != nil {
		return database.Printer{}, err
	}

	svc.events.Publish(ctx, types.EventPrinterUpdated, printer)

	return printer, nil
}

// AssignSpool loads a spool into a holder. Clearing the previous holder and
// setting the new one happen in one transaction.
func (svc *printerSvc) AssignSpool(ctx context.Context, holderID, spoolID string, opts AssignOptions) (database.SpoolHolder, error) {
	var holder database.SpoolHolder
	var displaced *database.SpoolHolder
	changed := false

	err := svc.store.Transaction(ctx, func(tx database.Store) error {
		current, err := tx.GetHolder(ctx, holderID)
		if err != nil {
			return err
		}

		if _, err := tx.GetSpool(ctx, spoolID); err != nil {
			return err
		}

		if lo.FromPtr(current.AssociatedSpoolID) == spoolID {
			holder = current
			return nil
		}

		if !opts.OverridePrinting {
			if err := guardPrinting(ctx, tx, current); err != nil {
				return err
			}
		}

		previous, err := tx.FindHolderBySpool(ctx, spoolID)
		if err == nil {
			if !opts.Displace {
				return fmt.Errorf("%w: %s", ErrSpoolInUse, previous.Name)
			}
			if !opts.OverridePrinting {
				if err := guardPrinting(ctx, tx, previous); err != nil {
					return err
				}
			}
			if _, err := tx.UpdateHolder(ctx, previous.ID, database.Fields{"associated_spool_id": nil}); err != nil {
				return err
			}
			displaced = &previous
		} else if !errors.Is(err, database.ErrNotFound) {
			return err
		}

		holder, err = tx.UpdateHolder(ctx, holderID, database.Fields{"associated_spool_id": spoolID})
		changed = err == nil
		return err
	})
	if err != nil {
		return database.SpoolHolder{}, err
	}

	if !changed {
		return holder, nil
	}

	if displaced != nil {
		svc.unloaded(ctx, *displaced)
	}

	svc.events.Publish(ctx, types.EventHolderUpdated, holder)

	if holder.AttachedPrinterID != nil {
		svc.events.Publish(ctx, types.EventPrinterSpoolLoaded, types.SpoolLoaded{HolderID: holder.ID, PrinterID: holder.AttachedPrinterID, SpoolID: spoolID})

		var ft *database.FilamentType
		if holder.AssociatedSpool != nil {
			ft = holder.AssociatedSpool.FilamentType
		}
		svc.pushSlot(ctx, holder, ft)
	}

	return holder, nil
}

// RemoveSpool empties a holder and clears the print snapshot of the spool it carried.
func (svc *printerSvc) RemoveSpool(ctx context.Context, holderID string, opts AssignOptions) (database.SpoolHolder, error) {
	var holder database.SpoolHolder
	var removed *database.SpoolHolder

	err := svc.store.Transaction(ctx, func(tx database.Store) error {
		current, err := tx.GetHolder(ctx, holderID)
		if err != nil {
			return err
		}

		if current.AssociatedSpoolID == nil {
			holder = current
			return nil
		}

		if !opts.OverridePrinting {
			if err := guardPrinting(ctx, tx, current); err != nil {
				return err
			}
		}

		if _, err := tx.UpdateSpool(ctx, *current.AssociatedSpoolID, database.Fields{"print_start_weight": nil}); err != nil {
			return err
		}

		holder, err = tx.UpdateHolder(ctx, holderID, database.Fields{"associated_spool_id": nil})
		if err == nil {
			removed = &current
		}
		return err
	})
	if err != nil {
		return database.SpoolHolder{}, err
	}

	if removed != nil {
		svc.events.Publish(ctx, types.EventHolderUpdated, holder)
		svc.unloaded(ctx, *removed)
	}

	return holder, nil
}

func (svc *printerSvc) unloaded(ctx context.Context, holder database.SpoolHolder) {
	if holder.AttachedPrinterID == nil {
		return
	}

	svc.events.Publish(ctx, types.EventPrinterSpoolUnloaded, types.SpoolLoaded{HolderID: holder.ID, PrinterID: holder.AttachedPrinterID})
	svc.pushSlot(ctx, holder, nil)
}

// pushSlot tells spoolsync firmware which filament is loaded in the tool
// matching the holder. A nil filament type unloads the tool.
func (svc *printerSvc) pushSlot(ctx context.Context, holder database.SpoolHolder, ft *database.FilamentType) {
	printer, err := svc.store.GetPrinter(ctx, *holder.AttachedPrinterID)
	if err != nil {
		log := logging.GetLoggerFromContext(ctx)
		log.Warn().Err(err).Str("holder_id", holder.ID).Msg("could not load printer for firmware sync")
		return
	}

	svc.events.Publish(ctx, types.EventPrinterUpdated, printer)

	if !svc.firmware.Supports(printer.Type) {
		return
	}

	_, tool, found := lo.FindIndexOf(printer.Slots(), func(h database.SpoolHolder) bool { return h.ID == holder.ID })
	if !found {
		return
	}

	filament := firmware.Filament{}
	if ft != nil {
		filament = firmware.Filament{Material: ft.Material, Color: ft.ColorHex}
	}

	svc.firmware.PushFilament(ctx, printer.ConnectionDetails, tool, filament)
}

// guardPrinting re-reads the printer status at decision time.
func guardPrinting(ctx context.Context, store database.Store, holder database.SpoolHolder) error {
	if holder.AttachedPrinterID == nil {
		return nil
	}

	printer, err := store.GetPrinter(ctx, *holder.AttachedPrinterID)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if printer.Status == types.PrinterPrinting {
		return fmt.Errorf("%w: %s", ErrPrinterIsPrinting, printer.Name)
	}

	return nil
}

// ReloadFilaments applies slot assignments in order. A nil spool empties the slot.
func (svc *printerSvc) ReloadFilaments(ctx context.Context, printerID string, assignments []SlotAssignment) (database.Printer, error) {
	printer, err := svc.store.GetPrinter(ctx, printerID)
	if err != nil {
		return database.Printer{}, err
	}

	attached := lo.Associate(printer.SpoolHolders, func(h database.SpoolHolder) (string, bool) { return h.ID, true })
	for _, a := range assignments {
		if !attached[a.HolderID] {
			return database.Printer{}, fmt.Errorf("%w: %s", ErrNotAttached, a.HolderID)
		}
	}

	for _, a := range assignments {
		if a.SpoolID != nil && *a.SpoolID != "" {
			_, err = svc.AssignSpool(ctx, a.HolderID, *a.SpoolID, AssignOptions{Displace: true})
		} else {
			_, err = svc.RemoveSpool(ctx, a.HolderID, AssignOptions{})
		}
		if err != nil {
			return database.Printer{}, err
		}
	}

	log := logging.GetLoggerFromContext(ctx)
	log.Info().Str("printer_id", printerID).Int("slots", len(assignments)).Msg("filaments reloaded")

	printer, err = svc.store.GetPrinter(ctx, printerID)
	if err != nil {
		return database.Printer{}, err
	}

	svc.events.Publish(ctx, types.EventPrinterUpdated, printer)

	return printer, nil
}

func (svc *printerSvc) PrintJobs(ctx context.Context, printerID string) ([]database.PrintJob, error) {
	if _, err := svc.store.GetPrinter(ctx, printerID); err != nil {
		return nil, err
	}

	jobs, err := svc.store.ListPrintJobs(ctx, printerID, PrintJobLimit)
	if err != nil {
		return nil, err
	}

	return lo.Ternary(jobs == nil, []database.PrintJob{}, jobs), nil
}
