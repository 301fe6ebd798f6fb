package sensors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spoolsync/spool-mgmt/internal/pkg/application/channels"
	"github.com/spoolsync/spool-mgmt/internal/pkg/application/events"
	"github.com/spoolsync/spool-mgmt/internal/pkg/application/printers"
	"github.com/spoolsync/spool-mgmt/internal/pkg/application/spools"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/logging"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/repositories/database"
	"github.com/spoolsync/spool-mgmt/pkg/types"
)

var (
	ErrInvalidReport      = fmt.Errorf("%w: invalid device report", types.ErrValidation)
	ErrInvalidCalibration = fmt.Errorf("%w: load cell scale must not be zero", types.ErrValidation)
	ErrInvalidHolder      = fmt.Errorf("%w: invalid holder configuration", types.ErrValidation)
)

// SensorData holds the readings for one holder. Nil fields were not part of
// the reading. When NFCRead is set a nil TagID means no card is present.
type SensorData struct {
	Weight  *float64 `json:"weight_g,omitempty"`
	RawADC  *float64 `json:"raw_adc,omitempty"`
	NFCRead bool     `json:"-"`
	TagID   *string  `json:"nfcTagId,omitempty"`
}

type Calibration struct {
	Offset *float64 `json:"offset"`
	Scale  *float64 `json:"scale"`
}

type HolderConfig struct {
	Name              *string                  `json:"name"`
	AssignmentType    *database.AssignmentType `json:"assignmentType"`
	DeviceID          *string                  `json:"esp32DeviceId"`
	Channel           *int                     `json:"channel"`
	NFCReaderChannel  *int                     `json:"nfcReaderChannel"`
	HasLoadCell       *bool                    `json:"hasLoadCell"`
	HasNFC            *bool                    `json:"hasNfc"`
	AttachedPrinterID *string                  `json:"attachedPrinterId"`
}

// SpoolAssigner moves spools in and out of holders.
type SpoolAssigner interface {
	AssignSpool(ctx context.Context, holderID, spoolID string, opts printers.AssignOptions) (database.SpoolHolder, error)
	RemoveSpool(ctx context.Context, holderID string, opts printers.AssignOptions) (database.SpoolHolder, error)
}

type Reconciler interface {
	ApplyReport(ctx context.Context, report types.DeviceReport) (database.Device, error)
	UpdateSensorData(ctx context.Context, holderID string, data SensorData) (database.SpoolHolder, error)
	Calibrate(ctx context.Context, holderID string, c Calibration) (database.SpoolHolder, error)
	ConfigureHolder(ctx context.Context, holderID string, cfg HolderConfig) (database.SpoolHolder, error)
	Devices(ctx context.Context) ([]database.Device, error)
	Device(ctx context.Context, deviceID string) (database.Device, error)
	Stop()
}

type reconciler struct {
	store     database.Store
	spools    spools.SpoolService
	assigner  SpoolAssigner
	events    events.Sink
	debouncer *Debouncer
}

// New returns a Reconciler. Debounced ingest commits run with ctx, after
// the request that caused them has completed.
func New(ctx context.Context, store database.Store, spoolSvc spools.SpoolService, assigner SpoolAssigner, sink events.Sink, debounce time.Duration) Reconciler {
	r := &reconciler{
		store:    store,
		spools:   spoolSvc,
		assigner: assigner,
		events:   sink,
	}

	r.debouncer = NewDebouncer(ctx, debounce, r.commitIngest)

	return r
}

func (r *reconciler) Stop() {
	r.debouncer.CancelAll()
}

func (r *reconciler) ApplyReport(ctx context.Context, report types.DeviceReport) (database.Device, error) {
	if err := report.Validate(); err != nil {
		return database.Device{}, fmt.Errorf("%w: %s", ErrInvalidReport, err.Error())
	}

	var detected types.ChannelRecords
	if report.HasScan() {
		detected = channels.Map(report.Scan())
	}

	device, err := r.store.UpsertDevice(ctx, report.UniqueDeviceID, report.IPAddress, detected, time.Now().UTC())
	if err != nil {
		return database.Device{}, err
	}

	log := logging.GetLoggerFromContext(ctx).With().Str("device_id", device.DeviceID).Logger()

	for _, c := range report.Channels {
		if c.IsNoReading() {
			continue
		}

		if err := r.applyChannel(ctx, device.DeviceID, c); err != nil {
			log.Error().Err(err).Int("channel", c.Channel).Msg("could not apply load cell reading")
		}
	}

	for _, n := range report.NFCReadings {
		if err := r.applyNFC(ctx, device.DeviceID, n); err != nil {
			log.Error().Err(err).Int("channel", n.Channel).Msg("could not apply nfc reading")
		}
	}

	r.events.Publish(ctx, types.EventDeviceReported, device)

	return device, nil
}

func (r *reconciler) applyChannel(ctx context.Context, deviceID string, c types.ChannelReading) error {
	holder, err := r.store.FindHolderByChannel(ctx, deviceID, c.Channel)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var weight float64

	switch {
	case c.RawADC != nil:
		w, ok := holder.Calibrate(*c.RawADC)
		if !ok {
			return fmt.Errorf("holder %s: %w", holder.ID, ErrInvalidCalibration)
		}
		weight = w
	case c.Weight != nil:
		weight = *c.Weight
	default:
		return nil
	}

	_, err = r.UpdateSensorData(ctx, holder.ID, SensorData{Weight: &weight, RawADC: c.RawADC})
	return err
}

func (r *reconciler) applyNFC(ctx context.Context, deviceID string, n types.NFCReading) error {
	holder, err := r.store.FindHolderByNFCChannel(ctx, deviceID, n.Channel)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = r.UpdateSensorData(ctx, holder.ID, SensorData{NFCRead: true, TagID: types.NormalizeTag(n.NFCTagID)})
	return err
}

// UpdateSensorData stores the supplied readings on the holder and then acts
// on them depending on what the holder is used for.
func (r *reconciler) UpdateSensorData(ctx context.Context, holderID string, data SensorData) (database.SpoolHolder, error) {
	fields := database.Fields{}
	if data.Weight != nil {
		fields["current_weight"] = *data.Weight
	}
	if data.RawADC != nil {
		fields["last_raw_adc"] = *data.RawADC
	}

	var tagID *string
	if data.NFCRead {
		if data.TagID != nil {
			tagID = types.NormalizeTag(*data.TagID)
		}
		fields["nfc_tag_id"] = tagID
	}

	if len(fields) == 0 {
		return r.store.GetHolder(ctx, holderID)
	}

	holder, err := r.store.UpdateHolder(ctx, holderID, fields)
	if err != nil {
		return database.SpoolHolder{}, err
	}

	r.events.Publish(ctx, types.EventSpoolUpdate, types.SpoolWeightUpdate{
		SpoolID:       holder.AssociatedSpoolID,
		HolderID:      holder.ID,
		CurrentWeight: data.Weight,
		LastRawADC:    data.RawADC,
	})

	switch holder.AssignmentType {
	case database.AssignmentIngest:
		r.ingest(ctx, holder)
		return holder, nil
	case database.AssignmentPrinter:
		if data.NFCRead {
			holder, err = r.loadByTag(ctx, holder, tagID)
			if err != nil {
				return database.SpoolHolder{}, err
			}
		}

		if data.Weight != nil && holder.AttachedPrinterID != nil {
			printer, err := r.store.GetPrinter(ctx, *holder.AttachedPrinterID)
			if err != nil && !errors.Is(err, database.ErrNotFound) {
				return database.SpoolHolder{}, err
			}
			if err == nil && printer.Status == types.PrinterPrinting {
				return holder, nil
			}
		}
	}

	if data.Weight != nil && holder.AssociatedSpoolID != nil {
		if _, err := r.spools.UpdateWeight(ctx, *holder.AssociatedSpoolID, *data.Weight, types.SourceScale); err != nil {
			return database.SpoolHolder{}, err
		}
	}

	return holder, nil
}

func (r *reconciler) ingest(ctx context.Context, holder database.SpoolHolder) {
	update := types.IngestUpdate{
		HolderID:      holder.ID,
		NFCTagID:      holder.NFCTagID,
		CurrentWeight: holder.CurrentWeight,
	}

	if holder.NFCTagID != nil {
		spool, err := r.store.FindSpoolByTag(ctx, *holder.NFCTagID)
		if err == nil {
			update.KnownSpool = &types.KnownSpool{
				SpoolID:       spool.ID,
				InitialWeight: spool.InitialWeight,
				CurrentWeight: spool.CurrentWeight,
				FilamentType:  filamentInfo(spool.FilamentType),
			}
		} else if !errors.Is(err, database.ErrNotFound) {
			log := logging.GetLoggerFromContext(ctx)
			log.Error().Err(err).Str("holder_id", holder.ID).Msg("could not look up spool by tag")
		}
	}

	r.events.Publish(ctx, types.EventIngestUpdate, update)

	r.debouncer.Schedule(holder.ID, holder.NFCTagID, holder.CurrentWeight)
}

func (r *reconciler) commitIngest(ctx context.Context, holderID, tagID string, weight float64) {
	log := logging.GetLoggerFromContext(ctx).With().Str("holder_id", holderID).Logger()

	spool, err := r.store.FindSpoolByTag(ctx, tagID)
	if errors.Is(err, database.ErrNotFound) {
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("could not look up spool by tag")
		return
	}

	if _, err := r.spools.UpdateWeight(ctx, spool.ID, weight, types.SourceScale); err != nil {
		log.Error().Err(err).Str("spool_id", spool.ID).Msg("could not commit ingest weight")
		return
	}

	log.Info().Str("spool_id", spool.ID).Float64("weight", weight).Msg("ingest weight committed")

	r.events.Publish(ctx, types.EventIngestSpoolIdentified, types.SpoolIdentified{
		HolderID:      holderID,
		SpoolID:       spool.ID,
		NFCTagID:      tagID,
		CurrentWeight: weight,
		FilamentType:  filamentInfo(spool.FilamentType),
	})
}

// loadByTag assigns the spool carrying tagID to a printer holder, or unloads
// the holder when the tag is gone. Unknown tags change nothing.
func (r *reconciler) loadByTag(ctx context.Context, holder database.SpoolHolder, tagID *string) (database.SpoolHolder, error) {
	auto := printers.AssignOptions{Displace: true, OverridePrinting: true}

	if tagID == nil {
		if holder.AssociatedSpoolID == nil {
			return holder, nil
		}
		return r.assigner.RemoveSpool(ctx, holder.ID, auto)
	}

	spool, err := r.store.FindSpoolByTag(ctx, *tagID)
	if errors.Is(err, database.ErrNotFound) {
		return holder, nil
	}
	if err != nil {
		return database.SpoolHolder{}, err
	}

	if holder.AssociatedSpoolID != nil && *holder.AssociatedSpoolID == spool.ID {
		return holder, nil
	}

	return r.assigner.AssignSpool(ctx, holder.ID, spool.ID, auto)
}

func filamentInfo(ft *database.FilamentType) *types.FilamentInfo {
	if ft == nil {
		return nil
	}

	return &types.FilamentInfo{
		Name:     ft.Name,
		Brand:    ft.Brand,
		Material: ft.Material,
		Color:    ft.Color,
		ColorHex: ft.ColorHex,
	}
}

func (r *reconciler) Calibrate(ctx context.Context, holderID string, c Calibration) (database.SpoolHolder, error) {
	if c.Scale != nil && *c.Scale == 0 {
		return database.SpoolHolder{}, ErrInvalidCalibration
	}

	fields := database.Fields{}
	if c.Offset != nil {
		fields["load_cell_offset"] = *c.Offset
	}
	if c.Scale != nil {
		fields["load_cell_scale"] = *c.Scale
	}

	return r.updateHolder(ctx, holderID, fields)
}

func (r *reconciler) ConfigureHolder(ctx context.Context, holderID string, cfg HolderConfig) (database.SpoolHolder, error) {
	fields := database.Fields{}

	if cfg.Name != nil {
		if strings.TrimSpace(*cfg.Name) == "" {
			return database.SpoolHolder{}, fmt.Errorf("%w: name must not be empty", ErrInvalidHolder)
		}
		fields["name"] = *cfg.Name
	}

	if cfg.AssignmentType != nil {
		switch *cfg.AssignmentType {
		case database.AssignmentPrinter, database.AssignmentIngest, database.AssignmentStorage:
			fields["assignment_type"] = *cfg.AssignmentType
		default:
			return database.SpoolHolder{}, fmt.Errorf("%w: unknown assignment type %q", ErrInvalidHolder, *cfg.AssignmentType)
		}
	}

	if cfg.DeviceID != nil {
		if _, err := r.store.GetDevice(ctx, *cfg.DeviceID); err != nil {
			return database.SpoolHolder{}, err
		}
		fields["device_id"] = *cfg.DeviceID
	}

	for column, channel := range map[string]*int{"channel": cfg.Channel, "nfc_reader_channel": cfg.NFCReaderChannel} {
		if channel == nil {
			continue
		}
		if *channel < 0 {
			return database.SpoolHolder{}, fmt.Errorf("%w: %s must not be negative", ErrInvalidHolder, column)
		}
		fields[column] = *channel
	}

	if cfg.HasLoadCell != nil {
		fields["has_load_cell"] = *cfg.HasLoadCell
	}
	if cfg.HasNFC != nil {
		fields["has_nfc"] = *cfg.HasNFC
	}

	if cfg.AttachedPrinterID != nil {
		if _, err := r.store.GetPrinter(ctx, *cfg.AttachedPrinterID); err != nil {
			return database.SpoolHolder{}, err
		}
		fields["attached_printer_id"] = *cfg.AttachedPrinterID
	}

	return r.updateHolder(ctx, holderID, fields)
}

func (r *reconciler) updateHolder(ctx context.Context, holderID string, fields database.Fields) (database.SpoolHolder, error) {
	if len(fields) == 0 {
		return r.store.GetHolder(ctx, holderID)
	}

	holder, err := r.store.UpdateHolder(ctx, holderID, fields)
	if err != nil {
		return database.SpoolHolder{}, err
	}

	r.events.Publish(ctx, types.EventHolderUpdated, holder)

	return holder, nil
}

func (r *reconciler) Devices(ctx context.Context) ([]database.Device, error) {
	devices, err := r.store.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []database.Device{}
	}
	return devices, nil
}

func (r *reconciler) Device(ctx context.Context, deviceID string) (database.Device, error) {
	return r.store.GetDevice(ctx, deviceID)
}
