package sensors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/samber/lo"

	"github.com/spoolsync/spool-mgmt/internal/pkg/application/events"
	"github.com/spoolsync/spool-mgmt/internal/pkg/application/printers"
	"github.com/spoolsync/spool-mgmt/internal/pkg/application/spools"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/firmware"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/integrations"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/repositories/database"
	"github.com/spoolsync/spool-mgmt/pkg/types"
)

const hardwareID = "esp32-a1b2c3"

func TestRawReadingIsCalibratedWithHolderOffsetAndScale(t *testing.T) {
	is, ctx, env := testSetup(t)

	device := env.registerDevice(is, ctx)
	holder := env.createHolder(is, ctx, &database.SpoolHolder{
		Name:           "Scale 1",
		DeviceID:       &device.DeviceID,
		Channel:        intPtr(0),
		LoadCellOffset: floatPtr(100),
		LoadCellScale:  floatPtr(2),
	})

	reported, err := env.r.ApplyReport(ctx, types.DeviceReport{
		UniqueDeviceID: hardwareID,
		Channels:       []types.ChannelReading{{Channel: 0, RawADC: floatPtr(500)}},
		I2CScan:        []types.I2CDevice{{Address: 0x48}},
	})
	is.NoErr(err)
	is.Equal(len(reported.DetectedChannels), 4)

	updated, err := env.store.GetHolder(ctx, holder.ID)
	is.NoErr(err)
	is.Equal(*updated.CurrentWeight, 200.0)
	is.Equal(*updated.LastRawADC, 500.0)
}

func TestPreCalibratedWeightIsUsedAsIs(t *testing.T) {
	is, ctx, env := testSetup(t)

	device := env.registerDevice(is, ctx)
	holder := env.createHolder(is, ctx, &database.SpoolHolder{Name: "Scale 1", DeviceID: &device.DeviceID, Channel: intPtr(2)})

	_, err := env.r.ApplyReport(ctx, types.DeviceReport{
		UniqueDeviceID: hardwareID,
		Channels:       []types.ChannelReading{{Channel: 2, Weight: floatPtr(812.5)}},
	})
	is.NoErr(err)

	updated, err := env.store.GetHolder(ctx, holder.ID)
	is.NoErr(err)
	is.Equal(*updated.CurrentWeight, 812.5)
	is.True(updated.LastRawADC == nil)
}

func TestNoReadingNeverWritesHolder(t *testing.T) {
	is, ctx, env := testSetup(t)

	device := env.registerDevice(is, ctx)
	printer := env.createPrinter(is, ctx, types.PrinterPrinting)
	spool := env.createSpool(is, ctx, 1000, nil)

	for _, holder := range []*database.SpoolHolder{
		{Name: "Storage", DeviceID: &device.DeviceID, Channel: intPtr(0), AssociatedSpoolID: &spool.ID},
		{Name: "Ingest", DeviceID: &device.DeviceID, Channel: intPtr(1), AssignmentType: database.AssignmentIngest},
		{Name: "Slot 1", DeviceID: &device.DeviceID, Channel: intPtr(2), AssignmentType: database.AssignmentPrinter, AttachedPrinterID: &printer.ID},
	} {
		env.createHolder(is, ctx, holder)
	}

	before := len(env.sink.PublishCalls())

	_, err := env.r.ApplyReport(ctx, types.DeviceReport{
		UniqueDeviceID: hardwareID,
		Channels: []types.ChannelReading{
			{Channel: 0, RawADC: floatPtr(types.NoReading)},
			{Channel: 1, RawADC: floatPtr(types.NoReading)},
			{Channel: 2, RawADC: floatPtr(types.NoReading)},
		},
	})
	is.NoErr(err)

	holders, err := env.store.ListHolders(ctx, database.HolderFilter{DeviceID: &device.DeviceID})
	is.NoErr(err)
	for _, h := range holders {
		is.True(h.CurrentWeight == nil)
		is.True(h.LastRawADC == nil)
	}

	is.Equal(eventNames(env.sink)[before:], []string{types.EventDeviceReported})
	is.Equal(len(env.spools.UpdateWeightCalls()), 0)
}

func TestReportWithoutScanKeepsDetectedChannels(t *testing.T) {
	is, ctx, env := testSetup(t)

	_, err := env.r.ApplyReport(ctx, types.DeviceReport{UniqueDeviceID: hardwareID, HX711Channels: []int{0, 1}})
	is.NoErr(err)

	device, err := env.r.ApplyReport(ctx, types.DeviceReport{UniqueDeviceID: hardwareID, IPAddress: strPtr("10.0.0.12")})
	is.NoErr(err)
	is.Equal(len(device.DetectedChannels), 2)
	is.Equal(*device.IPAddress, "10.0.0.12")
	is.Equal(device.Name, hardwareID)

	devices, err := env.r.Devices(ctx)
	is.NoErr(err)
	is.Equal(len(devices), 1)
}

func TestInvalidReportIsRejectedBeforeAnyWrite(t *testing.T) {
	is, ctx, env := testSetup(t)

	_, err := env.r.ApplyReport(ctx, types.DeviceReport{UniqueDeviceID: " "})
	is.True(errors.Is(err, ErrInvalidReport))
	is.True(errors.Is(err, types.ErrValidation))

	_, err = env.r.ApplyReport(ctx, types.DeviceReport{UniqueDeviceID: hardwareID, Channels: []types.ChannelReading{{Channel: -1}}})
	is.True(errors.Is(err, types.ErrValidation))

	devices, err := env.r.Devices(ctx)
	is.NoErr(err)
	is.Equal(len(devices), 0)
}

func TestFailingChannelDoesNotStopTheReport(t *testing.T) {
	is, ctx, env := testSetup(t)

	device := env.registerDevice(is, ctx)
	broken := env.createHolder(is, ctx, &database.SpoolHolder{Name: "Broken", DeviceID: &device.DeviceID, Channel: intPtr(0), LoadCellScale: floatPtr(0)})
	working := env.createHolder(is, ctx, &database.SpoolHolder{Name: "Working", DeviceID: &device.DeviceID, Channel: intPtr(1)})

	_, err := env.r.ApplyReport(ctx, types.DeviceReport{
		UniqueDeviceID: hardwareID,
		Channels: []types.ChannelReading{
			{Channel: 0, RawADC: floatPtr(400)},
			{Channel: 1, RawADC: floatPtr(400)},
			{Channel: 7, RawADC: floatPtr(400)},
		},
	})
	is.NoErr(err)

	h, err := env.store.GetHolder(ctx, broken.ID)
	is.NoErr(err)
	is.True(h.CurrentWeight == nil)

	h, err = env.store.GetHolder(ctx, working.ID)
	is.NoErr(err)
	is.Equal(*h.CurrentWeight, 400.0)
}

func TestStorageHolderPropagatesWeight(t *testing.T) {
	is, ctx, env := testSetup(t)

	spool := env.createSpool(is, ctx, 1000, nil)
	holder := env.createHolder(is, ctx, &database.SpoolHolder{Name: "Shelf", AssociatedSpoolID: &spool.ID})

	_, err := env.r.UpdateSensorData(ctx, holder.ID, SensorData{Weight: floatPtr(700)})
	is.NoErr(err)

	calls := env.spools.UpdateWeightCalls()
	is.Equal(len(calls), 1)
	is.Equal(calls[0].Weight, 700.0)
	is.Equal(calls[0].Source, types.SourceScale)

	stored, err := env.store.GetSpool(ctx, spool.ID)
	is.NoErr(err)
	is.Equal(stored.CurrentWeight, 700.0)
}

func TestPrinterHolderWeightIsFrozenWhilePrinting(t *testing.T) {
	is, ctx, env := testSetup(t)

	printer := env.createPrinter(is, ctx, types.PrinterPrinting)
	spool := env.createSpool(is, ctx, 1000, nil)
	holder := env.createHolder(is, ctx, &database.SpoolHolder{
		Name:              "Slot 1",
		AssignmentType:    database.AssignmentPrinter,
		AttachedPrinterID: &printer.ID,
		AssociatedSpoolID: &spool.ID,
	})

	updated, err := env.r.UpdateSensorData(ctx, holder.ID, SensorData{Weight: floatPtr(650)})
	is.NoErr(err)
	is.Equal(*updated.CurrentWeight, 650.0)
	is.Equal(len(env.spools.UpdateWeightCalls()), 0)

	_, err = env.store.UpdatePrinter(ctx, printer.ID, database.Fields{"status": types.PrinterOperational})
	is.NoErr(err)

	_, err = env.r.UpdateSensorData(ctx, holder.ID, SensorData{Weight: floatPtr(640)})
	is.NoErr(err)
	is.Equal(len(env.spools.UpdateWeightCalls()), 1)
}

func TestPrinterHolderLoadsAndUnloadsSpoolByTag(t *testing.T) {
	is, ctx, env := testSetup(t)

	device := env.registerDevice(is, ctx)
	printer := env.createPrinter(is, ctx, types.PrinterOperational)
	spool := env.createSpool(is, ctx, 1000, strPtr("04a1b2c3"))

	shelf := env.createHolder(is, ctx, &database.SpoolHolder{Name: "Shelf", AssociatedSpoolID: &spool.ID})
	slot := env.createHolder(is, ctx, &database.SpoolHolder{
		Name:              "Slot 1",
		AssignmentType:    database.AssignmentPrinter,
		DeviceID:          &device.DeviceID,
		NFCReaderChannel:  intPtr(0),
		AttachedPrinterID: &printer.ID,
	})

	_, err := env.r.ApplyReport(ctx, types.DeviceReport{
		UniqueDeviceID: hardwareID,
		NFCReadings:    []types.NFCReading{{Channel: 0, NFCTagID: " 04A1B2C3 "}},
	})
	is.NoErr(err)

	loaded, err := env.store.GetHolder(ctx, slot.ID)
	is.NoErr(err)
	is.Equal(*loaded.NFCTagID, "04a1b2c3")
	is.Equal(*loaded.AssociatedSpoolID, spool.ID)

	previous, err := env.store.GetHolder(ctx, shelf.ID)
	is.NoErr(err)
	is.True(previous.AssociatedSpoolID == nil)

	is.True(lo.Contains(eventNames(env.sink), types.EventPrinterSpoolLoaded))

	_, err = env.r.ApplyReport(ctx, types.DeviceReport{
		UniqueDeviceID: hardwareID,
		NFCReadings:    []types.NFCReading{{Channel: 0, NFCTagID: ""}},
	})
	is.NoErr(err)

	unloaded, err := env.store.GetHolder(ctx, slot.ID)
	is.NoErr(err)
	is.True(unloaded.NFCTagID == nil)
	is.True(unloaded.AssociatedSpoolID == nil)
	is.True(lo.Contains(eventNames(env.sink), types.EventPrinterSpoolUnloaded))
}

func TestIngestPointCommitsOnlyAfterDebounce(t *testing.T) {
	is, ctx, env := testSetup(t)

	spool := env.createSpool(is, ctx, 1000, strPtr("04a1b2c3"))
	holder := env.createHolder(is, ctx, &database.SpoolHolder{Name: "Ingest", AssignmentType: database.AssignmentIngest})

	_, err := env.r.UpdateSensorData(ctx, holder.ID, SensorData{NFCRead: true, TagID: strPtr("04A1B2C3")})
	is.NoErr(err)
	_, err = env.r.UpdateSensorData(ctx, holder.ID, SensorData{Weight: floatPtr(905)})
	is.NoErr(err)
	_, err = env.r.UpdateSensorData(ctx, holder.ID, SensorData{Weight: floatPtr(902)})
	is.NoErr(err)

	is.Equal(len(env.spools.UpdateWeightCalls()), 0)

	live := env.sink.PublishCalls()
	last := live[len(live)-1]
	is.Equal(last.Name, types.EventIngestUpdate)
	is.Equal(last.Payload.(types.IngestUpdate).KnownSpool.SpoolID, spool.ID)

	deadline := time.Now().Add(3 * time.Second)
	for len(env.spools.UpdateWeightCalls()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	calls := env.spools.UpdateWeightCalls()
	is.Equal(len(calls), 1)
	is.Equal(calls[0].Weight, 902.0)

	deadline = time.Now().Add(3 * time.Second)
	for !lo.Contains(eventNames(env.sink), types.EventIngestSpoolIdentified) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	is.True(lo.Contains(eventNames(env.sink), types.EventIngestSpoolIdentified))
}

func TestCalibrateRejectsZeroScale(t *testing.T) {
	is, ctx, env := testSetup(t)

	holder := env.createHolder(is, ctx, &database.SpoolHolder{Name: "Scale"})

	_, err := env.r.Calibrate(ctx, holder.ID, Calibration{Scale: floatPtr(0)})
	is.True(errors.Is(err, ErrInvalidCalibration))

	calibrated, err := env.r.Calibrate(ctx, holder.ID, Calibration{Offset: floatPtr(8400), Scale: floatPtr(412.5)})
	is.NoErr(err)
	is.Equal(*calibrated.LoadCellOffset, 8400.0)
	is.Equal(*calibrated.LoadCellScale, 412.5)
}

func TestConfigureHolder(t *testing.T) {
	is, ctx, env := testSetup(t)

	device := env.registerDevice(is, ctx)
	holder := env.createHolder(is, ctx, &database.SpoolHolder{Name: "Unbound"})

	ingest := database.AssignmentIngest
	configured, err := env.r.ConfigureHolder(ctx, holder.ID, HolderConfig{
		AssignmentType:   &ingest,
		DeviceID:         &device.DeviceID,
		Channel:          intPtr(3),
		NFCReaderChannel: intPtr(0),
		HasLoadCell:      boolPtr(true),
	})
	is.NoErr(err)
	is.Equal(configured.AssignmentType, database.AssignmentIngest)
	is.Equal(*configured.Channel, 3)
	is.True(configured.HasLoadCell)

	unknown := database.AssignmentType("SHELF")
	_, err = env.r.ConfigureHolder(ctx, holder.ID, HolderConfig{AssignmentType: &unknown})
	is.True(errors.Is(err, types.ErrValidation))

	_, err = env.r.ConfigureHolder(ctx, holder.ID, HolderConfig{DeviceID: strPtr("missing")})
	is.True(errors.Is(err, types.ErrNotFound))
}

type testEnv struct {
	store  database.Store
	sink   *events.SinkMock
	spools *spools.SpoolServiceMock
	r      Reconciler
}

func testSetup(t *testing.T) (*is.I, context.Context, *testEnv) {
	is := is.New(t)
	ctx := context.Background()

	store, err := database.New(database.NewSQLiteConnector(ctx))
	is.NoErr(err)

	sink := &events.SinkMock{}
	spoolSvc := spools.New(store, sink)
	mock := &spools.SpoolServiceMock{UpdateWeightFunc: spoolSvc.UpdateWeight}

	printerSvc := printers.New(store, mock, integrations.NewRegistry(nil), &firmware.FirmwareMock{}, sink)

	r := New(ctx, store, mock, printerSvc, sink, 200*time.Millisecond)
	t.Cleanup(r.Stop)

	return is, ctx, &testEnv{store: store, sink: sink, spools: mock, r: r}
}

func (env *testEnv) registerDevice(is *is.I, ctx context.Context) database.Device {
	device, err := env.r.ApplyReport(ctx, types.DeviceReport{UniqueDeviceID: hardwareID})
	is.NoErr(err)
	return device
}

func (env *testEnv) createHolder(is *is.I, ctx context.Context, holder *database.SpoolHolder) database.SpoolHolder {
	is.NoErr(env.store.CreateHolder(ctx, holder))
	return *holder
}

func (env *testEnv) createPrinter(is *is.I, ctx context.Context, status types.PrinterStatus) database.Printer {
	printer := &database.Printer{Name: "MK4", Type: "prusalink", Status: status}
	is.NoErr(env.store.CreatePrinter(ctx, printer))
	return *printer
}

func (env *testEnv) createSpool(is *is.I, ctx context.Context, weight float64, tag *string) database.Spool {
	ft := &database.FilamentType{Name: "Galaxy Black", Brand: "Prusament", Material: "PLA"}
	is.NoErr(env.store.CreateFilamentType(ctx, ft))

	spool := &database.Spool{FilamentTypeID: ft.ID, InitialWeight: weight, CurrentWeight: weight, NFCTagID: tag}
	is.NoErr(env.store.CreateSpool(ctx, spool))
	return *spool
}

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }

func eventNames(sink *events.SinkMock) []string {
	names := []string{}
	for _, c := range sink.PublishCalls() {
		names = append(names, c.Name)
	}
	return names
}
