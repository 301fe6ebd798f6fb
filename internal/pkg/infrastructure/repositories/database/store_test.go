package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/spoolsync/spool-mgmt/pkg/types"
)

func TestUpsertDeviceKeepsTopologyWhenNoScanIsReported(t *testing.T) {
	is, ctx, s := setup(t)

	address := 0x48
	channels := types.ChannelRecords{{BusAddress: &address, DeviceType: "ADS1115", Capability: types.CapabilityLoadCell}}
	ip := "10.0.0.5"

	first, err := s.UpsertDevice(ctx, "esp-1", &ip, channels, time.Now().UTC())
	is.NoErr(err)
	is.Equal(first.Name, "esp-1")
	is.Equal(len(first.DetectedChannels), 1)

	second, err := s.UpsertDevice(ctx, "esp-1", nil, nil, time.Now().UTC())
	is.NoErr(err)
	is.Equal(second.DeviceID, first.DeviceID)
	is.Equal(len(second.DetectedChannels), 1)
	is.Equal(*second.IPAddress, "10.0.0.5")

	devices, err := s.ListDevices(ctx)
	is.NoErr(err)
	is.Equal(len(devices), 1)
}

func TestGetUnknownHolderReturnsNotFound(t *testing.T) {
	is, ctx, s := setup(t)

	_, err := s.GetHolder(ctx, "nosuchholder")
	is.True(errors.Is(err, ErrNotFound))
	is.True(errors.Is(err, types.ErrNotFound))

	_, err = s.UpdateHolder(ctx, "nosuchholder", Fields{"name": "x"})
	is.True(errors.Is(err, ErrNotFound))
}

func TestUpdateHolderOnlyWritesGivenFields(t *testing.T) {
	is, ctx, s := setup(t)

	deviceID := "dev"
	channel := 2
	scale := 2.0
	holder := &SpoolHolder{Name: "h", DeviceID: &deviceID, Channel: &channel, LoadCellScale: &scale}
	is.NoErr(s.CreateHolder(ctx, holder))

	weight := 150.0
	updated, err := s.UpdateHolder(ctx, holder.ID, Fields{"current_weight": weight})
	is.NoErr(err)
	is.Equal(*updated.CurrentWeight, 150.0)
	is.Equal(*updated.LoadCellScale, 2.0)
	is.Equal(updated.AssignmentType, AssignmentStorage)

	found, err := s.FindHolderByChannel(ctx, "dev", 2)
	is.NoErr(err)
	is.Equal(found.ID, holder.ID)

	_, err = s.FindHolderByChannel(ctx, "dev", 3)
	is.True(errors.Is(err, ErrNotFound))
}

func TestASpoolCanOnlyBeAssociatedWithOneHolder(t *testing.T) {
	is, ctx, s := setup(t)

	spool := createSpool(is, ctx, s, 1000)

	first := &SpoolHolder{Name: "a", AssociatedSpoolID: &spool.ID}
	is.NoErr(s.CreateHolder(ctx, first))

	second := &SpoolHolder{Name: "b"}
	is.NoErr(s.CreateHolder(ctx, second))

	_, err := s.UpdateHolder(ctx, second.ID, Fields{"associated_spool_id": spool.ID})
	is.True(err != nil)

	holder, err := s.FindHolderBySpool(ctx, spool.ID)
	is.NoErr(err)
	is.Equal(holder.ID, first.ID)
	is.Equal(holder.AssociatedSpool.FilamentType.Material, "PLA")
}

func TestSpoolTagsAreStoredInLowerCase(t *testing.T) {
	is, ctx, s := setup(t)

	ft := &FilamentType{Name: "Galaxy Black", Material: "PLA"}
	is.NoErr(s.CreateFilamentType(ctx, ft))

	tag := "04A1B2C3"
	spool := &Spool{FilamentTypeID: ft.ID, InitialWeight: 1200, CurrentWeight: 1200, NFCTagID: &tag}
	is.NoErr(s.CreateSpool(ctx, spool))

	found, err := s.FindSpoolByTag(ctx, "04a1b2c3")
	is.NoErr(err)
	is.Equal(found.ID, spool.ID)
	is.Equal(found.Status, SpoolActive)
	is.Equal(found.OrderStatus, InStock)
	is.Equal(found.FilamentType.Name, "Galaxy Black")
}

func TestWeightHistoryIsReturnedOldestFirst(t *testing.T) {
	is, ctx, s := setup(t)

	spool := createSpool(is, ctx, s, 1000)
	now := time.Now().UTC()

	is.NoErr(s.AddWeightHistory(ctx, WeightHistory{SpoolID: spool.ID, Weight: 900, Source: types.SourceScale, RecordedAt: now.Add(-time.Hour)}))
	is.NoErr(s.AddWeightHistory(ctx, WeightHistory{SpoolID: spool.ID, Weight: 950, Source: types.SourceManual, RecordedAt: now.Add(-2 * time.Hour)}))
	is.NoErr(s.AddWeightHistory(ctx, WeightHistory{SpoolID: spool.ID, Weight: 1000, Source: types.SourceManual, RecordedAt: now.Add(-100 * 24 * time.Hour)}))

	history, err := s.GetWeightHistory(ctx, spool.ID, now.Add(-24*time.Hour))
	is.NoErr(err)
	is.Equal(len(history), 2)
	is.Equal(history[0].Weight, 950.0)
	is.Equal(history[1].Source, types.SourceScale)
}

func TestGetPrinterIncludesHoldersAndSpools(t *testing.T) {
	is, ctx, s := setup(t)

	printer := &Printer{Name: "mk4", Type: "prusalink", ConnectionDetails: types.ConnectionDetails{"base_url": "http://mk4.local/"}}
	is.NoErr(s.CreatePrinter(ctx, printer))

	spool := createSpool(is, ctx, s, 800)
	is.NoErr(s.CreateHolder(ctx, &SpoolHolder{Name: "Slot 1", AssignmentType: AssignmentPrinter, AttachedPrinterID: &printer.ID, AssociatedSpoolID: &spool.ID}))
	is.NoErr(s.CreateHolder(ctx, &SpoolHolder{Name: "Slot 2", AssignmentType: AssignmentPrinter, AttachedPrinterID: &printer.ID}))

	stored, err := s.GetPrinter(ctx, printer.ID)
	is.NoErr(err)
	is.Equal(stored.Status, types.PrinterUnknown)
	is.Equal(stored.ConnectionDetails.BaseURL(), "http://mk4.local")
	is.Equal(len(stored.Slots()), 2)
	is.Equal(stored.Slots()[0].Name, "Slot 1")
	is.Equal(stored.Slots()[0].AssociatedSpool.CurrentWeight, 800.0)
	is.Equal(stored.CurrentJobDetails, nil)

	progress := 42.0
	updated, err := s.UpdatePrinter(ctx, printer.ID, Fields{
		"status":              types.PrinterPrinting,
		"current_job_details": &types.JobDetails{Progress: &progress},
	})
	is.NoErr(err)
	is.Equal(updated.Status, types.PrinterPrinting)
	is.Equal(*updated.CurrentJobDetails.Progress, 42.0)
}

func TestListPrintJobsReturnsLatestFirst(t *testing.T) {
	is, ctx, s := setup(t)

	spool := createSpool(is, ctx, s, 1000)
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		is.NoErr(s.CreatePrintJob(ctx, &PrintJob{
			PrinterID:   "p1",
			SpoolID:     spool.ID,
			StartedAt:   now.Add(time.Duration(i) * time.Hour),
			CompletedAt: now.Add(time.Duration(i)*time.Hour + 30*time.Minute),
		}))
	}

	jobs, err := s.ListPrintJobs(ctx, "p1", 2)
	is.NoErr(err)
	is.Equal(len(jobs), 2)
	is.True(jobs[0].CompletedAt.After(jobs[1].CompletedAt))
	is.Equal(jobs[0].Spool.ID, spool.ID)
}

func TestTransactionIsRolledBackOnError(t *testing.T) {
	is, ctx, s := setup(t)

	spool := createSpool(is, ctx, s, 1000)

	err := s.Transaction(ctx, func(tx Store) error {
		_, err := tx.UpdateSpool(ctx, spool.ID, Fields{"current_weight": 10.0})
		is.NoErr(err)
		return errors.New("abort")
	})
	is.True(err != nil)

	stored, err := s.GetSpool(ctx, spool.ID)
	is.NoErr(err)
	is.Equal(stored.CurrentWeight, 1000.0)
}

func createSpool(is *is.I, ctx context.Context, s Store, weight float64) Spool {
	threshold := 300.0
	ft := &FilamentType{Name: "PLA Basic", Brand: "Prusament", Material: "PLA", ReorderThreshold: &threshold}
	is.NoErr(s.CreateFilamentType(ctx, ft))

	spool := &Spool{FilamentTypeID: ft.ID, InitialWeight: weight, CurrentWeight: weight}
	is.NoErr(s.CreateSpool(ctx, spool))

	return *spool
}

func setup(t *testing.T) (*is.I, context.Context, Store) {
	is := is.New(t)
	ctx := context.Background()

	s, err := New(NewSQLiteConnector(ctx))
	is.NoErr(err)

	return is, ctx, s
}
