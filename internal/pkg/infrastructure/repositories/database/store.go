package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/spoolsync/spool-mgmt/pkg/types"
)

var ErrNotFound = fmt.Errorf("record %w", types.ErrNotFound)

type HolderFilter struct {
	AssignmentType    *AssignmentType
	DeviceID          *string
	AttachedPrinterID *string
}

// Fields is a set of column values for a partial update. Only the listed
// columns are written.
type Fields map[string]any

type Store interface {
	UpsertDevice(ctx context.Context, uniqueDeviceID string, ipAddress *string, channels types.ChannelRecords, seen time.Time) (Device, error)
	GetDevice(ctx context.Context, deviceID string) (Device, error)
	ListDevices(ctx context.Context) ([]Device, error)

	CreateHolder(ctx context.Context, holder *SpoolHolder) error
	GetHolder(ctx context.Context, holderID string) (SpoolHolder, error)
	FindHolderByChannel(ctx context.Context, deviceID string, channel int) (SpoolHolder, error)
	FindHolderByNFCChannel(ctx context.Context, deviceID string, channel int) (SpoolHolder, error)
	FindHolderBySpool(ctx context.Context, spoolID string) (SpoolHolder, error)
	ListHolders(ctx context.Context, filter HolderFilter) ([]SpoolHolder, error)
	UpdateHolder(ctx context.Context, holderID string, fields Fields) (SpoolHolder, error)
	DeleteHolder(ctx context.Context, holderID string) error

	CreateFilamentType(ctx context.Context, filamentType *FilamentType) error

	CreateSpool(ctx context.Context, spool *Spool) error
	GetSpool(ctx context.Context, spoolID string) (Spool, error)
	FindSpoolByTag(ctx context.Context, nfcTagID string) (Spool, error)
	UpdateSpool(ctx context.Context, spoolID string, fields Fields) (Spool, error)

	AddWeightHistory(ctx context.Context, entry WeightHistory) error
	GetWeightHistory(ctx context.Context, spoolID string, since time.Time) ([]WeightHistory, error)
	GetAllWeightHistory(ctx context.Context, since time.Time) ([]WeightHistory, error)

	CreatePrinter(ctx context.Context, printer *Printer) error
	GetPrinter(ctx context.Context, printerID string) (Printer, error)
	ListPrinters(ctx context.Context) ([]Printer, error)
	UpdatePrinter(ctx context.Context, printerID string, fields Fields) (Printer, error)

	CreatePrintJob(ctx context.Context, job *PrintJob) error
	ListPrintJobs(ctx context.Context, printerID string, limit int) ([]PrintJob, error)

	// Transaction runs fn with a Store bound to a single database transaction.
	// Only the Store passed to fn may be used inside fn.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type store struct {
	db *gorm.DB
}

func New(connect ConnectorFunc) (Store, error) {
	impl, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&Device{}, &FilamentType{}, &Spool{}, &Printer{}, &SpoolHolder{}, &PrintJob{}, &WeightHistory{})
	if err != nil {
		return nil, err
	}

	return &store{
		db: impl,
	}, nil
}

func (s *store) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&store{db: tx})
	})
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
