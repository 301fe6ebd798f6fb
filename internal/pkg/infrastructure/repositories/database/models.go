package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spoolsync/spool-mgmt/pkg/types"
)

type AssignmentType string

const (
	AssignmentPrinter AssignmentType = "PRINTER"
	AssignmentIngest  AssignmentType = "INGEST_POINT"
	AssignmentStorage AssignmentType = "STORAGE"
)

type SpoolStatus string

const (
	SpoolActive SpoolStatus = "ACTIVE"
	SpoolSpent  SpoolStatus = "SPENT"
)

type OrderStatus string

const (
	InStock       OrderStatus = "IN_STOCK"
	ReorderNeeded OrderStatus = "REORDER_NEEDED"
	Ordered       OrderStatus = "ORDERED"
)

// DefaultSpoolWeight is used as the empty spool weight when a filament type has none.
const DefaultSpoolWeight float64 = 200

type Device struct {
	DeviceID         string               `gorm:"primaryKey;column:device_id" json:"deviceId"`
	UniqueDeviceID   string               `gorm:"uniqueIndex;column:unique_device_id" json:"uniqueDeviceId"`
	Name             string               `gorm:"column:name" json:"name"`
	IPAddress        *string              `gorm:"column:ip_address" json:"ipAddress"`
	LastSeen         *time.Time           `gorm:"column:last_seen" json:"lastSeen"`
	DetectedChannels types.ChannelRecords `gorm:"column:detected_channels" json:"detectedChannels"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.DeviceID == "" {
		d.DeviceID = uuid.NewString()
	}
	return nil
}

type FilamentType struct {
	ID               string   `gorm:"primaryKey;column:id" json:"filamentTypeId"`
	Name             string   `gorm:"column:name" json:"name"`
	Brand            string   `gorm:"column:brand" json:"brand"`
	Material         string   `gorm:"column:material" json:"material"`
	Color            string   `gorm:"column:color" json:"color"`
	ColorHex         string   `gorm:"column:color_hex" json:"colorHex"`
	SpoolWeight      *float64 `gorm:"column:spool_weight" json:"spoolWeight_g"`
	ReorderThreshold *float64 `gorm:"column:reorder_threshold" json:"reorderThreshold_g"`
}

func (f *FilamentType) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// EmptyWeight is the weight of the spool shell without any filament on it.
func (f *FilamentType) EmptyWeight() float64 {
	if f == nil || f.SpoolWeight == nil {
		return DefaultSpoolWeight
	}
	return *f.SpoolWeight
}

type Spool struct {
	ID               string          `gorm:"primaryKey;column:id" json:"spoolId"`
	FilamentTypeID   string          `gorm:"column:filament_type_id" json:"filamentTypeId"`
	FilamentType     *FilamentType   `json:"filamentType,omitempty"`
	InitialWeight    float64         `gorm:"column:initial_weight" json:"initialWeight_g"`
	CurrentWeight    float64         `gorm:"column:current_weight" json:"currentWeight_g"`
	Status           SpoolStatus     `gorm:"column:status;default:ACTIVE" json:"status"`
	OrderStatus      OrderStatus     `gorm:"column:order_status;default:IN_STOCK" json:"orderStatus"`
	NFCTagID         *string         `gorm:"uniqueIndex;column:nfc_tag_id" json:"nfcTagId"`
	PrintStartWeight *float64        `gorm:"column:print_start_weight" json:"printStartWeight_g"`
	History          []WeightHistory `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func (s *Spool) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type SpoolHolder struct {
	ID                string         `gorm:"primaryKey;column:id" json:"spoolHolderId"`
	Name              string         `gorm:"column:name" json:"name"`
	Type              string         `gorm:"column:type;default:PASSIVE" json:"type"`
	AssignmentType    AssignmentType `gorm:"column:assignment_type;default:STORAGE" json:"assignmentType"`
	DeviceID          *string        `gorm:"index:idx_holder_channel;column:device_id" json:"esp32DeviceId"`
	Channel           *int           `gorm:"index:idx_holder_channel;column:channel" json:"channel"`
	NFCReaderChannel  *int           `gorm:"column:nfc_reader_channel" json:"nfcReaderChannel"`
	HasLoadCell       bool           `gorm:"column:has_load_cell" json:"hasLoadCell"`
	HasNFC            bool           `gorm:"column:has_nfc" json:"hasNfc"`
	LoadCellOffset    *float64       `gorm:"column:load_cell_offset" json:"loadCellOffset"`
	LoadCellScale     *float64       `gorm:"column:load_cell_scale" json:"loadCellScale"`
	LastRawADC        *float64       `gorm:"column:last_raw_adc" json:"lastRawAdc"`
	CurrentWeight     *float64       `gorm:"column:current_weight" json:"currentWeight_g"`
	NFCTagID          *string        `gorm:"column:nfc_tag_id" json:"nfcTagId"`
	AssociatedSpoolID *string        `gorm:"uniqueIndex;column:associated_spool_id" json:"associatedSpoolId"`
	AssociatedSpool   *Spool         `gorm:"constraint:OnDelete:SET NULL" json:"associatedSpool,omitempty"`
	AttachedPrinterID *string        `gorm:"index;column:attached_printer_id" json:"attachedPrinterId"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

func (h *SpoolHolder) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// Calibrate converts a raw load cell value into grams using the stored offset and scale.
func (h *SpoolHolder) Calibrate(raw float64) (float64, bool) {
	offset, scale := 0.0, 1.0
	if h.LoadCellOffset != nil {
		offset = *h.LoadCellOffset
	}
	if h.LoadCellScale != nil {
		scale = *h.LoadCellScale
	}
	if scale == 0 {
		return 0, false
	}
	return (raw - offset) / scale, true
}

type Printer struct {
	ID                string                  `gorm:"primaryKey;column:id" json:"printerId"`
	Name              string                  `gorm:"column:name" json:"name"`
	Type              string                  `gorm:"column:type" json:"type"`
	ConnectionDetails types.ConnectionDetails `gorm:"column:connection_details" json:"connectionDetails"`
	Status            types.PrinterStatus     `gorm:"column:status;default:UNKNOWN" json:"status"`
	PrintingStartedAt *time.Time              `gorm:"column:printing_started_at" json:"printingStartedAt"`
	CurrentJobDetails *types.JobDetails       `gorm:"column:current_job_details" json:"currentJobDetails"`
	SpoolHolders      []SpoolHolder           `gorm:"foreignKey:AttachedPrinterID;constraint:OnDelete:SET NULL" json:"spoolHolders"`
	CreatedAt         time.Time               `json:"createdAt"`
	UpdatedAt         time.Time               `json:"updatedAt"`
}

func (p *Printer) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Slots returns the printer mounted holders in slot order.
func (p *Printer) Slots() []SpoolHolder {
	slots := []SpoolHolder{}
	for _, h := range p.SpoolHolders {
		if h.AssignmentType == AssignmentPrinter {
			slots = append(slots, h)
		}
	}
	return slots
}

type PrintJob struct {
	ID           string    `gorm:"primaryKey;column:id" json:"printJobId"`
	PrinterID    string    `gorm:"index;column:printer_id" json:"printerId"`
	SpoolID      string    `gorm:"index;column:spool_id" json:"spoolId"`
	Spool        *Spool    `gorm:"constraint:OnDelete:CASCADE" json:"spool,omitempty"`
	FilamentUsed *float64  `gorm:"column:filament_used" json:"filamentUsed_g"`
	FileName     *string   `gorm:"column:file_name" json:"fileName"`
	StartedAt    time.Time `gorm:"column:started_at" json:"startedAt"`
	CompletedAt  time.Time `gorm:"index;column:completed_at" json:"completedAt"`
}

func (j *PrintJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

type WeightHistory struct {
	ID         uint               `gorm:"primaryKey" json:"id"`
	SpoolID    string             `gorm:"index;column:spool_id" json:"spoolId"`
	Weight     float64            `gorm:"column:weight" json:"weight_g"`
	Source     types.WeightSource `gorm:"column:source" json:"source"`
	RecordedAt time.Time          `gorm:"index;column:recorded_at" json:"recordedAt"`
}
