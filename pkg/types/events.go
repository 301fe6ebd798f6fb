package types

const (
	EventHolderUpdated         string = "holder:updated"
	EventSpoolUpdate           string = "spool:update"
	EventSpoolUpdated          string = "spool:updated"
	EventIngestUpdate          string = "ingest:update"
	EventIngestSpoolIdentified string = "ingest:spool_identified"
	EventPrinterStatusUpdate   string = "printer:status_update"
	EventPrinterJobUpdate      string = "printer:job_update"
	EventPrinterUpdated        string = "printer:updated"
	EventPrinterSpoolLoaded    string = "printer:spool_loaded"
	EventPrinterSpoolUnloaded  string = "printer:spool_unloaded"
	EventLowStockAlert         string = "inventory:low_stock_alert"
	EventDeviceReported        string = "device:reported"
)

type SpoolWeightUpdate struct {
	SpoolID       *string  `json:"spoolId"`
	HolderID      string   `json:"spoolHolderId,omitempty"`
	CurrentWeight *float64 `json:"currentWeight_g"`
	LastRawADC    *float64 `json:"lastRawAdc,omitempty"`
}

type LowStockAlert struct {
	SpoolID       string  `json:"spoolId"`
	CurrentWeight float64 `json:"currentWeight_g"`
}

type PrinterStatusUpdate struct {
	PrinterID string        `json:"printerId"`
	Status    PrinterStatus `json:"status"`
}

type PrinterJobUpdate struct {
	PrinterID  string      `json:"printerId"`
	JobDetails *JobDetails `json:"jobDetails"`
}

type SpoolLoaded struct {
	HolderID  string  `json:"spoolHolderId"`
	PrinterID *string `json:"printerId"`
	SpoolID   string  `json:"spoolId,omitempty"`
}

type FilamentInfo struct {
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Material string `json:"material"`
	Color    string `json:"color"`
	ColorHex string `json:"colorHex"`
}

type KnownSpool struct {
	SpoolID       string        `json:"spoolId"`
	InitialWeight float64       `json:"initialWeight_g"`
	CurrentWeight float64       `json:"currentWeight_g"`
	FilamentType  *FilamentInfo `json:"filamentType"`
}

// IngestUpdate is the live view of an ingest point before anything is committed.
type IngestUpdate struct {
	HolderID      string      `json:"spoolHolderId"`
	NFCTagID      *string     `json:"nfcTagId"`
	CurrentWeight *float64    `json:"currentWeight_g"`
	KnownSpool    *KnownSpool `json:"knownSpool"`
}

type SpoolIdentified struct {
	HolderID      string        `json:"spoolHolderId"`
	SpoolID       string        `json:"spoolId"`
	NFCTagID      string        `json:"nfcTagId"`
	CurrentWeight float64       `json:"currentWeight_g"`
	FilamentType  *FilamentInfo `json:"filamentType"`
}
