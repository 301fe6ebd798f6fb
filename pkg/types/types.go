package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Capability string

const (
	CapabilityLoadCell Capability = "LOAD_CELL"
	CapabilityNFC      Capability = "NFC"
	CapabilityMux      Capability = "MUX"
	CapabilityUnknown  Capability = "UNKNOWN"
)

// ChannelRecord is one logical sensor channel as detected on a device.
type ChannelRecord struct {
	BusAddress       *int       `json:"i2cAddress"`
	DeviceType       string     `json:"deviceType"`
	SubChannel       int        `json:"subChannel"`
	SuggestedChannel *int       `json:"suggestedChannel"`
	Capability       Capability `json:"capability"`
}

type I2CDevice struct {
	Address int `json:"address"`
}

// HardwareScan is the raw topology a device reports about itself.
type HardwareScan struct {
	I2CScan         []I2CDevice
	HX711Channels   []int
	MFRC522Channels []int
}

type ChannelReading struct {
	Channel int      `json:"channel"`
	RawADC  *float64 `json:"raw_adc,omitempty"`
	Weight  *float64 `json:"weight_g,omitempty"`
}

// NoReading is sent by the firmware for an unconnected load cell or a failed read.
const NoReading float64 = -1

func (c ChannelReading) IsNoReading() bool {
	return c.RawADC != nil && *c.RawADC == NoReading
}

type NFCReading struct {
	Channel  int    `json:"channel"`
	NFCTagID string `json:"nfcTagId"`
}

// DeviceReport is the payload a microcontroller posts periodically.
// A nil scan slice means the field was absent from the report.
type DeviceReport struct {
	UniqueDeviceID  string           `json:"uniqueDeviceId"`
	IPAddress       *string          `json:"ipAddress,omitempty"`
	Channels        []ChannelReading `json:"channels"`
	NFCReadings     []NFCReading     `json:"nfcReadings"`
	I2CScan         []I2CDevice      `json:"i2cScan,omitempty"`
	HX711Channels   []int            `json:"hx711Channels,omitempty"`
	MFRC522Channels []int            `json:"mfrc522Channels,omitempty"`
}

func (r DeviceReport) HasScan() bool {
	return r.I2CScan != nil || r.HX711Channels != nil || r.MFRC522Channels != nil
}

func (r DeviceReport) Scan() HardwareScan {
	return HardwareScan{
		I2CScan:         r.I2CScan,
		HX711Channels:   r.HX711Channels,
		MFRC522Channels: r.MFRC522Channels,
	}
}

func (r DeviceReport) Validate() error {
	if strings.TrimSpace(r.UniqueDeviceID) == "" {
		return fmt.Errorf("%w: uniqueDeviceId is required", ErrValidation)
	}

	for _, c := range r.Channels {
		if c.Channel < 0 {
			return fmt.Errorf("%w: channel %d is negative", ErrValidation, c.Channel)
		}
	}

	for _, n := range r.NFCReadings {
		if n.Channel < 0 {
			return fmt.Errorf("%w: nfc reader channel %d is negative", ErrValidation, n.Channel)
		}
	}

	return nil
}

// NormalizeTag maps a blank tag to nil and lower-cases everything else.
func NormalizeTag(tag string) *string {
	t := strings.ToLower(strings.TrimSpace(tag))
	if t == "" {
		return nil
	}
	return &t
}

type PrinterStatus string

const (
	PrinterOperational PrinterStatus = "OPERATIONAL"
	PrinterPrinting    PrinterStatus = "PRINTING"
	PrinterPaused      PrinterStatus = "PAUSED"
	PrinterError       PrinterStatus = "ERROR"
	PrinterOffline     PrinterStatus = "OFFLINE"
	PrinterUnknown     PrinterStatus = "UNKNOWN"
)

func (s PrinterStatus) Valid() bool {
	switch s {
	case PrinterOperational, PrinterPrinting, PrinterPaused, PrinterError, PrinterOffline, PrinterUnknown:
		return true
	}
	return false
}

// JobDetails is what an integration knows about the current print.
type JobDetails struct {
	Progress      *float64        `json:"progress"`
	TimeRemaining *int            `json:"timeRemaining"`
	TimePrinting  *int            `json:"timePrinting"`
	Filament      *string         `json:"filament"`
	FileName      *string         `json:"fileName"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

type WeightSource string

const (
	SourceManual        WeightSource = "manual"
	SourceScale         WeightSource = "scale"
	SourceIngest        WeightSource = "ingest"
	SourceRefill        WeightSource = "refill"
	SourcePrintComplete WeightSource = "print_complete"
)

func ParseWeightSource(s string) (WeightSource, error) {
	switch ws := WeightSource(s); ws {
	case SourceManual, SourceScale, SourceIngest, SourceRefill, SourcePrintComplete:
		return ws, nil
	case "":
		return SourceManual, nil
	}
	return "", fmt.Errorf("%w: unknown weight source %q", ErrValidation, s)
}

type TrendPoint struct {
	Date  string `json:"date"`
	Total int    `json:"total_g"`
}

type ConnectionDetails map[string]string

func (cd ConnectionDetails) BaseURL() string {
	return strings.TrimRight(cd["base_url"], "/")
}
