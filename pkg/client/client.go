package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/logging"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/tracing"
	"github.com/spoolsync/spool-mgmt/pkg/types"
)

// SpoolMgmtClient talks to a running spool-mgmt service. It is used by
// device gateways and tooling that does not share the database.
type SpoolMgmtClient interface {
	ReportDevice(ctx context.Context, report types.DeviceReport) (Device, error)
	FindPrinter(ctx context.Context, printerID string) (Printer, error)
	ListPrinters(ctx context.Context) ([]Printer, error)
	UpdateSpoolWeight(ctx context.Context, spoolID string, weight float64, source types.WeightSource) (Spool, error)
}

type spoolMgmtClient struct {
	url        string
	httpClient http.Client
}

var tracer = otel.Tracer("spool-mgmt-client")

func New(url string) SpoolMgmtClient {
	return &spoolMgmtClient{
		url: strings.TrimRight(url, "/"),
		httpClient: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
	}
}

type Device struct {
	DeviceID         string               `json:"deviceId"`
	UniqueDeviceID   string               `json:"uniqueDeviceId"`
	IPAddress        *string              `json:"ipAddress"`
	LastSeen         *time.Time           `json:"lastSeen"`
	DetectedChannels types.ChannelRecords `json:"detectedChannels"`
}

type Holder struct {
	ID                string   `json:"spoolHolderId"`
	Name              string   `json:"name"`
	AssignmentType    string   `json:"assignmentType"`
	CurrentWeight     *float64 `json:"currentWeight_g"`
	AssociatedSpoolID *string  `json:"associatedSpoolId"`
}

type Printer struct {
	ID                string              `json:"printerId"`
	Name              string              `json:"name"`
	Type              string              `json:"type"`
	Status            types.PrinterStatus `json:"status"`
	CurrentJobDetails *types.JobDetails   `json:"currentJobDetails"`
	SpoolHolders      []Holder            `json:"spoolHolders"`
}

type Spool struct {
	ID            string  `json:"spoolId"`
	InitialWeight float64 `json:"initialWeight_g"`
	CurrentWeight float64 `json:"currentWeight_g"`
	Status        string  `json:"status"`
	NFCTagID      *string `json:"nfcTagId"`
}

func (c *spoolMgmtClient) ReportDevice(ctx context.Context, report types.DeviceReport) (Device, error) {
	var err error
	ctx, span := tracer.Start(ctx, "report-device")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	device := Device{}
	err = c.do(ctx, http.MethodPost, "/api/v0/devices/report", report, &device)
	return device, err
}

func (c *spoolMgmtClient) FindPrinter(ctx context.Context, printerID string) (Printer, error) {
	var err error
	ctx, span := tracer.Start(ctx, "find-printer")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	printer := Printer{}
	err = c.do(ctx, http.MethodGet, "/api/v0/printers/"+printerID, nil, &printer)
	return printer, err
}

func (c *spoolMgmtClient) ListPrinters(ctx context.Context) ([]Printer, error) {
	var err error
	ctx, span := tracer.Start(ctx, "list-printers")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	printers := []Printer{}
	err = c.do(ctx, http.MethodGet, "/api/v0/printers", nil, &printers)
	return printers, err
}

func (c *spoolMgmtClient) UpdateSpoolWeight(ctx context.Context, spoolID string, weight float64, source types.WeightSource) (Spool, error) {
	var err error
	ctx, span := tracer.Start(ctx, "update-spool-weight")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	body := struct {
		Weight float64            `json:"weight_g"`
		Source types.WeightSource `json:"source"`
	}{weight, source}

	spool := Spool{}
	err = c.do(ctx, http.MethodPatch, "/api/v0/spools/"+spoolID+"/weight", body, &spool)
	return spool, err
}

func (c *spoolMgmtClient) do(ctx context.Context, method, path string, body, result any) error {
	log := logging.GetLoggerFromContext(ctx)

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Add("Accept", "application/json")
	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		log.Debug().Int("status", resp.StatusCode).Msgf("%s %s failed", method, path)
		return statusError(resp.StatusCode, respBody)
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}

	if err = json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal response body: %w", err)
	}

	if err = json.Unmarshal(envelope.Data, result); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}

	return nil
}

func statusError(code int, body []byte) error {
	msg := struct {
		Error string `json:"error"`
	}{}
	json.Unmarshal(body, &msg)

	if msg.Error == "" {
		msg.Error = http.StatusText(code)
	}

	switch code {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", types.ErrNotFound, msg.Error)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", types.ErrConflict, msg.Error)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", types.ErrValidation, msg.Error)
	}

	return fmt.Errorf("request failed with status code %d: %s", code, msg.Error)
}
