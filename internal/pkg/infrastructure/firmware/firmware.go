package firmware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/logging"
	"github.com/spoolsync/spool-mgmt/pkg/types"
)

const (
	IntegrationType = "prusalink_buddy"
	RequestTimeout  = 5 * time.Second
)

type PrinterInfo struct {
	ExtruderCount *int `json:"extruder_count"`
}

// Filament is what the firmware shows for a tool. Empty values unload the tool.
type Filament struct {
	Material string
	Color    string
}

// Firmware pushes spool assignments to printers running the spoolsync firmware.
// All calls are best effort, failures are logged and never returned.
//
//go:generate moq -rm -out firmware_mock.go . Firmware
type Firmware interface {
	Supports(integrationType string) bool
	PrinterInfo(ctx context.Context, details types.ConnectionDetails) *PrinterInfo
	SetSyncEnabled(ctx context.Context, details types.ConnectionDetails, enabled bool)
	PushFilament(ctx context.Context, details types.ConnectionDetails, tool int, filament Filament)
}

type buddy struct {
	client http.Client
}

func New() Firmware {
	return &buddy{
		client: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   RequestTimeout,
		},
	}
}

func (b *buddy) Supports(integrationType string) bool {
	return integrationType == IntegrationType
}

func (b *buddy) PrinterInfo(ctx context.Context, details types.ConnectionDetails) *PrinterInfo {
	info := &PrinterInfo{}

	err := b.do(ctx, details, http.MethodGet, "/api/v1/info", nil, info)
	if err != nil {
		log := logging.GetLoggerFromContext(ctx)
		log.Warn().Err(err).Str("base_url", details.BaseURL()).Msg("could not fetch printer info")
		return nil
	}

	return info
}

func (b *buddy) SetSyncEnabled(ctx context.Context, details types.ConnectionDetails, enabled bool) {
	log := logging.GetLoggerFromContext(ctx).With().Str("base_url", details.BaseURL()).Logger()

	body := struct {
		Enabled bool `json:"spoolsync_enabled"`
	}{enabled}

	err := b.do(ctx, details, http.MethodPut, "/api/v1/settings", body, nil)
	if err != nil {
		log.Warn().Err(err).Msg("could not set spoolsync mode")
		return
	}

	log.Info().Bool("enabled", enabled).Msg("spoolsync mode set")
}

func (b *buddy) PushFilament(ctx context.Context, details types.ConnectionDetails, tool int, filament Filament) {
	log := logging.GetLoggerFromContext(ctx).With().Str("base_url", details.BaseURL()).Int("tool", tool).Logger()

	body := struct {
		Tool     int    `json:"tool"`
		Material string `json:"material"`
		Color    string `json:"color"`
	}{tool, filament.Material, filament.Color}

	err := b.do(ctx, details, http.MethodPut, "/api/v1/filament", body, nil)
	if err != nil {
		log.Warn().Err(err).Msg("could not push filament to printer")
		return
	}

	log.Info().Str("material", filament.Material).Msg("filament pushed to printer")
}

func (b *buddy) do(ctx context.Context, details types.ConnectionDetails, method, path string, body, result any) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, details.BaseURL()+path, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if key := details["apiKey"]; key != "" {
		req.Header.Set("X-Api-Key", key)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("http %d from %s", resp.StatusCode, path)
	}

	if result == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
