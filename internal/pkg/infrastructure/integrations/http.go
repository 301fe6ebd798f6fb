package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/spoolsync/spool-mgmt/pkg/types"
)

var pathParam = regexp.MustCompile(`\{(\w+)\}`)

type httpAdapter struct {
	def    Definition
	client http.Client
}

func NewHTTPAdapter(def Definition) Adapter {
	timeout := def.API.RequestOptions.TimeoutSeconds
	if timeout <= 0 {
		timeout = DefaultTimeoutSeconds
	}

	return &httpAdapter{
		def: def,
		client: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   time.Duration(timeout * float64(time.Second)),
		},
	}
}

func (a *httpAdapter) GetStatus(ctx context.Context, details types.ConnectionDetails) (types.PrinterStatus, error) {
	data, _, err := a.fetch(ctx, details, EndpointStatus)
	if err != nil {
		return types.PrinterError, err
	}

	m := a.def.DataMapping.Status

	raw, ok := resolve(data, m.Source)
	if !ok {
		raw = string(types.PrinterUnknown)
	}

	value := fmt.Sprint(raw)

	status := types.PrinterStatus(strings.ToUpper(value))
	if mapped, ok := m.Mapping[value]; ok {
		status = types.PrinterStatus(mapped)
	}
	if !status.Valid() {
		return types.PrinterUnknown, nil
	}

	return status, nil
}

func (a *httpAdapter) GetPrintProgress(ctx context.Context, details types.ConnectionDetails) (*types.JobDetails, error) {
	data, body, err := a.fetch(ctx, details, EndpointJobDetails)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	dm := a.def.DataMapping
	job := &types.JobDetails{Raw: body}

	if dm.PrintProgressPercentage == nil {
		return job, nil
	}

	job.Progress = number(data, dm.PrintProgressPercentage)
	job.TimeRemaining = seconds(data, dm.TimeRemainingSeconds)
	job.TimePrinting = seconds(data, dm.TimePrintingSeconds)
	job.Filament = text(data, dm.FilamentMaterial)
	job.FileName = text(data, dm.FileName)

	return job, nil
}

func (a *httpAdapter) fetch(ctx context.Context, details types.ConnectionDetails, endpoint string) (any, json.RawMessage, error) {
	path, ok := a.def.API.Endpoints[endpoint]
	if !ok {
		return nil, nil, nil
	}

	baseURL := details.BaseURL()
	if baseURL == "" {
		baseURL = strings.TrimRight(a.def.API.BaseURL, "/")
	}

	path = pathParam.ReplaceAllStringFunc(path, func(param string) string {
		return details[strings.Trim(param, "{}")]
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrIntegrationFailure, err.Error())
	}

	for k, v := range a.def.API.RequestOptions.Headers {
		req.Header.Set(k, v)
	}
	a.authenticate(req, details)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrIntegrationFailure, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, nil, fmt.Errorf("%w: %s returned http %d", ErrIntegrationFailure, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrIntegrationFailure, err.Error())
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil, nil
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, nil, fmt.Errorf("%w: could not decode %s response: %s", ErrIntegrationFailure, endpoint, err.Error())
	}

	return data, body, nil
}

func (a *httpAdapter) authenticate(req *http.Request, details types.ConnectionDetails) {
	auth := a.def.API.Authentication

	switch {
	case auth.Type == AuthAPIKey && details["apiKey"] != "":
		scheme := auth.Scheme
		if scheme == "" {
			scheme = "Bearer"
		}
		req.Header.Set("Authorization", scheme+" "+details["apiKey"])
	case auth.Type == AuthHeaderKey && details["apiKey"] != "":
		header := auth.Header
		if header == "" {
			header = "X-Api-Key"
		}
		req.Header.Set(header, details["apiKey"])
	case auth.Type == AuthBasic && details["username"] != "":
		req.SetBasicAuth(details["username"], details["password"])
	}
}

// resolve walks a dotted path through decoded json. Numeric segments index arrays.
func resolve(data any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	current := data

	for _, key := range strings.Split(path, ".") {
		if key == "response" || key == "body" {
			continue
		}

		switch node := current.(type) {
		case map[string]any:
			v, ok := node[key]
			if !ok {
				return nil, false
			}
			current = v
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			current = node[i]
		default:
			return nil, false
		}
	}

	return current, current != nil
}

func lookup(data any, m *Mapping) any {
	if m == nil {
		return nil
	}
	if v, ok := resolve(data, m.Source); ok {
		return v
	}
	return m.Default
}

func number(data any, m *Mapping) *float64 {
	switch v := lookup(data, m).(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

func seconds(data any, m *Mapping) *int {
	f := number(data, m)
	if f == nil {
		return nil
	}
	s := int(math.Round(*f))
	return &s
}

func text(data any, m *Mapping) *string {
	v := lookup(data, m)
	if v == nil {
		return nil
	}
	s := fmt.Sprint(v)
	return &s
}
