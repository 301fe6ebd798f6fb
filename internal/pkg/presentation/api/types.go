package api

import (
	"encoding/json"
	"strings"

	"github.com/spoolsync/spool-mgmt/internal/pkg/application/printers"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/repositories/database"
)

type meta struct {
	TotalRecords uint64 `json:"totalRecords"`
	Count        uint64 `json:"count"`
}

type ApiResponse struct {
	Meta *meta `json:"meta,omitempty"`
	Data any   `json:"data"`
}

func (r ApiResponse) Byte() []byte {
	b, _ := json.Marshal(r)
	return b
}

func list[T any](items []T) ApiResponse {
	if items == nil {
		items = []T{}
	}
	n := uint64(len(items))
	return ApiResponse{Meta: &meta{TotalRecords: n, Count: n}, Data: items}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// sensorRequest keeps track of whether nfcTagId was present in the body,
// an explicit null clears the tag.
type sensorRequest struct {
	Weight   *float64        `json:"weight_g"`
	RawADC   *float64        `json:"raw_adc"`
	NFCTagID json.RawMessage `json:"nfcTagId"`
}

func (s sensorRequest) tag() (bool, *string, error) {
	if len(s.NFCTagID) == 0 {
		return false, nil, nil
	}
	if strings.TrimSpace(string(s.NFCTagID)) == "null" {
		return true, nil, nil
	}

	var tag string
	if err := json.Unmarshal(s.NFCTagID, &tag); err != nil {
		return false, nil, err
	}

	return true, &tag, nil
}

type assignSpoolRequest struct {
	SpoolID          string `json:"spoolId"`
	Force            bool   `json:"force"`
	OverridePrinting bool   `json:"overridePrinting"`
}

type slotsRequest struct {
	Count *int `json:"count"`
}

type reloadRequest struct {
	Assignments []printers.SlotAssignment `json:"assignments"`
}

type weightRequest struct {
	Weight *float64 `json:"weight_g"`
	Source string   `json:"source"`
}

type statusRequest struct {
	Status database.SpoolStatus `json:"status"`
}

type nfcRequest struct {
	NFCTagID string `json:"nfcTagId"`
}
