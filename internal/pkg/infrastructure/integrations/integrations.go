package integrations

import (
	"context"
	"fmt"
	"sort"

	"github.com/spoolsync/spool-mgmt/pkg/types"
)

var ErrIntegrationFailure = fmt.Errorf("integration failure")

// Adapter talks to one family of printers.
//
//go:generate moq -rm -out adapter_mock.go . Adapter
type Adapter interface {
	GetStatus(ctx context.Context, details types.ConnectionDetails) (types.PrinterStatus, error)
	GetPrintProgress(ctx context.Context, details types.ConnectionDetails) (*types.JobDetails, error)
}

type Registry interface {
	Get(integrationType string) (Adapter, bool)
	Types() []string
}

type registry map[string]Adapter

func NewRegistry(adapters map[string]Adapter) Registry {
	r := registry{}
	for id, a := range adapters {
		r[id] = a
	}
	return r
}

// FromConfig builds an http adapter for every configured integration.
func FromConfig(definitions []Definition) Registry {
	r := registry{}
	for _, def := range definitions {
		r[def.ID] = NewHTTPAdapter(def)
	}
	return r
}

func (r registry) Get(integrationType string) (Adapter, bool) {
	a, ok := r[integrationType]
	return a, ok
}

func (r registry) Types() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
