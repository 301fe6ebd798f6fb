package spools

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/spoolsync/spool-mgmt/internal/pkg/application/events"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/logging"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/repositories/database"
	"github.com/spoolsync/spool-mgmt/pkg/types"
)

var (
	ErrUnknownWeightSource = fmt.Errorf("%w: unknown weight source", types.ErrValidation)
	ErrTagInUse            = fmt.Errorf("%w: nfc tag is linked to another spool", types.ErrConflict)
)

const (
	DefaultHistoryDays = 90
	DefaultTrendDays   = 30
)

//go:generate moq -rm -out spoolservice_mock.go . SpoolService
type SpoolService interface {
	UpdateWeight(ctx context.Context, spoolID string, weight float64, source types.WeightSource) (database.Spool, error)
	SetInitialWeight(ctx context.Context, spoolID string, weight float64) (database.Spool, error)
	Refill(ctx context.Context, spoolID string, refill Refill) (database.Spool, error)
	MarkSpent(ctx context.Context, spoolID string, spent bool) (database.Spool, error)
	LinkNFCTag(ctx context.Context, spoolID string, tag string) (database.Spool, error)
	History(ctx context.Context, spoolID string, days int) ([]database.WeightHistory, error)
	UsageTrend(ctx context.Context, days int) ([]types.TrendPoint, error)
}

// Refill optionally replaces the filament type and the full weight of a spool.
type Refill struct {
	FilamentTypeID *string  `json:"filamentTypeId,omitempty"`
	InitialWeight  *float64 `json:"initialWeight_g,omitempty"`
}

type spoolSvc struct {
	store  database.Store
	events events.Sink
}

func New(store database.Store, sink events.Sink) SpoolService {
	return &spoolSvc{
		store:  store,
		events: sink,
	}
}

// UpdateWeight is the only operation that writes the current weight of a spool.
func (svc *spoolSvc) UpdateWeight(ctx context.Context, spoolID string, weight float64, source types.WeightSource) (database.Spool, error) {
	if _, err := types.ParseWeightSource(string(source)); err != nil || source == "" {
		return database.Spool{}, fmt.Errorf("%w %q", ErrUnknownWeightSource, source)
	}

	spool, err := svc.store.UpdateSpool(ctx, spoolID, database.Fields{"current_weight": weight})
	if err != nil {
		return database.Spool{}, err
	}

	err = svc.store.AddWeightHistory(ctx, database.WeightHistory{
		SpoolID:    spoolID,
		Weight:     weight,
		Source:     source,
		RecordedAt: time.Now().UTC(),
	})
	if err != nil {
		return database.Spool{}, fmt.Errorf("could not add weight history for spool %s: %w", spoolID, err)
	}

	svc.events.Publish(ctx, types.EventSpoolUpdate, types.SpoolWeightUpdate{SpoolID: &spoolID, CurrentWeight: &weight})

	log := logging.GetLoggerFromContext(ctx)

	if threshold := reorderThreshold(spool.FilamentType); threshold > 0 && weight <= threshold && spool.OrderStatus == database.InStock {
		spool, err = svc.store.UpdateSpool(ctx, spoolID, database.Fields{"order_status": database.ReorderNeeded})
		if err != nil {
			return database.Spool{}, err
		}

		log.Info().Str("spool_id", spoolID).Float64("weight_g", weight).Msg("spool is below reorder threshold")
		svc.events.Publish(ctx, types.EventLowStockAlert, types.LowStockAlert{SpoolID: spoolID, CurrentWeight: weight})
	}

	remaining := weight - spool.FilamentType.EmptyWeight()
	if remaining <= 0 && spool.Status == database.SpoolActive {
		spool, err = svc.store.UpdateSpool(ctx, spoolID, database.Fields{"status": database.SpoolSpent})
		if err != nil {
			return database.Spool{}, err
		}

		log.Info().Str("spool_id", spoolID).Msg("spool is spent")
		svc.events.Publish(ctx, types.EventSpoolUpdated, spool)
	}

	return spool, nil
}

func reorderThreshold(ft *database.FilamentType) float64 {
	if ft == nil || ft.ReorderThreshold == nil {
		return 0
	}
	return *ft.ReorderThreshold
}

func (svc *spoolSvc) SetInitialWeight(ctx context.Context, spoolID string, weight float64) (database.Spool, error) {
	_, err := svc.store.UpdateSpool(ctx, spoolID, database.Fields{"initial_weight": weight})
	if err != nil {
		return database.Spool{}, err
	}

	return svc.UpdateWeight(ctx, spoolID, weight, types.SourceIngest)
}

func (svc *spoolSvc) Refill(ctx context.Context, spoolID string, refill Refill) (database.Spool, error) {
	existing, err := svc.store.GetSpool(ctx, spoolID)
	if err != nil {
		return database.Spool{}, err
	}

	filamentTypeID := lo.FromPtrOr(refill.FilamentTypeID, existing.FilamentTypeID)
	initialWeight := lo.FromPtrOr(refill.InitialWeight, existing.InitialWeight)

	_, err = svc.store.UpdateSpool(ctx, spoolID, database.Fields{
		"status":             database.SpoolActive,
		"filament_type_id":   filamentTypeID,
		"initial_weight":     initialWeight,
		"print_start_weight": nil,
	})
	if err != nil {
		return database.Spool{}, err
	}

	spool, err := svc.UpdateWeight(ctx, spoolID, initialWeight, types.SourceRefill)
	if err != nil {
		return database.Spool{}, err
	}

	svc.events.Publish(ctx, types.EventSpoolUpdated, spool)

	return spool, nil
}

func (svc *spoolSvc) MarkSpent(ctx context.Context, spoolID string, spent bool) (database.Spool, error) {
	status := lo.Ternary(spent, database.SpoolSpent, database.SpoolActive)

	spool, err := svc.store.UpdateSpool(ctx, spoolID, database.Fields{"status": status})
	if err != nil {
		return database.Spool{}, err
	}

	svc.events.Publish(ctx, types.EventSpoolUpdated, spool)

	return spool, nil
}

func (svc *spoolSvc) LinkNFCTag(ctx context.Context, spoolID string, tag string) (database.Spool, error) {
	nfcTagID := types.NormalizeTag(tag)

	if nfcTagID != nil {
		other, err := svc.store.FindSpoolByTag(ctx, *nfcTagID)
		if err == nil && other.ID != spoolID {
			return database.Spool{}, fmt.Errorf("%w: %s", ErrTagInUse, other.ID)
		}
	}

	spool, err := svc.store.UpdateSpool(ctx, spoolID, database.Fields{"nfc_tag_id": nfcTagID})
	if err != nil {
		return database.Spool{}, err
	}

	svc.events.Publish(ctx, types.EventSpoolUpdated, spool)

	return spool, nil
}

func (svc *spoolSvc) History(ctx context.Context, spoolID string, days int) ([]database.WeightHistory, error) {
	if _, err := svc.store.GetSpool(ctx, spoolID); err != nil {
		return nil, err
	}

	history, err := svc.store.GetWeightHistory(ctx, spoolID, since(days, DefaultHistoryDays))
	if err != nil {
		return nil, err
	}

	return lo.Ternary(history == nil, []database.WeightHistory{}, history), nil
}

// UsageTrend sums the remaining filament of every spool per day, using the
// last reading of each spool on that day.
func (svc *spoolSvc) UsageTrend(ctx context.Context, days int) ([]types.TrendPoint, error) {
	history, err := svc.store.GetAllWeightHistory(ctx, since(days, DefaultTrendDays))
	if err != nil {
		return nil, err
	}

	emptyWeights := map[string]float64{}
	for _, spoolID := range lo.Uniq(lo.Map(history, func(h database.WeightHistory, _ int) string { return h.SpoolID })) {
		spool, err := svc.store.GetSpool(ctx, spoolID)
		if err != nil {
			return nil, err
		}
		emptyWeights[spoolID] = spool.FilamentType.EmptyWeight()
	}

	byDay := lo.GroupBy(history, func(h database.WeightHistory) string {
		return h.RecordedAt.UTC().Format("2006-01-02")
	})

	trend := make([]types.TrendPoint, 0, len(byDay))

	for day, readings := range byDay {
		// history is sorted oldest first so the last entry per spool wins
		latest := lo.Associate(readings, func(h database.WeightHistory) (string, float64) {
			return h.SpoolID, h.Weight
		})

		total := 0.0
		for spoolID, weight := range latest {
			total += math.Max(0, weight-emptyWeights[spoolID])
		}

		trend = append(trend, types.TrendPoint{Date: day, Total: int(math.Round(total))})
	}

	sort.Slice(trend, func(i, j int) bool { return trend[i].Date < trend[j].Date })

	return trend, nil
}

func since(days, def int) time.Time {
	if days <= 0 {
		days = def
	}
	return time.Now().UTC().AddDate(0, 0, -days)
}
