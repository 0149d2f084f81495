package reports

import (
	"context"
	"fmt"
	"time"

	"wastetracker/internal/analytics"
	"wastetracker/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const DefaultTopN = 3

// Query selects what one report run covers. Zero values mean defaults.
type Query struct {
	// A nil list selects every value present in the log; a non-nil empty
	// list selects nothing.
	Categories []analytics.Category
	Locations  []string
	// zero means the latest week in the data
	AsOf       time.Time
	Measure    analytics.Measure
	// zero uses DefaultTopN; a negative size yields an empty ranking
	TopN       int
	TopBy      analytics.Dimension
	GroupBy    []analytics.Dimension
}

// Report is the output of one run over a single snapshot.
type Report struct {
	RunID       string              `json:"run_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	SnapshotAt  time.Time           `json:"snapshot_at"`
	Selection   analytics.Selection `json:"selection"`

	Records         int             `json:"records"`
	Undated         int             `json:"undated"`
	TotalQuantityKg float64         `json:"total_quantity_kg"`
	TotalCost       decimal.Decimal `json:"total_cost"`

	TopBy            analytics.Dimension        `json:"-"`
	TopItems         []analytics.RankedRow      `json:"top_items"`
	ByCategory       []analytics.AggregateRow   `json:"by_category"`
	ByCategoryReason []analytics.AggregateRow   `json:"by_category_reason"`
	GroupBy          []analytics.Dimension      `json:"-"`
	Grouped          []analytics.AggregateRow   `json:"grouped"`
	WeeklyTotals     []analytics.WeeklyTotal    `json:"weekly_totals"`
	Trend            analytics.Trend            `json:"trend"`
	Share            analytics.ShareReport      `json:"share"`
	Recurrence       analytics.RecurrenceReport `json:"recurrence"`
}

type Service struct {
	log store.WasteLog
	now func() time.Time
}

func NewService(log store.WasteLog) *Service {
	return &Service{log: log, now: time.Now}
}

// Build takes one snapshot and computes every view over it. The passes only read
// the filtered records, so they run concurrently.
func (s *Service) Build(ctx context.Context, q Query) (*Report, error) {
	q, err := q.withDefaults()
	if err != nil {
		return nil, err
	}

	snap, err := s.log.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("take snapshot: %w", err)
	}

	sel := analytics.DefaultSelection(snap.Records)
	if q.Categories != nil {
		sel.Categories = q.Categories
	}
	if q.Locations != nil {
		sel.Locations = q.Locations
	}
	records := analytics.Filter(snap.Records, sel)

	r := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: s.now(),
		SnapshotAt:  snap.TakenAt,
		Selection:   sel,
		Records:     len(records),
		Undated:     analytics.NewSnapshot(records, snap.TakenAt).Undated(),
		TopBy:       q.TopBy,
		GroupBy:     q.GroupBy,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.TotalQuantityKg = analytics.TotalQuantity(records)
		r.TotalCost = analytics.TotalCost(records)
		return nil
	})
	g.Go(func() (err error) {
		r.TopItems, err = analytics.TopNByQuantity(records, q.TopN, q.TopBy)
		return err
	})
	g.Go(func() (err error) {
		r.ByCategory, err = analytics.GroupedTotals(records, analytics.DimCategory)
		return err
	})
	g.Go(func() (err error) {
		r.ByCategoryReason, err = analytics.GroupedTotals(records, analytics.DimCategory, analytics.DimReason)
		return err
	})
	g.Go(func() (err error) {
		r.Grouped, err = analytics.GroupedTotals(records, q.GroupBy...)
		return err
	})
	g.Go(func() (err error) {
		r.WeeklyTotals, err = analytics.WeeklyTotals(records, q.Measure)
		return err
	})
	g.Go(func() (err error) {
		r.Trend, err = analytics.WeeklyTrend(records, q.Measure)
		return err
	})
	g.Go(func() error {
		r.Share = analytics.HighCategoryShare(records, q.AsOf)
		return nil
	})
	g.Go(func() error {
		r.Recurrence = analytics.PersistentTopItems(records)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r, nil
}

func (q Query) withDefaults() (Query, error) {
	if q.Measure == "" {
		q.Measure = analytics.MeasureQuantity
	}
	if _, err := analytics.ParseMeasure(string(q.Measure)); err != nil {
		return q, err
	}
	if q.TopN == 0 {
		q.TopN = DefaultTopN
	}
	if q.TopBy == 0 {
		q.TopBy = analytics.DimItem
	}
	if len(q.GroupBy) == 0 {
		q.GroupBy = []analytics.Dimension{analytics.DimCategory}
	}
	return q, nil
}
