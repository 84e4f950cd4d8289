package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fintrack/fintrack/internal/metrics"
	"github.com/fintrack/fintrack/internal/model"
	"github.com/fintrack/fintrack/internal/summary"
)

// RecordLister lists one kind of record for an owner.
type RecordLister interface {
	ListRecordsByOwner(ctx context.Context, kind model.Kind, ownerID string) ([]*model.Record, error)
}

// SummaryService builds dashboard summaries from stored records.
type SummaryService struct {
	records RecordLister
	metrics metrics.Recorder
	now     func() time.Time
}

// NewSummaryService creates a new SummaryService.
func NewSummaryService(records RecordLister, recorder metrics.Recorder) *SummaryService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SummaryService{
		records: records,
		metrics: recorder,
		now:     time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now.
func (s *SummaryService) WithClock(now func() time.Time) *SummaryService {
	cp := *s
	cp.now = now
	return &cp
}

// Now returns the service clock's current time in summary.CalendarZone.
func (s *SummaryService) Now() time.Time {
	return s.now().In(summary.CalendarZone)
}

// Summary fetches ownerID's three record lists concurrently and aggregates
// them over window.
func (s *SummaryService) Summary(ctx context.Context, ownerID string, window summary.Window) (summary.Summary, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSummaryDuration(time.Since(start)) }()

	expenses, incomes, investments, err := FetchAll(ctx, s.records, ownerID)
	if err != nil {
		return summary.Summary{}, err
	}
	return summary.Build(expenses, incomes, investments, window, s.Now()), nil
}

// FetchAll lists expenses, incomes and investments for ownerID in parallel.
// The first failure cancels the other lookups.
func FetchAll(ctx context.Context, lister RecordLister, ownerID string) (expenses, incomes, investments []*model.Record, err error) {
	g, ctx := errgroup.WithContext(ctx)

	fetch := func(kind model.Kind, dst *[]*model.Record) {
		g.Go(func() error {
			records, err := lister.ListRecordsByOwner(ctx, kind, ownerID)
			if err != nil {
				return fmt.Errorf("failed to list %s records: %w", kind, err)
			}
			*dst = records
			return nil
		})
	}

	fetch(model.KindExpense, &expenses)
	fetch(model.KindIncome, &incomes)
	fetch(model.KindInvestment, &investments)

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return expenses, incomes, investments, nil
}
