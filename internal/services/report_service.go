package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"igreja/internal/cache"
	"igreja/internal/core"
)

// ReportService builds annual panels from the ledger.
type ReportService struct {
	entries EntrySource
	panels  cache.Cache[int, core.AnnualPanel]
	group   singleflight.Group

	// mu guards gen and orders cache writes against invalidation.
	mu  sync.Mutex
	gen map[int]uint64
}

// NewReportService returns a report service. panels may be nil to disable caching.
func NewReportService(entries EntrySource, panels cache.Cache[int, core.AnnualPanel]) *ReportService {
	return &ReportService{entries: entries, panels: panels, gen: make(map[int]uint64)}
}

// AnnualPanel returns the member x month panel of year.
func (s *ReportService) AnnualPanel(ctx context.Context, canRead bool, year int) (core.AnnualPanel, error) {
	if !canRead {
		return core.AnnualPanel{}, core.ErrNoAccess
	}
	if year < 1900 || year > 9999 {
		verr := &core.ValidationError{}
		verr.Add("year", "must be between 1900 and 9999")
		return core.AnnualPanel{}, verr
	}

	if s.panels != nil {
		if p, ok := s.panels.Get(year); ok {
			return p, nil
		}
	}

	v, err, shared := s.group.Do(strconv.Itoa(year), func() (any, error) {
		return s.build(ctx, year)
	})
	if err != nil {
		return core.AnnualPanel{}, err
	}
	if shared {
		slog.DebugContext(ctx, "Annual panel build shared", "year", year)
	}
	return v.(core.AnnualPanel), nil
}

func (s *ReportService) build(ctx context.Context, year int) (core.AnnualPanel, error) {
	s.mu.Lock()
	gen := s.gen[year]
	s.mu.Unlock()

	var entries []core.LedgerEntry
	for e, err := range s.entries.Entries(ctx, core.EntryFilter{Year: year}) {
		if err != nil {
			return core.AnnualPanel{}, fmt.Errorf("read ledger for %d: %w", year, err)
		}
		entries = append(entries, e)
	}

	panel := core.BuildAnnualPanel(year, entries)
	s.store(year, gen, panel)

	slog.InfoContext(ctx, "Annual panel built",
		"year", year,
		"entries", len(entries),
		"members", len(panel.Rows))
	return panel, nil
}

// store caches panel unless year was invalidated after the build began.
func (s *ReportService) store(year int, gen uint64, panel core.AnnualPanel) {
	if s.panels == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[year] != gen {
		slog.Debug("Discarding stale annual panel", "year", year)
		return
	}
	s.panels.Set(year, panel)
}

// Invalidate drops the cached panel of year. Builds already running for the
// year will not cache their result.
func (s *ReportService) Invalidate(year int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen[year]++
	if s.panels != nil {
		s.panels.Delete(year)
	}
}

// LedgerChanged makes the report service a ChangeNotifier.
func (s *ReportService) LedgerChanged(_ context.Context, year int) error {
	s.Invalidate(year)
	s.group.Forget(strconv.Itoa(year))
	return nil
}
