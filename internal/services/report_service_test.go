package services

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igreja/internal/cache"
	"igreja/internal/core"
)

func TestAnnualPanelScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMember(t, "Maria")
	idle := f.addMember(t, "Sem Lancamentos")

	_, err := f.ledger.RecordContribution(ctx, true, contribution(m, 2025, 1, 10000, 1000))
	require.NoError(t, err)
	_, err = f.ledger.RecordContribution(ctx, true, contribution(m, 2025, 3, 5000, 0))
	require.NoError(t, err)

	panel, err := f.reports.AnnualPanel(ctx, true, 2025)
	require.NoError(t, err)

	row, ok := panel.Row(m)
	require.True(t, ok)
	assert.Equal(t, int64(10000), row.TitheByMonth[0].Cents)
	assert.Equal(t, int64(0), row.TitheByMonth[1].Cents)
	assert.Equal(t, int64(5000), row.TitheByMonth[2].Cents)
	assert.Equal(t, "150,00", row.TitheTotal.String())
	assert.Equal(t, int64(1000), row.OfferingByMonth[0].Cents)
	assert.Equal(t, "10,00", row.OfferingTotal.String())

	_, ok = panel.Row(idle)
	assert.False(t, ok, "members without entries are absent")
}

func TestAnnualPanelCacheInvalidatedByWrites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMember(t, "Maria")

	_, err := f.ledger.RecordContribution(ctx, true, contribution(m, 2025, 1, 100, 0))
	require.NoError(t, err)
	first, err := f.reports.AnnualPanel(ctx, true, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(100), first.TitheTotal.Cents)

	_, err = f.ledger.RecordContribution(ctx, true, contribution(m, 2025, 1, 300, 0))
	require.NoError(t, err)
	second, err := f.reports.AnnualPanel(ctx, true, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(300), second.TitheTotal.Cents)

	require.NoError(t, f.registry.DeleteMember(ctx, true, m))
	third, err := f.reports.AnnualPanel(ctx, true, 2025)
	require.NoError(t, err)
	assert.Empty(t, third.Rows)
}

func TestAnnualPanelAccess(t *testing.T) {
	f := newFixture(t)

	_, err := f.reports.AnnualPanel(context.Background(), false, 2025)
	assert.ErrorIs(t, err, core.ErrNoAccess)

	_, err = f.reports.AnnualPanel(context.Background(), true, 12)
	assert.True(t, validationFields(t, err).Has("year"))
}

type countingSource struct {
	EntrySource
	calls atomic.Int32
}

func (c *countingSource) Entries(ctx context.Context, f core.EntryFilter) iter.Seq2[core.LedgerEntry, error] {
	c.calls.Add(1)
	return c.EntrySource.Entries(ctx, f)
}

func TestAnnualPanelCachedWithoutRebuild(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	src := &countingSource{EntrySource: f.store}
	reports := NewReportService(src, cache.NewLRUCache[int, core.AnnualPanel](2, time.Hour))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reports.AnnualPanel(ctx, true, 2025)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	_, err := reports.AnnualPanel(ctx, true, 2025)
	require.NoError(t, err)

	assert.LessOrEqual(t, src.calls.Load(), int32(8))
	before := src.calls.Load()
	_, err = reports.AnnualPanel(ctx, true, 2025)
	require.NoError(t, err)
	assert.Equal(t, before, src.calls.Load(), "cached panel must not re-read the ledger")

	reports.Invalidate(2025)
	_, err = reports.AnnualPanel(ctx, true, 2025)
	require.NoError(t, err)
	assert.Equal(t, before+1, src.calls.Load())
}

func TestAnnualPanelWithoutCache(t *testing.T) {
	f := newFixture(t)
	reports := NewReportService(f.store, nil)
	panel, err := reports.AnnualPanel(context.Background(), true, 2031)
	require.NoError(t, err)
	assert.Equal(t, 2031, panel.Year)
	assert.Empty(t, panel.Rows)
}

// gatedSource reads the ledger on its first call, then holds the rows until
// released, so a write can land while the build is in flight.
type gatedSource struct {
	EntrySource
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (g *gatedSource) Entries(ctx context.Context, f core.EntryFilter) iter.Seq2[core.LedgerEntry, error] {
	gated := false
	g.once.Do(func() { gated = true })
	if !gated {
		return g.EntrySource.Entries(ctx, f)
	}

	type row struct {
		e   core.LedgerEntry
		err error
	}
	var rows []row
	for e, err := range g.EntrySource.Entries(ctx, f) {
		rows = append(rows, row{e, err})
	}
	close(g.read)
	<-g.release
	return func(yield func(core.LedgerEntry, error) bool) {
		for _, r := range rows {
			if !yield(r.e, r.err) {
				return
			}
		}
	}
}

func TestAnnualPanelBuildInFlightDuringWriteIsNotCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMember(t, "Maria")
	_, err := f.ledger.RecordContribution(ctx, true, contribution(m, 2025, 1, 100, 0))
	require.NoError(t, err)

	src := &gatedSource{EntrySource: f.store, read: make(chan struct{}), release: make(chan struct{})}
	reports := NewReportService(src, cache.NewLRUCache[int, core.AnnualPanel](2, time.Hour))

	done := make(chan core.AnnualPanel)
	go func() {
		p, err := reports.AnnualPanel(ctx, true, 2025)
		assert.NoError(t, err)
		done <- p
	}()
	<-src.read

	ledger := NewLedgerService(f.store, reports)
	outcome, err := ledger.RecordContribution(ctx, true, contribution(m, 2025, 1, 999, 0))
	require.NoError(t, err)
	require.Equal(t, core.OutcomeUpdated, outcome)

	close(src.release)
	inFlight := <-done
	assert.Equal(t, int64(100), inFlight.TitheTotal.Cents)

	panel, err := reports.AnnualPanel(ctx, true, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(999), panel.TitheTotal.Cents)
}
