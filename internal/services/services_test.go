package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"igreja/internal/cache"
	"igreja/internal/core"
	"igreja/internal/storage/memory"
)

type recordingNotifier struct {
	mu    sync.Mutex
	years []int
	err   error
}

func (r *recordingNotifier) LedgerChanged(_ context.Context, year int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.years = append(r.years, year)
	return r.err
}

type fixture struct {
	store    *memory.Store
	notifier *recordingNotifier
	ledger   *LedgerService
	registry *RegistryService
	reports  *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	notifier := &recordingNotifier{}
	reports := NewReportService(store, cache.NewLRUCache[int, core.AnnualPanel](4, time.Hour))
	changes := Notifiers{reports, notifier}
	return &fixture{
		store:    store,
		notifier: notifier,
		ledger:   NewLedgerService(store, changes),
		registry: NewRegistryService(store, changes),
		reports:  reports,
	}
}

func newMember(name string) core.Member {
	return core.Member{
		Name:          name,
		Ministry:      "Louvor",
		Address:       "Rua A, 10",
		Phone:         "11987654321",
		Sex:           core.SexMale,
		BirthDate:     core.NewDate(1988, 9, 3),
		MaritalStatus: core.MaritalSingle,
		AdmissionDate: core.NewDate(2012, 2, 1),
		AdmissionType: core.AdmissionTransfer,
	}
}

func (f *fixture) addMember(t *testing.T, name string) int64 {
	t.Helper()
	m, err := f.registry.AddMember(context.Background(), true, newMember(name))
	require.NoError(t, err)
	return m.ID
}

func contribution(memberID int64, year, month int, tithe, offering int64) core.Contribution {
	return core.Contribution{
		MemberID:      memberID,
		Competency:    core.Competency{Year: year, Month: month},
		Tithe:         core.Money{Cents: tithe},
		Offering:      core.Money{Cents: offering},
		PaymentDate:   core.NewDate(year, month, 5),
		PaymentMethod: core.PaymentCash,
	}
}

func entries(t *testing.T, l *LedgerService, f core.EntryFilter) []core.LedgerEntry {
	t.Helper()
	var out []core.LedgerEntry
	for e, err := range l.ListEntries(context.Background(), f) {
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func validationFields(t *testing.T, err error) *core.ValidationError {
	t.Helper()
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr
}
