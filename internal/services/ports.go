package services

import (
	"context"
	"iter"

	"igreja/internal/core"
)

// OrganizationStore persists the single organization profile.
type OrganizationStore interface {
	GetOrganization(ctx context.Context) (core.Organization, bool, error)
	SaveOrganization(ctx context.Context, org core.Organization) (created bool, err error)
	DeleteOrganization(ctx context.Context) error
}

// MemberStore persists members. DeleteMember returns the years that had
// ledger entries removed by the cascade.
type MemberStore interface {
	InsertMember(ctx context.Context, m core.Member) (int64, error)
	UpdateMember(ctx context.Context, m core.Member) error
	SetMemberPhoto(ctx context.Context, id int64, photo []byte) error
	DeleteMember(ctx context.Context, id int64) ([]int, error)
	GetMember(ctx context.Context, id int64) (core.Member, error)
	ListMembers(ctx context.Context) ([]core.Member, error)
	MembersByBirthMonth(ctx context.Context, month int) ([]core.Member, error)
}

// EntrySource yields ledger entries lazily.
type EntrySource interface {
	Entries(ctx context.Context, f core.EntryFilter) iter.Seq2[core.LedgerEntry, error]
}

// LedgerStore persists ledger entries. InsertEntry must report a second entry
// for the same member and competency as a DuplicateError on
// core.ConstraintLedgerCompetency.
type LedgerStore interface {
	EntrySource
	InsertEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error)
	UpdateEntryByKey(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error)
	DeleteEntry(ctx context.Context, id int64) (core.LedgerEntry, error)
}

// Store is a complete record store.
type Store interface {
	OrganizationStore
	MemberStore
	LedgerStore
	Ping(ctx context.Context) error
	Close() error
}

// ChangeNotifier is told which competency year changed after a ledger write.
type ChangeNotifier interface {
	LedgerChanged(ctx context.Context, year int) error
}
