package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"igreja/internal/core"
)

// RegistryStore is what the registry needs from the record store.
type RegistryStore interface {
	OrganizationStore
	MemberStore
}

// RegistryService maintains the organization profile and the member roster.
type RegistryService struct {
	store    RegistryStore
	notifier ChangeNotifier
}

func NewRegistryService(store RegistryStore, notifier ChangeNotifier) *RegistryService {
	return &RegistryService{store: store, notifier: notifier}
}

// Organization returns the profile; ok is false when none exists.
func (s *RegistryService) Organization(ctx context.Context) (core.Organization, bool, error) {
	return s.store.GetOrganization(ctx)
}

// UpsertOrganization creates the profile or edits the existing one. The tax
// id cannot change once set, and a nil logo keeps the stored logo. Concurrent
// edits are last-write-wins.
func (s *RegistryService) UpsertOrganization(ctx context.Context, canWrite bool, org core.Organization) (core.Organization, bool, error) {
	if !canWrite {
		return core.Organization{}, false, core.ErrReadOnly
	}
	org.Normalize()

	verr := &core.ValidationError{}
	if err := org.Validate(); err != nil && !errors.As(err, &verr) {
		return core.Organization{}, false, err
	}

	current, exists, err := s.store.GetOrganization(ctx)
	if err != nil {
		return core.Organization{}, false, err
	}
	if exists {
		if org.TaxID != "" && org.TaxID != current.TaxID {
			verr.Add("tax_id", "is immutable")
		}
		if org.Logo == nil {
			org.Logo = current.Logo
		}
	}
	if err := verr.OrNil(); err != nil {
		return core.Organization{}, false, err
	}

	created, err := s.store.SaveOrganization(ctx, org)
	if err != nil {
		return core.Organization{}, false, err
	}
	return org, created, nil
}

// DeleteOrganization wipes the profile. Deleting an absent profile succeeds.
func (s *RegistryService) DeleteOrganization(ctx context.Context, canWrite bool) error {
	if !canWrite {
		return core.ErrReadOnly
	}
	return s.store.DeleteOrganization(ctx)
}

// AddMember validates and stores a new member, returning it with its id.
func (s *RegistryService) AddMember(ctx context.Context, canWrite bool, m core.Member) (core.Member, error) {
	if !canWrite {
		return core.Member{}, core.ErrReadOnly
	}
	m.Normalize()
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	id, err := s.store.InsertMember(ctx, m)
	if err != nil {
		return core.Member{}, err
	}
	m.ID = id
	return m, nil
}

// UpdateMember replaces the member's fields. The stored photo is kept unless
// m carries a new one.
func (s *RegistryService) UpdateMember(ctx context.Context, canWrite bool, id int64, m core.Member) (core.Member, error) {
	if !canWrite {
		return core.Member{}, core.ErrReadOnly
	}
	m.ID = id
	m.Normalize()
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	if err := s.store.UpdateMember(ctx, m); err != nil {
		return core.Member{}, err
	}
	return s.store.GetMember(ctx, id)
}

// UpdateMembers applies a batch of edits row by row. It stops at the first
// row that fails; rows before it stay saved.
func (s *RegistryService) UpdateMembers(ctx context.Context, canWrite bool, members []core.Member) (int, error) {
	if !canWrite {
		return 0, core.ErrReadOnly
	}
	for i, m := range members {
		if _, err := s.UpdateMember(ctx, canWrite, m.ID, m); err != nil {
			return i, &BatchError{Row: i, MemberID: m.ID, Err: err}
		}
	}
	slog.InfoContext(ctx, "Members updated", "count", len(members))
	return len(members), nil
}

// DeleteMember removes the member and its ledger entries.
func (s *RegistryService) DeleteMember(ctx context.Context, canWrite bool, id int64) error {
	if !canWrite {
		return core.ErrReadOnly
	}
	years, err := s.store.DeleteMember(ctx, id)
	if err != nil {
		return err
	}
	notify(ctx, s.notifier, years...)
	return nil
}

// SetMemberPhoto replaces the photo; nil clears it.
func (s *RegistryService) SetMemberPhoto(ctx context.Context, canWrite bool, id int64, photo []byte) error {
	if !canWrite {
		return core.ErrReadOnly
	}
	return s.store.SetMemberPhoto(ctx, id, photo)
}

func (s *RegistryService) Member(ctx context.Context, id int64) (core.Member, error) {
	return s.store.GetMember(ctx, id)
}

// Members returns the roster ordered by name.
func (s *RegistryService) Members(ctx context.Context) ([]core.Member, error) {
	return s.store.ListMembers(ctx)
}

// Birthdays returns the members born in month.
func (s *RegistryService) Birthdays(ctx context.Context, month int) ([]core.Member, error) {
	if month < 1 || month > 12 {
		verr := &core.ValidationError{}
		verr.Add("month", "must be between 1 and 12")
		return nil, verr
	}
	return s.store.MembersByBirthMonth(ctx, month)
}

// BatchError reports the row that stopped a bulk edit.
type BatchError struct {
	Row      int
	MemberID int64
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("row %d (member %d): %v", e.Row, e.MemberID, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
