// Package memory is an in-process record store used for development and
// tests. It enforces the same uniqueness and reference rules as SQLite.
package memory

import (
	"context"
	"iter"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"igreja/internal/core"
)

type entryKey struct {
	member int64
	year   int
	month  int
}

type Store struct {
	mu       sync.Mutex
	org      *core.Organization
	members  map[int64]core.Member
	entries  map[int64]core.LedgerEntry
	byKey    map[entryKey]int64
	memberID int64
	entryID  int64
	now      func() time.Time
}

func New() *Store {
	return &Store{
		members: make(map[int64]core.Member),
		entries: make(map[int64]core.LedgerEntry),
		byKey:   make(map[entryKey]int64),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) GetOrganization(_ context.Context) (core.Organization, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.org == nil {
		return core.Organization{}, false, nil
	}
	org := *s.org
	org.Logo = cloneBytes(org.Logo)
	return org, true, nil
}

func (s *Store) SaveOrganization(_ context.Context, org core.Organization) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := s.org == nil
	org.Logo = cloneBytes(org.Logo)
	s.org = &org
	return created, nil
}

func (s *Store) DeleteOrganization(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.org = nil
	return nil
}

// registrationTaken reports whether another active member holds m's
// registration number. Departed members release theirs. Must be called with
// the lock held.
func (s *Store) registrationTaken(m core.Member) bool {
	if m.RegistrationNumber == "" || !m.Active() {
		return false
	}
	for id, other := range s.members {
		if id != m.ID && other.Active() && other.RegistrationNumber == m.RegistrationNumber {
			return true
		}
	}
	return false
}

func (s *Store) InsertMember(_ context.Context, m core.Member) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registrationTaken(m) {
		return 0, &core.DuplicateError{Constraint: core.ConstraintRegistrationNumber, Value: m.RegistrationNumber}
	}
	s.memberID++
	m.ID = s.memberID
	m.Photo = cloneBytes(m.Photo)
	s.members[m.ID] = m
	return m.ID, nil
}

func (s *Store) UpdateMember(_ context.Context, m core.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.members[m.ID]
	if !ok {
		return memberNotFound(m.ID)
	}
	if s.registrationTaken(m) {
		return &core.DuplicateError{Constraint: core.ConstraintRegistrationNumber, Value: m.RegistrationNumber}
	}
	if len(m.Photo) == 0 {
		m.Photo = stored.Photo
	} else {
		m.Photo = cloneBytes(m.Photo)
	}
	s.members[m.ID] = m
	s.renameEntries(m.ID, m.Name)
	return nil
}

func (s *Store) renameEntries(memberID int64, name string) {
	for id, e := range s.entries {
		if e.MemberID == memberID {
			e.MemberName = name
			s.entries[id] = e
		}
	}
}

func (s *Store) SetMemberPhoto(_ context.Context, id int64, photo []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return memberNotFound(id)
	}
	m.Photo = cloneBytes(photo)
	s.members[id] = m
	return nil
}

// DeleteMember removes the member and cascades to its entries.
func (s *Store) DeleteMember(_ context.Context, id int64) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return nil, memberNotFound(id)
	}
	seen := map[int]bool{}
	var years []int
	for eid, e := range s.entries {
		if e.MemberID != id {
			continue
		}
		if !seen[e.Competency.Year] {
			seen[e.Competency.Year] = true
			years = append(years, e.Competency.Year)
		}
		delete(s.byKey, keyOf(e))
		delete(s.entries, eid)
	}
	delete(s.members, id)
	sort.Ints(years)
	return years, nil
}

func (s *Store) GetMember(_ context.Context, id int64) (core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return core.Member{}, memberNotFound(id)
	}
	m.Photo = cloneBytes(m.Photo)
	return m, nil
}

func (s *Store) ListMembers(_ context.Context) ([]core.Member, error) {
	return s.selectMembers(func(core.Member) bool { return true }, byName), nil
}

func (s *Store) MembersByBirthMonth(_ context.Context, month int) ([]core.Member, error) {
	return s.selectMembers(func(m core.Member) bool { return m.BirthMonth == month }, func(a, b core.Member) bool {
		if a.BirthDate.Day() != b.BirthDate.Day() {
			return a.BirthDate.Day() < b.BirthDate.Day()
		}
		return byName(a, b)
	}), nil
}

func (s *Store) selectMembers(keep func(core.Member) bool, less func(a, b core.Member) bool) []core.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Member{}
	for _, m := range s.members {
		if keep(m) {
			m.Photo = cloneBytes(m.Photo)
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byName(a, b core.Member) bool {
	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if an != bn {
		return an < bn
	}
	return a.ID < b.ID
}

// InsertEntry simulates the unique index on member and competency with a
// check-then-act under the store lock.
func (s *Store) InsertEntry(_ context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[e.MemberID]
	if !ok {
		return core.LedgerEntry{}, &core.ReferenceError{Entity: "member", ID: e.MemberID}
	}
	if _, dup := s.byKey[keyOf(e)]; dup {
		return core.LedgerEntry{}, &core.DuplicateError{Constraint: core.ConstraintLedgerCompetency, Value: e.Competency.String()}
	}
	s.entryID++
	now := s.now()
	e.ID = s.entryID
	e.MemberName = m.Name
	e.CreatedAt = now
	e.UpdatedAt = now
	s.entries[e.ID] = e
	s.byKey[keyOf(e)] = e.ID
	return e, nil
}

func (s *Store) UpdateEntryByKey(_ context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byKey[keyOf(e)]
	if !ok {
		return core.LedgerEntry{}, &core.NotFoundError{
			Entity: "ledger entry",
			ID:     strconv.FormatInt(e.MemberID, 10) + "/" + e.Competency.String(),
		}
	}
	stored := s.entries[id]
	stored.Tithe = e.Tithe
	stored.Offering = e.Offering
	stored.PaymentDate = e.PaymentDate
	stored.PaymentMethod = e.PaymentMethod
	stored.Notes = e.Notes
	stored.UpdatedAt = s.now()
	s.entries[id] = stored
	return stored, nil
}

func (s *Store) DeleteEntry(_ context.Context, id int64) (core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return core.LedgerEntry{}, &core.NotFoundError{Entity: "ledger entry", ID: strconv.FormatInt(id, 10)}
	}
	delete(s.entries, id)
	delete(s.byKey, keyOf(e))
	return e, nil
}

// Entries snapshots the matching entries each time the sequence is ranged.
func (s *Store) Entries(_ context.Context, f core.EntryFilter) iter.Seq2[core.LedgerEntry, error] {
	return func(yield func(core.LedgerEntry, error) bool) {
		for _, e := range s.matching(f) {
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (s *Store) matching(f core.EntryFilter) []core.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(f.MemberNameContains))
	out := []core.LedgerEntry{}
	for _, e := range s.entries {
		if f.Year != 0 && e.Competency.Year != f.Year {
			continue
		}
		if f.Month != 0 && e.Competency.Month != f.Month {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(e.MemberName), needle) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if an, bn := strings.ToLower(a.MemberName), strings.ToLower(b.MemberName); an != bn {
			return an < bn
		}
		if a.Competency.Year != b.Competency.Year {
			return a.Competency.Year < b.Competency.Year
		}
		if a.Competency.Month != b.Competency.Month {
			return a.Competency.Month < b.Competency.Month
		}
		return a.ID < b.ID
	})
	return out
}

func keyOf(e core.LedgerEntry) entryKey {
	return entryKey{member: e.MemberID, year: e.Competency.Year, month: e.Competency.Month}
}

func memberNotFound(id int64) error {
	return &core.NotFoundError{Entity: "member", ID: strconv.FormatInt(id, 10)}
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}
