package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igreja/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "igreja.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testMember(name string) core.Member {
	m := core.Member{
		Name:          name,
		Ministry:      "Louvor",
		Address:       "Rua A, 10",
		Phone:         "11987654321",
		Sex:           core.SexFemale,
		BirthDate:     core.NewDate(1990, 4, 12),
		MaritalStatus: core.MaritalSingle,
		AdmissionDate: core.NewDate(2010, 6, 1),
		AdmissionType: core.AdmissionBaptism,
	}
	m.Normalize()
	return m
}

func testEntry(memberID int64, year, month int, tithe, offering int64) core.LedgerEntry {
	return core.LedgerEntry{
		MemberID:      memberID,
		Competency:    core.Competency{Year: year, Month: month},
		Tithe:         core.Money{Cents: tithe},
		Offering:      core.Money{Cents: offering},
		PaymentDate:   core.NewDate(year, month, 10),
		PaymentMethod: core.PaymentPix,
	}
}

func collect(t *testing.T, repo *SQLiteRepository, f core.EntryFilter) []core.LedgerEntry {
	t.Helper()
	var out []core.LedgerEntry
	for e, err := range repo.Entries(context.Background(), f) {
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func TestOrganizationLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, ok, err := repo.GetOrganization(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	org := core.Organization{
		TaxID:       "12345678000199",
		Address:     "Av. Central, 1",
		FoundedOn:   core.NewDate(1985, 3, 1),
		Logo:        []byte{0x89, 0x50, 0x4e, 0x47},
		PastorName:  "Pr. Jose",
		PastorStart: core.NewDate(2015, 1, 1),
		PastorEnd:   core.NewDate(2027, 12, 31),
	}
	created, err := repo.SaveOrganization(ctx, org)
	require.NoError(t, err)
	assert.True(t, created)

	org.Address = "Av. Central, 2"
	created, err = repo.SaveOrganization(ctx, org)
	require.NoError(t, err)
	assert.False(t, created)

	got, ok, err := repo.GetOrganization(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, org, got)

	require.NoError(t, repo.DeleteOrganization(ctx))
	require.NoError(t, repo.DeleteOrganization(ctx))
	_, ok, err = repo.GetOrganization(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemberCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	m := testMember("Ana Souza")
	m.RegistrationNumber = "R-001"
	m.Photo = []byte("jpeg")
	id, err := repo.InsertMember(ctx, m)
	require.NoError(t, err)

	got, err := repo.GetMember(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", got.Name)
	assert.Equal(t, 4, got.BirthMonth)
	assert.Equal(t, core.NewDate(1990, 4, 12), got.BirthDate)
	assert.True(t, got.DisciplineStart.IsZero())
	assert.Equal(t, []byte("jpeg"), got.Photo)

	got.Ministry = "Diaconia"
	got.Photo = nil
	require.NoError(t, repo.UpdateMember(ctx, got))
	got, err = repo.GetMember(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Diaconia", got.Ministry)
	assert.Equal(t, []byte("jpeg"), got.Photo, "nil photo keeps the stored one")

	require.NoError(t, repo.SetMemberPhoto(ctx, id, nil))
	got, err = repo.GetMember(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.Photo)

	var nf *core.NotFoundError
	_, err = repo.GetMember(ctx, id+100)
	assert.True(t, errors.As(err, &nf))
	assert.True(t, errors.As(repo.UpdateMember(ctx, core.Member{ID: id + 100, Name: "x"}), &nf))
}

func TestRegistrationNumberUnique(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a := testMember("Ana")
	a.RegistrationNumber = "R-1"
	_, err := repo.InsertMember(ctx, a)
	require.NoError(t, err)

	b := testMember("Bia")
	b.RegistrationNumber = "R-1"
	_, err = repo.InsertMember(ctx, b)
	assert.True(t, core.IsDuplicate(err, core.ConstraintRegistrationNumber), "got %v", err)

	// Empty registration numbers never collide.
	c, d := testMember("Caio"), testMember("Davi")
	_, err = repo.InsertMember(ctx, c)
	require.NoError(t, err)
	_, err = repo.InsertMember(ctx, d)
	require.NoError(t, err)
}

func TestLedgerUniquenessAndReference(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.InsertMember(ctx, testMember("Maria"))
	require.NoError(t, err)

	first, err := repo.InsertEntry(ctx, testEntry(id, 2025, 1, 10000, 1000))
	require.NoError(t, err)
	assert.Equal(t, "Maria", first.MemberName)
	assert.False(t, first.CreatedAt.IsZero())

	_, err = repo.InsertEntry(ctx, testEntry(id, 2025, 1, 1, 1))
	assert.True(t, core.IsDuplicate(err, core.ConstraintLedgerCompetency), "got %v", err)

	updated, err := repo.UpdateEntryByKey(ctx, testEntry(id, 2025, 1, 20000, 0))
	require.NoError(t, err)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, int64(20000), updated.Tithe.Cents)
	assert.Equal(t, int64(0), updated.Offering.Cents)

	_, err = repo.InsertEntry(ctx, testEntry(id+50, 2025, 1, 1, 1))
	var ref *core.ReferenceError
	require.True(t, errors.As(err, &ref), "got %v", err)
	assert.Equal(t, id+50, ref.ID)
}

func TestEntriesFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	maria, err := repo.InsertMember(ctx, testMember("Maria"))
	require.NoError(t, err)
	abel, err := repo.InsertMember(ctx, testMember("abel"))
	require.NoError(t, err)

	for _, e := range []core.LedgerEntry{
		testEntry(maria, 2025, 3, 5000, 0),
		testEntry(maria, 2025, 1, 10000, 1000),
		testEntry(abel, 2025, 2, 100, 0),
		testEntry(abel, 2024, 2, 100, 0),
	} {
		_, err := repo.InsertEntry(ctx, e)
		require.NoError(t, err)
	}

	all := collect(t, repo, core.EntryFilter{Year: 2025})
	require.Len(t, all, 3)
	assert.Equal(t, "abel", all[0].MemberName)
	assert.Equal(t, 1, all[1].Competency.Month)
	assert.Equal(t, 3, all[2].Competency.Month)

	byName := collect(t, repo, core.EntryFilter{Year: 2025, MemberNameContains: "MAR"})
	assert.Len(t, byName, 2)

	march := collect(t, repo, core.EntryFilter{Year: 2025, Month: 3})
	require.Len(t, march, 1)
	assert.Equal(t, int64(5000), march[0].Tithe.Cents)

	// Ranging again re-queries.
	assert.Len(t, collect(t, repo, core.EntryFilter{Year: 2025}), 3)
}

func TestDeleteMemberCascades(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.InsertMember(ctx, testMember("Maria"))
	require.NoError(t, err)
	for _, e := range []core.LedgerEntry{testEntry(id, 2024, 12, 1, 0), testEntry(id, 2025, 1, 1, 0)} {
		_, err := repo.InsertEntry(ctx, e)
		require.NoError(t, err)
	}

	years, err := repo.DeleteMember(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2025}, years)
	assert.Empty(t, collect(t, repo, core.EntryFilter{}))

	_, err = repo.DeleteMember(ctx, id)
	var nf *core.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.InsertMember(ctx, testMember("Maria"))
	require.NoError(t, err)
	e, err := repo.InsertEntry(ctx, testEntry(id, 2025, 5, 1, 0))
	require.NoError(t, err)

	deleted, err := repo.DeleteEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2025, deleted.Competency.Year)

	_, err = repo.DeleteEntry(ctx, e.ID)
	var nf *core.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestMembersByBirthMonth(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	late := testMember("Zeca")
	late.BirthDate = core.NewDate(1980, 7, 30)
	early := testMember("Bruno")
	early.BirthDate = core.NewDate(1999, 7, 2)
	other := testMember("Ana")
	for _, m := range []core.Member{late, early, other} {
		m.Normalize()
		_, err := repo.InsertMember(ctx, m)
		require.NoError(t, err)
	}

	july, err := repo.MembersByBirthMonth(ctx, 7)
	require.NoError(t, err)
	require.Len(t, july, 2)
	assert.Equal(t, "Bruno", july[0].Name)
	assert.Equal(t, "Zeca", july[1].Name)

	all, err := repo.ListMembers(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana", all[0].Name)
}

func TestEntriesFilterFoldsAccents(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	alvaro, err := repo.InsertMember(ctx, testMember("ÁLVARO CONCEIÇÃO"))
	require.NoError(t, err)
	_, err = repo.InsertEntry(ctx, testEntry(alvaro, 2025, 1, 100, 0))
	require.NoError(t, err)

	for _, needle := range []string{"álvaro", "Álvaro", "conceição", "CONCEIÇÃO"} {
		got := collect(t, repo, core.EntryFilter{Year: 2025, MemberNameContains: needle})
		assert.Len(t, got, 1, needle)
	}
	assert.Empty(t, collect(t, repo, core.EntryFilter{Year: 2025, MemberNameContains: "alvaro"}))
}

func TestRegistrationNumberReleasedOnDeparture(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a := testMember("Ana")
	a.RegistrationNumber = "R-1"
	aID, err := repo.InsertMember(ctx, a)
	require.NoError(t, err)

	a.ID = aID
	a.DepartureDate = core.NewDate(2024, 5, 1)
	a.DepartureReason = core.DepartureTransfer
	require.NoError(t, repo.UpdateMember(ctx, a))

	b := testMember("Bia")
	b.RegistrationNumber = "R-1"
	_, err = repo.InsertMember(ctx, b)
	require.NoError(t, err, "departed members release their registration number")

	// Returning while the number is held by an active member collides.
	a.DepartureDate = core.Date{}
	a.DepartureReason = core.DepartureNone
	err = repo.UpdateMember(ctx, a)
	assert.True(t, core.IsDuplicate(err, core.ConstraintRegistrationNumber), "got %v", err)
}
