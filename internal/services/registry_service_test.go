package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igreja/internal/core"
)

func church(taxID string) core.Organization {
	return core.Organization{
		TaxID:       taxID,
		Address:     "Av. Central, 1",
		FoundedOn:   core.NewDate(1985, 3, 1),
		Logo:        []byte("png"),
		PastorName:  "Pr. Jose",
		PastorStart: core.NewDate(2015, 1, 1),
		PastorEnd:   core.NewDate(2027, 12, 31),
	}
}

func TestOrganizationLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, ok, err := f.registry.Organization(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	saved, created, err := f.registry.UpsertOrganization(ctx, true, church("11111111000111"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "11111111000111", saved.TaxID)

	edit := church("11111111000111")
	edit.Address = "Rua Nova, 5"
	edit.Logo = nil
	saved, created, err = f.registry.UpsertOrganization(ctx, true, edit)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, []byte("png"), saved.Logo, "nil logo keeps the stored one")

	_, _, err = f.registry.UpsertOrganization(ctx, true, church("22222222000122"))
	assert.True(t, validationFields(t, err).Has("tax_id"))

	require.NoError(t, f.registry.DeleteOrganization(ctx, true))
	_, ok, err = f.registry.Organization(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, created, err = f.registry.UpsertOrganization(ctx, true, church("22222222000122"))
	require.NoError(t, err)
	assert.True(t, created, "a fresh insert after delete may use a new tax id")
}

func TestOrganizationValidationCollectsAll(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.registry.UpsertOrganization(context.Background(), true, core.Organization{})
	verr := validationFields(t, err)
	assert.GreaterOrEqual(t, len(verr.Fields), 6)
}

func TestOrganizationReadOnly(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.registry.UpsertOrganization(context.Background(), false, church("1"))
	assert.ErrorIs(t, err, core.ErrReadOnly)
	assert.ErrorIs(t, f.registry.DeleteOrganization(context.Background(), false), core.ErrReadOnly)
}

func TestAddMemberMarriedWithoutSpouse(t *testing.T) {
	f := newFixture(t)
	m := newMember("Carlos")
	m.MaritalStatus = core.MaritalMarried

	_, err := f.registry.AddMember(context.Background(), true, m)
	assert.True(t, validationFields(t, err).Has("spouse_name"))

	members, err := f.registry.Members(context.Background())
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestAddMemberDerivesBirthMonth(t *testing.T) {
	f := newFixture(t)
	m, err := f.registry.AddMember(context.Background(), true, newMember("  Carlos  "))
	require.NoError(t, err)
	assert.Equal(t, "Carlos", m.Name)
	assert.Equal(t, 9, m.BirthMonth)
	assert.NotZero(t, m.ID)

	september, err := f.registry.Birthdays(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, september, 1)

	_, err = f.registry.Birthdays(context.Background(), 0)
	assert.True(t, validationFields(t, err).Has("month"))
}

func TestAddMemberDuplicateRegistration(t *testing.T) {
	f := newFixture(t)
	a := newMember("Ana")
	a.RegistrationNumber = "R-9"
	_, err := f.registry.AddMember(context.Background(), true, a)
	require.NoError(t, err)

	b := newMember("Bia")
	b.RegistrationNumber = "R-9"
	_, err = f.registry.AddMember(context.Background(), true, b)
	assert.True(t, core.IsDuplicate(err, core.ConstraintRegistrationNumber))
}

func TestUpdateMemberKeepsPhoto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.addMember(t, "Ana")
	require.NoError(t, f.registry.SetMemberPhoto(ctx, true, id, []byte("jpeg")))

	edit := newMember("Ana Paula")
	got, err := f.registry.UpdateMember(ctx, true, id, edit)
	require.NoError(t, err)
	assert.Equal(t, "Ana Paula", got.Name)
	assert.Equal(t, []byte("jpeg"), got.Photo)

	require.NoError(t, f.registry.SetMemberPhoto(ctx, true, id, nil))
	got, err = f.registry.Member(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.Photo)

	var nf *core.NotFoundError
	_, err = f.registry.UpdateMember(ctx, true, id+10, edit)
	assert.True(t, errors.As(err, &nf))
}

func TestUpdateMembersStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.addMember(t, "Ana")
	b := f.addMember(t, "Bia")
	c := f.addMember(t, "Caio")

	rowA := newMember("Ana Maria")
	rowA.ID = a
	rowB := newMember("Bia")
	rowB.ID = b
	rowB.Phone = "123"
	rowC := newMember("Caio Cesar")
	rowC.ID = c

	n, err := f.registry.UpdateMembers(ctx, true, []core.Member{rowA, rowB, rowC})
	assert.Equal(t, 1, n)
	var batch *BatchError
	require.True(t, errors.As(err, &batch))
	assert.Equal(t, 1, batch.Row)
	assert.Equal(t, b, batch.MemberID)
	assert.True(t, validationFields(t, err).Has("phone"))

	got, err := f.registry.Member(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)
	got, err = f.registry.Member(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "Caio", got.Name)
}

func TestDeleteMemberCascadesAndNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.addMember(t, "Maria")
	for _, c := range []core.Contribution{contribution(id, 2024, 12, 1, 0), contribution(id, 2025, 1, 1, 0)} {
		_, err := f.ledger.RecordContribution(ctx, true, c)
		require.NoError(t, err)
	}
	f.notifier.years = nil

	require.NoError(t, f.registry.DeleteMember(ctx, true, id))
	assert.Equal(t, []int{2024, 2025}, f.notifier.years)
	assert.Empty(t, entries(t, f.ledger, core.EntryFilter{}))

	var nf *core.NotFoundError
	assert.True(t, errors.As(f.registry.DeleteMember(ctx, true, id), &nf))
	assert.ErrorIs(t, f.registry.DeleteMember(ctx, false, id), core.ErrReadOnly)
}

func TestNotifiersJoinErrors(t *testing.T) {
	a := &recordingNotifier{err: errors.New("a")}
	b := &recordingNotifier{}
	var published []int
	pub := PublishNotifier(publisherFunc(func(_ context.Context, year int) error {
		published = append(published, year)
		return nil
	}))

	err := Notifiers{a, nil, b, pub}.LedgerChanged(context.Background(), 2025)
	assert.EqualError(t, err, "a")
	assert.Equal(t, []int{2025}, b.years)
	assert.Equal(t, []int{2025}, published)

	assert.NoError(t, PublishNotifier(nil).LedgerChanged(context.Background(), 2025))
}

type publisherFunc func(ctx context.Context, year int) error

func (f publisherFunc) PublishPanelSync(ctx context.Context, year int) error {
	return f(ctx, year)
}
