package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"med-reminder/internal/domain/medications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *MedicationsRepo {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "med.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMedicationsRepo(db)
}

func sample(id, userID string) medications.Medication {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return medications.Medication{
		ID:              id,
		UserID:          userID,
		Name:            "Aspirin",
		Dose:            "1 tablet",
		DoseTimes:       []string{"08:00", "20:00"},
		MealRelation:    medications.MealAfter,
		StartDate:       now.AddDate(0, 0, -1),
		EndDate:         now.AddDate(0, 1, 0),
		TotalTabs:       10,
		CurrentTabs:     10,
		RefillThreshold: 5,
		TakenHistory:    []medications.DoseEvent{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestMedicationsRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	in := sample("m1", "u1")
	in.TakenHistory = []medications.DoseEvent{
		{Status: medications.DoseStatusTaken, Timestamp: time.Date(2026, 3, 9, 8, 3, 0, 0, time.UTC)},
	}
	require.NoError(t, repo.Create(ctx, in))

	got, err := repo.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.DoseTimes, got.DoseTimes)
	assert.Equal(t, in.MealRelation, got.MealRelation)
	assert.True(t, in.StartDate.Equal(got.StartDate))
	assert.True(t, in.EndDate.Equal(got.EndDate))
	require.Len(t, got.TakenHistory, 1)
	assert.True(t, in.TakenHistory[0].Timestamp.Equal(got.TakenHistory[0].Timestamp))
	assert.Equal(t, 1, got.Version)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, medications.ErrNotFound)
}

func TestMedicationsRepo_DuplicateIDIsValidationError(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.Create(ctx, sample("m1", "u1")))
	assert.ErrorIs(t, repo.Create(ctx, sample("m1", "u1")), medications.ErrValidation)
}

func TestMedicationsRepo_SaveVersioning(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	require.NoError(t, repo.Create(ctx, sample("m1", "u1")))

	m, err := repo.GetByID(ctx, "m1")
	require.NoError(t, err)

	m.CurrentTabs = 3
	saved, err := repo.Save(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Version)

	// versión vieja
	_, err = repo.Save(ctx, m)
	assert.ErrorIs(t, err, medications.ErrConflict)

	ghost := sample("ghost", "u1")
	ghost.Version = 1
	_, err = repo.Save(ctx, ghost)
	assert.ErrorIs(t, err, medications.ErrNotFound)
}

func TestMedicationsRepo_AppendIfNoEventNear(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	require.NoError(t, repo.Create(ctx, sample("m1", "u1")))

	slot := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	ev := medications.DoseEvent{Status: medications.DoseStatusMissed, Timestamp: slot}

	ok, err := repo.AppendIfNoEventNear(ctx, "m1", ev, 30*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	near := medications.DoseEvent{Status: medications.DoseStatusTaken, Timestamp: slot.Add(10 * time.Minute)}
	ok, err = repo.AppendIfNoEventNear(ctx, "m1", near, 30*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, got.TakenHistory, 1)
	assert.Equal(t, medications.DoseStatusMissed, got.TakenHistory[0].Status)
}

func TestMedicationsRepo_ListClearDelete(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	require.NoError(t, repo.Create(ctx, sample("m1", "u1")))
	require.NoError(t, repo.Create(ctx, sample("m2", "u2")))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "m1", mine[0].ID)

	_, err = repo.AppendIfNoEventNear(ctx, "m1", medications.DoseEvent{
		Status:    medications.DoseStatusTaken,
		Timestamp: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}, time.Minute)
	require.NoError(t, err)

	n, err := repo.ClearHistoryByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.ClearHistoryByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, repo.Delete(ctx, "m1"))
	assert.ErrorIs(t, repo.Delete(ctx, "m1"), medications.ErrNotFound)
}
