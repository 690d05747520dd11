package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func openTestStore(t *testing.T) *VersionStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "versions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func cellsFor(code string, amount string, months ...domain.Month) []domain.ForecastCell {
	var cells []domain.ForecastCell
	for _, m := range months {
		cells = append(cells, domain.ForecastCell{
			AccountCode: code,
			Period:      domain.NewMonthYear(2025, m),
			Forecast:    d(amount),
		})
	}
	return cells
}

func TestVersionStore_SaveAndLoadCells(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	actual := d("98000.50")
	cells := cellsFor("4000", "100000.25", domain.January, domain.February)
	cells[0].Actual = &actual
	cells = append(cells, cellsFor("6000", "50000", domain.January)...)

	id, err := s.SaveVersion(ctx, 2025, "Budget", "first cut", cells)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.GetVersionCells(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "4000", got[0].AccountCode)
	assert.Equal(t, domain.NewMonthYear(2025, domain.January), got[0].Period)
	assert.True(t, got[0].Forecast.Equal(d("100000.25")))
	require.NotNil(t, got[0].Actual)
	assert.True(t, got[0].Actual.Equal(actual), "Actual survives the round trip")
	assert.True(t, got[0].Locked())
	assert.Nil(t, got[1].Actual)
	assert.Equal(t, "6000", got[2].AccountCode)

	v, err := s.GetVersion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Budget", v.Name)
	assert.Equal(t, "first cut", v.Description)
	assert.Equal(t, 3, v.CellCount)
	assert.False(t, v.IsActive, "New versions start inactive")
}

func TestVersionStore_SaveVersionValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.SaveVersion(ctx, 2025, "", "", nil)
	assert.ErrorContains(t, err, "name is required")

	_, err = s.SaveVersion(ctx, 0, "x", "", nil)
	assert.ErrorContains(t, err, "year is required")
}

func TestVersionStore_SaveManyCellsInBatches(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var cells []domain.ForecastCell
	for year := 2000; year < 2060; year++ {
		for _, m := range domain.AllMonths() {
			cells = append(cells, domain.ForecastCell{
				AccountCode: "4000",
				Period:      domain.NewMonthYear(year, m),
				Forecast:    d("1"),
			})
		}
	}
	require.Greater(t, len(cells), insertBatch)

	id, err := s.SaveVersion(ctx, 2025, "Long range", "", cells)
	require.NoError(t, err)

	got, err := s.GetVersionCells(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got, len(cells))
}

func TestVersionStore_ListVersions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.SaveVersion(ctx, 2025, "Budget", "", cellsFor("4000", "1", domain.January))
	require.NoError(t, err)
	second, err := s.SaveVersion(ctx, 2025, "Reforecast", "", nil)
	require.NoError(t, err)
	_, err = s.SaveVersion(ctx, 2026, "Outlook", "", nil)
	require.NoError(t, err)

	list, err := s.ListVersions(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID, "Newest first")
	assert.Equal(t, first, list[1].ID)
	assert.Equal(t, 0, list[0].CellCount)
	assert.Equal(t, 1, list[1].CellCount)

	all, err := s.ListVersions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestVersionStore_SetActiveIsExclusivePerYear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.SaveVersion(ctx, 2025, "A", "", nil)
	require.NoError(t, err)
	b, err := s.SaveVersion(ctx, 2025, "B", "", nil)
	require.NoError(t, err)
	other, err := s.SaveVersion(ctx, 2026, "Other", "", nil)
	require.NoError(t, err)

	require.NoError(t, s.SetActive(ctx, a, 2025))
	require.NoError(t, s.SetActive(ctx, other, 0))
	require.NoError(t, s.SetActive(ctx, b, 2025))

	active, err := s.ActiveVersion(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, b, active.ID)

	va, err := s.GetVersion(ctx, a)
	require.NoError(t, err)
	assert.False(t, va.IsActive, "Activating B clears A")

	vo, err := s.GetVersion(ctx, other)
	require.NoError(t, err)
	assert.True(t, vo.IsActive, "Other years are untouched")

	err = s.SetActive(ctx, a, 2026)
	assert.ErrorContains(t, err, "belongs to 2025")

	err = s.SetActive(ctx, "missing", 2025)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestVersionStore_ActiveVersionNone(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ActiveVersion(context.Background(), 2030)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestVersionStore_DeleteVersion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveVersion(ctx, 2025, "Budget", "", cellsFor("4000", "1", domain.January))
	require.NoError(t, err)

	require.NoError(t, s.DeleteVersion(ctx, id))

	_, err = s.GetVersionCells(ctx, id)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.DeleteVersion(ctx, id)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestVersionStore_Diff(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	from, err := s.SaveVersion(ctx, 2025, "Budget", "",
		append(cellsFor("4000", "1000", domain.January, domain.February),
			cellsFor("5000", "300", domain.January)...))
	require.NoError(t, err)
	to, err := s.SaveVersion(ctx, 2025, "Reforecast", "",
		append(cellsFor("4000", "1100", domain.January, domain.February),
			cellsFor("6000", "50", domain.March)...))
	require.NoError(t, err)

	diff, err := s.Diff(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, diff.Accounts, 3)

	revenue := diff.Accounts[0]
	assert.Equal(t, "4000", revenue.AccountCode)
	assert.Equal(t, "2000", revenue.From.String())
	assert.Equal(t, "2200", revenue.To.String())
	assert.Equal(t, "200", revenue.Variance.String())
	assert.Equal(t, "10", revenue.VariancePercent.String())

	dropped := diff.Accounts[1]
	assert.Equal(t, "5000", dropped.AccountCode)
	assert.Equal(t, "-300", dropped.Variance.String())
	assert.Equal(t, "-100", dropped.VariancePercent.String())

	added := diff.Accounts[2]
	assert.Equal(t, "6000", added.AccountCode)
	assert.True(t, added.From.IsZero())
	assert.True(t, added.VariancePercent.IsZero(), "No percentage against a zero base")

	assert.Equal(t, "2300", diff.FromTotal.String())
	assert.Equal(t, "2250", diff.ToTotal.String())
	assert.Equal(t, "-50", diff.Variance.String())

	_, err = s.Diff(ctx, from, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestVersionStore_SaveRollsBackOnCellFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := New(db)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO versions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO version_cells").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = s.SaveVersion(context.Background(), 2025, "Budget", "", cellsFor("4000", "1", domain.January))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert cells")
	assert.Contains(t, err.Error(), "disk full")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionStore_ListWrapsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT v.id").WillReturnError(boom)

	_, err = New(db).ListVersions(context.Background(), 2025)
	assert.True(t, errors.Is(err, boom))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionStore_DeleteCommitFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM version_cells").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM versions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("locked"))

	err = New(db).DeleteVersion(context.Background(), "v1")
	assert.ErrorContains(t, err, "commit")
	assert.NoError(t, mock.ExpectationsWereMet())
}
