package adjustment

import (
	"testing"

	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/rgehrsitz/whatif/internal/forecast"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func at(year int, m domain.Month) domain.MonthYear {
	return domain.NewMonthYear(year, m)
}

func newGrid(amount string, years ...int) *forecast.Grid {
	g := forecast.NewGrid()
	for _, y := range years {
		g.EnsureYear("4000", y)
	}
	g.BulkApply(nil, forecast.Set(d(amount)))
	return g
}

func percentAdj(value string, start, end domain.Month) domain.AppliedAdjustment {
	return domain.AppliedAdjustment{
		AccountCode: "4000",
		Name:        "Price uplift",
		Type:        domain.AdjustmentPercentage,
		Value:       d(value),
		StartMonth:  start,
		EndMonth:    end,
	}
}

func TestEngine_ReversalLaw(t *testing.T) {
	for _, mode := range []Mode{ModeInPlace, ModeLayered} {
		t.Run(string(mode), func(t *testing.T) {
			g := newGrid("5000", 2025)
			e := NewEngine(mode)

			adj, err := e.Add(percentAdj("10", domain.January, domain.December))
			require.NoError(t, err)
			assert.Equal(t, domain.StateDraft, adj.State)
			assert.NotEmpty(t, adj.ID)

			res, err := e.Apply(g, adj.ID)
			require.NoError(t, err)
			assert.Equal(t, 12, res.CellsWritten)
			assert.Equal(t, domain.StateActive, res.State)
			assert.Equal(t, "5500", g.Get("4000", at(2025, domain.June)).Forecast.String())

			res, err = e.Deactivate(g, adj.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.StateInactive, res.State)
			assert.Equal(t, "5000.00", g.Get("4000", at(2025, domain.June)).Forecast.StringFixed(2))

			stored, ok := e.Get(adj.ID)
			require.True(t, ok)
			assert.False(t, stored.IsActive)
		})
	}
}

func TestEngine_FixedReversal(t *testing.T) {
	g := newGrid("5000", 2025)
	e := NewEngine(ModeInPlace)

	adj, err := e.Add(domain.AppliedAdjustment{
		AccountCode: "4000", Name: "Bonus", Type: domain.AdjustmentFixed, Value: d("-250"),
		StartMonth: domain.March, EndMonth: domain.April,
	})
	require.NoError(t, err)

	_, err = e.Apply(g, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, "4750", g.Get("4000", at(2025, domain.March)).Forecast.String())
	assert.Equal(t, "5000", g.Get("4000", at(2025, domain.May)).Forecast.String())

	_, err = e.Deactivate(g, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, "5000", g.Get("4000", at(2025, domain.March)).Forecast.String())
}

func TestEngine_LockedCellsUntouched(t *testing.T) {
	g := newGrid("5000", 2025)
	g.RecordActual("4000", at(2025, domain.March), d("5100"))
	e := NewEngine(ModeInPlace)

	adj, err := e.Add(percentAdj("10", domain.January, domain.June))
	require.NoError(t, err)

	res, err := e.Apply(g, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, res.CellsWritten)
	assert.Equal(t, 1, res.LockedSkips)
	assert.Equal(t, "5000", g.Get("4000", at(2025, domain.March)).Forecast.String())

	// An actual arriving while the adjustment is active freezes that cell.
	g.RecordActual("4000", at(2025, domain.April), d("5600"))
	res, err = e.Deactivate(g, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, res.CellsWritten)
	assert.Equal(t, "5500", g.Get("4000", at(2025, domain.April)).Forecast.String())
	assert.Equal(t, "5000", g.Get("4000", at(2025, domain.May)).Forecast.StringFixed(0))
}

func TestEngine_WrappingWindowSpillsIntoNextYear(t *testing.T) {
	g := newGrid("1000", 2025, 2026)
	e := NewEngine(ModeInPlace)

	adj := domain.AppliedAdjustment{
		AccountCode: "4000", Name: "Winter", Type: domain.AdjustmentFixed, Value: d("100"),
		StartMonth: domain.November, EndMonth: domain.February, Year: 2025,
	}
	added, err := e.Add(adj)
	require.NoError(t, err)

	res, err := e.Apply(g, added.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, res.CellsWritten)

	for _, p := range []domain.MonthYear{at(2025, domain.November), at(2025, domain.December), at(2026, domain.January), at(2026, domain.February)} {
		assert.Equal(t, "1100", g.Get("4000", p).Forecast.String(), p.Label())
	}
	for _, p := range []domain.MonthYear{at(2025, domain.January), at(2025, domain.February), at(2026, domain.November), at(2025, domain.March)} {
		assert.Equal(t, "1000", g.Get("4000", p).Forecast.String(), p.Label())
	}
}

func TestEngine_StackingLimitationInPlace(t *testing.T) {
	g := newGrid("1000", 2025)
	e := NewEngine(ModeInPlace)
	cell := at(2025, domain.July)

	pct, err := e.Add(percentAdj("10", domain.July, domain.July))
	require.NoError(t, err)
	fixed, err := e.Add(domain.AppliedAdjustment{
		AccountCode: "4000", Name: "Flat", Type: domain.AdjustmentFixed, Value: d("100"),
		StartMonth: domain.July, EndMonth: domain.July,
	})
	require.NoError(t, err)

	_, err = e.Apply(g, pct.ID)
	require.NoError(t, err)
	_, err = e.Apply(g, fixed.ID)
	require.NoError(t, err)
	assert.Equal(t, "1200", g.Get("4000", cell).Forecast.String())

	_, err = e.Deactivate(g, pct.ID)
	require.NoError(t, err)
	_, err = e.Deactivate(g, fixed.ID)
	require.NoError(t, err)

	// Out-of-order reversal compounds: 1200 / 1.1 - 100, not 1000.
	assert.Equal(t, "990.91", g.Get("4000", cell).Forecast.StringFixed(2))
}

func TestEngine_LayeredModeIsExactUnderStacking(t *testing.T) {
	g := newGrid("1000", 2025)
	e := NewEngine(ModeLayered)
	cell := at(2025, domain.July)

	pct, err := e.Add(percentAdj("10", domain.July, domain.July))
	require.NoError(t, err)
	fixed, err := e.Add(domain.AppliedAdjustment{
		AccountCode: "4000", Name: "Flat", Type: domain.AdjustmentFixed, Value: d("100"),
		StartMonth: domain.July, EndMonth: domain.July,
	})
	require.NoError(t, err)

	_, err = e.Apply(g, pct.ID)
	require.NoError(t, err)
	_, err = e.Apply(g, fixed.ID)
	require.NoError(t, err)
	assert.Equal(t, "1200", g.Get("4000", cell).Forecast.String())

	_, err = e.Deactivate(g, pct.ID)
	require.NoError(t, err)
	assert.Equal(t, "1100", g.Get("4000", cell).Forecast.String())

	_, err = e.Deactivate(g, fixed.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000", g.Get("4000", cell).Forecast.String())
}

func TestEngine_GridWritesBetweenStepsSurvive(t *testing.T) {
	cell := at(2025, domain.July)

	t.Run("write while inactive", func(t *testing.T) {
		for _, mode := range []Mode{ModeInPlace, ModeLayered} {
			t.Run(string(mode), func(t *testing.T) {
				g := newGrid("5000", 2025)
				e := NewEngine(mode)
				adj, err := e.Add(percentAdj("10", domain.July, domain.July))
				require.NoError(t, err)

				_, err = e.Apply(g, adj.ID)
				require.NoError(t, err)
				_, err = e.Deactivate(g, adj.ID)
				require.NoError(t, err)
				require.Equal(t, "5000.00", g.Get("4000", cell).Forecast.StringFixed(2))

				require.NoError(t, g.SetForecast("4000", cell, d("8000")))

				_, err = e.Reactivate(g, adj.ID)
				require.NoError(t, err)
				assert.Equal(t, "8800.00", g.Get("4000", cell).Forecast.StringFixed(2))
			})
		}
	})

	t.Run("write while active", func(t *testing.T) {
		g := newGrid("1000", 2025)
		e := NewEngine(ModeLayered)
		pct, err := e.Add(percentAdj("10", domain.July, domain.July))
		require.NoError(t, err)
		fixed, err := e.Add(domain.AppliedAdjustment{
			AccountCode: "4000", Name: "Flat", Type: domain.AdjustmentFixed, Value: d("100"),
			StartMonth: domain.July, EndMonth: domain.July,
		})
		require.NoError(t, err)

		_, err = e.Apply(g, pct.ID)
		require.NoError(t, err)
		_, err = e.Apply(g, fixed.ID)
		require.NoError(t, err)
		require.Equal(t, "1200", g.Get("4000", cell).Forecast.String())

		// Outside bulk edit on top of both adjustments: baseline becomes 2000.
		g.BulkApply(forecast.ForAccount("4000"), forecast.Shift(d("1100")))
		require.Equal(t, "2300", g.Get("4000", cell).Forecast.String())

		_, err = e.Deactivate(g, pct.ID)
		require.NoError(t, err)
		assert.Equal(t, "2100.00", g.Get("4000", cell).Forecast.StringFixed(2))

		_, err = e.Deactivate(g, fixed.ID)
		require.NoError(t, err)
		assert.Equal(t, "2000.00", g.Get("4000", cell).Forecast.StringFixed(2))
	})
}

func TestEngine_EditWhileActive(t *testing.T) {
	for _, mode := range []Mode{ModeInPlace, ModeLayered} {
		t.Run(string(mode), func(t *testing.T) {
			g := newGrid("5000", 2025)
			e := NewEngine(mode)

			adj, err := e.Add(percentAdj("10", domain.January, domain.March))
			require.NoError(t, err)
			_, err = e.Apply(g, adj.ID)
			require.NoError(t, err)

			updated := adj
			updated.Type = domain.AdjustmentFixed
			updated.Value = d("200")
			updated.StartMonth = domain.February
			updated.EndMonth = domain.April

			res, err := e.Edit(g, adj.ID, updated)
			require.NoError(t, err)
			assert.Equal(t, domain.StateActive, res.State)

			assert.Equal(t, "5000", g.Get("4000", at(2025, domain.January)).Forecast.StringFixed(0))
			assert.Equal(t, "5200", g.Get("4000", at(2025, domain.February)).Forecast.StringFixed(0))
			assert.Equal(t, "5200", g.Get("4000", at(2025, domain.April)).Forecast.StringFixed(0))

			stored, _ := e.Get(adj.ID)
			assert.Equal(t, domain.AdjustmentFixed, stored.Type)
			assert.Equal(t, adj.CreatedAt, stored.CreatedAt)
		})
	}
}

func TestEngine_EditInactiveDoesNotWrite(t *testing.T) {
	g := newGrid("5000", 2025)
	e := NewEngine(ModeInPlace)

	adj, err := e.Add(percentAdj("10", domain.January, domain.March))
	require.NoError(t, err)

	revision := g.Revision()
	updated := adj
	updated.Value = d("20")
	res, err := e.Edit(nil, adj.ID, updated)
	require.NoError(t, err)
	assert.Equal(t, domain.StateDraft, res.State)
	assert.Equal(t, revision, g.Revision())

	_, err = e.Apply(g, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, "6000", g.Get("4000", at(2025, domain.January)).Forecast.String())
}

func TestEngine_RemoveAndReactivate(t *testing.T) {
	g := newGrid("5000", 2025)
	e := NewEngine(ModeInPlace)

	adj, err := e.Add(percentAdj("10", domain.January, domain.December))
	require.NoError(t, err)

	_, err = e.Reactivate(g, adj.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "drafts are applied, not reactivated")

	_, err = e.Apply(g, adj.ID)
	require.NoError(t, err)
	_, err = e.Apply(g, adj.ID)
	var transition *TransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, "apply", transition.Action)

	_, err = e.Deactivate(g, adj.ID)
	require.NoError(t, err)
	_, err = e.Reactivate(g, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, "5500", g.Get("4000", at(2025, domain.May)).Forecast.StringFixed(0))

	res, err := e.Remove(g, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, res.CellsWritten)
	assert.Equal(t, "5000", g.Get("4000", at(2025, domain.May)).Forecast.StringFixed(0))
	assert.Empty(t, e.List())

	_, err = e.Deactivate(g, adj.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_RemoveInactiveJustDeletes(t *testing.T) {
	e := NewEngine(ModeInPlace)
	adj, err := e.Add(percentAdj("5", domain.January, domain.March))
	require.NoError(t, err)

	res, err := e.Remove(nil, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.CellsWritten)
	_, ok := e.Get(adj.ID)
	assert.False(t, ok)
}

func TestEngine_AddRejectsInvalid(t *testing.T) {
	e := NewEngine("")
	assert.Equal(t, ModeInPlace, e.Mode)

	_, err := e.Add(percentAdj("-100", domain.January, domain.March))
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Messages, "percentage adjustment must be greater than -100")

	_, err = e.Apply(nil, "missing")
	assert.ErrorIs(t, err, ErrNilGrid)
}

func TestEngine_ListKeepsApplicationOrder(t *testing.T) {
	e := NewEngine(ModeInPlace)
	e.Actor = "planner"

	first, err := e.Add(percentAdj("1", domain.January, domain.March))
	require.NoError(t, err)
	second, err := e.Add(percentAdj("2", domain.January, domain.March))
	require.NoError(t, err)

	list := e.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, "planner", list[0].CreatedBy)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("layered")
	require.NoError(t, err)
	assert.Equal(t, ModeLayered, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeInPlace, m)

	_, err = ParseMode("stacked")
	assert.Error(t, err)
}

func TestEngine_LoadAppliesOnlyActive(t *testing.T) {
	g := newGrid("1000", 2025)
	e := NewEngine(ModeInPlace)

	active := percentAdj("10", domain.March, domain.March)
	active.IsActive = true
	draft := QuickAdjustment("Later", domain.AdjustmentFixed, d("50"), Target{AccountCode: "4000"})

	results, err := e.Load(g, []domain.AppliedAdjustment{active, draft})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].CellsWritten)

	assert.Equal(t, "1100", g.Get("4000", at(2025, domain.March)).Forecast.String())
	assert.Equal(t, "1000", g.Get("4000", at(2025, domain.April)).Forecast.String())

	list := e.List()
	require.Len(t, list, 2)
	assert.Equal(t, domain.StateActive, list[0].State)
	assert.Equal(t, domain.StateDraft, list[1].State)

	_, err = e.Load(g, []domain.AppliedAdjustment{{Name: "broken"}})
	assert.Error(t, err)
}
