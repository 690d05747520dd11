// Package forecast holds the forecast grid: one cell per GL account and
// month, with actualised cells locked against further forecast writes.
package forecast

import (
	"sort"

	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
)

// Grid is the set of forecast cells for every tracked account and month.
// It is not safe for concurrent writers; callers pass it explicitly.
type Grid struct {
	cells    map[domain.CellKey]domain.ForecastCell
	revision int
}

// NewGrid creates an empty grid.
func NewGrid() *Grid {
	return &Grid{cells: make(map[domain.CellKey]domain.ForecastCell)}
}

// NewGridFromCells builds a grid from a snapshot. Later duplicates win.
func NewGridFromCells(cells []domain.ForecastCell) *Grid {
	g := NewGrid()
	for _, c := range cells {
		g.cells[c.Key()] = copyCell(c)
	}
	return g
}

func copyCell(c domain.ForecastCell) domain.ForecastCell {
	if c.Actual != nil {
		actual := *c.Actual
		c.Actual = &actual
	}
	return c
}

func (g *Grid) touch() {
	g.revision++
}

// Revision counts mutations since the grid was created.
func (g *Grid) Revision() int {
	return g.revision
}

// Len returns the number of stored cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// Get returns the cell at code/period. An absent cell reads as a zero,
// unlocked forecast.
func (g *Grid) Get(code string, period domain.MonthYear) domain.ForecastCell {
	key := domain.CellKey{AccountCode: code, Period: period}
	if c, ok := g.cells[key]; ok {
		return copyCell(c)
	}
	return domain.ForecastCell{AccountCode: code, Period: period, Forecast: decimal.Zero}
}

// Has reports whether a cell is stored at code/period.
func (g *Grid) Has(code string, period domain.MonthYear) bool {
	_, ok := g.cells[domain.CellKey{AccountCode: code, Period: period}]
	return ok
}

// SetForecast writes the forecast amount. Locked cells are left unchanged
// and a *domain.LockedCellError is returned.
func (g *Grid) SetForecast(code string, period domain.MonthYear, amount decimal.Decimal) error {
	cell := g.Get(code, period)
	if cell.Locked() {
		return &domain.LockedCellError{AccountCode: code, Period: period}
	}
	cell.Forecast = amount
	g.cells[cell.Key()] = cell
	g.touch()
	return nil
}

// RecordActual stores the actual amount and locks the cell. The forecast is
// frozen at its current value.
func (g *Grid) RecordActual(code string, period domain.MonthYear, amount decimal.Decimal) {
	cell := g.Get(code, period)
	actual := amount
	cell.Actual = &actual
	g.cells[cell.Key()] = cell
	g.touch()
}

// EnsureYear materialises zero cells for every month of year that code does
// not track yet. Existing cells are left alone.
func (g *Grid) EnsureYear(code string, year int) int {
	added := 0
	for _, m := range domain.AllMonths() {
		period := domain.NewMonthYear(year, m)
		if g.Has(code, period) {
			continue
		}
		g.cells[domain.CellKey{AccountCode: code, Period: period}] = domain.ForecastCell{
			AccountCode: code,
			Period:      period,
			Forecast:    decimal.Zero,
		}
		added++
	}
	if added > 0 {
		g.touch()
	}
	return added
}

// Select returns the unlocked cells matching pred, ordered by account and
// period. Locked cells never match.
func (g *Grid) Select(pred Predicate) []domain.ForecastCell {
	var out []domain.ForecastCell
	for _, c := range g.cells {
		if c.Locked() {
			continue
		}
		if pred != nil && !pred(c) {
			continue
		}
		out = append(out, copyCell(c))
	}
	sortCells(out)
	return out
}

// BulkApply rewrites the forecast of every unlocked cell matching pred and
// returns how many cells it rewrote. Locked cells are skipped silently.
func (g *Grid) BulkApply(pred Predicate, tr Transform) int {
	if tr == nil {
		return 0
	}
	matched := g.Select(pred)
	for _, c := range matched {
		c.Forecast = tr(c.Forecast)
		g.cells[c.Key()] = c
	}
	if len(matched) > 0 {
		g.touch()
	}
	return len(matched)
}

// Cells returns a sorted snapshot of every stored cell.
func (g *Grid) Cells() []domain.ForecastCell {
	out := make([]domain.ForecastCell, 0, len(g.cells))
	for _, c := range g.cells {
		out = append(out, copyCell(c))
	}
	sortCells(out)
	return out
}

// Accounts lists the tracked account codes in order.
func (g *Grid) Accounts() []string {
	seen := make(map[string]bool)
	var out []string
	for k := range g.cells {
		if !seen[k.AccountCode] {
			seen[k.AccountCode] = true
			out = append(out, k.AccountCode)
		}
	}
	sort.Strings(out)
	return out
}

// AccountTotal sums the forecast of code for year; year 0 sums all years.
func (g *Grid) AccountTotal(code string, year int) decimal.Decimal {
	total := decimal.Zero
	for k, c := range g.cells {
		if k.AccountCode != code {
			continue
		}
		if year != 0 && k.Period.Year != year {
			continue
		}
		total = total.Add(c.Forecast)
	}
	return total
}

// Clone returns an independent copy carrying the same revision.
func (g *Grid) Clone() *Grid {
	out := NewGridFromCells(g.Cells())
	out.revision = g.revision
	return out
}

// Restore replaces the grid content with a snapshot.
func (g *Grid) Restore(cells []domain.ForecastCell) {
	g.cells = make(map[domain.CellKey]domain.ForecastCell, len(cells))
	for _, c := range cells {
		g.cells[c.Key()] = copyCell(c)
	}
	g.touch()
}

func sortCells(cells []domain.ForecastCell) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].AccountCode != cells[j].AccountCode {
			return cells[i].AccountCode < cells[j].AccountCode
		}
		return cells[i].Period.Before(cells[j].Period)
	})
}
