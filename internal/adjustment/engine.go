// Package adjustment writes percentage and fixed adjustments into the
// forecast grid and reverses them again.
package adjustment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/rgehrsitz/whatif/internal/forecast"
	"github.com/rgehrsitz/whatif/internal/logging"
	"github.com/shopspring/decimal"
)

// Mode selects how active adjustments combine on a cell.
type Mode string

const (
	// ModeInPlace rewrites cells on apply and divides or subtracts on
	// reverse. Reversal is exact for a single adjustment per cell only.
	ModeInPlace Mode = "in_place"
	// ModeLayered keeps each touched cell's pre-adjustment value and
	// recomputes it from the active adjustments in application order. Writes
	// made to the grid between steps are folded into the baseline.
	ModeLayered Mode = "layered"
)

// ParseMode accepts "in_place" (or "") and "layered".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeInPlace, "inplace", "in-place":
		return ModeInPlace, nil
	case ModeLayered:
		return ModeLayered, nil
	}
	return "", fmt.Errorf("unknown adjustment mode %q", s)
}

// Result reports what one lifecycle step did to the grid.
type Result struct {
	AdjustmentID string                 `json:"adjustment_id"`
	State        domain.AdjustmentState `json:"state"`
	CellsWritten int                    `json:"cells_written"`
	LockedSkips  int                    `json:"locked_skips"`
}

// Engine owns adjustment definitions and their lifecycle. The grid is passed
// to every step that writes.
type Engine struct {
	Mode   Mode
	Logger logging.Logger
	Actor  string

	adjustments map[string]*domain.AppliedAdjustment
	order       []string
	layers      map[domain.CellKey]*layer
	now         func() time.Time
}

// NewEngine creates an adjustment engine in the given mode.
func NewEngine(mode Mode) *Engine {
	if mode == "" {
		mode = ModeInPlace
	}
	return &Engine{
		Mode:        mode,
		Logger:      logging.NopLogger{},
		adjustments: make(map[string]*domain.AppliedAdjustment),
		layers:      make(map[domain.CellKey]*layer),
		now:         time.Now,
	}
}

// SetLogger replaces the engine logger; nil installs a no-op logger.
func (e *Engine) SetLogger(l logging.Logger) {
	e.Logger = logging.OrNop(l)
}

func (e *Engine) log() logging.Logger {
	return logging.OrNop(e.Logger)
}

// Add registers a draft adjustment and returns it with its ID filled in.
// Nothing is written to the grid until Apply.
func (e *Engine) Add(adj domain.AppliedAdjustment) (domain.AppliedAdjustment, error) {
	if err := domain.NewValidationError(ValidateAdjustment(adj)); err != nil {
		return domain.AppliedAdjustment{}, err
	}
	if adj.ID == "" {
		adj.ID = uuid.NewString()
	}
	if _, exists := e.adjustments[adj.ID]; exists {
		return domain.AppliedAdjustment{}, fmt.Errorf("adjustment %s already exists", adj.ID)
	}

	now := e.now()
	adj.State = domain.StateDraft
	adj.IsActive = false
	adj.CreatedAt = now
	adj.UpdatedAt = now
	if adj.CreatedBy == "" {
		adj.CreatedBy = e.Actor
	}

	stored := adj
	e.adjustments[adj.ID] = &stored
	e.order = append(e.order, adj.ID)
	return stored, nil
}

// Load registers saved adjustments in order and applies the ones marked
// active, as when a workspace is opened.
func (e *Engine) Load(g *forecast.Grid, adjs []domain.AppliedAdjustment) ([]Result, error) {
	var results []Result
	for _, adj := range adjs {
		wasActive := adj.IsActive || adj.State == domain.StateActive
		added, err := e.Add(adj)
		if err != nil {
			return results, fmt.Errorf("adjustment %q: %w", adj.Name, err)
		}
		if !wasActive {
			continue
		}
		res, err := e.Apply(g, added.ID)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Get returns the adjustment with id.
func (e *Engine) Get(id string) (domain.AppliedAdjustment, bool) {
	adj, ok := e.adjustments[id]
	if !ok {
		return domain.AppliedAdjustment{}, false
	}
	return *adj, true
}

// List returns every adjustment in application order.
func (e *Engine) List() []domain.AppliedAdjustment {
	out := make([]domain.AppliedAdjustment, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, *e.adjustments[id])
	}
	return out
}

func (e *Engine) lookup(id string) (*domain.AppliedAdjustment, error) {
	adj, ok := e.adjustments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return adj, nil
}

func (e *Engine) stamp(adj *domain.AppliedAdjustment, state domain.AdjustmentState) {
	adj.State = state
	adj.IsActive = state == domain.StateActive
	adj.UpdatedAt = e.now()
	if e.Actor != "" {
		adj.UpdatedBy = e.Actor
	}
}

// Apply writes a draft or inactive adjustment into the grid and marks it
// active. Locked cells are skipped.
func (e *Engine) Apply(g *forecast.Grid, id string) (Result, error) {
	if g == nil {
		return Result{}, ErrNilGrid
	}
	adj, err := e.lookup(id)
	if err != nil {
		return Result{}, err
	}
	if adj.State == domain.StateActive {
		return Result{}, &TransitionError{ID: id, From: string(adj.State), Action: "apply"}
	}

	var written int
	if e.Mode == ModeLayered {
		e.stamp(adj, domain.StateActive)
		written = e.recompute(g, forecast.Covered(*adj))
	} else {
		written = ApplyTo(g, *adj)
		e.stamp(adj, domain.StateActive)
	}

	res := e.result(g, *adj, written)
	e.log().Infof("applied adjustment %s (%s %s on %s %s): %d cells, %d locked skipped",
		adj.ID, adj.Type, adj.Value, adj.AccountCode, adj.Window(), res.CellsWritten, res.LockedSkips)
	return res, nil
}

// Reactivate re-applies an inactive adjustment with its current definition.
func (e *Engine) Reactivate(g *forecast.Grid, id string) (Result, error) {
	adj, err := e.lookup(id)
	if err != nil {
		return Result{}, err
	}
	if adj.State != domain.StateInactive {
		return Result{}, &TransitionError{ID: id, From: string(adj.State), Action: "reactivate"}
	}
	return e.Apply(g, id)
}

// Deactivate reverses an active adjustment's effect on every still-unlocked
// cell and keeps the definition.
func (e *Engine) Deactivate(g *forecast.Grid, id string) (Result, error) {
	if g == nil {
		return Result{}, ErrNilGrid
	}
	adj, err := e.lookup(id)
	if err != nil {
		return Result{}, err
	}
	if adj.State != domain.StateActive {
		return Result{}, &TransitionError{ID: id, From: string(adj.State), Action: "deactivate"}
	}

	written := e.reverse(g, adj)
	res := e.result(g, *adj, written)
	e.log().Infof("deactivated adjustment %s: %d cells restored", adj.ID, written)
	return res, nil
}

func (e *Engine) reverse(g *forecast.Grid, adj *domain.AppliedAdjustment) int {
	if e.Mode == ModeLayered {
		e.stamp(adj, domain.StateInactive)
		return e.recompute(g, forecast.Covered(*adj))
	}
	written := ReverseFrom(g, *adj)
	e.stamp(adj, domain.StateInactive)
	return written
}

// Edit replaces an adjustment's definition. An active adjustment is first
// reversed with its old definition and then applied with the new one.
func (e *Engine) Edit(g *forecast.Grid, id string, updated domain.AppliedAdjustment) (Result, error) {
	adj, err := e.lookup(id)
	if err != nil {
		return Result{}, err
	}
	if adj.State == domain.StateRemoved {
		return Result{}, &TransitionError{ID: id, From: string(adj.State), Action: "edit"}
	}
	if err := domain.NewValidationError(ValidateAdjustment(updated)); err != nil {
		return Result{}, err
	}

	updated.ID = adj.ID
	updated.Audit.CreatedAt = adj.CreatedAt
	updated.Audit.CreatedBy = adj.CreatedBy
	updated.State = adj.State
	updated.IsActive = adj.IsActive

	if adj.State != domain.StateActive {
		*adj = updated
		e.stamp(adj, updated.State)
		return Result{AdjustmentID: id, State: adj.State}, nil
	}
	if g == nil {
		return Result{}, ErrNilGrid
	}

	old := *adj
	var written int
	if e.Mode == ModeLayered {
		*adj = updated
		e.stamp(adj, domain.StateActive)
		written = e.recompute(g, func(c domain.ForecastCell) bool {
			return forecast.Covered(old)(c) || forecast.Covered(*adj)(c)
		})
	} else {
		reversed := ReverseFrom(g, old)
		*adj = updated
		written = reversed + ApplyTo(g, *adj)
		e.stamp(adj, domain.StateActive)
	}

	e.log().Infof("edited active adjustment %s: %s %s -> %s %s",
		id, old.Type, old.Value, adj.Type, adj.Value)
	return e.result(g, *adj, written), nil
}

// Remove deletes an adjustment, reversing it first when active.
func (e *Engine) Remove(g *forecast.Grid, id string) (Result, error) {
	adj, err := e.lookup(id)
	if err != nil {
		return Result{}, err
	}

	var written int
	if adj.State == domain.StateActive {
		if g == nil {
			return Result{}, ErrNilGrid
		}
		written = e.reverse(g, adj)
	}
	e.stamp(adj, domain.StateRemoved)

	delete(e.adjustments, id)
	for i, existing := range e.order {
		if existing == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}

	e.log().Infof("removed adjustment %s", id)
	return Result{AdjustmentID: id, State: domain.StateRemoved, CellsWritten: written}, nil
}

func (e *Engine) result(g *forecast.Grid, adj domain.AppliedAdjustment, written int) Result {
	locked := 0
	for _, c := range g.Cells() {
		if c.Locked() && forecast.Covered(adj)(c) {
			locked++
		}
	}
	return Result{AdjustmentID: adj.ID, State: adj.State, CellsWritten: written, LockedSkips: locked}
}

// layer is the layered-mode bookkeeping for one cell: the value before any
// active adjustment, the adjustments stacked on it and what the engine last
// wrote.
type layer struct {
	base    decimal.Decimal
	applied []domain.AppliedAdjustment
	written decimal.Decimal
}

// rebase folds an outside write into the baseline by peeling the stacked
// adjustments off the current value, newest first.
func (l *layer) rebase(current decimal.Decimal) {
	if current.Equal(l.written) {
		return
	}
	value := current
	for i := len(l.applied) - 1; i >= 0; i-- {
		value = Inverse(l.applied[i])(value)
	}
	l.base = value
}

// recompute rebuilds every unlocked cell matching pred from its baseline and
// the active adjustments in application order. A cell no active adjustment
// covers keeps its value and drops its baseline.
func (e *Engine) recompute(g *forecast.Grid, pred forecast.Predicate) int {
	cells := g.Select(pred)
	for _, c := range cells {
		key := c.Key()
		l, ok := e.layers[key]
		if ok {
			l.rebase(c.Forecast)
		} else {
			l = &layer{base: c.Forecast}
		}

		value := l.base
		var applied []domain.AppliedAdjustment
		for _, id := range e.order {
			adj := e.adjustments[id]
			if adj.State != domain.StateActive || !forecast.Covered(*adj)(c) {
				continue
			}
			value = Forward(*adj)(value)
			applied = append(applied, *adj)
		}

		if err := g.SetForecast(c.AccountCode, c.Period, value); err != nil {
			e.log().Warnf("recompute %s: %v", key, err)
			continue
		}
		if len(applied) == 0 {
			delete(e.layers, key)
			continue
		}
		l.applied = applied
		l.written = value
		e.layers[key] = l
	}
	return len(cells)
}

// Forward returns the transform that applies adj to an amount.
func Forward(adj domain.AppliedAdjustment) forecast.Transform {
	if adj.Type == domain.AdjustmentPercentage {
		return forecast.Scale(adj.Value)
	}
	return forecast.Shift(adj.Value)
}

// Inverse returns the transform that undoes Forward(adj).
func Inverse(adj domain.AppliedAdjustment) forecast.Transform {
	if adj.Type == domain.AdjustmentPercentage {
		return forecast.Unscale(adj.Value)
	}
	return forecast.Unshift(adj.Value)
}

// ApplyTo writes adj into every unlocked covered cell of g and returns the
// number of cells written.
func ApplyTo(g *forecast.Grid, adj domain.AppliedAdjustment) int {
	return g.BulkApply(forecast.Covered(adj), Forward(adj))
}

// ReverseFrom undoes ApplyTo on every unlocked covered cell of g.
func ReverseFrom(g *forecast.Grid, adj domain.AppliedAdjustment) int {
	return g.BulkApply(forecast.Covered(adj), Inverse(adj))
}
