package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
)

// AddDriver appends a driver to the scenario. An empty ID is filled with a
// new UUID and a zero SortOrder places the driver after the existing ones.
type AddDriver struct {
	Driver domain.Driver
}

func (ad *AddDriver) Name() string {
	return "add_driver"
}

func (ad *AddDriver) Description() string {
	return fmt.Sprintf("Add %s driver %q", ad.Driver.Type, ad.Driver.Name)
}

func (ad *AddDriver) Validate(base *domain.Scenario) error {
	if base == nil {
		return NewTransformError(ad.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if ad.Driver.Parameters == nil {
		return NewTransformError(ad.Name(), "validate", "driver has no parameters",
			&domain.MissingDriverTemplateError{DriverType: string(ad.Driver.Type)})
	}
	if ad.Driver.ID != "" && base.FindDriver(ad.Driver.ID) >= 0 {
		return NewTransformError(ad.Name(), "validate", fmt.Sprintf("driver %s already exists", ad.Driver.ID), nil)
	}
	return nil
}

func (ad *AddDriver) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()

	d := ad.Driver.Clone()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.Type = d.Parameters.DriverType()
	d.ScenarioID = modified.ID
	if d.SortOrder == 0 {
		d.SortOrder = nextSortOrder(modified)
	}

	modified.Drivers = append(modified.Drivers, d)
	return modified, nil
}

func nextSortOrder(s *domain.Scenario) int {
	highest := 0
	for _, d := range s.Drivers {
		if d.SortOrder > highest {
			highest = d.SortOrder
		}
	}
	return highest + 1
}

// UpdateDriver edits one driver. Params holds string values keyed by either
// a common field (name, start, end, active, sort) or a parameter field of
// the driver's type, e.g. "price_growth_percent=8". Funnel stages use
// "stages=MQL:50|SQL:20" and seasonality multipliers use month names.
type UpdateDriver struct {
	DriverID string
	Params   map[string]string
}

func (ud *UpdateDriver) Name() string {
	return "update_driver"
}

func (ud *UpdateDriver) Description() string {
	keys := sortedKeys(ud.Params)
	return fmt.Sprintf("Update driver %s (%s)", ud.DriverID, strings.Join(keys, ", "))
}

func (ud *UpdateDriver) Validate(base *domain.Scenario) error {
	if ud.DriverID == "" {
		return NewTransformError(ud.Name(), "validate", "driver id cannot be empty", nil)
	}
	if len(ud.Params) == 0 {
		return NewTransformError(ud.Name(), "validate", "no fields to update", nil)
	}
	if base == nil {
		return NewTransformError(ud.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if base.FindDriver(ud.DriverID) < 0 {
		return NewTransformError(ud.Name(), "validate", fmt.Sprintf("driver %s not found in scenario", ud.DriverID), nil)
	}
	return nil
}

func (ud *UpdateDriver) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	idx := modified.FindDriver(ud.DriverID)
	if idx < 0 {
		return nil, NewTransformError(ud.Name(), "apply", fmt.Sprintf("driver %s not found in scenario", ud.DriverID), nil)
	}

	updated, err := UpdateDriverFields(modified.Drivers[idx], ud.Params)
	if err != nil {
		return nil, NewTransformError(ud.Name(), "apply", "invalid update", err)
	}
	modified.Drivers[idx] = updated
	return modified, nil
}

// UpdateDriverFields returns a copy of d with the string-keyed fields
// applied. Unknown parameter keys are rejected.
func UpdateDriverFields(d domain.Driver, fields map[string]string) (domain.Driver, error) {
	out := d.Clone()
	raw := make(map[string]any)

	for key, value := range fields {
		switch key {
		case "name":
			out.Name = value
		case "start", "start_month":
			m, err := domain.ParseMonth(value)
			if err != nil {
				return domain.Driver{}, err
			}
			out.StartMonth = m
		case "end", "end_month":
			m, err := domain.ParseMonth(value)
			if err != nil {
				return domain.Driver{}, err
			}
			out.EndMonth = m
		case "active", "is_active":
			active, err := strconv.ParseBool(value)
			if err != nil {
				return domain.Driver{}, fmt.Errorf("invalid active value: %w", err)
			}
			out.IsActive = active
		case "sort", "sort_order":
			order, err := strconv.Atoi(value)
			if err != nil {
				return domain.Driver{}, fmt.Errorf("invalid sort order: %w", err)
			}
			out.SortOrder = order
		case "stages":
			stages, err := ParseFunnelStages(value)
			if err != nil {
				return domain.Driver{}, err
			}
			fp, ok := out.Parameters.(domain.FunnelParams)
			if !ok {
				return domain.Driver{}, fmt.Errorf("stages only apply to funnel drivers")
			}
			fp.Stages = stages
			out.Parameters = fp
		default:
			if m, err := domain.ParseMonth(key); err == nil {
				if err := setMultiplier(&out, m, value); err != nil {
					return domain.Driver{}, err
				}
				continue
			}
			raw[key] = value
		}
	}

	if len(raw) > 0 {
		params, err := domain.MergeParameters(out.Parameters, raw)
		if err != nil {
			return domain.Driver{}, err
		}
		out.Parameters = params
	}
	return out, nil
}

func setMultiplier(d *domain.Driver, m domain.Month, value string) error {
	p, ok := d.Parameters.(domain.SeasonalityParams)
	if !ok {
		return fmt.Errorf("month key %s only applies to seasonality drivers", m)
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("invalid multiplier for %s: %w", m, err)
	}
	if p.Multipliers == nil {
		p.Multipliers = make(map[domain.Month]decimal.Decimal)
	}
	p.Multipliers[m] = v
	d.Parameters = p
	return nil
}

// ParseFunnelStages parses "Name:rate|Name:rate" into funnel stages.
func ParseFunnelStages(s string) ([]domain.FunnelStage, error) {
	var stages []domain.FunnelStage
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid stage format, expected 'name:rate', got: %s", part)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid conversion rate for stage %s: %w", kv[0], err)
		}
		stages = append(stages, domain.FunnelStage{
			Name:                  strings.TrimSpace(kv[0]),
			ConversionRatePercent: rate,
		})
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("no funnel stages in %q", s)
	}
	return stages, nil
}

// RemoveDriver deletes a driver from the scenario.
type RemoveDriver struct {
	DriverID string
}

func (rd *RemoveDriver) Name() string {
	return "remove_driver"
}

func (rd *RemoveDriver) Description() string {
	return fmt.Sprintf("Remove driver %s", rd.DriverID)
}

func (rd *RemoveDriver) Validate(base *domain.Scenario) error {
	if base == nil {
		return NewTransformError(rd.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if base.FindDriver(rd.DriverID) < 0 {
		return NewTransformError(rd.Name(), "validate", fmt.Sprintf("driver %s not found in scenario", rd.DriverID), nil)
	}
	return nil
}

func (rd *RemoveDriver) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	idx := modified.FindDriver(rd.DriverID)
	if idx < 0 {
		return nil, NewTransformError(rd.Name(), "apply", fmt.Sprintf("driver %s not found in scenario", rd.DriverID), nil)
	}
	modified.Drivers = append(modified.Drivers[:idx], modified.Drivers[idx+1:]...)
	return modified, nil
}

// SetDriverActive switches a driver on or off without removing it.
type SetDriverActive struct {
	DriverID string
	Active   bool
}

func (sa *SetDriverActive) Name() string {
	return "set_driver_active"
}

func (sa *SetDriverActive) Description() string {
	if sa.Active {
		return fmt.Sprintf("Activate driver %s", sa.DriverID)
	}
	return fmt.Sprintf("Deactivate driver %s", sa.DriverID)
}

func (sa *SetDriverActive) Validate(base *domain.Scenario) error {
	if base == nil {
		return NewTransformError(sa.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if base.FindDriver(sa.DriverID) < 0 {
		return NewTransformError(sa.Name(), "validate", fmt.Sprintf("driver %s not found in scenario", sa.DriverID), nil)
	}
	return nil
}

func (sa *SetDriverActive) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	idx := modified.FindDriver(sa.DriverID)
	if idx < 0 {
		return nil, NewTransformError(sa.Name(), "apply", fmt.Sprintf("driver %s not found in scenario", sa.DriverID), nil)
	}
	modified.Drivers[idx].IsActive = sa.Active
	return modified, nil
}

// SetBaseRevenue replaces the scenario's monthly base revenue.
type SetBaseRevenue struct {
	Amount decimal.Decimal
}

func (sb *SetBaseRevenue) Name() string {
	return "set_base_revenue"
}

func (sb *SetBaseRevenue) Description() string {
	return fmt.Sprintf("Set monthly base revenue to %s", sb.Amount.StringFixed(2))
}

func (sb *SetBaseRevenue) Validate(base *domain.Scenario) error {
	if base == nil {
		return NewTransformError(sb.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if sb.Amount.IsNegative() {
		return NewTransformError(sb.Name(), "validate", fmt.Sprintf("base revenue must be non-negative, got %s", sb.Amount), nil)
	}
	return nil
}

func (sb *SetBaseRevenue) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	modified.BaseRevenue = sb.Amount
	return modified, nil
}
