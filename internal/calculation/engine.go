package calculation

import (
	"errors"
	"fmt"

	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/rgehrsitz/whatif/internal/logging"
	"github.com/shopspring/decimal"
)

// CalculationEngine turns scenarios into monthly impact curves.
type CalculationEngine struct {
	Logger logging.Logger
	Debug  bool // Log every driver evaluation
}

// NewCalculationEngine creates a new calculation engine
func NewCalculationEngine() *CalculationEngine {
	return &CalculationEngine{Logger: logging.NopLogger{}}
}

// SetLogger replaces the engine logger; nil installs a no-op logger.
func (ce *CalculationEngine) SetLogger(l logging.Logger) {
	ce.Logger = logging.OrNop(l)
}

// CalculateImpacts evaluates every driver for each of the twelve calendar
// months of the scenario's start year. It never mutates the scenario.
//
// Driver-level parameter problems resolve to a zero impact so one malformed
// driver cannot abort the scenario; an unknown driver type is returned.
func (ce *CalculationEngine) CalculateImpacts(scenario *domain.Scenario) ([]domain.MonthlyImpact, error) {
	if scenario == nil {
		return nil, fmt.Errorf("scenario cannot be nil")
	}
	logger := logging.OrNop(ce.Logger)

	ctx := DriverContext{BaseRevenue: scenario.BaseRevenue}
	impacts := make([]domain.MonthlyImpact, 0, domain.MonthsPerYear)

	for monthIndex, month := range domain.AllMonths() {
		total := decimal.Zero
		breakdown := make([]domain.DriverImpact, 0, len(scenario.Drivers))

		for _, driver := range scenario.Drivers {
			impact, err := CalculateDriverImpact(driver, ctx, month, monthIndex)
			if err != nil {
				var invalid *domain.InvalidParameterError
				if !errors.As(err, &invalid) {
					return nil, fmt.Errorf("scenario %s driver %s: %w", scenario.Name, driver.ID, err)
				}
				logger.Debugf("driver %s (%s) neutralised in %s: %v", driver.ID, driver.Type, month, err)
				impact = decimal.Zero
			}

			if ce.Debug {
				logger.Debugf("%s %s driver=%s impact=%s", scenario.Name, month, driver.ID, impact.StringFixed(2))
			}

			if impact.IsZero() {
				continue
			}
			total = total.Add(impact)
			breakdown = append(breakdown, domain.DriverImpact{
				DriverID:   driver.ID,
				DriverName: driver.Name,
				DriverType: driver.Type,
				Impact:     impact,
			})
		}

		impacts = append(impacts, domain.MonthlyImpact{
			Month:       month,
			Year:        scenario.StartYear,
			TotalImpact: total,
			// Reported downstream as "final revenue"; it is the impact total,
			// not base revenue plus impact.
			FinalRevenue:    total,
			DriverBreakdown: breakdown,
		})
	}

	return impacts, nil
}

// RunScenario validates the scenario, calculates its impacts and summarises
// them. Validation problems are returned together as *domain.ValidationError.
func (ce *CalculationEngine) RunScenario(scenario *domain.Scenario) (*domain.ScenarioSummary, error) {
	if scenario == nil {
		return nil, fmt.Errorf("scenario cannot be nil")
	}
	if err := domain.NewValidationError(ValidateScenario(scenario)); err != nil {
		return nil, err
	}

	impacts, err := ce.CalculateImpacts(scenario)
	if err != nil {
		return nil, err
	}

	summary := Summarize(scenario, impacts)
	logging.OrNop(ce.Logger).Infof("scenario %s: %d drivers, annual impact %s",
		scenario.Name, len(scenario.Drivers), summary.TotalImpact.StringFixed(2))
	return summary, nil
}

// Summarize condenses an impact curve into annual figures. Growth percent is
// the annual impact over twelve months of base revenue (zero when the base
// is zero).
func Summarize(scenario *domain.Scenario, impacts []domain.MonthlyImpact) *domain.ScenarioSummary {
	summary := &domain.ScenarioSummary{
		ScenarioID:        scenario.ID,
		ScenarioName:      scenario.Name,
		AnnualBaseRevenue: scenario.BaseRevenue.Mul(monthsPerYear),
		Impacts:           impacts,
	}

	driverTotals := make(map[string]decimal.Decimal)
	for i, mi := range impacts {
		summary.TotalImpact = summary.TotalImpact.Add(mi.TotalImpact)
		if i == 0 || mi.TotalImpact.GreaterThan(summary.PeakImpact) {
			summary.PeakImpact = mi.TotalImpact
			summary.PeakMonth = mi.Month
		}
		for _, di := range mi.DriverBreakdown {
			driverTotals[di.DriverID] = driverTotals[di.DriverID].Add(di.Impact)
		}
	}

	if len(impacts) > 0 {
		summary.AverageImpact = summary.TotalImpact.Div(decimal.NewFromInt(int64(len(impacts))))
	}
	if summary.AnnualBaseRevenue.IsPositive() {
		summary.GrowthPercent = summary.TotalImpact.Div(summary.AnnualBaseRevenue).Mul(hundred)
	}

	for _, d := range scenario.SortedDrivers() {
		total, ok := driverTotals[d.ID]
		if !ok {
			continue
		}
		summary.DriverTotals = append(summary.DriverTotals, domain.DriverImpact{
			DriverID:   d.ID,
			DriverName: d.Name,
			DriverType: d.Type,
			Impact:     total,
		})
	}

	return summary
}
