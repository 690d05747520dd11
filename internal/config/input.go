// Package config loads the workspace input document and the application
// settings.
package config

import (
	"fmt"
	"os"

	"github.com/rgehrsitz/whatif/internal/adjustment"
	"github.com/rgehrsitz/whatif/internal/calculation"
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/rgehrsitz/whatif/internal/forecast"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of workspace files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a workspace from a YAML (or JSON) file and validates it.
func (ip *InputParser) LoadFromFile(filename string) (*domain.Workspace, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates a workspace document.
func (ip *InputParser) Parse(data []byte) (*domain.Workspace, error) {
	var ws domain.Workspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	ApplyDefaults(&ws)

	if err := ip.ValidateWorkspace(&ws); err != nil {
		return nil, fmt.Errorf("workspace validation failed: %w", err)
	}

	return &ws, nil
}

// ValidateWorkspace collects every problem in the workspace and returns them
// together as a *domain.ValidationError.
func (ip *InputParser) ValidateWorkspace(ws *domain.Workspace) error {
	if ws == nil {
		return domain.NewValidationError([]string{"workspace is required"})
	}

	var msgs []string
	if ws.Year <= 0 {
		msgs = append(msgs, "workspace year is required")
	}
	if _, err := adjustment.ParseMode(ws.AdjustmentMode); err != nil {
		msgs = append(msgs, err.Error())
	}

	msgs = append(msgs, ip.validateAccounts(ws)...)
	msgs = append(msgs, ip.validateActuals(ws)...)
	msgs = append(msgs, ip.validateScenarios(ws)...)
	msgs = append(msgs, ip.validateAdjustments(ws)...)
	msgs = append(msgs, ip.validateEmployees(ws)...)

	return domain.NewValidationError(msgs)
}

// validateAccounts checks account codes are present and unique per year
func (ip *InputParser) validateAccounts(ws *domain.Workspace) []string {
	var msgs []string
	type accountYear struct {
		code string
		year int
	}
	seen := make(map[accountYear]bool, len(ws.Accounts))

	for i, a := range ws.Accounts {
		label := fmt.Sprintf("account %d", i)
		if a.Code == "" {
			msgs = append(msgs, label+": code is required")
			continue
		}
		label = fmt.Sprintf("account %s", a.Code)

		key := accountYear{a.Code, yearOr(a.Year, ws.Year)}
		if seen[key] {
			msgs = append(msgs, fmt.Sprintf("%s: duplicate forecast for %d", label, key.year))
		}
		seen[key] = true

		for m := range a.Months {
			if !m.Valid() {
				msgs = append(msgs, fmt.Sprintf("%s: month %d is not a calendar month", label, int(m)))
			}
		}
	}
	return msgs
}

// validateActuals checks actuals point at seeded accounts and real months
func (ip *InputParser) validateActuals(ws *domain.Workspace) []string {
	var msgs []string
	for i, a := range ws.Actuals {
		label := fmt.Sprintf("actual %d", i)
		if !ws.HasAccount(a.AccountCode) {
			msgs = append(msgs, fmt.Sprintf("%s: unknown account %q", label, a.AccountCode))
		}
		if !a.Month.Valid() {
			msgs = append(msgs, fmt.Sprintf("%s: month %d is not a calendar month", label, int(a.Month)))
		}
	}
	return msgs
}

// validateScenarios runs the calculation validation for every scenario
func (ip *InputParser) validateScenarios(ws *domain.Workspace) []string {
	var msgs []string
	seen := make(map[string]bool, len(ws.Scenarios))

	for i := range ws.Scenarios {
		s := &ws.Scenarios[i]
		label := fmt.Sprintf("scenario %d (%s)", i, s.Name)
		if s.ID != "" {
			if seen[s.ID] {
				msgs = append(msgs, label+": duplicate scenario id")
			}
			seen[s.ID] = true
		}
		for _, m := range calculation.ValidateScenario(s) {
			msgs = append(msgs, label+": "+m)
		}
	}
	return msgs
}

// validateAdjustments checks adjustment definitions and their accounts
func (ip *InputParser) validateAdjustments(ws *domain.Workspace) []string {
	var msgs []string
	for i, adj := range ws.Adjustments {
		label := fmt.Sprintf("adjustment %d (%s)", i, adj.Name)
		for _, m := range adjustment.ValidateAdjustment(adj) {
			msgs = append(msgs, label+": "+m)
		}
		if adj.AccountCode != "" && !ws.HasAccount(adj.AccountCode) {
			msgs = append(msgs, fmt.Sprintf("%s: unknown account %q", label, adj.AccountCode))
		}
		if adj.SourceScenarioID != "" {
			if _, ok := ws.FindScenario(adj.SourceScenarioID); !ok {
				msgs = append(msgs, fmt.Sprintf("%s: unknown source scenario %q", label, adj.SourceScenarioID))
			}
		}
	}
	return msgs
}

// validateEmployees checks the payroll inputs of each employee
func (ip *InputParser) validateEmployees(ws *domain.Workspace) []string {
	var msgs []string
	seen := make(map[string]bool, len(ws.Employees))

	for i, e := range ws.Employees {
		label := fmt.Sprintf("employee %d", i)
		if e.ID == "" {
			msgs = append(msgs, label+": id is required")
		} else {
			label = fmt.Sprintf("employee %s", e.ID)
			if seen[e.ID] {
				msgs = append(msgs, label+": duplicate employee id")
			}
			seen[e.ID] = true
		}

		switch e.PayType {
		case domain.PaySalaried, "":
			if !e.AnnualSalary.IsPositive() {
				msgs = append(msgs, label+": annual salary must be positive")
			}
		case domain.PayHourly:
			if !e.HourlyRate.IsPositive() {
				msgs = append(msgs, label+": hourly rate must be positive")
			}
			if !e.HoursPerPeriod.IsPositive() {
				msgs = append(msgs, label+": hours per period must be positive")
			}
		default:
			msgs = append(msgs, fmt.Sprintf("%s: pay type must be 'salaried' or 'hourly', got %q", label, e.PayType))
		}

		if e.YTDWages.IsNegative() {
			msgs = append(msgs, label+": YTD wages cannot be negative")
		}
		if e.AccountCode != "" && !ws.HasAccount(e.AccountCode) {
			msgs = append(msgs, fmt.Sprintf("%s: unknown account %q", label, e.AccountCode))
		}
	}
	return msgs
}

// ApplyDefaults fills fields a workspace file may omit: scenarios start in
// the workspace year and drivers carry their scenario's ID.
func ApplyDefaults(ws *domain.Workspace) {
	for i := range ws.Scenarios {
		s := &ws.Scenarios[i]
		if s.StartYear == 0 {
			s.StartYear = ws.Year
		}
		for j := range s.Drivers {
			if s.Drivers[j].ScenarioID == "" {
				s.Drivers[j].ScenarioID = s.ID
			}
		}
	}
}

func yearOr(year, fallback int) int {
	if year == 0 {
		return fallback
	}
	return year
}

// BuildGrid seeds a forecast grid from the workspace accounts and locks the
// cells that have actuals.
func BuildGrid(ws *domain.Workspace) *forecast.Grid {
	g := forecast.NewGrid()
	for _, a := range ws.Accounts {
		year := yearOr(a.Year, ws.Year)
		for _, m := range domain.AllMonths() {
			// Fresh grid: no cell is locked yet.
			_ = g.SetForecast(a.Code, domain.NewMonthYear(year, m), a.Amount(m))
		}
	}
	for _, act := range ws.Actuals {
		g.RecordActual(act.AccountCode, domain.NewMonthYear(yearOr(act.Year, ws.Year), act.Month), act.Amount)
	}
	return g
}
