// Package compare runs a base scenario against alternatives, either other
// workspace scenarios or built-in templates applied to the base.
package compare

import (
	"fmt"

	"github.com/rgehrsitz/whatif/internal/calculation"
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/rgehrsitz/whatif/internal/transform"
)

// CompareEngine orchestrates scenario comparison
type CompareEngine struct {
	CalcEngine        *calculation.CalculationEngine
	MetricsCalculator *MetricsCalculator
	// TemplateRegistry overrides the built-in templates when set.
	TemplateRegistry *transform.TemplateRegistry
}

// NewCompareEngine creates a new comparison engine
func NewCompareEngine(calcEngine *calculation.CalculationEngine) *CompareEngine {
	if calcEngine == nil {
		calcEngine = calculation.NewCalculationEngine()
	}
	return &CompareEngine{
		CalcEngine:        calcEngine,
		MetricsCalculator: NewMetricsCalculator(),
	}
}

// CompareOptions configures comparison behavior
type CompareOptions struct {
	BaseScenarioName string   // Name or ID of the base scenario to compare against
	Templates        []string // List of template names to apply
}

func (ce *CompareEngine) run(scenario *domain.Scenario) (ComparisonResult, error) {
	summary, err := ce.CalcEngine.RunScenario(scenario)
	if err != nil {
		return ComparisonResult{}, err
	}
	return ce.MetricsCalculator.CalculateMetrics(scenario, summary), nil
}

// Compare applies each template to the base scenario and compares the
// results with the unmodified base.
func (ce *CompareEngine) Compare(ws *domain.Workspace, options CompareOptions) (*ComparisonSet, error) {
	baseScenario, ok := ws.FindScenario(options.BaseScenarioName)
	if !ok {
		return nil, fmt.Errorf("base scenario %s not found in workspace", options.BaseScenarioName)
	}

	registry := ce.TemplateRegistry
	if registry == nil {
		// Template sizing follows the base revenue of the scenario compared.
		registry = transform.CreateBuiltInTemplates(baseScenario.BaseRevenue)
	}

	baseResult, err := ce.run(baseScenario)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate base scenario: %w", err)
	}

	alternatives := []ComparisonResult{}
	for _, templateName := range options.Templates {
		template, ok := registry.Get(templateName)
		if !ok {
			return nil, fmt.Errorf("template %s not found", templateName)
		}

		modified, err := transform.ApplyTemplate(baseScenario, template)
		if err != nil {
			return nil, fmt.Errorf("failed to apply template %s: %w", templateName, err)
		}

		altResult, err := ce.run(modified)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate scenario %s: %w", templateName, err)
		}
		altResult.Description = template.Description
		alternatives = append(alternatives, ce.MetricsCalculator.CalculateComparison(altResult, baseResult))
	}

	compSet := &ComparisonSet{
		BaseScenarioName:   baseScenario.Name,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
	}
	compSet.Recommendations = GenerateRecommendations(compSet)
	return compSet, nil
}

// CompareScenarios compares explicit scenarios (not using templates)
func (ce *CompareEngine) CompareScenarios(ws *domain.Workspace, baseScenarioName string, alternativeScenarioNames []string) (*ComparisonSet, error) {
	baseScenario, ok := ws.FindScenario(baseScenarioName)
	if !ok {
		return nil, fmt.Errorf("base scenario %s not found", baseScenarioName)
	}
	baseResult, err := ce.run(baseScenario)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate base scenario: %w", err)
	}

	alternatives := []ComparisonResult{}
	for _, altName := range alternativeScenarioNames {
		alt, ok := ws.FindScenario(altName)
		if !ok {
			return nil, fmt.Errorf("alternative scenario %s not found", altName)
		}
		altResult, err := ce.run(alt)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate scenario %s: %w", altName, err)
		}
		alternatives = append(alternatives, ce.MetricsCalculator.CalculateComparison(altResult, baseResult))
	}

	compSet := &ComparisonSet{
		BaseScenarioName:   baseScenario.Name,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
	}
	compSet.Recommendations = GenerateRecommendations(compSet)
	return compSet, nil
}
