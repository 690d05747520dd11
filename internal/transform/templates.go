package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
)

// TemplateRegistry manages built-in scenario templates
type TemplateRegistry struct {
	templates map[string]Template
}

// Template represents a named collection of transforms
type Template struct {
	Name        string
	Category    string
	Description string
	Transforms  []ScenarioTransform
}

// NewTemplateRegistry creates an empty template registry
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]Template),
	}
}

// Register adds a template to the registry
func (tr *TemplateRegistry) Register(t Template) {
	tr.templates[strings.ToLower(t.Name)] = t
}

// Get retrieves a template by name (case-insensitive)
func (tr *TemplateRegistry) Get(name string) (Template, bool) {
	t, ok := tr.templates[strings.ToLower(name)]
	return t, ok
}

// List returns all registered template names, sorted
func (tr *TemplateRegistry) List() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const (
	categoryPricing     = "Pricing & Volume"
	categoryCustomers   = "Customers & Retention"
	categorySeasonal    = "Seasonality & Promotions"
	categorySales       = "Sales Capacity"
	categoryCombination = "Combination Strategies"
)

var categoryOrder = []string{categoryPricing, categoryCustomers, categorySeasonal, categorySales, categoryCombination}

func pct(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func templateDriver(id, name string, params domain.DriverParameters) *AddDriver {
	return &AddDriver{Driver: domain.NewDriver("tpl-"+id, name, params)}
}

func seasonalDriver(id, name string, start, end domain.Month, params domain.DriverParameters) *AddDriver {
	ad := templateDriver(id, name, params)
	ad.Driver.StartMonth = start
	ad.Driver.EndMonth = end
	return ad
}

// CreateBuiltInTemplates creates the common revenue what-ifs, sized from a
// monthly base revenue. Unit counts assume an average price of 100.
func CreateBuiltInTemplates(baseRevenue decimal.Decimal) *TemplateRegistry {
	registry := NewTemplateRegistry()

	units := baseRevenue.Div(decimal.NewFromInt(100)).Round(0)
	customers := units

	priceIncrease := func() *AddDriver {
		return templateDriver("price_increase", "Price increase", domain.VolumePriceParams{
			BaseUnits:          units,
			BasePrice:          decimal.NewFromInt(100),
			PriceGrowthPercent: pct(5),
		})
	}
	volumeGrowth := func() *AddDriver {
		return templateDriver("volume_growth", "Volume growth", domain.VolumePriceParams{
			BaseUnits:           units,
			BasePrice:           decimal.NewFromInt(100),
			VolumeGrowthPercent: pct(10),
		})
	}
	churnReduction := func() *AddDriver {
		return templateDriver("churn_reduction", "Churn reduction", domain.RetentionParams{
			CurrentChurnRatePercent: pct(24),
			TargetChurnRatePercent:  pct(18),
			AverageCustomerCount:    customers,
			CurrentMRR:              baseRevenue,
		})
	}
	holidaySeason := func() *AddDriver {
		return templateDriver("holiday_season", "Holiday season", domain.SeasonalityParams{
			BaselineRevenue: baseRevenue,
			Multipliers: map[domain.Month]decimal.Decimal{
				domain.November: decimal.RequireFromString("1.15"),
				domain.December: decimal.RequireFromString("1.3"),
				domain.January:  decimal.RequireFromString("0.9"),
			},
		})
	}
	salesHiring := func() *AddDriver {
		return templateDriver("sales_hiring", "Sales hiring", domain.RepProductivityParams{
			CurrentReps:           10,
			NewHires:              2,
			RampTimeMonths:        3,
			QuotaPerRep:           baseRevenue.Div(decimal.NewFromInt(10)).Round(2),
			AttainmentRatePercent: pct(80),
		})
	}
	springPromo := func() *AddDriver {
		return seasonalDriver("spring_promo", "Spring promotion", domain.March, domain.May, domain.DiscountingParams{
			DiscountPercent:        pct(10),
			AffectedRevenuePercent: pct(30),
			VolumeLiftPercent:      pct(20),
			GrossMarginPercent:     pct(60),
		})
	}

	registry.Register(Template{
		Name:        "price_increase",
		Category:    categoryPricing,
		Description: "Raise unit price 5% over the year at flat volume",
		Transforms:  []ScenarioTransform{priceIncrease()},
	})

	registry.Register(Template{
		Name:        "volume_growth",
		Category:    categoryPricing,
		Description: "Grow unit volume 10% over the year at flat price",
		Transforms:  []ScenarioTransform{volumeGrowth()},
	})

	registry.Register(Template{
		Name:        "churn_reduction",
		Category:    categoryCustomers,
		Description: "Cut annual churn from 24% to 18%",
		Transforms:  []ScenarioTransform{churnReduction()},
	})

	registry.Register(Template{
		Name:        "holiday_season",
		Category:    categorySeasonal,
		Description: "Holiday peak: Nov x1.15, Dec x1.3, Jan x0.9 on base revenue",
		Transforms:  []ScenarioTransform{holidaySeason()},
	})

	registry.Register(Template{
		Name:        "spring_promo",
		Category:    categorySeasonal,
		Description: "10% discount on 30% of revenue March to May for a 20% volume lift",
		Transforms:  []ScenarioTransform{springPromo()},
	})

	registry.Register(Template{
		Name:        "sales_hiring",
		Category:    categorySales,
		Description: "Hire 2 reps with a 3 month ramp at 80% attainment",
		Transforms:  []ScenarioTransform{salesHiring()},
	})

	registry.Register(Template{
		Name:        "growth_push",
		Category:    categoryCombination,
		Description: "Price increase + volume growth + sales hiring",
		Transforms:  []ScenarioTransform{priceIncrease(), volumeGrowth(), salesHiring()},
	})

	registry.Register(Template{
		Name:        "retention_focus",
		Category:    categoryCombination,
		Description: "Churn reduction + holiday season",
		Transforms:  []ScenarioTransform{churnReduction(), holidaySeason()},
	})

	registry.Register(Template{
		Name:        "promo_calendar",
		Category:    categoryCombination,
		Description: "Spring promotion + holiday season",
		Transforms:  []ScenarioTransform{springPromo(), holidaySeason()},
	})

	return registry
}

func knownCategory(c string) bool {
	for _, known := range categoryOrder {
		if c == known {
			return true
		}
	}
	return false
}

// ApplyTemplate applies a template to a base scenario
func ApplyTemplate(base *domain.Scenario, template Template) (*domain.Scenario, error) {
	if len(template.Transforms) == 0 {
		return base.DeepCopy(), nil
	}
	result, err := ApplyTransforms(base, template.Transforms)
	if err != nil {
		return nil, err
	}
	result.Name = fmt.Sprintf("%s + %s", base.Name, template.Name)
	return result, nil
}

// ParseTemplateList parses a comma-separated list of template names
func ParseTemplateList(templateList string) []string {
	if templateList == "" {
		return nil
	}

	parts := strings.Split(templateList, ",")
	templates := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			templates = append(templates, trimmed)
		}
	}
	return templates
}

// GetTemplateHelp returns formatted help text for all templates
func GetTemplateHelp(registry *TemplateRegistry) string {
	if len(registry.templates) == 0 {
		return "No templates registered"
	}

	var sb strings.Builder
	sb.WriteString("Available Templates:\n\n")

	categories := make(map[string][]Template)
	for _, name := range registry.List() {
		t := registry.templates[name]
		category := t.Category
		if !knownCategory(category) {
			category = categoryCombination
		}
		categories[category] = append(categories[category], t)
	}

	for _, category := range categoryOrder {
		templates := categories[category]
		if len(templates) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("%s:\n", category))
		for _, t := range templates {
			sb.WriteString(fmt.Sprintf("  %-20s %s\n", t.Name, t.Description))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Usage:\n")
	sb.WriteString("  whatif compare workspace.yaml --with price_increase,holiday_season\n")
	sb.WriteString("  whatif compare workspace.yaml --with growth_push,retention_focus\n")

	return sb.String()
}
