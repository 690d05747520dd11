package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rgehrsitz/whatif/internal/domain"
)

// DriverTemplate describes one driver type and the parameter values a new
// driver of that type starts from.
type DriverTemplate struct {
	Type        domain.DriverType
	Label       string
	Description string
	Defaults    map[string]string
}

// DriverRegistry builds drivers from templates and "type:key=value" specs.
type DriverRegistry struct {
	templates map[domain.DriverType]DriverTemplate
}

// NewDriverRegistry returns a registry holding a template for every driver
// type.
func NewDriverRegistry() *DriverRegistry {
	r := &DriverRegistry{templates: make(map[domain.DriverType]DriverTemplate)}

	r.Register(DriverTemplate{
		Type:        domain.DriverVolumePrice,
		Label:       "Volume & Price",
		Description: "Unit volume and unit price growth ramped over the year",
		Defaults: map[string]string{
			"base_units":            "1000",
			"base_price":            "100",
			"volume_growth_percent": "10",
			"price_growth_percent":  "5",
		},
	})
	r.Register(DriverTemplate{
		Type:        domain.DriverCAC,
		Label:       "Customer Acquisition",
		Description: "New customers from marketing spend, ramped over the payback period",
		Defaults: map[string]string{
			"marketing_spend_monthly":      "50000",
			"customers_acquired":           "100",
			"average_revenue_per_customer": "500",
			"cac_payback_months":           "12",
		},
	})
	r.Register(DriverTemplate{
		Type:        domain.DriverRetention,
		Label:       "Retention",
		Description: "Revenue kept by lowering the annual churn rate",
		Defaults: map[string]string{
			"current_churn_rate_percent": "24",
			"target_churn_rate_percent":  "18",
			"average_customer_count":     "1000",
			"current_mrr":                "100000",
		},
	})
	r.Register(DriverTemplate{
		Type:        domain.DriverFunnel,
		Label:       "Sales Funnel",
		Description: "Leads converted through funnel stages into closed deals",
		Defaults: map[string]string{
			"leads_per_month":    "1000",
			"average_deal_size":  "5000",
			"sales_cycle_months": "3",
			"stages":             "MQL:50|SQL:40|Won:25",
		},
	})
	r.Register(DriverTemplate{
		Type:        domain.DriverSeasonality,
		Label:       "Seasonality",
		Description: "Per-month multipliers on a baseline; unset months are neutral",
		Defaults: map[string]string{
			"baseline_revenue": "100000",
		},
	})
	r.Register(DriverTemplate{
		Type:        domain.DriverContract,
		Label:       "Contract Renewals",
		Description: "Renewal and expansion revenue at contract boundaries",
		Defaults: map[string]string{
			"new_arr":                        "120000",
			"average_contract_length_months": "12",
			"renewal_rate_percent":           "90",
			"expansion_revenue_percent":      "10",
		},
	})
	r.Register(DriverTemplate{
		Type:        domain.DriverRepProductivity,
		Label:       "Rep Productivity",
		Description: "New sales hires ramping to quota",
		Defaults: map[string]string{
			"current_reps":            "10",
			"new_hires":               "2",
			"ramp_time_months":        "3",
			"quota_per_rep":           "10000",
			"attainment_rate_percent": "80",
		},
	})
	r.Register(DriverTemplate{
		Type:        domain.DriverDiscounting,
		Label:       "Discounting",
		Description: "Price discount traded for volume lift on part of the base",
		Defaults: map[string]string{
			"discount_percent":         "10",
			"affected_revenue_percent": "20",
			"volume_lift_percent":      "15",
			"gross_margin_percent":     "60",
		},
	})

	return r
}

// Register adds or replaces a template.
func (r *DriverRegistry) Register(t DriverTemplate) {
	r.templates[t.Type] = t
}

// Template returns the template for t.
func (r *DriverRegistry) Template(t domain.DriverType) (DriverTemplate, error) {
	tmpl, ok := r.templates[t]
	if !ok {
		return DriverTemplate{}, &domain.MissingDriverTemplateError{DriverType: string(t)}
	}
	return tmpl, nil
}

// Templates returns every template in display order.
func (r *DriverRegistry) Templates() []DriverTemplate {
	out := make([]DriverTemplate, 0, len(r.templates))
	for _, t := range domain.AllDriverTypes() {
		if tmpl, ok := r.templates[t]; ok {
			out = append(out, tmpl)
		}
	}
	return out
}

// Build creates an active, full-year driver of type t from the template
// defaults with overrides applied on top. Overrides accept the same keys as
// UpdateDriver.
func (r *DriverRegistry) Build(t domain.DriverType, name string, overrides map[string]string) (domain.Driver, error) {
	tmpl, err := r.Template(t)
	if err != nil {
		return domain.Driver{}, err
	}
	params, err := domain.NewParameters(t)
	if err != nil {
		return domain.Driver{}, err
	}
	if name == "" {
		name = tmpl.Label
	}

	d := domain.NewDriver("", name, params)
	d, err = UpdateDriverFields(d, tmpl.Defaults)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("%s template defaults: %w", t, err)
	}
	if len(overrides) > 0 {
		d, err = UpdateDriverFields(d, overrides)
		if err != nil {
			return domain.Driver{}, fmt.Errorf("%s driver: %w", t, err)
		}
	}
	return d, nil
}

// ParseDriverSpec builds a driver from "type:key=value,key=value". The
// "name" key sets the driver name; other keys are passed to Build.
// Example: "seasonality:name=Holidays,nov=1.15,dec=1.3"
func (r *DriverRegistry) ParseDriverSpec(spec string) (domain.Driver, error) {
	typeName, params, err := splitSpec(spec)
	if err != nil {
		return domain.Driver{}, err
	}
	name := params["name"]
	delete(params, "name")
	return r.Build(domain.DriverType(typeName), name, params)
}

// splitSpec parses "name:key=value,..." into its name and parameters. The
// parameter part may be empty.
func splitSpec(spec string) (string, map[string]string, error) {
	parts := strings.SplitN(spec, ":", 2)
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return "", nil, fmt.Errorf("invalid spec format, expected 'name:params', got: %s", spec)
	}

	params := make(map[string]string)
	if len(parts) == 1 {
		return name, params, nil
	}
	paramsStr := strings.TrimSpace(parts[1])
	if paramsStr == "" {
		return name, params, nil
	}
	for _, pair := range strings.Split(paramsStr, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return "", nil, fmt.Errorf("invalid parameter format, expected 'key=value', got: %s", pair)
		}
		params[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return name, params, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
