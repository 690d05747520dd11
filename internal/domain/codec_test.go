package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDriver_UnmarshalJSON(t *testing.T) {
	data := []byte(`{
		"id": "d-1",
		"driver_name": "Holiday peak",
		"driver_type": "seasonality",
		"start_month": "Oct",
		"end_month": "Jan",
		"sort_order": 2,
		"parameters": {
			"baseline_revenue": 100000,
			"monthly_multipliers": {"Dec": 1.3, "Nov": "1.1"}
		}
	}`)

	var d Driver
	require.NoError(t, json.Unmarshal(data, &d))

	assert.Equal(t, "d-1", d.ID)
	assert.Equal(t, DriverSeasonality, d.Type)
	assert.True(t, d.IsActive, "is_active defaults to true")
	assert.Equal(t, October, d.StartMonth)
	assert.Equal(t, January, d.EndMonth)
	assert.Equal(t, 2, d.SortOrder)

	params, ok := d.Parameters.(SeasonalityParams)
	require.True(t, ok)
	assert.True(t, params.BaselineRevenue.Equal(decimal.NewFromInt(100000)))
	assert.Equal(t, "1.3", params.Multiplier(December).String())
	assert.Equal(t, "1.1", params.Multiplier(November).String())
	assert.Equal(t, "1", params.Multiplier(June).String())
}

func TestDriver_UnmarshalJSON_Inactive(t *testing.T) {
	var d Driver
	require.NoError(t, json.Unmarshal([]byte(`{
		"driver_name": "Old CAC",
		"driver_type": "cac",
		"is_active": false,
		"parameters": {"customers_acquired": 10, "cac_payback_months": 6}
	}`), &d))

	assert.False(t, d.IsActive)
	params := d.Parameters.(CACParams)
	assert.Equal(t, 6, params.CACPaybackMonths)
	assert.Equal(t, "10", params.CustomersAcquired.String())
}

func TestDriver_UnmarshalJSON_Errors(t *testing.T) {
	var d Driver

	err := d.UnmarshalJSON([]byte(`{"driver_name": "x", "driver_type": "viral"}`))
	var missing *MissingDriverTemplateError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "viral", missing.DriverType)

	err = d.UnmarshalJSON([]byte(`{"driver_name": "x", "driver_type": "cac", "parameters": {"bogus": 1}}`))
	assert.Error(t, err, "unknown parameter keys are rejected")
}

func TestDriver_UnmarshalYAML(t *testing.T) {
	doc := `
id: rp
driver_name: Sales hiring
driver_type: rep_productivity
parameters:
  current_reps: 10
  new_hires: 3
  ramp_time_months: 2
  quota_per_rep: "20000"
  attainment_rate_percent: 80.5
`
	var d Driver
	require.NoError(t, yaml.Unmarshal([]byte(doc), &d))

	params, ok := d.Parameters.(RepProductivityParams)
	require.True(t, ok)
	assert.Equal(t, 3, params.NewHires)
	assert.Equal(t, "20000", params.QuotaPerRep.String())
	assert.Equal(t, "80.5", params.AttainmentRatePercent.String())
	assert.True(t, d.IsActive)
}

func TestDriver_RoundTripJSON(t *testing.T) {
	original := NewDriver("f", "Funnel", FunnelParams{
		LeadsPerMonth:    decimal.NewFromInt(1000),
		Stages:           []FunnelStage{{Name: "MQL", ConversionRatePercent: decimal.NewFromInt(25)}},
		AverageDealSize:  decimal.NewFromInt(4000),
		SalesCycleMonths: 3,
	})

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Driver
	require.NoError(t, json.Unmarshal(data, &decoded))

	params := decoded.Parameters.(FunnelParams)
	require.Len(t, params.Stages, 1)
	assert.Equal(t, "MQL", params.Stages[0].Name)
	assert.Equal(t, "25", params.Stages[0].ConversionRatePercent.String())
	assert.Equal(t, January, decoded.StartMonth)
	assert.Equal(t, December, decoded.EndMonth)
}

func TestDriver_Clone(t *testing.T) {
	original := NewDriver("s", "Season", SeasonalityParams{
		Multipliers: map[Month]decimal.Decimal{December: decimal.NewFromFloat(1.2)},
	})

	clone := original.Clone()
	clone.Parameters.(SeasonalityParams).Multipliers[December] = decimal.NewFromInt(2)

	assert.Equal(t, "1.2", original.Parameters.(SeasonalityParams).Multiplier(December).String())
}
