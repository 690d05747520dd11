package domain

import (
	"bytes"
	"fmt"
	"reflect"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	monthType   = reflect.TypeOf(Month(0))
)

// driverWire is the serialised driver shape; parameters stay untyped until
// the driver type is known.
type driverWire struct {
	ID         string         `json:"id" yaml:"id"`
	ScenarioID string         `json:"scenario_id" yaml:"scenario_id"`
	Name       string         `json:"driver_name" yaml:"driver_name"`
	Type       DriverType     `json:"driver_type" yaml:"driver_type"`
	IsActive   *bool          `json:"is_active" yaml:"is_active"`
	StartMonth Month          `json:"start_month" yaml:"start_month"`
	EndMonth   Month          `json:"end_month" yaml:"end_month"`
	SortOrder  int            `json:"sort_order" yaml:"sort_order"`
	CreatedAt  time.Time      `json:"created_at" yaml:"created_at"`
	Parameters map[string]any `json:"parameters" yaml:"parameters"`
}

func (w driverWire) into(d *Driver) error {
	params, err := DecodeParameters(w.Type, w.Parameters)
	if err != nil {
		return fmt.Errorf("driver %q: %w", w.Name, err)
	}

	active := true
	if w.IsActive != nil {
		active = *w.IsActive
	}

	*d = Driver{
		ID:         w.ID,
		ScenarioID: w.ScenarioID,
		Name:       w.Name,
		Type:       w.Type,
		IsActive:   active,
		StartMonth: w.StartMonth,
		EndMonth:   w.EndMonth,
		SortOrder:  w.SortOrder,
		CreatedAt:  w.CreatedAt,
		Parameters: params,
	}
	return nil
}

// UnmarshalJSON decodes the parameters into the payload matching driver_type.
func (d *Driver) UnmarshalJSON(data []byte) error {
	var wire driverWire
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&wire); err != nil {
		return err
	}
	return wire.into(d)
}

// UnmarshalYAML decodes the parameters into the payload matching driver_type.
func (d *Driver) UnmarshalYAML(value *yaml.Node) error {
	var wire driverWire
	if err := value.Decode(&wire); err != nil {
		return err
	}
	return wire.into(d)
}

// DecodeParameters converts a loosely typed parameter map into the typed
// payload for t. Unknown keys are rejected.
func DecodeParameters(t DriverType, raw map[string]any) (DriverParameters, error) {
	params, err := NewParameters(t)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return params, nil
	}

	return MergeParameters(params, raw)
}

// MergeParameters decodes raw on top of a copy of params; keys absent from
// raw keep their current value. Unknown keys are rejected.
func MergeParameters(params DriverParameters, raw map[string]any) (DriverParameters, error) {
	if params == nil {
		return nil, &MissingDriverTemplateError{}
	}

	params = cloneParameters(params)
	target := reflect.New(reflect.TypeOf(params))
	target.Elem().Set(reflect.ValueOf(params))

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(decimalHook, monthHook),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           target.Interface(),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid %s parameters: %w", params.DriverType(), err)
	}
	return target.Elem().Interface().(DriverParameters), nil
}

func decimalHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != decimalType || data == nil {
		return data, nil
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.String:
		return decimal.NewFromString(v.String())
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(v.Float()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decimal.NewFromInt(int64(v.Uint())), nil
	}
	return data, nil
}

func monthHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != monthType || data == nil {
		return data, nil
	}
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.String {
		return ParseMonth(v.String())
	}
	return data, nil
}
