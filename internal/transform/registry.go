package transform

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
)

// TransformRegistry creates transforms from string parameters, as used by
// the CLI --transform flag.
type TransformRegistry struct {
	factories map[string]TransformFactory
	drivers   *DriverRegistry
}

// TransformFactory creates a transform from parameters.
type TransformFactory func(params map[string]string) (ScenarioTransform, error)

// NewTransformRegistry creates a registry with all built-in transforms
// registered. add_driver builds its driver through drivers; nil uses the
// default driver templates.
func NewTransformRegistry(drivers *DriverRegistry) *TransformRegistry {
	if drivers == nil {
		drivers = NewDriverRegistry()
	}
	registry := &TransformRegistry{
		factories: make(map[string]TransformFactory),
		drivers:   drivers,
	}

	registry.Register("add_driver", registry.createAddDriver)
	registry.Register("update_driver", createUpdateDriver)
	registry.Register("remove_driver", createRemoveDriver)
	registry.Register("set_driver_active", createSetDriverActive)
	registry.Register("set_base_revenue", createSetBaseRevenue)

	return registry
}

// Register adds a transform factory to the registry.
func (r *TransformRegistry) Register(name string, factory TransformFactory) {
	r.factories[name] = factory
}

// Create creates a transform by name with the given parameters.
func (r *TransformRegistry) Create(name string, params map[string]string) (ScenarioTransform, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown transform: %s", name)
	}

	return factory(params)
}

// List returns the sorted names of all registered transforms.
func (r *TransformRegistry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseTransformSpec parses a transform string.
// Format: "transform_name:param1=value1,param2=value2"
// Example: "update_driver:id=vp-1,price_growth_percent=8"
func (r *TransformRegistry) ParseTransformSpec(spec string) (ScenarioTransform, error) {
	name, params, err := splitSpec(spec)
	if err != nil {
		return nil, err
	}
	return r.Create(name, params)
}

func requireParam(transform string, params map[string]string, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%s requires '%s' parameter", transform, key)
	}
	return v, nil
}

// withoutKeys copies params minus the listed keys.
func withoutKeys(params map[string]string, keys ...string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func (r *TransformRegistry) createAddDriver(params map[string]string) (ScenarioTransform, error) {
	driverType, err := requireParam("add_driver", params, "type")
	if err != nil {
		return nil, err
	}

	d, err := r.drivers.Build(domain.DriverType(driverType), params["name"], withoutKeys(params, "type", "name", "id"))
	if err != nil {
		return nil, err
	}
	d.ID = params["id"]

	return &AddDriver{Driver: d}, nil
}

func createUpdateDriver(params map[string]string) (ScenarioTransform, error) {
	id, err := requireParam("update_driver", params, "id")
	if err != nil {
		return nil, err
	}

	fields := withoutKeys(params, "id")
	if len(fields) == 0 {
		return nil, fmt.Errorf("update_driver requires at least one field to change")
	}

	return &UpdateDriver{DriverID: id, Params: fields}, nil
}

func createRemoveDriver(params map[string]string) (ScenarioTransform, error) {
	id, err := requireParam("remove_driver", params, "id")
	if err != nil {
		return nil, err
	}

	return &RemoveDriver{DriverID: id}, nil
}

func createSetDriverActive(params map[string]string) (ScenarioTransform, error) {
	id, err := requireParam("set_driver_active", params, "id")
	if err != nil {
		return nil, err
	}

	activeStr, err := requireParam("set_driver_active", params, "active")
	if err != nil {
		return nil, err
	}
	active, err := strconv.ParseBool(activeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid active value: %w", err)
	}

	return &SetDriverActive{DriverID: id, Active: active}, nil
}

func createSetBaseRevenue(params map[string]string) (ScenarioTransform, error) {
	amountStr, err := requireParam("set_base_revenue", params, "amount")
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount value: %w", err)
	}

	return &SetBaseRevenue{Amount: amount}, nil
}
