package form

import (
	"errors"
	"fmt"

	"opsconsole/internal/infra/utils"
)

type Kind string

const (
	KindText         Kind = "text"
	KindNumber       Kind = "number"
	KindAutocomplete Kind = "autocomplete"
)

var ErrInvalidRowConfig = errors.New("invalid row config")

// AutoFill copies a property of the selected option into another cell of the row.
type AutoFill struct {
	From string
	To   string
}

// Field configures one column of the item table.
type Field struct {
	Label string
	Key   string
	Kind  Kind
	// Options feeds autocomplete fields.
	Options OptionSource
	// OptionLabel is the option property displayed for the selection, "name" by default.
	OptionLabel string
	// OptionValue is the option property stored in the row, "id" by default.
	OptionValue string
	Disabled    bool
	// Transform formats the stored value for display.
	Transform func(value any) any
	// Product marks the selector whose option later fields read limits from.
	Product  bool
	AutoFill []AutoFill
	// MaxFrom names the product option property capping a number field.
	MaxFrom string
}

type RowConfig []Field

func (f Field) optionLabel() string {
	if f.OptionLabel == "" {
		return "name"
	}
	return f.OptionLabel
}

func (f Field) optionValue() string {
	if f.OptionValue == "" {
		return "id"
	}
	return f.OptionValue
}

func (c RowConfig) Field(key string) (Field, bool) {
	for _, f := range c {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

func (c RowConfig) Keys() []string {
	keys := make([]string, 0, len(c))
	for _, f := range c {
		keys = append(keys, f.Key)
	}
	return keys
}

func (c RowConfig) productField() (Field, bool) {
	for _, f := range c {
		if f.Product {
			return f, true
		}
	}
	return Field{}, false
}

// CheckRowConfig verifies the config against the JSON fields of the item shape
// it edits, so that a renamed field fails at startup instead of silently
// dropping data.
func CheckRowConfig(cfg RowConfig, shape any) error {
	known := utils.JSONFieldKeys(shape)
	if len(known) == 0 {
		return fmt.Errorf("%w: item shape %T has no json fields", ErrInvalidRowConfig, shape)
	}

	var errs []error
	seen := map[string]bool{}
	products := 0

	for _, f := range cfg {
		switch {
		case f.Key == "":
			errs = append(errs, fmt.Errorf("field %q has no key", f.Label))
			continue
		case seen[f.Key]:
			errs = append(errs, fmt.Errorf("field %q is configured twice", f.Key))
		case !known[f.Key]:
			errs = append(errs, fmt.Errorf("field %q is not a field of %T", f.Key, shape))
		}
		seen[f.Key] = true

		switch f.Kind {
		case KindText, KindNumber:
		case KindAutocomplete:
			if f.Options == nil {
				errs = append(errs, fmt.Errorf("autocomplete field %q has no option source", f.Key))
			}
		default:
			errs = append(errs, fmt.Errorf("field %q has unknown kind %q", f.Key, f.Kind))
		}

		if f.Product {
			products++
			if f.Kind != KindAutocomplete {
				errs = append(errs, fmt.Errorf("product field %q must be an autocomplete", f.Key))
			}
		}
		if f.MaxFrom != "" && f.Kind != KindNumber {
			errs = append(errs, fmt.Errorf("field %q sets a maximum but is not a number", f.Key))
		}
		for _, rule := range f.AutoFill {
			if !known[rule.To] {
				errs = append(errs, fmt.Errorf("field %q fills %q which is not a field of %T", f.Key, rule.To, shape))
			}
		}
	}

	if products > 1 {
		errs = append(errs, errors.New("more than one product field"))
	}
	for _, f := range cfg {
		if f.MaxFrom != "" && products == 0 {
			errs = append(errs, fmt.Errorf("field %q sets a maximum but the row has no product field", f.Key))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRowConfig, errors.Join(errs...))
	}
	return nil
}
