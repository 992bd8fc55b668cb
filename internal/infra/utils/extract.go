package utils

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/thoas/go-funk"
)

// ExtractValue reads a (possibly dotted) property from a map or struct.
func ExtractValue(obj any, propertyName string) (any, bool) {
	if obj == nil || propertyName == "" {
		return nil, false
	}
	value := funk.Get(obj, propertyName, funk.WithAllowZero())
	if value == nil {
		return nil, false
	}
	return value, true
}

// ExtractStringValue uses go-funk to extract a string value from an object using the specified property name
func ExtractStringValue(obj any, propertyName string) string {
	value, ok := ExtractValue(obj, propertyName)
	if !ok {
		return ""
	}
	if strVal, ok := value.(string); ok {
		return strVal
	}
	return fmt.Sprintf("%v", value)
}

// ExtractFloat64Value extracts a numeric property. Strings holding a number
// are parsed because the API serialises decimals as strings.
func ExtractFloat64Value(obj any, propertyName string) (float64, bool) {
	value, ok := ExtractValue(obj, propertyName)
	if !ok {
		return 0, false
	}
	return ToFloat64(value)
}

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// ToFloat64 converts numbers and plain decimal strings. NaN, infinities,
// exponents and hex notation are rejected.
func ToFloat64(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		s := strings.TrimSpace(v)
		if !decimalPattern.MatchString(s) {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
