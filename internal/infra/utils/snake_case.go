package utils

import (
	"reflect"
	"strings"
	"unicode"
)

// ToSnakeCase converts a camelCase or PascalCase string to snake_case.
//
// Examples:
//   - "camelCase" -> "camel_case"
//   - "XMLHttpRequest" -> "xml_http_request"
//   - "snake_case" -> "snake_case" (unchanged)
func ToSnakeCase(s string) string {
	if s == "" {
		return s
	}

	var result strings.Builder
	result.Grow(len(s) + len(s)/2)

	runes := []rune(s)
	for i, r := range runes {
		if i == 0 {
			result.WriteRune(unicode.ToLower(r))
			continue
		}

		if unicode.IsUpper(r) {
			if unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]) {
				result.WriteRune('_')
			} else if i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				result.WriteRune('_')
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// JSONFieldKeys lists the wire keys of a struct type: the json tag name when
// present, otherwise the snake_case field name. Fields tagged "-" are skipped.
func JSONFieldKeys(shape any) map[string]bool {
	t := reflect.TypeOf(shape)
	for t != nil && (t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	keys := map[string]bool{}
	if t == nil || t.Kind() != reflect.Struct {
		return keys
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = ToSnakeCase(field.Name)
		}
		keys[name] = true
	}
	return keys
}
