package resource

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorInstance *validator.Validate
	validatorOnce     sync.Once
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInstance = validator.New(validator.WithRequiredStructEnabled())

		// report json names so messages line up with form keys
		validatorInstance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})

	return validatorInstance
}

// Validate checks the struct tags of input. Messages are looked up by
// "<field>.<tag>", or "<slice>.*.<field>.<tag>" for elements, and reported
// under the concrete path, e.g. "items.0.quantity".
func Validate(input any, messages map[string]string) *ValidationError {
	result := NewValidationError()

	err := getValidator().Struct(input)
	if err == nil {
		return result
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		result.Add("_", err.Error())
		return result
	}

	for _, fieldErr := range validationErrors {
		path := fieldErr.Namespace()
		if idx := strings.Index(path, "."); idx >= 0 {
			path = path[idx+1:]
		}
		path = strings.ReplaceAll(strings.ReplaceAll(path, "[", "."), "]", "")

		parts := strings.Split(path, ".")
		for i, part := range parts {
			if _, err := strconv.Atoi(part); err == nil {
				parts[i] = "*"
			}
		}
		messageKey := fmt.Sprintf("%s.%s", strings.Join(parts, "."), fieldErr.Tag())

		message, found := messages[messageKey]
		if !found {
			slog.Debug("validation message not found", slog.String("key", messageKey))
			message = fmt.Sprintf("%s is invalid", fieldErr.Field())
		}
		result.Add(path, message)
	}

	return result
}
