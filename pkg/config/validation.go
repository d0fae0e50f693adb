package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/cask/internal/telemetry"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// getValidator returns a validator that reports fields by their
// mapstructure key, so messages name the keys operators actually write.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.Split(field.Tag.Get("mapstructure"), ",")[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks struct tag constraints and the cross-field rules of the
// database, blob and telemetry sections.
func Validate(cfg *Config) error {
	if err := getValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := cfg.Blob.Validate(); err != nil {
		return fmt.Errorf("blob: %w", err)
	}
	if cfg.Telemetry.Profiling.Enabled {
		if _, err := telemetry.ParseProfileTypes(cfg.Telemetry.Profiling.ProfileTypes); err != nil {
			return fmt.Errorf("telemetry.profiling: %w", err)
		}
	}
	return nil
}

// formatValidationErrors renders one line per failed field, e.g.
// "server.port: failed 'max=65535' (got 70000)".
func formatValidationErrors(verrs validator.ValidationErrors) error {
	lines := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		lines = append(lines, fmt.Sprintf("%s: failed '%s' (got %v)", fieldPath(fe.Namespace()), rule, fe.Value()))
	}
	return errors.New(strings.Join(lines, "; "))
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
