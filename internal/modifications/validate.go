package modifications

import (
	"fmt"
	"strings"

	"github.com/cloud-ru/mcp-lease-go/pkg/utils"
)

// ValidationResult итог проверки модификации со всеми найденными нарушениями
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Validate проверяет обязательные поля, порядок дат и полезную нагрузку по типу.
// Возвращает все нарушения сразу, ошибкой не является.
func Validate(rec ModificationRecord) ValidationResult {
	errs := []string{}

	if strings.TrimSpace(rec.Description) == "" {
		errs = append(errs, "description is required")
	}
	if rec.ModificationDate.IsZero() {
		errs = append(errs, "modificationDate is required")
	}
	if rec.EffectiveDate.IsZero() {
		errs = append(errs, "effectiveDate is required")
	}
	if !rec.ModificationDate.IsZero() && !rec.EffectiveDate.IsZero() && rec.EffectiveDate.Before(rec.ModificationDate) {
		errs = append(errs, "effectiveDate must be on or after modificationDate")
	}

	for _, f := range []struct {
		name  string
		value float64
	}{
		{"modificationFee", rec.ModificationFee},
		{"additionalCosts", rec.AdditionalCosts},
		{"incentivesReceived", rec.IncentivesReceived},
	} {
		if f.value < 0 || !utils.IsFinite(f.value) {
			errs = append(errs, fmt.Sprintf("%s must be a non-negative number", f.name))
		}
	}

	h, ok := HandlerFor(rec.Type)
	switch {
	case rec.Type == "":
		errs = append(errs, "modificationType is required")
	case !ok:
		errs = append(errs, fmt.Sprintf("unknown modificationType %q", string(rec.Type)))
	default:
		if rec.Change != nil && rec.Change.Kind() != rec.Type {
			errs = append(errs, fmt.Sprintf("payload of kind %s does not match modificationType %s", rec.Change.Kind(), rec.Type))
		} else {
			errs = append(errs, h.Validate(rec)...)
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
