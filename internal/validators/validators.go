package validators

import (
	"errors"
	"fmt"

	"github.com/cloud-ru/mcp-lease-go/internal/calculations"
	"github.com/cloud-ru/mcp-lease-go/internal/config"
	"github.com/cloud-ru/mcp-lease-go/pkg/utils"
)

// ValidatePositiveNumber проверяет, что число положительное и в допустимом диапазоне
func ValidatePositiveNumber(name string, value float64, minInclusive, maxInclusive float64) error {
	if !utils.IsFinite(value) {
		return fmt.Errorf("%s: значение не является конечным числом", name)
	}
	if value < minInclusive {
		return fmt.Errorf("%s: значение должно быть ≥ %.0f", name, minInclusive)
	}
	if value > maxInclusive {
		return fmt.Errorf("%s: значение слишком велико (>%.0f)", name, maxInclusive)
	}
	return nil
}

// ValidateIntRange проверяет, что целое число в допустимом диапазоне
func ValidateIntRange(name string, value int, minInclusive, maxInclusive int) error {
	if value < minInclusive || value > maxInclusive {
		return fmt.Errorf("%s: значение должно быть в диапазоне [%d; %d]", name, minInclusive, maxInclusive)
	}
	return nil
}

// CheckPayment проверяет периодический платеж
func CheckPayment(cfg *config.Config, payment float64) error {
	return ValidatePositiveNumber("paymentAmount", payment, 0.0, cfg.MaxPayment)
}

// CheckRate проверяет годовую ставку дисконтирования
func CheckRate(cfg *config.Config, rate float64) error {
	return ValidatePositiveNumber("discountRateAnnual", rate, 0.0, cfg.MaxRate)
}

// CheckTermMonths проверяет срок аренды в месяцах
func CheckTermMonths(cfg *config.Config, months int) error {
	return ValidateIntRange("leaseTermMonths", months, 1, cfg.MaxTermMonths)
}

// CheckAmount проверяет разовые суммы договора
func CheckAmount(cfg *config.Config, name string, amount float64) error {
	return ValidatePositiveNumber(name, amount, 0.0, cfg.MaxAmount)
}

// CheckModificationCount ограничивает длину истории модификаций
func CheckModificationCount(cfg *config.Config, count int) error {
	return ValidateIntRange("modifications", count, 0, cfg.MaxModifications)
}

// CheckTerms проверяет условия договора против лимитов сервиса
func CheckTerms(cfg *config.Config, terms calculations.LeaseContractTerms) error {
	errs := []error{
		CheckPayment(cfg, terms.PaymentAmount),
		CheckRate(cfg, terms.DiscountRateAnnual),
		CheckTermMonths(cfg, terms.LeaseTermMonths),
		CheckAmount(cfg, "initialPayment", terms.InitialPayment),
		CheckAmount(cfg, "guaranteedResidualValue", terms.GuaranteedResidualValue),
		CheckAmount(cfg, "initialDirectCosts", terms.InitialDirectCosts),
		CheckAmount(cfg, "leaseIncentives", terms.LeaseIncentives),
	}
	return errors.Join(errs...)
}
