package modifications

import (
	"fmt"

	"github.com/cloud-ru/mcp-lease-go/pkg/utils"
)

// Порядок приоритета при нескольких заполненных полях:
// абсолютное значение, затем дельта, затем процент.

func resolveTermMonths(current int, c TermChange, sign int) (int, error) {
	var next int
	switch {
	case c.NewTermMonths != nil:
		next = *c.NewTermMonths
	case c.TermChangeMonths != nil:
		delta := *c.TermChangeMonths
		if delta < 0 {
			delta = -delta
		}
		next = current + sign*delta
	default:
		return 0, fmt.Errorf("%w: newTermMonths or termChangeMonths is required", ErrInvalidModification)
	}
	if next <= 0 {
		return 0, fmt.Errorf("%w: resulting lease term %d months must be positive", ErrInvalidModification, next)
	}
	return next, nil
}

func resolvePayment(current float64, c PaymentChange) (float64, error) {
	next, err := resolveAmount(current, c.NewMonthlyPayment, c.PaymentChangeAmount, c.PaymentChangePercentage)
	if err != nil {
		return 0, fmt.Errorf("%w: payment change: %v", ErrInvalidModification, err)
	}
	if next < 0 {
		return 0, fmt.Errorf("%w: resulting payment %.2f must be non-negative", ErrInvalidModification, next)
	}
	return utils.Round2(next), nil
}

func resolveRate(current float64, c RateChange) (float64, error) {
	next, err := resolveAmount(current, c.NewDiscountRateAnnual, c.RateChangeAmount, c.RateChangePercentage)
	if err != nil {
		return 0, fmt.Errorf("%w: rate change: %v", ErrInvalidModification, err)
	}
	if next < 0 {
		return 0, fmt.Errorf("%w: resulting discount rate %v%% must be non-negative", ErrInvalidModification, next)
	}
	return next, nil
}

func resolveAmount(current float64, absolute, delta, percentage *float64) (float64, error) {
	var next float64
	switch {
	case absolute != nil:
		next = *absolute
	case delta != nil:
		next = current + *delta
	case percentage != nil:
		next = current * (1.0 + *percentage/100.0)
	default:
		return 0, fmt.Errorf("new value, change amount or change percentage is required")
	}
	if !utils.IsFinite(next) {
		return 0, fmt.Errorf("resulting value is not a finite number")
	}
	return next, nil
}
