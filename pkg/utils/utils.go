package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// CentTolerance допустимая погрешность денежных сравнений (один цент)
const CentTolerance = 0.01

// Round2 округляет денежную сумму до 2 знаков после запятой (half away from zero).
// Округление идёт через decimal, чтобы 1.005 давало 1.01, а не 1.00.
func Round2(value float64) float64 {
	if !IsFinite(value) {
		return value
	}
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}

// IsFinite проверяет, является ли число конечным
func IsFinite(value float64) bool {
	return !math.IsInf(value, 0) && !math.IsNaN(value)
}

// AlmostEqual сравнивает два числа с абсолютной погрешностью tolerance
func AlmostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance+1e-9
}
