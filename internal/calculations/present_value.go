package calculations

import (
	"math"

	"github.com/cloud-ru/mcp-lease-go/pkg/utils"
)

// PeriodicRateFromAnnual переводит годовую ставку (в процентах) в эффективную
// ставку за период: (1 + annual/100)^(1/periodsPerYear) - 1
func PeriodicRateFromAnnual(annualRatePercent float64, periodsPerYear int) float64 {
	if annualRatePercent == 0 || periodsPerYear <= 0 {
		return 0
	}
	return math.Pow(1.0+annualRatePercent/100.0, 1.0/float64(periodsPerYear)) - 1.0
}

// AnnualRateFromPeriodic обратное преобразование, результат в процентах
func AnnualRateFromPeriodic(periodicRate float64, periodsPerYear int) float64 {
	if periodicRate == 0 || periodsPerYear <= 0 {
		return 0
	}
	return (math.Pow(1.0+periodicRate, float64(periodsPerYear)) - 1.0) * 100.0
}

// PresentValueOfAnnuity приведенная стоимость потока равных платежей, округленная до копеек
func PresentValueOfAnnuity(payment, periodicRate float64, numberOfPeriods int, timing PaymentTiming) float64 {
	return utils.Round2(presentValueOfAnnuity(payment, periodicRate, numberOfPeriods, timing))
}

// PresentValueOfLumpSum приведенная стоимость разовой суммы, округленная до копеек
func PresentValueOfLumpSum(amount, periodicRate float64, numberOfPeriods int) float64 {
	return utils.Round2(presentValueOfLumpSum(amount, periodicRate, numberOfPeriods))
}

func presentValueOfAnnuity(payment, r float64, n int, timing PaymentTiming) float64 {
	if n <= 0 {
		return 0
	}
	if r == 0 {
		return payment * float64(n)
	}
	pv := payment * (1.0 - math.Pow(1.0+r, float64(-n))) / r
	if timing == TimingBeginning {
		pv *= 1.0 + r
	}
	return pv
}

func presentValueOfLumpSum(amount, r float64, n int) float64 {
	if r == 0 || n <= 0 {
		return amount
	}
	return amount / math.Pow(1.0+r, float64(n))
}
