package calculations

import (
	"fmt"

	"github.com/cloud-ru/mcp-lease-go/pkg/utils"
)

// rawMeasurement оценка без округления, используется для построения графика
type rawMeasurement struct {
	liability      float64
	asset          float64
	periods        int
	periodsPerYear int
	periodicRate   float64
}

// ValidateTerms проверяет инварианты условий договора
func ValidateTerms(terms LeaseContractTerms) error {
	if terms.LeaseTermMonths <= 0 {
		return fmt.Errorf("%w: leaseTermMonths must be positive, got %d", ErrInvalidTerm, terms.LeaseTermMonths)
	}
	if terms.LeaseStartDate.IsZero() || terms.LeaseEndDate.IsZero() {
		return fmt.Errorf("%w: leaseStartDate and leaseEndDate are required", ErrInvalidTerm)
	}
	if !terms.LeaseStartDate.Before(terms.LeaseEndDate) {
		return fmt.Errorf("%w: leaseEndDate %s must be after leaseStartDate %s",
			ErrInvalidTerm, terms.LeaseEndDate, terms.LeaseStartDate)
	}
	if terms.PaymentTiming != "" && terms.PaymentTiming != TimingBeginning && terms.PaymentTiming != TimingEnd {
		return fmt.Errorf("%w: unknown payment timing %q", ErrInvalidTerm, string(terms.PaymentTiming))
	}

	amounts := []struct {
		name  string
		value float64
	}{
		{"paymentAmount", terms.PaymentAmount},
		{"discountRateAnnual", terms.DiscountRateAnnual},
		{"initialPayment", terms.InitialPayment},
		{"guaranteedResidualValue", terms.GuaranteedResidualValue},
		{"initialDirectCosts", terms.InitialDirectCosts},
		{"leaseIncentives", terms.LeaseIncentives},
	}
	for _, a := range amounts {
		if !utils.IsFinite(a.value) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidTerm, a.name)
		}
		if a.value < 0 {
			return fmt.Errorf("%w: %s must be non-negative, got %v", ErrInvalidTerm, a.name, a.value)
		}
	}

	_, err := NumberOfPeriods(terms)
	return err
}

// NumberOfPeriods число платежных периодов; срок должен делиться на длину периода
func NumberOfPeriods(terms LeaseContractTerms) (int, error) {
	if terms.LeaseTermMonths <= 0 {
		return 0, fmt.Errorf("%w: leaseTermMonths must be positive, got %d", ErrInvalidTerm, terms.LeaseTermMonths)
	}
	monthsPerPeriod, err := terms.PaymentFrequency.MonthsPerPeriod()
	if err != nil {
		return 0, err
	}
	if terms.LeaseTermMonths%monthsPerPeriod != 0 {
		return 0, fmt.Errorf("%w: %d months is not a whole number of %s periods",
			ErrInvalidTerm, terms.LeaseTermMonths, terms.PaymentFrequency)
	}
	return terms.LeaseTermMonths / monthsPerPeriod, nil
}

func measure(terms LeaseContractTerms) (rawMeasurement, error) {
	if err := ValidateTerms(terms); err != nil {
		return rawMeasurement{}, err
	}
	n, err := NumberOfPeriods(terms)
	if err != nil {
		return rawMeasurement{}, err
	}
	ppy, err := terms.PaymentFrequency.PeriodsPerYear()
	if err != nil {
		return rawMeasurement{}, err
	}
	r := PeriodicRateFromAnnual(terms.DiscountRateAnnual, ppy)

	liability := presentValueOfAnnuity(terms.PaymentAmount, r, n, terms.PaymentTiming) +
		presentValueOfLumpSum(terms.GuaranteedResidualValue, r, n) +
		terms.InitialPayment

	return rawMeasurement{
		liability:      liability,
		asset:          liability + terms.InitialDirectCosts - terms.LeaseIncentives,
		periods:        n,
		periodsPerYear: ppy,
		periodicRate:   r,
	}, nil
}

// InitialLeaseLiability первоначальное обязательство по аренде
func InitialLeaseLiability(terms LeaseContractTerms) (float64, error) {
	m, err := measure(terms)
	if err != nil {
		return 0, err
	}
	return utils.Round2(m.liability), nil
}

// InitialRightOfUseAsset актив в форме права пользования. Может быть отрицательным,
// если стимулы превышают обязательство и прямые затраты.
func InitialRightOfUseAsset(terms LeaseContractTerms) (float64, error) {
	m, err := measure(terms)
	if err != nil {
		return 0, err
	}
	return utils.Round2(m.asset), nil
}

// EffectiveInterestRateAnnual годовая ставка, восстановленная из периодической
func EffectiveInterestRateAnnual(terms LeaseContractTerms) (float64, error) {
	ppy, err := terms.PaymentFrequency.PeriodsPerYear()
	if err != nil {
		return 0, err
	}
	return AnnualRateFromPeriodic(PeriodicRateFromAnnual(terms.DiscountRateAnnual, ppy), ppy), nil
}

// EffectiveInterestRateMonthly эффективная месячная ставка в процентах
func EffectiveInterestRateMonthly(terms LeaseContractTerms) (float64, error) {
	if !utils.IsFinite(terms.DiscountRateAnnual) || terms.DiscountRateAnnual < 0 {
		return 0, fmt.Errorf("%w: invalid discountRateAnnual %v", ErrInvalidTerm, terms.DiscountRateAnnual)
	}
	return PeriodicRateFromAnnual(terms.DiscountRateAnnual, 12) * 100.0, nil
}

// TotalLeasePayments недисконтированная сумма периодических платежей
func TotalLeasePayments(terms LeaseContractTerms) (float64, error) {
	n, err := NumberOfPeriods(terms)
	if err != nil {
		return 0, err
	}
	return utils.Round2(terms.PaymentAmount * float64(n)), nil
}

// Measure рассчитывает все показатели первоначальной оценки
func Measure(terms LeaseContractTerms) (*Measurement, error) {
	m, err := measure(terms)
	if err != nil {
		return nil, err
	}
	total := terms.PaymentAmount * float64(m.periods)
	monthly, err := EffectiveInterestRateMonthly(terms)
	if err != nil {
		return nil, err
	}

	return &Measurement{
		LeaseLiability:               utils.Round2(m.liability),
		RightOfUseAsset:              utils.Round2(m.asset),
		TotalLeasePayments:           utils.Round2(total),
		TotalInterest:                utils.Round2(total + terms.GuaranteedResidualValue + terms.InitialPayment - m.liability),
		NumberOfPeriods:              m.periods,
		PeriodicRate:                 m.periodicRate,
		EffectiveInterestRateAnnual:  AnnualRateFromPeriodic(m.periodicRate, m.periodsPerYear),
		EffectiveInterestRateMonthly: monthly,
	}, nil
}
