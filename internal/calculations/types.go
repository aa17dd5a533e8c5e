package calculations

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// PaymentFrequency периодичность платежей по договору
type PaymentFrequency string

const (
	FrequencyMonthly    PaymentFrequency = "monthly"
	FrequencyQuarterly  PaymentFrequency = "quarterly"
	FrequencySemiannual PaymentFrequency = "semiannual"
	FrequencyAnnual     PaymentFrequency = "annual"
)

// PeriodsPerYear число платежных периодов в году
func (f PaymentFrequency) PeriodsPerYear() (int, error) {
	switch f {
	case FrequencyMonthly, "":
		return 12, nil
	case FrequencyQuarterly:
		return 4, nil
	case FrequencySemiannual:
		return 2, nil
	case FrequencyAnnual:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: unknown payment frequency %q", ErrInvalidTerm, string(f))
	}
}

// MonthsPerPeriod длина одного периода в месяцах
func (f PaymentFrequency) MonthsPerPeriod() (int, error) {
	ppy, err := f.PeriodsPerYear()
	if err != nil {
		return 0, err
	}
	return 12 / ppy, nil
}

// UnmarshalJSON нормализует регистр и подставляет monthly по умолчанию
func (f *PaymentFrequency) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		raw = string(FrequencyMonthly)
	}
	*f = PaymentFrequency(raw)
	return nil
}

// PaymentTiming момент платежа внутри периода
type PaymentTiming string

const (
	// TimingBeginning платеж в начале периода (аннуитет пренумерандо)
	TimingBeginning PaymentTiming = "beginning"
	// TimingEnd платеж в конце периода (обычный аннуитет)
	TimingEnd PaymentTiming = "end"
)

// UnmarshalJSON нормализует регистр и подставляет end по умолчанию
func (t *PaymentTiming) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		raw = string(TimingEnd)
	}
	*t = PaymentTiming(raw)
	return nil
}

// LeaseContractTerms неизменяемый снимок условий договора аренды
type LeaseContractTerms struct {
	ContractID              string           `json:"contractId,omitempty"`
	Currency                string           `json:"currency,omitempty"`
	LeaseStartDate          Date             `json:"leaseStartDate"`
	LeaseEndDate            Date             `json:"leaseEndDate"`
	LeaseTermMonths         int              `json:"leaseTermMonths"`
	PaymentAmount           float64          `json:"paymentAmount"`
	PaymentFrequency        PaymentFrequency `json:"paymentFrequency"`
	PaymentTiming           PaymentTiming    `json:"paymentTiming"`
	DiscountRateAnnual      float64          `json:"discountRateAnnual"`
	InitialPayment          float64          `json:"initialPayment"`
	GuaranteedResidualValue float64          `json:"guaranteedResidualValue"`
	InitialDirectCosts      float64          `json:"initialDirectCosts"`
	LeaseIncentives         float64          `json:"leaseIncentives"`
}

// AmortizationPeriod одна строка графика амортизации
type AmortizationPeriod struct {
	Period             int     `json:"period"`
	PaymentDate        Date    `json:"paymentDate"`
	BeginningLiability float64 `json:"beginningLiability"`
	InterestExpense    float64 `json:"interestExpense"`
	PaymentAmount      float64 `json:"paymentAmount"`
	PrincipalPayment   float64 `json:"principalPayment"`
	EndingLiability    float64 `json:"endingLiability"`
	BeginningAsset     float64 `json:"beginningAsset"`
	Amortization       float64 `json:"amortization"`
	EndingAsset        float64 `json:"endingAsset"`
}

// Measurement первоначальная оценка договора
type Measurement struct {
	LeaseLiability               float64 `json:"leaseLiability"`
	RightOfUseAsset              float64 `json:"rightOfUseAsset"`
	TotalLeasePayments           float64 `json:"totalLeasePayments"`
	TotalInterest                float64 `json:"totalInterest"`
	NumberOfPeriods              int     `json:"numberOfPeriods"`
	PeriodicRate                 float64 `json:"periodicRate"`
	EffectiveInterestRateAnnual  float64 `json:"effectiveInterestRateAnnual"`
	EffectiveInterestRateMonthly float64 `json:"effectiveInterestRateMonthly"`
}

// ScheduleSummary итоги по графику
type ScheduleSummary struct {
	Periods           int     `json:"periods"`
	TotalPayments     float64 `json:"totalPayments"`
	TotalInterest     float64 `json:"totalInterest"`
	TotalPrincipal    float64 `json:"totalPrincipal"`
	TotalAmortization float64 `json:"totalAmortization"`
	FinalLiability    float64 `json:"finalLiability"`
	FinalAsset        float64 `json:"finalAsset"`
}
