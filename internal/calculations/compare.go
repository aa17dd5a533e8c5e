package calculations

import (
	"github.com/cloud-ru/mcp-lease-go/pkg/utils"
)

// TimingComparison оценка одного договора при оплате в начале и в конце периода
type TimingComparison struct {
	Beginning       Measurement `json:"beginning"`
	End             Measurement `json:"end"`
	LiabilityDiff   float64     `json:"liabilityDiff"`
	InterestDiff    float64     `json:"interestDiff"`
	CheaperTiming   string      `json:"cheaperTiming"`
	InterestSavings float64     `json:"interestSavings"`
}

// CompareTimings сравнивает оплату в начале и в конце периода при прочих равных условиях
func CompareTimings(terms LeaseContractTerms) (*TimingComparison, error) {
	beginningTerms, endTerms := terms, terms
	beginningTerms.PaymentTiming = TimingBeginning
	endTerms.PaymentTiming = TimingEnd

	beginning, err := Measure(beginningTerms)
	if err != nil {
		return nil, err
	}
	end, err := Measure(endTerms)
	if err != nil {
		return nil, err
	}

	interestDiff := utils.Round2(end.TotalInterest - beginning.TotalInterest)

	// Меньше процентов в сумме - выгоднее для арендатора
	var cheaper string
	var savings float64
	switch {
	case interestDiff > 0:
		cheaper = string(TimingBeginning)
		savings = interestDiff
	case interestDiff < 0:
		cheaper = string(TimingEnd)
		savings = -interestDiff
	default:
		cheaper = "equal"
	}

	return &TimingComparison{
		Beginning:       *beginning,
		End:             *end,
		LiabilityDiff:   utils.Round2(beginning.LeaseLiability - end.LeaseLiability),
		InterestDiff:    interestDiff,
		CheaperTiming:   cheaper,
		InterestSavings: savings,
	}, nil
}
