package calculations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloud-ru/mcp-lease-go/pkg/utils"
)

const cent = utils.CentTolerance + 1e-9

func assertScheduleInvariants(t *testing.T, schedule []AmortizationPeriod, payment float64, residual float64) {
	t.Helper()
	require.NotEmpty(t, schedule)

	var sumInterest, sumPrincipal float64
	for i, row := range schedule {
		assert.Equal(t, i+1, row.Period)
		assert.InDelta(t, row.BeginningLiability+row.InterestExpense-row.PaymentAmount, row.EndingLiability, cent,
			"liability roll-forward, period %d", row.Period)
		assert.InDelta(t, row.BeginningLiability-row.PrincipalPayment, row.EndingLiability, cent,
			"principal roll-forward, period %d", row.Period)
		assert.InDelta(t, row.BeginningAsset-row.Amortization, row.EndingAsset, 1e-9,
			"asset roll-forward, period %d", row.Period)
		assert.GreaterOrEqual(t, row.EndingAsset, 0.0, "asset negative in period %d", row.Period)
		if i > 0 {
			assert.Equal(t, schedule[i-1].EndingLiability, row.BeginningLiability)
			assert.Equal(t, schedule[i-1].EndingAsset, row.BeginningAsset)
		}
		sumInterest += row.InterestExpense
		sumPrincipal += row.PrincipalPayment
	}

	last := schedule[len(schedule)-1]
	assert.Equal(t, residual, last.EndingLiability)
	assert.Equal(t, residual, last.EndingAsset)
	assert.InDelta(t, payment*float64(len(schedule)), sumInterest+sumPrincipal, cent)
	assert.InDelta(t, schedule[0].BeginningLiability-residual, sumPrincipal, cent,
		"principal does not reconcile with the opening liability")
}

func TestBuildLeaseSchedule(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*LeaseContractTerms)
		periods  int
		residual float64
	}{
		{
			name:    "monthly end of period",
			modify:  func(*LeaseContractTerms) {},
			periods: 36,
		},
		{
			name:    "monthly beginning of period",
			modify:  func(lt *LeaseContractTerms) { lt.PaymentTiming = TimingBeginning },
			periods: 36,
		},
		{
			name:     "guaranteed residual value",
			modify:   func(lt *LeaseContractTerms) { lt.GuaranteedResidualValue = 10000 },
			periods:  36,
			residual: 10000,
		},
		{
			name: "quarterly with initial payment and direct costs",
			modify: func(lt *LeaseContractTerms) {
				lt.PaymentFrequency = FrequencyQuarterly
				lt.PaymentAmount = 3000
				lt.InitialPayment = 5000
				lt.InitialDirectCosts = 1200
				lt.LeaseIncentives = 300
			},
			periods: 12,
		},
		{
			name: "zero rate",
			modify: func(lt *LeaseContractTerms) {
				lt.DiscountRateAnnual = 0
				lt.GuaranteedResidualValue = 500
			},
			periods:  36,
			residual: 500,
		},
		{
			name: "long high-rate lease",
			modify: func(lt *LeaseContractTerms) {
				lt.LeaseTermMonths = 240
				lt.LeaseEndDate = NewDate(2044, time.January, 1)
				lt.DiscountRateAnnual = 35
				lt.PaymentAmount = 12345.67
			},
			periods: 240,
		},
		{
			name: "hundred years at 50 percent",
			modify: func(lt *LeaseContractTerms) {
				lt.LeaseTermMonths = 1200
				lt.LeaseEndDate = NewDate(2124, time.January, 1)
				lt.DiscountRateAnnual = 50
			},
			periods: 1200,
		},
		{
			name: "hundred years at 30 percent in advance",
			modify: func(lt *LeaseContractTerms) {
				lt.LeaseTermMonths = 1200
				lt.LeaseEndDate = NewDate(2124, time.January, 1)
				lt.DiscountRateAnnual = 30
				lt.PaymentTiming = TimingBeginning
			},
			periods: 1200,
		},
		{
			name: "fifty years at 100 percent",
			modify: func(lt *LeaseContractTerms) {
				lt.LeaseTermMonths = 600
				lt.LeaseEndDate = NewDate(2074, time.January, 1)
				lt.DiscountRateAnnual = 100
			},
			periods: 600,
		},
		{
			name: "hundred years at 200 percent with residual",
			modify: func(lt *LeaseContractTerms) {
				lt.LeaseTermMonths = 1200
				lt.LeaseEndDate = NewDate(2124, time.January, 1)
				lt.DiscountRateAnnual = 200
				lt.GuaranteedResidualValue = 2500
			},
			periods:  1200,
			residual: 2500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := baseTerms()
			tt.modify(&terms)

			schedule, err := BuildLeaseSchedule(terms)
			require.NoError(t, err)
			require.Len(t, schedule, tt.periods)
			assertScheduleInvariants(t, schedule, terms.PaymentAmount, tt.residual)
		})
	}
}

func TestScheduleScenarioCClosesToResidual(t *testing.T) {
	terms := baseTerms()
	terms.GuaranteedResidualValue = 10000

	schedule, err := BuildLeaseSchedule(terms)
	require.NoError(t, err)
	assert.InDelta(t, 39653.77, schedule[0].BeginningLiability, 0.5)
	assert.InDelta(t, 10000, schedule[len(schedule)-1].EndingLiability, 0.01)
}

func TestScheduleInterestIsMonotonic(t *testing.T) {
	for _, timing := range []PaymentTiming{TimingEnd, TimingBeginning} {
		t.Run(string(timing), func(t *testing.T) {
			terms := baseTerms()
			terms.PaymentTiming = timing
			terms.LeaseTermMonths = 120
			terms.DiscountRateAnnual = 0.4

			schedule, err := BuildLeaseSchedule(terms)
			require.NoError(t, err)
			for i := 0; i+1 < len(schedule); i++ {
				assert.GreaterOrEqual(t, schedule[i].InterestExpense, schedule[i+1].InterestExpense,
					"interest increased between periods %d and %d", i+1, i+2)
			}
		})
	}
}

func TestScheduleLongHighRateFinalPayment(t *testing.T) {
	tests := []struct {
		name   string
		months int
		rate   float64
		timing PaymentTiming
	}{
		{name: "50 percent over 1200 months", months: 1200, rate: 50, timing: TimingEnd},
		{name: "100 percent over 600 months", months: 600, rate: 100, timing: TimingEnd},
		{name: "200 percent over 1200 months", months: 1200, rate: 200, timing: TimingEnd},
		{name: "200 percent over 480 months in advance", months: 480, rate: 200, timing: TimingBeginning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := baseTerms()
			terms.LeaseTermMonths = tt.months
			terms.LeaseEndDate = NewDate(2024+tt.months/12, time.January, 1)
			terms.DiscountRateAnnual = tt.rate
			terms.PaymentTiming = tt.timing

			schedule, err := BuildLeaseSchedule(terms)
			require.NoError(t, err)
			require.Len(t, schedule, tt.months)
			assertScheduleInvariants(t, schedule, terms.PaymentAmount, 0)

			// остаток не накапливает дрейф, последний платеж остается обычным
			assert.InDelta(t, 1000.0, schedule[len(schedule)-1].PaymentAmount, cent)
			for i := 0; i+1 < len(schedule); i++ {
				require.GreaterOrEqual(t, schedule[i].InterestExpense, schedule[i+1].InterestExpense,
					"interest increased between periods %d and %d", i+1, i+2)
			}
		})
	}
}

func TestScheduleFirstRow(t *testing.T) {
	schedule, err := BuildLeaseSchedule(baseTerms())
	require.NoError(t, err)

	first := schedule[0]
	assert.Equal(t, 31824.69, first.BeginningLiability)
	assert.Equal(t, 217.09, first.InterestExpense)
	assert.Equal(t, 782.91, first.PrincipalPayment)
	assert.Equal(t, 1000.0, first.PaymentAmount)
	assert.Equal(t, 884.02, first.Amortization)
	assert.Equal(t, "2024-02-01", first.PaymentDate.String())

	t.Run("beginning timing pays on period start", func(t *testing.T) {
		terms := baseTerms()
		terms.PaymentTiming = TimingBeginning
		schedule, err := BuildLeaseSchedule(terms)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-01", schedule[0].PaymentDate.String())
		assert.Equal(t, 211.75, schedule[0].InterestExpense)
	})
}

func TestScheduleAssetNeverCrossesResidual(t *testing.T) {
	schedule, err := BuildSchedule(ScheduleInput{
		InitialLiability: 0.02,
		InitialAsset:     0.02,
		PaymentAmount:    0.01,
		Periods:          4,
	})
	require.NoError(t, err)
	for _, row := range schedule {
		assert.GreaterOrEqual(t, row.EndingAsset, 0.0)
	}
	assert.Equal(t, 0.0, schedule[3].EndingAsset)
}

func TestBuildScheduleErrors(t *testing.T) {
	tests := []struct {
		name string
		in   ScheduleInput
	}{
		{name: "zero periods", in: ScheduleInput{InitialLiability: 100, PaymentAmount: 10, Periods: 0}},
		{name: "negative periods", in: ScheduleInput{InitialLiability: 100, PaymentAmount: 10, Periods: -3}},
		{name: "negative payment", in: ScheduleInput{InitialLiability: 100, PaymentAmount: -10, Periods: 12}},
		{name: "negative rate", in: ScheduleInput{InitialLiability: 100, PaymentAmount: 10, Periods: 12, PeriodicRate: -0.01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildSchedule(tt.in)
			require.ErrorIs(t, err, ErrInvalidSchedule)
		})
	}
}

func TestBuildScheduleFromRoundedLiability(t *testing.T) {
	r := PeriodicRateFromAnnual(8.5, 12)
	schedule, err := BuildSchedule(ScheduleInput{
		InitialLiability: 31824.69,
		InitialAsset:     31824.69,
		PeriodicRate:     r,
		PaymentAmount:    1000,
		Periods:          36,
		Timing:           TimingEnd,
	})
	require.NoError(t, err)
	assertScheduleInvariants(t, schedule, 1000, 0)
}

func TestSummarizeSchedule(t *testing.T) {
	terms := baseTerms()
	schedule, err := BuildLeaseSchedule(terms)
	require.NoError(t, err)

	summary := SummarizeSchedule(schedule)
	assert.Equal(t, 36, summary.Periods)
	assert.InDelta(t, 36000, summary.TotalPayments, cent)
	assert.InDelta(t, 31824.69, summary.TotalPrincipal, cent)
	assert.InDelta(t, 4175.31, summary.TotalInterest, cent)
	assert.InDelta(t, schedule[0].BeginningLiability, summary.TotalPrincipal, cent)
	assert.InDelta(t, 31824.69, summary.TotalAmortization, cent)
	assert.Equal(t, 0.0, summary.FinalLiability)
	assert.Equal(t, 0.0, summary.FinalAsset)
}
