package calculations

import (
	"fmt"
	"math"
	"sort"

	"github.com/cloud-ru/mcp-lease-go/pkg/utils"
)

// ScheduleInput входные данные построителя графика амортизации
type ScheduleInput struct {
	InitialLiability   float64
	InitialAsset       float64
	PeriodicRate       float64
	PaymentAmount      float64
	Periods            int
	ResidualValue      float64
	AssetResidualValue float64
	Timing             PaymentTiming
	StartDate          Date
	MonthsPerPeriod    int
}

func (in ScheduleInput) validate() error {
	if in.Periods <= 0 {
		return fmt.Errorf("%w: number of periods must be positive, got %d", ErrInvalidSchedule, in.Periods)
	}
	if in.PaymentAmount < 0 {
		return fmt.Errorf("%w: payment amount must be non-negative, got %v", ErrInvalidSchedule, in.PaymentAmount)
	}
	if in.PeriodicRate < 0 {
		return fmt.Errorf("%w: periodic rate must be non-negative, got %v", ErrInvalidSchedule, in.PeriodicRate)
	}
	for name, v := range map[string]float64{
		"initial liability": in.InitialLiability,
		"initial asset":     in.InitialAsset,
		"periodic rate":     in.PeriodicRate,
		"payment amount":    in.PaymentAmount,
		"residual value":    in.ResidualValue,
		"asset residual":    in.AssetResidualValue,
	} {
		if !utils.IsFinite(v) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidSchedule, name)
		}
	}
	return nil
}

// halfCent расхождение входного обязательства с приведенной стоимостью
// потока, которое считается погрешностью округления
const halfCent = 0.005

// liabilityBalances остаток обязательства на начало периодов 1..n в замкнутой
// форме, b[n+1] равен остаточной стоимости. Остаток считается как приведенная
// стоимость оставшихся платежей и остаточной стоимости, поэтому ошибка
// плавающей точки не накапливается от периода к периоду.
func liabilityBalances(in ScheduleInput, residual float64) []float64 {
	n, r := in.Periods, in.PeriodicRate
	remaining := func(p int) float64 {
		m := n - p + 1
		return presentValueOfAnnuity(in.PaymentAmount, r, m, in.Timing) + presentValueOfLumpSum(residual, r, m)
	}

	// Обязательство, не равное стоимости потока, наращивается по ставке
	gap := in.InitialLiability - remaining(1)
	if math.Abs(gap) < halfCent {
		gap = 0
	}

	b := make([]float64, n+2)
	growth := 1.0
	for p := 1; p <= n; p++ {
		b[p] = remaining(p)
		if gap != 0 {
			b[p] += gap * growth
			growth *= 1.0 + r
		}
	}
	b[n+1] = residual
	return b
}

// allocateInterest округляет процент каждого периода до копеек и раскладывает
// остаток округления по копейке так, чтобы сумма стала равна target.
// Копейки достаются периодам с наибольшей погрешностью округления, пока это
// не нарушает убывание процентов.
func allocateInterest(exact []float64, target float64) []float64 {
	n := len(exact)
	cents := make([]int64, n)
	var sum int64
	for i, v := range exact {
		cents[i] = toCents(v)
		sum += cents[i]
	}

	left := toCents(target) - sum
	step := int64(1)
	if left < 0 {
		step, left = -1, -left
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		ri := (exact[order[i]] - float64(cents[order[i]])/100) * float64(step)
		rj := (exact[order[j]] - float64(cents[order[j]])/100) * float64(step)
		return ri > rj
	})

	fits := func(p int) bool {
		if step > 0 {
			return p == 0 || cents[p-1] > cents[p]
		}
		return p == n-1 || cents[p+1] < cents[p]
	}

	for left > 0 {
		moved := false
		for _, p := range order {
			if left == 0 {
				break
			}
			if fits(p) {
				cents[p] += step
				left--
				moved = true
			}
		}
		if !moved {
			// проценты не убывают: остаток уходит в крайний период
			p := 0
			if step < 0 {
				p = n - 1
			}
			cents[p] += step
			left--
		}
	}

	out := make([]float64, n)
	for i, c := range cents {
		out[i] = float64(c) / 100
	}
	return out
}

func toCents(v float64) int64 {
	return int64(math.Round(utils.Round2(v) * 100))
}

// BuildSchedule строит график амортизации обязательства и актива.
//
// Остатки обязательства считаются в замкнутой форме, строки графика ведутся
// в копейках: начальный остаток плюс проценты минус платеж дает конечный
// остаток, а сумма основного долга равна начальному обязательству за вычетом
// остаточной стоимости. Последний платеж закрывает обязательство ровно до
// остаточной стоимости. Актив амортизируется линейно, последний период
// поглощает остаток округления.
func BuildSchedule(in ScheduleInput) ([]AmortizationPeriod, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	n := in.Periods
	r := in.PeriodicRate
	payment := utils.Round2(in.PaymentAmount)
	residual := utils.Round2(in.ResidualValue)
	opening := utils.Round2(in.InitialLiability)
	assetTarget := utils.Round2(in.AssetResidualValue)
	monthsPerPeriod := in.MonthsPerPeriod
	if monthsPerPeriod <= 0 {
		monthsPerPeriod = 1
	}

	balances := liabilityBalances(in, residual)
	finalPaid := balances[n]*(1.0+r) - residual
	if in.Timing == TimingBeginning {
		finalPaid = balances[n] - residual/(1.0+r)
	}

	exact := make([]float64, n)
	for p := 1; p <= n; p++ {
		paid := in.PaymentAmount
		if p == n {
			paid = finalPaid
		}
		exact[p-1] = balances[p+1] - balances[p] + paid
		if !utils.IsFinite(exact[p-1]) {
			return nil, fmt.Errorf("%w: liability balance overflows in period %d", ErrInvalidSchedule, p)
		}
	}
	finalPaid = utils.Round2(finalPaid)
	interest := allocateInterest(exact, float64(n-1)*payment+finalPaid-(opening-residual))

	asset := utils.Round2(in.InitialAsset)
	straightLine := utils.Round2((asset - assetTarget) / float64(n))

	schedule := make([]AmortizationPeriod, 0, n)
	liability := opening

	for p := 1; p <= n; p++ {
		beginning := liability
		rowInterest := interest[p-1]

		var paid, principal, ending float64
		if p == n {
			ending = residual
			principal = utils.Round2(beginning - residual)
			paid = utils.Round2(rowInterest + principal)
		} else {
			paid = payment
			principal = utils.Round2(paid - rowInterest)
			ending = utils.Round2(beginning - principal)
		}
		liability = ending

		beginningAsset := asset
		amortization := straightLine
		switch {
		case p == n:
			amortization = beginningAsset - assetTarget
		case amortization > 0 && beginningAsset-amortization < assetTarget:
			amortization = beginningAsset - assetTarget
		case amortization < 0 && beginningAsset-amortization > assetTarget:
			amortization = beginningAsset - assetTarget
		}
		amortization = utils.Round2(amortization)
		asset = utils.Round2(beginningAsset - amortization)
		if p == n {
			asset = assetTarget
		}

		schedule = append(schedule, AmortizationPeriod{
			Period:             p,
			PaymentDate:        paymentDate(in.StartDate, p, monthsPerPeriod, in.Timing),
			BeginningLiability: beginning,
			InterestExpense:    rowInterest,
			PaymentAmount:      paid,
			PrincipalPayment:   principal,
			EndingLiability:    ending,
			BeginningAsset:     beginningAsset,
			Amortization:       amortization,
			EndingAsset:        asset,
		})
	}

	return schedule, nil
}

func paymentDate(start Date, period, monthsPerPeriod int, timing PaymentTiming) Date {
	if timing == TimingBeginning {
		return start.AddMonths((period - 1) * monthsPerPeriod)
	}
	return start.AddMonths(period * monthsPerPeriod)
}

// ScheduleOption настраивает построение графика по договору
type ScheduleOption func(*scheduleOptions)

type scheduleOptions struct {
	assetAdjustment float64
}

// WithAssetAdjustment корректирует стоимость актива на дату начала графика
func WithAssetAdjustment(amount float64) ScheduleOption {
	return func(o *scheduleOptions) {
		o.assetAdjustment += amount
	}
}

// BuildLeaseSchedule строит график по условиям договора. Первоначальный платеж
// погашается в дату начала аренды, поэтому график обязательства открывается
// без него; актив открывается полной стоимостью права пользования.
func BuildLeaseSchedule(terms LeaseContractTerms, opts ...ScheduleOption) ([]AmortizationPeriod, error) {
	var o scheduleOptions
	for _, opt := range opts {
		opt(&o)
	}

	m, err := measure(terms)
	if err != nil {
		return nil, err
	}
	monthsPerPeriod, err := terms.PaymentFrequency.MonthsPerPeriod()
	if err != nil {
		return nil, err
	}

	return BuildSchedule(ScheduleInput{
		InitialLiability:   m.liability - terms.InitialPayment,
		InitialAsset:       m.asset + o.assetAdjustment,
		PeriodicRate:       m.periodicRate,
		PaymentAmount:      terms.PaymentAmount,
		Periods:            m.periods,
		ResidualValue:      terms.GuaranteedResidualValue,
		AssetResidualValue: terms.GuaranteedResidualValue,
		Timing:             terms.PaymentTiming,
		StartDate:          terms.LeaseStartDate,
		MonthsPerPeriod:    monthsPerPeriod,
	})
}

// SummarizeSchedule считает итоги по графику
func SummarizeSchedule(schedule []AmortizationPeriod) ScheduleSummary {
	summary := ScheduleSummary{Periods: len(schedule)}
	for _, row := range schedule {
		summary.TotalPayments += row.PaymentAmount
		summary.TotalInterest += row.InterestExpense
		summary.TotalPrincipal += row.PrincipalPayment
		summary.TotalAmortization += row.Amortization
	}
	summary.TotalPayments = utils.Round2(summary.TotalPayments)
	summary.TotalInterest = utils.Round2(summary.TotalInterest)
	summary.TotalPrincipal = utils.Round2(summary.TotalPrincipal)
	summary.TotalAmortization = utils.Round2(summary.TotalAmortization)
	if len(schedule) > 0 {
		last := schedule[len(schedule)-1]
		summary.FinalLiability = last.EndingLiability
		summary.FinalAsset = last.EndingAsset
	}
	return summary
}
