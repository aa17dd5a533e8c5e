package modifications

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cloud-ru/mcp-lease-go/internal/calculations"
	"github.com/cloud-ru/mcp-lease-go/internal/metrics"
	"github.com/cloud-ru/mcp-lease-go/pkg/utils"
)

// MeasurementSnapshot оценка договора в одной версии
type MeasurementSnapshot struct {
	LeaseLiability      float64 `json:"leaseLiability"`
	RightOfUseAsset     float64 `json:"rightOfUseAsset"`
	MonthlyPayment      float64 `json:"monthlyPayment"`
	DiscountRate        float64 `json:"discountRate"`
	RemainingTermMonths int     `json:"remainingTermMonths"`
	ElapsedMonths       int     `json:"elapsedMonths"`
	Terminated          bool    `json:"terminated"`
}

// Impact разница между оценками до и после модификации
type Impact struct {
	TermChange      int     `json:"termChange"`
	PaymentChange   float64 `json:"paymentChange"`
	RateChange      float64 `json:"rateChange"`
	LiabilityChange float64 `json:"liabilityChange"`
	AssetChange     float64 `json:"assetChange"`
	NetImpact       float64 `json:"netImpact"`
}

// ModificationImpactResult влияние одной модификации
type ModificationImpactResult struct {
	Modification       ModificationRecord  `json:"modification"`
	BeforeModification MeasurementSnapshot `json:"beforeModification"`
	AfterModification  MeasurementSnapshot `json:"afterModification"`
	Impact             Impact              `json:"impact"`
}

// HistoryEntry зафиксированная модификация и ее влияние на момент применения
type HistoryEntry struct {
	Modification              ModificationRecord       `json:"modification"`
	ImpactAtTimeOfApplication ModificationImpactResult `json:"impactAtTimeOfApplication"`
}

// ContractState текущее состояние договора после всех модификаций
type ContractState struct {
	Terms                calculations.LeaseContractTerms   `json:"terms"`
	Measurement          MeasurementSnapshot               `json:"measurement"`
	Schedule             []calculations.AmortizationPeriod `json:"schedule"`
	ModificationsApplied int                               `json:"modificationsApplied"`
}

type evaluation struct {
	snapshot MeasurementSnapshot
	schedule []calculations.AmortizationPeriod
}

// Engine неизменяемая версия договора: базовые условия и зафиксированные
// модификации. Все методы чистые, экземпляр можно разделять между горутинами.
type Engine struct {
	base    calculations.LeaseContractTerms
	records []ModificationRecord
	history []HistoryEntry
	state   State
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option настраивает Engine
type Option func(*Engine)

// WithLogger задает логгер
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics задает коллекторы метрик
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New проверяет базовые условия и применяет модификации в переданном порядке.
// Движок не сортирует записи; для хронологии см. SortByEffectiveDate.
func New(base calculations.LeaseContractTerms, records []ModificationRecord, opts ...Option) (*Engine, error) {
	e := &Engine{
		base:   base,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := calculations.ValidateTerms(base); err != nil {
		return nil, err
	}

	e.state = State{Terms: base}
	for i, rec := range records {
		next, impact, err := e.step(e.state, rec)
		if err != nil {
			return nil, fmt.Errorf("modification %d (%s): %w", i+1, rec.Type, err)
		}
		e.commit(next, rec, impact)
	}

	e.logger.Debug("lease engine ready",
		zap.String("contract_id", base.ContractID),
		zap.Int("modifications", len(e.records)),
	)
	return e, nil
}

func (e *Engine) clone() *Engine {
	c := *e
	c.records = append([]ModificationRecord(nil), e.records...)
	c.history = append([]HistoryEntry(nil), e.history...)
	return &c
}

func (e *Engine) commit(next State, rec ModificationRecord, impact ModificationImpactResult) {
	e.state = next
	e.records = append(e.records, rec)
	e.history = append(e.history, HistoryEntry{Modification: rec, ImpactAtTimeOfApplication: impact})
	if e.metrics != nil {
		e.metrics.ModificationsApplied.WithLabelValues(string(rec.Type)).Inc()
	}
}

// step чистый переход: проверка, применение и оценка до/после
func (e *Engine) step(state State, rec ModificationRecord) (State, ModificationImpactResult, error) {
	if v := Validate(rec); !v.IsValid {
		return state, ModificationImpactResult{}, fmt.Errorf("%w: %s", ErrInvalidModification, strings.Join(v.Errors, "; "))
	}
	if state.Terminated {
		return state, ModificationImpactResult{}, fmt.Errorf("%w: contract was terminated on %s",
			ErrInvalidModification, state.Terms.LeaseEndDate)
	}

	before, err := evaluate(state)
	if err != nil {
		return state, ModificationImpactResult{}, err
	}

	h, _ := HandlerFor(rec.Type)
	next, err := h.Apply(state, rec)
	if err != nil {
		return state, ModificationImpactResult{}, err
	}
	next.ElapsedMonths = e.base.LeaseStartDate.MonthsUntil(rec.EffectiveDate)

	after, err := evaluate(next)
	if err != nil {
		return state, ModificationImpactResult{}, fmt.Errorf("%w: %w", ErrInvalidModification, err)
	}

	return next, impactOf(rec, before.snapshot, after.snapshot), nil
}

func evaluate(state State) (evaluation, error) {
	terms := state.Terms
	if state.Terminated {
		return evaluation{
			snapshot: MeasurementSnapshot{
				DiscountRate:  terms.DiscountRateAnnual,
				ElapsedMonths: state.ElapsedMonths,
				Terminated:    true,
			},
			schedule: []calculations.AmortizationPeriod{},
		}, nil
	}

	m, err := calculations.Measure(terms)
	if err != nil {
		return evaluation{}, err
	}
	schedule, err := calculations.BuildLeaseSchedule(terms, calculations.WithAssetAdjustment(state.AssetAdjustment))
	if err != nil {
		return evaluation{}, err
	}

	return evaluation{
		snapshot: MeasurementSnapshot{
			LeaseLiability:      m.LeaseLiability,
			RightOfUseAsset:     utils.Round2(m.RightOfUseAsset + state.AssetAdjustment),
			MonthlyPayment:      terms.PaymentAmount,
			DiscountRate:        terms.DiscountRateAnnual,
			RemainingTermMonths: terms.LeaseTermMonths,
			ElapsedMonths:       state.ElapsedMonths,
		},
		schedule: schedule,
	}, nil
}

func impactOf(rec ModificationRecord, before, after MeasurementSnapshot) ModificationImpactResult {
	liabilityChange := utils.Round2(after.LeaseLiability - before.LeaseLiability)
	net := liabilityChange + rec.ModificationFee + rec.AdditionalCosts - rec.IncentivesReceived
	if t, ok := rec.Change.(Termination); ok {
		net -= t.TerminationFee
	}

	return ModificationImpactResult{
		Modification:       rec,
		BeforeModification: before,
		AfterModification:  after,
		Impact: Impact{
			TermChange:      after.RemainingTermMonths - before.RemainingTermMonths,
			PaymentChange:   utils.Round2(after.MonthlyPayment - before.MonthlyPayment),
			RateChange:      after.DiscountRate - before.DiscountRate,
			LiabilityChange: liabilityChange,
			AssetChange:     utils.Round2(after.RightOfUseAsset - before.RightOfUseAsset),
			NetImpact:       utils.Round2(net),
		},
	}
}

// WithModification фиксирует модификацию и возвращает новую версию движка.
// Получатель не изменяется.
func (e *Engine) WithModification(rec ModificationRecord) (*Engine, ModificationImpactResult, error) {
	next, impact, err := e.step(e.state, rec)
	if err != nil {
		return nil, ModificationImpactResult{}, err
	}

	c := e.clone()
	c.commit(next, rec, impact)

	c.logger.Info("lease modification applied",
		zap.String("contract_id", e.base.ContractID),
		zap.String("modification_type", string(rec.Type)),
		zap.Float64("liability_change", impact.Impact.LiabilityChange),
		zap.Float64("net_impact", impact.Impact.NetImpact),
	)
	return c, impact, nil
}

// CalculateModificationImpact предварительный расчет влияния без фиксации
func (e *Engine) CalculateModificationImpact(rec ModificationRecord) (ModificationImpactResult, error) {
	_, impact, err := e.step(e.state, rec)
	if err != nil {
		return ModificationImpactResult{}, err
	}
	return impact, nil
}

// ValidateModification проверяет запись, не применяя ее
func (e *Engine) ValidateModification(rec ModificationRecord) ValidationResult {
	return Validate(rec)
}

// CurrentContractState заново проигрывает все модификации от базового договора
func (e *Engine) CurrentContractState() (ContractState, error) {
	state := State{Terms: e.base}
	for i, rec := range e.records {
		next, _, err := e.step(state, rec)
		if err != nil {
			return ContractState{}, fmt.Errorf("replay modification %d: %w", i+1, err)
		}
		state = next
	}

	ev, err := evaluate(state)
	if err != nil {
		return ContractState{}, err
	}
	if e.metrics != nil {
		e.metrics.SchedulePeriods.Observe(float64(len(ev.schedule)))
	}

	return ContractState{
		Terms:                state.Terms,
		Measurement:          ev.snapshot,
		Schedule:             ev.schedule,
		ModificationsApplied: len(e.records),
	}, nil
}

// ModificationHistory зафиксированные модификации в порядке применения
func (e *Engine) ModificationHistory() []HistoryEntry {
	return append([]HistoryEntry(nil), e.history...)
}

// Base базовые условия договора
func (e *Engine) Base() calculations.LeaseContractTerms {
	return e.base
}

// SortByEffectiveDate возвращает копию записей, упорядоченную по дате вступления
// в силу; порядок записей с одинаковой датой сохраняется
func SortByEffectiveDate(records []ModificationRecord) []ModificationRecord {
	sorted := append([]ModificationRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveDate.Before(sorted[j].EffectiveDate)
	})
	return sorted
}
