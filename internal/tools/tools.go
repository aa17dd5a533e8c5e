package tools

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/cloud-ru/mcp-lease-go/internal/calculations"
	"github.com/cloud-ru/mcp-lease-go/internal/config"
	"github.com/cloud-ru/mcp-lease-go/internal/logging"
	"github.com/cloud-ru/mcp-lease-go/internal/metrics"
	"github.com/cloud-ru/mcp-lease-go/internal/modifications"
	"github.com/cloud-ru/mcp-lease-go/internal/tracing"
	"github.com/cloud-ru/mcp-lease-go/internal/validators"
)

const (
	ToolLeaseMeasurement     = "lease_measurement"
	ToolLeaseSchedule        = "lease_schedule"
	ToolModificationImpact   = "modification_impact"
	ToolValidateModification = "validate_modification"
	ToolContractState        = "contract_state"
	ToolTimingComparison     = "lease_timing_comparison"
)

// ToolHandler представляет обработчик инструмента MCP
type ToolHandler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// Deps зависимости обработчиков инструментов
type Deps struct {
	Config  *config.Config
	Tracer  trace.Tracer
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Config == nil {
		d.Config = &config.Config{
			MaxPayment:       1e9,
			MaxAmount:        1e12,
			MaxTermMonths:    1200,
			MaxRate:          200,
			MaxModifications: 500,
		}
	}
	if d.Tracer == nil {
		d.Tracer = noop.NewTracerProvider().Tracer("")
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Noop()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// NewDeps собирает зависимости обработчиков по конфигурации сервиса.
// Возвращенная функция сбрасывает буферы логгера и останавливает трейсинг.
func NewDeps(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (Deps, func(context.Context) error, error) {
	logger := logging.New(cfg)

	tp, err := tracing.Init(ctx, cfg, logger)
	if err != nil {
		return Deps{}, nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	shutdown := func(ctx context.Context) error {
		_ = logger.Sync()
		return tp.Shutdown(ctx)
	}
	return Deps{
		Config:  cfg,
		Tracer:  tp.Tracer,
		Metrics: metrics.New(reg),
		Logger:  logger,
	}, shutdown, nil
}

// Registry возвращает все инструменты сервиса по именам
func Registry(d Deps) map[string]ToolHandler {
	d = d.withDefaults()
	return map[string]ToolHandler{
		ToolLeaseMeasurement:     LeaseMeasurementHandler(d),
		ToolLeaseSchedule:        LeaseScheduleHandler(d),
		ToolModificationImpact:   ModificationImpactHandler(d),
		ToolValidateModification: ValidateModificationHandler(d),
		ToolContractState:        ContractStateHandler(d),
		ToolTimingComparison:     TimingComparisonHandler(d),
	}
}

type termsRequest struct {
	Terms calculations.LeaseContractTerms `json:"terms"`
}

type contractRequest struct {
	Terms               calculations.LeaseContractTerms    `json:"terms"`
	Modifications       []modifications.ModificationRecord `json:"modifications"`
	Modification        *modifications.ModificationRecord  `json:"modification"`
	SortByEffectiveDate bool                               `json:"sortByEffectiveDate"`
}

// MeasurementResponse результат первоначальной оценки договора
type MeasurementResponse struct {
	CalculationID string                   `json:"calculationId"`
	ContractID    string                   `json:"contractId,omitempty"`
	Currency      string                   `json:"currency,omitempty"`
	Measurement   calculations.Measurement `json:"measurement"`
}

// ScheduleResponse график амортизации с итогами
type ScheduleResponse struct {
	CalculationID string                            `json:"calculationId"`
	ContractID    string                            `json:"contractId,omitempty"`
	Currency      string                            `json:"currency,omitempty"`
	Schedule      []calculations.AmortizationPeriod `json:"schedule"`
	Summary       calculations.ScheduleSummary      `json:"summary"`
}

// TimingComparisonResponse сравнение оплаты в начале и в конце периода
type TimingComparisonResponse struct {
	CalculationID string `json:"calculationId"`
	calculations.TimingComparison
}

// ImpactResponse влияние модификации без фиксации
type ImpactResponse struct {
	CalculationID string `json:"calculationId"`
	modifications.ModificationImpactResult
}

// ValidationResponse итог проверки модификации
type ValidationResponse struct {
	CalculationID string `json:"calculationId"`
	modifications.ValidationResult
}

// ContractStateResponse состояние договора после всех модификаций
type ContractStateResponse struct {
	CalculationID string `json:"calculationId"`
	modifications.ContractState
	BaseTerms calculations.LeaseContractTerms `json:"baseTerms"`
	History   []modifications.HistoryEntry    `json:"history"`
}

// decodeParams переводит карту параметров хоста в типизированный запрос
func decodeParams(params map[string]interface{}, dst interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// call общий каркас инструмента: спан, учет вызова и ошибок
type call struct {
	deps Deps
	tool string
	span trace.Span
}

func (d Deps) begin(ctx context.Context, toolName string) (context.Context, *call) {
	ctx, span := d.Tracer.Start(ctx, toolName)
	return ctx, &call{deps: d, tool: toolName, span: span}
}

func (c *call) validationError(err error) error {
	c.span.SetAttributes(attribute.String("error", "validation_error"))
	c.deps.Metrics.ToolCalls.WithLabelValues(c.tool, "validation_error").Inc()
	c.deps.Metrics.CalculationErrors.WithLabelValues(c.tool, "validation").Inc()
	c.deps.Logger.Warn("tool input rejected", zap.String("tool", c.tool), zap.Error(err))
	return fmt.Errorf("неверные параметры: %w", err)
}

func (c *call) calculationError(err error) error {
	c.span.SetAttributes(attribute.String("error", "calculation_error"))
	c.deps.Metrics.ToolCalls.WithLabelValues(c.tool, "error").Inc()
	c.deps.Metrics.CalculationErrors.WithLabelValues(c.tool, "calculation").Inc()
	c.deps.Logger.Error("tool calculation failed", zap.String("tool", c.tool), zap.Error(err))
	return fmt.Errorf("ошибка при выполнении расчета: %w", err)
}

func (c *call) success(id string, attrs ...attribute.KeyValue) {
	c.span.SetAttributes(append(attrs, attribute.Bool("success", true), attribute.String("calculation_id", id))...)
	c.deps.Metrics.ToolCalls.WithLabelValues(c.tool, "success").Inc()
	c.deps.Logger.Debug("tool call completed", zap.String("tool", c.tool), zap.String("calculation_id", id))
}

func termsAttributes(terms calculations.LeaseContractTerms) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("contract_id", terms.ContractID),
		attribute.Int("lease_term_months", terms.LeaseTermMonths),
		attribute.Float64("payment_amount", terms.PaymentAmount),
		attribute.Float64("discount_rate_annual", terms.DiscountRateAnnual),
		attribute.String("payment_frequency", string(terms.PaymentFrequency)),
		attribute.String("payment_timing", string(terms.PaymentTiming)),
	}
}

// LeaseMeasurementHandler обрабатывает запрос на первоначальную оценку договора
func LeaseMeasurementHandler(d Deps) ToolHandler {
	d = d.withDefaults()
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		_, c := d.begin(ctx, ToolLeaseMeasurement)
		defer c.span.End()

		var req termsRequest
		if err := decodeParams(params, &req); err != nil {
			return nil, c.validationError(err)
		}
		c.span.SetAttributes(termsAttributes(req.Terms)...)

		if err := validators.CheckTerms(d.Config, req.Terms); err != nil {
			return nil, c.validationError(err)
		}

		m, err := calculations.Measure(req.Terms)
		if err != nil {
			return nil, c.calculationError(err)
		}

		id := uuid.NewString()
		c.success(id,
			attribute.Float64("lease_liability", m.LeaseLiability),
			attribute.Float64("right_of_use_asset", m.RightOfUseAsset),
		)
		return &MeasurementResponse{
			CalculationID: id,
			ContractID:    req.Terms.ContractID,
			Currency:      req.Terms.Currency,
			Measurement:   *m,
		}, nil
	}
}

// LeaseScheduleHandler обрабатывает запрос на построение графика амортизации
func LeaseScheduleHandler(d Deps) ToolHandler {
	d = d.withDefaults()
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		_, c := d.begin(ctx, ToolLeaseSchedule)
		defer c.span.End()

		var req termsRequest
		if err := decodeParams(params, &req); err != nil {
			return nil, c.validationError(err)
		}
		c.span.SetAttributes(termsAttributes(req.Terms)...)

		if err := validators.CheckTerms(d.Config, req.Terms); err != nil {
			return nil, c.validationError(err)
		}

		schedule, err := calculations.BuildLeaseSchedule(req.Terms)
		if err != nil {
			return nil, c.calculationError(err)
		}
		summary := calculations.SummarizeSchedule(schedule)
		d.Metrics.SchedulePeriods.Observe(float64(len(schedule)))

		id := uuid.NewString()
		c.success(id,
			attribute.Int("periods", summary.Periods),
			attribute.Float64("total_interest", summary.TotalInterest),
		)
		return &ScheduleResponse{
			CalculationID: id,
			ContractID:    req.Terms.ContractID,
			Currency:      req.Terms.Currency,
			Schedule:      schedule,
			Summary:       summary,
		}, nil
	}
}

// TimingComparisonHandler обрабатывает запрос на сравнение сроков оплаты
func TimingComparisonHandler(d Deps) ToolHandler {
	d = d.withDefaults()
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		_, c := d.begin(ctx, ToolTimingComparison)
		defer c.span.End()

		var req termsRequest
		if err := decodeParams(params, &req); err != nil {
			return nil, c.validationError(err)
		}
		c.span.SetAttributes(termsAttributes(req.Terms)...)

		if err := validators.CheckTerms(d.Config, req.Terms); err != nil {
			return nil, c.validationError(err)
		}

		result, err := calculations.CompareTimings(req.Terms)
		if err != nil {
			return nil, c.calculationError(err)
		}

		id := uuid.NewString()
		c.success(id,
			attribute.String("cheaper_timing", result.CheaperTiming),
			attribute.Float64("interest_savings", result.InterestSavings),
		)
		return &TimingComparisonResponse{CalculationID: id, TimingComparison: *result}, nil
	}
}

// engineFor строит движок по базовому договору и истории модификаций
func (d Deps) engineFor(c *call, req contractRequest) (*modifications.Engine, error) {
	c.span.SetAttributes(termsAttributes(req.Terms)...)
	c.span.SetAttributes(attribute.Int("modifications", len(req.Modifications)))

	if err := validators.CheckTerms(d.Config, req.Terms); err != nil {
		return nil, c.validationError(err)
	}
	if err := validators.CheckModificationCount(d.Config, len(req.Modifications)); err != nil {
		return nil, c.validationError(err)
	}

	records := req.Modifications
	if req.SortByEffectiveDate {
		records = modifications.SortByEffectiveDate(records)
	}

	e, err := modifications.New(req.Terms, records,
		modifications.WithLogger(d.Logger),
		modifications.WithMetrics(d.Metrics),
	)
	if err != nil {
		return nil, c.calculationError(err)
	}
	return e, nil
}

// ModificationImpactHandler обрабатывает запрос на предварительный расчет влияния модификации
func ModificationImpactHandler(d Deps) ToolHandler {
	d = d.withDefaults()
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		_, c := d.begin(ctx, ToolModificationImpact)
		defer c.span.End()

		var req contractRequest
		if err := decodeParams(params, &req); err != nil {
			return nil, c.validationError(err)
		}
		if req.Modification == nil {
			return nil, c.validationError(fmt.Errorf("invalid parameter: modification"))
		}
		c.span.SetAttributes(attribute.String("modification_type", string(req.Modification.Type)))

		e, err := d.engineFor(c, req)
		if err != nil {
			return nil, err
		}

		result, err := e.CalculateModificationImpact(*req.Modification)
		if err != nil {
			return nil, c.calculationError(err)
		}

		id := uuid.NewString()
		c.success(id,
			attribute.Float64("liability_change", result.Impact.LiabilityChange),
			attribute.Float64("net_impact", result.Impact.NetImpact),
		)
		return &ImpactResponse{CalculationID: id, ModificationImpactResult: result}, nil
	}
}

// ValidateModificationHandler обрабатывает запрос на проверку модификации
func ValidateModificationHandler(d Deps) ToolHandler {
	d = d.withDefaults()
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		_, c := d.begin(ctx, ToolValidateModification)
		defer c.span.End()

		var req contractRequest
		if err := decodeParams(params, &req); err != nil {
			return nil, c.validationError(err)
		}
		if req.Modification == nil {
			return nil, c.validationError(fmt.Errorf("invalid parameter: modification"))
		}
		c.span.SetAttributes(attribute.String("modification_type", string(req.Modification.Type)))

		result := modifications.Validate(*req.Modification)

		id := uuid.NewString()
		c.success(id,
			attribute.Bool("is_valid", result.IsValid),
			attribute.Int("violations", len(result.Errors)),
		)
		return &ValidationResponse{CalculationID: id, ValidationResult: result}, nil
	}
}

// ContractStateHandler обрабатывает запрос на текущее состояние договора
func ContractStateHandler(d Deps) ToolHandler {
	d = d.withDefaults()
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		_, c := d.begin(ctx, ToolContractState)
		defer c.span.End()

		var req contractRequest
		if err := decodeParams(params, &req); err != nil {
			return nil, c.validationError(err)
		}

		e, err := d.engineFor(c, req)
		if err != nil {
			return nil, err
		}

		state, err := e.CurrentContractState()
		if err != nil {
			return nil, c.calculationError(err)
		}

		id := uuid.NewString()
		c.success(id,
			attribute.Float64("lease_liability", state.Measurement.LeaseLiability),
			attribute.Int("periods", len(state.Schedule)),
		)
		return &ContractStateResponse{
			CalculationID: id,
			ContractState: state,
			BaseTerms:     e.Base(),
			History:       e.ModificationHistory(),
		}, nil
	}
}
