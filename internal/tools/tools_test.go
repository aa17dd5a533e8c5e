package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/cloud-ru/mcp-lease-go/internal/calculations"
	"github.com/cloud-ru/mcp-lease-go/internal/config"
	"github.com/cloud-ru/mcp-lease-go/internal/metrics"
	"github.com/cloud-ru/mcp-lease-go/internal/modifications"
)

const termsJSON = `{
	"contractId": "LC-001",
	"currency": "BRL",
	"leaseStartDate": "2024-01-01",
	"leaseEndDate": "2027-01-01",
	"leaseTermMonths": 36,
	"paymentAmount": 1000,
	"paymentFrequency": "monthly",
	"paymentTiming": "end",
	"discountRateAnnual": 8.5
}`

func params(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var p map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func testDeps() (Deps, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return Deps{
		Config: &config.Config{
			MaxPayment:       1e9,
			MaxAmount:        1e12,
			MaxTermMonths:    1200,
			MaxRate:          200,
			MaxModifications: 10,
		},
		Tracer:  noop.NewTracerProvider().Tracer("test"),
		Metrics: m,
	}, m
}

func TestRegistry(t *testing.T) {
	deps, _ := testDeps()
	reg := Registry(deps)

	for _, name := range []string{
		ToolLeaseMeasurement, ToolLeaseSchedule, ToolModificationImpact,
		ToolValidateModification, ToolContractState, ToolTimingComparison,
	} {
		assert.Contains(t, reg, name)
	}
	assert.Len(t, reg, 6)
}

func TestLeaseMeasurementHandler(t *testing.T) {
	deps, m := testDeps()
	handler := LeaseMeasurementHandler(deps)

	out, err := handler(context.Background(), params(t, `{"terms": `+termsJSON+`}`))
	require.NoError(t, err)

	resp, ok := out.(*MeasurementResponse)
	require.True(t, ok)
	assert.InDelta(t, 31824.69, resp.Measurement.LeaseLiability, 0.5)
	assert.Equal(t, 36, resp.Measurement.NumberOfPeriods)
	assert.Equal(t, "LC-001", resp.ContractID)
	assert.Equal(t, "BRL", resp.Currency)
	_, err = uuid.Parse(resp.CalculationID)
	assert.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues(ToolLeaseMeasurement, "success")))
}

func TestLeaseMeasurementHandlerValidation(t *testing.T) {
	deps, m := testDeps()
	handler := LeaseMeasurementHandler(deps)

	raw := `{"terms": {"leaseStartDate": "2024-01-01", "leaseEndDate": "2027-01-01",
		"leaseTermMonths": 5000, "paymentAmount": 1000, "discountRateAnnual": 8.5}}`
	_, err := handler(context.Background(), params(t, raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leaseTermMonths")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues(ToolLeaseMeasurement, "validation_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CalculationErrors.WithLabelValues(ToolLeaseMeasurement, "validation")))
}

func TestLeaseMeasurementHandlerCalculationError(t *testing.T) {
	deps, m := testDeps()
	handler := LeaseMeasurementHandler(deps)

	raw := `{"terms": {"leaseStartDate": "2024-01-01", "leaseEndDate": "2023-01-01",
		"leaseTermMonths": 36, "paymentAmount": 1000, "discountRateAnnual": 8.5}}`
	_, err := handler(context.Background(), params(t, raw))
	require.Error(t, err)
	assert.True(t, errors.Is(err, calculations.ErrInvalidTerm))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CalculationErrors.WithLabelValues(ToolLeaseMeasurement, "calculation")))
}

func TestLeaseScheduleHandler(t *testing.T) {
	deps, _ := testDeps()
	handler := LeaseScheduleHandler(deps)

	out, err := handler(context.Background(), params(t, `{"terms": `+termsJSON+`}`))
	require.NoError(t, err)

	resp := out.(*ScheduleResponse)
	require.Len(t, resp.Schedule, 36)
	assert.Equal(t, 36, resp.Summary.Periods)
	assert.InDelta(t, 36000, resp.Summary.TotalPayments, 0.01)
	assert.InDelta(t, 0, resp.Summary.FinalLiability, 0.01)
	assert.InDelta(t, 217.09, resp.Schedule[0].InterestExpense, 0.01)
}

func TestTimingComparisonHandler(t *testing.T) {
	deps, _ := testDeps()
	out, err := TimingComparisonHandler(deps)(context.Background(), params(t, `{"terms": `+termsJSON+`}`))
	require.NoError(t, err)

	resp := out.(*TimingComparisonResponse)
	assert.Equal(t, "beginning", resp.CheaperTiming)
	assert.InDelta(t, 217.09, resp.LiabilityDiff, 0.5)
}

func TestModificationImpactHandler(t *testing.T) {
	deps, m := testDeps()
	handler := ModificationImpactHandler(deps)

	raw := `{"terms": ` + termsJSON + `, "modifications": [], "modification": {
		"description": "extend by one year",
		"modificationDate": "2025-01-01",
		"effectiveDate": "2025-01-01",
		"modificationType": "term_extension",
		"termChangeMonths": 12
	}}`
	out, err := handler(context.Background(), params(t, raw))
	require.NoError(t, err)

	resp := out.(*ImpactResponse)
	assert.Equal(t, 36, resp.BeforeModification.RemainingTermMonths)
	assert.Equal(t, 48, resp.AfterModification.RemainingTermMonths)
	assert.Equal(t, 12, resp.Impact.TermChange)
	assert.Greater(t, resp.Impact.LiabilityChange, 0.0)

	// предварительный расчет не фиксирует модификацию
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ModificationsApplied.WithLabelValues("term_extension")))
}

func TestModificationImpactHandlerMissingModification(t *testing.T) {
	deps, _ := testDeps()
	_, err := ModificationImpactHandler(deps)(context.Background(), params(t, `{"terms": `+termsJSON+`}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modification")
}

func TestModificationImpactHandlerInvalidRecord(t *testing.T) {
	deps, m := testDeps()
	raw := `{"terms": ` + termsJSON + `, "modification": {
		"description": "",
		"modificationDate": "2025-01-01",
		"effectiveDate": "2025-01-01",
		"modificationType": "payment_change",
		"newMonthlyPayment": 1200
	}}`
	_, err := ModificationImpactHandler(deps)(context.Background(), params(t, raw))
	require.Error(t, err)
	assert.True(t, errors.Is(err, modifications.ErrInvalidModification))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CalculationErrors.WithLabelValues(ToolModificationImpact, "calculation")))
}

func TestValidateModificationHandler(t *testing.T) {
	deps, _ := testDeps()
	handler := ValidateModificationHandler(deps)

	raw := `{"modification": {
		"description": "",
		"modificationDate": "2025-02-01",
		"effectiveDate": "2025-01-01",
		"modificationType": "rate_change",
		"modificationFee": -10
	}}`
	out, err := handler(context.Background(), params(t, raw))
	require.NoError(t, err)

	resp := out.(*ValidationResponse)
	assert.False(t, resp.IsValid)
	assert.GreaterOrEqual(t, len(resp.Errors), 3)
	assert.NotEmpty(t, resp.CalculationID)
}

func TestContractStateHandler(t *testing.T) {
	deps, m := testDeps()
	handler := ContractStateHandler(deps)

	raw := `{"terms": ` + termsJSON + `, "sortByEffectiveDate": true, "modifications": [
		{
			"description": "raise rent",
			"modificationDate": "2025-06-01",
			"effectiveDate": "2025-06-01",
			"modificationType": "payment_change",
			"newMonthlyPayment": 1100
		},
		{
			"description": "extend by one year",
			"modificationDate": "2025-01-01",
			"effectiveDate": "2025-01-01",
			"modificationType": "term_extension",
			"termChangeMonths": 12
		}
	]}`
	out, err := handler(context.Background(), params(t, raw))
	require.NoError(t, err)

	resp := out.(*ContractStateResponse)
	assert.Equal(t, 2, resp.ModificationsApplied)
	assert.Equal(t, 48, resp.Terms.LeaseTermMonths)
	assert.Equal(t, 1100.0, resp.Terms.PaymentAmount)
	assert.Len(t, resp.Schedule, 48)
	require.Len(t, resp.History, 2)
	assert.Equal(t, modifications.TypeTermExtension, resp.History[0].Modification.Type)
	assert.Equal(t, 36, resp.BaseTerms.LeaseTermMonths)
	assert.Equal(t, 1000.0, resp.BaseTerms.PaymentAmount)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModificationsApplied.WithLabelValues("payment_change")))
}

func TestContractStateHandlerTooManyModifications(t *testing.T) {
	deps, _ := testDeps()
	deps.Config.MaxModifications = 0

	raw := `{"terms": ` + termsJSON + `, "modifications": [{
		"description": "other",
		"modificationDate": "2025-01-01",
		"effectiveDate": "2025-01-01",
		"modificationType": "other"
	}]}`
	_, err := ContractStateHandler(deps)(context.Background(), params(t, raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modifications")
}

func TestResponseEncodesCalculationID(t *testing.T) {
	deps, _ := testDeps()
	out, err := ValidateModificationHandler(deps)(context.Background(), params(t, `{"modification": {
		"description": "noop",
		"modificationDate": "2025-01-01",
		"effectiveDate": "2025-01-01",
		"modificationType": "other"
	}}`))
	require.NoError(t, err)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"calculationId"`)
	assert.Contains(t, string(raw), `"isValid":true`)
}

func TestDefaultsWithEmptyDeps(t *testing.T) {
	out, err := Registry(Deps{})[ToolLeaseMeasurement](context.Background(), params(t, `{"terms": `+termsJSON+`}`))
	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestNewDeps(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.OTELEndpoint = ""
	cfg.LogLevel = "error"

	deps, shutdown, err := NewDeps(context.Background(), cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	require.NotNil(t, deps.Logger)
	require.NotNil(t, deps.Tracer)

	_, err = Registry(deps)[ToolLeaseSchedule](context.Background(), params(t, `{"terms": `+termsJSON+`}`))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(deps.Metrics.ToolCalls.WithLabelValues(ToolLeaseSchedule, "success")))

	assert.NoError(t, shutdown(context.Background()))
}
