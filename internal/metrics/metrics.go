package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор коллекторов сервиса расчета аренды
type Metrics struct {
	// ToolCalls счетчик вызовов инструментов
	ToolCalls *prometheus.CounterVec
	// CalculationErrors счетчик ошибок расчетов
	CalculationErrors *prometheus.CounterVec
	// ModificationsApplied счетчик зафиксированных модификаций договоров
	ModificationsApplied *prometheus.CounterVec
	// SchedulePeriods распределение длины построенных графиков
	SchedulePeriods prometheus.Histogram
}

// New регистрирует коллекторы в переданном реестре
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_calls_total",
				Help: "Общее количество вызовов инструментов",
			},
			[]string{"tool_name", "status"},
		),
		CalculationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calculation_errors_total",
				Help: "Количество ошибок расчетов",
			},
			[]string{"tool_name", "error_type"},
		),
		ModificationsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modifications_applied_total",
				Help: "Количество примененных модификаций договоров",
			},
			[]string{"modification_type"},
		),
		SchedulePeriods: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "schedule_periods",
				Help:    "Число периодов в построенных графиках амортизации",
				Buckets: []float64{12, 24, 36, 60, 120, 240, 480},
			},
		),
	}
}

// Noop коллекторы, не привязанные ни к какому реестру
func Noop() *Metrics {
	return New(prometheus.NewRegistry())
}
