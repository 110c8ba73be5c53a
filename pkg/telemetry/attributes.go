package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Модель
	AttrModelVariables   = "model.variables"
	AttrModelConstraints = "model.constraints"
	AttrModelType        = "model.optimization_type"
	AttrModelPeriods     = "model.periods"
	AttrModelScenarios   = "model.scenarios"

	// Решатель
	AttrSolverBackend     = "solver.backend"
	AttrSolverRequested   = "solver.requested_backend"
	AttrSolverTermination = "solver.termination"
	AttrSolverObjective   = "solver.objective_value"
	AttrSolverFallback    = "solver.fallback_used"

	// Валидация
	AttrValidationErrors = "validation.errors"
	AttrValidationPassed = "validation.passed"

	// Аналитика
	AttrBottlenecksCount = "analytics.bottlenecks_count"
	AttrResilienceScore  = "analytics.resilience_score"
	AttrAlertsCount      = "analytics.alerts_count"
)

// ModelAttributes возвращает атрибуты построенной модели
func ModelAttributes(optimizationType string, variables, constraints, periods, scenarios int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrModelType, optimizationType),
		attribute.Int(AttrModelVariables, variables),
		attribute.Int(AttrModelConstraints, constraints),
		attribute.Int(AttrModelPeriods, periods),
		attribute.Int(AttrModelScenarios, scenarios),
	}
}

// SolverAttributes возвращает атрибуты запуска решателя
func SolverAttributes(requested, used, termination string, objective float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSolverRequested, requested),
		attribute.String(AttrSolverBackend, used),
		attribute.String(AttrSolverTermination, termination),
		attribute.Float64(AttrSolverObjective, objective),
		attribute.Bool(AttrSolverFallback, requested != used),
	}
}

// ValidationAttributes возвращает атрибуты валидации
func ValidationAttributes(errorsCount int, passed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrValidationErrors, errorsCount),
		attribute.Bool(AttrValidationPassed, passed),
	}
}
