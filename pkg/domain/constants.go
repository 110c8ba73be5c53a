package domain

import "math"

// Математические константы
const (
	// Epsilon порог, ниже которого значение переменной считается нулевым
	Epsilon = 1e-6

	// SolverTolerance допуск при проверке балансовых тождеств
	SolverTolerance = 1e-4
)

// Параметры модели
const (
	// BigMTrips верхняя граница числа рейсов на маршруте за период
	BigMTrips = 10000.0

	// SlackPenalty штраф за единицу неудовлетворённого спроса
	SlackPenalty = 10000.0
)

// Пороги утилизации для аналитики
const (
	DefaultPlantUtilizationThreshold   = 90.0
	DefaultRouteUtilizationThreshold   = 90.0
	DefaultStorageUtilizationThreshold = 85.0
	DefaultTransportAlertThreshold     = 80.0
	DefaultServiceLevelThreshold       = 98.0
)

// FloatEquals сравнивает два float64 с учётом Epsilon
func FloatEquals(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// IsZero проверяет, равно ли значение нулю
func IsZero(v float64) bool {
	return math.Abs(v) < Epsilon
}

// IsPositive проверяет, положительно ли значение
func IsPositive(v float64) bool {
	return v > Epsilon
}
