// Package scenario порождает сценарии спроса из базового сигнала.
package scenario

import (
	"math"
	"strings"

	"clinkerplan/internal/dataset"
	"clinkerplan/pkg/apperror"
	"clinkerplan/pkg/domain"
)

// ProbabilityTolerance допуск нормировки вероятностей
const ProbabilityTolerance = 1e-6

// Key ключ сценарного спроса (сценарий, завод, период)
type Key struct {
	Scenario string
	PlantID  string
	Period   string
}

// Set порождённый набор сценариев
type Set struct {
	Names       []string
	Probability map[string]float64
	Multiplier  map[string]float64

	// Demand[(сценарий, завод, период)] = множитель × базовый спрос
	Demand map[Key]float64
}

// DemandAt возвращает сценарный спрос завода в периоде
func (s *Set) DemandAt(scenario, plantID, period string) float64 {
	return s.Demand[Key{Scenario: scenario, PlantID: plantID, Period: period}]
}

// ExpectedDemandAt возвращает ожидаемый спрос по всем сценариям
func (s *Set) ExpectedDemandAt(plantID, period string) float64 {
	var expected float64
	for _, name := range s.Names {
		expected += s.Probability[name] * s.DemandAt(name, plantID, period)
	}
	return expected
}

// Generate порождает сценарные спросы из базового набора данных.
// Имена должны быть уникальны, вероятности и множители неотрицательны,
// сумма вероятностей равна 1 в пределах допуска.
func Generate(ds *dataset.Dataset, specs []domain.ScenarioSpec) (*Set, error) {
	if ds == nil {
		return nil, apperror.New(apperror.CodeNilInput, "dataset is nil")
	}
	if len(specs) == 0 {
		return nil, apperror.New(apperror.CodeNoScenarios, "no scenarios configured")
	}

	set := &Set{
		Probability: make(map[string]float64, len(specs)),
		Multiplier:  make(map[string]float64, len(specs)),
		Demand:      make(map[Key]float64),
	}

	seen := make(map[string]bool, len(specs))
	var totalP float64

	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, apperror.New(apperror.CodeDuplicateScenario, "scenario name cannot be empty")
		}
		if seen[name] {
			return nil, apperror.NewWithField(apperror.CodeDuplicateScenario,
				"scenario names must be unique", name)
		}
		seen[name] = true

		if spec.Probability < 0 {
			return nil, apperror.NewWithField(apperror.CodeNegativeProbability,
				"scenario probability cannot be negative", name)
		}
		if spec.Multiplier < 0 {
			return nil, apperror.NewWithField(apperror.CodeNegativeMultiplier,
				"demand multiplier cannot be negative", name)
		}

		set.Names = append(set.Names, name)
		set.Probability[name] = spec.Probability
		set.Multiplier[name] = spec.Multiplier
		totalP += spec.Probability
	}

	if math.Abs(totalP-1.0) > ProbabilityTolerance {
		return nil, apperror.Newf(apperror.CodeProbabilityNotNormal,
			"scenario probabilities must sum to 1, got %.6f", totalP)
	}

	for _, name := range set.Names {
		mult := set.Multiplier[name]
		for _, p := range ds.Plants {
			for _, t := range ds.Periods {
				set.Demand[Key{Scenario: name, PlantID: p.ID, Period: t}] = mult * ds.DemandAt(p.ID, t)
			}
		}
	}

	return set, nil
}
