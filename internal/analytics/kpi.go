// Package analytics считает управленческую аналитику по решённому плану:
// KPI, загрузку мощностей, узкие места, источники затрат и оценку
// устойчивости. Модель не перерешивается, используются только строки
// плана и исходный набор данных.
package analytics

import (
	"clinkerplan/internal/dataset"
	"clinkerplan/internal/scenario"
	"clinkerplan/pkg/domain"
)

// computeKPIs собирает ключевые показатели плана. Спрос в постановках
// с неопределённостью берётся ожидаемым по вероятностям сценариев.
func computeKPIs(run *domain.SolvedRun, ds *dataset.Dataset, scen *scenario.Set) *domain.KPIs {
	k := &domain.KPIs{
		TotalCost:      run.ObjectiveValue,
		ProductionCost: run.CostBreakdown.Production,
		TransportCost:  run.CostBreakdown.Transport,
		HoldingCost:    run.CostBreakdown.Holding,
		PenaltyCost:    run.CostBreakdown.Penalty,
		TotalDemand:    totalDemand(ds, scen),
	}

	// Спрос покрывается жёсткими ограничениями модели, успешное решение
	// означает полное покрытие
	if run.Success() {
		k.ServiceLevel = 100
	}

	if k.TotalDemand > 0 {
		k.CostPerTon = k.TotalCost / k.TotalDemand
	}

	k.AverageInventory = averageInventory(run)
	if k.AverageInventory > 0 {
		k.InventoryTurns = k.TotalDemand / k.AverageInventory
	}
	k.AverageBuffer = averageBuffer(run, ds)
	return k
}

func totalDemand(ds *dataset.Dataset, scen *scenario.Set) float64 {
	if scen == nil {
		return ds.TotalDemand()
	}
	var total float64
	for _, p := range ds.Plants {
		for _, t := range ds.Periods {
			total += scen.ExpectedDemandAt(p.ID, t)
		}
	}
	return total
}

// averageInventory возвращает средний запас по строкам плана.
// Сценарные строки взвешиваются вероятностями сценариев.
func averageInventory(run *domain.SolvedRun) float64 {
	if len(run.InventoryRows) == 0 {
		return 0
	}
	var weighted, denom float64
	for _, row := range run.InventoryRows {
		prob := run.ScenarioProbability(row.Scenario)
		weighted += prob * row.Level
		denom += prob
	}
	if denom <= 0 {
		return 0
	}
	return weighted / denom
}

// averageBuffer возвращает средний запас сверх страхового по всем строкам
func averageBuffer(run *domain.SolvedRun, ds *dataset.Dataset) float64 {
	if len(run.InventoryRows) == 0 {
		return 0
	}
	var total float64
	for _, row := range run.InventoryRows {
		total += row.Level - ds.SafetyStock[row.PlantID]
	}
	return total / float64(len(run.InventoryRows))
}
