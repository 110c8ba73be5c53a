// Package parser превращает сырое решение солвера в план: строки
// производства, перевозок и запасов плюс пересчитанная структура затрат.
package parser

import (
	"math"
	"time"

	"clinkerplan/internal/builder"
	"clinkerplan/internal/solver"
	"clinkerplan/pkg/apperror"
	"clinkerplan/pkg/domain"
)

// Parse собирает план из решённой модели. Для неуспешных исходов
// возвращается план без строк, только со статусом и сообщением.
func Parse(bm *builder.BuiltModel, out *solver.Outcome) (*domain.SolvedRun, error) {
	if bm == nil || out == nil {
		return nil, apperror.New(apperror.CodeNilInput, "built model and outcome are required")
	}

	run := &domain.SolvedRun{
		OptimizationType: bm.Options.OptimizationType,
		FeasibilityRelax: bm.Options.Repair,
		Periods:          bm.Dataset.Periods,
		Termination:      out.Termination,
		Solver:           out.SolverUsed,
		Runtime:          out.RuntimeSeconds,
		Message:          out.Message,
		LogPath:          out.LogPath,
		CreatedAt:        time.Now().UTC(),
	}
	if bm.Scenarios != nil {
		run.Scenarios = bm.Scenarios.Names
		run.ScenarioProbabilities = make(map[string]float64, len(bm.Scenarios.Names))
		for _, s := range bm.Scenarios.Names {
			run.ScenarioProbabilities[s] = bm.Scenarios.Probability[s]
		}
	}
	if !out.OK || out.Values == nil {
		return run, nil
	}

	run.ObjectiveValue = out.Objective
	run.ProductionRows = productionRows(bm, out.Values)
	run.TransportRows = transportRows(bm, out.Values)
	run.InventoryRows = inventoryRows(bm, out.Values)
	run.SlackRows = slackRows(bm, out.Values)
	run.CostBreakdown = costBreakdown(bm, out.Values)
	return run, nil
}

// productionRows возвращает ненулевой выпуск производящих заводов
func productionRows(bm *builder.BuiltModel, values []float64) []domain.ProductionRow {
	var rows []domain.ProductionRow
	for _, p := range bm.Dataset.ProducingPlants {
		for _, t := range bm.Dataset.Periods {
			v := values[bm.Prod[domain.DemandKey{PlantID: p, Period: t}].Index]
			if v > domain.Epsilon {
				rows = append(rows, domain.ProductionRow{PlantID: p, Period: t, Quantity: v})
			}
		}
	}
	return rows
}

// transportRows возвращает ненулевые отгрузки с числом рейсов
func transportRows(bm *builder.BuiltModel, values []float64) []domain.TransportRow {
	var rows []domain.TransportRow
	for i := range bm.Dataset.Routes {
		r := &bm.Dataset.Routes[i]
		for _, t := range bm.Dataset.Periods {
			rp := builder.RoutePeriod{Route: r.Key(), Period: t}
			shipped := values[bm.Ship[rp].Index]
			if shipped <= domain.Epsilon {
				continue
			}
			rows = append(rows, domain.TransportRow{
				From:     r.From,
				To:       r.To,
				Mode:     r.Mode,
				Period:   t,
				Quantity: shipped,
				Trips:    roundTrips(values[bm.Trips[rp].Index]),
			})
		}
	}
	return rows
}

// inventoryRows возвращает уровни запасов по всем заводам и периодам,
// включая нулевые: пропуск строки означал бы потерю сигнала о пустом складе
func inventoryRows(bm *builder.BuiltModel, values []float64) []domain.InventoryRow {
	var rows []domain.InventoryRow
	for _, s := range bm.ScenarioNames() {
		for _, p := range bm.Dataset.Plants {
			for _, t := range bm.Dataset.Periods {
				v := values[bm.Inv[builder.InvKey{Scenario: s, PlantID: p.ID, Period: t}].Index]
				rows = append(rows, domain.InventoryRow{
					PlantID:  p.ID,
					Period:   t,
					Scenario: s,
					Level:    v,
				})
			}
		}
	}
	return rows
}

// slackRows возвращает ненулевую слабину спроса в режиме восстановления
func slackRows(bm *builder.BuiltModel, values []float64) []domain.SlackRow {
	if bm.Slack == nil {
		return nil
	}
	var rows []domain.SlackRow
	for _, s := range bm.ScenarioNames() {
		for _, p := range bm.Dataset.Plants {
			for _, t := range bm.Dataset.Periods {
				v := values[bm.Slack[builder.InvKey{Scenario: s, PlantID: p.ID, Period: t}].Index]
				if v > domain.Epsilon {
					rows = append(rows, domain.SlackRow{
						PlantID:  p.ID,
						Period:   t,
						Scenario: s,
						Quantity: v,
					})
				}
			}
		}
	}
	return rows
}

// costBreakdown пересчитывает структуру затрат по значениям переменных.
// Затраты хранения: в детерминированной модели напрямую, в стохастической
// взвешенно по вероятностям, в робастной по худшему сценарию.
func costBreakdown(bm *builder.BuiltModel, values []float64) domain.CostBreakdown {
	bd := domain.CostBreakdown{}
	ds := bm.Dataset

	for _, p := range ds.ProducingPlants {
		unitCost := ds.ProductionCost[p]
		for _, t := range ds.Periods {
			bd.Production += unitCost * values[bm.Prod[domain.DemandKey{PlantID: p, Period: t}].Index]
		}
	}
	for i := range ds.Routes {
		r := &ds.Routes[i]
		for _, t := range ds.Periods {
			trips := values[bm.Trips[builder.RoutePeriod{Route: r.Key(), Period: t}].Index]
			bd.Transport += r.CostPerTrip * trips
		}
	}

	switch bm.Options.OptimizationType {
	case domain.OptimizationRobust:
		worst := math.Inf(-1)
		for _, s := range bm.ScenarioNames() {
			if h := holdingCost(bm, s, values); h > worst {
				worst = h
			}
		}
		bd.Holding = worst
	default:
		for _, s := range bm.ScenarioNames() {
			bd.Holding += bm.ScenarioProbability(s) * holdingCost(bm, s, values)
		}
	}

	if bm.Slack != nil {
		for _, s := range bm.ScenarioNames() {
			prob := bm.ScenarioProbability(s)
			for _, p := range ds.Plants {
				for _, t := range ds.Periods {
					v := values[bm.Slack[builder.InvKey{Scenario: s, PlantID: p.ID, Period: t}].Index]
					bd.Penalty += prob * bm.Options.SlackPenalty * v
				}
			}
		}
	}
	return bd
}

func holdingCost(bm *builder.BuiltModel, scen string, values []float64) float64 {
	var total float64
	for _, p := range bm.Dataset.Plants {
		hold := bm.Dataset.HoldingCost[p.ID]
		for _, t := range bm.Dataset.Periods {
			total += hold * values[bm.Inv[builder.InvKey{Scenario: scen, PlantID: p.ID, Period: t}].Index]
		}
	}
	return total
}

// roundTrips округляет целочисленную переменную рейсов, солверы
// возвращают значения с небольшим численным шумом
func roundTrips(v float64) int {
	return int(math.Round(v))
}
