package analytics

import (
	"sort"

	"clinkerplan/internal/dataset"
	"clinkerplan/pkg/domain"
)

// computeCostDrivers находит главные источники затрат: заводы по
// стоимости выпуска, маршруты и виды транспорта по стоимости рейсов
func computeCostDrivers(run *domain.SolvedRun, ds *dataset.Dataset, topN int) *domain.CostDrivers {
	if topN <= 0 {
		topN = 3
	}

	plantCost := make(map[string]float64)
	for _, row := range run.ProductionRows {
		plantCost[row.PlantID] += row.Quantity * ds.ProductionCost[row.PlantID]
	}

	routeCost := make(map[domain.RouteKey]float64)
	modeCost := make(map[string]float64)
	for _, row := range run.TransportRows {
		key := domain.RouteKey{From: row.From, To: row.To, Mode: row.Mode}
		route := ds.RouteIndex[key]
		if route == nil {
			continue
		}
		cost := float64(row.Trips) * route.CostPerTrip
		routeCost[key] += cost
		modeCost[row.Mode] += cost
	}

	return &domain.CostDrivers{
		TopPlants: topContributions(plantCost, run.CostBreakdown.Production, topN),
		TopRoutes: topRouteContributions(routeCost, run.CostBreakdown.Transport, topN),
		ModeCost:  modeCost,
	}
}

func topContributions(costs map[string]float64, total float64, topN int) []domain.CostContribution {
	result := make([]domain.CostContribution, 0, len(costs))
	for name, cost := range costs {
		result = append(result, contribution(name, cost, total))
	}
	sortContributions(result)
	return truncate(result, topN)
}

func topRouteContributions(costs map[domain.RouteKey]float64, total float64, topN int) []domain.CostContribution {
	result := make([]domain.CostContribution, 0, len(costs))
	for key, cost := range costs {
		result = append(result, contribution(key.String(), cost, total))
	}
	sortContributions(result)
	return truncate(result, topN)
}

func contribution(name string, cost, total float64) domain.CostContribution {
	c := domain.CostContribution{Name: name, Cost: cost}
	if total > 0 {
		c.Share = cost / total * 100
	}
	return c
}

// sortContributions упорядочивает по убыванию стоимости, при равенстве
// по имени для детерминированного вывода
func sortContributions(items []domain.CostContribution) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Cost != items[j].Cost {
			return items[i].Cost > items[j].Cost
		}
		return items[i].Name < items[j].Name
	})
}

func truncate(items []domain.CostContribution, n int) []domain.CostContribution {
	if len(items) > n {
		return items[:n]
	}
	return items
}
