package analytics

import (
	"sort"

	"clinkerplan/internal/dataset"
	"clinkerplan/pkg/domain"
)

// thresholds пороги обнаружения узких мест
type thresholds struct {
	Plant  float64
	Route  float64
	Buffer float64
}

func defaultThresholds() thresholds {
	return thresholds{
		Plant:  domain.DefaultPlantUtilizationThreshold,
		Route:  domain.DefaultRouteUtilizationThreshold,
		Buffer: domain.Epsilon,
	}
}

// detectBottlenecks находит заводы у предела мощности, маршруты с полными
// рейсами и заводы, где запас прижат к страховому
func detectBottlenecks(run *domain.SolvedRun, ds *dataset.Dataset, util *domain.Utilization, th thresholds) *domain.Bottlenecks {
	b := &domain.Bottlenecks{}

	for _, u := range util.Production {
		if u.Utilization >= th.Plant {
			b.Plants = append(b.Plants, domain.PlantBottleneck{
				PlantID:     u.PlantID,
				Utilization: u.Utilization,
			})
		}
	}

	for _, u := range util.Transport {
		if u.Capacity > 0 && u.Utilization >= th.Route {
			b.Routes = append(b.Routes, domain.RouteBottleneck{
				From:        u.From,
				To:          u.To,
				Mode:        u.Mode,
				Period:      u.Period,
				Utilization: u.Utilization,
			})
		}
	}

	b.Inventory = inventoryBottlenecks(run, ds, th.Buffer)
	return b
}

// inventoryBottlenecks ищет минимальный буфер каждого завода по всем
// строкам запасов, включая сценарные
func inventoryBottlenecks(run *domain.SolvedRun, ds *dataset.Dataset, threshold float64) []domain.InventoryBottleneck {
	type minBuffer struct {
		value  float64
		period string
	}
	min := make(map[string]minBuffer)
	for _, row := range run.InventoryRows {
		buffer := row.Level - ds.SafetyStock[row.PlantID]
		current, seen := min[row.PlantID]
		if !seen || buffer < current.value {
			min[row.PlantID] = minBuffer{value: buffer, period: row.Period}
		}
	}

	plants := make([]string, 0, len(min))
	for p := range min {
		plants = append(plants, p)
	}
	sort.Strings(plants)

	var result []domain.InventoryBottleneck
	for _, p := range plants {
		if min[p].value <= threshold {
			result = append(result, domain.InventoryBottleneck{
				PlantID:   p,
				Period:    min[p].period,
				MinBuffer: min[p].value,
			})
		}
	}
	return result
}
