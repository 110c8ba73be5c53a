package analytics

import (
	"sort"

	"clinkerplan/internal/dataset"
	"clinkerplan/pkg/domain"
)

// computeUtilization считает загрузку производства, перевозок и складов
func computeUtilization(run *domain.SolvedRun, ds *dataset.Dataset) *domain.Utilization {
	return &domain.Utilization{
		Production: productionUtilization(run, ds),
		Transport:  transportUtilization(run, ds),
		Storage:    storageUtilization(run, ds),
	}
}

// productionUtilization агрегирует выпуск завода за горизонт и делит
// на суммарную мощность за все периоды
func productionUtilization(run *domain.SolvedRun, ds *dataset.Dataset) []domain.PlantUtilization {
	produced := make(map[string]float64)
	for _, row := range run.ProductionRows {
		produced[row.PlantID] += row.Quantity
	}

	var result []domain.PlantUtilization
	// Завод без выпуска остаётся в списке с нулевой загрузкой,
	// его простой тоже входит в средний запас прочности
	for _, p := range ds.ProducingPlants {
		total := produced[p]
		available := ds.ProductionCapacity[p] * float64(len(ds.Periods))
		u := domain.PlantUtilization{PlantID: p, Produced: total, Available: available}
		if available > 0 {
			u.Utilization = total / available * 100
		}
		result = append(result, u)
	}
	return result
}

// transportUtilization считает заполнение рейсов каждой строки перевозки:
// отгружено к ёмкости выполненных рейсов
func transportUtilization(run *domain.SolvedRun, ds *dataset.Dataset) []domain.RouteUtilization {
	var result []domain.RouteUtilization
	for _, row := range run.TransportRows {
		route := ds.RouteIndex[domain.RouteKey{From: row.From, To: row.To, Mode: row.Mode}]
		u := domain.RouteUtilization{
			From:    row.From,
			To:      row.To,
			Mode:    row.Mode,
			Period:  row.Period,
			Shipped: row.Quantity,
		}
		if route != nil {
			u.Capacity = float64(row.Trips) * route.CapacityPerTrip
		}
		if u.Capacity > 0 {
			u.Utilization = row.Quantity / u.Capacity * 100
		}
		result = append(result, u)
	}
	return result
}

// storageUtilization делит средний запас завода на максимальный.
// Сценарные строки усредняются наравне с обычными.
func storageUtilization(run *domain.SolvedRun, ds *dataset.Dataset) []domain.StorageUtilization {
	sum := make(map[string]float64)
	count := make(map[string]int)
	for _, row := range run.InventoryRows {
		sum[row.PlantID] += row.Level
		count[row.PlantID]++
	}

	plants := make([]string, 0, len(sum))
	for p := range sum {
		plants = append(plants, p)
	}
	sort.Strings(plants)

	var result []domain.StorageUtilization
	for _, p := range plants {
		avg := sum[p] / float64(count[p])
		u := domain.StorageUtilization{
			PlantID:          p,
			AverageInventory: avg,
			MaxInventory:     ds.MaxInventory[p],
		}
		if u.MaxInventory > 0 {
			u.Utilization = avg / u.MaxInventory * 100
		}
		result = append(result, u)
	}
	return result
}
