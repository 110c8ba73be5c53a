// Package dataset собирает и валидирует исходные данные планирования
// в согласованный набор, пригодный для построения модели.
package dataset

import (
	"clinkerplan/pkg/domain"
)

// Dataset собранный набор данных планирования. После сборки только
// читается, модель строится и решается поверх него без мутаций.
type Dataset struct {
	Periods     []string
	DemandClass domain.DemandClass

	// Заводы в исходном порядке
	Plants     []domain.Plant
	PlantIndex map[string]*domain.Plant
	PlantNames map[string]string

	// Производящие заводы (подмножество Plants)
	ProducingPlants []string

	// Параметры запасов с учётом политик
	SafetyStock  map[string]float64
	MaxInventory map[string]float64
	HoldingCost  map[string]float64

	// Производство (ноль для непроизводящих заводов)
	ProductionCapacity map[string]float64
	ProductionCost     map[string]float64
	InitialInventory   map[string]float64

	// Спрос по (завод, период), по умолчанию 0
	Demand map[domain.DemandKey]float64

	// Маршруты и производные множества
	Routes     []domain.Route
	RouteIndex map[domain.RouteKey]*domain.Route
	Lanes      []domain.LaneKey
	LaneModes  map[domain.LaneKey][]string

	// Отображение период -> предыдущий период ("" для первого)
	PrevPeriod map[string]string

	// Необязательные бизнес-ограничения
	Overlays Overlays
}

// RoutePeriodKey ключ (маршрут, период)
type RoutePeriodKey struct {
	Route  domain.RouteKey
	Period string
}

// TransportLimitKey ключ агрегатного лимита
type TransportLimitKey struct {
	Origin         string
	TransportClass string
	Period         string
}

// LimitBounds нижняя и верхняя границы агрегатного лимита
type LimitBounds struct {
	Lower *float64
	Upper *float64
}

// ShipmentBounds границы отгрузки маршрута в периоде
type ShipmentBounds struct {
	Lower *float64
	Upper *float64
	Equal *float64
}

// Overlays необязательные семейства ограничений. Пустая карта означает,
// что соответствующее семейство в модель не добавляется.
type Overlays struct {
	MinFulfillment  map[domain.DemandKey]float64
	MinClosingStock map[domain.DemandKey]float64
	MaxClosingStock map[domain.DemandKey]float64
	TransportLimits map[TransportLimitKey]LimitBounds
	RouteBounds     map[RoutePeriodKey]ShipmentBounds
}

// Empty проверяет, есть ли хотя бы одно наложенное ограничение
func (o Overlays) Empty() bool {
	return len(o.MinFulfillment) == 0 &&
		len(o.MinClosingStock) == 0 &&
		len(o.MaxClosingStock) == 0 &&
		len(o.TransportLimits) == 0 &&
		len(o.RouteBounds) == 0
}

// DemandAt возвращает спрос завода в периоде
func (d *Dataset) DemandAt(plantID, period string) float64 {
	return d.Demand[domain.DemandKey{PlantID: plantID, Period: period}]
}

// IsProducing проверяет, производит ли завод
func (d *Dataset) IsProducing(plantID string) bool {
	p, ok := d.PlantIndex[plantID]
	return ok && p.IsProducing()
}

// PlantName возвращает отображаемое имя завода
func (d *Dataset) PlantName(plantID string) string {
	if name, ok := d.PlantNames[plantID]; ok && name != "" {
		return name
	}
	return plantID
}

// InboundRoutes возвращает маршруты, входящие в завод
func (d *Dataset) InboundRoutes(plantID string) []domain.Route {
	var result []domain.Route
	for _, r := range d.Routes {
		if r.To == plantID {
			result = append(result, r)
		}
	}
	return result
}

// OutboundRoutes возвращает маршруты, исходящие из завода
func (d *Dataset) OutboundRoutes(plantID string) []domain.Route {
	var result []domain.Route
	for _, r := range d.Routes {
		if r.From == plantID {
			result = append(result, r)
		}
	}
	return result
}

// TotalDemand возвращает суммарный спрос за горизонт
func (d *Dataset) TotalDemand() float64 {
	var total float64
	for _, q := range d.Demand {
		total += q
	}
	return total
}
