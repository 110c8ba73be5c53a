package domain

// ResilienceClass классификация устойчивости плана
type ResilienceClass string

const (
	ResilienceResilient ResilienceClass = "Resilient"
	ResilienceBalanced  ResilienceClass = "Balanced"
	ResilienceAtRisk    ResilienceClass = "At Risk"
)

// ClassifyResilience переводит балл устойчивости в классификацию
func ClassifyResilience(score float64) ResilienceClass {
	switch {
	case score >= 80:
		return ResilienceResilient
	case score >= 60:
		return ResilienceBalanced
	default:
		return ResilienceAtRisk
	}
}

// KPIs ключевые показатели решённого плана
type KPIs struct {
	TotalCost        float64 `json:"total_cost"`
	ProductionCost   float64 `json:"production_cost"`
	TransportCost    float64 `json:"transport_cost"`
	HoldingCost      float64 `json:"holding_cost"`
	PenaltyCost      float64 `json:"penalty_cost,omitempty"`
	TotalDemand      float64 `json:"total_demand"`
	CostPerTon       float64 `json:"cost_per_ton"`
	ServiceLevel     float64 `json:"service_level"`
	AverageInventory float64 `json:"average_inventory"`
	InventoryTurns   float64 `json:"inventory_turns"`
	AverageBuffer    float64 `json:"average_buffer"`
}

// PlantUtilization загрузка производства завода за горизонт
type PlantUtilization struct {
	PlantID     string  `json:"plant_id"`
	Produced    float64 `json:"produced"`
	Available   float64 `json:"available"`
	Utilization float64 `json:"utilization"`
}

// RouteUtilization загрузка маршрута в периоде
type RouteUtilization struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Mode        string  `json:"mode"`
	Period      string  `json:"period"`
	Shipped     float64 `json:"shipped"`
	Capacity    float64 `json:"capacity"`
	Utilization float64 `json:"utilization"`
}

// StorageUtilization загрузка склада завода
type StorageUtilization struct {
	PlantID          string  `json:"plant_id"`
	AverageInventory float64 `json:"average_inventory"`
	MaxInventory     float64 `json:"max_inventory"`
	Utilization      float64 `json:"utilization"`
}

// Utilization сводка загрузки по трём измерениям
type Utilization struct {
	Production []PlantUtilization   `json:"production"`
	Transport  []RouteUtilization   `json:"transport"`
	Storage    []StorageUtilization `json:"storage"`
}

// PlantBottleneck завод, работающий на пределе мощности
type PlantBottleneck struct {
	PlantID     string  `json:"plant_id"`
	Utilization float64 `json:"utilization"`
}

// RouteBottleneck маршрут, загруженный до предела рейсов
type RouteBottleneck struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Mode        string  `json:"mode"`
	Period      string  `json:"period"`
	Utilization float64 `json:"utilization"`
}

// InventoryBottleneck завод с исчерпанным буфером над страховым запасом
type InventoryBottleneck struct {
	PlantID   string  `json:"plant_id"`
	Period    string  `json:"period"`
	MinBuffer float64 `json:"min_buffer"`
}

// Bottlenecks найденные узкие места плана
type Bottlenecks struct {
	Plants    []PlantBottleneck     `json:"plants"`
	Routes    []RouteBottleneck     `json:"routes"`
	Inventory []InventoryBottleneck `json:"inventory"`
}

// CostContribution вклад объекта в общую стоимость
type CostContribution struct {
	Name  string  `json:"name"`
	Cost  float64 `json:"cost"`
	Share float64 `json:"share"`
}

// CostDrivers главные источники затрат
type CostDrivers struct {
	TopPlants []CostContribution `json:"top_plants"`
	TopRoutes []CostContribution `json:"top_routes"`
	ModeCost  map[string]float64 `json:"mode_cost"`
}

// Resilience композитная оценка устойчивости плана
type Resilience struct {
	Score           float64            `json:"score"`
	Classification  ResilienceClass    `json:"classification"`
	Components      map[string]float64 `json:"components"`
	Alerts          []string           `json:"alerts"`
	Recommendations []string           `json:"recommendations"`
}

// Analytics аналитика решённого плана, прикрепляется к SolvedRun
type Analytics struct {
	KPIs        *KPIs        `json:"kpis,omitempty"`
	Utilization *Utilization `json:"utilization,omitempty"`
	Bottlenecks *Bottlenecks `json:"bottlenecks,omitempty"`
	CostDrivers *CostDrivers `json:"cost_drivers,omitempty"`
	Resilience  *Resilience  `json:"resilience,omitempty"`

	// Подблоки, которые не удалось вычислить
	Skipped map[string]string `json:"skipped,omitempty"`
}
