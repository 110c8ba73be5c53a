package domain

// PlantCategory категория завода
type PlantCategory string

const (
	// CategoryClinkerPlant производящий завод
	CategoryClinkerPlant PlantCategory = "ClinkerPlant"
	// CategoryGrindingUnit помольная установка, только хранит и отгружает
	CategoryGrindingUnit PlantCategory = "GrindingUnit"
)

// Plant завод сети
type Plant struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Category         PlantCategory `json:"category"`
	MaxInventory     float64       `json:"max_inventory"`
	SafetyStock      float64       `json:"safety_stock"`
	InitialInventory float64       `json:"initial_inventory"`

	// Обязательны только для производящих заводов
	ProductionCapacity *float64 `json:"production_capacity,omitempty"`
	ProductionCost     *float64 `json:"production_cost,omitempty"`
}

// IsProducing проверяет, производит ли завод продукцию
func (p *Plant) IsProducing() bool {
	return p.Category == CategoryClinkerPlant
}

// Capacity возвращает месячную производственную мощность
func (p *Plant) Capacity() float64 {
	if !p.IsProducing() || p.ProductionCapacity == nil {
		return 0
	}
	return *p.ProductionCapacity
}

// UnitCost возвращает себестоимость единицы продукции
func (p *Plant) UnitCost() float64 {
	if !p.IsProducing() || p.ProductionCost == nil {
		return 0
	}
	return *p.ProductionCost
}

// InventoryPolicy политика запасов завода. Необязательна: при отсутствии
// страховой запас и максимум берутся из карточки завода, стоимость
// хранения считается нулевой.
type InventoryPolicy struct {
	PlantID      string   `json:"plant_id"`
	SafetyStock  *float64 `json:"safety_stock,omitempty"`
	MaxInventory *float64 `json:"max_inventory,omitempty"`
	HoldingCost  float64  `json:"holding_cost"`
}
