package domain

// DemandClass класс спроса
type DemandClass string

const (
	// DemandClassFixed базовый детерминированный спрос
	DemandClassFixed DemandClass = "Fixed"
)

// DemandEntry запись спроса: завод, период, класс, количество
type DemandEntry struct {
	PlantID  string      `json:"plant_id"`
	Period   string      `json:"period"`
	Class    DemandClass `json:"class"`
	Quantity float64     `json:"quantity"`
}

// DemandKey ключ спроса (завод, период)
type DemandKey struct {
	PlantID string
	Period  string
}

// ScenarioSpec спецификация сценария спроса
type ScenarioSpec struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Multiplier  float64 `json:"multiplier"`
}

// FulfillmentRequirement минимальная доля удовлетворения спроса, 0..1.
// Накладывается только если присутствует в наборе данных.
type FulfillmentRequirement struct {
	PlantID     string  `json:"plant_id"`
	Period      string  `json:"period"`
	MinFraction float64 `json:"min_fraction"`
}

// ClosingStockBound абсолютные границы остатка на конец периода
type ClosingStockBound struct {
	PlantID string   `json:"plant_id"`
	Period  string   `json:"period"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}

// TransportLimit агрегатный лимит отгрузок по (отправитель, класс
// транспорта, период)
type TransportLimit struct {
	Origin         string   `json:"origin"`
	TransportClass string   `json:"transport_class"`
	Period         string   `json:"period"`
	MinQuantity    *float64 `json:"min_quantity,omitempty"`
	MaxQuantity    *float64 `json:"max_quantity,omitempty"`
}

// RouteBound границы отгрузки для конкретного маршрута в периоде
type RouteBound struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Mode   string   `json:"mode"`
	Period string   `json:"period"`
	Lower  *float64 `json:"lower,omitempty"`
	Upper  *float64 `json:"upper,omitempty"`
	Equal  *float64 `json:"equal,omitempty"`
}
