package domain

import "time"

// OptimizationType тип оптимизационной постановки
type OptimizationType string

const (
	OptimizationDeterministic OptimizationType = "deterministic"
	OptimizationStochastic    OptimizationType = "stochastic"
	OptimizationRobust        OptimizationType = "robust"
)

// IsUncertainty проверяет, использует ли постановка сценарии спроса
func (o OptimizationType) IsUncertainty() bool {
	return o == OptimizationStochastic || o == OptimizationRobust
}

// Termination итоговый вердикт решателя
type Termination string

const (
	TerminationOptimal      Termination = "optimal"
	TerminationFeasible     Termination = "feasible"
	TerminationInfeasible   Termination = "infeasible"
	TerminationNotAvailable Termination = "not_available"
	TerminationError        Termination = "error"
	TerminationTimeLimit    Termination = "time_limit"
)

// IsSuccess проверяет, дал ли решатель пригодный план
func (t Termination) IsSuccess() bool {
	return t == TerminationOptimal || t == TerminationFeasible || t == TerminationTimeLimit
}

// CostBreakdown разбивка стоимости по составляющим, пересчитанная
// напрямую из значений переменных
type CostBreakdown struct {
	Production float64 `json:"production"`
	Transport  float64 `json:"transport"`
	Holding    float64 `json:"holding"`
	Penalty    float64 `json:"penalty,omitempty"`
}

// Total возвращает суммарную стоимость
func (c CostBreakdown) Total() float64 {
	return c.Production + c.Transport + c.Holding + c.Penalty
}

// ProductionRow строка плана производства
type ProductionRow struct {
	PlantID  string  `json:"plant_id"`
	Period   string  `json:"period"`
	Quantity float64 `json:"quantity"`
}

// TransportRow строка плана перевозок
type TransportRow struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Mode     string  `json:"mode"`
	Period   string  `json:"period"`
	Quantity float64 `json:"quantity"`
	Trips    int     `json:"trips"`
}

// InventoryRow строка остатков. Scenario заполняется только для
// стохастических и робастных запусков.
type InventoryRow struct {
	PlantID  string  `json:"plant_id"`
	Period   string  `json:"period"`
	Scenario string  `json:"scenario,omitempty"`
	Level    float64 `json:"level"`
}

// SlackRow строка неудовлетворённого спроса в режиме восстановления
// допустимости
type SlackRow struct {
	PlantID  string  `json:"plant_id"`
	Period   string  `json:"period"`
	Scenario string  `json:"scenario,omitempty"`
	Quantity float64 `json:"quantity"`
}

// SolvedRun результат одного запуска планирования. Создаётся один раз
// на решение и далее не меняется, кроме поля Analytics, которое
// заполняется движком аналитики постфактум.
type SolvedRun struct {
	ID               string           `json:"id"`
	OptimizationType OptimizationType `json:"optimization_type"`
	FeasibilityRelax bool             `json:"feasibility_relax,omitempty"`

	ObjectiveValue float64       `json:"objective_value"`
	CostBreakdown  CostBreakdown `json:"cost_breakdown"`

	ProductionRows []ProductionRow `json:"production_rows"`
	TransportRows  []TransportRow  `json:"transport_rows"`
	InventoryRows  []InventoryRow  `json:"inventory_rows"`
	SlackRows      []SlackRow      `json:"slack_rows,omitempty"`

	// Только для запусков с неопределённостью спроса
	Scenarios             []string           `json:"scenarios,omitempty"`
	ScenarioProbabilities map[string]float64 `json:"scenario_probabilities,omitempty"`

	Periods     []string    `json:"periods"`
	Termination Termination `json:"termination"`
	Solver      string      `json:"solver"`
	Runtime     float64     `json:"runtime_seconds"`
	Message     string      `json:"message,omitempty"`
	LogPath     string      `json:"log_path,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`

	Analytics *Analytics `json:"analytics,omitempty"`
}

// Success проверяет, получен ли пригодный план
func (r *SolvedRun) Success() bool {
	return r.Termination.IsSuccess()
}

// ScenarioProbability возвращает вероятность сценария или 1 для
// детерминированного запуска
func (r *SolvedRun) ScenarioProbability(scenario string) float64 {
	if scenario == "" {
		return 1
	}
	return r.ScenarioProbabilities[scenario]
}
