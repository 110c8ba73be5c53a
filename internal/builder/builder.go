// Package builder строит MILP-модель планирования из собранного
// набора данных: детерминированную, стохастическую или робастную,
// в обычном режиме или в режиме восстановления допустимости.
package builder

import (
	"fmt"
	"math"

	"clinkerplan/internal/dataset"
	"clinkerplan/internal/milp"
	"clinkerplan/internal/scenario"
	"clinkerplan/pkg/apperror"
	"clinkerplan/pkg/domain"
	"clinkerplan/pkg/logger"
)

// Коэффициенты ослабления ограничений в режиме восстановления
const (
	repairSafetyFactor = 0.8
	repairMaxInvFactor = 1.2
	repairSBQFactor    = 0.5
	repairLowerFactor  = 0.8
	repairUpperFactor  = 1.2
)

// Options параметры построения модели
type Options struct {
	OptimizationType domain.OptimizationType
	Repair           bool
	BigMTrips        float64
	SlackPenalty     float64
}

// DefaultOptions возвращает параметры детерминированной модели
func DefaultOptions() Options {
	return Options{
		OptimizationType: domain.OptimizationDeterministic,
		BigMTrips:        domain.BigMTrips,
		SlackPenalty:     domain.SlackPenalty,
	}
}

// RoutePeriod ключ переменных перевозки
type RoutePeriod struct {
	Route  domain.RouteKey
	Period string
}

// InvKey ключ переменных запаса. Scenario пуст в детерминированной модели.
type InvKey struct {
	Scenario string
	PlantID  string
	Period   string
}

// BuiltModel модель вместе с индексами переменных для разбора решения
type BuiltModel struct {
	Model     *milp.Model
	Options   Options
	Dataset   *dataset.Dataset
	Scenarios *scenario.Set

	Prod      map[domain.DemandKey]*milp.Var
	Ship      map[RoutePeriod]*milp.Var
	Trips     map[RoutePeriod]*milp.Var
	Use       map[RoutePeriod]*milp.Var
	Inv       map[InvKey]*milp.Var
	Slack     map[InvKey]*milp.Var
	WorstCost *milp.Var
}

// ScenarioNames возвращает имена сценариев модели. Для детерминированной
// модели это единственное пустое имя.
func (bm *BuiltModel) ScenarioNames() []string {
	if bm.Scenarios == nil {
		return []string{""}
	}
	return bm.Scenarios.Names
}

// ScenarioProbability возвращает вероятность сценария
func (bm *BuiltModel) ScenarioProbability(name string) float64 {
	if bm.Scenarios == nil {
		return 1
	}
	return bm.Scenarios.Probability[name]
}

// builder накапливает состояние построения
type builder struct {
	ds    *dataset.Dataset
	scen  *scenario.Set
	opts  Options
	model *milp.Model
	out   *BuiltModel
}

// Build строит модель. Для стохастического и робастного типов scen
// обязателен, для детерминированного игнорируется.
func Build(ds *dataset.Dataset, scen *scenario.Set, opts Options) (*BuiltModel, error) {
	if ds == nil {
		return nil, apperror.New(apperror.CodeNilInput, "dataset is nil")
	}
	if opts.OptimizationType.IsUncertainty() && scen == nil {
		return nil, apperror.New(apperror.CodeNoScenarios,
			"scenario set is required for uncertainty optimization")
	}
	if !opts.OptimizationType.IsUncertainty() {
		scen = nil
	}
	if opts.BigMTrips <= 0 {
		opts.BigMTrips = domain.BigMTrips
	}
	if opts.SlackPenalty <= 0 {
		opts.SlackPenalty = domain.SlackPenalty
	}

	b := &builder{
		ds:    ds,
		scen:  scen,
		opts:  opts,
		model: milp.NewModel(fmt.Sprintf("clinkerplan_%s", opts.OptimizationType)),
	}
	b.out = &BuiltModel{
		Model:     b.model,
		Options:   opts,
		Dataset:   ds,
		Scenarios: scen,
		Prod:      make(map[domain.DemandKey]*milp.Var),
		Ship:      make(map[RoutePeriod]*milp.Var),
		Trips:     make(map[RoutePeriod]*milp.Var),
		Use:       make(map[RoutePeriod]*milp.Var),
		Inv:       make(map[InvKey]*milp.Var),
	}
	if opts.Repair {
		b.out.Slack = make(map[InvKey]*milp.Var)
	}

	b.addVariables()
	b.addProductionConstraints()
	b.addInventoryConstraints()
	b.addTransportConstraints()
	b.addOverlayConstraints()
	b.setObjective()

	if err := b.model.Validate(); err != nil {
		return nil, err
	}

	logger.Log.Debug("model built",
		"type", string(opts.OptimizationType),
		"repair", opts.Repair,
		"variables", b.model.NumVars(),
		"integer_variables", b.model.NumIntegerVars(),
		"constraints", b.model.NumConstraints(),
	)
	return b.out, nil
}

// scenarioNames возвращает сценарии построения ("" для детерминированной)
func (b *builder) scenarioNames() []string {
	if b.scen == nil {
		return []string{""}
	}
	return b.scen.Names
}

// demandAt возвращает спрос с учётом сценария
func (b *builder) demandAt(scen, plantID, period string) float64 {
	if b.scen == nil || scen == "" {
		return b.ds.DemandAt(plantID, period)
	}
	return b.scen.DemandAt(scen, plantID, period)
}

// Эффективные параметры с учётом режима восстановления

func (b *builder) safetyStock(plantID string) float64 {
	s := b.ds.SafetyStock[plantID]
	if b.opts.Repair {
		return s * repairSafetyFactor
	}
	return s
}

func (b *builder) maxInventory(plantID string) float64 {
	m := b.ds.MaxInventory[plantID]
	if b.opts.Repair {
		return m * repairMaxInvFactor
	}
	return m
}

func (b *builder) sbq(r *domain.Route) float64 {
	if b.opts.Repair {
		return r.SBQ * repairSBQFactor
	}
	return r.SBQ
}

func (b *builder) relaxLower(v float64) float64 {
	if b.opts.Repair {
		return v * repairLowerFactor
	}
	return v
}

func (b *builder) relaxUpper(v float64) float64 {
	if b.opts.Repair {
		return v * repairUpperFactor
	}
	return v
}

// addVariables создаёт все переменные модели
func (b *builder) addVariables() {
	for _, p := range b.ds.Plants {
		for _, t := range b.ds.Periods {
			key := domain.DemandKey{PlantID: p.ID, Period: t}
			v := b.model.AddNonNegative(fmt.Sprintf("Prod_%s_%s", p.ID, t))
			if !p.IsProducing() {
				// непроизводящий завод не выпускает продукцию
				b.model.Fix(v, 0)
			}
			b.out.Prod[key] = v
		}
	}
	for _, r := range b.ds.Routes {
		for _, t := range b.ds.Periods {
			rp := RoutePeriod{Route: r.Key(), Period: t}
			suffix := fmt.Sprintf("%s_%s_%s_%s", r.From, r.To, r.Mode, t)
			b.out.Ship[rp] = b.model.AddNonNegative("Ship_" + suffix)
			b.out.Trips[rp] = b.model.AddInteger("Trips_"+suffix, 0, math.Inf(1))
			b.out.Use[rp] = b.model.AddBinary("Use_" + suffix)
		}
	}
	for _, s := range b.scenarioNames() {
		for _, p := range b.ds.Plants {
			for _, t := range b.ds.Periods {
				key := InvKey{Scenario: s, PlantID: p.ID, Period: t}
				b.out.Inv[key] = b.model.AddNonNegative("Inv_" + invSuffix(s, p.ID, t))
				if b.opts.Repair {
					b.out.Slack[key] = b.model.AddNonNegative("Slack_" + invSuffix(s, p.ID, t))
				}
			}
		}
	}
	if b.opts.OptimizationType == domain.OptimizationRobust {
		b.out.WorstCost = b.model.AddNonNegative("WorstCost")
	}
}

func invSuffix(scen, plantID, period string) string {
	if scen == "" {
		return fmt.Sprintf("%s_%s", plantID, period)
	}
	return fmt.Sprintf("%s_%s_%s", scen, plantID, period)
}

func conName(family string, parts ...string) string {
	name := family
	for _, p := range parts {
		if p != "" {
			name += "_" + p
		}
	}
	return name
}
