package builder

import (
	"clinkerplan/internal/milp"
	"clinkerplan/pkg/domain"
)

// setObjective задаёт целевую функцию в зависимости от типа постановки.
// Во всех постановках минимизируются затраты на производство, перевозки
// и хранение; в режиме восстановления добавляется штраф за слабину спроса.
func (b *builder) setObjective() {
	switch b.opts.OptimizationType {
	case domain.OptimizationRobust:
		b.setRobustObjective()
	default:
		b.setExpectedObjective()
	}
}

// setExpectedObjective строит цель детерминированной и стохастической
// постановок: затраты хранения взвешиваются вероятностями сценариев.
// Для детерминированной модели единственный сценарий имеет вероятность 1.
func (b *builder) setExpectedObjective() {
	obj := milp.NewExpr()
	obj.AddExpr(b.productionCost())
	obj.AddExpr(b.transportCost())
	for _, s := range b.scenarioNames() {
		prob := b.scenarioProbability(s)
		obj.AddExpr(b.holdingCost(s).Scale(prob))
		if b.opts.Repair {
			obj.AddExpr(b.slackPenalty(s).Scale(prob))
		}
	}
	b.model.SetObjective(obj)
}

// setRobustObjective минимизирует худшие по сценариям затраты через
// вспомогательную переменную WorstCost, ограниченную снизу затратами
// каждого сценария. Штраф за слабину добавляется вне огибающей, иначе
// слабина в несвязывающих сценариях ничем не прижимается к нулю.
func (b *builder) setRobustObjective() {
	for _, s := range b.scenarioNames() {
		cost := milp.NewExpr()
		cost.AddExpr(b.productionCost())
		cost.AddExpr(b.transportCost())
		cost.AddExpr(b.holdingCost(s))
		cost.Add(-1, b.out.WorstCost)
		b.model.AddConstraint(conName("worst", s), cost, milp.LE, 0)
	}

	obj := milp.NewExpr().Add(1, b.out.WorstCost)
	if b.opts.Repair {
		for _, s := range b.scenarioNames() {
			obj.AddExpr(b.slackPenalty(s).Scale(b.scenarioProbability(s)))
		}
	}
	b.model.SetObjective(obj)
}

func (b *builder) scenarioProbability(name string) float64 {
	if b.scen == nil {
		return 1
	}
	return b.scen.Probability[name]
}

// productionCost возвращает сумму Prod * ProductionCost по производящим заводам
func (b *builder) productionCost() *milp.LinExpr {
	expr := milp.NewExpr()
	for _, p := range b.ds.ProducingPlants {
		unitCost := b.ds.ProductionCost[p]
		for _, t := range b.ds.Periods {
			expr.Add(unitCost, b.out.Prod[domain.DemandKey{PlantID: p, Period: t}])
		}
	}
	return expr
}

// transportCost возвращает сумму Trips * CostPerTrip по маршрутам
func (b *builder) transportCost() *milp.LinExpr {
	expr := milp.NewExpr()
	for i := range b.ds.Routes {
		r := &b.ds.Routes[i]
		if !r.Enabled {
			continue
		}
		for _, t := range b.ds.Periods {
			expr.Add(r.CostPerTrip, b.out.Trips[RoutePeriod{Route: r.Key(), Period: t}])
		}
	}
	return expr
}

// holdingCost возвращает сумму Inv * HoldingCost сценария
func (b *builder) holdingCost(scen string) *milp.LinExpr {
	expr := milp.NewExpr()
	for _, p := range b.ds.Plants {
		hold := b.ds.HoldingCost[p.ID]
		for _, t := range b.ds.Periods {
			expr.Add(hold, b.out.Inv[InvKey{Scenario: scen, PlantID: p.ID, Period: t}])
		}
	}
	return expr
}

// slackPenalty возвращает штраф за слабину спроса сценария
func (b *builder) slackPenalty(scen string) *milp.LinExpr {
	expr := milp.NewExpr()
	for _, p := range b.ds.Plants {
		for _, t := range b.ds.Periods {
			expr.Add(b.opts.SlackPenalty, b.out.Slack[InvKey{Scenario: scen, PlantID: p.ID, Period: t}])
		}
	}
	return expr
}
