package builder

import (
	"clinkerplan/internal/milp"
	"clinkerplan/pkg/domain"
)

// addProductionConstraints ограничивает выпуск мощностью завода.
// Переменные непроизводящих заводов зафиксированы на нуле при создании.
func (b *builder) addProductionConstraints() {
	for _, p := range b.ds.ProducingPlants {
		capacity := b.ds.ProductionCapacity[p]
		for _, t := range b.ds.Periods {
			prod := b.out.Prod[domain.DemandKey{PlantID: p, Period: t}]
			b.model.AddConstraint(
				conName("prodcap", p, t),
				milp.NewExpr().Add(1, prod),
				milp.LE, capacity,
			)
		}
	}
}

// addInventoryConstraints добавляет баланс запасов и коридор
// страховой/максимальный запас. В моделях с неопределённостью баланс
// дублируется на каждый сценарий со сценарным спросом, переменные
// производства и перевозок общие.
func (b *builder) addInventoryConstraints() {
	for _, s := range b.scenarioNames() {
		for _, p := range b.ds.Plants {
			for _, t := range b.ds.Periods {
				b.addBalance(s, p.ID, t)

				inv := b.out.Inv[InvKey{Scenario: s, PlantID: p.ID, Period: t}]
				b.model.AddConstraint(
					conName("safety", s, p.ID, t),
					milp.NewExpr().Add(1, inv),
					milp.GE, b.safetyStock(p.ID),
				)
				b.model.AddConstraint(
					conName("maxinv", s, p.ID, t),
					milp.NewExpr().Add(1, inv),
					milp.LE, b.maxInventory(p.ID),
				)
			}
		}
	}
}

// addBalance связывает запас с запасом прошлого периода, выпуском,
// входящими и исходящими отгрузками и спросом:
//
//	Inv[t] = Inv[t-1] + Prod[t] + inbound[t] - outbound[t] - Demand[t]
//
// Для первого периода вместо Inv[t-1] подставляется начальный запас.
// В режиме восстановления в приход добавляется слабина спроса.
func (b *builder) addBalance(scen, plantID, period string) {
	inv := b.out.Inv[InvKey{Scenario: scen, PlantID: plantID, Period: period}]
	prod := b.out.Prod[domain.DemandKey{PlantID: plantID, Period: period}]

	lhs := milp.NewExpr().Add(1, inv).Add(-1, prod)
	for _, r := range b.ds.InboundRoutes(plantID) {
		lhs.Add(-1, b.out.Ship[RoutePeriod{Route: r.Key(), Period: period}])
	}
	for _, r := range b.ds.OutboundRoutes(plantID) {
		lhs.Add(1, b.out.Ship[RoutePeriod{Route: r.Key(), Period: period}])
	}
	if b.opts.Repair {
		lhs.Add(-1, b.out.Slack[InvKey{Scenario: scen, PlantID: plantID, Period: period}])
	}

	rhs := -b.demandAt(scen, plantID, period)
	if prev := b.ds.PrevPeriod[period]; prev == "" {
		rhs += b.ds.InitialInventory[plantID]
	} else {
		lhs.Add(-1, b.out.Inv[InvKey{Scenario: scen, PlantID: plantID, Period: prev}])
	}

	b.model.AddConstraint(conName("bal", scen, plantID, period), lhs, milp.EQ, rhs)
}

// addTransportConstraints связывает отгрузки с рейсами и признаком
// использования маршрута, запрещает отключённые маршруты и допускает
// не более одного вида транспорта на направление в периоде.
func (b *builder) addTransportConstraints() {
	for i := range b.ds.Routes {
		r := &b.ds.Routes[i]
		for _, t := range b.ds.Periods {
			rp := RoutePeriod{Route: r.Key(), Period: t}
			ship := b.out.Ship[rp]
			trips := b.out.Trips[rp]
			use := b.out.Use[rp]

			if !r.Enabled {
				b.model.Fix(ship, 0)
				b.model.Fix(trips, 0)
				b.model.Fix(use, 0)
				continue
			}

			// Ship <= Trips * CapacityPerTrip
			b.model.AddConstraint(
				conName("shipcap", r.From, r.To, r.Mode, t),
				milp.NewExpr().Add(1, ship).Add(-r.CapacityPerTrip, trips),
				milp.LE, 0,
			)
			// Ship >= Trips * SBQ, минимальная партия за рейс
			if sbq := b.sbq(r); sbq > 0 {
				b.model.AddConstraint(
					conName("sbq", r.From, r.To, r.Mode, t),
					milp.NewExpr().Add(1, ship).Add(-sbq, trips),
					milp.GE, 0,
				)
			}
			// Trips <= BigM * Use
			b.model.AddConstraint(
				conName("uselink", r.From, r.To, r.Mode, t),
				milp.NewExpr().Add(1, trips).Add(-b.opts.BigMTrips, use),
				milp.LE, 0,
			)
		}
	}

	for _, lane := range b.ds.Lanes {
		modes := b.ds.LaneModes[lane]
		if len(modes) < 2 {
			continue
		}
		for _, t := range b.ds.Periods {
			expr := milp.NewExpr()
			for _, mode := range modes {
				rp := RoutePeriod{
					Route:  domain.RouteKey{From: lane.From, To: lane.To, Mode: mode},
					Period: t,
				}
				expr.Add(1, b.out.Use[rp])
			}
			b.model.AddConstraint(conName("modeexcl", lane.From, lane.To, t), expr, milp.LE, 1)
		}
	}
}

// addOverlayConstraints добавляет необязательные бизнес-ограничения.
// Семейство попадает в модель только когда для него заданы данные.
// В режиме восстановления нижние границы ослабляются на 20% вниз,
// верхние на 20% вверх.
func (b *builder) addOverlayConstraints() {
	b.addMinFulfillment()
	b.addClosingStockBounds()
	b.addTransportLimits()
	b.addRouteBounds()
}

// addMinFulfillment требует покрыть долю спроса выпуском и входящими
// отгрузками периода. Спрос берётся базовый, переменные покрытия общие
// для всех сценариев.
func (b *builder) addMinFulfillment() {
	for key, fraction := range b.ds.Overlays.MinFulfillment {
		demand := b.ds.DemandAt(key.PlantID, key.Period)
		if demand <= 0 {
			continue
		}
		expr := milp.NewExpr().Add(1, b.out.Prod[key])
		for _, r := range b.ds.InboundRoutes(key.PlantID) {
			expr.Add(1, b.out.Ship[RoutePeriod{Route: r.Key(), Period: key.Period}])
		}
		if b.opts.Repair {
			for _, s := range b.scenarioNames() {
				expr.Add(1, b.out.Slack[InvKey{Scenario: s, PlantID: key.PlantID, Period: key.Period}])
			}
		}
		b.model.AddConstraint(
			conName("minfulfill", key.PlantID, key.Period),
			expr,
			milp.GE, b.relaxLower(fraction)*demand,
		)
	}
}

// addClosingStockBounds ограничивает запас на конец периода.
// В моделях с неопределённостью границы действуют в каждом сценарии.
func (b *builder) addClosingStockBounds() {
	for _, s := range b.scenarioNames() {
		for key, min := range b.ds.Overlays.MinClosingStock {
			inv := b.out.Inv[InvKey{Scenario: s, PlantID: key.PlantID, Period: key.Period}]
			b.model.AddConstraint(
				conName("closemin", s, key.PlantID, key.Period),
				milp.NewExpr().Add(1, inv),
				milp.GE, b.relaxLower(min),
			)
		}
		for key, max := range b.ds.Overlays.MaxClosingStock {
			inv := b.out.Inv[InvKey{Scenario: s, PlantID: key.PlantID, Period: key.Period}]
			b.model.AddConstraint(
				conName("closemax", s, key.PlantID, key.Period),
				milp.NewExpr().Add(1, inv),
				milp.LE, b.relaxUpper(max),
			)
		}
	}
}

// addTransportLimits ограничивает суммарную отгрузку из узла по классу
// транспорта в периоде
func (b *builder) addTransportLimits() {
	for key, bounds := range b.ds.Overlays.TransportLimits {
		expr := milp.NewExpr()
		for i := range b.ds.Routes {
			r := &b.ds.Routes[i]
			if r.From != key.Origin || r.TransportClass != key.TransportClass {
				continue
			}
			expr.Add(1, b.out.Ship[RoutePeriod{Route: r.Key(), Period: key.Period}])
		}
		if len(expr.Terms) == 0 {
			continue
		}
		if bounds.Lower != nil {
			b.model.AddConstraint(
				conName("translim_lo", key.Origin, key.TransportClass, key.Period),
				expr, milp.GE, b.relaxLower(*bounds.Lower),
			)
		}
		if bounds.Upper != nil {
			b.model.AddConstraint(
				conName("translim_hi", key.Origin, key.TransportClass, key.Period),
				expr, milp.LE, b.relaxUpper(*bounds.Upper),
			)
		}
	}
}

// addRouteBounds задаёт границы отгрузки конкретного маршрута в периоде.
// Точная граница в режиме восстановления превращается в коридор +-20%.
func (b *builder) addRouteBounds() {
	for key, bounds := range b.ds.Overlays.RouteBounds {
		ship := b.out.Ship[RoutePeriod{Route: key.Route, Period: key.Period}]
		if ship == nil {
			continue
		}
		name := []string{key.Route.From, key.Route.To, key.Route.Mode, key.Period}
		if bounds.Equal != nil {
			if b.opts.Repair {
				b.model.AddConstraint(conName("routebnd_lo", name...),
					milp.NewExpr().Add(1, ship), milp.GE, b.relaxLower(*bounds.Equal))
				b.model.AddConstraint(conName("routebnd_hi", name...),
					milp.NewExpr().Add(1, ship), milp.LE, b.relaxUpper(*bounds.Equal))
			} else {
				b.model.AddConstraint(conName("routebnd_eq", name...),
					milp.NewExpr().Add(1, ship), milp.EQ, *bounds.Equal)
			}
			continue
		}
		if bounds.Lower != nil {
			b.model.AddConstraint(conName("routebnd_lo", name...),
				milp.NewExpr().Add(1, ship), milp.GE, b.relaxLower(*bounds.Lower))
		}
		if bounds.Upper != nil {
			b.model.AddConstraint(conName("routebnd_hi", name...),
				milp.NewExpr().Add(1, ship), milp.LE, b.relaxUpper(*bounds.Upper))
		}
	}
}
