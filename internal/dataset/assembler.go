package dataset

import (
	"sort"
	"strings"

	"clinkerplan/pkg/apperror"
	"clinkerplan/pkg/domain"
	"clinkerplan/pkg/logger"
)

// Input исходные коллекции мастер-данных, снятые у внешних
// коллабораторов на момент сборки.
type Input struct {
	Periods     []string
	DemandClass domain.DemandClass

	Plants   []domain.Plant
	Routes   []domain.Route
	Demand   []domain.DemandEntry
	Policies []domain.InventoryPolicy

	// Необязательные бизнес-ограничения
	Fulfillment       []domain.FulfillmentRequirement
	ClosingStockBound []domain.ClosingStockBound
	TransportLimits   []domain.TransportLimit
	RouteBounds       []domain.RouteBound
}

// Assemble собирает и валидирует набор данных планирования.
// Возвращает первый найденный дефект данных как ошибку валидации
// с точным указанием завода, периода или маршрута.
func Assemble(in Input) (*Dataset, error) {
	periods := normalizePeriods(in.Periods)
	if len(periods) == 0 {
		return nil, apperror.New(apperror.CodeNoPeriods, "no planning periods selected")
	}

	if len(in.Plants) == 0 {
		return nil, apperror.New(apperror.CodeNoPlants, "no plants found, create plants first")
	}
	if len(in.Routes) == 0 {
		return nil, apperror.New(apperror.CodeNoRoutes, "no transport routes found, create routes first")
	}

	demandClass := in.DemandClass
	if demandClass == "" {
		demandClass = domain.DemandClassFixed
	}

	ds := &Dataset{
		Periods:            periods,
		DemandClass:        demandClass,
		Plants:             make([]domain.Plant, len(in.Plants)),
		PlantIndex:         make(map[string]*domain.Plant, len(in.Plants)),
		PlantNames:         make(map[string]string, len(in.Plants)),
		SafetyStock:        make(map[string]float64, len(in.Plants)),
		MaxInventory:       make(map[string]float64, len(in.Plants)),
		HoldingCost:        make(map[string]float64, len(in.Plants)),
		ProductionCapacity: make(map[string]float64, len(in.Plants)),
		ProductionCost:     make(map[string]float64, len(in.Plants)),
		InitialInventory:   make(map[string]float64, len(in.Plants)),
		Demand:             make(map[domain.DemandKey]float64),
		RouteIndex:         make(map[domain.RouteKey]*domain.Route),
		LaneModes:          make(map[domain.LaneKey][]string),
		PrevPeriod:         make(map[string]string, len(periods)),
	}
	copy(ds.Plants, in.Plants)

	if err := assemblePlants(ds, in.Policies); err != nil {
		return nil, err
	}
	if err := assembleDemand(ds, in.Demand); err != nil {
		return nil, err
	}
	if err := assembleRoutes(ds, in.Routes); err != nil {
		return nil, err
	}

	// Отображение период -> предыдущий период для цепочки балансов
	for idx, t := range periods {
		if idx == 0 {
			ds.PrevPeriod[t] = ""
		} else {
			ds.PrevPeriod[t] = periods[idx-1]
		}
	}

	assembleOverlays(ds, in)

	if err := runPreChecks(ds); err != nil {
		return nil, err
	}

	logger.Log.Debug("planning dataset assembled",
		"periods", len(ds.Periods),
		"plants", len(ds.Plants),
		"producing", len(ds.ProducingPlants),
		"routes", len(ds.Routes),
		"demand_total", ds.TotalDemand(),
	)

	return ds, nil
}

func normalizePeriods(raw []string) []string {
	var periods []string
	seen := make(map[string]bool)
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		periods = append(periods, t)
	}
	return periods
}

func assemblePlants(ds *Dataset, policies []domain.InventoryPolicy) error {
	policyByPlant := make(map[string]*domain.InventoryPolicy, len(policies))
	for i := range policies {
		policyByPlant[policies[i].PlantID] = &policies[i]
	}

	for i := range ds.Plants {
		p := &ds.Plants[i]
		ds.PlantIndex[p.ID] = p
		ds.PlantNames[p.ID] = p.Name

		if p.InitialInventory < 0 || p.MaxInventory < 0 || p.SafetyStock < 0 {
			return apperror.NewWithField(apperror.CodeNegativeQuantity,
				"plant inventory fields cannot be negative", p.ID)
		}

		ds.InitialInventory[p.ID] = p.InitialInventory

		// Политика запасов необязательна: значения по умолчанию
		// берутся из карточки завода, хранение бесплатное
		pol := policyByPlant[p.ID]
		if pol == nil {
			ds.SafetyStock[p.ID] = p.SafetyStock
			ds.MaxInventory[p.ID] = p.MaxInventory
			ds.HoldingCost[p.ID] = 0
		} else {
			ds.SafetyStock[p.ID] = p.SafetyStock
			if pol.SafetyStock != nil {
				ds.SafetyStock[p.ID] = *pol.SafetyStock
			}
			ds.MaxInventory[p.ID] = p.MaxInventory
			if pol.MaxInventory != nil {
				ds.MaxInventory[p.ID] = *pol.MaxInventory
			}
			if pol.HoldingCost < 0 {
				return apperror.NewWithField(apperror.CodeNegativeQuantity,
					"holding cost cannot be negative", p.ID)
			}
			ds.HoldingCost[p.ID] = pol.HoldingCost
		}

		// Мощность и себестоимость обязательны только для
		// производящих заводов, для остальных принудительно ноль
		ds.ProductionCapacity[p.ID] = 0
		ds.ProductionCost[p.ID] = 0

		if p.IsProducing() {
			if p.ProductionCapacity == nil {
				return apperror.NewWithField(apperror.CodeMissingCapacity,
					"missing production capacity for producing plant "+ds.PlantName(p.ID), p.ID)
			}
			if p.ProductionCost == nil {
				return apperror.NewWithField(apperror.CodeMissingCost,
					"missing production cost for producing plant "+ds.PlantName(p.ID), p.ID)
			}
			if *p.ProductionCapacity < 0 || *p.ProductionCost < 0 {
				return apperror.NewWithField(apperror.CodeNegativeQuantity,
					"production capacity and cost cannot be negative", p.ID)
			}
			ds.ProductionCapacity[p.ID] = *p.ProductionCapacity
			ds.ProductionCost[p.ID] = *p.ProductionCost
			ds.ProducingPlants = append(ds.ProducingPlants, p.ID)
		}
	}

	return nil
}

func assembleDemand(ds *Dataset, entries []domain.DemandEntry) error {
	// Спрос по умолчанию ноль для каждой пары (завод, период)
	for _, p := range ds.Plants {
		for _, t := range ds.Periods {
			ds.Demand[domain.DemandKey{PlantID: p.ID, Period: t}] = 0
		}
	}

	periodSet := make(map[string]bool, len(ds.Periods))
	for _, t := range ds.Periods {
		periodSet[t] = true
	}

	for _, e := range entries {
		if e.Class != ds.DemandClass {
			continue
		}
		period := strings.TrimSpace(e.Period)
		if !periodSet[period] {
			continue
		}
		if _, ok := ds.PlantIndex[e.PlantID]; !ok {
			continue
		}
		if e.Quantity < 0 {
			return apperror.NewWithField(apperror.CodeNegativeQuantity,
				"demand quantity cannot be negative for plant "+ds.PlantName(e.PlantID)+" period "+period,
				e.PlantID)
		}

		// Дубликаты накапливаются аддитивно
		ds.Demand[domain.DemandKey{PlantID: e.PlantID, Period: period}] += e.Quantity
	}

	return nil
}

func assembleRoutes(ds *Dataset, routes []domain.Route) error {
	laneSeen := make(map[domain.LaneKey]bool)
	routeSeen := make(map[domain.RouteKey]bool)

	for _, r := range routes {
		// Маршруты, ссылающиеся на неизвестные заводы, пропускаются
		if _, ok := ds.PlantIndex[r.From]; !ok {
			continue
		}
		if _, ok := ds.PlantIndex[r.To]; !ok {
			continue
		}

		key := r.Key()

		// Повторный маршрут делил бы одни переменные перевозки между
		// двумя записями и удваивал их вклад в баланс и стоимость
		if routeSeen[key] {
			return apperror.NewWithField(apperror.CodeDuplicateRoute,
				"duplicate route "+ds.PlantName(r.From)+" -> "+ds.PlantName(r.To)+" ("+r.Mode+")",
				key.String())
		}
		routeSeen[key] = true

		if r.CostPerTrip < 0 || r.CapacityPerTrip < 0 || r.SBQ < 0 {
			return apperror.NewWithField(apperror.CodeNegativeQuantity,
				"transport cost, capacity and SBQ cannot be negative for route "+key.String(),
				key.String())
		}
		if r.SBQ > r.CapacityPerTrip {
			return apperror.NewWithField(apperror.CodeSBQExceedsCapacity,
				"SBQ exceeds capacity per trip for route "+ds.PlantName(r.From)+" -> "+ds.PlantName(r.To)+" ("+r.Mode+")",
				key.String())
		}

		ds.Routes = append(ds.Routes, r)
		lane := key.Lane()
		if !laneSeen[lane] {
			laneSeen[lane] = true
			ds.Lanes = append(ds.Lanes, lane)
		}
		ds.LaneModes[lane] = append(ds.LaneModes[lane], r.Mode)
	}

	if len(ds.Routes) == 0 {
		return apperror.New(apperror.CodeNoRoutes,
			"no transport routes reference known plants")
	}

	for i := range ds.Routes {
		ds.RouteIndex[ds.Routes[i].Key()] = &ds.Routes[i]
	}

	sort.Slice(ds.Lanes, func(i, j int) bool {
		if ds.Lanes[i].From != ds.Lanes[j].From {
			return ds.Lanes[i].From < ds.Lanes[j].From
		}
		return ds.Lanes[i].To < ds.Lanes[j].To
	})

	return nil
}

func assembleOverlays(ds *Dataset, in Input) {
	periodSet := make(map[string]bool, len(ds.Periods))
	for _, t := range ds.Periods {
		periodSet[t] = true
	}

	for _, f := range in.Fulfillment {
		if !periodSet[f.Period] {
			continue
		}
		if _, ok := ds.PlantIndex[f.PlantID]; !ok {
			continue
		}
		if ds.Overlays.MinFulfillment == nil {
			ds.Overlays.MinFulfillment = make(map[domain.DemandKey]float64)
		}
		ds.Overlays.MinFulfillment[domain.DemandKey{PlantID: f.PlantID, Period: f.Period}] = f.MinFraction
	}

	for _, b := range in.ClosingStockBound {
		if !periodSet[b.Period] {
			continue
		}
		if _, ok := ds.PlantIndex[b.PlantID]; !ok {
			continue
		}
		key := domain.DemandKey{PlantID: b.PlantID, Period: b.Period}
		if b.Min != nil {
			if ds.Overlays.MinClosingStock == nil {
				ds.Overlays.MinClosingStock = make(map[domain.DemandKey]float64)
			}
			ds.Overlays.MinClosingStock[key] = *b.Min
		}
		if b.Max != nil {
			if ds.Overlays.MaxClosingStock == nil {
				ds.Overlays.MaxClosingStock = make(map[domain.DemandKey]float64)
			}
			ds.Overlays.MaxClosingStock[key] = *b.Max
		}
	}

	for _, l := range in.TransportLimits {
		if !periodSet[l.Period] {
			continue
		}
		if _, ok := ds.PlantIndex[l.Origin]; !ok {
			continue
		}
		if l.MinQuantity == nil && l.MaxQuantity == nil {
			continue
		}
		if ds.Overlays.TransportLimits == nil {
			ds.Overlays.TransportLimits = make(map[TransportLimitKey]LimitBounds)
		}
		ds.Overlays.TransportLimits[TransportLimitKey{
			Origin:         l.Origin,
			TransportClass: l.TransportClass,
			Period:         l.Period,
		}] = LimitBounds{Lower: l.MinQuantity, Upper: l.MaxQuantity}
	}

	for _, b := range in.RouteBounds {
		if !periodSet[b.Period] {
			continue
		}
		key := domain.RouteKey{From: b.From, To: b.To, Mode: b.Mode}
		if _, ok := ds.RouteIndex[key]; !ok {
			continue
		}
		if b.Lower == nil && b.Upper == nil && b.Equal == nil {
			continue
		}
		if ds.Overlays.RouteBounds == nil {
			ds.Overlays.RouteBounds = make(map[RoutePeriodKey]ShipmentBounds)
		}
		ds.Overlays.RouteBounds[RoutePeriodKey{Route: key, Period: b.Period}] = ShipmentBounds{
			Lower: b.Lower,
			Upper: b.Upper,
			Equal: b.Equal,
		}
	}
}

// runPreChecks выполняет три агрегатные проверки осуществимости.
// Это ранняя диагностика для пользователя, не ограничения решателя.
func runPreChecks(ds *Dataset) error {
	// 1) По каждому периоду суммарный спрос не должен превышать
	// суммарный начальный запас плюс суммарную мощность
	var totalInitial, totalCapacity float64
	for _, p := range ds.Plants {
		totalInitial += ds.InitialInventory[p.ID]
	}
	for _, pid := range ds.ProducingPlants {
		totalCapacity += ds.ProductionCapacity[pid]
	}

	for _, t := range ds.Periods {
		var totalDemand float64
		for _, p := range ds.Plants {
			totalDemand += ds.DemandAt(p.ID, t)
		}
		if totalDemand > totalInitial+totalCapacity {
			return apperror.Newf(apperror.CodeDemandExceedsSupply,
				"demand looks too high for period %s: total demand %.2f, total initial inventory %.2f, total production capacity %.2f",
				t, totalDemand, totalInitial, totalCapacity)
		}
	}

	// 2) Начальный и страховой запасы каждого завода должны помещаться
	// в хранилище, иначе модель неразрешима с самого начала
	for _, p := range ds.Plants {
		if ds.InitialInventory[p.ID] > ds.MaxInventory[p.ID] {
			return apperror.NewWithField(apperror.CodeInventoryOverflow,
				"initial inventory exceeds max inventory for plant "+ds.PlantName(p.ID), p.ID)
		}
		if ds.SafetyStock[p.ID] > ds.MaxInventory[p.ID] {
			return apperror.NewWithField(apperror.CodeSafetyStockOverflow,
				"safety stock exceeds max inventory for plant "+ds.PlantName(p.ID), p.ID)
		}
	}

	// 3) У непроизводящего завода со спросом должен быть хотя бы один
	// включённый входящий маршрут
	hasInflow := make(map[string]bool, len(ds.Plants))
	for _, r := range ds.Routes {
		if r.Enabled {
			hasInflow[r.To] = true
		}
	}

	for _, p := range ds.Plants {
		if p.IsProducing() || hasInflow[p.ID] {
			continue
		}
		for _, t := range ds.Periods {
			if ds.DemandAt(p.ID, t) > 0 {
				return apperror.Newf(apperror.CodeNoInboundRoute,
					"plant %s has demand in %s but no enabled inbound route and no production",
					ds.PlantName(p.ID), t)
			}
		}
	}

	return nil
}
