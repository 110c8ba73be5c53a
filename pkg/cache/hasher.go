package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"clinkerplan/pkg/domain"
)

// PlanFingerprint полный набор входных данных запуска планирования.
// Два запуска с одинаковым отпечатком дают одинаковый план.
type PlanFingerprint struct {
	Periods            []string
	DemandClass        domain.DemandClass
	Plants             []domain.Plant
	Routes             []domain.Route
	Demand             []domain.DemandEntry
	Policies           []domain.InventoryPolicy
	Fulfillment        []domain.FulfillmentRequirement
	ClosingStockBounds []domain.ClosingStockBound
	TransportLimits    []domain.TransportLimit
	RouteBounds        []domain.RouteBound
	Scenarios          []domain.ScenarioSpec
	OptimizationType   domain.OptimizationType
	FeasibilityRelax   bool
	Backend            string
	TimeLimitSeconds   int
	MIPGap             float64
}

// PlanHash вычисляет хеш входных данных для использования как ключ кэша
func PlanHash(fp *PlanFingerprint) string {
	if fp == nil {
		return ""
	}

	hash := sha256.Sum256(planToCanonical(fp))
	return hex.EncodeToString(hash[:16])
}

// planToCanonical создаёт детерминированное представление входных данных
func planToCanonical(fp *PlanFingerprint) []byte {
	var result []byte

	result = append(result, fmt.Sprintf("opt:%s:%t;solver:%s:%d:%.6f;class:%s;",
		fp.OptimizationType, fp.FeasibilityRelax,
		fp.Backend, fp.TimeLimitSeconds, fp.MIPGap, fp.DemandClass)...)

	periods := append([]string(nil), fp.Periods...)
	sort.Strings(periods)
	for _, t := range periods {
		result = append(result, fmt.Sprintf("t:%s;", t)...)
	}

	plants := append([]domain.Plant(nil), fp.Plants...)
	sort.Slice(plants, func(i, j int) bool { return plants[i].ID < plants[j].ID })
	for _, p := range plants {
		result = append(result, fmt.Sprintf("p:%s:%s:%.6f:%.6f:%.6f:%.6f:%.6f;",
			p.ID, p.Category, p.MaxInventory, p.SafetyStock, p.InitialInventory,
			p.Capacity(), p.UnitCost())...)
	}

	routes := append([]domain.Route(nil), fp.Routes...)
	sort.Slice(routes, func(i, j int) bool {
		return routes[i].Key().String() < routes[j].Key().String()
	})
	for _, r := range routes {
		result = append(result, fmt.Sprintf("r:%s:%.6f:%.6f:%.6f:%t;",
			r.Key(), r.CostPerTrip, r.CapacityPerTrip, r.SBQ, r.Enabled)...)
	}

	demand := append([]domain.DemandEntry(nil), fp.Demand...)
	sort.Slice(demand, func(i, j int) bool {
		if demand[i].PlantID != demand[j].PlantID {
			return demand[i].PlantID < demand[j].PlantID
		}
		if demand[i].Period != demand[j].Period {
			return demand[i].Period < demand[j].Period
		}
		return demand[i].Class < demand[j].Class
	})
	for _, d := range demand {
		result = append(result, fmt.Sprintf("d:%s:%s:%s:%.6f;",
			d.PlantID, d.Period, d.Class, d.Quantity)...)
	}

	policies := append([]domain.InventoryPolicy(nil), fp.Policies...)
	sort.Slice(policies, func(i, j int) bool { return policies[i].PlantID < policies[j].PlantID })
	for _, pol := range policies {
		result = append(result, fmt.Sprintf("ip:%s:%s:%s:%.6f;",
			pol.PlantID, optF(pol.SafetyStock), optF(pol.MaxInventory), pol.HoldingCost)...)
	}

	fulfillment := append([]domain.FulfillmentRequirement(nil), fp.Fulfillment...)
	sort.Slice(fulfillment, func(i, j int) bool {
		if fulfillment[i].PlantID != fulfillment[j].PlantID {
			return fulfillment[i].PlantID < fulfillment[j].PlantID
		}
		return fulfillment[i].Period < fulfillment[j].Period
	})
	for _, f := range fulfillment {
		result = append(result, fmt.Sprintf("ff:%s:%s:%.6f;",
			f.PlantID, f.Period, f.MinFraction)...)
	}

	closing := append([]domain.ClosingStockBound(nil), fp.ClosingStockBounds...)
	sort.Slice(closing, func(i, j int) bool {
		if closing[i].PlantID != closing[j].PlantID {
			return closing[i].PlantID < closing[j].PlantID
		}
		return closing[i].Period < closing[j].Period
	})
	for _, c := range closing {
		result = append(result, fmt.Sprintf("cs:%s:%s:%s:%s;",
			c.PlantID, c.Period, optF(c.Min), optF(c.Max))...)
	}

	limits := append([]domain.TransportLimit(nil), fp.TransportLimits...)
	sort.Slice(limits, func(i, j int) bool {
		if limits[i].Origin != limits[j].Origin {
			return limits[i].Origin < limits[j].Origin
		}
		if limits[i].TransportClass != limits[j].TransportClass {
			return limits[i].TransportClass < limits[j].TransportClass
		}
		return limits[i].Period < limits[j].Period
	})
	for _, l := range limits {
		result = append(result, fmt.Sprintf("tl:%s:%s:%s:%s:%s;",
			l.Origin, l.TransportClass, l.Period,
			optF(l.MinQuantity), optF(l.MaxQuantity))...)
	}

	bounds := append([]domain.RouteBound(nil), fp.RouteBounds...)
	sort.Slice(bounds, func(i, j int) bool {
		ki := fmt.Sprintf("%s:%s:%s:%s", bounds[i].From, bounds[i].To, bounds[i].Mode, bounds[i].Period)
		kj := fmt.Sprintf("%s:%s:%s:%s", bounds[j].From, bounds[j].To, bounds[j].Mode, bounds[j].Period)
		return ki < kj
	})
	for _, b := range bounds {
		result = append(result, fmt.Sprintf("rb:%s:%s:%s:%s:%s:%s:%s;",
			b.From, b.To, b.Mode, b.Period,
			optF(b.Lower), optF(b.Upper), optF(b.Equal))...)
	}

	scenarios := append([]domain.ScenarioSpec(nil), fp.Scenarios...)
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].Name < scenarios[j].Name })
	for _, s := range scenarios {
		result = append(result, fmt.Sprintf("s:%s:%.6f:%.6f;",
			s.Name, s.Probability, s.Multiplier)...)
	}

	return result
}

func optF(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.6f", *v)
}

// BuildPlanKey строит ключ кэша для решённого плана
func BuildPlanKey(prefix string, optType domain.OptimizationType, planHash string) string {
	if prefix == "" {
		prefix = "plan"
	}
	return fmt.Sprintf("%s:%s:%s", prefix, optType, planHash)
}

// QuickHash быстрый хеш для произвольных данных
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash короткий хеш (16 символов)
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
