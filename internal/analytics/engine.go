package analytics

import (
	"fmt"

	"clinkerplan/internal/dataset"
	"clinkerplan/internal/scenario"
	"clinkerplan/pkg/apperror"
	"clinkerplan/pkg/config"
	"clinkerplan/pkg/domain"
	"clinkerplan/pkg/logger"
	"clinkerplan/pkg/metrics"
)

// Engine считает аналитику решённого плана. Подблоки независимы:
// сбой одного не отменяет остальные, причина попадает в Skipped.
type Engine struct {
	cfg config.AnalyticsConfig
}

// NewEngine создаёт аналитический движок
func NewEngine(cfg config.AnalyticsConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Compute считает аналитику плана. Для неуспешных планов аналитика
// не считается, показатели по пустому решению только вводят в заблуждение.
func (e *Engine) Compute(run *domain.SolvedRun, ds *dataset.Dataset, scen *scenario.Set) (*domain.Analytics, error) {
	if run == nil || ds == nil {
		return nil, apperror.New(apperror.CodeNilInput, "run and dataset are required")
	}
	if !run.Success() {
		return nil, apperror.NewWarning(apperror.CodeAnalyticsSkip,
			"analytics is only computed for successful runs")
	}

	a := &domain.Analytics{}

	e.guard(a, "kpis", func() {
		a.KPIs = computeKPIs(run, ds, scen)
	})
	e.guard(a, "utilization", func() {
		a.Utilization = computeUtilization(run, ds)
	})
	e.guard(a, "bottlenecks", func() {
		if a.Utilization == nil {
			panic("utilization block is unavailable")
		}
		a.Bottlenecks = detectBottlenecks(run, ds, a.Utilization, e.thresholds())
	})
	e.guard(a, "cost_drivers", func() {
		a.CostDrivers = computeCostDrivers(run, ds, e.cfg.TopCostDrivers)
	})
	e.guard(a, "resilience", func() {
		a.Resilience = e.computeResilience(a.KPIs, a.Utilization)
	})

	score := 0.0
	if a.Resilience != nil {
		score = a.Resilience.Score
	}
	metrics.Get().RecordAnalytics(len(a.Skipped) == 0, score)
	logger.Log.Debug("analytics computed",
		"resilience_score", score,
		"skipped", len(a.Skipped),
	)
	return a, nil
}

// guard выполняет подблок, превращая панику в запись Skipped
func (e *Engine) guard(a *domain.Analytics, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if a.Skipped == nil {
				a.Skipped = make(map[string]string)
			}
			a.Skipped[name] = fmt.Sprint(r)
			logger.Log.Warn("analytics block skipped", "block", name, "reason", fmt.Sprint(r))
		}
	}()
	fn()
}

func (e *Engine) thresholds() thresholds {
	th := defaultThresholds()
	if e.cfg.PlantUtilizationThreshold > 0 {
		th.Plant = e.cfg.PlantUtilizationThreshold
	}
	if e.cfg.RouteUtilizationThreshold > 0 {
		th.Route = e.cfg.RouteUtilizationThreshold
	}
	return th
}

// computeResilience усредняет уровень сервиса и запасы по трём измерениям
// загрузки. Измерение без данных в среднее не входит.
func (e *Engine) computeResilience(kpis *domain.KPIs, util *domain.Utilization) *domain.Resilience {
	if kpis == nil || util == nil {
		panic("kpis and utilization blocks are required")
	}

	components := map[string]float64{
		"service_level": kpis.ServiceLevel,
	}
	prodUtil, prodOK := averageUtilization(plantUtils(util.Production))
	if prodOK {
		components["production_headroom"] = headroom(prodUtil)
	}
	storageUtil, storageOK := averageUtilization(storageUtils(util.Storage))
	if storageOK {
		components["storage_headroom"] = headroom(storageUtil)
	}
	transportUtil, transportOK := averageUtilization(routeUtils(util.Transport))
	if transportOK {
		components["transport_headroom"] = headroom(transportUtil)
	}

	var score float64
	for _, v := range components {
		score += v
	}
	score /= float64(len(components))

	r := &domain.Resilience{
		Score:          score,
		Classification: domain.ClassifyResilience(score),
		Components:     components,
	}

	if prodOK && prodUtil > domain.DefaultPlantUtilizationThreshold {
		r.Alerts = append(r.Alerts, fmt.Sprintf("Production network running hot (%.1f%% utilized).", prodUtil))
		if top, ok := topPlantUtilization(util.Production); ok {
			r.Recommendations = append(r.Recommendations,
				fmt.Sprintf("Shift volume away from %s (at %.1f%% load).", top.PlantID, top.Utilization))
		}
	}
	if storageOK && storageUtil > domain.DefaultStorageUtilizationThreshold {
		r.Alerts = append(r.Alerts, fmt.Sprintf("Storage cushion is thin (avg %.1f%% full).", storageUtil))
		if top, ok := topStorageUtilization(util.Storage); ok {
			r.Recommendations = append(r.Recommendations,
				fmt.Sprintf("Pull forward shipments to relieve %s holding %.1f%% fill.", top.PlantID, top.Utilization))
		}
	}
	if transportOK && transportUtil > domain.DefaultTransportAlertThreshold {
		r.Alerts = append(r.Alerts, fmt.Sprintf("Transport routes near saturation (avg %.1f%% capacity used).", transportUtil))
		if top, ok := topRouteUtilization(util.Transport); ok {
			r.Recommendations = append(r.Recommendations,
				fmt.Sprintf("Add contingency capacity on %s->%s (utilization %.1f%%).", top.From, top.To, top.Utilization))
		}
	}
	if kpis.ServiceLevel < domain.DefaultServiceLevelThreshold {
		r.Alerts = append(r.Alerts, fmt.Sprintf("Service level below target (%.1f%%).", kpis.ServiceLevel))
		r.Recommendations = append(r.Recommendations,
			"Increase safety stock or reroute clinker to protect customer deliveries.")
	}
	if len(r.Recommendations) == 0 {
		r.Recommendations = append(r.Recommendations,
			"Maintain current plan; monitor weekly for demand spikes.")
	}
	return r
}

func headroom(utilization float64) float64 {
	if utilization > 100 {
		return 0
	}
	return 100 - utilization
}

func averageUtilization(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values)), true
}

func plantUtils(items []domain.PlantUtilization) []float64 {
	out := make([]float64, len(items))
	for i, u := range items {
		out[i] = u.Utilization
	}
	return out
}

func storageUtils(items []domain.StorageUtilization) []float64 {
	out := make([]float64, len(items))
	for i, u := range items {
		out[i] = u.Utilization
	}
	return out
}

func routeUtils(items []domain.RouteUtilization) []float64 {
	out := make([]float64, len(items))
	for i, u := range items {
		out[i] = u.Utilization
	}
	return out
}

func topPlantUtilization(items []domain.PlantUtilization) (domain.PlantUtilization, bool) {
	var top domain.PlantUtilization
	found := false
	for _, u := range items {
		if !found || u.Utilization > top.Utilization {
			top = u
			found = true
		}
	}
	return top, found
}

func topStorageUtilization(items []domain.StorageUtilization) (domain.StorageUtilization, bool) {
	var top domain.StorageUtilization
	found := false
	for _, u := range items {
		if !found || u.Utilization > top.Utilization {
			top = u
			found = true
		}
	}
	return top, found
}

func topRouteUtilization(items []domain.RouteUtilization) (domain.RouteUtilization, bool) {
	var top domain.RouteUtilization
	found := false
	for _, u := range items {
		if !found || u.Utilization > top.Utilization {
			top = u
			found = true
		}
	}
	return top, found
}
