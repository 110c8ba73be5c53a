package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinkerplan/internal/dataset"
	"clinkerplan/pkg/apperror"
	"clinkerplan/pkg/config"
	"clinkerplan/pkg/domain"
)

func f64(v float64) *float64 { return &v }

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Assemble(dataset.Input{
		Periods: []string{"2025-01", "2025-02"},
		Plants: []domain.Plant{
			{
				ID: "P1", Name: "Producer", Category: domain.CategoryClinkerPlant,
				MaxInventory: 500, SafetyStock: 10, InitialInventory: 50,
				ProductionCapacity: f64(100), ProductionCost: f64(10),
			},
			{
				ID: "P2", Name: "Grinder", Category: domain.CategoryGrindingUnit,
				MaxInventory: 300, SafetyStock: 5, InitialInventory: 20,
			},
		},
		Routes: []domain.Route{
			{From: "P1", To: "P2", Mode: "Road", CostPerTrip: 20, CapacityPerTrip: 50, Enabled: true},
		},
		Demand: []domain.DemandEntry{
			{PlantID: "P2", Period: "2025-01", Class: domain.DemandClassFixed, Quantity: 80},
			{PlantID: "P2", Period: "2025-02", Class: domain.DemandClassFixed, Quantity: 60},
		},
	})
	require.NoError(t, err)
	return ds
}

func solvedRun() *domain.SolvedRun {
	return &domain.SolvedRun{
		OptimizationType: domain.OptimizationDeterministic,
		Termination:      domain.TerminationOptimal,
		ObjectiveValue:   2040,
		CostBreakdown:    domain.CostBreakdown{Production: 1800, Transport: 240},
		ProductionRows: []domain.ProductionRow{
			{PlantID: "P1", Period: "2025-01", Quantity: 95},
			{PlantID: "P1", Period: "2025-02", Quantity: 85},
		},
		TransportRows: []domain.TransportRow{
			{From: "P1", To: "P2", Mode: "Road", Period: "2025-01", Quantity: 95, Trips: 2},
			{From: "P1", To: "P2", Mode: "Road", Period: "2025-02", Quantity: 40, Trips: 1},
		},
		InventoryRows: []domain.InventoryRow{
			{PlantID: "P1", Period: "2025-01", Level: 10},
			{PlantID: "P1", Period: "2025-02", Level: 0},
			{PlantID: "P2", Period: "2025-01", Level: 30},
			{PlantID: "P2", Period: "2025-02", Level: 40},
		},
	}
}

func TestCompute_KPIs(t *testing.T) {
	engine := NewEngine(config.AnalyticsConfig{})
	a, err := engine.Compute(solvedRun(), testDataset(t), nil)
	require.NoError(t, err)
	require.NotNil(t, a.KPIs)
	require.Empty(t, a.Skipped)

	k := a.KPIs
	assert.Equal(t, 2040.0, k.TotalCost)
	assert.Equal(t, 100.0, k.ServiceLevel)
	assert.Equal(t, 140.0, k.TotalDemand)
	assert.InDelta(t, 2040.0/140, k.CostPerTon, 1e-9)
	assert.InDelta(t, 20.0, k.AverageInventory, 1e-9)
	assert.InDelta(t, 7.0, k.InventoryTurns, 1e-9)
	// буферы: 0, -10, 25, 35
	assert.InDelta(t, 12.5, k.AverageBuffer, 1e-9)
}

func TestCompute_Utilization(t *testing.T) {
	engine := NewEngine(config.AnalyticsConfig{})
	a, err := engine.Compute(solvedRun(), testDataset(t), nil)
	require.NoError(t, err)
	require.NotNil(t, a.Utilization)

	require.Len(t, a.Utilization.Production, 1)
	p := a.Utilization.Production[0]
	assert.Equal(t, "P1", p.PlantID)
	assert.Equal(t, 180.0, p.Produced)
	assert.Equal(t, 200.0, p.Available)
	assert.InDelta(t, 90.0, p.Utilization, 1e-9)

	require.Len(t, a.Utilization.Transport, 2)
	assert.InDelta(t, 95.0, a.Utilization.Transport[0].Utilization, 1e-9)
	assert.InDelta(t, 80.0, a.Utilization.Transport[1].Utilization, 1e-9)

	require.Len(t, a.Utilization.Storage, 2)
	assert.Equal(t, "P1", a.Utilization.Storage[0].PlantID)
	assert.InDelta(t, 1.0, a.Utilization.Storage[0].Utilization, 1e-9) // 5 / 500
	assert.InDelta(t, 35.0/300*100, a.Utilization.Storage[1].Utilization, 1e-9)
}

func TestCompute_IdleProducerKeepsZeroUtilization(t *testing.T) {
	ds, err := dataset.Assemble(dataset.Input{
		Periods: []string{"2025-01", "2025-02"},
		Plants: []domain.Plant{
			{
				ID: "P1", Name: "Producer", Category: domain.CategoryClinkerPlant,
				MaxInventory: 500, SafetyStock: 10, InitialInventory: 50,
				ProductionCapacity: f64(100), ProductionCost: f64(10),
			},
			{
				ID: "P3", Name: "Idle", Category: domain.CategoryClinkerPlant,
				MaxInventory:       400,
				ProductionCapacity: f64(80), ProductionCost: f64(12),
			},
			{
				ID: "P2", Name: "Grinder", Category: domain.CategoryGrindingUnit,
				MaxInventory: 300, SafetyStock: 5, InitialInventory: 20,
			},
		},
		Routes: []domain.Route{
			{From: "P1", To: "P2", Mode: "Road", CostPerTrip: 20, CapacityPerTrip: 50, Enabled: true},
		},
		Demand: []domain.DemandEntry{
			{PlantID: "P2", Period: "2025-01", Class: domain.DemandClassFixed, Quantity: 80},
			{PlantID: "P2", Period: "2025-02", Class: domain.DemandClassFixed, Quantity: 60},
		},
	})
	require.NoError(t, err)

	engine := NewEngine(config.AnalyticsConfig{})
	a, err := engine.Compute(solvedRun(), ds, nil)
	require.NoError(t, err)

	require.Len(t, a.Utilization.Production, 2)
	byPlant := make(map[string]domain.PlantUtilization)
	for _, p := range a.Utilization.Production {
		byPlant[p.PlantID] = p
	}
	idle, ok := byPlant["P3"]
	require.True(t, ok, "idle producer must keep its utilization row")
	assert.Equal(t, 0.0, idle.Produced)
	assert.Equal(t, 160.0, idle.Available)
	assert.Equal(t, 0.0, idle.Utilization)
}

func TestCompute_Bottlenecks(t *testing.T) {
	engine := NewEngine(config.AnalyticsConfig{})
	a, err := engine.Compute(solvedRun(), testDataset(t), nil)
	require.NoError(t, err)
	require.NotNil(t, a.Bottlenecks)

	// P1 на 90% мощности
	require.Len(t, a.Bottlenecks.Plants, 1)
	assert.Equal(t, "P1", a.Bottlenecks.Plants[0].PlantID)

	// рейс на 95% заполнен, второй на 80% не попадает
	require.Len(t, a.Bottlenecks.Routes, 1)
	assert.Equal(t, "2025-01", a.Bottlenecks.Routes[0].Period)

	// буфер P1 уходит в минус во втором периоде
	require.Len(t, a.Bottlenecks.Inventory, 1)
	assert.Equal(t, "P1", a.Bottlenecks.Inventory[0].PlantID)
	assert.Equal(t, "2025-02", a.Bottlenecks.Inventory[0].Period)
	assert.InDelta(t, -10.0, a.Bottlenecks.Inventory[0].MinBuffer, 1e-9)
}

func TestCompute_CostDrivers(t *testing.T) {
	engine := NewEngine(config.AnalyticsConfig{TopCostDrivers: 3})
	a, err := engine.Compute(solvedRun(), testDataset(t), nil)
	require.NoError(t, err)
	require.NotNil(t, a.CostDrivers)

	require.Len(t, a.CostDrivers.TopPlants, 1)
	assert.Equal(t, "P1", a.CostDrivers.TopPlants[0].Name)
	assert.InDelta(t, 1800.0, a.CostDrivers.TopPlants[0].Cost, 1e-9)
	assert.InDelta(t, 100.0, a.CostDrivers.TopPlants[0].Share, 1e-9)

	require.Len(t, a.CostDrivers.TopRoutes, 1)
	// 3 рейса по 20
	assert.InDelta(t, 60.0, a.CostDrivers.TopRoutes[0].Cost, 1e-9)
	assert.InDelta(t, 60.0, a.CostDrivers.ModeCost["Road"], 1e-9)
}

func TestCompute_Resilience(t *testing.T) {
	engine := NewEngine(config.AnalyticsConfig{})
	a, err := engine.Compute(solvedRun(), testDataset(t), nil)
	require.NoError(t, err)
	require.NotNil(t, a.Resilience)

	r := a.Resilience
	assert.Equal(t, 100.0, r.Components["service_level"])
	assert.InDelta(t, 10.0, r.Components["production_headroom"], 1e-9)
	assert.InDelta(t, 12.5, r.Components["transport_headroom"], 1e-9)

	// (100 + 10 + 93.667 + 12.5) / 4
	assert.InDelta(t, 54.04, r.Score, 0.01)
	assert.Equal(t, domain.ResilienceAtRisk, r.Classification)

	// транспорт в среднем загружен на 87.5%, выше порога тревоги
	require.NotEmpty(t, r.Alerts)
	assert.Contains(t, r.Alerts[0], "Transport routes near saturation")
	require.NotEmpty(t, r.Recommendations)
}

func TestCompute_HealthyPlanHasNoAlerts(t *testing.T) {
	run := solvedRun()
	run.ProductionRows = []domain.ProductionRow{{PlantID: "P1", Period: "2025-01", Quantity: 50}}
	run.TransportRows = []domain.TransportRow{
		{From: "P1", To: "P2", Mode: "Road", Period: "2025-01", Quantity: 30, Trips: 1},
	}

	engine := NewEngine(config.AnalyticsConfig{})
	a, err := engine.Compute(run, testDataset(t), nil)
	require.NoError(t, err)

	r := a.Resilience
	require.NotNil(t, r)
	assert.Empty(t, r.Alerts)
	assert.Equal(t, []string{"Maintain current plan; monitor weekly for demand spikes."}, r.Recommendations)
	assert.Empty(t, a.Bottlenecks.Plants)
	assert.Empty(t, a.Bottlenecks.Routes)
}

func TestCompute_ScenarioWeightedInventory(t *testing.T) {
	run := solvedRun()
	run.OptimizationType = domain.OptimizationStochastic
	run.Scenarios = []string{"Low", "High"}
	run.ScenarioProbabilities = map[string]float64{"Low": 0.25, "High": 0.75}
	run.InventoryRows = []domain.InventoryRow{
		{PlantID: "P1", Period: "2025-01", Scenario: "Low", Level: 40},
		{PlantID: "P1", Period: "2025-01", Scenario: "High", Level: 80},
	}

	engine := NewEngine(config.AnalyticsConfig{})
	a, err := engine.Compute(run, testDataset(t), nil)
	require.NoError(t, err)

	// (0.25*40 + 0.75*80) / (0.25 + 0.75)
	assert.InDelta(t, 70.0, a.KPIs.AverageInventory, 1e-9)
}

func TestCompute_FailedRunRejected(t *testing.T) {
	run := solvedRun()
	run.Termination = domain.TerminationInfeasible

	engine := NewEngine(config.AnalyticsConfig{})
	_, err := engine.Compute(run, testDataset(t), nil)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeAnalyticsSkip, apperror.Code(err))
}

func TestCompute_CustomThresholds(t *testing.T) {
	engine := NewEngine(config.AnalyticsConfig{
		PlantUtilizationThreshold: 95,
		RouteUtilizationThreshold: 99,
	})
	a, err := engine.Compute(solvedRun(), testDataset(t), nil)
	require.NoError(t, err)

	// при поднятых порогах 90% и 95% перестают быть узкими местами
	assert.Empty(t, a.Bottlenecks.Plants)
	assert.Empty(t, a.Bottlenecks.Routes)
}

func TestCompute_NilInput(t *testing.T) {
	engine := NewEngine(config.AnalyticsConfig{})
	_, err := engine.Compute(nil, nil, nil)
	assert.Equal(t, apperror.CodeNilInput, apperror.Code(err))
}
