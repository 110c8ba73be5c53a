package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinkerplan/internal/builder"
	"clinkerplan/internal/dataset"
	"clinkerplan/internal/scenario"
	"clinkerplan/internal/solver"
	"clinkerplan/pkg/apperror"
	"clinkerplan/pkg/domain"
)

func f64(v float64) *float64 { return &v }

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Assemble(dataset.Input{
		Periods: []string{"2025-01"},
		Plants: []domain.Plant{
			{
				ID: "P1", Category: domain.CategoryClinkerPlant,
				MaxInventory: 500, SafetyStock: 0, InitialInventory: 0,
				ProductionCapacity: f64(200), ProductionCost: f64(10),
			},
			{
				ID: "P2", Category: domain.CategoryGrindingUnit,
				MaxInventory: 300, SafetyStock: 0, InitialInventory: 0,
			},
		},
		Routes: []domain.Route{
			{From: "P1", To: "P2", Mode: "Road", CostPerTrip: 20, CapacityPerTrip: 50, SBQ: 0, Enabled: true},
		},
		Demand: []domain.DemandEntry{
			{PlantID: "P2", Period: "2025-01", Class: domain.DemandClassFixed, Quantity: 80},
		},
		Policies: []domain.InventoryPolicy{
			{PlantID: "P1", HoldingCost: 1},
			{PlantID: "P2", HoldingCost: 2},
		},
	})
	require.NoError(t, err)
	return ds
}

// solvedValues выпуск 80, две поездки, отгрузка 80, нулевые запасы
func solvedValues(bm *builder.BuiltModel) []float64 {
	values := make([]float64, bm.Model.NumVars())
	road := builder.RoutePeriod{
		Route:  domain.RouteKey{From: "P1", To: "P2", Mode: "Road"},
		Period: "2025-01",
	}
	values[bm.Prod[domain.DemandKey{PlantID: "P1", Period: "2025-01"}].Index] = 80
	values[bm.Ship[road].Index] = 80
	values[bm.Trips[road].Index] = 2.0000001 // численный шум солвера
	values[bm.Use[road].Index] = 1
	return values
}

func TestParse_Deterministic(t *testing.T) {
	bm, err := builder.Build(testDataset(t), nil, builder.DefaultOptions())
	require.NoError(t, err)

	values := solvedValues(bm)
	out := &solver.Outcome{
		OK:             true,
		Termination:    domain.TerminationOptimal,
		SolverUsed:     "cbc",
		RuntimeSeconds: 0.2,
		Objective:      840,
		Values:         values,
		Message:        "optimal solution found by cbc",
	}

	run, err := Parse(bm, out)
	require.NoError(t, err)

	assert.Equal(t, domain.OptimizationDeterministic, run.OptimizationType)
	assert.Equal(t, domain.TerminationOptimal, run.Termination)
	assert.True(t, run.Success())
	assert.Equal(t, "cbc", run.Solver)
	assert.Equal(t, 840.0, run.ObjectiveValue)

	require.Len(t, run.ProductionRows, 1)
	assert.Equal(t, domain.ProductionRow{PlantID: "P1", Period: "2025-01", Quantity: 80}, run.ProductionRows[0])

	require.Len(t, run.TransportRows, 1)
	tr := run.TransportRows[0]
	assert.Equal(t, 80.0, tr.Quantity)
	assert.Equal(t, 2, tr.Trips)

	// Строки запасов есть для всех пар завод-период, включая нулевые
	require.Len(t, run.InventoryRows, 2)
	for _, row := range run.InventoryRows {
		assert.Empty(t, row.Scenario)
		assert.Equal(t, 0.0, row.Level)
	}

	assert.Empty(t, run.SlackRows)
	assert.Empty(t, run.Scenarios)
}

// Структура затрат пересчитывается из значений переменных и сходится
// с целевым значением солвера.
func TestParse_CostBreakdownMatchesObjective(t *testing.T) {
	bm, err := builder.Build(testDataset(t), nil, builder.DefaultOptions())
	require.NoError(t, err)

	values := solvedValues(bm)
	objective := bm.Model.Objective.Eval(values)
	out := &solver.Outcome{
		OK:          true,
		Termination: domain.TerminationOptimal,
		SolverUsed:  "highs",
		Objective:   objective,
		Values:      values,
	}

	run, err := Parse(bm, out)
	require.NoError(t, err)

	// 80*10 производство + 2*20 перевозки, без хранения
	assert.InDelta(t, 800.0, run.CostBreakdown.Production, 1e-6)
	assert.InDelta(t, 40.0, run.CostBreakdown.Transport, domain.SolverTolerance)
	assert.InDelta(t, 0.0, run.CostBreakdown.Holding, 1e-9)
	assert.InDelta(t, objective, run.CostBreakdown.Total(), domain.SolverTolerance)
}

func TestParse_FailedOutcomeKeepsStatusOnly(t *testing.T) {
	bm, err := builder.Build(testDataset(t), nil, builder.DefaultOptions())
	require.NoError(t, err)

	out := &solver.Outcome{
		OK:          false,
		Termination: domain.TerminationInfeasible,
		SolverUsed:  "cbc",
		Message:     "model is infeasible",
	}
	run, err := Parse(bm, out)
	require.NoError(t, err)

	assert.False(t, run.Success())
	assert.Equal(t, domain.TerminationInfeasible, run.Termination)
	assert.Empty(t, run.ProductionRows)
	assert.Empty(t, run.InventoryRows)
	assert.Zero(t, run.ObjectiveValue)
}

func TestParse_RepairSlackRows(t *testing.T) {
	opts := builder.DefaultOptions()
	opts.Repair = true
	bm, err := builder.Build(testDataset(t), nil, opts)
	require.NoError(t, err)

	values := make([]float64, bm.Model.NumVars())
	slackKey := builder.InvKey{PlantID: "P2", Period: "2025-01"}
	values[bm.Slack[slackKey].Index] = 30

	out := &solver.Outcome{
		OK:          true,
		Termination: domain.TerminationOptimal,
		SolverUsed:  "cbc",
		Values:      values,
	}
	run, err := Parse(bm, out)
	require.NoError(t, err)

	assert.True(t, run.FeasibilityRelax)
	require.Len(t, run.SlackRows, 1)
	assert.Equal(t, 30.0, run.SlackRows[0].Quantity)
	assert.InDelta(t, 30*domain.SlackPenalty, run.CostBreakdown.Penalty, 1e-9)
}

func TestParse_StochasticWeightsHolding(t *testing.T) {
	ds := testDataset(t)
	scen, err := scenario.Generate(ds, []domain.ScenarioSpec{
		{Name: "Low", Probability: 0.5, Multiplier: 0.9},
		{Name: "High", Probability: 0.5, Multiplier: 1.1},
	})
	require.NoError(t, err)

	opts := builder.DefaultOptions()
	opts.OptimizationType = domain.OptimizationStochastic
	bm, err := builder.Build(ds, scen, opts)
	require.NoError(t, err)

	values := make([]float64, bm.Model.NumVars())
	values[bm.Inv[builder.InvKey{Scenario: "Low", PlantID: "P1", Period: "2025-01"}].Index] = 10
	values[bm.Inv[builder.InvKey{Scenario: "High", PlantID: "P1", Period: "2025-01"}].Index] = 30

	out := &solver.Outcome{OK: true, Termination: domain.TerminationOptimal, Values: values}
	run, err := Parse(bm, out)
	require.NoError(t, err)

	assert.Equal(t, []string{"Low", "High"}, run.Scenarios)
	assert.Equal(t, 0.5, run.ScenarioProbabilities["Low"])
	// 0.5*10*1 + 0.5*30*1
	assert.InDelta(t, 20.0, run.CostBreakdown.Holding, 1e-9)
	// строки запасов по каждому сценарию
	assert.Len(t, run.InventoryRows, 4)
}

func TestParse_RobustWorstCaseHolding(t *testing.T) {
	ds := testDataset(t)
	scen, err := scenario.Generate(ds, []domain.ScenarioSpec{
		{Name: "Low", Probability: 0.5, Multiplier: 0.9},
		{Name: "High", Probability: 0.5, Multiplier: 1.1},
	})
	require.NoError(t, err)

	opts := builder.DefaultOptions()
	opts.OptimizationType = domain.OptimizationRobust
	bm, err := builder.Build(ds, scen, opts)
	require.NoError(t, err)

	values := make([]float64, bm.Model.NumVars())
	values[bm.Inv[builder.InvKey{Scenario: "Low", PlantID: "P1", Period: "2025-01"}].Index] = 10
	values[bm.Inv[builder.InvKey{Scenario: "High", PlantID: "P1", Period: "2025-01"}].Index] = 30

	out := &solver.Outcome{OK: true, Termination: domain.TerminationOptimal, Values: values}
	run, err := Parse(bm, out)
	require.NoError(t, err)

	// хранение худшего сценария, без взвешивания
	assert.InDelta(t, 30.0, run.CostBreakdown.Holding, 1e-9)
}

func TestParse_NilInput(t *testing.T) {
	_, err := Parse(nil, nil)
	assert.Equal(t, apperror.CodeNilInput, apperror.Code(err))
}
