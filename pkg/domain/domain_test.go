package domain

import (
	"encoding/json"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestPlant_IsProducing(t *testing.T) {
	tests := []struct {
		name     string
		category PlantCategory
		want     bool
	}{
		{"clinker plant", CategoryClinkerPlant, true},
		{"grinding unit", CategoryGrindingUnit, false},
		{"unknown category", PlantCategory("Depot"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Plant{ID: "P1", Category: tt.category}
			if got := p.IsProducing(); got != tt.want {
				t.Errorf("IsProducing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlant_Capacity(t *testing.T) {
	producing := &Plant{Category: CategoryClinkerPlant, ProductionCapacity: f64(100), ProductionCost: f64(10)}
	if got := producing.Capacity(); got != 100 {
		t.Errorf("Capacity() = %v, want 100", got)
	}
	if got := producing.UnitCost(); got != 10 {
		t.Errorf("UnitCost() = %v, want 10", got)
	}

	storage := &Plant{Category: CategoryGrindingUnit, ProductionCapacity: f64(100)}
	if got := storage.Capacity(); got != 0 {
		t.Errorf("non-producing Capacity() = %v, want 0", got)
	}

	missing := &Plant{Category: CategoryClinkerPlant}
	if got := missing.Capacity(); got != 0 {
		t.Errorf("missing Capacity() = %v, want 0", got)
	}
}

func TestRouteKey_String(t *testing.T) {
	k := RouteKey{From: "P1", To: "P2", Mode: "Rail"}
	if got := k.String(); got != "P1->P2[Rail]" {
		t.Errorf("String() = %q", got)
	}
	if got := k.Lane().String(); got != "P1->P2" {
		t.Errorf("Lane().String() = %q", got)
	}
}

func TestRoute_ShipmentBounds(t *testing.T) {
	r := &Route{From: "P1", To: "P2", Mode: "Road", CapacityPerTrip: 50, SBQ: 10}

	if got := r.MaxShipment(3); got != 150 {
		t.Errorf("MaxShipment(3) = %v, want 150", got)
	}
	if got := r.MinShipment(3); got != 30 {
		t.Errorf("MinShipment(3) = %v, want 30", got)
	}
	if r.Key() != (RouteKey{From: "P1", To: "P2", Mode: "Road"}) {
		t.Errorf("Key() = %v", r.Key())
	}
}

func TestTermination_IsSuccess(t *testing.T) {
	tests := []struct {
		term Termination
		want bool
	}{
		{TerminationOptimal, true},
		{TerminationFeasible, true},
		{TerminationTimeLimit, true},
		{TerminationInfeasible, false},
		{TerminationNotAvailable, false},
		{TerminationError, false},
	}

	for _, tt := range tests {
		if got := tt.term.IsSuccess(); got != tt.want {
			t.Errorf("%s.IsSuccess() = %v, want %v", tt.term, got, tt.want)
		}
	}
}

func TestOptimizationType_IsUncertainty(t *testing.T) {
	if OptimizationDeterministic.IsUncertainty() {
		t.Error("deterministic should not be uncertainty")
	}
	if !OptimizationStochastic.IsUncertainty() {
		t.Error("stochastic should be uncertainty")
	}
	if !OptimizationRobust.IsUncertainty() {
		t.Error("robust should be uncertainty")
	}
}

func TestCostBreakdown_Total(t *testing.T) {
	c := CostBreakdown{Production: 800, Transport: 40, Holding: 5, Penalty: 0}
	if got := c.Total(); got != 845 {
		t.Errorf("Total() = %v, want 845", got)
	}
}

func TestClassifyResilience(t *testing.T) {
	tests := []struct {
		score float64
		want  ResilienceClass
	}{
		{85, ResilienceResilient},
		{80, ResilienceResilient},
		{62.5, ResilienceBalanced},
		{60, ResilienceBalanced},
		{59.99, ResilienceAtRisk},
		{40, ResilienceAtRisk},
	}

	for _, tt := range tests {
		if got := ClassifyResilience(tt.score); got != tt.want {
			t.Errorf("ClassifyResilience(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestSolvedRun_JSONFieldNames(t *testing.T) {
	run := &SolvedRun{
		ID:               "run-1",
		OptimizationType: OptimizationStochastic,
		ObjectiveValue:   840,
		CostBreakdown:    CostBreakdown{Production: 800, Transport: 40},
		ProductionRows:   []ProductionRow{{PlantID: "P1", Period: "1", Quantity: 80}},
		TransportRows:    []TransportRow{{From: "P1", To: "P2", Mode: "Road", Period: "1", Quantity: 80, Trips: 2}},
		InventoryRows:    []InventoryRow{{PlantID: "P2", Period: "1", Scenario: "base", Level: 20}},
		Scenarios:        []string{"base"},
		ScenarioProbabilities: map[string]float64{
			"base": 1,
		},
		Termination: TerminationOptimal,
	}

	data, err := json.Marshal(run)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	for _, field := range []string{
		"objective_value", "cost_breakdown",
		"production_rows", "transport_rows", "inventory_rows",
		"scenarios", "scenario_probabilities",
	} {
		if _, ok := doc[field]; !ok {
			t.Errorf("marshalled run missing field %q", field)
		}
	}

	if _, ok := doc["analytics"]; ok {
		t.Error("analytics should be omitted until attached")
	}
}

func TestFloatHelpers(t *testing.T) {
	if !FloatEquals(1.0, 1.0+1e-9) {
		t.Error("FloatEquals should tolerate tiny differences")
	}
	if !IsZero(1e-9) {
		t.Error("IsZero(1e-9) should be true")
	}
	if IsPositive(1e-9) {
		t.Error("IsPositive(1e-9) should be false")
	}
	if !IsPositive(0.001) {
		t.Error("IsPositive(0.001) should be true")
	}
}
