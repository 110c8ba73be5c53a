package solver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinkerplan/internal/milp"
	"clinkerplan/pkg/apperror"
	"clinkerplan/pkg/config"
	"clinkerplan/pkg/domain"
)

// fakeBackend управляемый бэкенд для проверки оркестрации
type fakeBackend struct {
	name      string
	available bool
	result    *Result
	err       error
	calls     int
}

func (f *fakeBackend) Name() string    { return f.name }
func (f *fakeBackend) Available() bool { return f.available }
func (f *fakeBackend) Solve(context.Context, *milp.Model, Options) (*Result, error) {
	f.calls++
	return f.result, f.err
}

func testModel(t *testing.T) *milp.Model {
	t.Helper()
	m := milp.NewModel("test")
	x := m.AddNonNegative("x")
	m.SetObjective(milp.NewExpr().Add(1, x))
	m.AddConstraint("c", milp.NewExpr().Add(1, x), milp.GE, 1)
	return m
}

func newTestOrchestrator(backends ...Backend) *Orchestrator {
	o := New(config.SolverConfig{})
	// системные бэкенды заменяются недоступными заглушками
	for name := range o.backends {
		o.Register(&fakeBackend{name: name})
	}
	for _, b := range backends {
		o.Register(b)
	}
	return o
}

func TestSolve_UnknownBackend(t *testing.T) {
	o := newTestOrchestrator()
	_, err := o.Solve(context.Background(), testModel(t), "glpk", domain.OptimizationDeterministic)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeUnknownBackend, apperror.Code(err))
}

func TestSolve_UsesRequestedBackend(t *testing.T) {
	cbc := &fakeBackend{
		name: "cbc", available: true,
		result: &Result{Termination: domain.TerminationOptimal, Objective: 840, Values: []float64{840}},
	}
	o := newTestOrchestrator(cbc)

	out, err := o.Solve(context.Background(), testModel(t), "cbc", domain.OptimizationDeterministic)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, "cbc", out.SolverUsed)
	assert.Equal(t, domain.TerminationOptimal, out.Termination)
	assert.Equal(t, 840.0, out.Objective)
	assert.Equal(t, 1, cbc.calls)
}

func TestSolve_FallbackChain(t *testing.T) {
	scip := &fakeBackend{
		name: "scip", available: true,
		result: &Result{Termination: domain.TerminationOptimal, Objective: 1},
	}
	o := newTestOrchestrator(scip)

	// gurobi, cbc и highs недоступны, цепочка доходит до scip
	out, err := o.Solve(context.Background(), testModel(t), "gurobi", domain.OptimizationDeterministic)
	require.NoError(t, err)
	assert.Equal(t, "scip", out.SolverUsed)
	assert.Equal(t, 1, scip.calls)
}

func TestSolve_NoBackendAvailable(t *testing.T) {
	o := newTestOrchestrator()

	out, err := o.Solve(context.Background(), testModel(t), "scip", domain.OptimizationDeterministic)
	require.NoError(t, err)
	assert.False(t, out.OK)
	assert.Equal(t, domain.TerminationNotAvailable, out.Termination)
	assert.Contains(t, out.Message, "no solver available")
}

func TestSolve_InfeasibleOutcome(t *testing.T) {
	cbc := &fakeBackend{
		name: "cbc", available: true,
		result: &Result{Termination: domain.TerminationInfeasible},
	}
	o := newTestOrchestrator(cbc)

	out, err := o.Solve(context.Background(), testModel(t), "cbc", domain.OptimizationDeterministic)
	require.NoError(t, err)
	assert.False(t, out.OK)
	assert.Equal(t, domain.TerminationInfeasible, out.Termination)
	assert.Equal(t, "model is infeasible", out.Message)
}

func TestValidBackends(t *testing.T) {
	o := New(config.SolverConfig{})
	assert.Equal(t, []string{"cbc", "gurobi", "highs", "scip"}, o.ValidBackends())
}

func TestParseCBCSolution(t *testing.T) {
	content := `Optimal - objective value 840.00000000
      0 Prod_P1_2025-01              90                      0
      1 Ship_P1_P2_Road_2025-01      40                      0
      2 Trips_P1_P2_Road_2025-01      1                      0
`
	result := parseCBCSolution(content)
	assert.Equal(t, domain.TerminationOptimal, result.Termination)
	assert.InDelta(t, 840.0, result.Objective, 1e-9)

	values := parseCBCValues(content)
	assert.Equal(t, 90.0, values["Prod_P1_2025-01"])
	assert.Equal(t, 1.0, values["Trips_P1_P2_Road_2025-01"])
}

func TestParseCBCSolution_Statuses(t *testing.T) {
	tests := []struct {
		line string
		want domain.Termination
	}{
		{"Optimal - objective value 12", domain.TerminationOptimal},
		{"Infeasible - objective value 0", domain.TerminationInfeasible},
		{"Stopped on time limit - objective value 99", domain.TerminationTimeLimit},
		{"Unbounded", domain.TerminationError},
		{"garbage", domain.TerminationError},
	}
	for _, tt := range tests {
		result := parseCBCSolution(tt.line + "\n")
		assert.Equal(t, tt.want, result.Termination, tt.line)
	}
}

func TestParseHiGHSSolution(t *testing.T) {
	content := `Model status
Optimal

# Primal solution values
Feasible
Objective 840
# Columns 2
Prod_P1_2025-01 90
Use_P1_P2_Road_2025-01 1
# Rows 1
bal_P1_2025-01 50
`
	result, values := parseHiGHSSolution(content)
	assert.Equal(t, domain.TerminationOptimal, result.Termination)
	assert.InDelta(t, 840.0, result.Objective, 1e-9)
	assert.Equal(t, 90.0, values["Prod_P1_2025-01"])
	assert.Equal(t, 1.0, values["Use_P1_P2_Road_2025-01"])
	// строки ограничений не попадают в значения переменных
	assert.NotContains(t, values, "bal_P1_2025-01")
}

func TestParseHiGHSSolution_Infeasible(t *testing.T) {
	result, _ := parseHiGHSSolution("Model status\nInfeasible\n")
	assert.Equal(t, domain.TerminationInfeasible, result.Termination)
}

func TestParseSCIPSolution(t *testing.T) {
	content := `solution status: optimal solution found
objective value:                              840
Prod_P1_2025-01                                90 	(obj:10)
Trips_P1_P2_Road_2025-01                        1 	(obj:20)
`
	result, values := parseSCIPSolution(content)
	assert.Equal(t, domain.TerminationOptimal, result.Termination)
	assert.InDelta(t, 840.0, result.Objective, 1e-9)
	assert.Equal(t, 90.0, values["Prod_P1_2025-01"])
	assert.Equal(t, 1.0, values["Trips_P1_P2_Road_2025-01"])
}

func TestParseSCIPSolution_Infeasible(t *testing.T) {
	result, _ := parseSCIPSolution("solution status: infeasible\n")
	assert.Equal(t, domain.TerminationInfeasible, result.Termination)
}

func TestParseGurobiSolution(t *testing.T) {
	content := `# Solution for model clinkerplan_deterministic
# Objective value = 8.4000000000e+02
Prod_P1_2025-01 90
Use_P1_P2_Road_2025-01 1
`
	objective, values := parseGurobiSolution(content)
	assert.InDelta(t, 840.0, objective, 1e-9)
	assert.Equal(t, 90.0, values["Prod_P1_2025-01"])
}

func TestGurobiTermination(t *testing.T) {
	tests := []struct {
		out  string
		want domain.Termination
	}{
		{"Optimal solution found (tolerance 1.00e-04)", domain.TerminationOptimal},
		{"Model is infeasible", domain.TerminationInfeasible},
		{"Time limit reached\nBest objective 9e+02", domain.TerminationTimeLimit},
		{"Solution count 0", domain.TerminationError},
		{"Solution count 3: 840 900 1000", domain.TerminationFeasible},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, gurobiTermination(tt.out), tt.out)
	}
}

func TestValuesFromSolution(t *testing.T) {
	m := milp.NewModel("test")
	x := m.AddNonNegative("Prod P1,T1")
	y := m.AddNonNegative("y")

	values := valuesFromSolution(m, map[string]float64{
		x.LPName:  90,
		"unknown": 5,
	})
	assert.Equal(t, 90.0, values[x.Index])
	assert.Equal(t, 0.0, values[y.Index])
}

// installFakeCBC подкладывает в PATH скрипт cbc, пишущий заданный
// файл решения вместо настоящего солвера
func installFakeCBC(t *testing.T, solution string) {
	t.Helper()
	dir := t.TempDir()
	script := "#!/bin/sh\n" +
		"for a in \"$@\"; do sol=\"$a\"; done\n" +
		"cat > \"$sol\" <<'SOLEOF'\n" +
		solution +
		"SOLEOF\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cbc"), []byte(script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestCBC_Solve_ReturnsValues(t *testing.T) {
	installFakeCBC(t,
		"Optimal - objective value 840\n"+
			"      0 Prod_P1_1              80          0\n"+
			"      1 Trips_P1_P2_Road_1      2          0\n")

	m := milp.NewModel("plan")
	prod := m.AddNonNegative("Prod_P1_1")
	trips := m.AddInteger("Trips_P1_P2_Road_1", 0, 100)
	m.SetObjective(milp.NewExpr().Add(10, prod).Add(20, trips))
	m.AddConstraint("demand", milp.NewExpr().Add(1, prod), milp.GE, 80)

	backend := CBC{}
	require.True(t, backend.Available())

	result, err := backend.Solve(context.Background(), m, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.TerminationOptimal, result.Termination)
	assert.Equal(t, 840.0, result.Objective)
	require.NotNil(t, result.Values)
	assert.Equal(t, 80.0, result.Values[prod.Index])
	assert.Equal(t, 2.0, result.Values[trips.Index])
}

func TestCBC_Solve_InfeasibleHasNoValues(t *testing.T) {
	installFakeCBC(t, "Infeasible - objective value 0\n")

	m := testModel(t)
	result, err := CBC{}.Solve(context.Background(), m, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.TerminationInfeasible, result.Termination)
	assert.Nil(t, result.Values)
}
