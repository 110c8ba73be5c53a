package solver

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"clinkerplan/internal/milp"
	"clinkerplan/pkg/domain"
)

const gurobiBinary = "gurobi_cl"

// Gurobi коммерческий бэкенд, запускается через gurobi_cl
type Gurobi struct{}

func (Gurobi) Name() string { return "gurobi" }

func (Gurobi) Available() bool { return binaryAvailable(gurobiBinary) }

// Solve запускает gurobi_cl с параметрами через пары имя=значение.
// Статус решения определяется по выводу, значения переменных по
// файлу результата.
func (g Gurobi) Solve(ctx context.Context, model *milp.Model, opts Options) (*Result, error) {
	r, err := newRun(g.Name(), model, opts)
	if err != nil {
		return nil, err
	}
	defer r.cleanup()

	solPath := r.path("model.sol")
	args := []string{}
	if opts.TimeLimitSeconds > 0 {
		args = append(args, fmt.Sprintf("TimeLimit=%g", opts.TimeLimitSeconds))
	}
	if opts.MIPGap > 0 {
		args = append(args, fmt.Sprintf("MIPGap=%g", opts.MIPGap))
	}
	args = append(args, "ResultFile="+solPath, r.lpPath)

	out, err := r.exec(ctx, gurobiBinary, args...)
	if err != nil {
		return nil, err
	}

	result := &Result{Termination: gurobiTermination(out), LogPath: r.logPath}
	content, readErr := os.ReadFile(solPath)
	if readErr != nil {
		if result.Termination == domain.TerminationOptimal {
			result.Termination = domain.TerminationError
		}
		return result, nil
	}
	objective, byName := parseGurobiSolution(string(content))
	result.Objective = objective
	if result.Termination.IsSuccess() {
		result.Values = valuesFromSolution(model, byName)
	}
	return result, nil
}

func gurobiTermination(out string) domain.Termination {
	switch {
	case strings.Contains(out, "Optimal solution found"):
		return domain.TerminationOptimal
	case strings.Contains(out, "Model is infeasible"):
		return domain.TerminationInfeasible
	case strings.Contains(out, "Time limit reached"):
		return domain.TerminationTimeLimit
	case strings.Contains(out, "Solution count 0"):
		return domain.TerminationError
	case strings.Contains(out, "Solution count"):
		return domain.TerminationFeasible
	default:
		return domain.TerminationError
	}
}

// parseGurobiSolution разбирает формат .sol: комментарий с целевым
// значением и строки "имя значение"
func parseGurobiSolution(content string) (float64, map[string]float64) {
	var objective float64
	values := make(map[string]float64)
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if idx := strings.Index(line, "Objective value ="); idx >= 0 {
				rest := strings.TrimSpace(line[idx+len("Objective value ="):])
				if obj, err := strconv.ParseFloat(rest, 64); err == nil {
					objective = obj
				}
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
			values[fields[0]] = v
		}
	}
	return objective, values
}
