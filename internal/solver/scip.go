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

const scipBinary = "scip"

// SCIP бэкенд солвера SCIP, управляется командами интерактивной оболочки
type SCIP struct{}

func (SCIP) Name() string { return "scip" }

func (SCIP) Available() bool { return binaryAvailable(scipBinary) }

// Solve передаёт scip последовательность команд: чтение модели,
// лимиты, оптимизация и запись решения
func (s SCIP) Solve(ctx context.Context, model *milp.Model, opts Options) (*Result, error) {
	r, err := newRun(s.Name(), model, opts)
	if err != nil {
		return nil, err
	}
	defer r.cleanup()

	solPath := r.path("solution.sol")
	args := []string{"-c", "read " + r.lpPath}
	if opts.TimeLimitSeconds > 0 {
		args = append(args, "-c", fmt.Sprintf("set limits time %g", opts.TimeLimitSeconds))
	}
	if opts.MIPGap > 0 {
		args = append(args, "-c", fmt.Sprintf("set limits gap %g", opts.MIPGap))
	}
	args = append(args,
		"-c", "optimize",
		"-c", "write solution "+solPath,
		"-c", "quit",
	)

	out, err := r.exec(ctx, scipBinary, args...)
	if err != nil {
		return nil, err
	}

	content, readErr := os.ReadFile(solPath)
	if readErr != nil {
		// без файла решения статус берётся из вывода оболочки
		return &Result{Termination: scipTermination(out), LogPath: r.logPath}, nil
	}
	result, byName := parseSCIPSolution(string(content))
	result.LogPath = r.logPath
	if result.Termination.IsSuccess() {
		result.Values = valuesFromSolution(model, byName)
	}
	return result, nil
}

// parseSCIPSolution разбирает файл решения scip: заголовок со статусом
// и целевым значением, затем строки "имя значение (obj:коэф)"
func parseSCIPSolution(content string) (*Result, map[string]float64) {
	result := &Result{Termination: domain.TerminationError}
	values := make(map[string]float64)

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "solution status:"); ok {
			result.Termination = scipTermination(rest)
			continue
		}
		if rest, ok := strings.CutPrefix(line, "objective value:"); ok {
			if obj, err := strconv.ParseFloat(strings.TrimSpace(rest), 64); err == nil {
				result.Objective = obj
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
			values[fields[0]] = v
		}
	}
	return result, values
}

func scipTermination(status string) domain.Termination {
	status = strings.ToLower(status)
	switch {
	case strings.Contains(status, "optimal"):
		return domain.TerminationOptimal
	case strings.Contains(status, "infeasible"):
		return domain.TerminationInfeasible
	case strings.Contains(status, "time limit"):
		return domain.TerminationTimeLimit
	case strings.Contains(status, "solution") && strings.Contains(status, "found"):
		return domain.TerminationFeasible
	default:
		return domain.TerminationError
	}
}
