package solver

import (
	"context"
	"os"
	"strconv"
	"strings"

	"clinkerplan/internal/milp"
	"clinkerplan/pkg/domain"
)

const highsBinary = "highs"

// HiGHS бэкенд открытого солвера HiGHS
type HiGHS struct{}

func (HiGHS) Name() string { return "highs" }

func (HiGHS) Available() bool { return binaryAvailable(highsBinary) }

// Solve запускает highs с записью файла решения. Опции солверу
// не передаются, используются его значения по умолчанию.
func (h HiGHS) Solve(ctx context.Context, model *milp.Model, opts Options) (*Result, error) {
	r, err := newRun(h.Name(), model, opts)
	if err != nil {
		return nil, err
	}
	defer r.cleanup()

	solPath := r.path("solution.txt")
	if _, err := r.exec(ctx, highsBinary, "--solution_file", solPath, r.lpPath); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(solPath)
	if err != nil {
		return &Result{Termination: domain.TerminationError, LogPath: r.logPath}, nil
	}
	result, byName := parseHiGHSSolution(string(content))
	result.LogPath = r.logPath
	if result.Termination.IsSuccess() {
		result.Values = valuesFromSolution(model, byName)
	}
	return result, nil
}

// parseHiGHSSolution разбирает текстовый файл решения highs:
// блок "Model status" содержит статус, значения переменных лежат
// между строками "# Columns N" и "# Rows N"
func parseHiGHSSolution(content string) (*Result, map[string]float64) {
	result := &Result{Termination: domain.TerminationError}
	values := make(map[string]float64)

	lines := strings.Split(content, "\n")
	inColumns := false
	expectStatus := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case line == "Model status":
			expectStatus = true
			continue
		case expectStatus:
			result.Termination = highsTermination(line)
			expectStatus = false
			continue
		case strings.HasPrefix(line, "Objective"):
			fields := strings.Fields(line)
			if len(fields) == 2 {
				if obj, err := strconv.ParseFloat(fields[1], 64); err == nil {
					result.Objective = obj
				}
			}
		case strings.HasPrefix(line, "# Columns"):
			inColumns = true
			continue
		case strings.HasPrefix(line, "# Rows"):
			inColumns = false
			continue
		}
		if inColumns {
			fields := strings.Fields(line)
			if len(fields) != 2 {
				continue
			}
			if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
				values[fields[0]] = v
			}
		}
	}
	return result, values
}

func highsTermination(status string) domain.Termination {
	switch status {
	case "Optimal":
		return domain.TerminationOptimal
	case "Infeasible":
		return domain.TerminationInfeasible
	case "Time limit reached":
		return domain.TerminationTimeLimit
	case "Feasible":
		return domain.TerminationFeasible
	default:
		return domain.TerminationError
	}
}
