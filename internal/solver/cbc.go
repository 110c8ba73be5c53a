package solver

import (
	"context"
	"os"
	"strconv"
	"strings"

	"clinkerplan/internal/milp"
	"clinkerplan/pkg/domain"
)

const cbcBinary = "cbc"

// CBC бэкенд COIN-OR CBC через одноимённую консольную утилиту
type CBC struct{}

func (CBC) Name() string { return "cbc" }

func (CBC) Available() bool { return binaryAvailable(cbcBinary) }

// Solve записывает модель, запускает cbc и разбирает файл решения.
// Из опций cbc понимает только лимит времени.
func (c CBC) Solve(ctx context.Context, model *milp.Model, opts Options) (*Result, error) {
	r, err := newRun(c.Name(), model, opts)
	if err != nil {
		return nil, err
	}
	defer r.cleanup()

	solPath := r.path("solution.txt")
	args := []string{r.lpPath}
	if opts.TimeLimitSeconds > 0 {
		args = append(args, "-seconds", strconv.FormatFloat(opts.TimeLimitSeconds, 'f', -1, 64))
	}
	if opts.MIPGap > 0 {
		args = append(args, "-ratioGap", strconv.FormatFloat(opts.MIPGap, 'f', -1, 64))
	}
	args = append(args, "solve", "solu", solPath)

	if _, err := r.exec(ctx, cbcBinary, args...); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(solPath)
	if err != nil {
		return &Result{Termination: domain.TerminationError, LogPath: r.logPath}, nil
	}
	result := parseCBCSolution(string(content))
	result.LogPath = r.logPath
	if result.Termination.IsSuccess() {
		result.Values = valuesFromSolution(model, parseCBCValues(string(content)))
	}
	return result, nil
}

// parseCBCSolution определяет статус и целевое значение по первой
// строке файла решения cbc
func parseCBCSolution(content string) *Result {
	line, _, _ := strings.Cut(content, "\n")
	line = strings.TrimSpace(line)

	result := &Result{Termination: domain.TerminationError}
	switch {
	case strings.HasPrefix(line, "Optimal"):
		result.Termination = domain.TerminationOptimal
	case strings.HasPrefix(line, "Stopped on time"):
		result.Termination = domain.TerminationTimeLimit
	case strings.Contains(line, "infeasible") || strings.HasPrefix(line, "Infeasible"):
		result.Termination = domain.TerminationInfeasible
	case strings.HasPrefix(line, "Unbounded"):
		result.Termination = domain.TerminationError
	}

	if idx := strings.Index(line, "objective value"); idx >= 0 {
		raw := strings.TrimSpace(line[idx+len("objective value"):])
		if obj, err := strconv.ParseFloat(raw, 64); err == nil {
			result.Objective = obj
		}
	}
	return result
}

// parseCBCValues разбирает строки решения вида
//
//	0 Prod_P1_T1 90 10
//
// где колонки: номер, имя, значение, редуцированная стоимость
func parseCBCValues(content string) map[string]float64 {
	values := make(map[string]float64)
	lines := strings.Split(content, "\n")
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			continue
		}
		values[fields[1]] = v
	}
	return values
}
