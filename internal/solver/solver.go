package solver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"clinkerplan/internal/milp"
	"clinkerplan/pkg/apperror"
	"clinkerplan/pkg/config"
	"clinkerplan/pkg/domain"
	"clinkerplan/pkg/logger"
	"clinkerplan/pkg/metrics"
)

// fallbackChains порядок подстановки при недоступности запрошенного
// бэкенда: от коммерческого к свободным
var fallbackChains = map[string][]string{
	"gurobi": {"cbc", "highs", "scip"},
	"cbc":    {"highs", "scip"},
	"highs":  {"scip"},
	"scip":   {},
}

// Outcome итог оркестрации решения
type Outcome struct {
	OK             bool
	Message        string
	Termination    domain.Termination
	SolverUsed     string
	RuntimeSeconds float64
	Objective      float64
	Values         []float64
	LogPath        string
}

// Orchestrator выбирает доступный бэкенд и решает модель.
// Неизвестное имя бэкенда отклоняется сразу, недоступный известный
// бэкенд заменяется по цепочке подстановки с предупреждением в логе.
type Orchestrator struct {
	opts     Options
	backends map[string]Backend
}

// New создаёт оркестратор со стандартным набором бэкендов
func New(cfg config.SolverConfig) *Orchestrator {
	o := &Orchestrator{
		opts: Options{
			TimeLimitSeconds: float64(cfg.TimeLimitSeconds),
			MIPGap:           cfg.MIPGap,
			WorkDir:          cfg.WorkDir,
			CaptureLogs:      cfg.CaptureLogs,
			LogDir:           cfg.LogDir,
		},
		backends: make(map[string]Backend),
	}
	for _, b := range []Backend{Gurobi{}, CBC{}, HiGHS{}, SCIP{}} {
		o.backends[b.Name()] = b
	}
	return o
}

// Register заменяет бэкенд, используется в тестах
func (o *Orchestrator) Register(b Backend) {
	o.backends[b.Name()] = b
}

// ValidBackends возвращает отсортированные имена поддерживаемых бэкендов
func (o *Orchestrator) ValidBackends() []string {
	names := make([]string, 0, len(o.backends))
	for name := range o.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Solve решает модель запрошенным бэкендом или его заменой.
// optimizationType нужен только для метрик.
func (o *Orchestrator) Solve(ctx context.Context, model *milp.Model, requested string, optimizationType domain.OptimizationType) (*Outcome, error) {
	backend, ok := o.backends[requested]
	if !ok {
		return nil, apperror.NewWithField(apperror.CodeUnknownBackend,
			fmt.Sprintf("unknown solver backend %q, valid backends: %v", requested, o.ValidBackends()),
			"backend")
	}

	used := backend
	if !backend.Available() {
		used = nil
		for _, name := range fallbackChains[requested] {
			candidate := o.backends[name]
			if candidate.Available() {
				logger.Log.Warn("requested solver is not available, falling back",
					"requested", requested, "used", name)
				metrics.Get().RecordFallback(requested, name)
				used = candidate
				break
			}
			logger.Log.Warn("fallback solver is not available", "backend", name)
		}
	}
	if used == nil {
		msg := fmt.Sprintf("no solver available: %s and all fallbacks are missing", requested)
		logger.Log.Error("solve aborted", "requested", requested)
		return &Outcome{
			OK:          false,
			Message:     msg,
			Termination: domain.TerminationNotAvailable,
		}, nil
	}

	if o.opts.TimeLimitSeconds > 0 {
		// запас поверх собственного лимита солвера на запись решения
		budget := time.Duration(o.opts.TimeLimitSeconds*float64(time.Second)) + 30*time.Second
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	start := time.Now()
	result, err := used.Solve(ctx, model, o.opts)
	elapsed := time.Since(start)
	if err != nil {
		metrics.Get().RecordSolve(used.Name(), string(optimizationType), string(domain.TerminationError), elapsed, 0)
		return nil, err
	}

	outcome := &Outcome{
		OK:             result.Termination.IsSuccess(),
		Termination:    result.Termination,
		SolverUsed:     used.Name(),
		RuntimeSeconds: elapsed.Seconds(),
		Objective:      result.Objective,
		Values:         result.Values,
		LogPath:        result.LogPath,
	}
	outcome.Message = outcomeMessage(outcome)

	metrics.Get().RecordSolve(used.Name(), string(optimizationType), string(result.Termination), elapsed, result.Objective)
	logger.Log.Info("solve finished",
		"backend", used.Name(),
		"termination", string(result.Termination),
		"objective", result.Objective,
		"runtime_seconds", outcome.RuntimeSeconds,
	)
	return outcome, nil
}

func outcomeMessage(o *Outcome) string {
	switch o.Termination {
	case domain.TerminationOptimal:
		return fmt.Sprintf("optimal solution found by %s", o.SolverUsed)
	case domain.TerminationFeasible:
		return fmt.Sprintf("feasible solution found by %s", o.SolverUsed)
	case domain.TerminationTimeLimit:
		return fmt.Sprintf("time limit reached, best solution returned by %s", o.SolverUsed)
	case domain.TerminationInfeasible:
		return "model is infeasible"
	default:
		return fmt.Sprintf("solver %s failed: %s", o.SolverUsed, o.Termination)
	}
}
