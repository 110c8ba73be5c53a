// Package planner связывает компоненты движка в один синхронный запуск:
// сборка данных, сценарии, построение модели, решение, разбор, аналитика,
// сохранение и кэширование.
package planner

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"clinkerplan/internal/analytics"
	"clinkerplan/internal/builder"
	"clinkerplan/internal/dataset"
	"clinkerplan/internal/parser"
	"clinkerplan/internal/runstore"
	"clinkerplan/internal/scenario"
	"clinkerplan/internal/solver"
	"clinkerplan/pkg/cache"
	"clinkerplan/pkg/config"
	"clinkerplan/pkg/domain"
	"clinkerplan/pkg/logger"
	"clinkerplan/pkg/metrics"
	"clinkerplan/pkg/telemetry"
)

// Request полный вход одного запуска планирования: снимок мастер-данных
// плюс параметры запуска
type Request struct {
	Periods     []string           `json:"periods"`
	DemandClass domain.DemandClass `json:"demand_class,omitempty"`

	Plants   []domain.Plant           `json:"plants"`
	Routes   []domain.Route           `json:"routes"`
	Demand   []domain.DemandEntry     `json:"demand"`
	Policies []domain.InventoryPolicy `json:"policies,omitempty"`

	Fulfillment        []domain.FulfillmentRequirement `json:"fulfillment,omitempty"`
	ClosingStockBounds []domain.ClosingStockBound      `json:"closing_stock_bounds,omitempty"`
	TransportLimits    []domain.TransportLimit         `json:"transport_limits,omitempty"`
	RouteBounds        []domain.RouteBound             `json:"route_bounds,omitempty"`

	// Сценарии спроса, обязательны для стохастического и робастного типов
	Scenarios []domain.ScenarioSpec `json:"scenarios,omitempty"`

	OptimizationType domain.OptimizationType `json:"optimization_type,omitempty"`
	FeasibilityRelax bool                    `json:"feasibility_relax,omitempty"`

	// Переопределение бэкенда из конфигурации
	Backend string `json:"backend,omitempty"`
}

// Service исполняет запуски планирования
type Service struct {
	cfg    *config.Config
	solver *solver.Orchestrator
	engine *analytics.Engine
	store  runstore.Store
	cache  *cache.PlanCache
}

// New создаёт сервис планирования. store и planCache могут быть nil,
// тогда запуски не сохраняются и не кэшируются.
func New(cfg *config.Config, orch *solver.Orchestrator, store runstore.Store, planCache *cache.PlanCache) *Service {
	return &Service{
		cfg:    cfg,
		solver: orch,
		engine: analytics.NewEngine(cfg.Analytics),
		store:  store,
		cache:  planCache,
	}
}

// Run выполняет один запуск планирования от снимка мастер-данных до
// сохранённого плана с аналитикой. Модель строится, решается и
// отбрасывается внутри запуска, между запусками общего состояния нет.
func (s *Service) Run(ctx context.Context, req *Request) (*domain.SolvedRun, error) {
	if req == nil {
		return nil, fmt.Errorf("nil planning request")
	}

	optType := req.OptimizationType
	if optType == "" {
		optType = domain.OptimizationDeterministic
	}
	backend := req.Backend
	if backend == "" {
		backend = s.cfg.Solver.Backend
	}

	ctx, span := telemetry.StartSpan(ctx, "Planner.Run",
		trace.WithAttributes(
			attribute.String("optimization_type", string(optType)),
			attribute.String("backend", backend),
			attribute.Bool("feasibility_relax", req.FeasibilityRelax),
		),
	)
	defer span.End()

	fp := s.fingerprint(req, optType, backend)
	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, fp)
		if err != nil {
			logger.Log.Warn("plan cache lookup failed", "error", err)
		}
		if found {
			telemetry.AddEvent(ctx, "cache_hit",
				attribute.String("run_id", cached.ID))
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return cached, nil
		}
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	ds, err := dataset.Assemble(dataset.Input{
		Periods:           req.Periods,
		DemandClass:       req.DemandClass,
		Plants:            req.Plants,
		Routes:            req.Routes,
		Demand:            req.Demand,
		Policies:          req.Policies,
		Fulfillment:       req.Fulfillment,
		ClosingStockBound: req.ClosingStockBounds,
		TransportLimits:   req.TransportLimits,
		RouteBounds:       req.RouteBounds,
	})
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	var scen *scenario.Set
	if optType.IsUncertainty() {
		scen, err = scenario.Generate(ds, req.Scenarios)
		if err != nil {
			telemetry.SetError(ctx, err)
			return nil, err
		}
	}

	opts := builder.DefaultOptions()
	opts.OptimizationType = optType
	opts.Repair = req.FeasibilityRelax
	if s.cfg.Solver.BigMTrips > 0 {
		opts.BigMTrips = s.cfg.Solver.BigMTrips
	}

	bm, err := builder.Build(ds, scen, opts)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	scenarios := 0
	if scen != nil {
		scenarios = len(scen.Names)
	}
	metrics.Get().RecordModelSize(string(optType), bm.Model.NumVars(), bm.Model.NumConstraints())
	telemetry.SetAttributes(ctx, telemetry.ModelAttributes(
		string(optType), bm.Model.NumVars(), bm.Model.NumConstraints(),
		len(ds.Periods), scenarios)...)

	outcome, err := s.solver.Solve(ctx, bm.Model, backend, optType)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	run, err := parser.Parse(bm, outcome)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}
	run.ID = uuid.NewString()

	if run.Termination == domain.TerminationInfeasible && !req.FeasibilityRelax {
		run.Message += "; retry with the feasibility-repair variant to locate unmet demand"
	}

	telemetry.SetAttributes(ctx, telemetry.SolverAttributes(
		backend, run.Solver, string(run.Termination), run.ObjectiveValue)...)

	if s.store != nil {
		if err := s.store.Save(ctx, run); err != nil {
			logger.Log.Warn("failed to persist run", "run_id", run.ID, "error", err)
		}
	}

	if run.Success() {
		s.attachAnalytics(ctx, run, ds, scen)

		if s.cache != nil {
			if err := s.cache.Set(ctx, fp, run, 0); err != nil {
				logger.Log.Warn("failed to cache plan", "run_id", run.ID, "error", err)
			}
		}
	}

	logger.Log.Info("planning run finished",
		"run_id", run.ID,
		"optimization_type", string(optType),
		"termination", string(run.Termination),
		"objective", run.ObjectiveValue,
	)
	return run, nil
}

// attachAnalytics считает аналитику и дописывает её к сохранённому
// запуску. Ошибка аналитики не отменяет сам запуск.
func (s *Service) attachAnalytics(ctx context.Context, run *domain.SolvedRun, ds *dataset.Dataset, scen *scenario.Set) {
	a, err := s.engine.Compute(run, ds, scen)
	if err != nil {
		logger.Log.Warn("analytics computation failed", "run_id", run.ID, "error", err)
		return
	}
	run.Analytics = a

	if s.store != nil {
		if err := s.store.SaveAnalytics(ctx, run.ID, a); err != nil {
			logger.Log.Warn("failed to persist analytics", "run_id", run.ID, "error", err)
		}
	}
}

func (s *Service) fingerprint(req *Request, optType domain.OptimizationType, backend string) *cache.PlanFingerprint {
	return &cache.PlanFingerprint{
		Periods:            req.Periods,
		DemandClass:        req.DemandClass,
		Plants:             req.Plants,
		Routes:             req.Routes,
		Demand:             req.Demand,
		Policies:           req.Policies,
		Fulfillment:        req.Fulfillment,
		ClosingStockBounds: req.ClosingStockBounds,
		TransportLimits:    req.TransportLimits,
		RouteBounds:        req.RouteBounds,
		Scenarios:          req.Scenarios,
		OptimizationType:   optType,
		FeasibilityRelax:   req.FeasibilityRelax,
		Backend:            backend,
		TimeLimitSeconds:   s.cfg.Solver.TimeLimitSeconds,
		MIPGap:             s.cfg.Solver.MIPGap,
	}
}
