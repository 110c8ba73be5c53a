// Package runstore хранит решённые планы: постоянное хранилище в
// PostgreSQL и хранилище в памяти для работы без базы.
package runstore

import (
	"context"
	"errors"
	"time"

	"clinkerplan/pkg/domain"
)

// Стандартные ошибки
var (
	ErrRunNotFound = errors.New("run not found")
)

// RunSummary краткая информация о плане для списков
type RunSummary struct {
	ID               string                  `json:"id"`
	OptimizationType domain.OptimizationType `json:"optimization_type"`
	Termination      domain.Termination      `json:"termination"`
	Solver           string                  `json:"solver"`
	ObjectiveValue   float64                 `json:"objective_value"`
	RuntimeSeconds   float64                 `json:"runtime_seconds"`
	FeasibilityRelax bool                    `json:"feasibility_relax"`
	CreatedAt        time.Time               `json:"created_at"`
}

// ListOptions опции выборки списка планов
type ListOptions struct {
	Limit            int
	Offset           int
	OptimizationType domain.OptimizationType
	OnlySuccessful   bool
}

// Store интерфейс хранилища планов
type Store interface {
	// Save сохраняет план целиком
	Save(ctx context.Context, run *domain.SolvedRun) error
	// Get возвращает план по идентификатору
	Get(ctx context.Context, id string) (*domain.SolvedRun, error)
	// List возвращает страницу кратких сводок и общее число планов
	List(ctx context.Context, opts *ListOptions) ([]*RunSummary, int64, error)
	// Delete удаляет план
	Delete(ctx context.Context, id string) error
	// SaveAnalytics прикрепляет аналитику к сохранённому плану
	SaveAnalytics(ctx context.Context, id string, analytics *domain.Analytics) error
	// Close освобождает ресурсы хранилища
	Close() error
}

func normalizeListOptions(opts *ListOptions) *ListOptions {
	if opts == nil {
		opts = &ListOptions{}
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}

func summaryOf(run *domain.SolvedRun) *RunSummary {
	return &RunSummary{
		ID:               run.ID,
		OptimizationType: run.OptimizationType,
		Termination:      run.Termination,
		Solver:           run.Solver,
		ObjectiveValue:   run.ObjectiveValue,
		RuntimeSeconds:   run.Runtime,
		FeasibilityRelax: run.FeasibilityRelax,
		CreatedAt:        run.CreatedAt,
	}
}
