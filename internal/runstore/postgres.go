package runstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"clinkerplan/pkg/database"
	"clinkerplan/pkg/domain"
	"clinkerplan/pkg/telemetry"
)

// PostgresStore хранилище планов в PostgreSQL. План целиком лежит
// в JSONB, часто запрашиваемые поля продублированы колонками.
type PostgresStore struct {
	db database.DB
}

// NewPostgresStore создаёт хранилище поверх подключения к базе
func NewPostgresStore(db database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, run *domain.SolvedRun) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresStore.Save")
	defer span.End()

	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	var analytics []byte
	if run.Analytics != nil {
		analytics, err = json.Marshal(run.Analytics)
		if err != nil {
			return fmt.Errorf("failed to marshal analytics: %w", err)
		}
	}

	query := `
		INSERT INTO runs (
			id, optimization_type, termination, solver, objective_value,
			runtime_seconds, feasibility_relax, run_data, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	// Строка запуска и аналитика пишутся одной транзакцией: частично
	// сохранённый запуск недопустим
	err = database.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query,
			run.ID,
			string(run.OptimizationType),
			string(run.Termination),
			run.Solver,
			run.ObjectiveValue,
			run.Runtime,
			run.FeasibilityRelax,
			payload,
			run.CreatedAt,
		); err != nil {
			return err
		}
		if analytics != nil {
			if _, err := tx.Exec(ctx,
				`UPDATE runs SET analytics = $1 WHERE id = $2`, analytics, run.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.SolvedRun, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresStore.Get")
	defer span.End()

	query := `SELECT run_data, analytics FROM runs WHERE id = $1`

	var payload []byte
	var analytics []byte
	err := s.db.QueryRow(ctx, query, id).Scan(&payload, &analytics)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run := &domain.SolvedRun{}
	if err := json.Unmarshal(payload, run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	if len(analytics) > 0 {
		run.Analytics = &domain.Analytics{}
		if err := json.Unmarshal(analytics, run.Analytics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analytics: %w", err)
		}
	}
	return run, nil
}

func (s *PostgresStore) List(ctx context.Context, opts *ListOptions) ([]*RunSummary, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresStore.List")
	defer span.End()

	opts = normalizeListOptions(opts)

	where := " WHERE 1=1"
	args := []any{}
	argIdx := 1
	if opts.OptimizationType != "" {
		where += fmt.Sprintf(" AND optimization_type = $%d", argIdx)
		args = append(args, string(opts.OptimizationType))
		argIdx++
	}
	if opts.OnlySuccessful {
		where += fmt.Sprintf(" AND termination = ANY($%d)", argIdx)
		args = append(args, []string{
			string(domain.TerminationOptimal),
			string(domain.TerminationFeasible),
			string(domain.TerminationTimeLimit),
		})
		argIdx++
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM runs" + where
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}

	query := `
		SELECT id, optimization_type, termination, solver, objective_value,
		       runtime_seconds, feasibility_relax, created_at
		FROM runs` + where + fmt.Sprintf(`
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var result []*RunSummary
	for rows.Next() {
		summary := &RunSummary{}
		var optType, termination string
		if err := rows.Scan(
			&summary.ID,
			&optType,
			&termination,
			&summary.Solver,
			&summary.ObjectiveValue,
			&summary.RuntimeSeconds,
			&summary.FeasibilityRelax,
			&summary.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan run summary: %w", err)
		}
		summary.OptimizationType = domain.OptimizationType(optType)
		summary.Termination = domain.Termination(termination)
		result = append(result, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read run summaries: %w", err)
	}
	return result, total, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresStore.Delete")
	defer span.End()

	result, err := s.db.Exec(ctx, `DELETE FROM runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (s *PostgresStore) SaveAnalytics(ctx context.Context, id string, analytics *domain.Analytics) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresStore.SaveAnalytics")
	defer span.End()

	payload, err := json.Marshal(analytics)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics: %w", err)
	}

	result, err := s.db.Exec(ctx,
		`UPDATE runs SET analytics = $1 WHERE id = $2`, payload, id)
	if err != nil {
		return fmt.Errorf("failed to save analytics: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

// Close не владеет подключением, закрытие пула остаётся за вызывающим
func (s *PostgresStore) Close() error {
	return nil
}
