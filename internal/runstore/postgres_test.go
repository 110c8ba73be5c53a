package runstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinkerplan/pkg/domain"
)

type pgxMockAdapter struct {
	mock pgxmock.PgxPoolIface
}

func (a *pgxMockAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return a.mock.Exec(ctx, sql, args...)
}

func (a *pgxMockAdapter) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return a.mock.Query(ctx, sql, args...)
}

func (a *pgxMockAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return a.mock.QueryRow(ctx, sql, args...)
}

func (a *pgxMockAdapter) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return a.mock.BeginTx(ctx, txOptions)
}

func (a *pgxMockAdapter) Close() {
	a.mock.Close()
}

func (a *pgxMockAdapter) Ping(ctx context.Context) error {
	return a.mock.Ping(ctx)
}

func setupMockStore(t *testing.T) (pgxmock.PgxPoolIface, *PostgresStore) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return mock, NewPostgresStore(&pgxMockAdapter{mock: mock})
}

func sampleRun() *domain.SolvedRun {
	return &domain.SolvedRun{
		ID:               "7b8a7c52-6f2b-4c11-9a40-3a5f1a2b9c01",
		OptimizationType: domain.OptimizationDeterministic,
		Termination:      domain.TerminationOptimal,
		Solver:           "cbc",
		ObjectiveValue:   840,
		Runtime:          0.42,
		Periods:          []string{"2025-01"},
		CreatedAt:        time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPostgresStore_Save(t *testing.T) {
	mock, store := setupMockStore(t)
	defer mock.Close()

	run := sampleRun()
	payload, err := json.Marshal(run)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO runs").
		WithArgs(run.ID, "deterministic", "optimal", "cbc", 840.0, 0.42, false, payload, run.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, store.Save(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save_WithAnalytics(t *testing.T) {
	mock, store := setupMockStore(t)
	defer mock.Close()

	run := sampleRun()
	run.Analytics = &domain.Analytics{
		Resilience: &domain.Resilience{Score: 72, Classification: domain.ResilienceBalanced},
	}
	payload, err := json.Marshal(run)
	require.NoError(t, err)
	analytics, err := json.Marshal(run.Analytics)
	require.NoError(t, err)

	// Запуск и аналитика уходят в базу одной транзакцией
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO runs").
		WithArgs(run.ID, "deterministic", "optimal", "cbc", 840.0, 0.42, false, payload, run.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE runs SET analytics").
		WithArgs(analytics, run.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, store.Save(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save_RollbackOnInsertError(t *testing.T) {
	mock, store := setupMockStore(t)
	defer mock.Close()

	run := sampleRun()
	payload, err := json.Marshal(run)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO runs").
		WithArgs(run.ID, "deterministic", "optimal", "cbc", 840.0, 0.42, false, payload, run.CreatedAt).
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err = store.Save(context.Background(), run)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	mock, store := setupMockStore(t)
	defer mock.Close()

	run := sampleRun()
	payload, err := json.Marshal(run)
	require.NoError(t, err)
	analytics, err := json.Marshal(&domain.Analytics{
		Resilience: &domain.Resilience{Score: 72, Classification: domain.ResilienceBalanced},
	})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT run_data, analytics FROM runs").
		WithArgs(run.ID).
		WillReturnRows(pgxmock.NewRows([]string{"run_data", "analytics"}).AddRow(payload, analytics))

	got, err := store.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, 840.0, got.ObjectiveValue)
	require.NotNil(t, got.Analytics)
	assert.Equal(t, domain.ResilienceBalanced, got.Analytics.Resilience.Classification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	mock, store := setupMockStore(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT run_data, analytics FROM runs").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestPostgresStore_List(t *testing.T) {
	mock, store := setupMockStore(t)
	defer mock.Close()

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT id, optimization_type").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "optimization_type", "termination", "solver", "objective_value",
			"runtime_seconds", "feasibility_relax", "created_at",
		}).AddRow("run-1", "deterministic", "optimal", "cbc", 840.0, 0.42, false, created))

	summaries, total, err := store.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, summaries, 1)
	assert.Equal(t, "run-1", summaries[0].ID)
	assert.Equal(t, domain.TerminationOptimal, summaries[0].Termination)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete_NotFound(t *testing.T) {
	mock, store := setupMockStore(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM runs").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := store.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestPostgresStore_SaveAnalytics(t *testing.T) {
	mock, store := setupMockStore(t)
	defer mock.Close()

	analytics := &domain.Analytics{Resilience: &domain.Resilience{Score: 55}}
	payload, err := json.Marshal(analytics)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE runs SET analytics").
		WithArgs(payload, "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.SaveAnalytics(context.Background(), "run-1", analytics))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, store.Save(ctx, run))

	got, err := store.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ObjectiveValue, got.ObjectiveValue)

	// мутация копии не затрагивает хранилище
	got.ObjectiveValue = 0
	again, err := store.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 840.0, again.ObjectiveValue)
}

func TestMemoryStore_ListFiltersAndPaginates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := sampleRun()
	for i, spec := range []struct {
		id          string
		termination domain.Termination
		optType     domain.OptimizationType
	}{
		{"run-1", domain.TerminationOptimal, domain.OptimizationDeterministic},
		{"run-2", domain.TerminationInfeasible, domain.OptimizationDeterministic},
		{"run-3", domain.TerminationOptimal, domain.OptimizationStochastic},
	} {
		run := *base
		run.ID = spec.id
		run.Termination = spec.termination
		run.OptimizationType = spec.optType
		run.CreatedAt = base.CreatedAt.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.Save(ctx, &run))
	}

	summaries, total, err := store.List(ctx, &ListOptions{OnlySuccessful: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	// новые сверху
	assert.Equal(t, "run-3", summaries[0].ID)

	summaries, total, err = store.List(ctx, &ListOptions{
		OptimizationType: domain.OptimizationStochastic,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "run-3", summaries[0].ID)

	summaries, _, err = store.List(ctx, &ListOptions{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "run-1", summaries[0].ID)
}

func TestMemoryStore_SaveAnalytics(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, store.Save(ctx, run))
	require.NoError(t, store.SaveAnalytics(ctx, run.ID, &domain.Analytics{
		Resilience: &domain.Resilience{Score: 62.5, Classification: domain.ResilienceBalanced},
	}))

	got, err := store.Get(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Analytics)
	assert.Equal(t, 62.5, got.Analytics.Resilience.Score)

	assert.ErrorIs(t, store.SaveAnalytics(ctx, "missing", nil), ErrRunNotFound)
}
