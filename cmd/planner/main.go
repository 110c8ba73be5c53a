package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"clinkerplan/internal/export"
	"clinkerplan/internal/planner"
	"clinkerplan/internal/runstore"
	"clinkerplan/internal/solver"
	"clinkerplan/migrations"
	"clinkerplan/pkg/cache"
	"clinkerplan/pkg/config"
	"clinkerplan/pkg/database"
	"clinkerplan/pkg/domain"
	"clinkerplan/pkg/logger"
	"clinkerplan/pkg/metrics"
	"clinkerplan/pkg/telemetry"
)

func main() {
	var (
		configPath   = flag.String("config", "", "path to config file (default: standard lookup paths)")
		inputPath    = flag.String("input", "-", "planning request JSON, - for stdin")
		outputPath   = flag.String("output", "-", "solved run JSON, - for stdout")
		exportPath   = flag.String("export", "", "optional export file for the solved plan")
		exportFormat = flag.String("format", string(export.FormatExcel), "export format: excel, csv, json")
		listRuns     = flag.Bool("list", false, "list stored runs instead of solving")
		deleteRunID  = flag.String("delete", "", "delete a stored run by id instead of solving")
	)
	flag.Parse()

	loaderOpts := []config.LoaderOption{}
	if *configPath != "" {
		loaderOpts = append(loaderOpts, config.WithConfigPaths(*configPath))
	}
	cfg, err := config.NewLoader(loaderOpts...).Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx := context.Background()

	// Инициализация телеметрии
	if cfg.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Log.Warn("Failed to init telemetry", "error", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Log.Warn("Failed to shutdown telemetry", "error", err)
				}
			}()
			logger.Log.Info("Telemetry initialized", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	m := metrics.InitMetrics(cfg.Metrics.Namespace)
	m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)

	// Хранилище запусков: PostgreSQL или память
	var store runstore.Store
	if cfg.Database.Enabled {
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			logger.Fatal("failed to connect to database", "error", err)
		}
		defer db.Close()

		if cfg.Database.AutoMigrate {
			if err := database.RunMigrations(ctx, db.Pool(), &cfg.Database, migrations.FS, migrations.Dir); err != nil {
				logger.Fatal("failed to run migrations", "error", err)
			}
		}
		store = runstore.NewPostgresStore(db)
	} else {
		store = runstore.NewMemoryStore()
	}
	defer store.Close()

	// Режимы работы с историей запусков
	if *listRuns {
		if err := listStoredRuns(ctx, store); err != nil {
			logger.Fatal("failed to list runs", "error", err)
		}
		return
	}
	if *deleteRunID != "" {
		if err := store.Delete(ctx, *deleteRunID); err != nil {
			logger.Fatal("failed to delete run", "run_id", *deleteRunID, "error", err)
		}
		logger.Info("run deleted", "run_id", *deleteRunID)
		return
	}

	// Кэш планов
	var planCache *cache.PlanCache
	if cfg.Cache.Enabled {
		c, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("failed to init plan cache, continuing without it", "error", err)
		} else {
			defer c.Close()
			planCache = cache.NewPlanCache(c, cfg.Cache.TTL, cfg.Cache.KeyPrefix)
		}
	}

	svc := planner.New(cfg, solver.New(cfg.Solver), store, planCache)

	req, err := readRequest(*inputPath)
	if err != nil {
		logger.Fatal("failed to read planning request", "error", err)
	}

	run, err := svc.Run(ctx, req)
	if err != nil {
		logger.Fatal("planning run failed", "error", err)
	}

	if err := writeRun(*outputPath, run); err != nil {
		logger.Fatal("failed to write solved run", "error", err)
	}

	if *exportPath != "" {
		if err := exportRun(ctx, *exportPath, export.Format(*exportFormat), run); err != nil {
			logger.Fatal("failed to export plan", "error", err)
		}
		logger.Info("plan exported", "path", *exportPath, "format", *exportFormat)
	}
}

// listStoredRuns печатает сводки сохранённых запусков в stdout
func listStoredRuns(ctx context.Context, store runstore.Store) error {
	summaries, total, err := store.List(ctx, nil)
	if err != nil {
		return err
	}

	doc := struct {
		Total int64                  `json:"total"`
		Runs  []*runstore.RunSummary `json:"runs"`
	}{Total: total, Runs: summaries}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = os.Stdout.Write(data)
	return err
}

// readRequest читает запрос планирования из файла или stdin
func readRequest(path string) (*planner.Request, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var req planner.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid planning request: %w", err)
	}
	return &req, nil
}

// writeRun печатает решённый план в файл или stdout
func writeRun(path string, run *domain.SolvedRun) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// exportRun сохраняет план в выбранном формате выгрузки
func exportRun(ctx context.Context, path string, format export.Format, run *domain.SolvedRun) error {
	exporter, err := export.ForFormat(format)
	if err != nil {
		return err
	}

	data, err := exporter.Export(ctx, run)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
