// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config - главная структура конфигурации
type Config struct {
	App       AppConfig       `koanf:"app"`
	Log       LogConfig       `koanf:"log"`
	Solver    SolverConfig    `koanf:"solver"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Tracing   TracingConfig   `koanf:"tracing"`
	Analytics AnalyticsConfig `koanf:"analytics"`
}

// AppConfig - общие настройки приложения
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // путь к файлу логов
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // количество бэкапов
	MaxAge     int    `koanf:"max_age"`     // дней
	Compress   bool   `koanf:"compress"`
}

// SolverConfig - настройки MILP-солвера
type SolverConfig struct {
	Backend          string  `koanf:"backend"`            // gurobi, cbc, highs, scip
	TimeLimitSeconds int     `koanf:"time_limit_seconds"` // лимит времени решения
	MIPGap           float64 `koanf:"mip_gap"`            // целевой разрыв оптимальности (0.01 = 1%)
	WorkDir          string  `koanf:"work_dir"`           // каталог для LP/решений (пустой = temp)
	CaptureLogs      bool    `koanf:"capture_logs"`       // писать лог солвера в файл
	LogDir           string  `koanf:"log_dir"`
	BigMTrips        float64 `koanf:"big_m_trips"` // Big-M для связки Trips и ModeSelected
}

// DatabaseConfig - настройки базы данных
type DatabaseConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Database        string        `koanf:"database"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// DSN возвращает строку подключения
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// CacheConfig - настройки кэша планов
type CacheConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Backend   string        `koanf:"backend"` // memory, redis
	TTL       time.Duration `koanf:"ttl"`
	Redis     RedisConfig   `koanf:"redis"`
	MaxKeys   int           `koanf:"max_keys"` // только для memory
	KeyPrefix string        `koanf:"key_prefix"`
}

// RedisConfig - настройки Redis
type RedisConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// Address возвращает адрес Redis
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MetricsConfig - настройки Prometheus метрик
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
}

// TracingConfig - настройки OpenTelemetry
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// AnalyticsConfig - пороги аналитики
type AnalyticsConfig struct {
	PlantUtilizationThreshold float64 `koanf:"plant_utilization_threshold"` // % загрузки завода для бутылочного горлышка
	RouteUtilizationThreshold float64 `koanf:"route_utilization_threshold"` // % заполнения рейсов
	TopCostDrivers            int     `koanf:"top_cost_drivers"`            // top-N заводов/маршрутов по затратам
}

var validBackends = map[string]bool{
	"gurobi": true,
	"cbc":    true,
	"highs":  true,
	"scip":   true,
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}

	backend := strings.ToLower(strings.TrimSpace(c.Solver.Backend))
	if !validBackends[backend] {
		return fmt.Errorf("solver.backend must be one of gurobi, cbc, highs, scip; got %q", c.Solver.Backend)
	}
	if c.Solver.TimeLimitSeconds < 1 {
		return fmt.Errorf("solver.time_limit_seconds must be at least 1; got %d", c.Solver.TimeLimitSeconds)
	}
	if c.Solver.MIPGap < 0 || c.Solver.MIPGap >= 1 {
		return fmt.Errorf("solver.mip_gap must be in [0, 1); got %f", c.Solver.MIPGap)
	}
	if c.Solver.BigMTrips <= 0 {
		return fmt.Errorf("solver.big_m_trips must be positive; got %f", c.Solver.BigMTrips)
	}

	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case "memory", "redis":
		default:
			return fmt.Errorf("cache.backend must be memory or redis; got %q", c.Cache.Backend)
		}
	}

	if c.Analytics.PlantUtilizationThreshold <= 0 || c.Analytics.PlantUtilizationThreshold > 100 {
		return fmt.Errorf("analytics.plant_utilization_threshold must be in (0, 100]")
	}
	if c.Analytics.RouteUtilizationThreshold <= 0 || c.Analytics.RouteUtilizationThreshold > 100 {
		return fmt.Errorf("analytics.route_utilization_threshold must be in (0, 100]")
	}
	if c.Analytics.TopCostDrivers < 1 {
		return fmt.Errorf("analytics.top_cost_drivers must be at least 1")
	}

	return nil
}
