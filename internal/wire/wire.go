// Package wire provides dependency injection for maintd.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"io"
	"log"
	"os"
	"sync"

	"go.uber.org/zap"

	cliadapter "github.com/example/maintd/internal/adapters/cli"
	"github.com/example/maintd/internal/adapters/metrics"
	"github.com/example/maintd/internal/adapters/sqlite"
	"github.com/example/maintd/internal/app"
	"github.com/example/maintd/internal/clock"
	"github.com/example/maintd/internal/config"
	"github.com/example/maintd/internal/db"
	"github.com/example/maintd/internal/logging"
	"github.com/example/maintd/internal/ports/primary"
)

var (
	configPath string

	cfg            *config.Config
	logger         *zap.Logger
	database       *sql.DB
	sweepMetrics   *metrics.SweepMetrics
	engine         *app.EscalationEngine
	scheduler      *app.SweepScheduler
	requestService primary.RequestService
	clk            clock.Clock = clock.Real{}

	cfgOnce sync.Once
	once    sync.Once
)

// SetConfigPath selects the config file. Must be called before any other
// accessor; later calls have no effect.
func SetConfigPath(path string) {
	configPath = path
}

// ConfigPath returns the config file in use.
func ConfigPath() string {
	if configPath == "" {
		return config.DefaultPath
	}
	return configPath
}

// Config returns the loaded configuration.
func Config() *config.Config {
	cfgOnce.Do(loadConfig)
	return cfg
}

func loadConfig() {
	c, err := config.LoadConfig(ConfigPath())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg = c

	l, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	logger = l
}

// Logger returns the process logger.
func Logger() *zap.Logger {
	cfgOnce.Do(loadConfig)
	return logger
}

// Clock returns the wall clock used for sweeps and request timestamps.
func Clock() clock.Clock {
	return clk
}

// Database returns the open database handle.
func Database() *sql.DB {
	once.Do(initServices)
	return database
}

// EscalationService returns the singleton EscalationService instance.
func EscalationService() primary.EscalationService {
	once.Do(initServices)
	return engine
}

// RequestService returns the singleton RequestService instance.
func RequestService() primary.RequestService {
	once.Do(initServices)
	return requestService
}

// Scheduler returns the singleton sweep scheduler.
func Scheduler() *app.SweepScheduler {
	once.Do(initServices)
	return scheduler
}

// Metrics returns the Prometheus collectors fed by the engine and scheduler.
func Metrics() *metrics.SweepMetrics {
	once.Do(initServices)
	return sweepMetrics
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	c := Config()
	l := Logger()

	d, err := db.Open(c.DatabasePath)
	if err != nil {
		l.Fatal("failed to initialize database", zap.Error(err))
	}
	database = d

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	requestRepo := sqlite.NewRequestRepository(database)
	logRepo := sqlite.NewEscalationLogRepository(database)
	runRepo := sqlite.NewSweepRunRepository(database)

	sweepMetrics = metrics.NewSweepMetrics()

	// Create services (primary ports implementation)
	engine = app.NewEscalationEngine(requestRepo, logRepo, c.Rules(),
		app.WithSweepRunRepository(runRepo),
		app.WithSweepObserver(sweepMetrics),
		app.WithEngineLogger(l),
	)
	scheduler = app.NewSweepScheduler(engine, clk, c.SweepInterval(),
		app.WithSchedulerObserver(sweepMetrics),
		app.WithSchedulerLogger(l),
	)
	requestService = app.NewRequestService(requestRepo, clk)
}

// Close flushes the logger and closes the database if it was opened.
func Close() {
	if database != nil {
		database.Close()
		database = nil
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

// RequestAdapter returns a new RequestAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func RequestAdapter() *cliadapter.RequestAdapter {
	return RequestAdapterWithOutput(os.Stdout)
}

// RequestAdapterWithOutput returns a new RequestAdapter writing to the given output.
func RequestAdapterWithOutput(out io.Writer) *cliadapter.RequestAdapter {
	once.Do(initServices)
	return cliadapter.NewRequestAdapter(requestService, out)
}

// EscalationAdapter returns a new EscalationAdapter writing to stdout.
func EscalationAdapter() *cliadapter.EscalationAdapter {
	return EscalationAdapterWithOutput(os.Stdout)
}

// EscalationAdapterWithOutput returns a new EscalationAdapter writing to the given output.
func EscalationAdapterWithOutput(out io.Writer) *cliadapter.EscalationAdapter {
	once.Do(initServices)
	return cliadapter.NewEscalationAdapter(engine, out)
}
