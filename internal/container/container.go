package container

import (
	"fmt"
	"io"
	"os"

	"gomaic/adapters/balance"
	"gomaic/adapters/excel"
	"gomaic/adapters/rng"
	"gomaic/adapters/simulate"
	"gomaic/app"
	"gomaic/internal"
	"gomaic/internal/config"
	"gomaic/internal/profiling"
	"gomaic/ports"
)

// Container holds the application's dependencies, wired from one configuration.
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Adapters
	RNG       ports.RNGPort
	Simulator ports.CohortSimulator
	Writer    ports.ReportWriter

	// Services
	Scanner  *app.ScanService
	Profiler *profiling.Profiler
}

// New creates a container that logs to stderr.
func New(cfg *config.Config) (*Container, error) {
	return NewWithLogOutput(cfg, os.Stderr)
}

// NewWithLogOutput creates a container whose logger writes to w at cfg.LogLevel.
func NewWithLogOutput(cfg *config.Config, w io.Writer) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	level := internal.LogLevelInfo
	if cfg.LogLevel != "" {
		var err error
		if level, err = internal.ParseLogLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
	}

	c := &Container{
		Config:    cfg,
		Logger:    internal.NewLoggerTo(w, level),
		RNG:       rng.NewSeededAdapter(),
		Simulator: simulate.NewBivariateSimulator(),
		Profiler:  profiling.NewProfiler(),
	}
	c.Writer = excel.NewResultWriter(c.Logger)
	c.Scanner = app.NewScanService(c.Simulator, c.RNG, balance.NewSolver, c.Logger)
	return c, nil
}
