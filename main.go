// Package main is the entry point for the rbpost CLI application.
// rbpost creates Review Board review requests from commits in a local Git repository.
package main

import (
	"io"
	"os"
	"sync"

	ch "github.com/MyCarrier-DevOps/goLibMyCarrier/clickhouse"
	"github.com/MyCarrier-DevOps/goLibMyCarrier/logger"
	"github.com/MyCarrier-DevOps/goLibMyCarrier/slippy"
	"github.com/pkg/browser"

	"github.com/MyCarrier-DevOps/rbpost/cmd"
	"github.com/MyCarrier-DevOps/rbpost/internal/adapters/diff"
	"github.com/MyCarrier-DevOps/rbpost/internal/adapters/git"
	logadapter "github.com/MyCarrier-DevOps/rbpost/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/rbpost/internal/adapters/output"
	"github.com/MyCarrier-DevOps/rbpost/internal/adapters/reviewboard"
	"github.com/MyCarrier-DevOps/rbpost/internal/adapters/store"
	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
	"github.com/MyCarrier-DevOps/rbpost/internal/infrastructure/config"
)

func main() {
	// The zap logger reads LOG_LEVEL when built, so it is created lazily
	// after --verbose has been applied.
	zapLog := sync.OnceValue(logger.NewZapLoggerFromConfig)
	getLogger := sync.OnceValue(func() *logadapter.ZapAdapter {
		return logadapter.NewZapAdapter(zapLog()).With(map[string]any{
			"app": config.DefaultLogAppName,
			"pid": os.Getpid(),
		})
	})

	deps := &cmd.Dependencies{
		LoggerFactory: func() cmd.Logger {
			return getLogger()
		},

		ConfigLoader: func(path string) (*cmd.AppConfig, error) {
			cfg, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			return &cmd.AppConfig{
				Path:             cfg.Path,
				Server:           cfg.ReviewBoard.Server,
				Token:            cfg.ReviewBoard.Token,
				GitHost:          cfg.ReviewBoard.GitHost,
				Timeout:          cfg.ReviewBoard.Timeout,
				SlippyEnabled:    cfg.Slippy.Enabled,
				ClickHouseConfig: cfg.Slippy.ClickHouse,
				PipelineConfig:   cfg.Slippy.PipelineConfig,
				Database:         cfg.Slippy.Database,
				LogLevel:         cfg.LogLevel,
				LogAppName:       cfg.LogAppName,
			}, nil
		},

		GitRepoFactory: func(path string, _ cmd.Logger) (domain.LocalGitRepository, error) {
			return git.Locate(path, getLogger())
		},

		ReviewClientFactory: func(cfg *cmd.AppConfig, _ cmd.Logger) (domain.ReviewClient, error) {
			return reviewboard.NewClient(cfg.Server, cfg.Token, cfg.Timeout)
		},

		SlipFinderFactory: func(cfg *cmd.AppConfig, _ cmd.Logger) (domain.SlipFinder, error) {
			chConfig, ok := cfg.ClickHouseConfig.(*ch.ClickhouseConfig)
			if !ok {
				return nil, newConfigTypeError("*ch.ClickhouseConfig")
			}

			pipelineCfg, ok := cfg.PipelineConfig.(*slippy.PipelineConfig)
			if !ok {
				return nil, newConfigTypeError("*slippy.PipelineConfig")
			}

			slippyStore, err := slippy.NewClickHouseStoreFromConfig(chConfig, slippy.ClickHouseStoreOptions{
				PipelineConfig: pipelineCfg,
				Database:       cfg.Database,
				Logger:         zapLog(),
				SkipMigrations: true,
			})
			if err != nil {
				return nil, err
			}
			return store.NewClickHouseAdapter(slippyStore), nil
		},

		DiffGeneratorFactory: func() domain.DiffGenerator {
			return diff.NewGitCLI()
		},

		ReporterFactory: func(stdout, stderr io.Writer, verbose bool) domain.Reporter {
			return output.NewReporterWithOutput(stdout, stderr, func() bool { return verbose })
		},

		BrowserOpener: browser.OpenURL,

		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	cmd.SetDefaultDependencies(deps)
	cmd.Execute()
}

func newConfigTypeError(expected string) error {
	return &configTypeError{expected: expected}
}

// configTypeError is returned when configuration type assertion fails.
type configTypeError struct {
	expected string
}

func (e *configTypeError) Error() string {
	return "invalid configuration type: expected " + e.expected
}
