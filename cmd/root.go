// Package cmd provides the CLI commands for rbpost.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/rbpost/internal/adapters/output"
	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
	"github.com/MyCarrier-DevOps/rbpost/internal/usecases"
)

// Logger defines the logging interface used by the commands.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Dependencies holds all injectable dependencies for the commands.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance. It is called after --verbose
	// has been applied to LOG_LEVEL.
	LoggerFactory func() Logger

	// ConfigLoader loads application configuration from path
	// (the default location when path is empty).
	ConfigLoader func(path string) (*AppConfig, error)

	// GitRepoFactory locates the LocalGitRepository containing path.
	GitRepoFactory func(path string, log Logger) (domain.LocalGitRepository, error)

	// ReviewClientFactory creates the review server client.
	ReviewClientFactory func(cfg *AppConfig, log Logger) (domain.ReviewClient, error)

	// SlipFinderFactory creates a SlipFinder using the given config.
	// Optional: only used when AppConfig.SlippyEnabled is set.
	SlipFinderFactory func(cfg *AppConfig, log Logger) (domain.SlipFinder, error)

	// DiffGeneratorFactory creates the DiffGenerator.
	DiffGeneratorFactory func() domain.DiffGenerator

	// ReporterFactory creates the user-facing Reporter writing to stdout and stderr.
	// Command failures are reported through its Error channel.
	ReporterFactory func(stdout, stderr io.Writer, verbose bool) domain.Reporter

	// BrowserOpener opens a URL in the user's browser. Optional.
	BrowserOpener func(url string) error

	// Stdout is the writer for standard output.
	Stdout io.Writer

	// Stderr is the writer for standard error (for warnings/errors).
	Stderr io.Writer
}

// AppConfig holds application configuration loaded by ConfigLoader.
type AppConfig struct {
	// Path is the configuration file that was read.
	Path string

	// Server, Token, GitHost and Timeout configure the review server client.
	Server  string
	Token   string
	GitHost string
	Timeout time.Duration

	// SlippyEnabled turns on CI slip annotation.
	SlippyEnabled bool

	// ClickHouseConfig is passed to the SlipFinderFactory.
	ClickHouseConfig any

	// PipelineConfig is passed to the SlipFinderFactory.
	PipelineConfig any

	// Database is the slip store database name.
	Database string

	// LogLevel is the log level setting.
	LogLevel string

	// LogAppName is the application name for logging.
	LogAppName string
}

// Command-line flags.
var (
	verbose    bool
	dryRun     bool
	configPath string
	repoPath   string
)

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main or via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for rbpost.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rbpost",
		Short: "Post commits from a local Git repository to Review Board",
		Long: `rbpost creates Review Board review requests from commits in the local
Git repository.

The Review Board repository is selected by matching the local remotes on the
configured git host against the repositories the server knows. The summary
and description are taken from the commit messages, the diff from git, and
the branch from the upstream of the current branch.

Configuration is read from ~/.config/rbpost/config.toml (see --config):

  [reviewboard]
  server   = "https://reviews.example.com"
  token    = "..."
  git_host = "git.example.com"

Examples:
  # Post the HEAD commit
  rbpost upload

  # Post the last three commits
  rbpost upload HEAD..HEAD~2

  # Same range by offset from HEAD
  rbpost upload -o 0..2

  # Show what would be posted
  rbpost -v -n upload`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Print progress details and enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false,
		"Gather everything but do not create a review request")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Configuration file (default ~/.config/rbpost/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&repoPath, "repo", "C", ".",
		"Path inside the Git repository to post from")

	rootCmd.AddCommand(newUploadCmd(deps), newUpdateCmd(deps))

	return rootCmd
}

// app is the state shared by every command once bootstrap succeeded.
type app struct {
	log      Logger
	reporter domain.Reporter
	cfg      *AppConfig
	session  *domain.Session
}

func (a *app) close(ctx context.Context) {
	if err := a.session.Repo.Close(); err != nil {
		a.log.Warn(ctx, "failed to close git repository", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// bootstrap loads configuration, locates the local repository and selects the
// matching server repository.
func bootstrap(ctx context.Context, deps *Dependencies) (*app, error) {
	if deps == nil {
		return nil, errors.New("dependencies not configured")
	}

	reporter := newReporter(deps)

	// Set log level based on verbose flag (best-effort)
	if verbose {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			reporter.Info("warning: could not set log level: %v\n", err)
		}
	}

	log := deps.LoggerFactory()

	log.Info(ctx, "starting rbpost", map[string]interface{}{
		"repo":    repoPath,
		"dry_run": dryRun,
		"verbose": verbose,
	})

	cfg, err := deps.ConfigLoader(configPath)
	if err != nil {
		log.Error(ctx, "failed to load configuration", err, nil)
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	reporter.Verbose("Configuration:\n\t%s\n", cfg.Path)

	gitRepo, err := deps.GitRepoFactory(repoPath, log)
	if err != nil {
		log.Error(ctx, "failed to open git repository", err, map[string]interface{}{
			"path": repoPath,
		})
		if errors.Is(err, domain.ErrRepositoryNotFound) {
			return nil, fmt.Errorf("not a git repository: %s: %w", repoPath, err)
		}
		return nil, err
	}
	reporter.Verbose("Local repository:\n\t%s\n", gitRepo.Root())

	a := &app{
		log:      log,
		reporter: reporter,
		cfg:      cfg,
		session: &domain.Session{
			Verbose: verbose,
			DryRun:  dryRun,
			Repo:    gitRepo,
		},
	}

	client, err := deps.ReviewClientFactory(cfg, log)
	if err != nil {
		a.close(ctx)
		log.Error(ctx, "failed to create review server client", err, nil)
		return nil, fmt.Errorf("review server error: %w", err)
	}
	a.session.Client = client

	matcher := usecases.NewMatcher(cfg.GitHost, reporter, log)
	selected, err := matcher.Match(ctx, gitRepo, client)
	if err != nil {
		a.close(ctx)
		log.Error(ctx, "failed to select server repository", err, nil)
		switch {
		case errors.Is(err, domain.ErrNoRemoteIdentifiers):
			return nil, fmt.Errorf("no remote of this repository points at %s: %w", cfg.GitHost, err)
		case errors.Is(err, domain.ErrNoMatch):
			return nil, fmt.Errorf("%s does not know this repository: %w", cfg.Server, err)
		}
		return nil, err
	}
	a.session.Selected = *selected

	return a, nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	os.Exit(ExecuteWithArgs(defaultDeps, os.Args[1:]))
}

// ExecuteWithArgs runs the root command with args and returns the process exit code.
// A failure is written to the Reporter's error channel.
func ExecuteWithArgs(deps *Dependencies, args []string) int {
	rootCmd := NewRootCmdWithDeps(deps)
	rootCmd.SetArgs(args)

	if deps != nil {
		if deps.Stdout != nil {
			rootCmd.SetOut(deps.Stdout)
		}
		if deps.Stderr != nil {
			rootCmd.SetErr(deps.Stderr)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		newReporter(deps).Error("%v\n", err)
		return 1
	}
	return 0
}

// newReporter builds the Reporter for deps using the current --verbose value.
// Without a factory it reports to the process streams.
func newReporter(deps *Dependencies) domain.Reporter {
	if deps == nil || deps.ReporterFactory == nil {
		return output.NewReporter(verbose)
	}

	var stdout, stderr io.Writer = os.Stdout, os.Stderr
	if deps.Stdout != nil {
		stdout = deps.Stdout
	}
	if deps.Stderr != nil {
		stderr = deps.Stderr
	}
	return deps.ReporterFactory(stdout, stderr, verbose)
}
