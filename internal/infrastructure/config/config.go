// Package config provides configuration loading for the rbpost application.
// It reads the TOML configuration file through viper, applies RBPOST_* environment
// overrides, resolves the review server token from HashiCorp Vault when asked to,
// and loads the optional ClickHouse/slippy settings used for CI slip annotation.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ch "github.com/MyCarrier-DevOps/goLibMyCarrier/clickhouse"
	"github.com/MyCarrier-DevOps/goLibMyCarrier/slippy"
	"github.com/MyCarrier-DevOps/goLibMyCarrier/vault"
	"github.com/spf13/viper"
)

// Environment variable names.
const (
	// EnvPrefix prefixes every configuration override, e.g. RBPOST_REVIEWBOARD_TOKEN.
	EnvPrefix = "RBPOST"

	// EnvLogLevel is the log level (debug, info, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogAppName is the application name for log context.
	EnvLogAppName = "LOG_APP_NAME"
)

// Configuration keys.
const (
	KeyServer          = "reviewboard.server"
	KeyToken           = "reviewboard.token"
	KeyGitHost         = "reviewboard.git_host"
	KeyTimeout         = "reviewboard.timeout"
	KeyTokenVaultPath  = "reviewboard.token_vault_path"
	KeyTokenVaultMount = "reviewboard.token_vault_mount"

	KeySlippyEnabled        = "slippy.enabled"
	KeySlippyPipelineConfig = "slippy.pipeline_config"
	KeySlippyDatabase       = "slippy.database"
)

// Default values.
const (
	DefaultLogLevel   = "info"
	DefaultLogAppName = "rbpost"
	DefaultGitHost    = "git.natinst.com"
	DefaultTimeout    = 60 * time.Second
	DefaultVaultMount = "secret"
	DefaultDatabase   = "ci"

	// VaultTokenKey is the key holding the review server token inside the Vault secret.
	VaultTokenKey = "token"
)

// Configuration errors.
var (
	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrConfigInvalid indicates the configuration file could not be parsed.
	ErrConfigInvalid = errors.New("configuration file is not valid TOML")

	// ErrServerRequired indicates reviewboard.server is missing.
	ErrServerRequired = errors.New("review server URL required: set reviewboard.server")

	// ErrTokenRequired indicates no token could be found in the file, environment or Vault.
	ErrTokenRequired = errors.New(
		"review server token required: set reviewboard.token, " + EnvPrefix + "_REVIEWBOARD_TOKEN " +
			"or reviewboard.token_vault_path (with VAULT_ADDRESS, VAULT_ROLE_ID, VAULT_SECRET_ID)",
	)

	// ErrPipelineConfigRequired indicates slippy is enabled without a pipeline config file.
	ErrPipelineConfigRequired = errors.New("pipeline configuration required when slippy.enabled is set")

	// ErrPipelineConfigNotFound indicates the pipeline config file does not exist.
	ErrPipelineConfigNotFound = errors.New("pipeline configuration file not found")

	// ErrPipelineConfigInvalid indicates the pipeline config is not valid JSON.
	ErrPipelineConfigInvalid = errors.New("pipeline configuration is not valid JSON")

	// ErrVaultClientFailed indicates failure to create or authenticate with Vault.
	ErrVaultClientFailed = errors.New("failed to create Vault client")

	// ErrVaultSecretNotFound indicates the token secret was not found in Vault.
	ErrVaultSecretNotFound = errors.New("review server token not found in Vault")
)

// VaultClient defines the interface for Vault operations.
// This interface allows for dependency injection and testing.
type VaultClient interface {
	// GetKVSecret retrieves a secret from Vault's KV v2 secrets engine.
	GetKVSecret(ctx context.Context, path, mount string) (map[string]interface{}, error)
}

// VaultClientFactory creates a VaultClient using AppRole authentication.
type VaultClientFactory func(ctx context.Context) (VaultClient, error)

// DefaultVaultClientFactory creates a VaultClient using goLibMyCarrier/vault with AppRole auth.
func DefaultVaultClientFactory(ctx context.Context) (VaultClient, error) {
	// Uses: VAULT_ADDRESS, VAULT_ROLE_ID, VAULT_SECRET_ID
	vaultConfig, err := vault.VaultLoadConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	client, err := vault.CreateVaultClient(ctx, vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	return client, nil
}

// ReviewBoard holds the review server settings.
type ReviewBoard struct {
	// Server is the base URL of the Review Board instance.
	Server string

	// Token is the API token sent as "Authorization: token <Token>".
	Token string

	// GitHost is the organizational git host whose remotes identify server repositories.
	GitHost string

	// Timeout bounds every HTTP request to the server.
	Timeout time.Duration

	// TokenVaultPath and TokenVaultMount locate the token in Vault when Token is empty.
	TokenVaultPath  string
	TokenVaultMount string
}

// Slippy holds the optional CI slip lookup settings.
type Slippy struct {
	Enabled        bool
	Database       string
	ClickHouse     *ch.ClickhouseConfig
	PipelineConfig *slippy.PipelineConfig
}

// Config holds all application configuration.
type Config struct {
	// Path is the configuration file that was read.
	Path string

	ReviewBoard ReviewBoard
	Slippy      Slippy

	// LogLevel is the logging level (debug, info, error).
	LogLevel string

	// LogAppName is the application name for log context.
	LogAppName string
}

// DefaultPath returns ~/.config/rbpost/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "rbpost", "config.toml"), nil
}

// Load loads the configuration file at path (DefaultPath when empty).
func Load(path string) (*Config, error) {
	return LoadWithVaultClient(context.Background(), path, nil)
}

// LoadWithVaultClient loads configuration using the provided VaultClient factory.
// If vaultClientFactory is nil, DefaultVaultClientFactory is used. The factory is
// only invoked when the token has to be read from Vault.
func LoadWithVaultClient(ctx context.Context, path string, vaultClientFactory VaultClientFactory) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	v, err := readFile(path)
	if err != nil {
		return nil, err
	}

	rb := ReviewBoard{
		Server:          strings.TrimRight(v.GetString(KeyServer), "/"),
		Token:           v.GetString(KeyToken),
		GitHost:         v.GetString(KeyGitHost),
		Timeout:         v.GetDuration(KeyTimeout),
		TokenVaultPath:  v.GetString(KeyTokenVaultPath),
		TokenVaultMount: v.GetString(KeyTokenVaultMount),
	}
	if rb.Server == "" {
		return nil, ErrServerRequired
	}
	if rb.Timeout <= 0 {
		rb.Timeout = DefaultTimeout
	}
	if rb.Token == "" {
		if rb.TokenVaultPath == "" {
			return nil, ErrTokenRequired
		}
		if rb.Token, err = loadTokenFromVault(ctx, vaultClientFactory, rb.TokenVaultPath, rb.TokenVaultMount); err != nil {
			return nil, err
		}
	}

	slip, err := loadSlippy(v)
	if err != nil {
		return nil, err
	}

	logLevel := os.Getenv(EnvLogLevel)
	if logLevel == "" {
		logLevel = DefaultLogLevel
	}

	logAppName := os.Getenv(EnvLogAppName)
	if logAppName == "" {
		logAppName = DefaultLogAppName
	}

	return &Config{
		Path:        path,
		ReviewBoard: rb,
		Slippy:      slip,
		LogLevel:    logLevel,
		LogAppName:  logAppName,
	}, nil
}

func readFile(path string) (*viper.Viper, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat configuration file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyGitHost, DefaultGitHost)
	v.SetDefault(KeyTimeout, DefaultTimeout.String())
	v.SetDefault(KeyTokenVaultMount, DefaultVaultMount)
	v.SetDefault(KeySlippyEnabled, false)
	v.SetDefault(KeySlippyDatabase, DefaultDatabase)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigInvalid, path, err)
	}
	return v, nil
}

// loadTokenFromVault reads the review server token from Vault KV v2.
func loadTokenFromVault(ctx context.Context, vaultClientFactory VaultClientFactory, path, mount string) (string, error) {
	if vaultClientFactory == nil {
		vaultClientFactory = DefaultVaultClientFactory
	}

	client, err := vaultClientFactory(ctx)
	if err != nil {
		return "", err
	}

	secretData, err := client.GetKVSecret(ctx, path, mount)
	if err != nil {
		return "", fmt.Errorf("%w at path %s: %w", ErrVaultSecretNotFound, path, err)
	}

	token, ok := secretData[VaultTokenKey].(string)
	if !ok || token == "" {
		return "", fmt.Errorf("%w: key %q missing at path %s", ErrVaultSecretNotFound, VaultTokenKey, path)
	}
	return token, nil
}

// loadSlippy loads the ClickHouse and pipeline settings when slip annotation is enabled.
func loadSlippy(v *viper.Viper) (Slippy, error) {
	s := Slippy{
		Enabled:  v.GetBool(KeySlippyEnabled),
		Database: v.GetString(KeySlippyDatabase),
	}
	if !s.Enabled {
		return s, nil
	}

	chConfig, err := ch.ClickhouseLoadConfig()
	if err != nil {
		return Slippy{}, fmt.Errorf("failed to load ClickHouse config: %w", err)
	}
	s.ClickHouse = chConfig

	path := v.GetString(KeySlippyPipelineConfig)
	if path == "" {
		return Slippy{}, ErrPipelineConfigRequired
	}
	if s.PipelineConfig, err = loadPipelineConfigFromFile(path); err != nil {
		return Slippy{}, err
	}
	return s, nil
}

// loadPipelineConfigFromFile loads the pipeline configuration from the specified file path.
func loadPipelineConfigFromFile(path string) (*slippy.PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPipelineConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read pipeline config: %w", err)
	}

	var config slippy.PipelineConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPipelineConfigInvalid, err)
	}

	return &config, nil
}
