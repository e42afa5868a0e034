package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for vantage-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, DSNs) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// Template store database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Target datasources queries can execute against
	Datasources []DatasourceEntry `yaml:"datasources"`

	// Datasource execution settings shared by all entries
	Execution ExecutionConfig `yaml:"execution"`

	// Substitution engine settings
	Engine EngineConfig `yaml:"engine"`

	// Security settings
	Security SecurityConfig `yaml:"security"`
}

// DatabaseConfig holds PostgreSQL configuration for the template store.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"vantage"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"vantage_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MinConnections int32  `yaml:"min_connections" env:"PGMIN_CONNECTIONS" env-default:"2"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// DatasourceEntry describes one target database templates may execute
// against. The connection string is named by DSNEnv and read from the
// environment, never from YAML.
type DatasourceEntry struct {
	Name    string `yaml:"name"`
	Driver  string `yaml:"driver"`  // postgres, mssql, or sqlite
	Dialect string `yaml:"dialect"` // substitution dialect; defaults to the driver name
	DSNEnv  string `yaml:"dsn_env"` // environment variable holding the DSN
}

// DSN resolves the entry's connection string from the environment.
func (d *DatasourceEntry) DSN() (string, error) {
	if d.DSNEnv == "" {
		return "", fmt.Errorf("datasource %q has no dsn_env", d.Name)
	}
	dsn := os.Getenv(d.DSNEnv)
	if dsn == "" {
		return "", fmt.Errorf("datasource %q: environment variable %s is not set", d.Name, d.DSNEnv)
	}
	return dsn, nil
}

// DialectName returns the configured dialect, falling back to the driver.
func (d *DatasourceEntry) DialectName() string {
	if d.Dialect != "" {
		return d.Dialect
	}
	return d.Driver
}

// ExecutionConfig holds settings for running substituted queries against
// datasources.
type ExecutionConfig struct {
	// QueryTimeoutSeconds bounds a single execution.
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds" env:"EXECUTION_QUERY_TIMEOUT_SECONDS" env-default:"30"`
	// MaxRows caps the rows returned by one execution.
	MaxRows int `yaml:"max_rows" env:"EXECUTION_MAX_ROWS" env-default:"10000"`
	// PoolMaxConns is the maximum number of connections per datasource pool.
	PoolMaxConns int32 `yaml:"pool_max_conns" env:"EXECUTION_POOL_MAX_CONNS" env-default:"10"`
	// PoolMinConns is the minimum number of connections per datasource pool.
	PoolMinConns int32 `yaml:"pool_min_conns" env:"EXECUTION_POOL_MIN_CONNS" env-default:"1"`
	// MaxRetries is how many times a failed execution is retried.
	MaxRetries int `yaml:"max_retries" env:"EXECUTION_MAX_RETRIES" env-default:"2"`
}

// EngineConfig holds substitution engine settings.
type EngineConfig struct {
	// MarkerPrefix and MarkerSuffix override the default ${name} syntax.
	MarkerPrefix string `yaml:"marker_prefix" env:"ENGINE_MARKER_PREFIX" env-default:"${"`
	MarkerSuffix string `yaml:"marker_suffix" env:"ENGINE_MARKER_SUFFIX" env-default:"}"`
	// StrictVariables makes substitution fail on unused supplied variables.
	StrictVariables bool `yaml:"strict_variables" env:"ENGINE_STRICT_VARIABLES" env-default:"false"`
	// PlanCacheSize bounds the parsed-template plan cache.
	PlanCacheSize int `yaml:"plan_cache_size" env:"ENGINE_PLAN_CACHE_SIZE" env-default:"512"`
}

// SecurityConfig holds request screening settings.
type SecurityConfig struct {
	// InjectionScreening rejects string values that fingerprint as SQL
	// injection before substitution.
	InjectionScreening bool `yaml:"injection_screening" env:"SECURITY_INJECTION_SCREENING" env-default:"true"`
	// MaxTemplateBytes caps the size of a template accepted over the API.
	MaxTemplateBytes int `yaml:"max_template_bytes" env:"SECURITY_MAX_TEMPLATE_BYTES" env-default:"65536"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config. Secrets (PGPASSWORD, datasource DSNs) must come from
// environment variables (yaml:"-" fields or dsn_env indirection).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}
	if err := cfg.validateDatasources(); err != nil {
		return nil, fmt.Errorf("invalid datasource configuration: %w", err)
	}

	return cfg, nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist and be readable.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	// If both provided, verify files exist (actual readability checked by tls.LoadX509KeyPair at startup)
	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// validDrivers are the executor drivers this build can be configured with.
var validDrivers = map[string]bool{"postgres": true, "mssql": true, "sqlite": true}

// validateDatasources checks names are unique and drivers are known.
func (c *Config) validateDatasources() error {
	seen := make(map[string]bool, len(c.Datasources))
	for i := range c.Datasources {
		d := &c.Datasources[i]
		if d.Name == "" {
			return fmt.Errorf("datasource %d has no name", i)
		}
		if seen[strings.ToLower(d.Name)] {
			return fmt.Errorf("duplicate datasource name %q", d.Name)
		}
		seen[strings.ToLower(d.Name)] = true
		if !validDrivers[d.Driver] {
			return fmt.Errorf("datasource %q: unknown driver %q", d.Name, d.Driver)
		}
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
