package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/fern/internal/services/charts"
	"github.com/Ramsey-B/fern/internal/services/entries"
)

// EnvPrefix is prepended to every environment variable, e.g. FERN_DB_DRIVER.
const EnvPrefix = "FERN"

type Config struct {
	AppName    string `yaml:"app_name" envconfig:"APP_NAME"`
	Version    string `yaml:"version" envconfig:"VERSION"`
	LogLevel   string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	PrettyLogs bool   `yaml:"pretty_logs" envconfig:"PRETTY_LOGS"`

	StartupMaxAttempts int `yaml:"startup_max_attempts" envconfig:"STARTUP_MAX_ATTEMPTS"`

	HTTP      HTTPConfig      `yaml:"http" envconfig:"HTTP"`
	Database  DatabaseConfig  `yaml:"database" envconfig:"DB"`
	Redis     RedisConfig     `yaml:"redis" envconfig:"REDIS"`
	Kafka     KafkaConfig     `yaml:"kafka" envconfig:"KAFKA"`
	Tracing   TracingConfig   `yaml:"tracing" envconfig:"TRACING"`
	Uploads   UploadsConfig   `yaml:"uploads" envconfig:"UPLOADS"`
	Forwarder ForwarderConfig `yaml:"forwarder" envconfig:"FORWARDER"`
	Entries   entries.Config  `yaml:"entries" envconfig:"ENTRIES"`
	Charts    charts.Config   `yaml:"charts" envconfig:"CHARTS"`
}

type HTTPConfig struct {
	Port              int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout       time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout      time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" envconfig:"READ_HEADER_TIMEOUT"`
	MaxHeaderBytes    int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	// BodyLimit caps request bodies, e.g. "32M"; uploads arrive inline.
	BodyLimit    string   `yaml:"body_limit" envconfig:"BODY_LIMIT"`
	AllowOrigins []string `yaml:"allow_origins" envconfig:"ALLOW_ORIGINS"`
	AllowMethods []string `yaml:"allow_methods" envconfig:"ALLOW_METHODS"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite"
	Driver          string        `yaml:"driver" envconfig:"DRIVER"`
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            string        `yaml:"port" envconfig:"PORT"`
	User            string        `yaml:"user" envconfig:"USER"`
	Password        string        `yaml:"password" envconfig:"PASSWORD"`
	Name            string        `yaml:"name" envconfig:"NAME"`
	SSLMode         string        `yaml:"ssl_mode" envconfig:"SSL_MODE"`
	Path            string        `yaml:"path" envconfig:"PATH"`
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME"`
	// MigrationFolderPath overrides the embedded migrations when set.
	MigrationFolderPath    string `yaml:"migration_folder_path" envconfig:"MIGRATION_FOLDER_PATH"`
	MigrationVersion       uint   `yaml:"migration_version" envconfig:"MIGRATION_VERSION"`
	MigrationForce         int    `yaml:"migration_force" envconfig:"MIGRATION_FORCE"`
	MigrationAutoRollback  bool   `yaml:"migration_auto_rollback" envconfig:"MIGRATION_AUTO_ROLLBACK"`
	MigrateOnStart         bool   `yaml:"migrate_on_start" envconfig:"MIGRATE_ON_START"`
}

// RedisConfig enables the Redis session store when Host is set; otherwise
// active entries live in process memory.
type RedisConfig struct {
	Host       string        `yaml:"host" envconfig:"HOST"`
	Port       int           `yaml:"port" envconfig:"PORT"`
	Password   string        `yaml:"password" envconfig:"PASSWORD"`
	DB         int           `yaml:"db" envconfig:"DB"`
	SessionTTL time.Duration `yaml:"session_ttl" envconfig:"SESSION_TTL"`
}

// KafkaConfig enables entry lifecycle events when Brokers is set.
type KafkaConfig struct {
	Brokers string `yaml:"brokers" envconfig:"BROKERS"`
	Topic   string `yaml:"topic" envconfig:"TOPIC"`
}

type TracingConfig struct {
	// Exporter is "otlp", "console" or "none"
	Exporter string        `yaml:"exporter" envconfig:"EXPORTER"`
	Endpoint string        `yaml:"endpoint" envconfig:"ENDPOINT"`
	Protocol string        `yaml:"protocol" envconfig:"PROTOCOL"`
	Insecure bool          `yaml:"insecure" envconfig:"INSECURE"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

type UploadsConfig struct {
	// LocalRoot is where volumes with the "local" storage keep their files.
	LocalRoot string `yaml:"local_root" envconfig:"LOCAL_ROOT"`
	// TempDir holds uploads of entries that have no folder yet.
	TempDir            string `yaml:"temp_dir" envconfig:"TEMP_DIR"`
	GCSBucket          string `yaml:"gcs_bucket" envconfig:"GCS_BUCKET"`
	GCSPrefix          string `yaml:"gcs_prefix" envconfig:"GCS_PREFIX"`
	GCSCredentialsFile string `yaml:"gcs_credentials_file" envconfig:"GCS_CREDENTIALS_FILE"`
	ASCIIFilenames     bool   `yaml:"ascii_filenames" envconfig:"ASCII_FILENAMES"`
}

type ForwarderConfig struct {
	Timeout            time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" envconfig:"INSECURE_SKIP_VERIFY"`
}

// Default returns the configuration used for anything a file or the
// environment leaves unset.
func Default() *Config {
	return &Config{
		AppName:            "fern",
		Version:            "dev",
		LogLevel:           "info",
		StartupMaxAttempts: 5,
		HTTP: HTTPConfig{
			Port:              3000,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
			MaxHeaderBytes:    64000,
			BodyLimit:         "32M",
			AllowOrigins:      []string{"*"},
			AllowMethods:      []string{"GET", "POST", "PUT", "DELETE"},
		},
		Database: DatabaseConfig{
			Driver:                "postgres",
			Port:                  "5432",
			Name:                  "fern",
			SSLMode:               "disable",
			Path:                  "fern.db",
			MaxOpenConns:          25,
			MaxIdleConns:          10,
			ConnMaxLifetime:       10 * time.Minute,
			MigrationAutoRollback: true,
			MigrateOnStart:        true,
		},
		Redis: RedisConfig{
			Port:       6379,
			SessionTTL: 24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Topic: "fern.entries",
		},
		Tracing: TracingConfig{
			Exporter: "none",
			Protocol: "grpc",
			Timeout:  10 * time.Second,
		},
		Uploads: UploadsConfig{
			LocalRoot: "uploads",
			TempDir:   "uploads/.temp",
		},
		Forwarder: ForwarderConfig{
			Timeout: 30 * time.Second,
		},
		Entries: entries.Config{
			EnableSaveData: true,
		},
		Charts: charts.Config{
			Orientation: "ltr",
			Timezone:    "UTC",
		},
	}
}

// Load layers a .env file, an optional YAML file and FERN_* environment
// variables over the defaults, later sources winning.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := Default()
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Tracing.Exporter {
	case "otlp", "console", "none", "":
	default:
		return fmt.Errorf("unsupported tracing exporter %q", c.Tracing.Exporter)
	}
	if c.HTTP.Port <= 0 {
		return fmt.Errorf("invalid HTTP port %d", c.HTTP.Port)
	}
	return nil
}
