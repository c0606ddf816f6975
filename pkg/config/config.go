package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PROCUREFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"PROCUREFLOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PROCUREFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROCUREFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PROCUREFLOW_DB_DSN"`
	Driver string `envconfig:"PROCUREFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PROCUREFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"PROCUREFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROCUREFLOW_DB_USER"`
	LegacyPassword string `envconfig:"PROCUREFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROCUREFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROCUREFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROCUREFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROCUREFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROCUREFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROCUREFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a DSN from the legacy host/user/name variables when a
// full DSN is not supplied.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either PROCUREFLOW_DB_DSN or host/user/name variables are required")
	}
	userInfo := url.UserPassword(d.LegacyUser, d.LegacyPassword)
	u := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:     d.LegacyName,
		RawQuery: "sslmode=" + d.LegacySSLMode,
	}
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"PROCUREFLOW_REDIS_URL"`
	Address      string        `envconfig:"PROCUREFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"PROCUREFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROCUREFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROCUREFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROCUREFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROCUREFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROCUREFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROCUREFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PROCUREFLOW_FEATURE_AUTO_MIGRATE" default:"true"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"PROCUREFLOW_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	WorkflowTopic        string `envconfig:"PROCUREFLOW_PUBSUB_WORKFLOW_TOPIC" default:"workflow-events"`
	WorkflowSubscription string `envconfig:"PROCUREFLOW_PUBSUB_WORKFLOW_SUBSCRIPTION" default:"workflow-events-sub"`
}

type OutboxConfig struct {
	BatchSize    int           `envconfig:"PROCUREFLOW_OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"PROCUREFLOW_OUTBOX_POLL_INTERVAL" default:"500ms"`
	MaxAttempts  int           `envconfig:"PROCUREFLOW_OUTBOX_MAX_ATTEMPTS" default:"10"`
}
