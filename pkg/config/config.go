package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the platform reads.
	EnvPrefix = "REWARDLOOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	ControlPlane ControlPlaneDBConfig
	TenantDB     TenantDBConfig
	Redis        RedisConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cashback     CashbackConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.ControlPlane.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"REWARDLOOP_APP_ENV" required:"true"`
	Port         string `envconfig:"REWARDLOOP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"REWARDLOOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REWARDLOOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// ControlPlaneDBConfig points at the shared control-plane database holding the
// tenant registry and per-tenant cashback percentage configuration.
type ControlPlaneDBConfig struct {
	DSN string `envconfig:"REWARDLOOP_CONTROL_DB_DSN"`

	Host     string `envconfig:"REWARDLOOP_CONTROL_DB_HOST"`
	Port     int    `envconfig:"REWARDLOOP_CONTROL_DB_PORT" default:"5432"`
	User     string `envconfig:"REWARDLOOP_CONTROL_DB_USER"`
	Password string `envconfig:"REWARDLOOP_CONTROL_DB_PASSWORD"`
	Name     string `envconfig:"REWARDLOOP_CONTROL_DB_NAME"`
	SSLMode  string `envconfig:"REWARDLOOP_CONTROL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REWARDLOOP_CONTROL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REWARDLOOP_CONTROL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REWARDLOOP_CONTROL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REWARDLOOP_CONTROL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// TenantDBConfig describes how per-tenant database handles are built. The DSN
// template must contain a %s placeholder that receives the tenant's db_name.
type TenantDBConfig struct {
	DSNTemplate string `envconfig:"REWARDLOOP_TENANT_DB_DSN_TEMPLATE" required:"true"`

	MaxOpenConns    int           `envconfig:"REWARDLOOP_TENANT_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"REWARDLOOP_TENANT_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"REWARDLOOP_TENANT_DB_CONN_MAX_LIFETIME" default:"30m"`
	ConnMaxIdleTime time.Duration `envconfig:"REWARDLOOP_TENANT_DB_CONN_MAX_IDLE_TIME" default:"5m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REWARDLOOP_REDIS_URL"`
	Address      string        `envconfig:"REWARDLOOP_REDIS_ADDR"`
	Password     string        `envconfig:"REWARDLOOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"REWARDLOOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REWARDLOOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REWARDLOOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REWARDLOOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REWARDLOOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REWARDLOOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"REWARDLOOP_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	CashbackTopic            string `envconfig:"REWARDLOOP_PUBSUB_CASHBACK_TOPIC" default:"rl-cashback-events"`
	CashbackSubscription     string `envconfig:"REWARDLOOP_PUBSUB_CASHBACK_SUBSCRIPTION"`
	NotificationTopic        string `envconfig:"REWARDLOOP_PUBSUB_NOTIFICATION_TOPIC" default:"rl-notification-events"`
	NotificationSubscription string `envconfig:"REWARDLOOP_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"REWARDLOOP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"REWARDLOOP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"REWARDLOOP_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// CashbackConfig carries the platform-wide distribution defaults used when a
// tenant has not stored its own percentages.
type CashbackConfig struct {
	DefaultConsumerPercent         float64 `envconfig:"REWARDLOOP_CASHBACK_DEFAULT_CONSUMER_PERCENT" default:"50"`
	DefaultClubPercent             float64 `envconfig:"REWARDLOOP_CASHBACK_DEFAULT_CLUB_PERCENT" default:"25"`
	DefaultConsumerReferrerPercent float64 `envconfig:"REWARDLOOP_CASHBACK_DEFAULT_CONSUMER_REFERRER_PERCENT" default:"12.5"`
	DefaultMerchantReferrerPercent float64 `envconfig:"REWARDLOOP_CASHBACK_DEFAULT_MERCHANT_REFERRER_PERCENT" default:"12.5"`
}

func (db *ControlPlaneDBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for name, value := range map[string]string{
		"REWARDLOOP_CONTROL_DB_HOST": db.Host,
		"REWARDLOOP_CONTROL_DB_USER": db.User,
		"REWARDLOOP_CONTROL_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either REWARDLOOP_CONTROL_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

// TenantDSN renders the tenant DSN template for the given database name.
func (t TenantDBConfig) TenantDSN(dbName string) (string, error) {
	name := strings.TrimSpace(dbName)
	if name == "" {
		return "", fmt.Errorf("tenant database name is required")
	}
	if !strings.Contains(t.DSNTemplate, "%s") {
		return "", fmt.Errorf("tenant DSN template must contain a %%s placeholder")
	}
	return fmt.Sprintf(t.DSNTemplate, name), nil
}
