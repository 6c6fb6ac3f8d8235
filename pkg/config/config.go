package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "FORNO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "FORNO_APP_ENV"
	EnvPort         = "FORNO_APP_PORT"
	EnvDBDSN        = "FORNO_DB_DSN"
	EnvDBHost       = "FORNO_DB_HOST"
	EnvDBUser       = "FORNO_DB_USER"
	EnvDBName       = "FORNO_DB_NAME"
	EnvRedisURL     = "FORNO_REDIS_URL"
	EnvStoreName    = "FORNO_STORE_NAME"
	EnvStorePhone   = "FORNO_STORE_PHONE"
	EnvOfflineMode  = "FORNO_OFFLINE_MODE"
	EnvStaticCoupon = "FORNO_COUPONS_STATIC"
	EnvMenuFile     = "FORNO_STORE_MENU_FILE"
	EnvCORSOrigins  = "FORNO_APP_CORS_ORIGINS"
	EnvGCPProjectID = "FORNO_GCP_PROJECT_ID"
	EnvOrdersTopic  = "FORNO_PUBSUB_ORDERS_TOPIC"

	EnvPersistTimeout  = "FORNO_CHECKOUT_PERSIST_TIMEOUT"
	EnvCheckoutLockTTL = "FORNO_CHECKOUT_LOCK_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Store        StoreConfig
	Checkout     CheckoutConfig
	Coupons      CouponConfig
	Session      SessionConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.OfflineMode {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FORNO_APP_ENV" required:"true"`
	Port         string `envconfig:"FORNO_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"FORNO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FORNO_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list for the storefront.
	CORSOrigins []string `envconfig:"FORNO_APP_CORS_ORIGINS"`
	// WorkerMetricsAddr exposes /metrics from the background workers when set.
	WorkerMetricsAddr string `envconfig:"FORNO_WORKER_METRICS_ADDR"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"FORNO_DB_DSN"`

	LegacyHost     string `envconfig:"FORNO_DB_HOST"`
	LegacyPort     int    `envconfig:"FORNO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FORNO_DB_USER"`
	LegacyPassword string `envconfig:"FORNO_DB_PASSWORD"`
	LegacyName     string `envconfig:"FORNO_DB_NAME"`
	LegacySSLMode  string `envconfig:"FORNO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FORNO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FORNO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FORNO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FORNO_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"FORNO_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FORNO_REDIS_URL"`
	Address      string        `envconfig:"FORNO_REDIS_ADDR"`
	Password     string        `envconfig:"FORNO_REDIS_PASSWORD"`
	DB           int           `envconfig:"FORNO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FORNO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FORNO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FORNO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FORNO_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"FORNO_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// StoreConfig describes the single storefront this deployment serves.
type StoreConfig struct {
	Name                string          `envconfig:"FORNO_STORE_NAME" required:"true"`
	Phone               string          `envconfig:"FORNO_STORE_PHONE"`
	CountryCode         string          `envconfig:"FORNO_STORE_COUNTRY_CODE" default:"55"`
	MessagingBaseURL    string          `envconfig:"FORNO_STORE_MESSAGING_URL" default:"https://wa.me/"`
	FreeShipping        bool            `envconfig:"FORNO_STORE_FREE_SHIPPING" default:"false"`
	FreeShippingMinimum decimal.Decimal `envconfig:"FORNO_STORE_FREE_SHIPPING_MINIMUM" default:"0"`
	// RegionsFile and MenuFile seed delivery regions and the menu from JSON when running
	// without a database.
	RegionsFile string `envconfig:"FORNO_STORE_REGIONS_FILE"`
	MenuFile    string `envconfig:"FORNO_STORE_MENU_FILE"`
}

func (s StoreConfig) validate() error {
	if s.FreeShippingMinimum.IsNegative() {
		return fmt.Errorf("%s must not be negative", "FORNO_STORE_FREE_SHIPPING_MINIMUM")
	}
	if _, err := url.Parse(s.MessagingBaseURL); err != nil {
		return fmt.Errorf("parsing messaging url: %w", err)
	}
	return nil
}

type CheckoutConfig struct {
	PersistTimeout    time.Duration `envconfig:"FORNO_CHECKOUT_PERSIST_TIMEOUT" default:"8s"`
	RecentOrdersLimit int           `envconfig:"FORNO_CHECKOUT_RECENT_ORDERS_LIMIT" default:"10"`
	PlaceholderPrefix string        `envconfig:"FORNO_CHECKOUT_PLACEHOLDER_PREFIX" default:"LOCAL"`
	LockTTL           time.Duration `envconfig:"FORNO_CHECKOUT_LOCK_TTL" default:"30s"`
	BackgroundTimeout time.Duration `envconfig:"FORNO_CHECKOUT_BACKGROUND_TIMEOUT" default:"60s"`
}

// validate keeps the submission lock alive for as long as checkout may wait on the order write.
func (c CheckoutConfig) validate() error {
	if c.PersistTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvPersistTimeout)
	}
	if c.LockTTL <= c.PersistTimeout {
		return fmt.Errorf("%s (%s) must be longer than %s (%s)", EnvCheckoutLockTTL, c.LockTTL, EnvPersistTimeout, c.PersistTimeout)
	}
	return nil
}

type CouponConfig struct {
	// Static is a comma separated CODE:PERCENT list used when no database is available.
	Static   string        `envconfig:"FORNO_COUPONS_STATIC"`
	CacheTTL time.Duration `envconfig:"FORNO_COUPONS_CACHE_TTL" default:"2m"`
}

type SessionConfig struct {
	TTL             time.Duration `envconfig:"FORNO_SESSION_TTL" default:"72h"`
	RateLimit       int           `envconfig:"FORNO_SESSION_RATE_LIMIT" default:"60"`
	RateLimitWindow time.Duration `envconfig:"FORNO_SESSION_RATE_LIMIT_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	OfflineMode bool `envconfig:"FORNO_OFFLINE_MODE" default:"false"`
	AutoMigrate bool `envconfig:"FORNO_AUTO_MIGRATE" default:"false"`
	// AssistantTools exposes the function-calling endpoints used by the chat assistant.
	AssistantTools bool `envconfig:"FORNO_ASSISTANT_TOOLS" default:"true"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FORNO_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FORNO_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FORNO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"FORNO_PUBSUB_ORDERS_TOPIC" default:"forno-order-events"`
}

// OutboxConfig drives both the order writer (Enabled) and the outbox-publisher worker.
type OutboxConfig struct {
	Enabled        bool `envconfig:"FORNO_OUTBOX_ENABLED" default:"true"`
	BatchSize      int  `envconfig:"FORNO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int  `envconfig:"FORNO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int  `envconfig:"FORNO_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int  `envconfig:"FORNO_OUTBOX_RETENTION_DAYS" default:"30"`
	// DLQRetentionDays keeps dead-lettered order events longer so they can be replayed by hand.
	DLQRetentionDays int `envconfig:"FORNO_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
}

type CronConfig struct {
	Interval   time.Duration `envconfig:"FORNO_CRON_INTERVAL" default:"24h"`
	JobTimeout time.Duration `envconfig:"FORNO_CRON_JOB_TIMEOUT" default:"10m"`
}

// RequirePublisher validates the settings only the outbox-publisher needs.
func (c *Config) RequirePublisher() error {
	if strings.TrimSpace(c.GCP.ProjectID) == "" {
		return fmt.Errorf("%s is required", EnvGCPProjectID)
	}
	if strings.TrimSpace(c.PubSub.OrdersTopic) == "" {
		return fmt.Errorf("%s is required", EnvOrdersTopic)
	}
	return nil
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
