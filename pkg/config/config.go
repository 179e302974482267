package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/staffstore-backend/pkg/env"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Admin        AdminConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	Mail         MailConfig
	CORS         CORSConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyLegacy()
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STAFFSTORE_APP_ENV" default:"dev"`
	Port         string `envconfig:"STAFFSTORE_APP_PORT"`
	LogLevel     string `envconfig:"STAFFSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STAFFSTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STAFFSTORE_DB_DSN"`
	Driver string `envconfig:"STAFFSTORE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STAFFSTORE_DB_HOST"`
	Port     int    `envconfig:"STAFFSTORE_DB_PORT" default:"5432"`
	User     string `envconfig:"STAFFSTORE_DB_USER"`
	Password string `envconfig:"STAFFSTORE_DB_PASSWORD"`
	Name     string `envconfig:"STAFFSTORE_DB_NAME"`
	SSLMode  string `envconfig:"STAFFSTORE_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"STAFFSTORE_SQLITE_PATH" default:"file:staffstore.db?cache=shared&_busy_timeout=5000"`

	ConnectTimeout  time.Duration `envconfig:"STAFFSTORE_DB_CONNECT_TIMEOUT" default:"15s"`
	MaxOpenConns    int           `envconfig:"STAFFSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STAFFSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STAFFSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STAFFSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional; an empty URL and address disables Redis-backed middleware.
type RedisConfig struct {
	URL          string        `envconfig:"STAFFSTORE_REDIS_URL"`
	Address      string        `envconfig:"STAFFSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"STAFFSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"STAFFSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STAFFSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STAFFSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STAFFSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STAFFSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STAFFSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type AdminConfig struct {
	Password     string `envconfig:"STAFFSTORE_ADMIN_PASSWORD"`
	PasswordHash string `envconfig:"STAFFSTORE_ADMIN_PASSWORD_HASH"`

	JWTSecret         string `envconfig:"STAFFSTORE_JWT_SECRET"`
	JWTIssuer         string `envconfig:"STAFFSTORE_JWT_ISSUER" default:"staffstore"`
	ExpirationMinutes int    `envconfig:"STAFFSTORE_JWT_EXPIRATION_MINUTES" default:"60"`
}

func (a AdminConfig) Enabled() bool {
	return strings.TrimSpace(a.Password) != "" || strings.TrimSpace(a.PasswordHash) != ""
}

// TokenTTL returns the admin token lifetime.
func (a AdminConfig) TokenTTL() time.Duration {
	if a.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STAFFSTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STAFFSTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STAFFSTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STAFFSTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STAFFSTORE_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	LoginWindow    time.Duration `envconfig:"STAFFSTORE_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit   int           `envconfig:"STAFFSTORE_RATE_LIMIT_LOGIN_IP_LIMIT" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"STAFFSTORE_IDEMPOTENCY_TTL" default:"24h"`
}

type MailConfig struct {
	Host        string        `envconfig:"STAFFSTORE_SMTP_HOST"`
	Port        int           `envconfig:"STAFFSTORE_SMTP_PORT"`
	Secure      bool          `envconfig:"STAFFSTORE_SMTP_SECURE" default:"false"`
	User        string        `envconfig:"STAFFSTORE_SMTP_USER"`
	Password    string        `envconfig:"STAFFSTORE_SMTP_PASS"`
	From        string        `envconfig:"STAFFSTORE_MAIL_FROM"`
	NotifyTo    string        `envconfig:"STAFFSTORE_ORDER_NOTIFY_TO"`
	SendTimeout time.Duration `envconfig:"STAFFSTORE_MAIL_SEND_TIMEOUT" default:"10s"`
}

// Configured mirrors the transport rule: host, user and pass must all be present.
func (m MailConfig) Configured() bool {
	return m.Host != "" && m.User != "" && m.Password != ""
}

// ImplicitTLS reports whether the SMTP connection starts with TLS.
func (m MailConfig) ImplicitTLS() bool {
	return m.Secure || m.Port == 465
}

func (m MailConfig) Sender() string {
	if m.From != "" {
		return m.From
	}
	return m.User
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STAFFSTORE_CORS_ALLOWED_ORIGINS"`
}

// AllowAll is true when no explicit origin list is configured.
func (c CORSConfig) AllowAll() bool {
	return len(c.AllowedOrigins) == 0
}

type GCPConfig struct {
	ProjectID string `envconfig:"STAFFSTORE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"STAFFSTORE_PUBSUB_ORDERS_TOPIC"`
}

// Enabled reports whether order events should be published.
func (p PubSubConfig) Enabled(gcp GCPConfig) bool {
	return strings.TrimSpace(p.OrdersTopic) != "" && strings.TrimSpace(gcp.ProjectID) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STAFFSTORE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STAFFSTORE_AUTO_MIGRATE" default:"false"`
	SeedCatalog bool `envconfig:"STAFFSTORE_SEED_CATALOG" default:"true"`
}

// applyLegacy fills unset values from the variable names the storefront
// shipped with before the STAFFSTORE_ prefix existed.
func (c *Config) applyLegacy() {
	if c.App.Port == "" {
		c.App.Port = env.Get(EnvLegacyPort, DefaultPort)
	}
	if c.DB.DSN == "" {
		c.DB.DSN = env.First(EnvLegacyDatabaseURL)
	}

	if c.Mail.Host == "" {
		c.Mail.Host = env.First(EnvLegacySMTPHost, EnvLegacyMailHost)
	}
	if c.Mail.Port == 0 {
		c.Mail.Port = DefaultSMTPPort
		if raw := env.First(EnvLegacySMTPPort, EnvLegacyMailPort); raw != "" {
			if port, err := strconv.Atoi(raw); err == nil {
				c.Mail.Port = port
			}
		}
	}
	if !c.Mail.Secure {
		c.Mail.Secure = strings.EqualFold(env.First(EnvLegacySMTPSecure), "true")
	}
	if c.Mail.User == "" {
		c.Mail.User = env.First(EnvLegacySMTPUser, EnvLegacyMailUser)
	}
	if c.Mail.Password == "" {
		c.Mail.Password = env.First(EnvLegacySMTPPass, EnvLegacyMailPass)
	}
	if c.Mail.From == "" {
		c.Mail.From = env.First(EnvLegacyMailFrom)
	}
	if c.Mail.NotifyTo == "" {
		c.Mail.NotifyTo = env.Get(EnvLegacyOrderNotifyTo, env.Get(EnvLegacyMailTo, DefaultNotifyTo))
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = splitOrigins(env.First(EnvLegacyFrontendURL, EnvLegacyFrontendOrigin))
	} else {
		c.CORS.AllowedOrigins = splitOrigins(strings.Join(c.CORS.AllowedOrigins, ","))
	}

	if c.Admin.Password == "" {
		c.Admin.Password = env.First(EnvLegacyAdminPassword)
	}
	if c.Admin.JWTSecret == "" {
		c.Admin.JWTSecret = c.Admin.Password
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite || db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, key := range dsnPartEnvVars {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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
