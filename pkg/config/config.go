package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App               AppConfig
	DB                DBConfig
	Redis             RedisConfig
	Password          PasswordConfig
	Mail              MailConfig
	Artifacts         ArtifactsConfig
	RegisterRateLimit RegisterRateLimitConfig
	FeatureFlags      FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Artifacts.validate(); err != nil {
		return nil, err
	}
	cfg.App.BaseURL = strings.TrimRight(cfg.App.BaseURL, "/")
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"OPTS_APP_ENV" required:"true"`
	Port         string `envconfig:"OPTS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OPTS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OPTS_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"OPTS_LOG_FORMAT" default:"json"`
	// BaseURL prefixes scan links and registration links sent to customers.
	BaseURL string `envconfig:"OPTS_BASE_URL" required:"true"`
	// CORSOrigins is a comma separated list of portal origins.
	CORSOrigins []string `envconfig:"OPTS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"OPTS_DB_DSN"`
	Driver string `envconfig:"OPTS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OPTS_DB_HOST"`
	LegacyPort     int    `envconfig:"OPTS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OPTS_DB_USER"`
	LegacyPassword string `envconfig:"OPTS_DB_PASSWORD"`
	LegacyName     string `envconfig:"OPTS_DB_NAME"`
	LegacySSLMode  string `envconfig:"OPTS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OPTS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OPTS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OPTS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OPTS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OPTS_REDIS_URL"`
	Address      string        `envconfig:"OPTS_REDIS_ADDR"`
	Password     string        `envconfig:"OPTS_REDIS_PASSWORD"`
	DB           int           `envconfig:"OPTS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OPTS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OPTS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OPTS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OPTS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OPTS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"OPTS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"OPTS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"OPTS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"OPTS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"OPTS_ARGON_KEY_LEN" default:"32"`
}

type MailConfig struct {
	Enabled  bool   `envconfig:"OPTS_MAIL_ENABLED" default:"false"`
	Host     string `envconfig:"OPTS_SMTP_HOST"`
	Port     int    `envconfig:"OPTS_SMTP_PORT" default:"587"`
	User     string `envconfig:"OPTS_SMTP_USER"`
	Password string `envconfig:"OPTS_SMTP_PASSWORD"`
	From     string `envconfig:"OPTS_MAIL_FROM" default:"no-reply@loussodesigns.com"`
}

// Addr returns host:port for net/smtp.
func (m MailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

type ArtifactsConfig struct {
	RootDir   string `envconfig:"OPTS_ARTIFACTS_ROOT" default:"static"`
	WebPrefix string `envconfig:"OPTS_ARTIFACTS_WEB_PREFIX" default:"/static"`
	Brand     string `envconfig:"OPTS_ARTIFACTS_BRAND" default:"lousso"`
}

// clientCopyPrefix is the file prefix of the client work order.
const clientCopyPrefix = "client"

func (a ArtifactsConfig) validate() error {
	if strings.EqualFold(strings.TrimSpace(a.Brand), clientCopyPrefix) {
		return fmt.Errorf("%s must not be %q: it names the client work order", EnvArtifactsBrand, clientCopyPrefix)
	}
	return nil
}

type RegisterRateLimitConfig struct {
	Window     time.Duration `envconfig:"OPTS_REGISTER_RATE_LIMIT_WINDOW" default:"5m"`
	IPLimit    int           `envconfig:"OPTS_REGISTER_RATE_LIMIT_IP_LIMIT" default:"20"`
	TokenLimit int           `envconfig:"OPTS_REGISTER_RATE_LIMIT_TOKEN_LIMIT" default:"5"`
	// ResendCooldown spaces out staff-triggered registration resends per customer.
	ResendCooldown time.Duration `envconfig:"OPTS_REGISTER_RESEND_COOLDOWN" default:"1m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"OPTS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"OPTS_AUTO_MIGRATE" default:"false"`
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
