package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Signing      SigningConfig
	Manifest     ManifestConfig
	Validation   ValidationConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"GYMCORE_APP_ENV" required:"true"`
	Port         string `envconfig:"GYMCORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GYMCORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GYMCORE_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"GYMCORE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GYMCORE_DB_DSN"`
	Driver string `envconfig:"GYMCORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GYMCORE_DB_HOST"`
	LegacyPort     int    `envconfig:"GYMCORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GYMCORE_DB_USER"`
	LegacyPassword string `envconfig:"GYMCORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"GYMCORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"GYMCORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GYMCORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GYMCORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GYMCORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GYMCORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GYMCORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GYMCORE_REDIS_ADDR"`
	Password     string        `envconfig:"GYMCORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"GYMCORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GYMCORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GYMCORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GYMCORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GYMCORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GYMCORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GYMCORE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GYMCORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GYMCORE_JWT_EXPIRATION_MINUTES" default:"480"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GYMCORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GYMCORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GYMCORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GYMCORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GYMCORE_ARGON_KEY_LEN" default:"32"`
}

// SigningConfig holds the shared secret for the public response envelope.
type SigningConfig struct {
	ResponseSecret string `envconfig:"GYMCORE_RESPONSE_SIGNING_SECRET" required:"true"`
}

type ManifestConfig struct {
	Dir string `envconfig:"GYMCORE_MANIFEST_DIR" default:"manifests"`
}

// ValidationConfig carries the advisory heartbeat knobs returned to clients.
type ValidationConfig struct {
	GracePeriodDays    int           `envconfig:"GYMCORE_GRACE_PERIOD_DAYS" default:"7"`
	NextCheckInterval  time.Duration `envconfig:"GYMCORE_NEXT_CHECK_INTERVAL" default:"24h"`
	DefaultDeviceLimit int           `envconfig:"GYMCORE_DEFAULT_DEVICE_LIMIT" default:"1"`
}

type RateLimitConfig struct {
	VendorProfileWindow time.Duration `envconfig:"GYMCORE_RATE_LIMIT_VENDOR_WINDOW" default:"1m"`
	VendorProfileLimit  int           `envconfig:"GYMCORE_RATE_LIMIT_VENDOR_LIMIT" default:"30"`
	LoginWindow         time.Duration `envconfig:"GYMCORE_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit        int           `envconfig:"GYMCORE_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginUserLimit      int           `envconfig:"GYMCORE_RATE_LIMIT_LOGIN_USER_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GYMCORE_AUTO_MIGRATE" default:"false"`
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
