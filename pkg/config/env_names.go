package config

// EnvPrefix is passed to envconfig.Process; individual fields carry explicit
// envconfig tags so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv             = "GYMCORE_APP_ENV"
	EnvPort               = "GYMCORE_APP_PORT"
	EnvDBDSN              = "GYMCORE_DB_DSN"
	EnvDBHost             = "GYMCORE_DB_HOST"
	EnvDBUser             = "GYMCORE_DB_USER"
	EnvDBName             = "GYMCORE_DB_NAME"
	EnvRedisURL           = "GYMCORE_REDIS_URL"
	EnvJWTSecret          = "GYMCORE_JWT_SECRET"
	EnvJWTIssuer          = "GYMCORE_JWT_ISSUER"
	EnvJWTExpMins         = "GYMCORE_JWT_EXPIRATION_MINUTES"
	EnvResponseSecret     = "GYMCORE_RESPONSE_SIGNING_SECRET"
	EnvManifestDir        = "GYMCORE_MANIFEST_DIR"
	EnvGracePeriodDays    = "GYMCORE_GRACE_PERIOD_DAYS"
	EnvDefaultDeviceLimit = "GYMCORE_DEFAULT_DEVICE_LIMIT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
