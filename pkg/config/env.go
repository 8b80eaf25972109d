package config

const (
	EnvPrefix = "OPTS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "OPTS_APP_ENV"
	EnvPort         = "OPTS_APP_PORT"
	EnvLogLevel     = "OPTS_LOG_LEVEL"
	EnvLogWarnStack = "OPTS_LOG_WARN_STACK"
	EnvLogFormat    = "OPTS_LOG_FORMAT"
	EnvBaseURL      = "OPTS_BASE_URL"

	EnvDBDSN      = "OPTS_DB_DSN"
	EnvDBDriver   = "OPTS_DB_DRIVER"
	EnvDBHost     = "OPTS_DB_HOST"
	EnvDBPort     = "OPTS_DB_PORT"
	EnvDBUser     = "OPTS_DB_USER"
	EnvDBPassword = "OPTS_DB_PASSWORD"
	EnvDBName     = "OPTS_DB_NAME"
	EnvDBSSLMode  = "OPTS_DB_SSLMODE"

	EnvRedisURL  = "OPTS_REDIS_URL"
	EnvRedisAddr = "OPTS_REDIS_ADDR"

	EnvMailEnabled  = "OPTS_MAIL_ENABLED"
	EnvMailHost     = "OPTS_SMTP_HOST"
	EnvMailPort     = "OPTS_SMTP_PORT"
	EnvMailUser     = "OPTS_SMTP_USER"
	EnvMailPassword = "OPTS_SMTP_PASSWORD"
	EnvMailFrom     = "OPTS_MAIL_FROM"

	EnvArtifactsRoot   = "OPTS_ARTIFACTS_ROOT"
	EnvArtifactsPrefix = "OPTS_ARTIFACTS_WEB_PREFIX"
	EnvArtifactsBrand  = "OPTS_ARTIFACTS_BRAND"

	EnvUseSQLite   = "OPTS_USE_SQLITE"
	EnvAutoMigrate = "OPTS_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
