package config

const (
	EnvPrefix = "STAFFSTORE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DefaultPort     = "3000"
	DefaultSMTPPort = 587
	DefaultNotifyTo = "orders@yourcompany.com"
)

const (
	EnvAppEnv      = "STAFFSTORE_APP_ENV"
	EnvPort        = "STAFFSTORE_APP_PORT"
	EnvDBDSN       = "STAFFSTORE_DB_DSN"
	EnvDBHost      = "STAFFSTORE_DB_HOST"
	EnvDBUser      = "STAFFSTORE_DB_USER"
	EnvDBName      = "STAFFSTORE_DB_NAME"
	EnvUseSQLite   = "STAFFSTORE_USE_SQLITE"
	EnvSMTPHost    = "STAFFSTORE_SMTP_HOST"
	EnvRedisURL    = "STAFFSTORE_REDIS_URL"
	EnvCORSOrigins = "STAFFSTORE_CORS_ALLOWED_ORIGINS"
)

// Variable names used by earlier deployments of the storefront.
const (
	EnvLegacyPort           = "PORT"
	EnvLegacyDatabaseURL    = "DATABASE_URL"
	EnvLegacySMTPHost       = "SMTP_HOST"
	EnvLegacyMailHost       = "MAIL_HOST"
	EnvLegacySMTPPort       = "SMTP_PORT"
	EnvLegacyMailPort       = "MAIL_PORT"
	EnvLegacySMTPSecure     = "SMTP_SECURE"
	EnvLegacySMTPUser       = "SMTP_USER"
	EnvLegacyMailUser       = "MAIL_USER"
	EnvLegacySMTPPass       = "SMTP_PASS"
	EnvLegacyMailPass       = "MAIL_PASS"
	EnvLegacyMailFrom       = "MAIL_FROM"
	EnvLegacyOrderNotifyTo  = "ORDER_NOTIFY_TO"
	EnvLegacyMailTo         = "MAIL_TO"
	EnvLegacyFrontendURL    = "FRONTEND_URL"
	EnvLegacyFrontendOrigin = "FRONTEND_ORIGIN"
	EnvLegacyAdminPassword  = "ADMIN_PASSWORD"
)

var dsnPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
