package config

// EnvPrefix is passed to envconfig; individual fields carry fully
// qualified envconfig tags so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "MICROTASK_APP_ENV"

	EnvDBDSN  = "MICROTASK_DB_DSN"
	EnvDBHost = "MICROTASK_DB_HOST"
	EnvDBUser = "MICROTASK_DB_USER"
	EnvDBName = "MICROTASK_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
