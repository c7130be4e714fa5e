package config

// EnvPrefix scopes every environment variable envconfig reads.
const EnvPrefix = "sitestock"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "SITESTOCK_DB_DSN"
	EnvDBHost = "SITESTOCK_DB_HOST"
	EnvDBUser = "SITESTOCK_DB_USER"
	EnvDBName = "SITESTOCK_DB_NAME"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
