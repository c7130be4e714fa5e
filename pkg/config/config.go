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
	FeatureFlags FeatureFlagsConfig
	Workflow     WorkflowConfig
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
	Env          string `envconfig:"SITESTOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"SITESTOCK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SITESTOCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SITESTOCK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SITESTOCK_DB_DSN"`
	Driver string `envconfig:"SITESTOCK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SITESTOCK_DB_HOST"`
	Port     int    `envconfig:"SITESTOCK_DB_PORT" default:"5432"`
	User     string `envconfig:"SITESTOCK_DB_USER"`
	Password string `envconfig:"SITESTOCK_DB_PASSWORD"`
	Name     string `envconfig:"SITESTOCK_DB_NAME"`
	SSLMode  string `envconfig:"SITESTOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SITESTOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SITESTOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SITESTOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SITESTOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SITESTOCK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SITESTOCK_REDIS_ADDR"`
	Password     string        `envconfig:"SITESTOCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"SITESTOCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SITESTOCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SITESTOCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SITESTOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SITESTOCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SITESTOCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SITESTOCK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SITESTOCK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SITESTOCK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SITESTOCK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SITESTOCK_AUTO_MIGRATE" default:"false"`
}

type WorkflowConfig struct {
	// MaxWithdrawalQty caps a single withdrawal request regardless of stock.
	MaxWithdrawalQty int `envconfig:"SITESTOCK_MAX_WITHDRAWAL_QTY" default:"10000"`
	// OverdueGraceHours delays the overdue listing past expected_return.
	OverdueGraceHours int `envconfig:"SITESTOCK_OVERDUE_GRACE_HOURS" default:"0"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	discrete := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if discrete[env] == "" {
			missing = append(missing, env)
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
