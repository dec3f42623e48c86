package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Stripe     StripeConfig
	Email      EmailConfig
	Signup     SignupConfig
	Withdrawal WithdrawalConfig
	Features   FeatureFlagsConfig
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
	Env          string `envconfig:"MICROTASK_APP_ENV" required:"true"`
	Port         string `envconfig:"MICROTASK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MICROTASK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MICROTASK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"MICROTASK_DB_DSN"`

	Host     string `envconfig:"MICROTASK_DB_HOST"`
	Port     int    `envconfig:"MICROTASK_DB_PORT" default:"5432"`
	User     string `envconfig:"MICROTASK_DB_USER"`
	Password string `envconfig:"MICROTASK_DB_PASSWORD"`
	Name     string `envconfig:"MICROTASK_DB_NAME"`
	SSLMode  string `envconfig:"MICROTASK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MICROTASK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MICROTASK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MICROTASK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MICROTASK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MICROTASK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MICROTASK_REDIS_ADDR"`
	Password     string        `envconfig:"MICROTASK_REDIS_PASSWORD"`
	DB           int           `envconfig:"MICROTASK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MICROTASK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MICROTASK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MICROTASK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MICROTASK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MICROTASK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret          string `envconfig:"MICROTASK_JWT_SECRET" required:"true"`
	Issuer          string `envconfig:"MICROTASK_JWT_ISSUER" required:"true"`
	ExpirationHours int    `envconfig:"MICROTASK_JWT_EXPIRATION_HOURS" default:"168"`
}

// Expiration returns the configured access token TTL.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationHours <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationHours) * time.Hour
}

type StripeConfig struct {
	APIKey string `envconfig:"MICROTASK_STRIPE_API_KEY"`
	Env    string `envconfig:"MICROTASK_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type EmailConfig struct {
	DefaultFrom string `envconfig:"MICROTASK_EMAIL_FROM" default:"noreply@microtask.app"`
}

type SignupConfig struct {
	WorkerBonusCoins int `envconfig:"MICROTASK_SIGNUP_WORKER_BONUS" default:"10"`
	BuyerBonusCoins  int `envconfig:"MICROTASK_SIGNUP_BUYER_BONUS" default:"50"`
}

type WithdrawalConfig struct {
	MinimumCoins int `envconfig:"MICROTASK_WITHDRAWAL_MIN_COINS" default:"200"`
	CoinsPerUSD  int `envconfig:"MICROTASK_WITHDRAWAL_COINS_PER_USD" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MICROTASK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
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
