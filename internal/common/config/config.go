package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`

		RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"20"`
		RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"40"`
	}

	Postgres PostgresConfig

	Redis struct {
		Enabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`

		// TTL of cached wallet stats projections
		StatsTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"30s"`
	}

	Referral struct {
		BaseURL string `env:"REFERRAL_BASE_URL" envDefault:"http://localhost:3000"`
	}

	Rewards RewardsConfig

	Wallet struct {
		StrictValidation bool `env:"STRICT_WALLET_VALIDATION" envDefault:"false"`
	}

	Admin struct {
		JWTSecret string `env:"ADMIN_JWT_SECRET" envDefault:""`
	}

	Jobs struct {
		MetricsRefreshSpec string `env:"METRICS_REFRESH_SPEC" envDefault:"@every 1m"`
	}
}

type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	Database string `env:"POSTGRES_DB" envDefault:"referral"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"5m"`

	AutoMigrate bool `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

// GetDSN собирает строку подключения для lib/pq
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// RewardsConfig holds the settlement policy knobs. Decimal fields are parsed by env via TextUnmarshaler.
type RewardsConfig struct {
	SignupBonus       decimal.Decimal `env:"SIGNUP_BONUS" envDefault:"3"`
	StakeBonusRate    decimal.Decimal `env:"STAKE_BONUS_RATE" envDefault:"0.05"`
	ReferrerBonusRate decimal.Decimal `env:"REFERRER_BONUS_RATE" envDefault:"0.05"`
	LockedShare       decimal.Decimal `env:"STAKE_LOCKED_SHARE" envDefault:"0.95"`
	TermDays          int             `env:"STAKE_TERM_DAYS" envDefault:"365"`
}

// RedisAddr returns host:port of the cache server.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// .env необязателен: в production переменные задаются окружением
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
