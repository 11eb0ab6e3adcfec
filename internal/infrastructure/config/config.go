package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type Config struct {
	Port      string `env:"PORT,       default=5000"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	StaticDir string `env:"STATIC_DIR"`

	Auth   AuthConfig
	DB     DBConfig
	SQLite SQLiteConfig
	MySQL  MySQLConfig
	Redis  RedisConfig
	Admin  AdminConfig
}

type AuthConfig struct {
	JWTSecret          string        `env:"JWT_SECRET,           required"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL,     default=24h"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL,    default=720h"`
	BcryptCost         int           `env:"BCRYPT_COST,          default=10"`
	RefreshCheckActive bool          `env:"REFRESH_CHECK_ACTIVE, default=true"`
	LoginMaxAttempts   int           `env:"LOGIN_MAX_ATTEMPTS,   default=5"`
	LoginLockout       time.Duration `env:"LOGIN_LOCKOUT,        default=15m"`
}

type DBConfig struct {
	Driver string `env:"DB_DRIVER, default=sqlite"`
}

type SQLiteConfig struct {
	Path         string `env:"SQLITE_DB_PATH,        default=database/inventory.db"`
	MaxOpenConns int    `env:"SQLITE_MAX_OPEN_CONNS, default=1"`
}

type MySQLConfig struct {
	Host            string        `env:"DB_HOST,                 default=localhost"`
	Port            int           `env:"DB_PORT,                 default=3306"`
	User            string        `env:"DB_USER,                 default=root"`
	Password        string        `env:"DB_PASSWORD"`
	Database        string        `env:"DB_NAME,                 default=inventory_db"`
	MaxOpenConns    int           `env:"MYSQL_MAX_OPEN_CONNS,    default=25"`
	MaxIdleConns    int           `env:"MYSQL_MAX_IDLE_CONNS,    default=25"`
	ConnMaxLifetime time.Duration `env:"MYSQL_CONN_MAX_LIFETIME, default=5m"`
}

// RedisConfig is optional: an empty Addr disables login throttling.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// AdminConfig describes the account seeded on startup. Seeding is skipped
// when Password is empty.
type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME, default=admin"`
	Email    string `env:"ADMIN_EMAIL,    default=admin@inventory.com"`
	Password string `env:"ADMIN_PASSWORD"`
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want %s or %s)", c.DB.Driver, DriverSQLite, DriverMySQL)
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	return nil
}
