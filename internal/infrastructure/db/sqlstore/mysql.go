package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// MySQLConfig holds the connection and pool settings of the MySQL backend.
type MySQLConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders cfg as a go-sql-driver/mysql data source name.
func (cfg MySQLConfig) DSN() string {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.Loc = time.UTC
	// Report matched rather than changed rows so an update that rewrites the
	// same value is not mistaken for a missing user.
	mc.ClientFoundRows = true
	return mc.FormatDSN()
}

type mysqlDialect struct{}

func (mysqlDialect) name() string { return "mysql" }

func (mysqlDialect) schema() []string {
	return []string{`
		CREATE TABLE IF NOT EXISTS users (
			user_id       BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
			username      VARCHAR(50)  NOT NULL UNIQUE,
			email         VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role          ENUM('admin', 'employee') NOT NULL DEFAULT 'employee',
			first_name    VARCHAR(100) NULL,
			last_name     VARCHAR(100) NULL,
			phone         VARCHAR(20)  NULL,
			is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
			created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login    DATETIME     NULL,
			created_by    BIGINT       NULL,
			updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_users_role (role),
			CONSTRAINT fk_users_created_by FOREIGN KEY (created_by)
				REFERENCES users (user_id) ON DELETE SET NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
}

func (mysqlDialect) isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

// OpenMySQL connects to the MySQL server described by cfg, sizes the pool and
// applies the schema. The server handles concurrent writes, so no write lock
// is taken.
func OpenMySQL(ctx context.Context, cfg MySQLConfig) (*Store, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return open(ctx, db, mysqlDialect{}, nil)
}
