// Package sqlstore implements ports.UserRepository on top of database/sql.
// SQLite and MySQL share the queries below; each backend contributes its
// driver, schema and duplicate-key detection through a dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smart-inventory/inventory-api/internal/core/domain"
	"github.com/smart-inventory/inventory-api/internal/core/ports"
)

const defaultTimeout = 5 * time.Second

type dialect interface {
	name() string
	schema() []string
	isDuplicate(err error) bool
}

// Store is a users table behind a *sql.DB connection pool.
type Store struct {
	db      *sql.DB
	dialect dialect
	// writeMu serializes writes for backends with a single writer. Nil when
	// the server handles concurrent writes itself.
	writeMu *sync.Mutex
}

var _ ports.UserRepository = (*Store)(nil)

const userColumns = `user_id, username, email, password_hash, role, first_name, last_name,
	phone, is_active, created_at, last_login, created_by, updated_at`

// Migrate creates the users table when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s migrate: %w", s.dialect.name(), err)
		}
	}
	return nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findOne(ctx, "username = ?", username)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, "email = ?", email)
}

func (s *Store) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.findOne(ctx, "user_id = ?", id)
}

func (s *Store) findOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// Insert implements ports.UserRepository.
func (s *Store) Insert(ctx context.Context, user *domain.User) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	unlock := s.lockWrites()
	defer unlock()

	var createdBy sql.NullInt64
	if user.CreatedBy != nil {
		createdBy = sql.NullInt64{Int64: *user.CreatedBy, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, role, first_name, last_name,
			phone, is_active, created_at, created_by, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.FirstName,
		user.LastName,
		nullString(user.Phone),
		user.IsActive,
		user.CreatedAt.UTC(),
		createdBy,
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		if s.dialect.isDuplicate(err) {
			return 0, errors.Join(domain.ErrUserExists, err)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert user: last insert id: %w", err)
	}
	return id, nil
}

// UpdateLastLogin implements ports.UserRepository.
func (s *Store) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return s.update(ctx, "UPDATE users SET last_login = ? WHERE user_id = ?", at.UTC(), id)
}

// UpdateRole implements ports.UserRepository. updated_at is refreshed with the role.
func (s *Store) UpdateRole(ctx context.Context, id int64, role domain.Role, at time.Time) error {
	return s.update(ctx, "UPDATE users SET role = ?, updated_at = ? WHERE user_id = ?", string(role), at.UTC(), id)
}

func (s *Store) update(ctx context.Context, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	unlock := s.lockWrites()
	defer unlock()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Ping verifies the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s ping: %w", s.dialect.name(), err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

func (s *Store) lockWrites() func() {
	if s.writeMu == nil {
		return func() {}
	}
	s.writeMu.Lock()
	return s.writeMu.Unlock
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u                   domain.User
		role                string
		firstName, lastName sql.NullString
		phone               sql.NullString
		lastLogin           sql.NullTime
		createdBy           sql.NullInt64
	)
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&role,
		&firstName,
		&lastName,
		&phone,
		&u.IsActive,
		&u.CreatedAt,
		&lastLogin,
		&createdBy,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}

	u.Role = domain.Role(role)
	u.FirstName = firstName.String
	u.LastName = lastName.String
	u.Phone = phone.String
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		u.LastLogin = &t
	}
	if createdBy.Valid {
		id := createdBy.Int64
		u.CreatedBy = &id
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
