package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smart-inventory/inventory-api/internal/core/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newUser(username, email string) *domain.User {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: "$2b$10$hash",
		Role:         domain.RoleEmployee,
		FirstName:    "Jane",
		LastName:     "Doe",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestStore_InsertAndFind(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := newUser("jane", "jane@example.com")
	u.Phone = "555-0100"
	id, err := s.Insert(ctx, u)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	lookups := map[string]func() (*domain.User, error){
		"by id":       func() (*domain.User, error) { return s.FindByID(ctx, id) },
		"by username": func() (*domain.User, error) { return s.FindByUsername(ctx, "jane") },
		"by email":    func() (*domain.User, error) { return s.FindByEmail(ctx, "jane@example.com") },
	}
	for name, find := range lookups {
		t.Run(name, func(t *testing.T) {
			got, err := find()
			if err != nil {
				t.Fatalf("find error = %v", err)
			}
			if got.ID != id || got.Username != "jane" || got.Email != "jane@example.com" {
				t.Fatalf("unexpected user: %+v", got)
			}
			if got.Role != domain.RoleEmployee || !got.IsActive {
				t.Fatalf("unexpected role/active: %s/%v", got.Role, got.IsActive)
			}
			if got.Phone != "555-0100" || got.FirstName != "Jane" || got.LastName != "Doe" {
				t.Fatalf("unexpected profile: %+v", got)
			}
			if got.LastLogin != nil || got.CreatedBy != nil {
				t.Fatalf("expected nil last_login and created_by, got %v %v", got.LastLogin, got.CreatedBy)
			}
			if !got.CreatedAt.Equal(u.CreatedAt) {
				t.Fatalf("created_at = %v, want %v", got.CreatedAt, u.CreatedAt)
			}
		})
	}
}

func TestStore_FindMissing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.FindByID(ctx, 99); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("FindByID error = %v, want ErrUserNotFound", err)
	}
	if _, err := s.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("FindByEmail error = %v, want ErrUserNotFound", err)
	}
}

func TestStore_InsertDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, newUser("jane", "jane@example.com")); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	tests := []struct {
		name string
		user *domain.User
	}{
		{"same username", newUser("jane", "other@example.com")},
		{"same email", newUser("other", "jane@example.com")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Insert(ctx, tt.user)
			if !errors.Is(err, domain.ErrUserExists) {
				t.Fatalf("Insert() error = %v, want ErrUserExists", err)
			}
		})
	}
}

func TestStore_CreatedByReference(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	admin := newUser("admin", "admin@example.com")
	admin.Role = domain.RoleAdmin
	adminID, err := s.Insert(ctx, admin)
	if err != nil {
		t.Fatalf("Insert(admin) error = %v", err)
	}

	emp := newUser("emp", "emp@example.com")
	emp.CreatedBy = &adminID
	empID, err := s.Insert(ctx, emp)
	if err != nil {
		t.Fatalf("Insert(emp) error = %v", err)
	}

	got, err := s.FindByID(ctx, empID)
	if err != nil {
		t.Fatalf("FindByID error = %v", err)
	}
	if got.CreatedBy == nil || *got.CreatedBy != adminID {
		t.Fatalf("created_by = %v, want %d", got.CreatedBy, adminID)
	}

	missing := int64(999)
	orphan := newUser("orphan", "orphan@example.com")
	orphan.CreatedBy = &missing
	if _, err := s.Insert(ctx, orphan); err == nil {
		t.Fatal("expected foreign key violation for unknown creator")
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE user_id = ?", adminID); err != nil {
		t.Fatalf("delete admin: %v", err)
	}
	got, err = s.FindByID(ctx, empID)
	if err != nil {
		t.Fatalf("FindByID error = %v", err)
	}
	if got.CreatedBy != nil {
		t.Fatalf("created_by should be cleared when creator is deleted, got %d", *got.CreatedBy)
	}
}

func TestStore_UpdateLastLogin(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, newUser("jane", "jane@example.com"))
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	at := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	if err := s.UpdateLastLogin(ctx, id, at); err != nil {
		t.Fatalf("UpdateLastLogin() error = %v", err)
	}

	got, err := s.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID error = %v", err)
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(at) {
		t.Fatalf("last_login = %v, want %v", got.LastLogin, at)
	}

	if err := s.UpdateLastLogin(ctx, 404, at); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("UpdateLastLogin(missing) error = %v, want ErrUserNotFound", err)
	}
}

func TestStore_UpdateRole(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := newUser("jane", "jane@example.com")
	id, err := s.Insert(ctx, u)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	at := u.UpdatedAt.Add(time.Hour)
	if err := s.UpdateRole(ctx, id, domain.RoleAdmin, at); err != nil {
		t.Fatalf("UpdateRole() error = %v", err)
	}

	got, err := s.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID error = %v", err)
	}
	if got.Role != domain.RoleAdmin {
		t.Fatalf("role = %s, want admin", got.Role)
	}
	if !got.UpdatedAt.Equal(at) {
		t.Fatalf("updated_at = %v, want %v", got.UpdatedAt, at)
	}

	if err := s.UpdateRole(ctx, 404, domain.RoleAdmin, at); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("UpdateRole(missing) error = %v, want ErrUserNotFound", err)
	}
}

func TestStore_RejectsUnknownRole(t *testing.T) {
	s := openTestStore(t)

	u := newUser("jane", "jane@example.com")
	u.Role = domain.Role("manager")
	if _, err := s.Insert(context.Background(), u); err == nil {
		t.Fatal("expected check constraint to reject unknown role")
	}
}

func TestStore_ConcurrentInserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const n = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		dupes   int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Insert(ctx, newUser("race", "race@example.com"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrUserExists):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || dupes != n-1 {
		t.Fatalf("created=%d dupes=%d, want 1 and %d", created, dupes, n-1)
	}
}

func TestStore_Ping(t *testing.T) {
	s := openTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, newUser("jane", "jane@example.com")); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if _, err := s.FindByUsername(ctx, "jane"); err != nil {
		t.Fatalf("user lost after second migrate: %v", err)
	}
}
