package api

import (
	"context"
	"net/http"
	"testing"
)

func registerBody(username, email string) map[string]string {
	return map[string]string{
		"username":   username,
		"email":      email,
		"password":   "Secret1!",
		"role":       "employee",
		"first_name": "A",
		"last_name":  "B",
	}
}

func TestAuthFlow_EndToEnd(t *testing.T) {
	srv := newTestServer(t, "")

	// Register with a mixed-case email.
	rec, resp := srv.do(t, http.MethodPost, "/api/auth/register", "", registerBody("alice123", "A@B.com"))
	expectStatus(t, rec, http.StatusCreated)
	if resp["message"] != "User registered successfully" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	user, _ := resp["user"].(map[string]any)
	if user["email"] != "a@b.com" || user["role"] != "employee" {
		t.Fatalf("unexpected user: %+v", user)
	}
	aliceID := user["user_id"].(float64)

	// Same email in another case is a duplicate.
	rec, resp = srv.do(t, http.MethodPost, "/api/auth/register", "", registerBody("alice456", "a@B.COM"))
	expectError(t, rec, resp, http.StatusConflict, "Email already exists")

	// Login with the normalized email.
	rec, resp = srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@b.com", "password": "Secret1!",
	})
	expectStatus(t, rec, http.StatusOK)
	access, _ := resp["access_token"].(string)
	if access == "" || resp["refresh_token"] == "" {
		t.Fatalf("expected tokens, got %+v", resp)
	}

	// Me.
	rec, resp = srv.do(t, http.MethodGet, "/api/auth/me", access, nil)
	expectStatus(t, rec, http.StatusOK)
	me, _ := resp["user"].(map[string]any)
	if me["username"] != "alice123" {
		t.Fatalf("unexpected me payload: %+v", me)
	}
	if me["last_login"] == nil {
		t.Fatalf("expected last_login to be set after login")
	}

	// alice is an employee: the admin check comes first.
	rec, resp = srv.do(t, http.MethodPut, "/api/auth/change-role", access, map[string]any{
		"user_id": aliceID, "new_role": "admin",
	})
	expectError(t, rec, resp, http.StatusForbidden, "Unauthorized. Admin access required")
}

func TestAuthFlow_AdminChangesRoles(t *testing.T) {
	srv := newTestServer(t, "")
	ctx := context.Background()

	if _, err := srv.svc.EnsureAdmin(ctx, "admin", "admin@inventory.com", "Admin@123"); err != nil {
		t.Fatalf("EnsureAdmin error = %v", err)
	}
	rec, resp := srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@inventory.com", "password": "Admin@123",
	})
	expectStatus(t, rec, http.StatusOK)
	adminToken := resp["access_token"].(string)
	adminID := resp["user"].(map[string]any)["user_id"].(float64)

	// Admin-initiated registration records the creator.
	rec, resp = srv.do(t, http.MethodPost, "/api/auth/register", adminToken, registerBody("bob123", "bob@example.com"))
	expectStatus(t, rec, http.StatusCreated)
	bobID := resp["user"].(map[string]any)["user_id"].(float64)

	bob, err := srv.store.FindByID(ctx, int64(bobID))
	if err != nil {
		t.Fatalf("FindByID error = %v", err)
	}
	if bob.CreatedBy == nil || *bob.CreatedBy != int64(adminID) {
		t.Fatalf("created_by = %v, want %v", bob.CreatedBy, adminID)
	}

	// Self change is rejected.
	rec, resp = srv.do(t, http.MethodPut, "/api/auth/change-role", adminToken, map[string]any{
		"user_id": adminID, "new_role": "employee",
	})
	expectError(t, rec, resp, http.StatusBadRequest, "Cannot change your own role")

	// Invalid role.
	rec, resp = srv.do(t, http.MethodPut, "/api/auth/change-role", adminToken, map[string]any{
		"user_id": bobID, "new_role": "manager",
	})
	expectError(t, rec, resp, http.StatusBadRequest, "Role must be either admin or employee")

	// Unknown user.
	rec, resp = srv.do(t, http.MethodPut, "/api/auth/change-role", adminToken, map[string]any{
		"user_id": 9999, "new_role": "admin",
	})
	expectError(t, rec, resp, http.StatusNotFound, "User not found")

	// Missing fields.
	rec, resp = srv.do(t, http.MethodPut, "/api/auth/change-role", adminToken, map[string]any{})
	expectError(t, rec, resp, http.StatusBadRequest, "user_id and new_role are required")

	// Promote bob.
	rec, resp = srv.do(t, http.MethodPut, "/api/auth/change-role", adminToken, map[string]any{
		"user_id": bobID, "new_role": "ADMIN",
	})
	expectStatus(t, rec, http.StatusOK)
	if resp["message"] != "User role updated successfully from employee to admin" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	changed := resp["user"].(map[string]any)
	if changed["old_role"] != "employee" || changed["new_role"] != "admin" || changed["username"] != "bob123" {
		t.Fatalf("unexpected role change payload: %+v", changed)
	}
}

func TestAuthFlow_LoginFailures(t *testing.T) {
	srv := newTestServer(t, "")

	rec, _ := srv.do(t, http.MethodPost, "/api/auth/register", "", registerBody("alice123", "alice@example.com"))
	expectStatus(t, rec, http.StatusCreated)

	rec, resp := srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com"})
	expectError(t, rec, resp, http.StatusBadRequest, "Email and password are required")

	rec, resp = srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "Secret1!",
	})
	expectError(t, rec, resp, http.StatusUnauthorized, "Invalid email or password")
	unknownKeys := len(resp)

	rec, resp = srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "Wrong1!xx",
	})
	expectError(t, rec, resp, http.StatusUnauthorized, "Invalid username or password")
	if len(resp) != unknownKeys {
		t.Fatalf("unknown email and wrong password must share the payload shape: %+v", resp)
	}
}

func TestAuthFlow_RegisterValidation(t *testing.T) {
	srv := newTestServer(t, "")

	tests := []struct {
		name   string
		mutate func(map[string]string)
		msg    string
	}{
		{"missing first name", func(b map[string]string) { delete(b, "first_name") }, "first_name is required"},
		{"bad role", func(b map[string]string) { b["role"] = "manager" }, "Role must be either admin or employee"},
		{"bad email", func(b map[string]string) { b["email"] = "not-an-email" }, "Invalid email format"},
		{"short password", func(b map[string]string) { b["password"] = "short1!" }, "Password must be at least 8 characters long"},
		{"no uppercase", func(b map[string]string) { b["password"] = "longenough1" }, "Password must contain at least one uppercase letter"},
		{"short username", func(b map[string]string) { b["username"] = "ab" }, "Username must be at least 3 characters long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := registerBody("carol123", "carol@example.com")
			tt.mutate(body)
			rec, resp := srv.do(t, http.MethodPost, "/api/auth/register", "", body)
			expectError(t, rec, resp, http.StatusBadRequest, tt.msg)
		})
	}
}
