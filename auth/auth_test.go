package auth

import (
	"errors"
	"testing"
)

func bootstrapped() *Manager {
	m := NewManager()
	m.Bootstrap()
	return m
}

func TestBootstrapUser(t *testing.T) {
	m := bootstrapped()

	if !m.HasDefaultPassword() {
		t.Error("Expected bootstrap user to have no password")
	}

	session, err := m.Authenticate(BootstrapUser, "")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if session.User != BootstrapUser {
		t.Errorf("Session user = %q, expected %q", session.User, BootstrapUser)
	}
	if session.ID == "" {
		t.Error("Expected a non-empty session id")
	}

	// Empty hash matches only the empty password
	if _, err := m.Authenticate(BootstrapUser, "guess"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("Expected ErrBadCredentials, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	m := bootstrapped()
	if err := m.CreateUser("ada", "s3cret", RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if _, err := m.Authenticate("ada", "s3cret"); err != nil {
		t.Errorf("Authenticate failed: %v", err)
	}
	if _, err := m.Authenticate("ada", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("Expected ErrBadCredentials, got %v", err)
	}
	if _, err := m.Authenticate("ada", ""); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("Expected ErrBadCredentials for empty password, got %v", err)
	}
	if _, err := m.Authenticate("nobody", "s3cret"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("Expected ErrBadCredentials for unknown user, got %v", err)
	}
}

func TestSetPassword(t *testing.T) {
	m := bootstrapped()

	if err := m.SetPassword(BootstrapUser, "letmein"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if m.HasDefaultPassword() {
		t.Error("Expected default-password flag to clear")
	}
	if _, err := m.Authenticate(BootstrapUser, ""); !errors.Is(err, ErrBadCredentials) {
		t.Error("Empty password should no longer authenticate")
	}
	if _, err := m.Authenticate(BootstrapUser, "letmein"); err != nil {
		t.Errorf("Authenticate failed: %v", err)
	}

	if err := m.SetPassword("nobody", "x"); !errors.Is(err, ErrNoSuchUser) {
		t.Errorf("Expected ErrNoSuchUser, got %v", err)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	m := bootstrapped()
	if err := m.CreateUser("ada", "", RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := m.CreateUser("ada", "", RoleUser); !errors.Is(err, ErrUserExists) {
		t.Errorf("Expected ErrUserExists, got %v", err)
	}
}

func TestCheckDefaultDeny(t *testing.T) {
	m := bootstrapped()
	if err := m.CreateUser("ada", "", RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	session := &Session{ID: "s", User: "ada"}
	err := m.Check(session, "users", PermRead)
	var denied *PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("Expected *PermissionDeniedError, got %v", err)
	}
	if denied.Table != "users" || denied.Level != PermRead {
		t.Errorf("Unexpected denial detail: %+v", denied)
	}
}

func TestCheckGrantLevels(t *testing.T) {
	m := bootstrapped()
	if err := m.CreateUser("ada", "", RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := m.Grant("users", "ada", PermWrite); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	session := &Session{ID: "s", User: "ada"}

	// write implies read
	if err := m.Check(session, "users", PermRead); err != nil {
		t.Errorf("Expected read allowed via write grant: %v", err)
	}
	if err := m.Check(session, "users", PermWrite); err != nil {
		t.Errorf("Expected write allowed: %v", err)
	}
	if err := m.Check(session, "users", PermAdmin); err == nil {
		t.Error("Expected admin denied with only a write grant")
	}

	// grants are per-table
	if err := m.Check(session, "orders", PermRead); err == nil {
		t.Error("Expected denial on an ungranted table")
	}
}

func TestCheckAdminRole(t *testing.T) {
	m := bootstrapped()
	session := &Session{ID: "s", User: BootstrapUser}
	if err := m.Check(session, "anything", PermAdmin); err != nil {
		t.Errorf("Expected global admin to pass every check: %v", err)
	}
	if err := m.RequireAdmin(session); err != nil {
		t.Errorf("RequireAdmin failed: %v", err)
	}
}

func TestCheckReadonlyCeiling(t *testing.T) {
	m := bootstrapped()
	if err := m.CreateUser("viewer", "", RoleReadonly); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	// A grant above read does not lift the readonly ceiling
	if err := m.Grant("users", "viewer", PermAdmin); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	session := &Session{ID: "s", User: "viewer"}
	if err := m.Check(session, "users", PermRead); err != nil {
		t.Errorf("Expected read allowed: %v", err)
	}
	if err := m.Check(session, "users", PermWrite); err == nil {
		t.Error("Expected write denied for readonly role")
	}
	if err := m.Check(session, "users", PermAdmin); err == nil {
		t.Error("Expected admin denied for readonly role")
	}
}

func TestCheckNilSession(t *testing.T) {
	m := bootstrapped()
	if err := m.Check(nil, "users", PermRead); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Expected ErrNotAuthenticated, got %v", err)
	}
	if err := m.RequireAdmin(nil); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Expected ErrNotAuthenticated, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	m := bootstrapped()
	if err := m.CreateUser("ada", "", RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := m.Grant("users", "ada", PermRead); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	if err := m.Revoke("users", "ada"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	session := &Session{ID: "s", User: "ada"}
	if err := m.Check(session, "users", PermRead); err == nil {
		t.Error("Expected denial after revoke")
	}

	// Revoking a grant that does not exist is fine
	if err := m.Revoke("users", "ada"); err != nil {
		t.Errorf("Revoke of absent grant failed: %v", err)
	}
}

func TestMigrateGrants(t *testing.T) {
	m := bootstrapped()
	if err := m.CreateUser("ada", "", RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := m.Grant("users", "ada", PermWrite); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	m.MigrateGrants("users", "people")

	session := &Session{ID: "s", User: "ada"}
	if err := m.Check(session, "people", PermWrite); err != nil {
		t.Errorf("Expected grant to follow rename: %v", err)
	}
	if err := m.Check(session, "users", PermRead); err == nil {
		t.Error("Expected no grant left on old name")
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	m := bootstrapped()
	if err := m.CreateUser("ada", "pw", RoleUser); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := m.Grant("users", "ada", PermRead); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	restored := NewManager()
	restored.Restore(m.Users(), m.Grants())

	if _, err := restored.Authenticate("ada", "pw"); err != nil {
		t.Errorf("Authenticate after restore failed: %v", err)
	}
	session := &Session{ID: "s", User: "ada"}
	if err := restored.Check(session, "users", PermRead); err != nil {
		t.Errorf("Expected grant to survive restore: %v", err)
	}
	// Restore re-ensures the bootstrap user
	if _, err := restored.Authenticate(BootstrapUser, ""); err != nil {
		t.Errorf("Bootstrap user missing after restore: %v", err)
	}
}

func TestParseRoleAndPermission(t *testing.T) {
	if r, err := ParseRole("admin"); err != nil || r != RoleAdmin {
		t.Errorf("ParseRole(admin) = %v, %v", r, err)
	}
	if _, err := ParseRole("root"); err == nil {
		t.Error("Expected error for unknown role")
	}
	if p, err := ParsePermission("write"); err != nil || p != PermWrite {
		t.Errorf("ParsePermission(write) = %v, %v", p, err)
	}
	if _, err := ParsePermission("all"); err == nil {
		t.Error("Expected error for unknown permission")
	}
}
