package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BootstrapUser is created automatically in a fresh database so there
// is always a way in. It is a global admin with no password until one
// is set.
const BootstrapUser = "aether"

type Role int

const (
	RoleReadonly Role = iota
	RoleUser
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleUser:
		return "user"
	case RoleReadonly:
		return "readonly"
	default:
		return "unknown"
	}
}

// ParseRole maps the textual role names used by the shell and the wire
// protocol back to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "admin":
		return RoleAdmin, nil
	case "user":
		return RoleUser, nil
	case "readonly":
		return RoleReadonly, nil
	default:
		return RoleReadonly, fmt.Errorf("unknown role %q (want admin, user or readonly)", s)
	}
}

// Permission is a per-table grant level. Levels are ordered: admin
// implies write, write implies read.
type Permission int

const (
	PermRead Permission = iota + 1
	PermWrite
	PermAdmin
)

func (p Permission) String() string {
	switch p {
	case PermRead:
		return "read"
	case PermWrite:
		return "write"
	case PermAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

func ParsePermission(s string) (Permission, error) {
	switch s {
	case "read":
		return PermRead, nil
	case "write":
		return PermWrite, nil
	case "admin":
		return PermAdmin, nil
	default:
		return 0, fmt.Errorf("unknown permission %q (want read, write or admin)", s)
	}
}

var (
	ErrNoSuchUser       = errors.New("no such user")
	ErrUserExists       = errors.New("user already exists")
	ErrBadCredentials   = errors.New("invalid username or password")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// PermissionDeniedError reports a denied table access. Table is empty
// for engine-level operations such as snapshot save and load.
type PermissionDeniedError struct {
	User  string
	Table string
	Level Permission
}

func (e *PermissionDeniedError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("permission denied for user %q", e.User)
	}
	return fmt.Sprintf("permission denied: user %q lacks %s on table %q", e.User, e.Level, e.Table)
}

// UserRecord is the durable form of a user, embedded in snapshots. The
// password hash is bcrypt; an empty hash means no password has been set
// and only the empty password authenticates.
type UserRecord struct {
	Name         string `json:"name" cbor:"n"`
	PasswordHash string `json:"password_hash" cbor:"h"`
	Role         Role   `json:"role" cbor:"r"`
}

// GrantRecord is the durable form of one per-table grant.
type GrantRecord struct {
	Table string     `json:"table" cbor:"t"`
	User  string     `json:"user" cbor:"u"`
	Level Permission `json:"level" cbor:"l"`
}

// Session is an authenticated identity. Sessions are handed out by
// Authenticate and carried through every engine call.
type Session struct {
	ID   string
	User string
}

// Manager holds users and per-table grants. Access decisions are
// default-deny: a user touches a table only through a global admin role
// or an explicit grant of sufficient level.
type Manager struct {
	mu     sync.RWMutex
	users  map[string]UserRecord
	grants map[string]map[string]Permission // table -> user -> level
}

func NewManager() *Manager {
	return &Manager{
		users:  make(map[string]UserRecord),
		grants: make(map[string]map[string]Permission),
	}
}

// Bootstrap ensures the default admin user exists. Called on every
// fresh database and after loading snapshots from older versions that
// predate access control.
func (m *Manager) Bootstrap() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[BootstrapUser]; !ok {
		m.users[BootstrapUser] = UserRecord{Name: BootstrapUser, Role: RoleAdmin}
	}
}

// HasDefaultPassword reports whether the bootstrap user still has no
// password set. Shells use it to warn on startup.
func (m *Manager) HasDefaultPassword() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[BootstrapUser]
	return ok && user.PasswordHash == ""
}

// Authenticate verifies a username and password and returns a fresh
// session. A user whose hash is empty matches only the empty password.
func (m *Manager) Authenticate(username, password string) (*Session, error) {
	m.mu.RLock()
	user, ok := m.users[username]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrBadCredentials
	}
	if user.PasswordHash == "" {
		if password != "" {
			return nil, ErrBadCredentials
		}
	} else if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}

	return &Session{ID: uuid.NewString(), User: username}, nil
}

// Resume builds a session for an already-verified identity, such as a
// validated token presented to the server.
func (m *Manager) Resume(username string) (*Session, error) {
	m.mu.RLock()
	_, ok := m.users[username]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNoSuchUser
	}
	return &Session{ID: uuid.NewString(), User: username}, nil
}

func (m *Manager) CreateUser(username, password string, role Role) error {
	hash := ""
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		hash = string(h)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return fmt.Errorf("user %q: %w", username, ErrUserExists)
	}
	m.users[username] = UserRecord{Name: username, PasswordHash: hash, Role: role}
	return nil
}

func (m *Manager) SetPassword(username, password string) error {
	hash := ""
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		hash = string(h)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[username]
	if !ok {
		return fmt.Errorf("user %q: %w", username, ErrNoSuchUser)
	}
	user.PasswordHash = hash
	m.users[username] = user
	return nil
}

func (m *Manager) SetRole(username string, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[username]
	if !ok {
		return fmt.Errorf("user %q: %w", username, ErrNoSuchUser)
	}
	user.Role = role
	m.users[username] = user
	return nil
}

// Role returns the role of a known user.
func (m *Manager) Role(username string) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[username]
	if !ok {
		return RoleReadonly, fmt.Errorf("user %q: %w", username, ErrNoSuchUser)
	}
	return user.Role, nil
}

// IsAdmin reports whether the user holds the global admin role.
func (m *Manager) IsAdmin(username string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[username]
	return ok && user.Role == RoleAdmin
}

// Grant records a per-table permission for a user. Granting overwrites
// any previous level for the same user and table.
func (m *Manager) Grant(table, username string, level Permission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; !ok {
		return fmt.Errorf("user %q: %w", username, ErrNoSuchUser)
	}
	if m.grants[table] == nil {
		m.grants[table] = make(map[string]Permission)
	}
	m.grants[table][username] = level
	return nil
}

// Revoke removes a user's grant on a table. Revoking a grant that does
// not exist is not an error.
func (m *Manager) Revoke(table, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; !ok {
		return fmt.Errorf("user %q: %w", username, ErrNoSuchUser)
	}
	if users, ok := m.grants[table]; ok {
		delete(users, username)
		if len(users) == 0 {
			delete(m.grants, table)
		}
	}
	return nil
}

// Check decides whether the session's user may act on a table at the
// requested level. Resolution order: a global admin role allows
// everything; otherwise an explicit grant of at least the requested
// level is required; otherwise the access is denied. A readonly role is
// a hard ceiling: grants above read do not lift it.
func (m *Manager) Check(session *Session, table string, level Permission) error {
	if session == nil {
		return ErrNotAuthenticated
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[session.User]
	if !ok {
		return fmt.Errorf("user %q: %w", session.User, ErrNoSuchUser)
	}
	if user.Role == RoleAdmin {
		return nil
	}
	if user.Role == RoleReadonly && level > PermRead {
		return &PermissionDeniedError{User: session.User, Table: table, Level: level}
	}

	if granted, ok := m.grants[table][session.User]; ok && granted >= level {
		return nil
	}
	return &PermissionDeniedError{User: session.User, Table: table, Level: level}
}

// RequireAdmin decides whether the session's user may perform an
// engine-level operation reserved for global admins.
func (m *Manager) RequireAdmin(session *Session) error {
	if session == nil {
		return ErrNotAuthenticated
	}
	if !m.IsAdmin(session.User) {
		return &PermissionDeniedError{User: session.User}
	}
	return nil
}

// MigrateGrants moves every grant from one table name to another,
// following a table rename. Grants on the new name are replaced.
func (m *Manager) MigrateGrants(oldTable, newTable string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if users, ok := m.grants[oldTable]; ok {
		delete(m.grants, oldTable)
		m.grants[newTable] = users
	}
}

// DropGrants removes every grant on a table, following a table drop.
func (m *Manager) DropGrants(table string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.grants, table)
}

// Users lists all user records, hashes included, for snapshotting.
func (m *Manager) Users() []UserRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]UserRecord, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	return users
}

// Grants lists all grant records for snapshotting.
func (m *Manager) Grants() []GrantRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var grants []GrantRecord
	for table, users := range m.grants {
		for user, level := range users {
			grants = append(grants, GrantRecord{Table: table, User: user, Level: level})
		}
	}
	return grants
}

// GrantsFor lists the grants held on one table.
func (m *Manager) GrantsFor(table string) []GrantRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var grants []GrantRecord
	for user, level := range m.grants[table] {
		grants = append(grants, GrantRecord{Table: table, User: user, Level: level})
	}
	return grants
}

// Restore replaces all users and grants from snapshot records, then
// re-ensures the bootstrap user exists.
func (m *Manager) Restore(users []UserRecord, grants []GrantRecord) {
	m.mu.Lock()
	m.users = make(map[string]UserRecord, len(users))
	for _, user := range users {
		m.users[user.Name] = user
	}
	m.grants = make(map[string]map[string]Permission)
	for _, grant := range grants {
		if m.grants[grant.Table] == nil {
			m.grants[grant.Table] = make(map[string]Permission)
		}
		m.grants[grant.Table][grant.User] = grant.Level
	}
	m.mu.Unlock()

	m.Bootstrap()
}
