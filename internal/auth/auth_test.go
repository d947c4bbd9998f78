package auth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mind-insight/apiserver/types"

	"golang.org/x/crypto/bcrypt"
)

func testStore(t *testing.T) *CredentialStore {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secretpass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	data := fmt.Sprintf(`users:
  - username: admin1
    password_hash: %q
    role: Admin
  - username: student1
    password_hash: %q
    role: Student
`, hash, hash)

	store, err := ParseCredentials([]byte(data))
	if err != nil {
		t.Fatalf("parse credentials: %v", err)
	}
	return store
}

func TestAuthenticate(t *testing.T) {
	gate := NewGate(testStore(t))

	session, err := gate.Authenticate("admin1", "secretpass")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !session.Authenticated {
		t.Fatal("session not authenticated")
	}
	if session.Username != "admin1" || session.Role != types.RoleAdmin {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	gate := NewGate(testStore(t))

	session, err := gate.Authenticate("admin1", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if session.Authenticated {
		t.Fatal("failed login must not authenticate")
	}
}

func TestAuthenticateUnknownUser(t *testing.T) {
	gate := NewGate(testStore(t))

	if _, err := gate.Authenticate("nobody", "secretpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateOverwritesExistingSession(t *testing.T) {
	gate := NewGate(testStore(t))

	first, err := gate.Authenticate("admin1", "secretpass")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := gate.Authenticate("student1", "secretpass")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first.Username == second.Username {
		t.Fatal("expected distinct sessions")
	}
	if second.Role != types.RoleStudent {
		t.Fatalf("second login role = %s", second.Role)
	}
}

func TestAuthorizeMatrix(t *testing.T) {
	gate := NewGate(testStore(t))

	for _, sessionRole := range types.Roles {
		for _, required := range types.Roles {
			session := types.Session{Authenticated: true, Username: "u", Role: sessionRole}
			err := gate.Authorize(session, required)

			allowed := sessionRole == required || sessionRole == types.RoleAdmin
			if allowed && err != nil {
				t.Errorf("role %s on %s view: unexpected %v", sessionRole, required, err)
			}
			if !allowed && !errors.Is(err, ErrForbidden) {
				t.Errorf("role %s on %s view: expected ErrForbidden, got %v", sessionRole, required, err)
			}
		}
	}
}

func TestAuthorizeUnauthenticated(t *testing.T) {
	gate := NewGate(testStore(t))

	for _, required := range types.Roles {
		if err := gate.Authorize(types.Anonymous(), required); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("anonymous on %s view: expected ErrUnauthenticated, got %v", required, err)
		}
	}
}

func TestLogoutIdempotent(t *testing.T) {
	gate := NewGate(testStore(t))

	session, err := gate.Authenticate("admin1", "secretpass")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	cleared := gate.Logout(session)
	if cleared.Authenticated || cleared.Username != "" || cleared.Role != "" {
		t.Fatalf("logout left state behind: %+v", cleared)
	}

	again := gate.Logout(cleared)
	if again != cleared {
		t.Fatalf("second logout changed session: %+v", again)
	}
}
