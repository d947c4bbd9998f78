package auth

import (
	"errors"

	"github.com/mind-insight/apiserver/types"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a
	// password mismatch; callers re-prompt the login form.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is returned when access is attempted without a
	// logged-in session.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when the session's role does not cover
	// the requested page; processing of that view stops.
	ErrForbidden = errors.New("forbidden")
)

// Gate validates credentials and authorizes role access. It holds only the
// immutable credential snapshot, so a single Gate serves all requests.
type Gate struct {
	store *CredentialStore
}

func NewGate(store *CredentialStore) *Gate {
	return &Gate{store: store}
}

// Authenticate verifies a username/password pair and returns the
// authenticated session. Authenticating while already logged in simply
// yields the new session; the caller overwrites the old one without an
// intervening logout.
func (g *Gate) Authenticate(username, password string) (types.Session, error) {
	cred, ok := g.store.Lookup(username)
	if !ok {
		return types.Anonymous(), ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return types.Anonymous(), ErrInvalidCredentials
	}
	return types.Session{
		Authenticated: true,
		Username:      cred.Username,
		Role:          cred.Role,
	}, nil
}

// Authorize checks that the session may access a view owned by the
// required role. Admin passes every check. Side-effect free.
func (g *Gate) Authorize(session types.Session, required types.Role) error {
	if !session.Authenticated {
		return ErrUnauthenticated
	}
	if session.Role != required && session.Role != types.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// Logout returns the unauthenticated default session. Logging out an
// already-anonymous session is a no-op.
func (g *Gate) Logout(types.Session) types.Session {
	return types.Anonymous()
}
