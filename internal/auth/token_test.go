package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/mind-insight/apiserver/types"
)

var tokenSecret = []byte("test-secret")

func TestTokenRoundTrip(t *testing.T) {
	session := types.Session{Authenticated: true, Username: "faculty1", Role: types.RoleFaculty}

	token, err := IssueToken(session, tokenSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parsed, err := ParseToken(token, tokenSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != session {
		t.Fatalf("round trip changed session: %+v", parsed)
	}
}

func TestIssueTokenRequiresAuthentication(t *testing.T) {
	if _, err := IssueToken(types.Anonymous(), tokenSecret, time.Hour); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	session := types.Session{Authenticated: true, Username: "admin1", Role: types.RoleAdmin}
	token, err := IssueToken(session, tokenSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parsed, err := ParseToken(token, []byte("other-secret"))
	if err == nil {
		t.Fatal("expected signature error")
	}
	if parsed.Authenticated {
		t.Fatal("invalid token must yield anonymous session")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	session := types.Session{Authenticated: true, Username: "admin1", Role: types.RoleAdmin}
	token, err := IssueToken(session, tokenSecret, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := ParseToken(token, tokenSecret); err == nil {
		t.Fatal("expected expiry error")
	}
}
