package auth

import (
	"fmt"
	"os"

	"github.com/mind-insight/apiserver/types"

	"gopkg.in/yaml.v3"
)

// Credential is one entry of the externally supplied credential file.
// Passwords are stored only as bcrypt hashes; the plaintext never enters
// the process outside of a login attempt.
type Credential struct {
	Username     string     `yaml:"username"`
	PasswordHash string     `yaml:"password_hash"`
	Role         types.Role `yaml:"role"`
}

type credentialsFile struct {
	Users []Credential `yaml:"users"`
}

// CredentialStore is an immutable username -> credential snapshot, loaded
// once at startup. Lookups are case-sensitive exact matches.
type CredentialStore struct {
	users map[string]Credential
}

// LoadCredentials reads and validates the YAML credential file.
func LoadCredentials(path string) (*CredentialStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	return ParseCredentials(data)
}

// ParseCredentials builds a store from raw YAML. Every entry must carry a
// username, a password hash, and a role from the fixed catalog; duplicate
// usernames are rejected.
func ParseCredentials(data []byte) (*CredentialStore, error) {
	var file credentialsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	users := make(map[string]Credential, len(file.Users))
	for _, cred := range file.Users {
		if cred.Username == "" || cred.PasswordHash == "" {
			return nil, fmt.Errorf("credential entry missing username or password_hash")
		}
		if _, err := types.ParseRole(string(cred.Role)); err != nil {
			return nil, fmt.Errorf("credential %q: %w", cred.Username, err)
		}
		if _, exists := users[cred.Username]; exists {
			return nil, fmt.Errorf("duplicate credential %q", cred.Username)
		}
		users[cred.Username] = cred
	}

	return &CredentialStore{users: users}, nil
}

// Lookup returns the credential for an exact username match.
func (s *CredentialStore) Lookup(username string) (Credential, bool) {
	cred, ok := s.users[username]
	return cred, ok
}

// Len returns the number of loaded credentials.
func (s *CredentialStore) Len() int {
	return len(s.users)
}
