package types

// Session is the per-request authentication state. It is a plain value
// passed through the call chain; nothing stores it globally, so concurrent
// requests stay isolated from each other.
type Session struct {
	// Authenticated reports whether a login succeeded for this session.
	Authenticated bool `json:"authenticated"`

	// Username is the login name, empty when unauthenticated.
	Username string `json:"username,omitempty"`

	// Role is the authorization level granted at login.
	Role Role `json:"role,omitempty"`
}

// Anonymous returns the unauthenticated default session.
func Anonymous() Session {
	return Session{}
}
