package auth

// State is where the client sits in the session lifecycle
type State int

const (
	// Anonymous: no tokens stored
	Anonymous State = iota
	// Authenticated: an access token is stored and not known to be expired
	Authenticated
	// AccessExpired: the stored access token is past its exp claim, or only a
	// refresh token remains. The next request refreshes it.
	AccessExpired
	// Unauthenticated: a refresh failed or was impossible and the session was
	// cleared. Lasts until the next login, signup or logout.
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case AccessExpired:
		return "access expired"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}
