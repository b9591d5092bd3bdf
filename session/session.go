package session

import (
	"context"

	"golang.org/x/oauth2"
)

// Fixed key names used by every backend to persist the token pair.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// Session is the client's credential pair. An empty string means the token is absent.
// Nominally both are present or both absent, but a store may briefly hold only one
// of them (for example while a refresh is replacing the access token).
type Session struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

func (s Session) HasAccessToken() bool {
	return s.AccessToken != ""
}

func (s Session) HasRefreshToken() bool {
	return s.RefreshToken != ""
}

// IsEmpty reports whether neither token is present.
func (s Session) IsEmpty() bool {
	return !s.HasAccessToken() && !s.HasRefreshToken()
}

// Token returns the access token as a bearer oauth2.Token, or nil when absent.
func (s Session) Token() *oauth2.Token {
	if !s.HasAccessToken() {
		return nil
	}
	return &oauth2.Token{AccessToken: s.AccessToken, TokenType: "Bearer", RefreshToken: s.RefreshToken}
}

// Store owns the persisted session. Every read of the token pair goes through it;
// no other component keeps a copy across calls.
//
// Stores never return errors. Backend failures are logged and a failed read
// yields an empty Session.
type Store interface {
	// Get returns the current token pair (either field may be empty)
	Get(ctx context.Context) Session

	// Set overwrites both tokens
	Set(ctx context.Context, accessToken, refreshToken string)

	// SetAccessToken replaces the access token and leaves the refresh token untouched
	SetAccessToken(ctx context.Context, accessToken string)

	// Clear removes both tokens
	Clear(ctx context.Context)
}
