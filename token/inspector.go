package token

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-storefront-client/internal/errors"
)

// ErrMalformedToken is returned by Decode for tokens whose payload cannot be read.
var ErrMalformedToken = apperrors.ErrMalformedToken

// Identity is the display-only view of an access token's payload.
// None of it has been verified: the signature is never checked on the client,
// so it must not be used for authorization decisions.
type Identity struct {
	Subject   string    // "sub" claim, numeric subjects are rendered in base 10
	Role      string    // "role" claim if present
	ExpiresAt time.Time // "exp" claim, zero if absent
}

// Expired reports whether the token carries an exp claim that lies before now.
func (i *Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Decode reads the middle segment of a JWT without verifying it. The header
// and signature segments are not inspected.
func Decode(accessToken string) (*Identity, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}
	segments := strings.Split(accessToken, ".")
	if len(segments) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments", ErrMalformedToken)
	}

	payload, err := jwtlib.NewParser().DecodeSegment(segments[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	claims := jwtlib.MapClaims{}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	identity := &Identity{
		Subject: claimString(claims["sub"]),
	}
	identity.Role, _ = claims["role"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		identity.ExpiresAt = exp.Time
	}
	return identity, nil
}

// DecodeSubject returns the "sub" claim of accessToken. It fails soft: a missing
// or malformed token, or one without a subject, yields ("", false).
func DecodeSubject(accessToken string) (string, bool) {
	identity, err := Decode(accessToken)
	if err != nil || identity.Subject == "" {
		return "", false
	}
	return identity.Subject, true
}

// IsOwner reports whether the token's subject matches ownerID. It decides
// whether to show owner-only controls such as a delete button; the backend
// still enforces ownership on its own.
func IsOwner(accessToken string, ownerID int64) bool {
	subject, ok := DecodeSubject(accessToken)
	if !ok {
		return false
	}
	return subject == strconv.FormatInt(ownerID, 10)
}

func claimString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}
