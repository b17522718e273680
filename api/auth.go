package api

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

// DefaultJWKSCacheTTL is how long a resolved signing key is reused per kid.
const DefaultJWKSCacheTTL = 15 * time.Minute

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
)

// Auth validates incoming JWT bearer tokens, either RS256 against a JWKS or
// HS256 against a shared secret.
type Auth struct {
	JWKS     *keyfunc.JWKS
	Audience string
	Issuer   string
	Secret   []byte

	parser      *jwt.Parser
	keyCache    sync.Map
	keyCacheTTL time.Duration
}

type cachedKey struct {
	key       any
	expiresAt time.Time
}

// NewAuth validates RS256 tokens with keys from jwks.
func NewAuth(jwks *keyfunc.JWKS, audience, issuer string, keyCacheTTL time.Duration) *Auth {
	return &Auth{
		JWKS:        jwks,
		Audience:    audience,
		Issuer:      issuer,
		parser:      jwt.NewParser(jwt.WithValidMethods([]string{"RS256"})),
		keyCacheTTL: keyCacheTTL,
	}
}

// NewSharedSecretAuth validates HS256 tokens signed with secret. Meant for
// local development and tests.
func NewSharedSecretAuth(secret []byte, audience, issuer string) *Auth {
	return &Auth{
		Audience: audience,
		Issuer:   issuer,
		Secret:   secret,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// UserIDFromAuthHeader extracts the user identifier from the Authorization header.
func (a *Auth) UserIDFromAuthHeader(h string) (string, error) {
	token, err := bearerToken(h)
	if err != nil {
		return "", err
	}
	return a.UserIDFromBearer(token)
}

// UserIDFromBearer validates a raw token and returns its subject.
func (a *Auth) UserIDFromBearer(token string) (string, error) {
	if token == "" {
		return "", errBadAuthorization
	}

	parsed, err := a.parser.Parse(token, func(t *jwt.Token) (any, error) {
		if a.Secret != nil {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return a.Secret, nil
		}
		return a.keyForToken(t)
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	now := time.Now().Add(time.Minute).Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return "", errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now, false) {
		return "", errors.New("token not valid yet")
	}
	if !claims.VerifyIssuedAt(now, false) {
		return "", errors.New("token used before issued")
	}
	if a.Audience != "" && !claims.VerifyAudience(a.Audience, true) {
		return "", errors.New("invalid audience")
	}
	if a.Issuer != "" && !claims.VerifyIssuer(a.Issuer, true) {
		return "", errors.New("invalid issuer")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}

func (a *Auth) keyForToken(token *jwt.Token) (any, error) {
	if a.JWKS == nil {
		return nil, errors.New("jwks not configured")
	}

	kid, _ := token.Header["kid"].(string)
	if kid != "" && a.keyCacheTTL > 0 {
		if cached, ok := a.keyCache.Load(kid); ok {
			entry := cached.(cachedKey)
			if time.Now().Before(entry.expiresAt) {
				return entry.key, nil
			}
			a.keyCache.Delete(kid)
		}
	}

	key, err := a.JWKS.Keyfunc(token)
	if err != nil {
		return nil, err
	}
	if kid != "" && a.keyCacheTTL > 0 {
		a.keyCache.Store(kid, cachedKey{key: key, expiresAt: time.Now().Add(a.keyCacheTTL)})
	}
	return key, nil
}

// SignSharedSecretToken mints an HS256 token for userID that
// NewSharedSecretAuth with the same secret and audience accepts.
func SignSharedSecretToken(secret []byte, userID, audience string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty secret")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if audience != "" {
		claims["aud"] = audience
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// bearerToken returns the compact JWS from a "Bearer <token>" header value.
func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingAuthorization
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return strings.TrimSpace(token), nil
}
