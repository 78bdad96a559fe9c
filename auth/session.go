package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/user/todoapp-go/apperror"
	"github.com/user/todoapp-go/config"
)

// Cookie and header names shared with the frontend client.
const (
	// SessionCookieName is the HttpOnly cookie carrying the signed session token.
	SessionCookieName = "jwt"
	// CSRFCookieName is the script-readable cookie carrying the CSRF token.
	CSRFCookieName = "csrfToken"
	// CSRFHeaderName is the request header the client must echo the CSRF
	// cookie value into on state-changing requests.
	CSRFHeaderName = "X-CSRF-Token"
)

// SessionClaims is the payload of a session token. Validity is purely a
// function of the signature and the exp claim; nothing is stored server-side,
// so a session cannot be revoked before it expires.
type SessionClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates session cookies and enforces the CSRF
// double-submit check. It holds the only secrets in the process and is
// read-only after construction.
type SessionManager struct {
	cfg config.AuthConfig
	now func() time.Time
}

// NewSessionManager creates a SessionManager from the auth configuration.
func NewSessionManager(cfg config.AuthConfig) *SessionManager {
	return &SessionManager{cfg: cfg, now: time.Now}
}

// WithClock returns a copy of the manager using the given time source.
// Tests use this to pin issuance and validation to a fixed instant.
func (m *SessionManager) WithClock(now func() time.Time) *SessionManager {
	return &SessionManager{cfg: m.cfg, now: now}
}

// TTL returns the configured session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.cfg.SessionTTL
}

// IssueSession mints a signed session token and a fresh CSRF token for the
// user and sets both cookies on the response. Called on register and login;
// each call replaces any previous pair.
func (m *SessionManager) IssueSession(w http.ResponseWriter, userID string) error {
	issuedAt := m.now()
	expiresAt := issuedAt.Add(m.cfg.SessionTTL)

	claims := &SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.cfg.JWTSecret))
	if err != nil {
		return apperror.NewInternalError("failed to sign session token", err)
	}

	csrfValue, err := m.newCSRFValue()
	if err != nil {
		return apperror.NewInternalError("failed to generate CSRF token", err)
	}

	m.setCookie(w, SessionCookieName, token, true)
	m.setCookie(w, CSRFCookieName, csrfValue, false)
	return nil
}

// ResolveUserID answers "who is the caller" from the request's session
// cookie. A missing cookie, a bad signature, a malformed token or a token
// past its exp claim all fail with an AuthError (401). The user id is never
// read from any other part of the request.
func (m *SessionManager) ResolveUserID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", apperror.NewAuthError("authentication required", nil)
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", apperror.NewAuthError("authentication required", err)
	}
	if !token.Valid {
		return "", apperror.NewAuthError("authentication required", errors.New("token is invalid"))
	}

	// jwt.ParseWithClaims already rejects an expired exp claim, but the
	// expiry is the only thing standing in for revocation here, so keep the
	// explicit check.
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(m.now()) {
		return "", apperror.NewAuthError("authentication required", errors.New("session expired"))
	}
	if claims.UserID == "" {
		return "", apperror.NewAuthError("authentication required", errors.New("userId claim missing"))
	}
	return claims.UserID, nil
}

// CheckCSRF enforces the double-submit pattern on state-changing requests:
// the CSRF cookie value and the request header must both be present and
// identical under constant-time comparison, and the cookie's HMAC must
// verify. The check is deliberately independent of the session token.
func (m *SessionManager) CheckCSRF(r *http.Request) error {
	headerValue := strings.TrimSpace(r.Header.Get(CSRFHeaderName))
	cookie, err := r.Cookie(CSRFCookieName)
	if headerValue == "" || err != nil || cookie.Value == "" {
		return apperror.NewForbiddenError("invalid CSRF token", nil)
	}
	if !m.verifyCSRFValue(cookie.Value) {
		return apperror.NewForbiddenError("invalid CSRF token", nil)
	}
	if len(headerValue) != len(cookie.Value) ||
		subtle.ConstantTimeCompare([]byte(headerValue), []byte(cookie.Value)) != 1 {
		return apperror.NewForbiddenError("invalid CSRF token", nil)
	}
	return nil
}

// ClearSession expires both cookies. Safe to call repeatedly; logout is
// idempotent.
func (m *SessionManager) ClearSession(w http.ResponseWriter) {
	m.expireCookie(w, SessionCookieName, true)
	m.expireCookie(w, CSRFCookieName, false)
}

func (m *SessionManager) setCookie(w http.ResponseWriter, name, value string, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.cfg.SessionTTL.Seconds()),
		HttpOnly: httpOnly,
		Secure:   m.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// expireCookie uses MaxAge=-1 plus an Expires in the past to ensure deletion
// across clients.
func (m *SessionManager) expireCookie(w http.ResponseWriter, name string, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: httpOnly,
		Secure:   m.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// newCSRFValue produces "token.signature": 32 random bytes hex-encoded,
// followed by a base64url HMAC-SHA256 over the token keyed with the cookie
// secret. The client echoes the whole value back in the header, so the
// double-submit equality check is unaffected by the signature, while the
// signature stops cookie values fabricated outside this server (e.g. planted
// from a sibling subdomain) from passing the guard.
func (m *SessionManager) newCSRFValue() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b[:])
	return token + "." + m.signCSRFToken(token), nil
}

func (m *SessionManager) signCSRFToken(token string) string {
	mac := hmac.New(sha256.New, []byte(m.cfg.CookieSecret))
	mac.Write([]byte(token))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *SessionManager) verifyCSRFValue(value string) bool {
	i := strings.LastIndex(value, ".")
	if i <= 0 {
		return false
	}
	token, sig := value[:i], value[i+1:]
	return hmac.Equal([]byte(sig), []byte(m.signCSRFToken(token)))
}
