// Package auth implements the single-password gate in front of the
// compressor. Sessions are stateless: everything lives in a signed cookie.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/hkdf"
)

// CookieName is the name of the session cookie.
const CookieName = "pdfpress_session"

const sessionVersion = "v1"

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidSession  = errors.New("invalid or expired session")
)

// Session is the content of a verified cookie.
type Session struct {
	Authenticated bool
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// Options configures a Gate.
type Options struct {
	Password     string
	SigningKey   string
	Lifetime     time.Duration
	SecureCookie bool
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	// Now defaults to time.Now.
	Now func() time.Time
}

// Gate checks the shared password and issues/verifies session cookies.
type Gate struct {
	passwordHash []byte
	key          []byte
	pepper       []byte
	lifetime     time.Duration
	secure       bool
	now          func() time.Time
}

// NewGate hashes the configured password once and derives the cookie key.
func NewGate(opts Options) (*Gate, error) {
	if opts.Password == "" {
		return nil, errors.New("password must not be empty")
	}
	if opts.Lifetime <= 0 {
		return nil, errors.New("session lifetime must be positive")
	}

	secret := opts.SigningKey
	if secret == "" {
		secret = opts.Password
	}
	key, err := deriveKey(secret, "pdfpress session cookie")
	if err != nil {
		return nil, err
	}
	pepper, err := deriveKey(secret, "pdfpress password digest")
	if err != nil {
		return nil, err
	}

	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword(digestPassword(pepper, opts.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Gate{
		passwordHash: hash,
		key:          key,
		pepper:       pepper,
		lifetime:     opts.Lifetime,
		secure:       opts.SecureCookie,
		now:          now,
	}, nil
}

// CheckPassword compares candidate against the configured password and, on
// success, returns a signed session cookie.
func (g *Gate) CheckPassword(candidate string) (*http.Cookie, error) {
	if err := bcrypt.CompareHashAndPassword(g.passwordHash, digestPassword(g.pepper, candidate)); err != nil {
		return nil, ErrInvalidPassword
	}

	issued := g.now()
	expires := issued.Add(g.lifetime)

	return &http.Cookie{
		Name:     CookieName,
		Value:    g.sign(issued, expires),
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(g.lifetime / time.Second),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ClearCookie returns a cookie that removes the session from the browser.
func (g *Gate) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// IsAuthenticated reports whether value is a valid, unexpired session.
func (g *Gate) IsAuthenticated(value string) bool {
	_, err := g.Verify(value)
	return err == nil
}

// Verify checks the signature and expiry of a cookie value.
func (g *Gate) Verify(value string) (*Session, error) {
	payloadPart, sigPart, ok := strings.Cut(value, ".")
	if !ok {
		return nil, ErrInvalidSession
	}

	payload, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return nil, ErrInvalidSession
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return nil, ErrInvalidSession
	}
	if !hmac.Equal(sig, g.mac(payload)) {
		return nil, ErrInvalidSession
	}

	fields := strings.Split(string(payload), "|")
	if len(fields) != 3 || fields[0] != sessionVersion {
		return nil, ErrInvalidSession
	}
	issuedUnix, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, ErrInvalidSession
	}
	expiresUnix, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, ErrInvalidSession
	}

	expires := time.Unix(expiresUnix, 0)
	if !g.now().Before(expires) {
		return nil, ErrInvalidSession
	}

	return &Session{
		Authenticated: true,
		IssuedAt:      time.Unix(issuedUnix, 0),
		ExpiresAt:     expires,
	}, nil
}

func (g *Gate) sign(issued, expires time.Time) string {
	payload := []byte(fmt.Sprintf("%s|%d|%d", sessionVersion, issued.Unix(), expires.Unix()))
	return base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString(g.mac(payload))
}

func (g *Gate) mac(payload []byte) []byte {
	h := hmac.New(sha256.New, g.key)
	h.Write(payload)
	return h.Sum(nil)
}

// deriveKey expands secret into a 32-byte key bound to info.
func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// digestPassword maps a password of any length to bcrypt's 72-byte input limit.
func digestPassword(pepper []byte, password string) []byte {
	h := hmac.New(sha256.New, pepper)
	h.Write([]byte(password))
	return []byte(base64.RawStdEncoding.EncodeToString(h.Sum(nil)))
}
