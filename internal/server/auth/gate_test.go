package auth

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestGate(t *testing.T, c *clock) *Gate {
	t.Helper()
	g, err := NewGate(Options{
		Password:   "correct horse",
		SigningKey: "signing-secret",
		Lifetime:   90 * 24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
		Now:        c.now,
	})
	if err != nil {
		t.Fatalf("failed to create gate: %v", err)
	}
	return g
}

func mustLogin(t *testing.T, g *Gate, password string) *http.Cookie {
	t.Helper()
	cookie, err := g.CheckPassword(password)
	if err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
	return cookie
}

func TestGate_CheckPassword(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	g := newTestGate(t, c)

	t.Run("wrong password", func(t *testing.T) {
		cookie, err := g.CheckPassword("incorrect")
		if !errors.Is(err, ErrInvalidPassword) {
			t.Errorf("expected ErrInvalidPassword, got %v", err)
		}
		if cookie != nil {
			t.Error("expected no cookie for a wrong password")
		}
	})

	t.Run("empty password", func(t *testing.T) {
		if _, err := g.CheckPassword(""); !errors.Is(err, ErrInvalidPassword) {
			t.Errorf("expected ErrInvalidPassword, got %v", err)
		}
	})

	t.Run("correct password issues cookie", func(t *testing.T) {
		cookie := mustLogin(t, g, "correct horse")

		if cookie.Name != CookieName {
			t.Errorf("expected cookie name %s, got %s", CookieName, cookie.Name)
		}
		if !cookie.HttpOnly {
			t.Error("expected HttpOnly cookie")
		}
		if cookie.SameSite != http.SameSiteLaxMode {
			t.Errorf("expected SameSite=Lax, got %v", cookie.SameSite)
		}
		if cookie.Path != "/" {
			t.Errorf("expected path /, got %s", cookie.Path)
		}
		if want := c.t.Add(90 * 24 * time.Hour); !cookie.Expires.Equal(want) {
			t.Errorf("expected expiry %v, got %v", want, cookie.Expires)
		}
		if cookie.MaxAge != 90*24*60*60 {
			t.Errorf("expected MaxAge %d, got %d", 90*24*60*60, cookie.MaxAge)
		}
		if !g.IsAuthenticated(cookie.Value) {
			t.Error("issued cookie should verify")
		}
	})
}

func TestGate_LongPassword(t *testing.T) {
	password := strings.Repeat("k", 80)
	g, err := NewGate(Options{
		Password:   password,
		Lifetime:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("expected 80-byte password to be accepted, got %v", err)
	}

	mustLogin(t, g, password)

	// Differs only past bcrypt's 72-byte window.
	if _, err := g.CheckPassword(strings.Repeat("k", 79) + "j"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword for a different tail, got %v", err)
	}
	if _, err := g.CheckPassword(strings.Repeat("k", 72)); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword for a truncated password, got %v", err)
	}
}

func TestGate_Expiry(t *testing.T) {
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := &clock{t: issued}
	g := newTestGate(t, c)

	cookie := mustLogin(t, g, "correct horse")

	tests := []struct {
		name  string
		after time.Duration
		valid bool
	}{
		{"after 89 days", 89 * 24 * time.Hour, true},
		{"at expiry", 90 * 24 * time.Hour, false},
		{"after 91 days", 91 * 24 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.t = issued.Add(tt.after)
			if got := g.IsAuthenticated(cookie.Value); got != tt.valid {
				t.Errorf("IsAuthenticated = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestGate_Verify(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	g := newTestGate(t, c)

	cookie := mustLogin(t, g, "correct horse")

	t.Run("returns session details", func(t *testing.T) {
		s, err := g.Verify(cookie.Value)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !s.Authenticated {
			t.Error("expected authenticated session")
		}
		if s.IssuedAt.Unix() != c.t.Unix() {
			t.Errorf("expected issued at %d, got %d", c.t.Unix(), s.IssuedAt.Unix())
		}
	})

	t.Run("rejects tampered values", func(t *testing.T) {
		payload, sig, _ := strings.Cut(cookie.Value, ".")

		tampered := []string{
			"",
			"garbage",
			payload,
			payload + ".",
			"." + sig,
			payload + "." + strings.Repeat("A", len(sig)),
			"djF8MHw5OTk5OTk5OTk5." + sig,
			payload + "!" + "." + sig,
		}
		for _, v := range tampered {
			if g.IsAuthenticated(v) {
				t.Errorf("value %q should be rejected", v)
			}
		}
	})

	t.Run("rejects cookies signed with another key", func(t *testing.T) {
		other, err := NewGate(Options{
			Password:   "correct horse",
			SigningKey: "different-secret",
			Lifetime:   90 * 24 * time.Hour,
			BcryptCost: bcrypt.MinCost,
			Now:        c.now,
		})
		if err != nil {
			t.Fatalf("failed to create gate: %v", err)
		}

		foreign := mustLogin(t, other, "correct horse")
		if g.IsAuthenticated(foreign.Value) {
			t.Error("cookie from another key should be rejected")
		}
	})
}

func TestGate_ClearCookie(t *testing.T) {
	g := newTestGate(t, &clock{t: time.Now()})
	cookie := g.ClearCookie()

	if cookie.Name != CookieName {
		t.Errorf("expected cookie name %s, got %s", CookieName, cookie.Name)
	}
	if cookie.MaxAge != -1 {
		t.Errorf("expected MaxAge -1, got %d", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Errorf("expected empty value, got %q", cookie.Value)
	}
}

func TestNewGate_Validation(t *testing.T) {
	if _, err := NewGate(Options{Lifetime: time.Hour}); err == nil {
		t.Error("expected error without a password")
	}
	if _, err := NewGate(Options{Password: "x"}); err == nil {
		t.Error("expected error without a lifetime")
	}
}
