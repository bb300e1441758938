package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer("test-signing-secret", 30*time.Minute, 7*24*time.Hour)
}

func TestTokenIssuer_AccessRoundTrip(t *testing.T) {
	issuer := newTestIssuer()

	token, err := issuer.IssueAccessToken("user-123", "alice")
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	claims, err := issuer.Verify(token, TokenTypeAccess)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if claims.Subject != "user-123" {
		t.Errorf("subject = %q, want %q", claims.Subject, "user-123")
	}
	if claims.Username != "alice" {
		t.Errorf("username = %q, want %q", claims.Username, "alice")
	}
	if claims.TokenType != TokenTypeAccess {
		t.Errorf("token type = %q, want %q", claims.TokenType, TokenTypeAccess)
	}
}

func TestTokenIssuer_RefreshRoundTrip(t *testing.T) {
	issuer := newTestIssuer()

	token, err := issuer.IssueRefreshToken("user-123")
	if err != nil {
		t.Fatalf("IssueRefreshToken failed: %v", err)
	}

	claims, err := issuer.Verify(token, TokenTypeRefresh)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("subject = %q, want %q", claims.Subject, "user-123")
	}
}

func TestTokenIssuer_WrongType(t *testing.T) {
	issuer := newTestIssuer()

	access, err := issuer.IssueAccessToken("user-123", "alice")
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	if _, err := issuer.Verify(access, TokenTypeRefresh); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("expected ErrWrongTokenType for access token used as refresh, got %v", err)
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	token, err := newTestIssuer().IssueAccessToken("user-123", "alice")
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	other := NewTokenIssuer("a-different-secret", 30*time.Minute, time.Hour)
	if _, err := other.Verify(token, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("test-signing-secret", -time.Minute, -time.Minute)

	token, err := issuer.IssueAccessToken("user-123", "alice")
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	if _, err := issuer.Verify(token, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenIssuer_Garbage(t *testing.T) {
	issuer := newTestIssuer()

	for _, token := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := issuer.Verify(token, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): expected ErrInvalidToken, got %v", token, err)
		}
	}
}
