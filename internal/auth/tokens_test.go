package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestJWTSignerRoundTrip(t *testing.T) {
	signer := NewJWTSigner("secret", "vidhive")

	token, expiresAt, err := signer.Sign("user-42", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected expiry in the future, got %v", expiresAt)
	}

	subject, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "user-42" {
		t.Fatalf("expected subject user-42 got %q", subject)
	}
}

func TestJWTSignerRejects(t *testing.T) {
	signer := NewJWTSigner("secret", "vidhive")
	token, _, err := signer.Sign("user-1", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	expiredSigner := NewJWTSigner("secret", "vidhive")
	expiredSigner.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _, err := expiredSigner.Sign("user-1", time.Minute)
	if err != nil {
		t.Fatalf("sign expired: %v", err)
	}

	cases := map[string]struct {
		signer *JWTSigner
		token  string
	}{
		"empty":         {signer: signer, token: ""},
		"garbage":       {signer: signer, token: "not-a-jwt"},
		"wrong secret":  {signer: NewJWTSigner("other", "vidhive"), token: token},
		"wrong issuer":  {signer: NewJWTSigner("secret", "someone-else"), token: token},
		"expired token": {signer: signer, token: expired},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := tc.signer.Verify(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken got %v", err)
			}
		})
	}
}

func TestActorContext(t *testing.T) {
	if _, ok := ActorIDFromContext(context.Background()); ok {
		t.Fatal("expected no actor on empty context")
	}
	ctx := WithActorID(context.Background(), "user-7")
	if id, ok := ActorIDFromContext(ctx); !ok || id != "user-7" {
		t.Fatalf("expected user-7 got %q", id)
	}
}
