package ownership

import (
	"strings"
	"testing"

	"github.com/vidhive/backend/internal/apperr"
)

func TestAuthorize(t *testing.T) {
	cases := []struct {
		name    string
		actor   string
		owner   string
		outcome Decision
	}{
		{name: "owner", actor: "user-1", owner: "user-1", outcome: Allowed},
		{name: "other user", actor: "user-2", owner: "user-1", outcome: Denied},
		{name: "empty actor", actor: "", owner: "user-1", outcome: Denied},
		{name: "empty actor and owner", actor: "", owner: "", outcome: Denied},
		{name: "blank actor", actor: "   ", owner: "   ", outcome: Denied},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Authorize(tc.actor, tc.owner); got != tc.outcome {
				t.Fatalf("expected %s got %s", tc.outcome, got)
			}
			if got := (OwnerGuard{}).Authorize(tc.actor, tc.owner); got != tc.outcome {
				t.Fatalf("guard: expected %s got %s", tc.outcome, got)
			}
		})
	}
}

type allowAll struct{}

func (allowAll) Authorize(string, string) Decision { return Allowed }

func TestRequire(t *testing.T) {
	err := Require(OwnerGuard{}, "user-2", "user-1", "video")
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if strings.Contains(err.Error(), "user-1") {
		t.Fatalf("forbidden message must not leak the owner: %q", err.Error())
	}

	if err := Require(nil, "user-1", "user-1", "video"); err != nil {
		t.Fatalf("expected nil guard to fall back to owner check, got %v", err)
	}

	if err := Require(allowAll{}, "user-2", "user-1", "tweet"); err != nil {
		t.Fatalf("expected injected guard to be honoured, got %v", err)
	}
}
