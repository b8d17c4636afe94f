package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")

	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "validation", err: Validation("title is required"), want: KindValidation},
		{name: "unauthenticated", err: Unauthenticated("login required"), want: KindUnauthenticated},
		{name: "forbidden", err: Forbidden("not yours"), want: KindForbidden},
		{name: "not found", err: NotFound("video not found"), want: KindNotFound},
		{name: "conflict", err: Conflict("exists"), want: KindConflict},
		{name: "internal", err: Internal("save video", cause), want: KindInternal},
		{name: "wrapped", err: fmt.Errorf("handler: %w", NotFound("comment not found")), want: KindNotFound},
		{name: "foreign", err: cause, want: KindInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("expected kind %s got %s", tc.want, got)
			}
		})
	}
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("failed to save video", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
	if MessageOf(err) != "failed to save video" {
		t.Fatalf("unexpected message %q", MessageOf(err))
	}
	if MessageOf(cause) != "" {
		t.Fatalf("expected empty message for foreign error")
	}
}
