// Package ownership decides whether an actor may mutate a resource.
package ownership

import (
	"strings"

	"github.com/vidhive/backend/internal/apperr"
)

// Decision is the outcome of an ownership check.
type Decision int

const (
	Denied Decision = iota
	Allowed
)

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "denied"
}

// Guard authorizes mutations of owned resources.
type Guard interface {
	Authorize(actorID, ownerID string) Decision
}

// Authorize allows the actor only when it is the resource owner. An empty
// actor never matches, even against an empty owner.
func Authorize(actorID, ownerID string) Decision {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return Denied
	}
	if actorID != strings.TrimSpace(ownerID) {
		return Denied
	}
	return Allowed
}

// OwnerGuard is the default Guard: only owners may mutate.
type OwnerGuard struct{}

// Authorize implements Guard.
func (OwnerGuard) Authorize(actorID, ownerID string) Decision {
	return Authorize(actorID, ownerID)
}

// Require returns a forbidden error unless g allows the actor. The message
// names only the resource kind.
func Require(g Guard, actorID, ownerID, resource string) error {
	if g == nil {
		g = OwnerGuard{}
	}
	if g.Authorize(actorID, ownerID) == Allowed {
		return nil
	}
	return apperr.Forbidden("you are not allowed to modify this " + resource)
}

var _ Guard = OwnerGuard{}
