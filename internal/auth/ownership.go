package auth

import (
	"github.com/google/uuid"

	"github.com/routepulse/server/internal/errs"
)

// AuthorizeMutation decides whether a caller may mutate a resource.
// Allow iff the resource's recorded owner equals the caller's asserted
// identity. Lookup precedes this check: a nonexistent resource yields
// not-found even to its would-be owner.
func AuthorizeMutation(resourceOwnerID, callerID uuid.UUID) error {
	if resourceOwnerID != callerID {
		return errs.ErrForbidden
	}
	return nil
}
