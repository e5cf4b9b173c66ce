package model

import (
	"encoding/json"

	"github.com/routepulse/server/internal/patch"
)

// RoutePatch is a partial update of a route. Unset fields retain the stored value.
type RoutePatch struct {
	Name           patch.Field[string]
	Description    patch.Field[string]
	IsPublic       patch.Field[bool]
	PathData       patch.Field[json.RawMessage]
	DistanceMeters patch.Field[float64]
}

// ChallengePatch is a partial update applied by challenge completion.
// Status and both time fields are independently optional.
type ChallengePatch struct {
	Status         patch.Field[string]
	ChallengerTime patch.Field[float64]
	ChallengedTime patch.Field[float64]
}
