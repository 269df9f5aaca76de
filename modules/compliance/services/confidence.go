package services

import (
	"strings"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

// NormalizeMethod maps a blank method to manual. Other values pass through
// lower-cased so unknown methods are still recorded as submitted.
func NormalizeMethod(raw string) types.ClaimMethod {
	m := strings.ToLower(strings.TrimSpace(raw))
	if m == "" {
		return types.ClaimMethodManual
	}
	return types.ClaimMethod(m)
}

func ConfidenceFor(method types.ClaimMethod) types.Confidence {
	switch NormalizeMethod(string(method)) {
	case types.ClaimMethodAuto:
		return types.ConfidenceHigh
	case types.ClaimMethodImported:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}
