package persistence

import (
	"strings"

	"github.com/google/uuid"
)

var riskNamespace = uuid.MustParse("6f1c2a0e-5b7d-4c1e-9a53-2d8e4f7b9c10")

// RiskIDFor derives the risk id from the triggering attachment, so opening the
// same risk twice yields one row.
func RiskIDFor(appID string, fieldKey string, evidenceID string) string {
	key := strings.Join([]string{strings.TrimSpace(appID), strings.TrimSpace(fieldKey), strings.TrimSpace(evidenceID)}, "\x1f")
	return uuid.NewSHA1(riskNamespace, []byte(key)).String()
}
