package authz

const (
	RoleComplianceAdmin = "compliance-admin"
	RoleReviewer        = "reviewer"
	RoleAppOwner        = "app-owner"
	RoleAnonymous       = "anonymous"
)

const (
	ActionRead  = "read"
	ActionWrite = "write"
)

const DomainGlobal = "global"

const (
	ObjectComplianceClaims       = "compliance.claims"
	ObjectComplianceEvidence     = "compliance.evidence"
	ObjectComplianceRequirements = "compliance.requirements"
	ObjectComplianceRisk         = "compliance.risk"
	ObjectComplianceProfile      = "compliance.profile"
)

// KnownObject reports whether an allowlist object name is one the policy
// can grant.
func KnownObject(object string) bool {
	switch object {
	case ObjectComplianceClaims, ObjectComplianceEvidence, ObjectComplianceRequirements, ObjectComplianceRisk, ObjectComplianceProfile:
		return true
	default:
		return false
	}
}

func KnownAction(action string) bool {
	return action == ActionRead || action == ActionWrite
}
