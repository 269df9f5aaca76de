package types

import "time"

// PolicyInput is the document submitted to the policy decision service.
type PolicyInput struct {
	AppID           string        `json:"appId"`
	Criticality     string        `json:"criticality"`
	Security        string        `json:"security"`
	Integrity       string        `json:"integrity"`
	Availability    string        `json:"availability"`
	Resilience      string        `json:"resilience"`
	HasDependencies bool          `json:"hasDependencies"`
	Release         PolicyRelease `json:"release"`
}

type PolicyRelease struct {
	ID          string `json:"id"`
	WindowStart string `json:"windowStart,omitempty"`
}

// PolicyDecision is produced by the external policy service; this service
// decorates it but never authors it.
type PolicyDecision struct {
	Domains       []PolicyDomain      `json:"domains"`
	Requirements  []PolicyRequirement `json:"requirements"`
	FiredRules    []string            `json:"firedRules"`
	PolicyVersion string              `json:"policyVersion"`
	ReviewMode    string              `json:"reviewMode"`
	Assessment    AssessmentFlags     `json:"assessment"`
}

type PolicyDomain struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

type AssessmentFlags struct {
	AssessmentRequired bool `json:"assessmentRequired"`
	ArbRequired        bool `json:"arbRequired"`
	SmeReviewRequired  bool `json:"smeReviewRequired"`
}

type PolicyRequirement struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Domain   string `json:"domain"`
	Severity string `json:"severity"`
	Scope    string `json:"scope"`
	Due      string `json:"due"`
	AllOf    []Part `json:"allOf"`
	AnyOf    []Part `json:"anyOf"`
	OneOf    []Part `json:"oneOf"`
}

type Part struct {
	Label          string          `json:"label"`
	ProfileField   string          `json:"profileField"`
	MaxAgeDays     *int            `json:"maxAgeDays,omitempty"`
	Reviewer       string          `json:"reviewer,omitempty"`
	UIOptions      map[string]any  `json:"uiOptions,omitempty"`
	ReuseCandidate *ReuseCandidate `json:"reuseCandidate"`
}

type RequirementsView struct {
	AppID              string            `json:"app_id"`
	ReleaseID          string            `json:"release_id"`
	ReleaseWindowStart *time.Time        `json:"release_window_start,omitempty"`
	PolicyVersion      string            `json:"policy_version"`
	ReviewMode         string            `json:"review_mode"`
	FiredRules         []string          `json:"fired_rules"`
	Assessment         AssessmentFlags   `json:"assessment"`
	Domains            []DomainView      `json:"domains"`
	Requirements       []RequirementView `json:"requirements"`
}

type DomainView struct {
	Key          string   `json:"key"`
	Title        string   `json:"title"`
	Requirements []string `json:"requirement_ids"`
}

type RequirementView struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Domain     string `json:"domain"`
	Severity   string `json:"severity"`
	Scope      string `json:"scope"`
	Due        string `json:"due,omitempty"`
	DueDisplay string `json:"due_display,omitempty"`
	AllOf      []Part `json:"all_of"`
	AnyOf      []Part `json:"any_of"`
	OneOf      []Part `json:"one_of"`
}

// Parts returns pointers to every part across the three groupings.
func (r *RequirementView) Parts() []*Part {
	out := make([]*Part, 0, len(r.AllOf)+len(r.AnyOf)+len(r.OneOf))
	for i := range r.AllOf {
		out = append(out, &r.AllOf[i])
	}
	for i := range r.AnyOf {
		out = append(out, &r.AnyOf[i])
	}
	for i := range r.OneOf {
		out = append(out, &r.OneOf[i])
	}
	return out
}

const (
	ProfileKeyCriticality     = "criticality"
	ProfileKeySecurity        = "security"
	ProfileKeyIntegrity       = "integrity"
	ProfileKeyAvailability    = "availability"
	ProfileKeyResilience      = "resilience"
	ProfileKeyHasDependencies = "has_dependencies"
)
