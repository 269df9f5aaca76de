package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/ports"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
	"github.com/jacksonlee411/governance-adjudicator/pkg/httperr"
)

const (
	defaultCriticality     = "C"
	defaultSecurity        = "A2"
	defaultIntegrity       = "C"
	defaultAvailability    = "C"
	defaultResilience      = "2"
	defaultHasDependencies = true

	DefaultDecorationConcurrency = 8

	dueReleaseWindow = "release_window"
	dueDisplayLayout = "Jan 2, 2006"
	dateOnlyLayout   = "2006-01-02"
)

var dueOffsetPattern = regexp.MustCompile(`^([+-]?)(\d+)d$`)

type ReuseFinder interface {
	FindReuseCandidate(ctx context.Context, q types.ReuseQuery) (types.ReuseCandidate, bool, error)
}

// RequirementsAssembler maps an external policy decision into a
// requirements view and decorates each part with a reuse candidate.
type RequirementsAssembler struct {
	profiles    ports.ProfileContextReader
	policy      ports.PolicyDecisionService
	reuse       ReuseFinder
	concurrency int
	now         func() time.Time
}

func NewRequirementsAssembler(profiles ports.ProfileContextReader, policy ports.PolicyDecisionService, reuse ReuseFinder, concurrency int) *RequirementsAssembler {
	if concurrency < 1 {
		concurrency = DefaultDecorationConcurrency
	}
	return &RequirementsAssembler{
		profiles:    profiles,
		policy:      policy,
		reuse:       reuse,
		concurrency: concurrency,
		now:         time.Now,
	}
}

func (a *RequirementsAssembler) Assemble(ctx context.Context, appID string, releaseID string, releaseWindowStartISO string) (types.RequirementsView, error) {
	appID = strings.TrimSpace(appID)
	releaseID = strings.TrimSpace(releaseID)
	releaseWindowStartISO = strings.TrimSpace(releaseWindowStartISO)
	if appID == "" {
		return types.RequirementsView{}, httperr.NewBadRequest("app_id required")
	}

	profile, err := a.profiles.ReadPolicyContext(ctx, appID)
	if err != nil {
		return types.RequirementsView{}, fmt.Errorf("read policy context: %w", err)
	}
	input := BuildPolicyInput(appID, releaseID, releaseWindowStartISO, profile)

	decision, err := a.policy.Evaluate(ctx, input)
	if err != nil {
		return types.RequirementsView{}, fmt.Errorf("policy decision: %w", err)
	}

	window, windowOK := ParseWindowStart(releaseWindowStartISO)
	view := MapDecision(appID, releaseID, decision, window, windowOK)

	asOf := a.now().UTC()
	if windowOK {
		asOf = window
	}
	a.decorate(ctx, &view, asOf)
	return view, nil
}

// decorate attaches reuse candidates part by part. A failing lookup leaves
// its part undecorated and never fails the view.
func (a *RequirementsAssembler) decorate(ctx context.Context, view *types.RequirementsView, asOf time.Time) {
	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i := range view.Requirements {
		req := &view.Requirements[i]
		for _, part := range req.Parts() {
			field := strings.TrimSpace(part.ProfileField)
			if field == "" {
				continue
			}
			q := types.ReuseQuery{AppID: view.AppID, ProfileField: field, MaxAgeDays: part.MaxAgeDays, AsOf: asOf}
			g.Go(func() error {
				a.decoratePart(ctx, req.ID, part, q)
				return nil
			})
		}
	}
	_ = g.Wait()
}

func (a *RequirementsAssembler) decoratePart(ctx context.Context, requirementID string, part *types.Part, q types.ReuseQuery) {
	defer func() {
		if rec := recover(); rec != nil {
			part.ReuseCandidate = nil
			log.Printf("reuse decoration panic app=%s requirement=%s field=%s: %v", q.AppID, requirementID, q.ProfileField, rec)
		}
	}()
	candidate, found, err := a.reuse.FindReuseCandidate(ctx, q)
	if err != nil {
		log.Printf("reuse decoration failed app=%s requirement=%s field=%s: %v", q.AppID, requirementID, q.ProfileField, err)
		return
	}
	if found {
		part.ReuseCandidate = &candidate
	}
}

// BuildPolicyInput applies the documented profile defaults to whatever the
// profile store returned.
func BuildPolicyInput(appID string, releaseID string, windowStart string, profile map[string]any) types.PolicyInput {
	return types.PolicyInput{
		AppID:           appID,
		Criticality:     stringOrDefault(profile, types.ProfileKeyCriticality, defaultCriticality),
		Security:        stringOrDefault(profile, types.ProfileKeySecurity, defaultSecurity),
		Integrity:       stringOrDefault(profile, types.ProfileKeyIntegrity, defaultIntegrity),
		Availability:    stringOrDefault(profile, types.ProfileKeyAvailability, defaultAvailability),
		Resilience:      stringOrDefault(profile, types.ProfileKeyResilience, defaultResilience),
		HasDependencies: boolOrDefault(profile, types.ProfileKeyHasDependencies, defaultHasDependencies),
		Release:         types.PolicyRelease{ID: releaseID, WindowStart: windowStart},
	}
}

func stringOrDefault(m map[string]any, key string, def string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return def
	}
	return s
}

func boolOrDefault(m map[string]any, key string, def bool) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return def
		}
		return b
	default:
		return def
	}
}

// ParseWindowStart accepts an RFC 3339 instant or a bare date (midnight UTC).
func ParseWindowStart(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(dateOnlyLayout, raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func MapDecision(appID string, releaseID string, d types.PolicyDecision, window time.Time, windowOK bool) types.RequirementsView {
	view := types.RequirementsView{
		AppID:         appID,
		ReleaseID:     releaseID,
		PolicyVersion: d.PolicyVersion,
		ReviewMode:    d.ReviewMode,
		FiredRules:    append([]string{}, d.FiredRules...),
		Assessment:    d.Assessment,
		Domains:       make([]types.DomainView, 0, len(d.Domains)),
		Requirements:  make([]types.RequirementView, 0, len(d.Requirements)),
	}
	if windowOK {
		w := window
		view.ReleaseWindowStart = &w
	}

	domainIndex := make(map[string]int, len(d.Domains))
	for _, dom := range d.Domains {
		if _, dup := domainIndex[dom.Key]; dup {
			continue
		}
		domainIndex[dom.Key] = len(view.Domains)
		view.Domains = append(view.Domains, types.DomainView{Key: dom.Key, Title: dom.Title, Requirements: []string{}})
	}

	for _, r := range d.Requirements {
		rv := types.RequirementView{
			ID:       r.ID,
			Title:    r.Title,
			Domain:   r.Domain,
			Severity: r.Severity,
			Scope:    r.Scope,
			Due:      r.Due,
			AllOf:    copyParts(r.AllOf),
			AnyOf:    copyParts(r.AnyOf),
			OneOf:    copyParts(r.OneOf),
		}
		if windowOK {
			rv.DueDisplay = DueDisplay(r.Due, window)
		}
		view.Requirements = append(view.Requirements, rv)

		if r.Domain == "" {
			continue
		}
		idx, ok := domainIndex[r.Domain]
		if !ok {
			idx = len(view.Domains)
			domainIndex[r.Domain] = idx
			view.Domains = append(view.Domains, types.DomainView{Key: r.Domain, Title: r.Domain, Requirements: []string{}})
		}
		view.Domains[idx].Requirements = append(view.Domains[idx].Requirements, r.ID)
	}
	return view
}

func copyParts(in []types.Part) []types.Part {
	out := make([]types.Part, len(in))
	copy(out, in)
	for i := range out {
		out[i].ReuseCandidate = nil
	}
	return out
}

// DueDisplay renders a requirement due marker relative to the release
// window. Unknown markers render as "".
func DueDisplay(due string, window time.Time) string {
	due = strings.TrimSpace(due)
	if due == "" {
		return ""
	}
	if strings.EqualFold(due, dueReleaseWindow) {
		return window.Format(dueDisplayLayout)
	}
	if m := dueOffsetPattern.FindStringSubmatch(strings.ToLower(due)); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return ""
		}
		if m[1] == "-" {
			n = -n
		}
		return window.AddDate(0, 0, n).Format(dueDisplayLayout)
	}
	if t, ok := ParseWindowStart(due); ok {
		return t.Format(dueDisplayLayout)
	}
	return ""
}
