package persistence

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

// MemoryStore backs every compliance port in process. It is used for local
// runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	evidence map[string]types.Evidence
	claims   []types.Claim
	risks    map[string]types.RiskItem
	profiles map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		evidence: make(map[string]types.Evidence),
		risks:    make(map[string]types.RiskItem),
		profiles: make(map[string]map[string]string),
	}
}

func (s *MemoryStore) FindEvidenceForClaim(_ context.Context, evidenceID string) (types.Evidence, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.evidence[strings.TrimSpace(evidenceID)]
	return cloneEvidence(ev), ok, nil
}

func (s *MemoryStore) ListEvidenceForField(_ context.Context, appID string, profileFieldKey string) ([]types.Evidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []types.Evidence{}
	for _, ev := range s.evidence {
		if ev.AppID == appID && ev.ProfileFieldKey == profileFieldKey {
			out = append(out, cloneEvidence(ev))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].EvidenceID > out[j].EvidenceID
	})
	return out, nil
}

func (s *MemoryStore) InsertEvidence(_ context.Context, ev types.Evidence) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	superseded := []string{}
	for id, cur := range s.evidence {
		if cur.AppID == ev.AppID && cur.ProfileFieldKey == ev.ProfileFieldKey && cur.Status == types.EvidenceStatusActive {
			cur.Status = types.EvidenceStatusSuperseded
			s.evidence[id] = cur
			superseded = append(superseded, id)
		}
	}
	sort.Strings(superseded)
	s.evidence[ev.EvidenceID] = cloneEvidence(ev)
	return superseded, nil
}

func (s *MemoryStore) RevokeEvidence(_ context.Context, evidenceID string, at time.Time) (types.Evidence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.evidence[strings.TrimSpace(evidenceID)]
	if !ok {
		return types.Evidence{}, types.ErrEvidenceNotFound
	}
	if ev.Status != types.EvidenceStatusRevoked {
		revokedAt := at.UTC()
		ev.Status = types.EvidenceStatusRevoked
		ev.RevokedAt = &revokedAt
		s.evidence[ev.EvidenceID] = ev
	}
	return cloneEvidence(ev), nil
}

func (s *MemoryStore) InsertClaim(_ context.Context, c types.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Reasons = append([]string{}, c.Reasons...)
	s.claims = append(s.claims, c)
	return nil
}

func (s *MemoryStore) FindClaimByIdempotencyKey(_ context.Context, appID string, key string) (types.Claim, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.claims {
		if c.AppID == appID && c.IdempotencyKey != "" && c.IdempotencyKey == key {
			return c, true, nil
		}
	}
	return types.Claim{}, false, nil
}

func (s *MemoryStore) ListClaims(_ context.Context, appID string, requirementID string) ([]types.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []types.Claim{}
	for _, c := range s.claims {
		if c.AppID != appID {
			continue
		}
		if requirementID != "" && c.RequirementID != requirementID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *MemoryStore) OpenRisk(_ context.Context, req types.OpenRiskRequest) (types.RiskItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := RiskIDFor(req.AppID, req.FieldKey, req.TriggerEvidenceID)
	if existing, ok := s.risks[id]; ok {
		return existing, nil
	}
	item := types.RiskItem{
		RiskID:            id,
		AppID:             req.AppID,
		FieldKey:          req.FieldKey,
		TriggerEvidenceID: req.TriggerEvidenceID,
		AssignedSME:       req.AssignedSME,
		Priority:          req.Priority,
		TTL:               req.TTL,
		AssignedAt:        req.AssignedAt.UTC(),
		DueAt:             req.DueAt.UTC(),
		Status:            types.RiskStatusOpen,
	}
	s.risks[id] = item
	return item, nil
}

func (s *MemoryStore) ListRisks(appID string) []types.RiskItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []types.RiskItem{}
	for _, r := range s.risks {
		if r.AppID == appID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RiskID < out[j].RiskID })
	return out
}

func (s *MemoryStore) ReadPolicyContext(_ context.Context, appID string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]any{}
	for k, v := range s.profiles[appID] {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) UpsertProfileField(_ context.Context, appID string, fieldKey string, value string) error {
	appID = strings.TrimSpace(appID)
	fieldKey = strings.TrimSpace(fieldKey)
	if appID == "" || fieldKey == "" {
		return errProfileKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profiles[appID] == nil {
		s.profiles[appID] = map[string]string{}
	}
	s.profiles[appID][fieldKey] = value
	return nil
}

func cloneEvidence(ev types.Evidence) types.Evidence {
	ev.ValidUntil = utcPtr(ev.ValidUntil)
	ev.RevokedAt = utcPtr(ev.RevokedAt)
	return ev
}
