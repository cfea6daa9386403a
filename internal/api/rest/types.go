package rest

import (
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

// RegisterFrameworkRequest is the POST /frameworks payload.
type RegisterFrameworkRequest struct {
	Title          string               `json:"title"`
	Description    string               `json:"description,omitempty"`
	Authority      string               `json:"authority"`
	Jurisdiction   string               `json:"jurisdiction"`
	EffectiveDate  time.Time            `json:"effective_date"`
	ExpirationDate *time.Time           `json:"expiration_date,omitempty"`
	Requirements   []RequirementRequest `json:"requirements,omitempty"`
	Dependencies   []uuid.UUID          `json:"dependencies,omitempty"`
	Supersedes     []uuid.UUID          `json:"supersedes,omitempty"`
	Tags           []string             `json:"tags,omitempty"`
	Metadata       map[string]string    `json:"metadata,omitempty"`
}

type RequirementRequest struct {
	Title           string                  `json:"title"`
	Description     string                  `json:"description,omitempty"`
	Category        string                  `json:"category"`
	Mandatory       bool                    `json:"mandatory"`
	Conditions      []string                `json:"conditions,omitempty"`
	ValidationRules []ValidationRuleRequest `json:"validation_rules,omitempty"`
}

type ValidationRuleRequest struct {
	RuleType     string `json:"rule_type"`
	Expression   string `json:"expression"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// RegisterFrameworkResponse is the POST /frameworks result.
type RegisterFrameworkResponse struct {
	ID uuid.UUID `json:"id"`
}

// DetectConflictsRequest names the frameworks to scan. An empty list means
// all active frameworks.
type DetectConflictsRequest struct {
	FrameworkIDs []uuid.UUID `json:"framework_ids,omitempty"`
}

// ConflictResponse is the wire form of a detected conflict.
type ConflictResponse struct {
	ID                   uuid.UUID         `json:"id"`
	Type                 string            `json:"type"`
	Severity             string            `json:"severity"`
	Description          string            `json:"description"`
	InvolvedFrameworks   []uuid.UUID       `json:"involved_frameworks"`
	AffectedRequirements []uuid.UUID       `json:"affected_requirements,omitempty"`
	SuggestedStrategy    string            `json:"suggested_strategy,omitempty"`
	Context              map[string]string `json:"context,omitempty"`
}

// DetectConflictsResponse is the POST /conflicts/detect result.
type DetectConflictsResponse struct {
	Conflicts []ConflictResponse `json:"conflicts"`
	Total     int                `json:"total"`
}

// AssessComplianceRequest is the POST /assessments payload.
type AssessComplianceRequest struct {
	EntityID     string            `json:"entity_id"`
	FrameworkIDs []uuid.UUID       `json:"framework_ids"`
	Evidence     map[string]string `json:"evidence,omitempty"`
}

// HierarchyResponse is the GET /frameworks/{id}/hierarchy result.
type HierarchyResponse struct {
	FrameworkID  uuid.UUID   `json:"framework_id"`
	Dependencies []uuid.UUID `json:"dependencies"`
}

func toConflictResponse(c *normative.Conflict) ConflictResponse {
	resp := ConflictResponse{
		ID:                   c.ID,
		Type:                 c.Type.String(),
		Severity:             c.Severity.String(),
		Description:          c.Description,
		InvolvedFrameworks:   c.InvolvedFrameworks,
		AffectedRequirements: c.AffectedRequirements,
		Context:              c.Context,
	}
	if c.ResolutionStrategy != nil {
		resp.SuggestedStrategy = string(*c.ResolutionStrategy)
	}
	return resp
}

func parseJurisdiction(s string) (normative.Jurisdiction, bool) {
	switch s {
	case "international":
		return normative.JurisdictionInternational, true
	case "regional":
		return normative.JurisdictionRegional, true
	case "federal":
		return normative.JurisdictionFederal, true
	case "state":
		return normative.JurisdictionState, true
	case "organizational":
		return normative.JurisdictionOrganizational, true
	default:
		return 0, false
	}
}

func (r *RegisterFrameworkRequest) toDomain() (*normative.Framework, bool) {
	jurisdiction, ok := parseJurisdiction(r.Jurisdiction)
	if !ok {
		return nil, false
	}

	f := normative.NewFramework(r.Title, r.Authority, jurisdiction, r.EffectiveDate)
	f.Description = r.Description
	f.ExpirationDate = r.ExpirationDate
	f.Dependencies = r.Dependencies
	f.Supersedes = r.Supersedes
	f.Tags = r.Tags
	if r.Metadata != nil {
		f.Metadata = r.Metadata
	}

	for _, req := range r.Requirements {
		requirement := normative.Requirement{
			ID:          uuid.New(),
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			Mandatory:   req.Mandatory,
		}
		for _, cond := range req.Conditions {
			requirement.Conditions = append(requirement.Conditions, normative.Condition{Expression: cond})
		}
		for _, rule := range req.ValidationRules {
			requirement.ValidationRules = append(requirement.ValidationRules, normative.ValidationRule{
				RuleType:     normative.RuleType(rule.RuleType),
				Expression:   rule.Expression,
				ErrorMessage: rule.ErrorMessage,
			})
		}
		f.Requirements = append(f.Requirements, requirement)
	}

	return f, true
}
