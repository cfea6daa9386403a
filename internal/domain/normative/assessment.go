package normative

import (
	"time"

	"github.com/google/uuid"
)

// Assessment is the evaluation of one entity's evidence against one or more
// frameworks' requirements.
type Assessment struct {
	ID             uuid.UUID   `json:"id"`
	EntityID       string      `json:"entity_id"`
	FrameworkIDs   []uuid.UUID `json:"framework_ids"`
	AssessmentDate time.Time   `json:"assessment_date"`

	OverallStatus          ComplianceStatus        `json:"overall_status"`
	RequirementAssessments []RequirementAssessment `json:"requirement_assessments"`
	Findings               []Finding               `json:"findings,omitempty"`
	Recommendations        []Recommendation        `json:"recommendations,omitempty"`

	NextReviewDate time.Time `json:"next_review_date"`
}

type ComplianceStatus int

const (
	StatusCompliant ComplianceStatus = iota
	StatusNonCompliant
	StatusPartiallyCompliant
	StatusUnderReview
	StatusExempt
	StatusNotApplicable
)

func (s ComplianceStatus) String() string {
	switch s {
	case StatusCompliant:
		return "compliant"
	case StatusNonCompliant:
		return "non_compliant"
	case StatusPartiallyCompliant:
		return "partially_compliant"
	case StatusUnderReview:
		return "under_review"
	case StatusExempt:
		return "exempt"
	case StatusNotApplicable:
		return "not_applicable"
	default:
		return "unknown"
	}
}

// RequirementAssessment is the per-requirement result of an assessment.
type RequirementAssessment struct {
	RequirementID uuid.UUID        `json:"requirement_id"`
	Title         string           `json:"title"`
	Mandatory     bool             `json:"mandatory"`
	Status        ComplianceStatus `json:"status"`
	Evidence      map[string]string `json:"evidence,omitempty"`
	Gaps          []string         `json:"gaps,omitempty"`
	RiskLevel     string           `json:"risk_level"`
}

// Finding is emitted for each non-compliant requirement with non-empty gaps.
type Finding struct {
	ID            uuid.UUID `json:"id"`
	RequirementID uuid.UUID `json:"requirement_id"`
	Description   string    `json:"description"`
	RiskLevel     string    `json:"risk_level"`
}

type Recommendation struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
}

// RiskLevelForGaps derives the risk level from the number of gaps found on a
// non-compliant requirement.
func RiskLevelForGaps(gaps int) string {
	switch {
	case gaps > 2:
		return "high"
	case gaps == 2:
		return "medium"
	default:
		return "low"
	}
}

func NewAssessment(entityID string, frameworkIDs []uuid.UUID) *Assessment {
	return &Assessment{
		ID:             uuid.New(),
		EntityID:       entityID,
		FrameworkIDs:   frameworkIDs,
		AssessmentDate: time.Now(),
		OverallStatus:  StatusUnderReview,
	}
}

// IsCompliant reports whether the overall status is compliant.
func (a *Assessment) IsCompliant() bool {
	return a.OverallStatus == StatusCompliant
}
