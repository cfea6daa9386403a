package normative

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Framework is a named body of normative requirements issued by one authority.
type Framework struct {
	ID           uuid.UUID       `json:"id"`
	Title        string          `json:"title"`
	Authority    string          `json:"authority"`
	Jurisdiction Jurisdiction    `json:"jurisdiction"`
	Status       FrameworkStatus `json:"status"`

	EffectiveDate  time.Time  `json:"effective_date"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`

	Requirements []Requirement `json:"requirements"`

	// Frameworks this one builds on, and frameworks it replaces.
	Dependencies []uuid.UUID `json:"dependencies,omitempty"`
	Supersedes   []uuid.UUID `json:"supersedes,omitempty"`

	Tags     []string          `json:"tags,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`

	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Jurisdiction int

const (
	JurisdictionInternational Jurisdiction = iota
	JurisdictionRegional
	JurisdictionFederal
	JurisdictionState
	JurisdictionOrganizational
)

func (j Jurisdiction) String() string {
	switch j {
	case JurisdictionInternational:
		return "international"
	case JurisdictionRegional:
		return "regional"
	case JurisdictionFederal:
		return "federal"
	case JurisdictionState:
		return "state"
	case JurisdictionOrganizational:
		return "organizational"
	default:
		return "unknown"
	}
}

type FrameworkStatus int

const (
	FrameworkStatusDraft FrameworkStatus = iota
	FrameworkStatusActive
	FrameworkStatusSuperseded
	FrameworkStatusExpired
)

func (s FrameworkStatus) String() string {
	switch s {
	case FrameworkStatusDraft:
		return "draft"
	case FrameworkStatusActive:
		return "active"
	case FrameworkStatusSuperseded:
		return "superseded"
	case FrameworkStatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Requirement is an individual obligation within a framework. Requirements are
// owned by exactly one framework and are never shared.
type Requirement struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Category        string           `json:"category"`
	Mandatory       bool             `json:"mandatory"`
	Conditions      []Condition      `json:"conditions,omitempty"`
	ValidationRules []ValidationRule `json:"validation_rules,omitempty"`
}

// Condition is a small textual boolean predicate, e.g. "value >= 10" or
// "NOT (x)". Contradiction between conditions is decided by the conflict
// detector, not here.
type Condition struct {
	Expression string `json:"expression"`
}

type RuleType string

const (
	RuleTypePresence RuleType = "presence"
	RuleTypeFormat   RuleType = "format"
	RuleTypeRange    RuleType = "range"
)

// ValidationRule is evaluated against entity evidence during assessment.
type ValidationRule struct {
	RuleType     RuleType `json:"rule_type"`
	Expression   string   `json:"expression"`
	ErrorMessage string   `json:"error_message"`
}

func NewFramework(title, authority string, jurisdiction Jurisdiction, effective time.Time) *Framework {
	now := time.Now()
	return &Framework{
		ID:            uuid.New(),
		Title:         title,
		Authority:     authority,
		Jurisdiction:  jurisdiction,
		Status:        FrameworkStatusDraft,
		EffectiveDate: effective,
		Metadata:      make(map[string]string),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate checks the framework's structural invariants.
func (f *Framework) Validate() error {
	if f.Title == "" {
		return fmt.Errorf("framework title cannot be empty")
	}
	if f.Authority == "" {
		return fmt.Errorf("framework authority cannot be empty")
	}
	if f.EffectiveDate.IsZero() {
		return fmt.Errorf("framework effective date must be set")
	}
	if f.ExpirationDate != nil && !f.EffectiveDate.Before(*f.ExpirationDate) {
		return fmt.Errorf("effective date must precede expiration date")
	}
	seen := make(map[uuid.UUID]bool, len(f.Requirements))
	for i := range f.Requirements {
		r := &f.Requirements[i]
		if r.Title == "" {
			return fmt.Errorf("requirement %d: title cannot be empty", i)
		}
		if r.Category == "" {
			return fmt.Errorf("requirement %d: category cannot be empty", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("requirement %d: duplicate requirement id %s", i, r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

// Activate transitions a draft framework into the active state.
func (f *Framework) Activate() error {
	if f.Status == FrameworkStatusActive {
		return fmt.Errorf("framework is already active")
	}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("cannot activate invalid framework: %w", err)
	}
	f.Status = FrameworkStatusActive
	f.UpdatedAt = time.Now()
	return nil
}

// Supersede marks this framework as replaced. Superseded frameworks remain
// retrievable by id but no longer participate in conflict screening or
// compliance assessment.
func (f *Framework) Supersede() error {
	if f.Status != FrameworkStatusActive {
		return fmt.Errorf("can only supersede active frameworks")
	}
	f.Status = FrameworkStatusSuperseded
	f.UpdatedAt = time.Now()
	return nil
}

// Expire marks an active framework as expired.
func (f *Framework) Expire() error {
	if f.Status != FrameworkStatusActive {
		return fmt.Errorf("can only expire active frameworks")
	}
	f.Status = FrameworkStatusExpired
	f.UpdatedAt = time.Now()
	return nil
}

// IsActive returns true if the framework is active and within its validity
// interval at the given instant.
func (f *Framework) IsActive(at time.Time) bool {
	if f.Status != FrameworkStatusActive {
		return false
	}
	if at.Before(f.EffectiveDate) {
		return false
	}
	if f.ExpirationDate != nil && at.After(*f.ExpirationDate) {
		return false
	}
	return true
}

// TagSet returns the framework tags as a set.
func (f *Framework) TagSet() map[string]struct{} {
	set := make(map[string]struct{}, len(f.Tags))
	for _, t := range f.Tags {
		set[t] = struct{}{}
	}
	return set
}

// SupersedesFramework reports whether this framework declares that it
// replaces the given one.
func (f *Framework) SupersedesFramework(id uuid.UUID) bool {
	for _, s := range f.Supersedes {
		if s == id {
			return true
		}
	}
	return false
}

// ValidityOverlaps reports whether the validity intervals
// [effective, expiration or +inf) of the two frameworks intersect.
func (f *Framework) ValidityOverlaps(other *Framework) bool {
	if f.ExpirationDate != nil && !f.ExpirationDate.After(other.EffectiveDate) {
		return false
	}
	if other.ExpirationDate != nil && !other.ExpirationDate.After(f.EffectiveDate) {
		return false
	}
	return true
}

// MandatoryRequirements returns the subset of requirements flagged mandatory.
func (f *Framework) MandatoryRequirements() []Requirement {
	var out []Requirement
	for _, r := range f.Requirements {
		if r.Mandatory {
			out = append(out, r)
		}
	}
	return out
}
