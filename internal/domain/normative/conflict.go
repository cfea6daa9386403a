package normative

import (
	"time"

	"github.com/google/uuid"
)

// Conflict is a detected incompatibility between two frameworks or their
// requirements. Conflicts are created only by the conflict detector; the
// resolution fields are written by a resolution workflow.
type Conflict struct {
	ID       uuid.UUID    `json:"id"`
	Type     ConflictType `json:"conflict_type"`
	Severity Severity     `json:"severity"`

	NormativeA           uuid.UUID   `json:"normative_a"`
	NormativeB           uuid.UUID   `json:"normative_b"`
	InvolvedFrameworks   []uuid.UUID `json:"involved_frameworks"`
	AffectedRequirements []uuid.UUID `json:"affected_requirements,omitempty"`

	Description  string            `json:"description"`
	Context      map[string]string `json:"context,omitempty"`
	DiscoveredAt time.Time         `json:"discovered_at"`

	ResolutionStrategy *ResolutionStrategy `json:"resolution_strategy,omitempty"`
	ResolutionNotes    *string             `json:"resolution_notes,omitempty"`
	ResolvedAt         *time.Time          `json:"resolved_at,omitempty"`
	ResolvedBy         *string             `json:"resolved_by,omitempty"`
}

type ConflictType int

const (
	ConflictTypeDirectContradiction ConflictType = iota
	ConflictTypeImplicitConflict
	ConflictTypeAuthorityConflict
	ConflictTypeScopeAmbiguity
	ConflictTypeTemporalInconsistency
	ConflictTypeJurisdictionalOverlap
)

func (t ConflictType) String() string {
	switch t {
	case ConflictTypeDirectContradiction:
		return "direct_contradiction"
	case ConflictTypeImplicitConflict:
		return "implicit_conflict"
	case ConflictTypeAuthorityConflict:
		return "authority_conflict"
	case ConflictTypeScopeAmbiguity:
		return "scope_ambiguity"
	case ConflictTypeTemporalInconsistency:
		return "temporal_inconsistency"
	case ConflictTypeJurisdictionalOverlap:
		return "jurisdictional_overlap"
	default:
		return "unknown"
	}
}

// Severity is totally ordered: Informational < Low < Medium < High < Critical.
type Severity int

const (
	SeverityInformational Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInformational:
		return "informational"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

type ResolutionStrategy string

const (
	ResolutionLexSuperior       ResolutionStrategy = "lex_superior"
	ResolutionLexPosterior      ResolutionStrategy = "lex_posterior"
	ResolutionHarmonization     ResolutionStrategy = "harmonization"
	ResolutionContextualization ResolutionStrategy = "contextualization"
)

func NewConflict(conflictType ConflictType, severity Severity, a, b uuid.UUID, description string) *Conflict {
	return &Conflict{
		ID:                 uuid.New(),
		Type:               conflictType,
		Severity:           severity,
		NormativeA:         a,
		NormativeB:         b,
		InvolvedFrameworks: []uuid.UUID{a, b},
		Description:        description,
		Context:            make(map[string]string),
		DiscoveredAt:       time.Now(),
	}
}

// WithStrategy records the suggested resolution strategy.
func (c *Conflict) WithStrategy(strategy ResolutionStrategy) *Conflict {
	c.ResolutionStrategy = &strategy
	return c
}

// Resolve records the outcome of a resolution workflow.
func (c *Conflict) Resolve(strategy ResolutionStrategy, notes, resolvedBy string) {
	now := time.Now()
	c.ResolutionStrategy = &strategy
	c.ResolutionNotes = &notes
	c.ResolvedAt = &now
	c.ResolvedBy = &resolvedBy
}

// IsResolved reports whether a resolution has been recorded.
func (c *Conflict) IsResolved() bool {
	return c.ResolvedAt != nil
}
