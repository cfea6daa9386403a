package conflict

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

// requirementConflict compares every requirement pair sharing a category.
// When multiple conflicts are found for one framework pair, only the single
// most severe is retained.
func (d *Detector) requirementConflict(a, b *normative.Framework) *normative.Conflict {
	var best *normative.Conflict

	for i := range a.Requirements {
		ra := &a.Requirements[i]
		for j := range b.Requirements {
			rb := &b.Requirements[j]
			// Requirements in different categories never conflict.
			if ra.Category != rb.Category {
				continue
			}

			similarity := TextSimilarity(ra.Description, rb.Description)
			if similarity <= d.config.SimilarityThreshold {
				continue
			}

			var c *normative.Conflict
			switch {
			case ra.Mandatory != rb.Mandatory:
				c = normative.NewConflict(
					normative.ConflictTypeDirectContradiction,
					normative.SeverityHigh,
					a.ID, b.ID,
					fmt.Sprintf("requirement %q (%s) and %q (%s) describe the same obligation with opposing mandatory flags",
						ra.Title, a.Title, rb.Title, b.Title),
				)
			case d.requirementConditionsContradict(ra, rb):
				c = normative.NewConflict(
					normative.ConflictTypeImplicitConflict,
					normative.SeverityMedium,
					a.ID, b.ID,
					fmt.Sprintf("requirements %q (%s) and %q (%s) carry mutually unsatisfiable conditions",
						ra.Title, a.Title, rb.Title, b.Title),
				)
			default:
				continue
			}

			c.AffectedRequirements = []uuid.UUID{ra.ID, rb.ID}
			c.Context["category"] = ra.Category
			c.Context["description_similarity"] = fmt.Sprintf("%.2f", similarity)

			if best == nil || c.Severity > best.Severity {
				best = c
			}
		}
	}

	return best
}

func (d *Detector) requirementConditionsContradict(a, b *normative.Requirement) bool {
	for _, ca := range a.Conditions {
		for _, cb := range b.Conditions {
			if conditionsContradict(ca.Expression, cb.Expression) {
				return true
			}
		}
	}
	return false
}

// authorityConflict fires when the same issuing authority regulates the same
// jurisdiction twice with overlapping scope.
func (d *Detector) authorityConflict(a, b *normative.Framework) *normative.Conflict {
	if a.Authority != b.Authority || a.Jurisdiction != b.Jurisdiction {
		return nil
	}
	overlap := tagOverlap(a, b)
	if overlap <= 0 {
		return nil
	}

	c := normative.NewConflict(
		normative.ConflictTypeAuthorityConflict,
		normative.SeverityMedium,
		a.ID, b.ID,
		fmt.Sprintf("authority %q issued both %q and %q for the %s jurisdiction with overlapping scope",
			a.Authority, a.Title, b.Title, a.Jurisdiction),
	)
	c.Context["scope_overlap"] = fmt.Sprintf("%.2f", overlap)
	return c.WithStrategy(normative.ResolutionLexPosterior)
}

// scopeConflict fires when frameworks from different jurisdictions claim
// strongly overlapping scope.
func (d *Detector) scopeConflict(a, b *normative.Framework) *normative.Conflict {
	if a.Jurisdiction == b.Jurisdiction {
		return nil
	}
	overlap := tagOverlap(a, b)
	if overlap <= d.config.ScopeOverlapThreshold {
		return nil
	}

	c := normative.NewConflict(
		normative.ConflictTypeScopeAmbiguity,
		normative.SeverityLow,
		a.ID, b.ID,
		fmt.Sprintf("%q (%s) and %q (%s) claim overlapping scope across jurisdictions",
			a.Title, a.Jurisdiction, b.Title, b.Jurisdiction),
	)
	c.Context["scope_overlap"] = fmt.Sprintf("%.2f", overlap)
	return c.WithStrategy(normative.ResolutionContextualization)
}

// temporalOverlapConflict fires when two frameworks with overlapping scope
// are simultaneously in force and neither supersedes the other.
func (d *Detector) temporalOverlapConflict(a, b *normative.Framework) *normative.Conflict {
	if !a.ValidityOverlaps(b) {
		return nil
	}
	if tagOverlap(a, b) <= 0 {
		return nil
	}
	if a.SupersedesFramework(b.ID) || b.SupersedesFramework(a.ID) {
		return nil
	}

	return normative.NewConflict(
		normative.ConflictTypeTemporalInconsistency,
		normative.SeverityLow,
		a.ID, b.ID,
		fmt.Sprintf("%q and %q are simultaneously in force over overlapping scope with no supersession between them",
			a.Title, b.Title),
	)
}

// jurisdictionalOverlapConflict compares international frameworks against
// non-international ones with scope overlap. Severity escalates with the
// presence of conflicting mandatory requirements, then with the degree of
// overlap; pairs that only reach informational severity are suppressed.
func (d *Detector) jurisdictionalOverlapConflict(a, b *normative.Framework) *normative.Conflict {
	aIntl := a.Jurisdiction == normative.JurisdictionInternational
	bIntl := b.Jurisdiction == normative.JurisdictionInternational
	if aIntl == bIntl {
		return nil
	}

	overlap := tagOverlap(a, b)
	if overlap <= 0 {
		return nil
	}

	severity := normative.SeverityInformational
	switch {
	case d.hasMandatoryRequirementConflict(a, b):
		severity = normative.SeverityHigh
	case overlap >= 0.8:
		severity = normative.SeverityMedium
	case overlap >= 0.5:
		severity = normative.SeverityLow
	}
	if severity == normative.SeverityInformational {
		return nil
	}

	c := normative.NewConflict(
		normative.ConflictTypeJurisdictionalOverlap,
		severity,
		a.ID, b.ID,
		fmt.Sprintf("international framework and %s framework overlap in scope: %q vs %q",
			nonInternationalOf(a, b).Jurisdiction, a.Title, b.Title),
	)
	c.Context["scope_overlap"] = fmt.Sprintf("%.2f", overlap)
	return c.WithStrategy(normative.ResolutionLexSuperior)
}

func nonInternationalOf(a, b *normative.Framework) *normative.Framework {
	if a.Jurisdiction == normative.JurisdictionInternational {
		return b
	}
	return a
}

func (d *Detector) hasMandatoryRequirementConflict(a, b *normative.Framework) bool {
	for i := range a.Requirements {
		ra := &a.Requirements[i]
		for j := range b.Requirements {
			rb := &b.Requirements[j]
			if ra.Category != rb.Category {
				continue
			}
			if !ra.Mandatory && !rb.Mandatory {
				continue
			}
			if TextSimilarity(ra.Description, rb.Description) <= d.config.SimilarityThreshold {
				continue
			}
			if ra.Mandatory != rb.Mandatory || d.requirementConditionsContradict(ra, rb) {
				return true
			}
		}
	}
	return false
}

// hierarchyConflicts walks each framework's declared dependencies and flags
// temporal-ordering violations: a framework cannot take effect before a
// framework it builds on.
func (d *Detector) hierarchyConflicts(frameworks []*normative.Framework) []*normative.Conflict {
	byID := make(map[uuid.UUID]*normative.Framework, len(frameworks))
	for _, f := range frameworks {
		byID[f.ID] = f
	}

	var conflicts []*normative.Conflict
	for _, f := range frameworks {
		for _, depID := range f.Dependencies {
			dep, ok := byID[depID]
			if !ok || dep.ID == f.ID {
				continue
			}
			if f.EffectiveDate.Before(dep.EffectiveDate) {
				c := normative.NewConflict(
					normative.ConflictTypeTemporalInconsistency,
					normative.SeverityMedium,
					f.ID, dep.ID,
					fmt.Sprintf("%q takes effect before its dependency %q", f.Title, dep.Title),
				)
				c.Context["framework_effective"] = f.EffectiveDate.Format("2006-01-02")
				c.Context["dependency_effective"] = dep.EffectiveDate.Format("2006-01-02")
				conflicts = append(conflicts, c)
			}
		}
	}
	return conflicts
}
