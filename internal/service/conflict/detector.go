package conflict

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

// Config holds the conflict detector tuning parameters.
type Config struct {
	// SimilarityThreshold gates requirement-description comparison and the
	// pairwise screening pass.
	SimilarityThreshold float64 `json:"similarity_threshold"`
	// ScopeOverlapThreshold gates the scope-ambiguity pass.
	ScopeOverlapThreshold float64 `json:"scope_overlap_threshold"`
	// Workers bounds the pairwise scan's worker pool.
	Workers int `json:"workers"`
}

// DefaultConfig returns the default detector configuration.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold:   0.75,
		ScopeOverlapThreshold: 0.6,
		Workers:               4,
	}
}

// Detector performs stateless-per-call conflict analysis over a collection of
// frameworks. The only state it owns is the pairwise result cache.
type Detector struct {
	logger *zap.Logger
	config Config
	cache  *pairCache
}

// NewDetector creates a conflict detector.
func NewDetector(logger *zap.Logger, config Config) *Detector {
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = DefaultConfig().SimilarityThreshold
	}
	if config.ScopeOverlapThreshold <= 0 {
		config.ScopeOverlapThreshold = DefaultConfig().ScopeOverlapThreshold
	}
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}
	return &Detector{
		logger: logger,
		config: config,
		cache:  newPairCache(),
	}
}

type pairJob struct {
	a *normative.Framework
	b *normative.Framework
}

// DetectAllConflicts runs every conflict-finding pass over the given
// frameworks and returns the detected conflicts. It fails only on malformed
// input; condition expressions it cannot interpret degrade to "no
// contradiction found" so the scan stays total.
func (d *Detector) DetectAllConflicts(ctx context.Context, frameworks []*normative.Framework) ([]*normative.Conflict, error) {
	start := time.Now()

	for i, f := range frameworks {
		if f == nil {
			return nil, fmt.Errorf("framework at index %d is nil", i)
		}
	}

	if len(frameworks) < 2 {
		return d.hierarchyConflicts(frameworks), nil
	}

	// Unordered pairs, i<j only, so no pair is emitted twice.
	var jobs []pairJob
	for i := 0; i < len(frameworks); i++ {
		for j := i + 1; j < len(frameworks); j++ {
			if frameworks[i].ID == frameworks[j].ID {
				continue
			}
			jobs = append(jobs, pairJob{a: frameworks[i], b: frameworks[j]})
		}
	}

	conflicts := d.runPairScan(ctx, jobs)
	conflicts = append(conflicts, d.hierarchyConflicts(frameworks)...)

	d.logger.Debug("conflict detection completed",
		zap.Int("frameworks", len(frameworks)),
		zap.Int("pairs", len(jobs)),
		zap.Int("conflicts", len(conflicts)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return conflicts, nil
}

// runPairScan fans the pairwise analysis out over a bounded worker pool. Each
// worker computes an independent result for one pair; the only shared state
// touched during the parallel phase is read-only framework references and the
// idempotent pair cache, so no further locking is needed in the hot loop.
func (d *Detector) runPairScan(ctx context.Context, jobs []pairJob) []*normative.Conflict {
	workers := d.config.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers < 1 {
		workers = 1
	}

	jobChan := make(chan pairJob, workers*2)
	resultChan := make(chan []*normative.Conflict, workers*2)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				resultChan <- d.analyzePair(job.a, job.b)
			}
		}()
	}

	go func() {
		defer close(jobChan)
		for _, job := range jobs {
			select {
			case jobChan <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Results are independent; merging is plain concatenation.
	var conflicts []*normative.Conflict
	for result := range resultChan {
		conflicts = append(conflicts, result...)
	}
	return conflicts
}

// analyzePair runs every pairwise pass for one unordered framework pair,
// consulting the memoization cache first.
func (d *Detector) analyzePair(a, b *normative.Framework) []*normative.Conflict {
	// Canonical order keeps detection symmetric regardless of input order.
	if a.ID.String() > b.ID.String() {
		a, b = b, a
	}
	key := newPairKey(a.ID, b.ID)
	if cached, ok := d.cache.get(key); ok {
		return cached
	}

	var conflicts []*normative.Conflict
	if d.frameworksPotentiallyConflict(a, b) {
		if c := d.requirementConflict(a, b); c != nil {
			conflicts = append(conflicts, c)
		}
		if c := d.authorityConflict(a, b); c != nil {
			conflicts = append(conflicts, c)
		}
		if c := d.scopeConflict(a, b); c != nil {
			conflicts = append(conflicts, c)
		}
		if c := d.temporalOverlapConflict(a, b); c != nil {
			conflicts = append(conflicts, c)
		}
		if c := d.jurisdictionalOverlapConflict(a, b); c != nil {
			conflicts = append(conflicts, c)
		}
	}

	d.cache.put(key, conflicts)
	return conflicts
}

// frameworksPotentiallyConflict is the cheap screening check that gates the
// per-pair passes.
func (d *Detector) frameworksPotentiallyConflict(a, b *normative.Framework) bool {
	if a.Jurisdiction == b.Jurisdiction {
		return true
	}
	if a.Jurisdiction == normative.JurisdictionInternational ||
		b.Jurisdiction == normative.JurisdictionInternational {
		return true
	}
	if tagOverlap(a, b) > d.config.SimilarityThreshold {
		return true
	}
	return TextSimilarity(a.Description, b.Description) > d.config.SimilarityThreshold
}

// CacheSize returns the number of memoized pair results.
func (d *Detector) CacheSize() int {
	return d.cache.size()
}
