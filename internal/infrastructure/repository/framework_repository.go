package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/normative-engine/internal/domain/normative"
	"github.com/davidleathers/normative-engine/internal/infrastructure/telemetry"
)

// FrameworkRepository persists frameworks in PostgreSQL. Searchable fields
// live in columns; the full framework is stored as a JSONB document so the
// requirement and dependency structures round-trip without a schema change
// per field. Expected schema:
//
//	CREATE TABLE frameworks (
//	    id              UUID PRIMARY KEY,
//	    title           TEXT NOT NULL,
//	    description     TEXT NOT NULL DEFAULT '',
//	    authority       TEXT NOT NULL,
//	    jurisdiction    INT NOT NULL,
//	    status          INT NOT NULL,
//	    effective_date  TIMESTAMPTZ NOT NULL,
//	    expiration_date TIMESTAMPTZ,
//	    document        JSONB NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL,
//	    updated_at      TIMESTAMPTZ NOT NULL,
//	    deleted_at      TIMESTAMPTZ
//	);
type FrameworkRepository struct {
	db     *pgxpool.Pool
	tracer *telemetry.OpenTelemetryTracer
}

// NewFrameworkRepository creates a new framework repository.
func NewFrameworkRepository(db *pgxpool.Pool) *FrameworkRepository {
	return &FrameworkRepository{
		db:     db,
		tracer: telemetry.NewOpenTelemetryTracer("repository.framework"),
	}
}

// GetFramework retrieves a framework by ID.
func (r *FrameworkRepository) GetFramework(ctx context.Context, id uuid.UUID) (*normative.Framework, error) {
	ctx, span := r.tracer.StartDatabaseSpan(ctx, "select", "frameworks")
	defer span.End()

	query := `SELECT document FROM frameworks WHERE id = $1 AND deleted_at IS NULL`

	var document []byte
	if err := r.db.QueryRow(ctx, query, id).Scan(&document); err != nil {
		telemetry.WithSpanError(span, err)
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get framework: %w", err)
	}

	return unmarshalFramework(document)
}

// GetActiveFrameworks returns all frameworks in the active state.
func (r *FrameworkRepository) GetActiveFrameworks(ctx context.Context) ([]*normative.Framework, error) {
	query := `
		SELECT document FROM frameworks
		WHERE status = $1 AND deleted_at IS NULL
		ORDER BY effective_date, id`

	return r.queryFrameworks(ctx, query, int(normative.FrameworkStatusActive))
}

// ListFrameworks returns all frameworks regardless of state.
func (r *FrameworkRepository) ListFrameworks(ctx context.Context) ([]*normative.Framework, error) {
	query := `
		SELECT document FROM frameworks
		WHERE deleted_at IS NULL
		ORDER BY effective_date, id`

	return r.queryFrameworks(ctx, query)
}

// SearchFrameworks returns frameworks matching the query against title,
// description, authority, or tags.
func (r *FrameworkRepository) SearchFrameworks(ctx context.Context, search string) ([]*normative.Framework, error) {
	query := `
		SELECT document FROM frameworks
		WHERE deleted_at IS NULL
		  AND (title ILIKE '%' || $1 || '%'
		    OR description ILIKE '%' || $1 || '%'
		    OR authority ILIKE '%' || $1 || '%'
		    OR document->'tags' ? lower($1))
		ORDER BY effective_date, id`

	return r.queryFrameworks(ctx, query, search)
}

// StoreFramework persists a new framework.
func (r *FrameworkRepository) StoreFramework(ctx context.Context, framework *normative.Framework) error {
	ctx, span := r.tracer.StartDatabaseSpan(ctx, "insert", "frameworks")
	defer span.End()

	document, err := json.Marshal(framework)
	if err != nil {
		return fmt.Errorf("failed to marshal framework: %w", err)
	}

	query := `
		INSERT INTO frameworks (id, title, description, authority, jurisdiction, status,
			effective_date, expiration_date, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.Exec(ctx, query,
		framework.ID,
		framework.Title,
		framework.Description,
		framework.Authority,
		int(framework.Jurisdiction),
		int(framework.Status),
		framework.EffectiveDate,
		framework.ExpirationDate,
		document,
		framework.CreatedAt,
		framework.UpdatedAt,
	)
	if err != nil {
		telemetry.WithSpanError(span, err)
		if IsDuplicateKeyViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to store framework: %w", err)
	}

	return nil
}

// UpdateFramework persists changes to an existing framework.
func (r *FrameworkRepository) UpdateFramework(ctx context.Context, framework *normative.Framework) error {
	ctx, span := r.tracer.StartDatabaseSpan(ctx, "update", "frameworks")
	defer span.End()

	document, err := json.Marshal(framework)
	if err != nil {
		return fmt.Errorf("failed to marshal framework: %w", err)
	}

	query := `
		UPDATE frameworks
		SET title = $2, description = $3, authority = $4, jurisdiction = $5,
			status = $6, effective_date = $7, expiration_date = $8,
			document = $9, updated_at = $10
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		framework.ID,
		framework.Title,
		framework.Description,
		framework.Authority,
		int(framework.Jurisdiction),
		int(framework.Status),
		framework.EffectiveDate,
		framework.ExpirationDate,
		document,
		framework.UpdatedAt,
	)
	if err != nil {
		telemetry.WithSpanError(span, err)
		return fmt.Errorf("failed to update framework: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *FrameworkRepository) queryFrameworks(ctx context.Context, query string, args ...interface{}) ([]*normative.Framework, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query frameworks: %w", err)
	}
	defer rows.Close()

	var frameworks []*normative.Framework
	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan framework: %w", err)
		}
		framework, err := unmarshalFramework(document)
		if err != nil {
			return nil, err
		}
		frameworks = append(frameworks, framework)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate frameworks: %w", err)
	}

	return frameworks, nil
}

func unmarshalFramework(document []byte) (*normative.Framework, error) {
	var framework normative.Framework
	if err := json.Unmarshal(document, &framework); err != nil {
		return nil, fmt.Errorf("failed to unmarshal framework document: %w", err)
	}
	return &framework, nil
}
