package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/autodoc/autodoc/internal/model"
)

// Common errors for document repository operations.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrQuotaExceeded    = errors.New("monthly document quota exceeded")
	ErrStatusConflict   = errors.New("document status changed concurrently")
)

const documentColumns = `d.id, d.type, d.title, d.form_data, d.html_content, d.status, d.creator_name,
	d.created_by, u.email, d.created_at, d.updated_at`

const documentFrom = ` FROM documents d JOIN users u ON u.id = d.created_by`

// DocumentFilter narrows a document listing. Empty fields are ignored.
type DocumentFilter struct {
	CreatedBy string
	Status    model.DocumentStatus
	Type      string
	Limit     int
}

// QuotaWindow bounds the monthly quota check of CreateDocumentWithinQuota.
// A non-positive Limit disables the check.
type QuotaWindow struct {
	Limit int
	Start time.Time
	End   time.Time
}

// CreateDocumentWithinQuota inserts a document unless its creator already
// reached the quota inside the window. The count and insert run in one
// transaction holding a per-user advisory lock, so concurrent generations by
// the same user are serialized.
func (r *Repository) CreateDocumentWithinQuota(ctx context.Context, doc *model.Document, window QuotaWindow) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "quota:"+doc.CreatedBy); err != nil {
			return fmt.Errorf("acquire quota lock: %w", err)
		}

		if window.Limit > 0 {
			var count int
			err := tx.QueryRow(ctx, `
				SELECT COUNT(*) FROM documents
				WHERE created_by = $1 AND created_at >= $2 AND created_at < $3
			`, doc.CreatedBy, window.Start, window.End).Scan(&count)
			if err != nil {
				return fmt.Errorf("count monthly documents: %w", err)
			}
			if count >= window.Limit {
				return ErrQuotaExceeded
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO documents (id, type, title, form_data, html_content, status, creator_name, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			doc.ID,
			doc.Type,
			doc.Title,
			doc.FormData,
			doc.HTMLContent,
			doc.Status,
			doc.CreatorName,
			doc.CreatedBy,
			doc.CreatedAt,
			doc.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}
		return nil
	})
}

// GetDocumentByID retrieves a document, including its HTML content.
func (r *Repository) GetDocumentByID(ctx context.Context, id string) (*model.Document, error) {
	query := `SELECT ` + documentColumns + documentFrom + ` WHERE d.id = $1`

	doc, err := scanDocument(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document by ID: %w", err)
	}
	doc.ArtifactPath = model.ArtifactPathFor(doc.ID)
	return doc, nil
}

// ListDocuments returns documents newest first. HTML content is not loaded.
func (r *Repository) ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	query := `SELECT d.id, d.type, d.title, d.form_data, '' AS html_content, d.status, d.creator_name,
		d.created_by, u.email, d.created_at, d.updated_at` + documentFrom + ` WHERE TRUE`
	var args []any
	argIndex := 1

	if filter.CreatedBy != "" {
		query += fmt.Sprintf(" AND d.created_by = $%d", argIndex)
		args = append(args, filter.CreatedBy)
		argIndex++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND d.status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.Type != "" {
		query += fmt.Sprintf(" AND d.type = $%d", argIndex)
		args = append(args, filter.Type)
		argIndex++
	}

	query += " ORDER BY d.created_at DESC, d.id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.ArtifactPath = model.ArtifactPathFor(doc.ID)
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, nil
}

// CountDocumentsCreatedBetween counts the documents a user created in [start, end).
func (r *Repository) CountDocumentsCreatedBetween(ctx context.Context, userID string, start, end time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM documents
		WHERE created_by = $1 AND created_at >= $2 AND created_at < $3
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// CountDocumentsByStatus tallies documents per status.
// An empty userID counts every document.
func (r *Repository) CountDocumentsByStatus(ctx context.Context, userID string) (map[model.DocumentStatus]int, error) {
	query := `
		SELECT status, COUNT(*) FROM documents
		WHERE ($1 = '' OR created_by = $1)
		GROUP BY status
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.DocumentStatus]int, len(model.DocumentStatuses))
	for _, s := range model.DocumentStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var status model.DocumentStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}
	return counts, nil
}

// CountDocuments returns the total number of documents.
func (r *Repository) CountDocuments(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// UpdateDocumentStatus moves a document from one status to another.
// The update only applies while the stored status is still from; otherwise
// ErrStatusConflict is returned and nothing changes.
func (r *Repository) UpdateDocumentStatus(ctx context.Context, id string, from, to model.DocumentStatus) (*model.Document, error) {
	query := `
		WITH updated AS (
			UPDATE documents SET status = $3, updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING *
		)
		SELECT ` + documentColumns + ` FROM updated d JOIN users u ON u.id = d.created_by
	`

	doc, err := scanDocument(r.pool.QueryRow(ctx, query, id, from, to))
	if err == nil {
		doc.ArtifactPath = model.ArtifactPathFor(doc.ID)
		return doc, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update document status: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check document existence: %w", err)
	}
	if !exists {
		return nil, ErrDocumentNotFound
	}
	return nil, ErrStatusConflict
}

// scanDocument scans a single row into a Document model.
func scanDocument(row pgx.Row) (*model.Document, error) {
	var doc model.Document
	err := row.Scan(
		&doc.ID,
		&doc.Type,
		&doc.Title,
		&doc.FormData,
		&doc.HTMLContent,
		&doc.Status,
		&doc.CreatorName,
		&doc.CreatedBy,
		&doc.CreatedByEmail,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	return &doc, err
}
