package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Fimeg/partnernotice/internal/models"
	"github.com/jmoiron/sqlx"
)

// ExtensionQueries is the extension registry
type ExtensionQueries struct {
	db *sqlx.DB
}

func NewExtensionQueries(db *sqlx.DB) *ExtensionQueries {
	return &ExtensionQueries{db: db}
}

// ListExtensions returns every installed extension keyed by main file
func (q *ExtensionQueries) ListExtensions(ctx context.Context) (map[string]models.Extension, error) {
	var rows []models.Extension
	query := `SELECT * FROM extensions ORDER BY name`
	if err := q.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	extensions := make(map[string]models.Extension, len(rows))
	for _, ext := range rows {
		extensions[ext.File] = ext
	}
	return extensions, nil
}

// GetExtension retrieves an extension by main file
func (q *ExtensionQueries) GetExtension(ctx context.Context, file string) (*models.Extension, error) {
	var ext models.Extension
	query := `SELECT * FROM extensions WHERE file = $1`
	err := q.db.GetContext(ctx, &ext, query, file)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrExtensionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ext, nil
}

// GetExtensionByTextDomain retrieves the first extension declaring the text domain
func (q *ExtensionQueries) GetExtensionByTextDomain(ctx context.Context, textDomain string) (*models.Extension, error) {
	var ext models.Extension
	query := `SELECT * FROM extensions WHERE text_domain = $1 ORDER BY file LIMIT 1`
	err := q.db.GetContext(ctx, &ext, query, textDomain)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrExtensionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ext, nil
}

// UpsertExtension inserts or replaces a registry record
func (q *ExtensionQueries) UpsertExtension(ctx context.Context, ext *models.Extension) error {
	query := `
		INSERT INTO extensions (
			file, slug, name, text_domain, version, status, installed_at, updated_at
		) VALUES (
			:file, :slug, :name, :text_domain, :version, :status, :installed_at, :updated_at
		)
		ON CONFLICT (file) DO UPDATE SET
			slug = EXCLUDED.slug,
			name = EXCLUDED.name,
			text_domain = EXCLUDED.text_domain,
			version = EXCLUDED.version,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	_, err := q.db.NamedExecContext(ctx, query, ext)
	return err
}

// SetExtensionStatus updates the activation state of an extension
func (q *ExtensionQueries) SetExtensionStatus(ctx context.Context, file string, status models.ExtensionStatus) error {
	query := `UPDATE extensions SET status = $1, updated_at = $2 WHERE file = $3`
	result, err := q.db.ExecContext(ctx, query, status, time.Now().UTC(), file)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrExtensionNotFound
	}
	return nil
}
