package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"docvault/internal/model"
	"docvault/internal/repository"
)

type DocumentTypePostgres struct {
	db *sql.DB
}

func NewDocumentTypePostgres(db *sql.DB) *DocumentTypePostgres {
	return &DocumentTypePostgres{db: db}
}

var _ repository.DocumentTypeRepository = (*DocumentTypePostgres)(nil)

func scanDocumentType(row rowScanner) (*model.DocumentType, error) {
	var (
		t      model.DocumentType
		fields []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &fields); err != nil {
		return nil, err
	}
	t.Fields = []model.DocumentField{}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &t.Fields); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// FindByName returns the first type with the given name.
// Names are not unique in the schema, so the lowest id wins.
func (r *DocumentTypePostgres) FindByName(ctx context.Context, name string) (*model.DocumentType, error) {
	const q = `SELECT id, name, fields FROM document_types WHERE name = $1 ORDER BY id LIMIT 1`
	t, err := scanDocumentType(r.db.QueryRowContext(ctx, q, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return t, err
}

func (r *DocumentTypePostgres) List(ctx context.Context) ([]model.DocumentType, error) {
	const q = `SELECT id, name, fields FROM document_types ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentType, 0)
	for rows.Next() {
		t, err := scanDocumentType(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
