package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"docvault/internal/model"
	"docvault/internal/repository"
)

const documentColumns = `id, name, storage_key, owner_account_id, uploaded_by, document_type_id, content_hash,
	credential_token, credential_payload, credential_issuer,
	presentation_token, presentation_payload, presentation_issuer, created_at`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d                        model.Document
		hash                     sql.NullString
		credToken, credIssuer    sql.NullString
		presToken, presIssuer    sql.NullString
		credPayload, presPayload []byte
	)
	if err := row.Scan(
		&d.ID,
		&d.Name,
		&d.StorageKey,
		&d.OwnerAccountID,
		&d.UploadedBy,
		&d.DocumentTypeID,
		&hash,
		&credToken, &credPayload, &credIssuer,
		&presToken, &presPayload, &presIssuer,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	if hash.Valid {
		d.ContentHash = &hash.String
	}
	d.Credential = attachment(credToken, credPayload, credIssuer)
	d.Presentation = attachment(presToken, presPayload, presIssuer)
	return &d, nil
}

func attachment(token sql.NullString, payload []byte, issuer sql.NullString) *model.Attachment {
	if !token.Valid {
		return nil
	}
	a := &model.Attachment{Token: token.String, Issuer: issuer.String}
	if len(payload) > 0 {
		a.Payload = json.RawMessage(payload)
	}
	return a
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		INSERT INTO documents (id, name, storage_key, owner_account_id, uploaded_by, document_type_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Name,
		doc.StorageKey,
		doc.OwnerAccountID,
		doc.UploadedBy,
		doc.DocumentTypeID,
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return d, err
}

// FindByIDs fetches every existing document among ids.
// The id list travels as one JSON parameter so the query text stays constant.
func (r *DocumentPostgres) FindByIDs(ctx context.Context, ids []string) ([]model.Document, error) {
	items := make([]model.Document, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}
	rawIDs, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	q := `SELECT ` + documentColumns + ` FROM documents
		WHERE id::text IN (SELECT jsonb_array_elements_text($1::jsonb))`
	rows, err := r.db.QueryContext(ctx, q, string(rawIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SetContentHash stores the digest on an existing row.
func (r *DocumentPostgres) SetContentHash(ctx context.Context, id, hash string) error {
	const q = `UPDATE documents SET content_hash = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, hash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *DocumentPostgres) AttachCredential(ctx context.Context, id string, a model.Attachment) (*model.Document, error) {
	return r.attach(ctx, "credential", id, a)
}

func (r *DocumentPostgres) AttachPresentation(ctx context.Context, id string, a model.Attachment) (*model.Document, error) {
	return r.attach(ctx, "presentation", id, a)
}

// attach writes the three columns of kind; kind is one of the fixed prefixes above.
func (r *DocumentPostgres) attach(ctx context.Context, kind, id string, a model.Attachment) (*model.Document, error) {
	q := fmt.Sprintf(`
		UPDATE documents SET %[1]s_token = $2, %[1]s_payload = $3, %[1]s_issuer = $4
		WHERE id = $1
		RETURNING %[2]s`, kind, documentColumns)
	var payload any
	if len(a.Payload) > 0 {
		payload = []byte(a.Payload)
	}
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id, a.Token, payload, a.Issuer))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return d, err
}

// DeleteByStorageKey removes the row bound to key and returns it, or nil if none matched.
func (r *DocumentPostgres) DeleteByStorageKey(ctx context.Context, key string) (*model.Document, error) {
	q := `DELETE FROM documents WHERE storage_key = $1 RETURNING ` + documentColumns
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}
