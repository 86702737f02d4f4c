package repository

import (
	"context"

	"docvault/internal/model"
)

// DocumentRepository defines data access for document metadata.
// Persistence only; no business rules live here.
type DocumentRepository interface {
	// Create inserts a new document record with no content hash.
	// Returns the stored document (may include values set by the DB).
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByIDs returns the documents that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []string) ([]model.Document, error)

	// SetContentHash records the verified digest of the document's blob.
	SetContentHash(ctx context.Context, id, hash string) error

	// AttachCredential stores an issued credential on the document.
	AttachCredential(ctx context.Context, id string, a model.Attachment) (*model.Document, error)

	// AttachPresentation stores an issued presentation on the document.
	AttachPresentation(ctx context.Context, id string, a model.Attachment) (*model.Document, error)

	// DeleteByStorageKey removes the record bound to key and returns it.
	// It returns nil, nil when no record matched.
	DeleteByStorageKey(ctx context.Context, key string) (*model.Document, error)
}

// AccountRepository reads accounts and appends to their ordered lists.
// Appends are single statements so concurrent writers never drop each other's entries.
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
	AppendDocument(ctx context.Context, accountID, documentID string) error
	AppendShareRequest(ctx context.Context, accountID string, req model.ShareRequest) (*model.Account, error)
}

// DocumentTypeRepository is read-only; types are managed elsewhere.
type DocumentTypeRepository interface {
	FindByName(ctx context.Context, name string) (*model.DocumentType, error)
	List(ctx context.Context) ([]model.DocumentType, error)
}

// PermissionTableRepository is an append-only log of permission-table snapshots.
type PermissionTableRepository interface {
	// Latest returns the most recently inserted snapshot, or nil when none exists.
	Latest(ctx context.Context) (*model.PermissionSnapshot, error)
	// Insert appends a new snapshot.
	Insert(ctx context.Context, table model.PermissionTable) (*model.PermissionSnapshot, error)
}
