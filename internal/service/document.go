package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docvault/internal/metrics"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
	"docvault/internal/verifier"
)

// UploadInput carries one uploaded file and who it is for.
type UploadInput struct {
	UploaderID   string `validate:"required,uuid"`
	RecipientID  string `validate:"required,uuid"`
	DocumentType string `validate:"required"`
	Filename     string `validate:"required"`
	ContentType  string
	Size         int64
	Reader       io.Reader
}

// UploadResult reports the stored document and whether its content hash was verified.
// An unverified upload is still stored and linked to the recipient.
type UploadResult struct {
	Document  *model.Document `json:"document"`
	Verified  bool            `json:"verified"`
	VerifyErr error           `json:"-"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload stores the content, records its metadata, verifies the content hash and
	// links the document to the recipient account. Storage is rolled back if metadata cannot be saved.
	Upload(ctx context.Context, in UploadInput) (*UploadResult, error)

	// ListDocuments returns the account's documents in the order they were linked.
	ListDocuments(ctx context.Context, accountID string) ([]model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Retrieve streams the blob stored under storageKey.
	Retrieve(ctx context.Context, storageKey string) (io.ReadCloser, storage.ObjectInfo, error)

	// Delete removes the blob, then the metadata bound to storageKey.
	// The returned document is nil if only the blob existed.
	Delete(ctx context.Context, storageKey string) (*model.Document, error)

	AttachCredential(ctx context.Context, documentID string, a model.Attachment) (*model.Document, error)
	AttachPresentation(ctx context.Context, documentID string, a model.Attachment) (*model.Document, error)

	ListDocumentTypes(ctx context.Context) ([]model.DocumentType, error)
}

type documentService struct {
	store    storage.Storage
	docs     repository.DocumentRepository
	accounts repository.AccountRepository
	types    repository.DocumentTypeRepository
	verifier verifier.HashVerifier
	validate *validator.Validate
	log      *zap.Logger
	metrics  *metrics.Domain
	now      func() time.Time
}

type DocumentOption func(*documentService)

func WithLogger(l *zap.Logger) DocumentOption {
	return func(s *documentService) { s.log = l }
}

func WithMetrics(m *metrics.Domain) DocumentOption {
	return func(s *documentService) { s.metrics = m }
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	store storage.Storage,
	docs repository.DocumentRepository,
	accounts repository.AccountRepository,
	types repository.DocumentTypeRepository,
	v verifier.HashVerifier,
	opts ...DocumentOption,
) DocumentService {
	s := &documentService{
		store:    store,
		docs:     docs,
		accounts: accounts,
		types:    types,
		verifier: v,
		validate: validator.New(),
		log:      zap.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(zap.String("component", "document_service"))
	return s
}

// storageKey derives a unique key that still ends with the original file name.
func storageKey(filename string) (string, error) {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		return "", fmt.Errorf("%w: invalid filename %q", ErrValidation, filename)
	}
	return uuid.NewString() + "-" + base, nil
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if in.Reader == nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, ErrReaderNil)
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	docType, err := s.types.FindByName(ctx, in.DocumentType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w: %q", ErrValidation, ErrUnknownDocumentType, in.DocumentType)
		}
		return nil, fmt.Errorf("find document type: %w", err)
	}
	if _, err := s.accounts.FindByID(ctx, in.RecipientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w: recipient %s", ErrValidation, ErrAccountNotFound, in.RecipientID)
		}
		return nil, fmt.Errorf("find recipient: %w", err)
	}

	key, err := storageKey(in.Filename)
	if err != nil {
		return nil, err
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.store.Put(ctx, key, in.Reader, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": in.Filename},
	}); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc, err := s.docs.Create(ctx, &model.Document{
		ID:             uuid.NewString(),
		Name:           in.Filename,
		StorageKey:     key,
		OwnerAccountID: in.RecipientID,
		UploadedBy:     in.UploaderID,
		DocumentTypeID: docType.ID,
		CreatedAt:      s.now(),
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	res := &UploadResult{Document: doc}
	s.verify(ctx, res)

	if err := s.accounts.AppendDocument(ctx, in.RecipientID, doc.ID); err != nil {
		s.log.Error("link document to account failed",
			zap.String("document_id", doc.ID),
			zap.String("account_id", in.RecipientID),
			zap.Error(err),
		)
		s.discard(ctx, key)
		return nil, fmt.Errorf("link document: %w", err)
	}

	s.log.Info("document uploaded",
		zap.String("document_id", doc.ID),
		zap.String("storage_key", key),
		zap.Bool("verified", res.Verified),
	)
	return res, nil
}

// verify fetches the stored blob through its public URL and records the digest.
// Failures leave the document unverified.
func (s *documentService) verify(ctx context.Context, res *UploadResult) {
	doc := res.Document
	digest, err := s.verifier.ComputeDigest(ctx, doc.StorageKey)
	if err != nil {
		res.VerifyErr = err
		s.log.Warn("content hash verification failed", zap.String("document_id", doc.ID), zap.Error(err))
		return
	}
	if err := s.docs.SetContentHash(ctx, doc.ID, digest); err != nil {
		res.VerifyErr = fmt.Errorf("store content hash: %w", err)
		s.log.Warn("content hash not stored", zap.String("document_id", doc.ID), zap.Error(err))
		return
	}
	doc.ContentHash = &digest
	res.Verified = true
}

// discard removes a half-created upload. Errors are logged only.
func (s *documentService) discard(ctx context.Context, key string) {
	if _, err := s.docs.DeleteByStorageKey(ctx, key); err != nil {
		s.log.Error("rollback metadata failed", zap.String("storage_key", key), zap.Error(err))
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Error("rollback storage failed", zap.String("storage_key", key), zap.Error(err))
	}
}

// ListDocuments skips ids whose metadata no longer exists.
func (s *documentService) ListDocuments(ctx context.Context, accountID string) ([]model.Document, error) {
	if accountID == "" {
		return nil, ErrIDRequired
	}
	if _, err := uuid.Parse(accountID); err != nil {
		return nil, fmt.Errorf("%w: invalid account id %q", ErrValidation, accountID)
	}
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	found, err := s.docs.FindByIDs(ctx, acc.Documents)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Document, len(found))
	for _, d := range found {
		byID[d.ID] = d
	}
	items := make([]model.Document, 0, len(acc.Documents))
	for _, id := range acc.Documents {
		if d, ok := byID[id]; ok {
			items = append(items, d)
		}
	}
	return items, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Retrieve(ctx context.Context, storageKey string) (io.ReadCloser, storage.ObjectInfo, error) {
	if storageKey == "" {
		return nil, storage.ObjectInfo{}, ErrNoFile
	}
	rc, info, err := s.store.Get(ctx, storageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, storage.ObjectInfo{}, ErrNoFile
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("get from storage: %w", err)
	}
	return rc, info, nil
}

// Delete removes the blob first and the metadata second, without rollback.
// A missing blob with present metadata still removes the metadata.
func (s *documentService) Delete(ctx context.Context, storageKey string) (*model.Document, error) {
	if storageKey == "" {
		return nil, ErrNoFile
	}
	blobGone := false
	if err := s.store.Delete(ctx, storageKey); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("delete storage: %w", err)
		}
		blobGone = true
	}

	doc, err := s.docs.DeleteByStorageKey(ctx, storageKey)
	if err != nil {
		if !blobGone {
			s.metrics.OrphanedMetadata()
			s.log.Error("blob deleted but metadata remains",
				zap.String("event", "orphaned_metadata"),
				zap.String("storage_key", storageKey),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("delete metadata: %w", err)
	}
	if doc == nil && blobGone {
		return nil, ErrNoFile
	}
	if blobGone {
		s.log.Info("removed metadata of missing blob", zap.String("storage_key", storageKey))
	}
	return doc, nil
}

func (s *documentService) AttachCredential(ctx context.Context, documentID string, a model.Attachment) (*model.Document, error) {
	return s.attach(ctx, documentID, a, s.docs.AttachCredential)
}

func (s *documentService) AttachPresentation(ctx context.Context, documentID string, a model.Attachment) (*model.Document, error) {
	return s.attach(ctx, documentID, a, s.docs.AttachPresentation)
}

func (s *documentService) attach(
	ctx context.Context,
	documentID string,
	a model.Attachment,
	write func(context.Context, string, model.Attachment) (*model.Document, error),
) (*model.Document, error) {
	if documentID == "" {
		return nil, ErrIDRequired
	}
	if err := s.validate.Struct(a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	doc, err := write(ctx, documentID, a)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) ListDocumentTypes(ctx context.Context) ([]model.DocumentType, error) {
	return s.types.List(ctx)
}
