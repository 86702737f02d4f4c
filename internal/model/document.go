package model

import (
	"encoding/json"
	"time"
)

// Document is the metadata record of an uploaded blob.
// The blob itself lives in storage under StorageKey.
type Document struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	StorageKey     string      `json:"storage_key"`
	OwnerAccountID string      `json:"owner_account_id"`
	UploadedBy     string      `json:"uploaded_by"`
	DocumentTypeID string      `json:"document_type_id"`
	ContentHash    *string     `json:"content_hash"`
	Credential     *Attachment `json:"credential,omitempty"`
	Presentation   *Attachment `json:"presentation,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Verified reports whether a content hash has been recorded.
func (d *Document) Verified() bool {
	return d.ContentHash != nil && *d.ContentHash != ""
}

// Attachment is an externally issued credential or presentation bound to a document.
// Payload is the verification result returned by the issuer, kept verbatim.
type Attachment struct {
	Token   string          `json:"token" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Issuer  string          `json:"issuer" validate:"required"`
}
