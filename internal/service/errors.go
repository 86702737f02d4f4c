package service

import "errors"

// NoFileMessage is the message clients see when a storage key has no blob or metadata.
const NoFileMessage = "No file exists"

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("document not found")
	ErrReaderNil  = errors.New("reader is nil")

	// ErrNoFile is returned by Retrieve and Delete when nothing is stored under the key.
	ErrNoFile = errors.New("no file exists")

	// ErrValidation wraps every input rejection so handlers can map it to one status.
	ErrValidation          = errors.New("validation failed")
	ErrUnknownDocumentType = errors.New("unknown document type")
	ErrAccountNotFound     = errors.New("account not found")
)
