package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// ShareRequestInput asks TargetAccountID to share documents of DocumentType.
type ShareRequestInput struct {
	RequestingAccountID string `validate:"required,uuid"`
	TargetAccountID     string `validate:"required,uuid"`
	DocumentType        string `validate:"required"`
}

// ShareService records share requests. Requests are stored only; nothing acts on them here.
type ShareService interface {
	// RequestShare appends a request to the target account and returns the updated account.
	// Identical requests are kept as separate entries.
	RequestShare(ctx context.Context, in ShareRequestInput) (*model.Account, error)
}

type shareService struct {
	accounts repository.AccountRepository
	types    repository.DocumentTypeRepository
	validate *validator.Validate
}

func NewShareService(accounts repository.AccountRepository, types repository.DocumentTypeRepository) ShareService {
	return &shareService{accounts: accounts, types: types, validate: validator.New()}
}

func (s *shareService) RequestShare(ctx context.Context, in ShareRequestInput) (*model.Account, error) {
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
	acc, err := s.accounts.AppendShareRequest(ctx, in.TargetAccountID, model.ShareRequest{
		RequestingAccountID: in.RequestingAccountID,
		DocumentTypeID:      docType.ID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("append share request: %w", err)
	}
	return acc, nil
}
