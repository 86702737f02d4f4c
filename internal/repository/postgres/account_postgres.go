package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"docvault/internal/model"
	"docvault/internal/repository"
)

const accountColumns = `id, username, role, did_address, did_private_key, documents, share_requests`

// AccountPostgres reads accounts and appends to their JSONB lists in place.
type AccountPostgres struct {
	db *sql.DB
}

func NewAccountPostgres(db *sql.DB) *AccountPostgres {
	return &AccountPostgres{db: db}
}

var _ repository.AccountRepository = (*AccountPostgres)(nil)

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		a          model.Account
		docs, reqs []byte
	)
	if err := row.Scan(&a.ID, &a.Username, &a.Role, &a.DIDAddress, &a.DIDPrivateKey, &docs, &reqs); err != nil {
		return nil, err
	}
	a.Documents = []string{}
	a.ShareRequests = []model.ShareRequest{}
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &a.Documents); err != nil {
			return nil, err
		}
	}
	if len(reqs) > 0 {
		if err := json.Unmarshal(reqs, &a.ShareRequests); err != nil {
			return nil, err
		}
	}
	return &a, nil
}

func (r *AccountPostgres) FindByID(ctx context.Context, id string) (*model.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	a, err := scanAccount(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return a, err
}

// AppendDocument adds documentID to the end of the account's document list.
func (r *AccountPostgres) AppendDocument(ctx context.Context, accountID, documentID string) error {
	const q = `UPDATE accounts SET documents = documents || jsonb_build_array($2::text) WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, accountID, documentID)
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

// AppendShareRequest adds req to the end of the account's share requests and
// returns the updated account. Duplicates are kept.
func (r *AccountPostgres) AppendShareRequest(ctx context.Context, accountID string, req model.ShareRequest) (*model.Account, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	q := `UPDATE accounts SET share_requests = share_requests || jsonb_build_array($2::jsonb)
		WHERE id = $1
		RETURNING ` + accountColumns
	a, err := scanAccount(r.db.QueryRowContext(ctx, q, accountID, string(raw)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return a, err
}
