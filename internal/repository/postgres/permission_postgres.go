package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// PermissionTablePostgres stores snapshots in permission_tables.
// The BIGSERIAL id is the insertion order that defines "latest".
type PermissionTablePostgres struct {
	db *sql.DB
}

func NewPermissionTablePostgres(db *sql.DB) *PermissionTablePostgres {
	return &PermissionTablePostgres{db: db}
}

var _ repository.PermissionTableRepository = (*PermissionTablePostgres)(nil)

func (r *PermissionTablePostgres) Latest(ctx context.Context) (*model.PermissionSnapshot, error) {
	const q = `SELECT id, permissions, created_at FROM permission_tables ORDER BY id DESC LIMIT 1`
	var (
		id  int64
		raw []byte
		s   model.PermissionSnapshot
	)
	if err := r.db.QueryRowContext(ctx, q).Scan(&id, &raw, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.ID = strconv.FormatInt(id, 10)
	if err := json.Unmarshal(raw, &s.Table); err != nil {
		return nil, err
	}
	if s.Table == nil {
		s.Table = model.PermissionTable{}
	}
	return &s, nil
}

func (r *PermissionTablePostgres) Insert(ctx context.Context, table model.PermissionTable) (*model.PermissionSnapshot, error) {
	if table == nil {
		table = model.PermissionTable{}
	}
	raw, err := json.Marshal(table)
	if err != nil {
		return nil, err
	}
	const q = `INSERT INTO permission_tables (permissions) VALUES ($1) RETURNING id, created_at`
	var (
		id int64
		s  = model.PermissionSnapshot{Table: table.Clone()}
	)
	if err := r.db.QueryRowContext(ctx, q, raw).Scan(&id, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.ID = strconv.FormatInt(id, 10)
	return &s, nil
}
