package model

import (
	"slices"
	"time"
)

// PermissionTable maps a role to the permissions it holds, e.g. {"notary": ["read"]}.
type PermissionTable map[string][]string

// Clone returns a deep copy so callers cannot mutate a shared table.
func (t PermissionTable) Clone() PermissionTable {
	out := make(PermissionTable, len(t))
	for role, perms := range t {
		out[role] = slices.Clone(perms)
	}
	return out
}

// PermissionSnapshot is one immutable version of the permission table.
type PermissionSnapshot struct {
	ID        string          `json:"id"`
	Table     PermissionTable `json:"table"`
	CreatedAt time.Time       `json:"created_at"`
}
