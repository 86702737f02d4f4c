package permission

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"docvault/internal/model"
)

// ParseTableYAML reads a role -> permissions mapping such as
//
//	notary: [document:read]
//	owner:
//	  - document:read
//	  - document:delete
//
// An empty document yields an empty table.
func ParseTableYAML(data []byte) (model.PermissionTable, error) {
	table := model.PermissionTable{}
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if table == nil {
		table = model.PermissionTable{}
	}
	return table, nil
}
