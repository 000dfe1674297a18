// internal/models/role.go
package models

// RoleContext is one row of the role/context table.
type RoleContext struct {
	Title       string `json:"role" db:"role"`
	Description string `json:"context" db:"context"`
}
