// Package tracking records before/after diffs of entity mutations for the
// audit history.
package tracking

import "time"

// Mutation methods recorded on a ChangeRecord.
const (
	MethodCreate = "create"
	MethodUpdate = "update"
	MethodDelete = "delete"
)

// FieldChange captures a single field transition.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// ChangeRecord is one append-only entry in an entity's history.
type ChangeRecord struct {
	ID            string                 `json:"id"`
	Module        string                 `json:"module"`
	Method        string                 `json:"method"`
	UserID        int64                  `json:"user_id"`
	UserName      string                 `json:"user_name"`
	ModifiedAt    time.Time              `json:"modified_at"`
	ChangedFields map[string]FieldChange `json:"changed_fields"`
}
