package tracking

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crewdesk/crewdesk/internal/shared"
)

// Fields never recorded: bookkeeping, the history itself, and secrets.
var excludedFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"record_tracking": true,
	"password":        true,
}

// Diff builds a ChangeRecord for the given mutation. For update, every
// field present in incoming whose serialized value differs from original
// is recorded. For create, every incoming field is recorded with a nil
// From. For delete, the full original is recorded with an empty To.
func Diff(original, incoming map[string]any, module, method string, actor shared.Identity, at time.Time) ChangeRecord {
	changed := make(map[string]FieldChange)

	switch method {
	case MethodUpdate:
		for key, to := range incoming {
			if excludedFields[key] {
				continue
			}
			from := original[key]
			if canonical(from) == canonical(to) {
				continue
			}
			changed[key] = FieldChange{From: from, To: to}
		}
	case MethodCreate:
		for key, to := range incoming {
			if excludedFields[key] {
				continue
			}
			changed[key] = FieldChange{From: nil, To: to}
		}
	case MethodDelete:
		for key, from := range original {
			if excludedFields[key] {
				continue
			}
			changed[key] = FieldChange{From: from, To: nil}
		}
	}

	return ChangeRecord{
		ID:            uuid.NewString(),
		Module:        module,
		Method:        method,
		UserID:        actor.UserID,
		UserName:      actor.UserName,
		ModifiedAt:    at,
		ChangedFields: changed,
	}
}

// ToMap serializes an entity into the field map Diff compares. JSON is the
// canonical form so nested values (assignments, codes) compare structurally.
func ToMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("tracking: marshal entity: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("tracking: unmarshal entity: %w", err)
	}
	return out, nil
}

func canonical(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("!%v", v)
	}
	return string(data)
}
