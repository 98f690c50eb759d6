package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdesk/crewdesk/internal/shared"
)

var actor = shared.Identity{UserID: 42, UserName: "jadmin"}

func TestDiffUpdateRecordsOnlyChangedFields(t *testing.T) {
	original := map[string]any{
		"name":             "Jo Field",
		"designation":      "Engineer",
		"per_hours_charge": 55.0,
	}
	incoming := map[string]any{
		"name":        "Jo Field",
		"designation": "Senior Engineer",
	}

	rec := Diff(original, incoming, "Employee", MethodUpdate, actor, time.Now())

	require.Len(t, rec.ChangedFields, 1)
	change, ok := rec.ChangedFields["designation"]
	require.True(t, ok)
	assert.Equal(t, "Engineer", change.From)
	assert.Equal(t, "Senior Engineer", change.To)
	assert.Equal(t, int64(42), rec.UserID)
	assert.Equal(t, "jadmin", rec.UserName)
	assert.NotEmpty(t, rec.ID)
}

func TestDiffCreateRecordsAllFields(t *testing.T) {
	incoming := map[string]any{
		"name": "Acme Ltd",
		"code": "0001",
	}

	rec := Diff(nil, incoming, "Customer", MethodCreate, actor, time.Now())

	require.Len(t, rec.ChangedFields, 2)
	assert.Nil(t, rec.ChangedFields["name"].From)
	assert.Equal(t, "Acme Ltd", rec.ChangedFields["name"].To)
}

func TestDiffDeleteRecordsFullOriginal(t *testing.T) {
	original := map[string]any{
		"name": "Acme Ltd",
		"code": "0001",
	}

	rec := Diff(original, nil, "Customer", MethodDelete, actor, time.Now())

	require.Len(t, rec.ChangedFields, 2)
	assert.Equal(t, "0001", rec.ChangedFields["code"].From)
	assert.Nil(t, rec.ChangedFields["code"].To)
}

func TestDiffExcludesBookkeepingAndSecrets(t *testing.T) {
	incoming := map[string]any{
		"user_name":       "jdoe",
		"password":        "hunter2",
		"created_at":      "2025-06-01T00:00:00Z",
		"updated_at":      "2025-06-02T00:00:00Z",
		"record_tracking": []any{},
	}

	rec := Diff(nil, incoming, "User", MethodCreate, actor, time.Now())

	require.Len(t, rec.ChangedFields, 1)
	_, hasPassword := rec.ChangedFields["password"]
	assert.False(t, hasPassword)
	_, hasUserName := rec.ChangedFields["user_name"]
	assert.True(t, hasUserName)
}

func TestDiffComparesNestedValuesStructurally(t *testing.T) {
	original := map[string]any{
		"assignments": []any{map[string]any{"employee_id": 1.0, "emp_hours": 10.0}},
	}
	same := map[string]any{
		"assignments": []any{map[string]any{"employee_id": 1.0, "emp_hours": 10.0}},
	}
	changed := map[string]any{
		"assignments": []any{map[string]any{"employee_id": 1.0, "emp_hours": 12.0}},
	}

	rec := Diff(original, same, "Project", MethodUpdate, actor, time.Now())
	assert.Empty(t, rec.ChangedFields)

	rec = Diff(original, changed, "Project", MethodUpdate, actor, time.Now())
	assert.Len(t, rec.ChangedFields, 1)
}

func TestToMapUsesJSONFieldNames(t *testing.T) {
	type entity struct {
		Name      string  `json:"name"`
		PerHour   float64 `json:"per_hour"`
		CreatedAt string  `json:"created_at"`
	}
	m, err := ToMap(entity{Name: "x", PerHour: 55})
	require.NoError(t, err)
	assert.Equal(t, "x", m["name"])
	assert.Equal(t, 55.0, m["per_hour"])
}
