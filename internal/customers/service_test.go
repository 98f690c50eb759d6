package customers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdesk/crewdesk/internal/shared"
	"github.com/crewdesk/crewdesk/internal/tracking"
)

type memoryRepo struct {
	customers map[int64]Customer
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{customers: make(map[int64]Customer)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (r *memoryRepo) GetByCode(_ context.Context, code string) (*Customer, error) {
	for _, c := range r.customers {
		if c.Code == code {
			c := c
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) List(_ context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	var out []Customer
	for _, c := range r.customers {
		if req.Search != nil && !strings.Contains(c.Name, *req.Search) {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Create(_ context.Context, customer Customer) (int64, error) {
	r.nextID++
	customer.ID = r.nextID
	r.customers[customer.ID] = customer
	return customer.ID, nil
}

func (r *memoryRepo) Update(_ context.Context, id int64, updates map[string]any) error {
	c, ok := r.customers[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		c.Name = v.(string)
	}
	if v, ok := updates["email"]; ok {
		s := v.(string)
		c.Email = &s
	}
	if v, ok := updates["is_active"]; ok {
		c.IsActive = v.(bool)
	}
	r.customers[id] = c
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.customers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.customers, id)
	return nil
}

type memoryCounter struct {
	values map[string]int64
}

func (c *memoryCounter) Next(_ context.Context, name string) (int64, error) {
	if c.values == nil {
		c.values = make(map[string]int64)
	}
	c.values[name]++
	return c.values[name], nil
}

type memoryRecorder struct {
	records map[string][]tracking.ChangeRecord
}

func (r *memoryRecorder) key(entity string, id int64) string {
	return fmt.Sprintf("%s/%d", entity, id)
}

func (r *memoryRecorder) Append(_ context.Context, entity string, id int64, rec tracking.ChangeRecord) error {
	if r.records == nil {
		r.records = make(map[string][]tracking.ChangeRecord)
	}
	r.records[r.key(entity, id)] = append(r.records[r.key(entity, id)], rec)
	return nil
}

func (r *memoryRecorder) History(_ context.Context, entity string, id int64) ([]tracking.ChangeRecord, error) {
	return r.records[r.key(entity, id)], nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *memoryRecorder) {
	t.Helper()
	repo := newMemoryRepo()
	recorder := &memoryRecorder{}
	logger := slog.New(slog.NewTextHandler(discard{}, nil))
	return NewService(logger, repo, &memoryCounter{}, recorder), repo, recorder
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

var actor = shared.Identity{UserID: 7, UserName: "mira", Role: shared.RoleAdmin}

func TestCreateAssignsSequentialCodes(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateCustomerRequest{Name: "Acme"}, actor)
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateCustomerRequest{Name: "Globex"}, actor)
	require.NoError(t, err)

	assert.Equal(t, "0001", first.Code)
	assert.Equal(t, "0002", second.Code)
	assert.True(t, first.IsActive)
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateCustomerRequest{}, actor)
	assert.ErrorIs(t, err, shared.ErrValidation)

	bad := "not-an-email"
	_, err = svc.Create(context.Background(), CreateCustomerRequest{Name: "Acme", Email: &bad}, actor)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCodesNotReusedAfterDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateCustomerRequest{Name: "Acme"}, actor)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, first.ID, actor))

	second, err := svc.Create(ctx, CreateCustomerRequest{Name: "Globex"}, actor)
	require.NoError(t, err)
	assert.Equal(t, "0002", second.Code)
}

func TestUpdateRecordsChangedFields(t *testing.T) {
	svc, _, recorder := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateCustomerRequest{Name: "Acme"}, actor)
	require.NoError(t, err)

	newName := "Acme Corp"
	updated, err := svc.Update(ctx, c.ID, UpdateCustomerRequest{Name: &newName}, actor)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", updated.Name)

	history, err := recorder.History(ctx, "customers", c.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	last := history[1]
	assert.Equal(t, tracking.MethodUpdate, last.Method)
	assert.Equal(t, actor.UserName, last.UserName)
	require.Contains(t, last.ChangedFields, "name")
	assert.Equal(t, "Acme", last.ChangedFields["name"].From)
	assert.Equal(t, "Acme Corp", last.ChangedFields["name"].To)
}

func TestUpdateWithoutChangesSkipsHistory(t *testing.T) {
	svc, _, recorder := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateCustomerRequest{Name: "Acme"}, actor)
	require.NoError(t, err)

	_, err = svc.Update(ctx, c.ID, UpdateCustomerRequest{}, actor)
	require.NoError(t, err)

	history, err := recorder.History(ctx, "customers", c.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDeleteAppendsFinalRecord(t *testing.T) {
	svc, repo, recorder := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateCustomerRequest{Name: "Acme"}, actor)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, c.ID, actor))

	_, ok := repo.customers[c.ID]
	assert.False(t, ok)

	history, err := recorder.History(ctx, "customers", c.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, tracking.MethodDelete, history[1].Method)
}

func TestDeleteMissingCustomer(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.Delete(context.Background(), 99, actor)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
