package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewdesk/crewdesk/internal/hours"
	"github.com/crewdesk/crewdesk/internal/platform/db"
	"github.com/crewdesk/crewdesk/internal/shared"
	"github.com/crewdesk/crewdesk/internal/workflow"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Project, error)
	List(ctx context.Context, req ListProjectsRequest) ([]Project, int, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]Project, error)
	Create(ctx context.Context, project Project) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error

	// workflow.ProjectStore
	GetRecord(ctx context.Context, id int64) (workflow.ProjectRecord, error)
	MarkAutoCompleted(ctx context.Context, id int64, actualHours float64, at time.Time) error
	MarkCompleted(ctx context.Context, id int64, at time.Time) error
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const projectColumns = `id, code, name, description, customer_id, status, assignments,
	total_hours, logged_hours, actual_hours, total_amount, locked, auto_transitioned,
	completed_at, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Project, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM projects WHERE id = $1", projectColumns), id)
	return scanProject(row)
}

func (r *repository) List(ctx context.Context, req ListProjectsRequest) ([]Project, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}

	whereClause := ""
	for i, c := range conditions {
		if i == 0 {
			whereClause = "WHERE " + c
		} else {
			whereClause += " AND " + c
		}
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM projects %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM projects %s ORDER BY code LIMIT $%d OFFSET $%d",
		projectColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProjectRow(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, *p)
	}
	return projects, total, rows.Err()
}

// ListByEmployee returns the employee's assigned projects that are still
// in flight. Completed projects are excluded.
func (r *repository) ListByEmployee(ctx context.Context, employeeID int64) ([]Project, error) {
	member, err := json.Marshal([]map[string]int64{{"employee_id": employeeID}})
	if err != nil {
		return nil, fmt.Errorf("encode assignment filter: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM projects WHERE assignments @> $1 AND status <> $2 ORDER BY code",
		projectColumns)
	rows, err := r.db.Query(ctx, query, member, workflow.ProjectCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProjectRow(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (r *repository) Create(ctx context.Context, project Project) (int64, error) {
	assignments, err := json.Marshal(project.Assignments)
	if err != nil {
		return 0, fmt.Errorf("encode assignments: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, `
		INSERT INTO projects (code, name, description, customer_id, status, assignments,
			total_hours, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		project.Code, project.Name, project.Description, project.CustomerID,
		project.Status, assignments, project.BudgetHours, project.TotalAmount,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if v, ok := updates["assignments"]; ok {
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode assignments: %w", err)
		}
		updates["assignments"] = encoded
	}

	query := "UPDATE projects SET updated_at = NOW()"
	var args []any
	argPos := 1
	for _, col := range []string{"code", "name", "description", "status", "assignments", "total_hours", "total_amount"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) GetRecord(ctx context.Context, id int64) (workflow.ProjectRecord, error) {
	var rec workflow.ProjectRecord
	err := r.db.QueryRow(ctx,
		"SELECT id, status, total_hours, locked FROM projects WHERE id = $1", id,
	).Scan(&rec.ID, &rec.Status, &rec.BudgetHours, &rec.Locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workflow.ProjectRecord{}, shared.ErrNotFound
		}
		return workflow.ProjectRecord{}, err
	}
	return rec, nil
}

func (r *repository) MarkAutoCompleted(ctx context.Context, id int64, actualHours float64, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE projects
		SET status = $2, actual_hours = $3, auto_transitioned = TRUE,
		    completed_at = $4, updated_at = NOW()
		WHERE id = $1`,
		id, workflow.ProjectCompleted, actualHours, at)
	return err
}

func (r *repository) MarkCompleted(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE projects
		SET status = $2, locked = TRUE, completed_at = $3, updated_at = NOW()
		WHERE id = $1`,
		id, workflow.ProjectCompleted, at)
	return err
}

func scanProject(row pgx.Row) (*Project, error) {
	p, err := scanProjectRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanProjectRow(row pgx.Row) (*Project, error) {
	var p Project
	var description pgtype.Text
	var assignments []byte
	var completedAt, createdAt, updatedAt pgtype.Timestamptz

	if err := row.Scan(&p.ID, &p.Code, &p.Name, &description, &p.CustomerID, &p.Status,
		&assignments, &p.BudgetHours, &p.LoggedHours, &p.ActualHours, &p.TotalAmount,
		&p.Locked, &p.AutoTransitioned, &completedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if description.Valid {
		p.Description = &description.String
	}
	if len(assignments) > 0 {
		if err := json.Unmarshal(assignments, &p.Assignments); err != nil {
			return nil, fmt.Errorf("decode assignments: %w", err)
		}
	}
	if p.Assignments == nil {
		p.Assignments = []hours.Assignment{}
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return &p, nil
}
