package employees

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewdesk/crewdesk/internal/platform/db"
	"github.com/crewdesk/crewdesk/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Employee, error)
	GetByEmail(ctx context.Context, companyEmail string) (*Employee, error)
	List(ctx context.Context, req ListEmployeesRequest) ([]Employee, int, error)
	Create(ctx context.Context, employee Employee) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
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

const employeeColumns = `id, name, designation, company_email, personal_email, phone, per_hour_charge, is_active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Employee, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM employees WHERE id = $1", employeeColumns), id)
	return scanEmployee(row)
}

func (r *repository) GetByEmail(ctx context.Context, companyEmail string) (*Employee, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM employees WHERE company_email = $1", employeeColumns), companyEmail)
	return scanEmployee(row)
}

func (r *repository) List(ctx context.Context, req ListEmployeesRequest) ([]Employee, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR designation ILIKE $%d OR company_email ILIKE $%d)", argPos, argPos, argPos))
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
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM employees %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM employees %s ORDER BY name LIMIT $%d OFFSET $%d",
		employeeColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := scanEmployeeRow(rows)
		if err != nil {
			return nil, 0, err
		}
		employees = append(employees, *e)
	}
	return employees, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, employee Employee) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO employees (name, designation, company_email, personal_email, phone, per_hour_charge, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		employee.Name, employee.Designation, employee.CompanyEmail, employee.PersonalEmail,
		employee.Phone, employee.PerHourCharge, employee.IsActive,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE employees SET updated_at = NOW()"
	var args []any
	argPos := 1
	for _, col := range []string{"name", "designation", "company_email", "personal_email", "phone", "per_hour_charge", "is_active"} {
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
	tag, err := r.db.Exec(ctx, "DELETE FROM employees WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	e, err := scanEmployeeRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func scanEmployeeRow(row pgx.Row) (*Employee, error) {
	var e Employee
	var personalEmail, phone pgtype.Text
	var perHour pgtype.Numeric
	var createdAt, updatedAt pgtype.Timestamptz

	if err := row.Scan(&e.ID, &e.Name, &e.Designation, &e.CompanyEmail, &personalEmail, &phone,
		&perHour, &e.IsActive, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if personalEmail.Valid {
		e.PersonalEmail = &personalEmail.String
	}
	if phone.Valid {
		e.Phone = &phone.String
	}
	if perHour.Valid {
		f, _ := perHour.Float64Value()
		e.PerHourCharge = f.Float64
	}
	if createdAt.Valid {
		e.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		e.UpdatedAt = updatedAt.Time
	}
	return &e, nil
}
