package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"hrops/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const userColumns = `id, name, email, role, COALESCE(department_id, ''), annual_leave_balance, monthly_hour_balance, hiring_date, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.DepartmentID, &u.AnnualLeaveBalance, &u.MonthlyHourBalance, &u.HiringDate, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// LockByID reads the user and holds its row lock until the surrounding
// transaction ends. Only meaningful when DB is a pgx.Tx.
func (s *Store) LockByID(ctx context.Context, id string) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (s *Store) FindAll(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) Create(ctx context.Context, u User) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO users (id, name, email, role, department_id, annual_leave_balance, monthly_hour_balance, hiring_date)
    VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7,$8)
  `, u.ID, u.Name, u.Email, u.Role, u.DepartmentID, u.AnnualLeaveBalance, u.MonthlyHourBalance, u.HiringDate)
	return err
}

func (s *Store) UpdateAnnualLeaveBalance(ctx context.Context, id string, value decimal.Decimal) error {
	return s.updateBalance(ctx, `UPDATE users SET annual_leave_balance = $1 WHERE id = $2`, id, value)
}

func (s *Store) UpdateMonthlyHourBalance(ctx context.Context, id string, value decimal.Decimal) error {
	return s.updateBalance(ctx, `UPDATE users SET monthly_hour_balance = $1 WHERE id = $2`, id, value)
}

func (s *Store) updateBalance(ctx context.Context, sql, id string, value decimal.Decimal) error {
	if value.IsNegative() {
		return errors.New("balance cannot be negative")
	}
	tag, err := s.DB.Exec(ctx, sql, value, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ StoreAPI = (*Store)(nil)
