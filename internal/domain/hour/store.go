package hour

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hrops/internal/domain/user"
	"hrops/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const requestColumns = `id, user_id, date, requested_hours, status, created_at, updated_at`

// uniqueViolation is raised by the partial index on active (user_id, date).
const uniqueViolation = "23505"

func scanRequest(row pgx.Row) (HourRequest, error) {
	var r HourRequest
	if err := row.Scan(&r.ID, &r.UserID, &r.Date, &r.RequestedHours, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return HourRequest{}, ErrRequestNotFound
		}
		return HourRequest{}, mapWriteErr(err)
	}
	return r, nil
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateDate
	}
	return err
}

func collect(rows pgx.Rows, err error) ([]HourRequest, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HourRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, r HourRequest) (HourRequest, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return scanRequest(s.DB.QueryRow(ctx, `
    INSERT INTO hour_requests (id, user_id, date, requested_hours, status)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING `+requestColumns, r.ID, r.UserID, r.Date, r.RequestedHours, r.Status))
}

func (s *Store) Update(ctx context.Context, r HourRequest) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE hour_requests
    SET date = $1, requested_hours = $2, updated_at = now()
    WHERE id = $3 AND status = $4
  `, r.Date, r.RequestedHours, r.ID, StatusPending)
	if err != nil {
		return false, mapWriteErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `DELETE FROM hour_requests WHERE id = $1 AND status = $2`, id, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (HourRequest, error) {
	return scanRequest(s.DB.QueryRow(ctx, `SELECT `+requestColumns+` FROM hour_requests WHERE id = $1`, id))
}

func (s *Store) FindByUserID(ctx context.Context, userID string) ([]HourRequest, error) {
	return collect(s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM hour_requests
    WHERE user_id = $1
    ORDER BY date DESC, created_at DESC
  `, userID))
}

func (s *Store) FindByStatus(ctx context.Context, status Status) ([]HourRequest, error) {
	return collect(s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM hour_requests
    WHERE status = $1
    ORDER BY created_at
  `, status))
}

func (s *Store) FindActiveByUserIDAndDate(ctx context.Context, userID string, date time.Time, excludeID string) (HourRequest, error) {
	return scanRequest(s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM hour_requests
    WHERE user_id = $1 AND date = $2 AND status <> $3
      AND ($4 = '' OR id::text <> $4)
    LIMIT 1
  `, userID, date, StatusRejected, excludeID))
}

func (s *Store) FindApprovedOn(ctx context.Context, day time.Time) ([]HourRequest, error) {
	return collect(s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM hour_requests
    WHERE status = $1 AND date = $2
    ORDER BY created_at
  `, StatusApproved, day))
}

func (s *Store) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]HourRequest, error) {
	return collect(s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM hour_requests
    WHERE status = $1 AND created_at < $2
    ORDER BY created_at
  `, StatusPending, cutoff))
}

func (s *Store) Count(ctx context.Context, status Status) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM hour_requests WHERE status = $1`, status).Scan(&n)
	return n, err
}

// Settle follows the same lock order as leave approvals: request row first,
// then the owner's user row.
func (s *Store) Settle(ctx context.Context, id string, decide SettleFunc) (HourRequest, error) {
	var settled HourRequest
	err := querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		req, err := scanRequest(tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM hour_requests WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		users := user.NewStore(tx)
		owner, err := users.LockByID(ctx, req.UserID)
		if err != nil {
			return err
		}
		balance, err := decide(req, owner.MonthlyHourBalance)
		if err != nil {
			return err
		}
		if err := users.UpdateMonthlyHourBalance(ctx, owner.ID, balance); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `
      UPDATE hour_requests SET status = $1, updated_at = now()
      WHERE id = $2
      RETURNING updated_at
    `, StatusApproved, id).Scan(&req.UpdatedAt); err != nil {
			return err
		}
		req.Status = StatusApproved
		settled = req
		return nil
	})
	return settled, err
}

func (s *Store) TransitionFromPending(ctx context.Context, id string, to Status) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE hour_requests SET status = $1, updated_at = now()
    WHERE id = $2 AND status = $3
  `, to, id, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

var _ StoreAPI = (*Store)(nil)
