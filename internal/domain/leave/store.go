package leave

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

const requestColumns = `id, user_id, start_date, end_date, day_type, requested_days, COALESCE(reason, ''), status, created_at, updated_at`

// exclusionViolation is raised by leave_requests_no_overlap.
const exclusionViolation = "23P01"

func scanRequest(row pgx.Row) (LeaveRequest, error) {
	var r LeaveRequest
	if err := row.Scan(&r.ID, &r.UserID, &r.StartDate, &r.EndDate, &r.DayType, &r.RequestedDays, &r.Reason, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LeaveRequest{}, ErrRequestNotFound
		}
		return LeaveRequest{}, mapWriteErr(err)
	}
	return r, nil
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
		return ErrOverlap
	}
	return err
}

func collect(rows pgx.Rows, err error) ([]LeaveRequest, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaveRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, r LeaveRequest) (LeaveRequest, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return scanRequest(s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (id, user_id, start_date, end_date, day_type, requested_days, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8)
    RETURNING `+requestColumns, r.ID, r.UserID, r.StartDate, r.EndDate, r.DayType, r.RequestedDays, r.Reason, r.Status))
}

func (s *Store) Update(ctx context.Context, r LeaveRequest) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET start_date = $1, end_date = $2, day_type = $3, requested_days = $4, reason = NULLIF($5,''), updated_at = now()
    WHERE id = $6 AND status = $7
  `, r.StartDate, r.EndDate, r.DayType, r.RequestedDays, r.Reason, r.ID, StatusPending)
	if err != nil {
		return false, mapWriteErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `DELETE FROM leave_requests WHERE id = $1 AND status = $2`, id, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (LeaveRequest, error) {
	return scanRequest(s.DB.QueryRow(ctx, `SELECT `+requestColumns+` FROM leave_requests WHERE id = $1`, id))
}

func (s *Store) FindByUserID(ctx context.Context, userID string) ([]LeaveRequest, error) {
	return collect(s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE user_id = $1
    ORDER BY start_date DESC, created_at DESC
  `, userID))
}

func (s *Store) FindByStatus(ctx context.Context, status Status) ([]LeaveRequest, error) {
	return collect(s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE status = $1
    ORDER BY created_at
  `, status))
}

func (s *Store) FindOverlapping(ctx context.Context, userID string, start, end time.Time, excludeID string) ([]LeaveRequest, error) {
	return collect(s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE user_id = $1
      AND status IN ($2, $3)
      AND start_date <= $5
      AND end_date >= $4
      AND ($6 = '' OR id::text <> $6)
  `, userID, StatusPending, StatusApproved, start, end, excludeID))
}

func (s *Store) FindApprovedOn(ctx context.Context, day time.Time) ([]LeaveRequest, error) {
	return collect(s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE status = $1 AND start_date <= $2 AND end_date >= $2
    ORDER BY created_at
  `, StatusApproved, day))
}

func (s *Store) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]LeaveRequest, error) {
	return collect(s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE status = $1 AND created_at < $2
    ORDER BY created_at
  `, StatusPending, cutoff))
}

func (s *Store) Count(ctx context.Context, status Status) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM leave_requests WHERE status = $1`, status).Scan(&n)
	return n, err
}

// Settle locks the request row and then the owner's user row, so concurrent
// approvals for the same user are serialized on the user lock.
func (s *Store) Settle(ctx context.Context, id string, decide SettleFunc) (LeaveRequest, error) {
	var settled LeaveRequest
	err := querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		req, err := scanRequest(tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM leave_requests WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		users := user.NewStore(tx)
		owner, err := users.LockByID(ctx, req.UserID)
		if err != nil {
			return err
		}
		balance, err := decide(req, owner.AnnualLeaveBalance)
		if err != nil {
			return err
		}
		if err := users.UpdateAnnualLeaveBalance(ctx, owner.ID, balance); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `
      UPDATE leave_requests SET status = $1, updated_at = now()
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
    UPDATE leave_requests SET status = $1, updated_at = now()
    WHERE id = $2 AND status = $3
  `, to, id, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

var _ StoreAPI = (*Store)(nil)
