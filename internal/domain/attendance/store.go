package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"hrops/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const recordColumns = `id, user_id, date, status, created_at, updated_at`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	if err := row.Scan(&r.ID, &r.UserID, &r.Date, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}
	return r, nil
}

func (s *Store) Upsert(ctx context.Context, userID string, date time.Time, status Status) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    INSERT INTO attendance (id, user_id, date, status)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (user_id, date) DO UPDATE
    SET status = EXCLUDED.status, updated_at = now()
    RETURNING `+recordColumns, uuid.NewString(), userID, date, status))
}

func (s *Store) Find(ctx context.Context, userID string, date time.Time) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM attendance
    WHERE user_id = $1 AND date = $2
  `, userID, date))
}

func (s *Store) CreateIfAbsent(ctx context.Context, userID string, date time.Time, status Status) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO attendance (id, user_id, date, status)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (user_id, date) DO NOTHING
  `, uuid.NewString(), userID, date, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

var _ StoreAPI = (*Store)(nil)
