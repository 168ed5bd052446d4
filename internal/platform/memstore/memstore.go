// Package memstore keeps every store in process memory behind one mutex. It
// backs the memory store mode and the service tests.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hrops/internal/domain/attendance"
	"hrops/internal/domain/datecalc"
	"hrops/internal/domain/hour"
	"hrops/internal/domain/leave"
	"hrops/internal/domain/user"
	"hrops/internal/platform/clock"
	"hrops/internal/platform/jobs"
)

var errNegativeBalance = errors.New("balance cannot be negative")

var (
	_ user.StoreAPI       = (*Users)(nil)
	_ leave.StoreAPI      = (*Leaves)(nil)
	_ hour.StoreAPI       = (*Hours)(nil)
	_ attendance.StoreAPI = (*Attendance)(nil)
	_ jobs.RunStore       = (*JobRuns)(nil)
)

type attendanceKey struct {
	userID string
	date   time.Time
}

type jobRun struct {
	JobType     string
	Status      string
	Details     []byte
	StartedAt   time.Time
	CompletedAt time.Time
}

type DB struct {
	mu         sync.Mutex
	clock      clock.Clock
	users      map[string]user.User
	leaves     map[string]leave.LeaveRequest
	hours      map[string]hour.HourRequest
	attendance map[attendanceKey]attendance.Record
	runs       map[string]jobRun
}

func New(clk clock.Clock) *DB {
	if clk == nil {
		clk = clock.System
	}
	return &DB{
		clock:      clk,
		users:      make(map[string]user.User),
		leaves:     make(map[string]leave.LeaveRequest),
		hours:      make(map[string]hour.HourRequest),
		attendance: make(map[attendanceKey]attendance.Record),
		runs:       make(map[string]jobRun),
	}
}

func (db *DB) Users() *Users { return &Users{db: db} }
func (db *DB) Leaves() *Leaves { return &Leaves{db: db} }
func (db *DB) Hours() *Hours { return &Hours{db: db} }
func (db *DB) Attendance() *Attendance { return &Attendance{db: db} }
func (db *DB) JobRuns() *JobRuns { return &JobRuns{db: db} }

// Ping lets the memory backend stand in for a database in readiness checks.
func (db *DB) Ping(context.Context) error { return nil }

// PutUser inserts or replaces u.
func (db *DB) PutUser(u user.User) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = db.clock.Now()
	}
	db.users[u.ID] = u
}

// PutLeave inserts or replaces r as is, for seeding state such as old
// pending requests.
func (db *DB) PutLeave(r leave.LeaveRequest) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.leaves[r.ID] = r
}

func (db *DB) PutHour(r hour.HourRequest) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.hours[r.ID] = r
}

// AttendanceRows returns every attendance record, for assertions.
func (db *DB) AttendanceRows() []attendance.Record {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]attendance.Record, 0, len(db.attendance))
	for _, r := range db.attendance {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

type Users struct{ db *DB }

func (s *Users) FindByID(_ context.Context, id string) (user.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (s *Users) FindAll(context.Context) ([]user.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]user.User, 0, len(s.db.users))
	for _, u := range s.db.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Users) UpdateAnnualLeaveBalance(_ context.Context, id string, value decimal.Decimal) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.setBalance(id, func(u *user.User) { u.AnnualLeaveBalance = value }, value)
}

func (s *Users) UpdateMonthlyHourBalance(_ context.Context, id string, value decimal.Decimal) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.setBalance(id, func(u *user.User) { u.MonthlyHourBalance = value }, value)
}

// setBalance expects db.mu to be held.
func (db *DB) setBalance(id string, set func(*user.User), value decimal.Decimal) error {
	if value.IsNegative() {
		return errNegativeBalance
	}
	u, ok := db.users[id]
	if !ok {
		return user.ErrNotFound
	}
	set(&u)
	db.users[id] = u
	return nil
}

func byCreated[T any](items []T, created func(T) time.Time, id func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return id(items[i]) < id(items[j])
	})
}

type Leaves struct{ db *DB }

func (s *Leaves) list(keep func(leave.LeaveRequest) bool) []leave.LeaveRequest {
	var out []leave.LeaveRequest
	for _, r := range s.db.leaves {
		if keep(r) {
			out = append(out, r)
		}
	}
	byCreated(out, func(r leave.LeaveRequest) time.Time { return r.CreatedAt }, func(r leave.LeaveRequest) string { return r.ID })
	return out
}

// overlapsActive expects db.mu to be held.
func (s *Leaves) overlapsActive(r leave.LeaveRequest) bool {
	if r.Status != leave.StatusPending && r.Status != leave.StatusApproved {
		return false
	}
	for _, other := range s.db.leaves {
		if other.ID == r.ID || other.UserID != r.UserID {
			continue
		}
		if other.Status != leave.StatusPending && other.Status != leave.StatusApproved {
			continue
		}
		if datecalc.Overlaps(r.StartDate, r.EndDate, other.StartDate, other.EndDate) {
			return true
		}
	}
	return false
}

func (s *Leaves) Create(_ context.Context, r leave.LeaveRequest) (leave.LeaveRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.overlapsActive(r) {
		return leave.LeaveRequest{}, leave.ErrOverlap
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := s.db.clock.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	s.db.leaves[r.ID] = r
	return r, nil
}

func (s *Leaves) Update(_ context.Context, r leave.LeaveRequest) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.leaves[r.ID]
	if !ok || cur.Status != leave.StatusPending {
		return false, nil
	}
	cur.StartDate, cur.EndDate = r.StartDate, r.EndDate
	cur.DayType, cur.RequestedDays, cur.Reason = r.DayType, r.RequestedDays, r.Reason
	if s.overlapsActive(cur) {
		return false, leave.ErrOverlap
	}
	cur.UpdatedAt = s.db.clock.Now()
	s.db.leaves[r.ID] = cur
	return true, nil
}

func (s *Leaves) Delete(_ context.Context, id string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.leaves[id]
	if !ok || cur.Status != leave.StatusPending {
		return false, nil
	}
	delete(s.db.leaves, id)
	return true, nil
}

func (s *Leaves) FindByID(_ context.Context, id string) (leave.LeaveRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.leaves[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrRequestNotFound
	}
	return r, nil
}

func (s *Leaves) FindByUserID(_ context.Context, userID string) ([]leave.LeaveRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.list(func(r leave.LeaveRequest) bool { return r.UserID == userID }), nil
}

func (s *Leaves) FindByStatus(_ context.Context, status leave.Status) ([]leave.LeaveRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.list(func(r leave.LeaveRequest) bool { return r.Status == status }), nil
}

func (s *Leaves) FindOverlapping(_ context.Context, userID string, start, end time.Time, excludeID string) ([]leave.LeaveRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.list(func(r leave.LeaveRequest) bool {
		if r.UserID != userID || r.ID == excludeID {
			return false
		}
		if r.Status != leave.StatusPending && r.Status != leave.StatusApproved {
			return false
		}
		return datecalc.Overlaps(start, end, r.StartDate, r.EndDate)
	}), nil
}

func (s *Leaves) FindApprovedOn(_ context.Context, day time.Time) ([]leave.LeaveRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.list(func(r leave.LeaveRequest) bool {
		return r.Status == leave.StatusApproved && datecalc.Covers(r.StartDate, r.EndDate, day)
	}), nil
}

func (s *Leaves) FindPendingCreatedBefore(_ context.Context, cutoff time.Time) ([]leave.LeaveRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.list(func(r leave.LeaveRequest) bool {
		return r.Status == leave.StatusPending && r.CreatedAt.Before(cutoff)
	}), nil
}

func (s *Leaves) Count(_ context.Context, status leave.Status) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.list(func(r leave.LeaveRequest) bool { return r.Status == status })), nil
}

// Settle holds the store mutex across the decision and both writes.
func (s *Leaves) Settle(_ context.Context, id string, decide leave.SettleFunc) (leave.LeaveRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	req, ok := s.db.leaves[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrRequestNotFound
	}
	owner, ok := s.db.users[req.UserID]
	if !ok {
		return leave.LeaveRequest{}, user.ErrNotFound
	}
	balance, err := decide(req, owner.AnnualLeaveBalance)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if err := s.db.setBalance(owner.ID, func(u *user.User) { u.AnnualLeaveBalance = balance }, balance); err != nil {
		return leave.LeaveRequest{}, err
	}
	req.Status = leave.StatusApproved
	req.UpdatedAt = s.db.clock.Now()
	s.db.leaves[id] = req
	return req, nil
}

func (s *Leaves) TransitionFromPending(_ context.Context, id string, to leave.Status) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	req, ok := s.db.leaves[id]
	if !ok || req.Status != leave.StatusPending {
		return false, nil
	}
	req.Status = to
	req.UpdatedAt = s.db.clock.Now()
	s.db.leaves[id] = req
	return true, nil
}

type Hours struct{ db *DB }

func (s *Hours) list(keep func(hour.HourRequest) bool) []hour.HourRequest {
	var out []hour.HourRequest
	for _, r := range s.db.hours {
		if keep(r) {
			out = append(out, r)
		}
	}
	byCreated(out, func(r hour.HourRequest) time.Time { return r.CreatedAt }, func(r hour.HourRequest) string { return r.ID })
	return out
}

// activeOn expects db.mu to be held.
func (s *Hours) activeOn(userID string, date time.Time, excludeID string) (hour.HourRequest, bool) {
	for _, r := range s.db.hours {
		if r.UserID == userID && r.ID != excludeID && r.Status != hour.StatusRejected && r.Date.Equal(date) {
			return r, true
		}
	}
	return hour.HourRequest{}, false
}

func (s *Hours) Create(_ context.Context, r hour.HourRequest) (hour.HourRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, dup := s.activeOn(r.UserID, r.Date, ""); dup && r.Status != hour.StatusRejected {
		return hour.HourRequest{}, hour.ErrDuplicateDate
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := s.db.clock.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	s.db.hours[r.ID] = r
	return r, nil
}

func (s *Hours) Update(_ context.Context, r hour.HourRequest) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.hours[r.ID]
	if !ok || cur.Status != hour.StatusPending {
		return false, nil
	}
	if _, dup := s.activeOn(cur.UserID, r.Date, r.ID); dup {
		return false, hour.ErrDuplicateDate
	}
	cur.Date, cur.RequestedHours = r.Date, r.RequestedHours
	cur.UpdatedAt = s.db.clock.Now()
	s.db.hours[r.ID] = cur
	return true, nil
}

func (s *Hours) Delete(_ context.Context, id string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.hours[id]
	if !ok || cur.Status != hour.StatusPending {
		return false, nil
	}
	delete(s.db.hours, id)
	return true, nil
}

func (s *Hours) FindByID(_ context.Context, id string) (hour.HourRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.hours[id]
	if !ok {
		return hour.HourRequest{}, hour.ErrRequestNotFound
	}
	return r, nil
}

func (s *Hours) FindByUserID(_ context.Context, userID string) ([]hour.HourRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.list(func(r hour.HourRequest) bool { return r.UserID == userID }), nil
}

func (s *Hours) FindByStatus(_ context.Context, status hour.Status) ([]hour.HourRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.list(func(r hour.HourRequest) bool { return r.Status == status }), nil
}

func (s *Hours) FindActiveByUserIDAndDate(_ context.Context, userID string, date time.Time, excludeID string) (hour.HourRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.activeOn(userID, date, excludeID)
	if !ok {
		return hour.HourRequest{}, hour.ErrRequestNotFound
	}
	return r, nil
}

func (s *Hours) FindApprovedOn(_ context.Context, day time.Time) ([]hour.HourRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	day = datecalc.Normalize(day)
	return s.list(func(r hour.HourRequest) bool {
		return r.Status == hour.StatusApproved && r.Date.Equal(day)
	}), nil
}

func (s *Hours) FindPendingCreatedBefore(_ context.Context, cutoff time.Time) ([]hour.HourRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.list(func(r hour.HourRequest) bool {
		return r.Status == hour.StatusPending && r.CreatedAt.Before(cutoff)
	}), nil
}

func (s *Hours) Count(_ context.Context, status hour.Status) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.list(func(r hour.HourRequest) bool { return r.Status == status })), nil
}

func (s *Hours) Settle(_ context.Context, id string, decide hour.SettleFunc) (hour.HourRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	req, ok := s.db.hours[id]
	if !ok {
		return hour.HourRequest{}, hour.ErrRequestNotFound
	}
	owner, ok := s.db.users[req.UserID]
	if !ok {
		return hour.HourRequest{}, user.ErrNotFound
	}
	balance, err := decide(req, owner.MonthlyHourBalance)
	if err != nil {
		return hour.HourRequest{}, err
	}
	if err := s.db.setBalance(owner.ID, func(u *user.User) { u.MonthlyHourBalance = balance }, balance); err != nil {
		return hour.HourRequest{}, err
	}
	req.Status = hour.StatusApproved
	req.UpdatedAt = s.db.clock.Now()
	s.db.hours[id] = req
	return req, nil
}

func (s *Hours) TransitionFromPending(_ context.Context, id string, to hour.Status) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	req, ok := s.db.hours[id]
	if !ok || req.Status != hour.StatusPending {
		return false, nil
	}
	req.Status = to
	req.UpdatedAt = s.db.clock.Now()
	s.db.hours[id] = req
	return true, nil
}

type Attendance struct{ db *DB }

func (s *Attendance) Upsert(_ context.Context, userID string, date time.Time, status attendance.Status) (attendance.Record, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := attendanceKey{userID: userID, date: datecalc.Normalize(date)}
	now := s.db.clock.Now()
	rec, ok := s.db.attendance[key]
	if !ok {
		rec = attendance.Record{ID: uuid.NewString(), UserID: userID, Date: key.date, CreatedAt: now}
	}
	rec.Status = status
	rec.UpdatedAt = now
	s.db.attendance[key] = rec
	return rec, nil
}

func (s *Attendance) Find(_ context.Context, userID string, date time.Time) (attendance.Record, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	rec, ok := s.db.attendance[attendanceKey{userID: userID, date: datecalc.Normalize(date)}]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return rec, nil
}

func (s *Attendance) CreateIfAbsent(_ context.Context, userID string, date time.Time, status attendance.Status) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := attendanceKey{userID: userID, date: datecalc.Normalize(date)}
	if _, ok := s.db.attendance[key]; ok {
		return false, nil
	}
	now := s.db.clock.Now()
	s.db.attendance[key] = attendance.Record{ID: uuid.NewString(), UserID: userID, Date: key.date, Status: status, CreatedAt: now, UpdatedAt: now}
	return true, nil
}

type JobRuns struct{ db *DB }

func (s *JobRuns) CreateRun(_ context.Context, jobType string, startedAt time.Time) (string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	id := uuid.NewString()
	s.db.runs[id] = jobRun{JobType: jobType, Status: jobs.StatusRunning, StartedAt: startedAt}
	return id, nil
}

func (s *JobRuns) FinishRun(_ context.Context, id, status string, details []byte, completedAt time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	run, ok := s.db.runs[id]
	if !ok {
		return errors.New("job run not found")
	}
	run.Status, run.Details, run.CompletedAt = status, details, completedAt
	s.db.runs[id] = run
	return nil
}

// Statuses returns the status of every recorded run of jobType.
func (s *JobRuns) Statuses(jobType string) []string {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []string
	for _, run := range s.db.runs {
		if run.JobType == jobType {
			out = append(out, run.Status)
		}
	}
	sort.Strings(out)
	return out
}
