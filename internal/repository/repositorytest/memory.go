// Package repositorytest provides in-memory repositories for tests. They
// mirror the MySQL constraints the services rely on: unique emails and
// set-null of created_by and activity actors on delete.
package repositorytest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "adminconsole/internal/errors"
	"adminconsole/internal/model"
	"adminconsole/internal/repository"
)

// Users is an in-memory repository.UserRepository.
type Users struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]model.User
	clock  time.Time
	logs   *ActivityLogs

	// Err, when set, is returned by every call.
	Err error
	// Calls counts calls by method name.
	Calls map[string]int
}

var _ repository.UserRepository = (*Users)(nil)

// NewUsers creates an empty repository. logs may be nil; when set, deleting a
// user nulls the actor of its entries.
func NewUsers(logs *ActivityLogs) *Users {
	return &Users{
		rows:  make(map[uint]model.User),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		logs:  logs,
		Calls: make(map[string]int),
	}
}

func (r *Users) enter(method string) error {
	r.Calls[method]++
	return r.Err
}

// tick returns strictly increasing timestamps so ordering is deterministic.
func (r *Users) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *Users) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("Create"); err != nil {
		return err
	}
	for _, row := range r.rows {
		if strings.EqualFold(row.Email, user.Email) {
			return apperrors.ErrDuplicateEmail
		}
	}
	r.nextID++
	user.ID = r.nextID
	now := r.tick()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.rows[user.ID] = *user
	return nil
}

func (r *Users) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("Update"); err != nil {
		return err
	}
	row, ok := r.rows[user.ID]
	if !ok {
		return nil
	}
	for id, other := range r.rows {
		if id != user.ID && strings.EqualFold(other.Email, user.Email) {
			return apperrors.ErrDuplicateEmail
		}
	}
	row.Name = user.Name
	row.Email = user.Email
	row.Role = user.Role
	row.Status = user.Status
	row.UpdatedAt = r.tick()
	user.UpdatedAt = row.UpdatedAt
	r.rows[user.ID] = row
	return nil
}

func (r *Users) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("Delete"); err != nil {
		return err
	}
	if _, ok := r.rows[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.rows, id)
	for otherID, row := range r.rows {
		if row.CreatedBy != nil && *row.CreatedBy == id {
			row.CreatedBy = nil
			r.rows[otherID] = row
		}
	}
	if r.logs != nil {
		r.logs.nullActor(id)
	}
	return nil
}

func (r *Users) FindByID(_ context.Context, id uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("FindByID"); err != nil {
		return nil, err
	}
	row, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &row, nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("FindByEmail"); err != nil {
		return nil, err
	}
	for _, row := range r.rows {
		if strings.EqualFold(row.Email, email) {
			return &row, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *Users) List(_ context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("List"); err != nil {
		return nil, err
	}
	return r.sortedLocked(), nil
}

func (r *Users) Recent(_ context.Context, limit int) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("Recent"); err != nil {
		return nil, err
	}
	users := r.sortedLocked()
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *Users) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("Count"); err != nil {
		return 0, err
	}
	return int64(len(r.rows)), nil
}

// Mutations returns the number of calls that write.
func (r *Users) Mutations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Calls["Create"] + r.Calls["Update"] + r.Calls["Delete"]
}

func (r *Users) sortedLocked() []model.User {
	users := make([]model.User, 0, len(r.rows))
	for _, row := range r.rows {
		users = append(users, row)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID > users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users
}

// ActivityLogs is an in-memory repository.ActivityLogRepository.
type ActivityLogs struct {
	mu      sync.Mutex
	seq     uint64
	entries []model.ActivityLog

	// Err, when set, is returned by Create.
	Err error
}

var _ repository.ActivityLogRepository = (*ActivityLogs)(nil)

// NewActivityLogs creates an empty log.
func NewActivityLogs() *ActivityLogs {
	return &ActivityLogs{}
}

func (r *ActivityLogs) Create(_ context.Context, entry *model.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.seq++
	entry.Seq = r.seq
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *ActivityLogs) CountSince(_ context.Context, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.entries {
		if !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *ActivityLogs) Recent(_ context.Context, limit int) ([]model.ActivityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]model.ActivityLog(nil), r.entries...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Seq > out[j].Seq
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Entries returns a copy of all entries in write order.
func (r *ActivityLogs) Entries() []model.ActivityLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ActivityLog(nil), r.entries...)
}

func (r *ActivityLogs) nullActor(id uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].UserID != nil && *r.entries[i].UserID == id {
			r.entries[i].UserID = nil
		}
	}
}
