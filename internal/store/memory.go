package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"wastetracker/internal/analytics"
	"wastetracker/internal/models"
)

// Memory keeps the log in process memory. Reads copy under a read lock, so a
// snapshot never interleaves with an append or reset.
type Memory struct {
	mu      sync.RWMutex
	entries []models.WasteEntry
	users   []models.User
	audit   []models.AuditLog
	nextID  uint
	nextUID uint
	nextAID uint
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) Append(ctx context.Context, entries ...*models.WasteEntry) error {
	if err := validateEntries(entries); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, e := range entries {
		m.nextID++
		e.ID = m.nextID
		e.CreatedAt = now
		cp := *e
		if e.Date != nil {
			d := *e.Date
			cp.Date = &d
		}
		m.entries = append(m.entries, cp)
	}
	return nil
}

func (m *Memory) List(ctx context.Context, opts ListOptions) ([]models.WasteEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.WasteEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if !inRange(e, opts) {
			continue
		}
		out = append(out, e)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) Reset(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(len(m.entries))
	m.entries = nil
	return n, nil
}

func (m *Memory) Snapshot(ctx context.Context) (analytics.Snapshot, error) {
	m.mu.RLock()
	entries := make([]models.WasteEntry, len(m.entries))
	copy(entries, m.entries)
	takenAt := m.now()
	m.mu.RUnlock()

	return snapshotOf(entries, takenAt)
}

func (m *Memory) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createUserLocked(user)
}

func (m *Memory) CreateFirstAdmin(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Role == models.RoleAdmin {
			return ErrAdminExists
		}
	}
	user.Role = models.RoleAdmin
	return m.createUserLocked(user)
}

func (m *Memory) createUserLocked(user *models.User) error {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	m.nextUID++
	user.ID = m.nextUID
	user.CreatedAt = m.now()
	user.UpdatedAt = user.CreatedAt
	m.users = append(m.users, *user)
	return nil
}

func (m *Memory) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UserByID(ctx context.Context, id uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (m *Memory) WriteAudit(ctx context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextAID++
	entry.ID = m.nextAID
	entry.CreatedAt = m.now()
	m.audit = append(m.audit, *entry)
	return nil
}

// ListAudit returns entries newest first.
func (m *Memory) ListAudit(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.AuditLog, 0)
	for i := len(m.audit) - 1; i >= 0; i-- {
		a := m.audit[i]
		if filter.EntityType != "" && a.EntityType != filter.EntityType {
			continue
		}
		out = append(out, a)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}
