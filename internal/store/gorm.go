package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wastetracker/internal/analytics"
	"wastetracker/internal/models"

	"gorm.io/gorm"
)

const appendBatchSize = 500

// Gorm persists the log in Postgres through gorm.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// Append writes all entries in one transaction; either every row lands or none does.
func (g *Gorm) Append(ctx context.Context, entries ...*models.WasteEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := validateEntries(entries); err != nil {
		return err
	}

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(entries, appendBatchSize).Error
	})
	if err != nil {
		return wrapErr(fmt.Errorf("append waste entries: %w", err))
	}
	return nil
}

func (g *Gorm) List(ctx context.Context, opts ListOptions) ([]models.WasteEntry, error) {
	q := g.db.WithContext(ctx).Model(&models.WasteEntry{})
	if opts.From != nil {
		q = q.Where("date >= ?", analytics.DateOnly(*opts.From))
	}
	if opts.To != nil {
		q = q.Where("date <= ?", analytics.DateOnly(*opts.To))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var entries []models.WasteEntry
	if err := q.Order("id ASC").Find(&entries).Error; err != nil {
		return nil, wrapErr(fmt.Errorf("list waste entries: %w", err))
	}
	return entries, nil
}

func (g *Gorm) Reset(ctx context.Context) (int64, error) {
	res := g.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.WasteEntry{})
	if res.Error != nil {
		return 0, wrapErr(fmt.Errorf("reset waste log: %w", res.Error))
	}
	return res.RowsAffected, nil
}

// Snapshot reads the whole log inside a read-only repeatable-read transaction.
func (g *Gorm) Snapshot(ctx context.Context) (analytics.Snapshot, error) {
	var (
		entries []models.WasteEntry
		takenAt time.Time
	)
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		takenAt = time.Now()
		return tx.Order("id ASC").Find(&entries).Error
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return analytics.Snapshot{}, wrapErr(fmt.Errorf("snapshot waste log: %w", err))
	}
	return snapshotOf(entries, takenAt)
}

func (g *Gorm) CreateUser(ctx context.Context, user *models.User) error {
	if err := g.db.WithContext(ctx).Create(user).Error; err != nil {
		return wrapErr(fmt.Errorf("create user: %w", err))
	}
	return nil
}

// CreateFirstAdmin takes an exclusive lock on users for the transaction, so two
// concurrent registrations cannot both see an empty admin count.
func (g *Gorm) CreateFirstAdmin(ctx context.Context, user *models.User) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAdminExists
		}
		user.Role = models.RoleAdmin
		return tx.Create(user).Error
	})
	if errors.Is(err, ErrAdminExists) {
		return err
	}
	if err != nil {
		return wrapErr(fmt.Errorf("create first admin: %w", err))
	}
	return nil
}

func (g *Gorm) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := g.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

func (g *Gorm) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := g.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

func (g *Gorm) CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error) {
	var n int64
	if err := g.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&n).Error; err != nil {
		return 0, wrapErr(fmt.Errorf("count users: %w", err))
	}
	return n, nil
}

func (g *Gorm) WriteAudit(ctx context.Context, entry *models.AuditLog) error {
	if err := g.db.WithContext(ctx).Create(entry).Error; err != nil {
		return wrapErr(fmt.Errorf("write audit log: %w", err))
	}
	return nil
}

func (g *Gorm) ListAudit(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error) {
	q := g.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	logs := make([]models.AuditLog, 0)
	if err := q.Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, wrapErr(fmt.Errorf("list audit logs: %w", err))
	}
	return logs, nil
}

func wrapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
