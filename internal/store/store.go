package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"wastetracker/internal/analytics"
	"wastetracker/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
	// ErrAdminExists is returned by CreateFirstAdmin once any admin is registered.
	ErrAdminExists = errors.New("an admin already exists")
)

// ListOptions narrows a log listing. Bounds are inclusive calendar dates; entries
// without a date are left out whenever a bound is set.
type ListOptions struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

type AuditFilter struct {
	EntityType string
	Limit      int
}

// WasteLog is the append-only waste log. Snapshot never observes a write half applied.
type WasteLog interface {
	Append(ctx context.Context, entries ...*models.WasteEntry) error
	List(ctx context.Context, opts ListOptions) ([]models.WasteEntry, error)
	Reset(ctx context.Context) (int64, error)
	Snapshot(ctx context.Context) (analytics.Snapshot, error)
}

type Users interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id uint) (*models.User, error)
	CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error)
	// CreateFirstAdmin creates user as an admin only while no admin exists. The
	// check and the insert are atomic.
	CreateFirstAdmin(ctx context.Context, user *models.User) error
}

type AuditTrail interface {
	WriteAudit(ctx context.Context, entry *models.AuditLog) error
	ListAudit(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error)
}

// Store is everything the HTTP shell persists.
type Store interface {
	WasteLog
	Users
	AuditTrail
}

// EntryFromRecord builds a log row from a normalized record.
func EntryFromRecord(rec analytics.Record) *models.WasteEntry {
	e := &models.WasteEntry{
		ItemName:   rec.ItemName,
		Category:   string(rec.Category),
		QuantityKg: rec.QuantityKg,
		Reason:     rec.Reason,
		Cost:       rec.Cost.Round(2),
		Location:   rec.Location,
	}
	if rec.Dated() {
		d := rec.Date
		e.Date = &d
	}
	return e
}

// RawFromEntry renders a stored row in the text form the normalizer consumes.
func RawFromEntry(e models.WasteEntry) analytics.RawRecord {
	raw := analytics.RawRecord{
		ItemName:   e.ItemName,
		Category:   e.Category,
		QuantityKg: strconv.FormatFloat(e.QuantityKg, 'f', -1, 64),
		Reason:     e.Reason,
		Cost:       e.Cost.String(),
		Location:   e.Location,
	}
	if e.Date != nil {
		raw.Date = e.Date.Format(analytics.DateLayout)
	}
	return raw
}

// snapshotOf normalizes stored rows into a frozen snapshot.
func snapshotOf(entries []models.WasteEntry, takenAt time.Time) (analytics.Snapshot, error) {
	raws := make([]analytics.RawRecord, len(entries))
	for i, e := range entries {
		raws[i] = RawFromEntry(e)
	}
	records, err := analytics.NormalizeAll(raws)
	if err != nil {
		return analytics.Snapshot{}, err
	}
	return analytics.Snapshot{Records: records, TakenAt: takenAt}, nil
}

// ErrTooLong marks a text field longer than its column.
var ErrTooLong = errors.New("value too long")

// Column widths of models.WasteEntry, in characters.
const (
	MaxItemNameLen = 200
	MaxReasonLen   = 500
	MaxLocationLen = 100
)

func validateEntries(entries []*models.WasteEntry) error {
	var verr analytics.ValidationError
	for i, e := range entries {
		for _, f := range []struct {
			name, value string
			max         int
		}{
			{"item_name", e.ItemName, MaxItemNameLen},
			{"reason", e.Reason, MaxReasonLen},
			{"location", e.Location, MaxLocationLen},
		} {
			if utf8.RuneCountInString(f.value) > f.max {
				verr.Fields = append(verr.Fields, &analytics.FieldError{
					Row: i + 1, Field: f.name, Err: fmt.Errorf("%w (max %d characters)", ErrTooLong, f.max),
				})
			}
		}
		if e.QuantityKg < 0 {
			verr.Fields = append(verr.Fields, &analytics.FieldError{Row: i + 1, Field: "quantity_kg", Err: analytics.ErrNegativeQuantity})
		}
		if e.Cost.IsNegative() {
			verr.Fields = append(verr.Fields, &analytics.FieldError{Row: i + 1, Field: "cost", Err: analytics.ErrNegativeCost})
		}
	}
	if len(verr.Fields) > 0 {
		return &verr
	}
	return nil
}

func inRange(e models.WasteEntry, opts ListOptions) bool {
	if opts.From == nil && opts.To == nil {
		return true
	}
	if e.Date == nil {
		return false
	}
	d := analytics.DateOnly(*e.Date)
	if opts.From != nil && d.Before(analytics.DateOnly(*opts.From)) {
		return false
	}
	if opts.To != nil && d.After(analytics.DateOnly(*opts.To)) {
		return false
	}
	return true
}
