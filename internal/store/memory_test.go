package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wastetracker/internal/analytics"
	"wastetracker/internal/models"

	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func entry(item, cat string, qty float64, date *time.Time) *models.WasteEntry {
	return &models.WasteEntry{ItemName: item, Category: cat, QuantityKg: qty, Date: date, Cost: decimal.NewFromInt(2), Location: "Kitchen"}
}

func TestMemoryAppendAndList(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	err := m.Append(ctx,
		entry("Milk", "Organic", 5, day(2025, 1, 6)),
		entry("Bottle", "Plastic", 1, nil),
		entry("Bread", "Organic", 2, day(2025, 1, 14)),
	)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	all, err := m.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != 1 || all[2].ID != 3 {
		t.Fatalf("List = %+v", all)
	}

	ranged, _ := m.List(ctx, ListOptions{From: day(2025, 1, 1), To: day(2025, 1, 10)})
	if len(ranged) != 1 || ranged[0].ItemName != "Milk" {
		t.Errorf("ranged list = %+v, want only Milk", ranged)
	}

	limited, _ := m.List(ctx, ListOptions{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("limited list has %d rows, want 2", len(limited))
	}
}

func TestMemoryAppendRejectsNegativeBatch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	bad := entry("Milk", "Organic", -1, nil)
	err := m.Append(ctx, entry("Ok", "Paper", 1, nil), bad)

	var verr *analytics.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Append error = %v, want *ValidationError", err)
	}
	if len(verr.Fields) != 1 || verr.Fields[0].Row != 2 {
		t.Errorf("fields = %+v, want row 2", verr.Fields)
	}
	if !errors.Is(err, analytics.ErrNegativeQuantity) {
		t.Error("error should wrap ErrNegativeQuantity")
	}
	if rows, _ := m.List(ctx, ListOptions{}); len(rows) != 0 {
		t.Errorf("a rejected batch must not be partially applied, got %d rows", len(rows))
	}
}

func TestMemoryAppendRejectsOverlongText(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	long := entry(strings.Repeat("é", MaxItemNameLen+1), "Organic", 1, nil)
	long.Location = strings.Repeat("k", MaxLocationLen+1)
	edge := entry(strings.Repeat("é", MaxItemNameLen), "Organic", 1, nil)

	err := m.Append(ctx, edge, long)
	var verr *analytics.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Append error = %v, want *ValidationError", err)
	}
	if len(verr.Fields) != 2 || verr.Fields[0].Row != 2 || verr.Fields[0].Field != "item_name" || verr.Fields[1].Field != "location" {
		t.Errorf("fields = %v", verr)
	}
	if !errors.Is(err, ErrTooLong) {
		t.Error("error should wrap ErrTooLong")
	}
	if rows, _ := m.List(ctx, ListOptions{}); len(rows) != 0 {
		t.Errorf("a rejected batch must not be partially applied, got %d rows", len(rows))
	}

	if err := m.Append(ctx, edge); err != nil {
		t.Errorf("a name of exactly %d characters should be accepted: %v", MaxItemNameLen, err)
	}
}

func TestMemorySnapshotIsDetached(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Append(ctx, entry("Milk", "Organic", 5, day(2025, 1, 6)), entry("Can", "Metal", 1, nil))

	snap, err := m.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Len() != 2 || snap.Undated() != 1 {
		t.Fatalf("snapshot len=%d undated=%d", snap.Len(), snap.Undated())
	}
	if !snap.Records[0].Cost.Equal(decimal.NewFromInt(2)) {
		t.Errorf("cost = %s, want 2", snap.Records[0].Cost)
	}

	_ = m.Append(ctx, entry("Bread", "Organic", 1, nil))
	if snap.Len() != 2 {
		t.Error("a later append leaked into an earlier snapshot")
	}

	n, _ := m.Reset(ctx)
	if n != 3 {
		t.Errorf("Reset removed %d rows, want 3", n)
	}
	if snap.Len() != 2 {
		t.Error("reset leaked into an earlier snapshot")
	}
	after, _ := m.Snapshot(ctx)
	if after.Len() != 0 {
		t.Errorf("snapshot after reset has %d records", after.Len())
	}
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u := &models.User{Name: "Ada", Email: "ada@example.com", Role: models.RoleAdmin}
	if err := m.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if u.ID == 0 {
		t.Error("CreateUser should assign an ID")
	}
	if err := m.CreateUser(ctx, &models.User{Email: "ADA@example.com"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate email error = %v, want ErrDuplicate", err)
	}

	got, err := m.UserByEmail(ctx, "Ada@Example.com")
	if err != nil || got.ID != u.ID {
		t.Errorf("UserByEmail = %+v, %v", got, err)
	}
	if _, err := m.UserByID(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("UserByID(42) error = %v, want ErrNotFound", err)
	}
	if n, _ := m.CountUsersByRole(ctx, models.RoleAdmin); n != 1 {
		t.Errorf("admin count = %d, want 1", n)
	}
}

func TestMemoryCreateFirstAdminIsAtomic(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	const attempts = 16
	var (
		wg      sync.WaitGroup
		created atomic.Int32
		refused atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := &models.User{Name: "Admin", Email: fmt.Sprintf("admin%d@example.com", i)}
			switch err := m.CreateFirstAdmin(ctx, u); {
			case err == nil:
				created.Add(1)
			case errors.Is(err, ErrAdminExists):
				refused.Add(1)
			default:
				t.Errorf("CreateFirstAdmin error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if created.Load() != 1 || refused.Load() != attempts-1 {
		t.Errorf("created=%d refused=%d, want exactly one admin", created.Load(), refused.Load())
	}
	if n, _ := m.CountUsersByRole(ctx, models.RoleAdmin); n != 1 {
		t.Errorf("admin count = %d, want 1", n)
	}

	op := &models.User{Name: "Op", Email: "op@example.com", Role: models.RoleOperator}
	if err := m.CreateUser(ctx, op); err != nil {
		t.Errorf("CreateUser after the first admin failed: %v", err)
	}
}

func TestMemoryAuditNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_ = m.WriteAudit(ctx, &models.AuditLog{EntityType: "waste_entry", Action: models.AuditActionCreate})
	_ = m.WriteAudit(ctx, &models.AuditLog{EntityType: "waste_log", Action: models.AuditActionReset})
	_ = m.WriteAudit(ctx, &models.AuditLog{EntityType: "waste_entry", Action: models.AuditActionImport})

	logs, _ := m.ListAudit(ctx, AuditFilter{EntityType: "waste_entry"})
	if len(logs) != 2 || logs[0].Action != models.AuditActionImport {
		t.Errorf("ListAudit = %+v", logs)
	}
	limited, _ := m.ListAudit(ctx, AuditFilter{Limit: 1})
	if len(limited) != 1 || limited[0].ID != 3 {
		t.Errorf("limited = %+v", limited)
	}
}

func TestEntryRoundTripThroughRaw(t *testing.T) {
	rec, err := analytics.Normalize(analytics.RawRecord{
		ItemName: " Milk ", Category: "Organic", QuantityKg: "2.5", Date: "2025-01-07", Cost: "$1,204.456",
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	e := EntryFromRecord(rec)
	if e.Date == nil || e.Date.Format(analytics.DateLayout) != "2025-01-07" {
		t.Errorf("date = %v", e.Date)
	}
	if e.Cost.String() != "1204.46" {
		t.Errorf("cost = %s, want rounded to cents", e.Cost)
	}

	raw := RawFromEntry(*e)
	if raw.ItemName != "Milk" || raw.QuantityKg != "2.5" || raw.Date != "2025-01-07" {
		t.Errorf("raw = %+v", raw)
	}
}
