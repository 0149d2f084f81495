package audit

import (
	"context"
	"testing"

	"wastetracker/internal/models"
	"wastetracker/internal/store"
)

func TestWriteLogEncodesData(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	err := WriteLog(ctx, mem, LogOptions{
		UserID:     7,
		UserName:   "Ada",
		EntityType: EntityWasteLog,
		Action:     models.AuditActionImport,
		Data:       map[string]int{"rows": 3},
	})
	if err != nil {
		t.Fatalf("WriteLog failed: %v", err)
	}
	if err := WriteLog(ctx, mem, LogOptions{EntityType: EntityWasteLog, Action: models.AuditActionReset}); err != nil {
		t.Fatalf("WriteLog failed: %v", err)
	}

	logs, _ := mem.ListAudit(ctx, store.AuditFilter{})
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[0].Data != "null" {
		t.Errorf("absent data stored as %q, want null", logs[0].Data)
	}
	if logs[1].Data != `{"rows":3}` || logs[1].UserName != "Ada" {
		t.Errorf("import log = %+v", logs[1])
	}
}
