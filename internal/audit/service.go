package audit

import (
	"context"
	"fmt"

	"wastetracker/internal/logger"
	"wastetracker/internal/models"
	"wastetracker/internal/store"

	"github.com/bytedance/sonic"
)

const (
	EntityWasteEntry = "waste_entry"
	EntityWasteLog   = "waste_log"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Data        any
}

// WriteLog records one change to the log. Data is stored as JSON, "null" when absent.
func WriteLog(ctx context.Context, trail store.AuditTrail, opts LogOptions) error {
	data := "null"
	if opts.Data != nil {
		if s, err := sonic.MarshalString(opts.Data); err == nil {
			data = s
		} else {
			logger.Warnf(ctx, "audit: could not encode %s data: %v", opts.EntityType, err)
		}
	}

	entry := &models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		Data:        data,
	}
	if err := trail.WriteAudit(ctx, entry); err != nil {
		return fmt.Errorf("audit log could not be saved: %w", err)
	}
	return nil
}
