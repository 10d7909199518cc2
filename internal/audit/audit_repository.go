package audit

import (
	"context"
	"log/slog"

	"github.com/khanghh/ktoken/internal/apperr"
	"github.com/khanghh/ktoken/model"
	"gorm.io/gorm"
)

const msgRecordEventFailed = "failed to record audit event"

type AuditEventRepository interface {
	RecordEvent(ctx context.Context, event *model.AuditEvent) error
}

type auditEventRepository struct {
	db *gorm.DB
}

func (r *auditEventRepository) RecordEvent(ctx context.Context, event *model.AuditEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		slog.Error("Could not record audit event", "eventType", event.EventType, "userID", event.UserID, "error", err)
		return apperr.Internal(msgRecordEventFailed, err)
	}
	return nil
}

func NewAuditEventRepository(db *gorm.DB) AuditEventRepository {
	return &auditEventRepository{
		db: db,
	}
}
