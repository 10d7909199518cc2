// Package audit keeps a trail of token issuance. Events carry the public
// token id only, the secret is never written.
package audit

import (
	"context"
	"time"

	"github.com/khanghh/ktoken/model"
)

const (
	EventTypeTokenIssued = "token_issued"
)

type TokenIssuedRecord struct {
	UserID    string
	TokenID   string
	Scopes    []string
	ExpiresAt time.Time
	RequestID string
	IP        string
	UserAgent string
}

type Recorder struct {
	repo AuditEventRepository
}

func (r *Recorder) RecordTokenIssued(ctx context.Context, record TokenIssuedRecord) error {
	return r.repo.RecordEvent(ctx, &model.AuditEvent{
		EventType: EventTypeTokenIssued,
		UserID:    record.UserID,
		TokenID:   record.TokenID,
		Scopes:    record.Scopes,
		ExpiresAt: record.ExpiresAt,
		RequestID: record.RequestID,
		IP:        record.IP,
		UserAgent: record.UserAgent,
	})
}

func NewRecorder(repo AuditEventRepository) *Recorder {
	return &Recorder{repo: repo}
}
