package model

import "time"

type AuditEvent struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	EventType string    `gorm:"size:64;not null;index"`  // token_issued
	UserID    string    `gorm:"size:255;not null;index"` // owner of the token
	TokenID   string    `gorm:"size:64;index"`           // public id, never the secret
	Scopes    []string  `gorm:"type:text;serializer:json"`
	ExpiresAt time.Time // expiry of the issued token
	RequestID string    `gorm:"size:32"`  // request id of the http call (optional)
	IP        string    `gorm:"size:45"`  // IPv4/IPv6
	UserAgent string    `gorm:"size:512"` // user agent or cli name
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
