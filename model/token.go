package model

import (
	"encoding/json"
	"time"
)

const (
	ScopeRead   = "read"
	ScopeWrite  = "write"
	ScopeDelete = "delete"
)

// TimeFormat renders timestamps as ISO-8601 in UTC with millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Token is an issued opaque bearer credential. Records are never updated or
// deleted, expiry is only checked when reading.
type Token struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	UserID    string    `gorm:"size:255;not null;index:idx_token_user_expires,priority:1" json:"userId"`
	Scopes    []string  `gorm:"type:text;serializer:json;not null" json:"scopes"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	ExpiresAt time.Time `gorm:"not null;index:idx_token_user_expires,priority:2" json:"expiresAt"`
	Token     string    `gorm:"size:64;not null;uniqueIndex" json:"token"`
}

func (t Token) MarshalJSON() ([]byte, error) {
	type alias Token
	return json.Marshal(struct {
		alias
		CreatedAt string `json:"createdAt"`
		ExpiresAt string `json:"expiresAt"`
	}{
		alias:     alias(t),
		CreatedAt: t.CreatedAt.UTC().Format(TimeFormat),
		ExpiresAt: t.ExpiresAt.UTC().Format(TimeFormat),
	})
}

// IsActive reports whether the token has not expired at the given instant.
func (t *Token) IsActive(now time.Time) bool {
	return t.ExpiresAt.After(now)
}

func IsValidScope(scope string) bool {
	switch scope {
	case ScopeRead, ScopeWrite, ScopeDelete:
		return true
	}
	return false
}
