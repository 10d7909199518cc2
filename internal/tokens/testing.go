package tokens

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/khanghh/ktoken/internal/common"
	"github.com/khanghh/ktoken/model"
	"github.com/khanghh/ktoken/params"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB opens a migrated in-memory SQLite database that lives for the
// duration of the test.
func TestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(db))
	return db
}

// TestToken inserts a token for userID that expires after ttl, which may be
// negative to create an already expired record.
func TestToken(t testing.TB, db *gorm.DB, userID string, ttl time.Duration) *model.Token {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	createdAt := now
	if ttl < 0 {
		createdAt = now.Add(2 * ttl)
	}
	token := &model.Token{
		ID:        params.TokenIDPrefix + uuid.NewString(),
		UserID:    userID,
		Scopes:    []string{model.ScopeRead},
		CreatedAt: createdAt,
		ExpiresAt: now.Add(ttl),
	}
	secret, err := common.RandomHex(rand.Reader, params.TokenSecretBytes)
	require.NoError(t, err)
	token.Token = secret
	require.NoError(t, db.Create(token).Error)
	return token
}
