package params

import "time"

const (
	ServerBodyLimit       = 65536 // 64 KiB
	ServerIdleTimeout     = 30 * time.Second
	ServerReadTimeout     = 10 * time.Second
	ServerWriteTimeout    = 10 * time.Second
	HealthCheckServerAddr = ":3001" // health check server address
	APIKeyHeader          = "X-API-Key"
	DefaultAPIKey         = "dev-api-key-12345" // development fallback when API_KEY is unset
	TokenIDPrefix         = "token_"
	TokenSecretBytes      = 32       // random bytes per issued token, hex encoded
	MaxTokenLifetime      = 52560000 // minutes, 100 years of 365 days
	ActiveTokensKeyPrefix = "at:"
	DefaultCacheTTL       = 30 * time.Second // time to live for cached active token lookups
	RequestIDNode         = 1                // snowflake node used for request ids
)
