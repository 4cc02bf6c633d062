package auditlog

import "time"

// Config holds the retention caps and append timeout for AuditLog.
type Config struct {
	MaxEntriesPerMarket int64
	MaxEntriesGlobal    int64
	AppendTimeout       time.Duration
}

func NewDefaultConfig() Config {
	return Config{
		MaxEntriesPerMarket: 100_000,
		MaxEntriesGlobal:    1_000_000,
		AppendTimeout:       time.Second,
	}
}

func marketStreamKey(marketID string) string {
	return "audit:market:" + marketID
}

const globalStreamKey = "audit:global"
