package persistence

import "time"

// Config holds the pool timeout and retry-backoff settings for Gateway.
type Config struct {
	DatabaseURL    string
	MaxWait        time.Duration
	TxTimeout      time.Duration
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	MaxAttempts    int
}

func NewDefaultConfig() Config {
	return Config{
		MaxWait:        10 * time.Second,
		TxTimeout:      30 * time.Second,
		RetryBaseDelay: 50 * time.Millisecond,
		RetryMaxDelay:  2 * time.Second,
		MaxAttempts:    3,
	}
}
