// Package locks holds the two critical-section primitives the submit
// path needs: a per-(user,market) admission lock, backed by Redis so it
// holds across process instances, and a per-(market,outcome) matching
// lock, a process-local mutex registry since it never leaves memory.
package locks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRateLimited is returned when the admission lock is already held.
var ErrRateLimited = errors.New("admission lock held: rate limited")

// unlockLua deletes a lock key only if its value still matches the
// caller's token, so a holder can never release a lock it no longer owns
// after the TTL has expired and a different caller acquired it.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// AdmissionLocker is a per-(user_address, market_id) admission lock: a
// single non-blocking acquire attempt with a TTL, preventing a user from
// submitting two concurrent orders against the same market.
type AdmissionLocker struct {
	rdb      *redis.Client
	unlockSc *redis.Script
	ttl      time.Duration
}

func NewAdmissionLocker(rdb *redis.Client, ttl time.Duration) *AdmissionLocker {
	return &AdmissionLocker{rdb: rdb, unlockSc: redis.NewScript(unlockLua), ttl: ttl}
}

func admissionKey(userAddress, marketID string) string {
	return "admission:" + userAddress + ":" + marketID
}

// Acquire makes a single, non-blocking attempt to take the lock for
// (userAddress, marketID). On success it returns a release func that must
// be called exactly once (it is safe to call more than once); on
// contention it returns ErrRateLimited.
func (a *AdmissionLocker) Acquire(ctx context.Context, userAddress, marketID string) (func(), error) {
	token := uuid.New().String()
	key := admissionKey(userAddress, marketID)

	ok, err := a.rdb.SetNX(ctx, key, token, a.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRateLimited
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true

		// Release even if the caller's context is already done; the
		// admission lock must be freed even when the submit itself failed.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = a.unlockSc.Run(releaseCtx, a.rdb, []string{key}, token).Err()
	}
	return release, nil
}
