// Package auditlog implements an append-only audit trail for trades: two
// Redis sorted sets per trade (a per-market stream and a global stream),
// keyed by a strictly monotonic "<unix_millis>-<sequence>" id, with
// range, tailing, and stats queries plus approximate retention trimming.
package auditlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vatix-Protocol/vatix-backend/internal/logging"
	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

// ErrUnavailable signals the audit store could not be reached. The submit
// path appends only after its transaction has committed, so this error does
// not roll back the order or its trades; service.Submit reports it wrapped
// in a *service.AuditFailureError carrying the committed order id.
var ErrUnavailable = errors.New("auditlog: storage unavailable")

// appendLua atomically assigns the next strictly-increasing id for a
// stream and appends the entry, so concurrent appenders never race on id
// assignment. If the caller's wall-clock millis regresses or collides
// with the stream's last id, it reuses the last id's millis with the
// sequence incremented by one, rather than the caller's clock.
const appendLua = `
local key = KEYS[1]
local callerMillis = tonumber(ARGV[1])
local payload = ARGV[2]
local maxlen = tonumber(ARGV[3])

local last = redis.call('ZREVRANGE', key, 0, 0)
local useMillis = callerMillis
local seq = 0

if #last > 0 then
  local sep = string.find(last[1], '|')
  local lastID = string.sub(last[1], 1, sep - 1)
  local dash = string.find(lastID, '-')
  local lastMillis = tonumber(string.sub(lastID, 1, dash - 1))
  local lastSeq = tonumber(string.sub(lastID, dash + 1))
  if callerMillis <= lastMillis then
    useMillis = lastMillis
    seq = lastSeq + 1
  end
end

local id = string.format('%d-%010d', useMillis, seq)
local member = id .. '|' .. payload
redis.call('ZADD', key, useMillis, member)
if maxlen > 0 then
  redis.call('ZREMRANGEBYRANK', key, 0, -maxlen - 1)
end
return id
`

// AuditLog is the Redis-backed append-only audit trail shared by every
// (market,outcome) book.
type AuditLog struct {
	rdb      *redis.Client
	appendSc *redis.Script
	cfg      Config
	log      *logging.Logger
}

func New(rdb *redis.Client, cfg Config, log *logging.Logger) *AuditLog {
	return &AuditLog{rdb: rdb, appendSc: redis.NewScript(appendLua), cfg: cfg, log: log}
}

// Append writes one trade to both its market stream and the global stream,
// under the configured hard deadline. It returns the two assigned ids
// (market-stream id, global-stream id); either failing is ErrUnavailable.
func (a *AuditLog) Append(ctx context.Context, t *types.Trade, loggedAt time.Time) (marketID, globalID string, err error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.AppendTimeout)
	defer cancel()

	entry := entryFromTrade(t, loggedAt)
	payload, err := marshalPayload(entry)
	if err != nil {
		return "", "", fmt.Errorf("auditlog: encode entry: %w", err)
	}

	millis := loggedAt.UnixMilli()

	marketID, err = a.appendToStream(ctx, marketStreamKey(t.MarketID), millis, payload, a.cfg.MaxEntriesPerMarket)
	if err != nil {
		return "", "", errUnavailable(err)
	}

	globalID, err = a.appendToStream(ctx, globalStreamKey, millis, payload, a.cfg.MaxEntriesGlobal)
	if err != nil {
		return "", "", errUnavailable(err)
	}

	return marketID, globalID, nil
}

func (a *AuditLog) appendToStream(ctx context.Context, key string, millis int64, payload string, maxLen int64) (string, error) {
	res, err := a.appendSc.Run(ctx, a.rdb, []string{key}, millis, payload, maxLen).Result()
	if err != nil {
		return "", err
	}
	id, ok := res.(string)
	if !ok {
		return "", fmt.Errorf("auditlog: unexpected append result type %T", res)
	}
	if id != naiveID(millis) {
		a.log.Warn("audit append id fell back to a sequence-adjusted id; caller clock may have regressed or collided",
			logging.String("stream", key), logging.String("id", id))
	}
	return id, nil
}

// naiveID is the id appendLua assigns when the caller's millis is clear of
// the stream's last id: no collision, no regression, sequence zero.
func naiveID(millis int64) string {
	return fmt.Sprintf("%d-%010d", millis, 0)
}

func errUnavailable(cause error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, cause)
}

// GetForMarket returns up to limit entries for a market, oldest first.
// limit defaults to 100 and is capped at 1000.
func (a *AuditLog) GetForMarket(ctx context.Context, marketID string, limit int64) ([]Entry, error) {
	limit = clampLimit(limit)
	members, err := a.rdb.ZRangeWithScores(ctx, marketStreamKey(marketID), 0, limit-1).Result()
	if err != nil {
		return nil, errUnavailable(err)
	}
	return decodeMembers(members)
}

// GetRecentGlobal returns up to limit entries from the global stream,
// newest first.
func (a *AuditLog) GetRecentGlobal(ctx context.Context, limit int64) ([]Entry, error) {
	limit = clampLimit(limit)
	members, err := a.rdb.ZRevRangeWithScores(ctx, globalStreamKey, 0, limit-1).Result()
	if err != nil {
		return nil, errUnavailable(err)
	}
	return decodeMembers(members)
}

// GetRange returns every entry for a market whose id falls within
// [startTS, endTS] (inclusive, by millisecond score).
func (a *AuditLog) GetRange(ctx context.Context, marketID string, startTS, endTS time.Time) ([]Entry, error) {
	members, err := a.rdb.ZRangeByScoreWithScores(ctx, marketStreamKey(marketID), &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", startTS.UnixMilli()),
		Max: fmt.Sprintf("%d", endTS.UnixMilli()),
	}).Result()
	if err != nil {
		return nil, errUnavailable(err)
	}
	return decodeMembers(members)
}

// Stats is the AuditStreamStats read model: count, oldest id, newest id.
type Stats struct {
	Count    int64
	OldestID string
	NewestID string
}

func (a *AuditLog) Stats(ctx context.Context, marketID string) (Stats, error) {
	key := marketStreamKey(marketID)

	count, err := a.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return Stats{}, errUnavailable(err)
	}
	if count == 0 {
		return Stats{}, nil
	}

	oldest, err := a.rdb.ZRange(ctx, key, 0, 0).Result()
	if err != nil {
		return Stats{}, errUnavailable(err)
	}
	newest, err := a.rdb.ZRevRange(ctx, key, 0, 0).Result()
	if err != nil {
		return Stats{}, errUnavailable(err)
	}

	oldestEntry, err := unmarshalMember(oldest[0])
	if err != nil {
		return Stats{}, err
	}
	newestEntry, err := unmarshalMember(newest[0])
	if err != nil {
		return Stats{}, err
	}

	return Stats{Count: count, OldestID: oldestEntry.ID, NewestID: newestEntry.ID}, nil
}

func decodeMembers(members []redis.Z) ([]Entry, error) {
	out := make([]Entry, 0, len(members))
	for _, m := range members {
		member, ok := m.Member.(string)
		if !ok {
			continue
		}
		e, err := unmarshalMember(member)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func clampLimit(limit int64) int64 {
	if limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
