package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 2 * time.Hour

// beginScript opens a new invocation. The id is one past both the counter
// and the invocation stored on the board, so an expired counter can never
// fall behind a board that is still alive. KEYS: board, counter.
var beginScript = redis.NewScript(`
local cur = tonumber(redis.call('HGET', KEYS[1], 'inv') or '0')
local id = redis.call('INCR', KEYS[2])
if id <= cur then
  id = cur + 1
  redis.call('SET', KEYS[2], id)
end
redis.call('HSET', KEYS[1], 'inv', id, 'data', ARGV[1])
redis.call('HINCRBY', KEYS[1], 'ver', 1)
redis.call('PEXPIRE', KEYS[1], ARGV[2])
redis.call('PEXPIRE', KEYS[2], ARGV[2])
return id
`)

// writeScript replaces the snapshot of invocation ARGV[1] and refreshes both
// TTLs. Returns the new version, or 0 when a newer invocation owns the board.
var writeScript = redis.NewScript(`
local cur = tonumber(redis.call('HGET', KEYS[1], 'inv') or '0')
if cur ~= tonumber(ARGV[1]) then return 0 end
redis.call('HSET', KEYS[1], 'data', ARGV[2])
local ver = redis.call('HINCRBY', KEYS[1], 'ver', 1)
redis.call('PEXPIRE', KEYS[1], ARGV[3])
redis.call('PEXPIRE', KEYS[2], ARGV[3])
return ver
`)

type RedisOptions struct {
	Client redis.UniversalClient
	Prefix string
	TTL    time.Duration
	Logger *slog.Logger
}

// Redis shares boards between processes. Invocation ids come from an INCR
// counter per key and every write goes through a compare-and-set script.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(opts RedisOptions) (*Redis, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if opts.Prefix == "" {
		opts.Prefix = "studio:board:"
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Redis{rdb: opts.Client, prefix: opts.Prefix, ttl: opts.TTL, logger: logger}, nil
}

// Connect dials addr and pings it once.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Both keys share a hash tag so the scripts also run on Redis Cluster.
func (r *Redis) boardKey(key string) string { return r.prefix + "{" + key + "}" }
func (r *Redis) seqKey(key string) string   { return r.prefix + "{" + key + "}:seq" }

func (r *Redis) keys(key string) []string {
	return []string{r.boardKey(key), r.seqKey(key)}
}

func (r *Redis) Begin(ctx context.Context, key string, total int) (uint64, error) {
	data, err := json.Marshal(Snapshot{Loading: true, Results: Placeholders(total)})
	if err != nil {
		return 0, fmt.Errorf("board encode: %w", err)
	}
	id, err := beginScript.Run(ctx, r.rdb, r.keys(key), string(data), r.ttl.Milliseconds()).Uint64()
	if err != nil {
		return 0, fmt.Errorf("board begin: %w", err)
	}
	return id, nil
}

func (r *Redis) Settle(ctx context.Context, key string, id uint64, results []Result) error {
	if results == nil {
		results = []Result{}
	}
	return r.write(ctx, key, "settle", Snapshot{Invocation: id, Results: results})
}

func (r *Redis) Fail(ctx context.Context, key string, id uint64, msg string) error {
	return r.write(ctx, key, "fail", Snapshot{Invocation: id, Error: msg, Results: []Result{}})
}

func (r *Redis) Snapshot(ctx context.Context, key string) (Snapshot, error) {
	vals, err := r.rdb.HMGet(ctx, r.boardKey(key), "data", "ver", "inv").Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("board read: %w", err)
	}
	raw, _ := vals[0].(string)
	if raw == "" {
		return Snapshot{Results: []Result{}}, nil
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("board decode: %w", err)
	}
	if ver, ok := vals[1].(string); ok {
		snap.Version, _ = strconv.ParseUint(ver, 10, 64)
	}
	if inv, ok := vals[2].(string); ok {
		snap.Invocation, _ = strconv.ParseUint(inv, 10, 64)
	}
	return snap, nil
}

func (r *Redis) write(ctx context.Context, key, op string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("board encode: %w", err)
	}
	ver, err := writeScript.Run(ctx, r.rdb, r.keys(key),
		strconv.FormatUint(snap.Invocation, 10), string(data), r.ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("board %s: %w", op, err)
	}
	if ver == 0 {
		r.logger.Debug("board write discarded", "key", key, "op", op, "invocation", snap.Invocation)
		return ErrStale
	}
	return nil
}
