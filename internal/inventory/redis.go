package inventory

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lua script for the all-or-nothing hold. Conflicts are collected across the
// whole seat set before anything is written, so a losing request learns every
// unavailable seat in one round trip.
const luaTryHold = `
-- KEYS[1] = showtime_id
-- ARGV[1] = ttl_seconds
-- ARGV[2] = hold_token
-- ARGV[3..N] = seat_ids

local showtime = KEYS[1]
local ttl = tonumber(ARGV[1])
local token = ARGV[2]
local universe_key = "inv:seats:" .. showtime
local booked_key = "inv:booked:" .. showtime

local conflicts = {}
for i = 3, #ARGV do
    local seat_id = ARGV[i]
    if redis.call("SISMEMBER", universe_key, seat_id) == 0 then
        return {-1, seat_id}
    end
    local hold_key = "inv:hold:" .. showtime .. ":" .. seat_id
    if redis.call("EXISTS", hold_key) == 1 or redis.call("SISMEMBER", booked_key, seat_id) == 1 then
        conflicts[#conflicts + 1] = seat_id
    end
end

if #conflicts > 0 then
    local result = {0}
    for i = 1, #conflicts do
        result[#result + 1] = conflicts[i]
    end
    return result
end

for i = 3, #ARGV do
    local hold_key = "inv:hold:" .. showtime .. ":" .. ARGV[i]
    redis.call("SETEX", hold_key, ttl, token)
end
return {1}
`

// Lua script promoting held seats to booked. Every seat must still carry a
// live hold owned by the caller's token; an expired, missing or foreign hold
// aborts the whole commit.
const luaCommit = `
-- KEYS[1] = showtime_id
-- ARGV[1] = hold_token
-- ARGV[2..N] = seat_ids

local showtime = KEYS[1]
local token = ARGV[1]
local booked_key = "inv:booked:" .. showtime

for i = 2, #ARGV do
    local hold_key = "inv:hold:" .. showtime .. ":" .. ARGV[i]
    local owner = redis.call("GET", hold_key)
    if not owner then
        return {0, ARGV[i]}
    end
    if owner ~= token then
        return {-2, ARGV[i]}
    end
end

for i = 2, #ARGV do
    local seat_id = ARGV[i]
    redis.call("DEL", "inv:hold:" .. showtime .. ":" .. seat_id)
    redis.call("SADD", booked_key, seat_id)
end
return {1}
`

// Lua script releasing seats back to available. With a token, only holds
// owned by that token are freed; the empty token releases unconditionally,
// booked markers included. Deleting absent keys is a no-op, which is what
// makes Release idempotent.
const luaRelease = `
-- KEYS[1] = showtime_id
-- ARGV[1] = hold_token ("" = unconditional)
-- ARGV[2..N] = seat_ids

local showtime = KEYS[1]
local token = ARGV[1]
local booked_key = "inv:booked:" .. showtime

local released = 0
for i = 2, #ARGV do
    local seat_id = ARGV[i]
    local hold_key = "inv:hold:" .. showtime .. ":" .. seat_id
    if token == "" then
        released = released + redis.call("DEL", hold_key)
        released = released + redis.call("SREM", booked_key, seat_id)
    elseif redis.call("GET", hold_key) == token then
        released = released + redis.call("DEL", hold_key)
    end
end
return released
`

// RedisInventory is the shared Inventory backend: seat state lives in Redis
// and hold expiry rides on key TTLs, so an abandoned flow self-heals even if
// this process dies.
type RedisInventory struct {
	client     *redis.Client
	showtimeID string
	holdTTL    time.Duration
}

// RedisProvider hands out Redis-backed inventories.
type RedisProvider struct {
	client  *redis.Client
	holdTTL time.Duration
}

func NewRedisProvider(client *redis.Client, holdTTL time.Duration) *RedisProvider {
	return &RedisProvider{client: client, holdTTL: holdTTL}
}

func (p *RedisProvider) Get(showtimeID string) (Inventory, error) {
	return &RedisInventory{
		client:     p.client,
		showtimeID: showtimeID,
		holdTTL:    p.holdTTL,
	}, nil
}

// Register writes the showtime's seat universe. Existing members are
// untouched, so re-registering after a restart is safe.
func (p *RedisProvider) Register(ctx context.Context, showtimeID string, seatIDs []string) error {
	members := make([]interface{}, len(seatIDs))
	for i, id := range seatIDs {
		members[i] = id
	}
	if err := p.client.SAdd(ctx, universeKey(showtimeID), members...).Err(); err != nil {
		return fmt.Errorf("failed to register showtime seats: %w", err)
	}
	return nil
}

// PreloadScripts loads the Lua scripts into Redis so later calls can use
// EVALSHA.
func (p *RedisProvider) PreloadScripts(ctx context.Context) error {
	for _, script := range []string{luaTryHold, luaCommit, luaRelease} {
		if _, err := p.client.ScriptLoad(ctx, script).Result(); err != nil {
			return fmt.Errorf("failed to load inventory script: %w", err)
		}
	}
	return nil
}

func universeKey(showtimeID string) string {
	return "inv:seats:" + showtimeID
}

func bookedKey(showtimeID string) string {
	return "inv:booked:" + showtimeID
}

func holdKey(showtimeID, seatID string) string {
	return "inv:hold:" + showtimeID + ":" + seatID
}

// eval runs a script, falling back to EVAL when the script cache was flushed.
func (r *RedisInventory) eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	result, err := r.client.EvalSha(ctx, script, keys, args...).Result()
	if err != nil {
		result, err = r.client.Eval(ctx, script, keys, args...).Result()
	}
	return result, err
}

func (r *RedisInventory) TryHold(ctx context.Context, seatIDs []string) (string, error) {
	if len(seatIDs) == 0 {
		return "", ErrNoSeats
	}

	token := uuid.NewString()
	args := make([]interface{}, 0, len(seatIDs)+2)
	args = append(args, strconv.Itoa(int(r.holdTTL.Seconds())), token)
	for _, id := range seatIDs {
		args = append(args, id)
	}

	result, err := r.eval(ctx, luaTryHold, []string{r.showtimeID}, args...)
	if err != nil {
		return "", fmt.Errorf("failed to execute atomic hold: %w", err)
	}

	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) == 0 {
		return "", fmt.Errorf("unexpected result format from hold script")
	}
	flag, ok := resultArray[0].(int64)
	if !ok {
		return "", fmt.Errorf("invalid flag in hold script result")
	}

	switch flag {
	case 1:
		return token, nil
	case -1:
		return "", fmt.Errorf("%w: %v", ErrUnknownSeat, resultArray[1])
	default:
		conflicts := make([]string, 0, len(resultArray)-1)
		for _, raw := range resultArray[1:] {
			if seatID, ok := raw.(string); ok {
				conflicts = append(conflicts, seatID)
			}
		}
		return "", &ConflictError{SeatIDs: conflicts}
	}
}

func (r *RedisInventory) Commit(ctx context.Context, token string, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return ErrNoSeats
	}

	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, token)
	for _, id := range seatIDs {
		args = append(args, id)
	}

	result, err := r.eval(ctx, luaCommit, []string{r.showtimeID}, args...)
	if err != nil {
		return fmt.Errorf("failed to execute atomic commit: %w", err)
	}

	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) == 0 {
		return fmt.Errorf("unexpected result format from commit script")
	}
	flag, ok := resultArray[0].(int64)
	if !ok {
		return fmt.Errorf("invalid flag in commit script result")
	}
	switch flag {
	case 1:
		return nil
	case -2:
		return fmt.Errorf("%w: %v", ErrHoldMismatch, resultArray[1])
	default:
		return fmt.Errorf("%w: %v", ErrSeatNotHeld, resultArray[1])
	}
}

func (r *RedisInventory) Release(ctx context.Context, token string, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}

	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, token)
	for _, id := range seatIDs {
		args = append(args, id)
	}

	if _, err := r.eval(ctx, luaRelease, []string{r.showtimeID}, args...); err != nil {
		return fmt.Errorf("failed to execute atomic release: %w", err)
	}
	return nil
}

func (r *RedisInventory) Snapshot(ctx context.Context) (map[string]State, error) {
	seatIDs, err := r.client.SMembers(ctx, universeKey(r.showtimeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read seat universe: %w", err)
	}
	if len(seatIDs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShowtime, r.showtimeID)
	}

	pipe := r.client.Pipeline()
	holdChecks := make([]*redis.IntCmd, len(seatIDs))
	bookedChecks := make([]*redis.BoolCmd, len(seatIDs))
	for i, seatID := range seatIDs {
		holdChecks[i] = pipe.Exists(ctx, holdKey(r.showtimeID, seatID))
		bookedChecks[i] = pipe.SIsMember(ctx, bookedKey(r.showtimeID), seatID)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read seat states: %w", err)
	}

	snapshot := make(map[string]State, len(seatIDs))
	for i, seatID := range seatIDs {
		switch {
		case bookedChecks[i].Val():
			snapshot[seatID] = StateBooked
		case holdChecks[i].Val() > 0:
			snapshot[seatID] = StateHeld
		default:
			snapshot[seatID] = StateAvailable
		}
	}
	return snapshot, nil
}
