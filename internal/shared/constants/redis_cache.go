package constants

import "time"

// Redis cache keys and TTLs.
// Pattern: cinebook:{module}:{operation}:{identifier}

const (
	CACHE_PREFIX = "cinebook"
)

// Seat map cache: short TTL because seat state moves under load. The
// reservation path never reads this cache, so staleness only affects
// rendering.
const (
	CACHE_KEY_SEATMAP  = CACHE_PREFIX + ":showtimes:seatmap:uuid:" // + showtime-id
	CACHE_KEY_SHOWTIME = CACHE_PREFIX + ":showtimes:detail:uuid:"  // + showtime-id
)

const (
	TTL_SEATMAP  = 5 * time.Second
	TTL_SHOWTIME = 15 * time.Minute
)

func BuildSeatMapKey(showtimeID string) string {
	return CACHE_KEY_SEATMAP + showtimeID
}

func BuildShowtimeDetailKey(showtimeID string) string {
	return CACHE_KEY_SHOWTIME + showtimeID
}
