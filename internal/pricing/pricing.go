package pricing

import (
	"errors"
	"fmt"
	"math"
)

// TicketType is a closed pricing category. Free-form strings coming from the
// API are parsed into one of these before they reach any business logic.
type TicketType string

const (
	TicketAdult  TicketType = "adult"
	TicketChild  TicketType = "child"
	TicketSenior TicketType = "senior"
)

var (
	ErrUnknownTicketType = errors.New("pricing: unknown ticket type")
	ErrNegativeCount     = errors.New("pricing: ticket count must not be negative")
	ErrNegativeBasePrice = errors.New("pricing: base price must not be negative")
)

// IsValid reports whether t is one of the known ticket types.
func (t TicketType) IsValid() bool {
	switch t {
	case TicketAdult, TicketChild, TicketSenior:
		return true
	}
	return false
}

func (t TicketType) String() string {
	return string(t)
}

// Parse converts a raw string into a TicketType.
func Parse(s string) (TicketType, error) {
	t := TicketType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTicketType, s)
	}
	return t, nil
}

// Multipliers maps each ticket type to its price multiplier.
type Multipliers map[TicketType]float64

// DefaultMultipliers returns the standard pricing configuration.
func DefaultMultipliers() Multipliers {
	return Multipliers{
		TicketAdult:  1.0,
		TicketChild:  0.7,
		TicketSenior: 0.8,
	}
}

// Engine computes booking totals from a showtime base price and per-type
// ticket counts. It is a pure calculator with no side effects.
type Engine struct {
	multipliers Multipliers
}

// NewEngine creates an engine with the given multipliers; nil falls back to
// the defaults.
func NewEngine(multipliers Multipliers) *Engine {
	if multipliers == nil {
		multipliers = DefaultMultipliers()
	}
	return &Engine{multipliers: multipliers}
}

// Price returns the total amount for the requested tickets:
// sum(count * basePrice * multiplier), rounded to the cent with
// round-half-to-even.
func (e *Engine) Price(basePrice float64, ticketCounts map[TicketType]int) (float64, error) {
	if basePrice < 0 {
		return 0, ErrNegativeBasePrice
	}

	var total float64
	for ticketType, count := range ticketCounts {
		multiplier, ok := e.multipliers[ticketType]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownTicketType, ticketType)
		}
		if count < 0 {
			return 0, fmt.Errorf("%w: %s", ErrNegativeCount, ticketType)
		}
		total += float64(count) * basePrice * multiplier
	}

	return roundToCent(total), nil
}

// TotalTickets sums all counts; used to check against the seat count.
func TotalTickets(ticketCounts map[TicketType]int) int {
	total := 0
	for _, count := range ticketCounts {
		total += count
	}
	return total
}

// roundToCent rounds to the currency minor unit using banker's rounding.
func roundToCent(amount float64) float64 {
	return math.RoundToEven(amount*100) / 100
}
