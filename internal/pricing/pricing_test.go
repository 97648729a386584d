package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice_Deterministic(t *testing.T) {
	engine := NewEngine(nil)

	counts := map[TicketType]int{TicketAdult: 2, TicketChild: 1}
	total, err := engine.Price(10.00, counts)
	require.NoError(t, err)
	assert.Equal(t, 27.00, total)

	// Same inputs, same output, regardless of how often we ask.
	for i := 0; i < 5; i++ {
		again, err := engine.Price(10.00, counts)
		require.NoError(t, err)
		assert.Equal(t, total, again)
	}
}

func TestPrice_Table(t *testing.T) {
	engine := NewEngine(nil)

	cases := []struct {
		name      string
		basePrice float64
		counts    map[TicketType]int
		want      float64
	}{
		{"single adult", 10.00, map[TicketType]int{TicketAdult: 1}, 10.00},
		{"adult and child", 10.00, map[TicketType]int{TicketAdult: 1, TicketChild: 1}, 17.00},
		{"all types", 10.00, map[TicketType]int{TicketAdult: 1, TicketChild: 1, TicketSenior: 1}, 25.00},
		{"no tickets", 10.00, map[TicketType]int{}, 0},
		{"nil counts", 10.00, nil, 0},
		{"real-world base price", 12.99, map[TicketType]int{TicketAdult: 2}, 25.98},
		{"senior discount", 11.50, map[TicketType]int{TicketSenior: 2}, 18.40},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.Price(tc.basePrice, tc.counts)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestRoundToCent_HalfToEven(t *testing.T) {
	// 0.125 and 0.375 are exact in binary, so these amounts sit precisely on
	// the half-cent boundary; banker's rounding picks the even cent.
	assert.InDelta(t, 0.12, roundToCent(0.125), 1e-9)
	assert.InDelta(t, 0.38, roundToCent(0.375), 1e-9)
	assert.InDelta(t, 0.62, roundToCent(0.625), 1e-9)
	assert.InDelta(t, 0.88, roundToCent(0.875), 1e-9)
}

func TestPrice_Errors(t *testing.T) {
	engine := NewEngine(nil)

	_, err := engine.Price(10.00, map[TicketType]int{"student": 1})
	assert.ErrorIs(t, err, ErrUnknownTicketType)

	_, err = engine.Price(10.00, map[TicketType]int{TicketAdult: -1})
	assert.ErrorIs(t, err, ErrNegativeCount)

	_, err = engine.Price(-1.00, map[TicketType]int{TicketAdult: 1})
	assert.ErrorIs(t, err, ErrNegativeBasePrice)
}

func TestParse(t *testing.T) {
	for _, raw := range []string{"adult", "child", "senior"} {
		ticketType, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, ticketType.String())
	}

	_, err := Parse("ADULT")
	assert.ErrorIs(t, err, ErrUnknownTicketType)
	_, err = Parse("")
	assert.ErrorIs(t, err, ErrUnknownTicketType)
}

func TestTotalTickets(t *testing.T) {
	assert.Equal(t, 0, TotalTickets(nil))
	assert.Equal(t, 4, TotalTickets(map[TicketType]int{TicketAdult: 2, TicketChild: 1, TicketSenior: 1}))
}
