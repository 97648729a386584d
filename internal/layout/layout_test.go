package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidDimensions(t *testing.T) {
	cases := []struct {
		name        string
		rows, seats int
	}{
		{"zero rows", 0, 10},
		{"zero seats", 10, 0},
		{"negative rows", -1, 10},
		{"negative seats", 5, -3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.rows, tc.seats)
			assert.ErrorIs(t, err, ErrInvalidDimensions)
		})
	}
}

func TestMaterialize_Deterministic(t *testing.T) {
	l, err := New(2, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"A1", "A2", "B1", "B2"}, l.Materialize())
	// Pure function of the dimensions: repeated calls match.
	assert.Equal(t, l.Materialize(), l.Materialize())
}

func TestMaterialize_Count(t *testing.T) {
	l, err := New(10, 20)
	require.NoError(t, err)

	ids := l.Materialize()
	assert.Len(t, ids, 200)
	assert.Equal(t, l.Count(), len(ids))

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		_, dup := seen[id]
		assert.False(t, dup, "duplicate seat id %s", id)
		seen[id] = struct{}{}
	}
}

func TestRowLabel_WrapsPastZ(t *testing.T) {
	cases := []struct {
		row   int
		label string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.label, RowLabel(tc.row), "row %d", tc.row)
	}
}

func TestParseSeatID_RoundTrip(t *testing.T) {
	l, err := New(30, 4)
	require.NoError(t, err)

	for i, id := range l.Materialize() {
		row, seat, err := ParseSeatID(id)
		require.NoError(t, err, "id %s", id)
		assert.Equal(t, i/4, row)
		assert.Equal(t, i%4+1, seat)
	}
}

func TestParseSeatID_Malformed(t *testing.T) {
	for _, id := range []string{"", "A", "12", "A0", "a1", "A-1", "1A"} {
		_, _, err := ParseSeatID(id)
		assert.Error(t, err, "id %q", id)
	}
}

func TestParseSeatID_NonCanonicalNumerals(t *testing.T) {
	// Atoi-style lenience would accept these; ids must match what
	// Materialize emits byte for byte.
	for _, id := range []string{"A01", "A007", "A+1", "A 1", "A1 ", "A1.0"} {
		_, _, err := ParseSeatID(id)
		assert.Error(t, err, "id %q", id)
	}
}

func TestContains(t *testing.T) {
	l, err := New(2, 2)
	require.NoError(t, err)

	for _, id := range []string{"A1", "A2", "B1", "B2"} {
		assert.True(t, l.Contains(id), id)
	}
	for _, id := range []string{"A3", "C1", "AA1", "B0", "x", "A01", "A+1"} {
		assert.False(t, l.Contains(id), id)
	}
}
