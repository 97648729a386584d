package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Layout describes a theater auditorium as a rows x seats-per-row grid.
// Seat identifiers derived from it are stable for a given layout, which keeps
// retries and audit logs deterministic.
type Layout struct {
	Rows        int `json:"rows"`
	SeatsPerRow int `json:"seats_per_row"`
}

var ErrInvalidDimensions = errors.New("layout: rows and seats per row must be at least 1")

// New validates the grid dimensions and returns a Layout.
func New(rows, seatsPerRow int) (Layout, error) {
	if rows < 1 || seatsPerRow < 1 {
		return Layout{}, ErrInvalidDimensions
	}
	return Layout{Rows: rows, SeatsPerRow: seatsPerRow}, nil
}

// Count returns the total number of seats in the layout.
func (l Layout) Count() int {
	return l.Rows * l.SeatsPerRow
}

// Materialize returns the full ordered seat identifier sequence: row by row,
// seat 1..N within each row. The result is a pure function of the dimensions.
func (l Layout) Materialize() []string {
	ids := make([]string, 0, l.Count())
	for row := 0; row < l.Rows; row++ {
		label := RowLabel(row)
		for seat := 1; seat <= l.SeatsPerRow; seat++ {
			ids = append(ids, label+strconv.Itoa(seat))
		}
	}
	return ids
}

// Contains reports whether the seat identifier belongs to this layout.
func (l Layout) Contains(id string) bool {
	row, seat, err := ParseSeatID(id)
	if err != nil {
		return false
	}
	return row < l.Rows && seat >= 1 && seat <= l.SeatsPerRow
}

// RowLabel converts a 0-based row index to its letter label: A..Z for the
// first 26 rows, then AA, AB and so on (bijective base-26, spreadsheet style).
func RowLabel(row int) string {
	if row < 0 {
		return ""
	}
	var sb strings.Builder
	n := row + 1
	for n > 0 {
		n--
		sb.WriteByte(byte('A' + n%26))
		n /= 26
	}
	// Digits were emitted least-significant first.
	label := []byte(sb.String())
	for i, j := 0, len(label)-1; i < j; i, j = i+1, j-1 {
		label[i], label[j] = label[j], label[i]
	}
	return string(label)
}

// ParseSeatID splits a seat identifier into its 0-based row index and 1-based
// seat number.
func ParseSeatID(id string) (row int, seat int, err error) {
	split := 0
	for split < len(id) && id[split] >= 'A' && id[split] <= 'Z' {
		split++
	}
	if split == 0 || split == len(id) {
		return 0, 0, fmt.Errorf("layout: malformed seat id %q", id)
	}
	// Only the exact numerals Materialize emits: no sign, no leading zero.
	// Atoi alone would accept "A01" and "A+1" as valid ids.
	num := id[split:]
	if num[0] == '0' {
		return 0, 0, fmt.Errorf("layout: malformed seat number in %q", id)
	}
	for i := 0; i < len(num); i++ {
		if num[i] < '0' || num[i] > '9' {
			return 0, 0, fmt.Errorf("layout: malformed seat number in %q", id)
		}
	}
	seat, err = strconv.Atoi(num)
	if err != nil || seat < 1 {
		return 0, 0, fmt.Errorf("layout: malformed seat number in %q", id)
	}
	for i := 0; i < split; i++ {
		row = row*26 + int(id[i]-'A') + 1
	}
	return row - 1, seat, nil
}
