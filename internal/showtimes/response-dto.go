package showtimes

import (
	"time"

	"cinebook/internal/inventory"
)

type ShowtimeResponse struct {
	ID          string    `json:"id"`
	MovieID     string    `json:"movie_id"`
	MovieTitle  string    `json:"movie_title"`
	TheaterID   string    `json:"theater_id"`
	TheaterName string    `json:"theater_name"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	BasePrice   float64   `json:"base_price"`
	SeatCount   int       `json:"seat_count"`
}

func (s *Showtime) ToResponse() ShowtimeResponse {
	return ShowtimeResponse{
		ID:          s.ID.String(),
		MovieID:     s.MovieID.String(),
		MovieTitle:  s.Movie.Title,
		TheaterID:   s.TheaterID.String(),
		TheaterName: s.Theater.Name,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		BasePrice:   s.BasePrice,
		SeatCount:   s.Theater.LayoutRows * s.Theater.LayoutSeatsPerRow,
	}
}

type PaginatedShowtimes struct {
	Showtimes  []ShowtimeResponse `json:"showtimes"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
}

// SeatMapResponse is the rendered seat availability for one showtime. Seats
// come back in the layout's deterministic order.
type SeatMapResponse struct {
	ShowtimeID string      `json:"showtime_id"`
	Seats      []SeatState `json:"seats"`
	Available  int         `json:"available"`
}

type SeatState struct {
	SeatID string `json:"seat_id"`
	State  string `json:"state"`
}

func newSeatMapResponse(showtimeID string, orderedSeatIDs []string, snapshot map[string]inventory.State) SeatMapResponse {
	resp := SeatMapResponse{
		ShowtimeID: showtimeID,
		Seats:      make([]SeatState, 0, len(orderedSeatIDs)),
	}
	for _, seatID := range orderedSeatIDs {
		state, ok := snapshot[seatID]
		if !ok {
			state = inventory.StateAvailable
		}
		if state == inventory.StateAvailable {
			resp.Available++
		}
		resp.Seats = append(resp.Seats, SeatState{SeatID: seatID, State: string(state)})
	}
	return resp
}
