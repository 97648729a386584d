package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"cinebook/internal/shared/config"
	"cinebook/internal/shared/database"
	"cinebook/internal/showtimes"

	"github.com/google/uuid"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting CineBook Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	// Delete in reverse dependency order
	tables := []string{
		"booking_tickets",
		"booking_seats",
		"bookings",
		"showtimes",
		"theaters",
		"movies",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	theaterIDs, err := s.SeedTheaters()
	if err != nil {
		return fmt.Errorf("failed to seed theaters: %w", err)
	}

	movieIDs, err := s.SeedMovies()
	if err != nil {
		return fmt.Errorf("failed to seed movies: %w", err)
	}

	if err := s.SeedShowtimes(movieIDs, theaterIDs); err != nil {
		return fmt.Errorf("failed to seed showtimes: %w", err)
	}

	// Clear Redis cache to ensure fresh state
	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}

	return nil
}

// SeedTheaters creates the two sample theaters
func (s *Seeder) SeedTheaters() (map[string]uuid.UUID, error) {
	fmt.Println("  🏟️ Seeding theaters...")

	theaterIDs := make(map[string]uuid.UUID)

	theatersData := []struct {
		key         string
		name        string
		location    string
		rows        int
		seatsPerRow int
	}{
		{"cinema-one", "Cinema One", "Downtown", 10, 20},
		{"movie-palace", "Movie Palace", "Uptown", 15, 20},
	}

	for _, theaterData := range theatersData {
		theater := showtimes.Theater{
			ID:                uuid.New(),
			Name:              theaterData.name,
			Location:          theaterData.location,
			LayoutRows:        theaterData.rows,
			LayoutSeatsPerRow: theaterData.seatsPerRow,
			CreatedAt:         time.Now(),
			UpdatedAt:         time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&theater).Error; err != nil {
			return nil, fmt.Errorf("failed to create theater %s: %w", theater.Name, err)
		}

		theaterIDs[theaterData.key] = theater.ID
		fmt.Printf("    ✅ Created theater: %s (%d seats)\n",
			theater.Name, theater.LayoutRows*theater.LayoutSeatsPerRow)
	}

	return theaterIDs, nil
}

// SeedMovies creates sample movies
func (s *Seeder) SeedMovies() ([]uuid.UUID, error) {
	fmt.Println("  🎬 Seeding movies...")

	var movieIDs []uuid.UUID

	moviesData := []struct {
		title           string
		durationMinutes int
		description     string
	}{
		{"The Last Horizon", 142, "A deep-space crew races a dying star to bring their colony home."},
		{"Midnight in Marrakesh", 118, "Two strangers cross paths in a night market and nothing goes to plan."},
		{"Paper Tigers", 96, "A washed-up chess hustler trains a neighborhood prodigy for one last tournament."},
		{"The Clockmaker's Daughter", 127, "A period mystery unwinding through three generations of a watchmaking family."},
	}

	for _, movieData := range moviesData {
		movie := showtimes.Movie{
			ID:              uuid.New(),
			Title:           movieData.title,
			DurationMinutes: movieData.durationMinutes,
			Description:     movieData.description,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&movie).Error; err != nil {
			return nil, fmt.Errorf("failed to create movie %s: %w", movie.Title, err)
		}

		movieIDs = append(movieIDs, movie.ID)
		fmt.Printf("    ✅ Created movie: %s (%d min)\n", movie.Title, movie.DurationMinutes)
	}

	return movieIDs, nil
}

// SeedShowtimes schedules each movie across both theaters over the next week
func (s *Seeder) SeedShowtimes(movieIDs []uuid.UUID, theaterIDs map[string]uuid.UUID) error {
	fmt.Println("  🎟️ Seeding showtimes...")

	theaters := []uuid.UUID{theaterIDs["cinema-one"], theaterIDs["movie-palace"]}

	showtimesData := []struct {
		movieIndex   int
		theaterIndex int
		daysFromNow  int
		hour         int
		basePrice    float64
	}{
		{0, 0, 1, 14, 12.99},
		{0, 1, 1, 19, 15.99},
		{1, 0, 1, 17, 12.99},
		{1, 1, 2, 20, 15.99},
		{2, 0, 2, 12, 9.99},
		{2, 1, 3, 15, 12.99},
		{3, 0, 3, 18, 12.99},
		{3, 1, 4, 21, 15.99},
	}

	for _, showtimeData := range showtimesData {
		var movie showtimes.Movie
		if err := s.db.PostgreSQL.First(&movie, "id = ?", movieIDs[showtimeData.movieIndex]).Error; err != nil {
			return fmt.Errorf("failed to fetch movie: %w", err)
		}

		day := time.Now().AddDate(0, 0, showtimeData.daysFromNow)
		start := time.Date(day.Year(), day.Month(), day.Day(), showtimeData.hour, 0, 0, 0, time.UTC)
		end := start.Add(time.Duration(movie.DurationMinutes) * time.Minute)

		showtime := showtimes.Showtime{
			ID:        uuid.New(),
			MovieID:   movieIDs[showtimeData.movieIndex],
			TheaterID: theaters[showtimeData.theaterIndex],
			StartTime: start,
			EndTime:   end,
			BasePrice: showtimeData.basePrice,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&showtime).Error; err != nil {
			return fmt.Errorf("failed to create showtime for %s: %w", movie.Title, err)
		}

		fmt.Printf("    ✅ Created showtime: %s @ %s ($%.2f)\n",
			movie.Title, start.Format(time.RFC3339), showtime.BasePrice)
	}

	return nil
}
