// api/routes/router.go
package routes

import (
	"context"
	"net/http"
	"time"

	"cinebook/internal/inventory"
	"cinebook/internal/ledger"
	"cinebook/internal/pricing"
	"cinebook/internal/reservation"
	"cinebook/internal/shared/config"
	"cinebook/internal/shared/database"
	"cinebook/internal/showtimes"
	"cinebook/pkg/cache"
	"cinebook/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB

	arena           *inventory.Arena
	showtimeService showtimes.Service
	publisher       reservation.EventPublisher
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB) *Router {
	return &Router{
		config: cfg,
		db:     db,
	}
}

// SetEventPublisher attaches the booking event publisher. Must be called
// before SetupRoutes to take effect.
func (r *Router) SetEventPublisher(publisher reservation.EventPublisher) {
	r.publisher = publisher
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// Inventory backend shared by showtimes and reservations
	provider, registrar := r.buildInventory()

	// Showtime read model
	showtimeRepo := showtimes.NewRepository(r.db.GetPostgreSQL())
	showtimeService := showtimes.NewService(showtimeRepo, registrar, provider)
	showtimeService.SetCacheService(cache.NewService(r.db.GetRedisClient()))
	r.showtimeService = showtimeService

	// Booking ledger; the showtime service doubles as its seat directory
	ledgerRepo := ledger.NewRepository(r.db.GetPostgreSQL())
	ledgerService := ledger.NewService(ledgerRepo, showtimeService)
	showtimeService.SetBookedLister(ledgerService)

	// Reservation coordinator
	engineOpts := []reservation.Option{}
	if r.publisher != nil {
		engineOpts = append(engineOpts, reservation.WithPublisher(r.publisher))
	}
	coordinator := reservation.NewCoordinator(
		provider,
		ledgerService,
		pricing.NewEngine(pricing.Multipliers{
			pricing.TicketAdult:  r.config.Pricing.AdultMultiplier,
			pricing.TicketChild:  r.config.Pricing.ChildMultiplier,
			pricing.TicketSenior: r.config.Pricing.SeniorMultiplier,
		}),
		showtimeService,
		engineOpts...,
	)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		showtimes.SetupShowtimeRoutes(api, showtimes.NewController(showtimeService))
		reservation.SetupReservationRoutes(api, reservation.NewController(coordinator))
	}
}

// buildInventory selects the inventory backend from configuration.
func (r *Router) buildInventory() (inventory.Provider, showtimes.InventoryRegistrar) {
	if r.config.Inventory.Backend == "redis" {
		provider := inventory.NewRedisProvider(r.db.GetRedisClient(), r.config.Inventory.HoldTTL)

		// Preload the Lua scripts so the hot path can EVALSHA. Failure is
		// non-fatal, scripts load lazily on first use.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.PreloadScripts(ctx); err != nil {
			logger.GetDefault().Error("failed to preload inventory Lua scripts", "error", err)
		}

		return provider, showtimes.RedisRegistrar{Provider: provider}
	}

	r.arena = inventory.NewArena(r.config.Inventory.HoldTTL, r.config.Inventory.SweepInterval)
	return r.arena, showtimes.ArenaRegistrar{Arena: r.arena}
}

// Rehydrate rebuilds seat inventory from persisted showtimes and bookings.
// Call once after SetupRoutes, before serving traffic.
func (r *Router) Rehydrate(ctx context.Context) error {
	return r.showtimeService.RehydrateInventories(ctx)
}

// Close releases router-owned resources.
func (r *Router) Close() {
	if r.arena != nil {
		r.arena.Close()
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		// Perform health checks
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "cinebook-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "cinebook-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}
