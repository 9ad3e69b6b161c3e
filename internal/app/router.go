package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"carpool/internal/auth"
	"carpool/internal/handler"
	"carpool/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	TripHandler    *handler.TripHandler
	MessageHandler *handler.MessageHandler
	WSHandler      *handler.WSHandler
	TokenProvider  auth.Provider
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authRequired := middleware.AuthMiddleware(deps.TokenProvider)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Websocket push channel. Authenticates via token query parameter.
		v1.GET("/ws", deps.WSHandler.Serve)

		// Auth and own-account routes.
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", deps.AuthHandler.Register)
			authGroup.POST("/login", deps.AuthHandler.Login)
			authGroup.GET("/profile", authRequired, deps.AuthHandler.GetProfile)
			authGroup.PUT("/profile", authRequired, deps.AuthHandler.UpdateProfile)
			authGroup.PUT("/location", authRequired, deps.AuthHandler.UpdateLocation)
		}

		// Other users' public views.
		users := v1.Group("/users", authRequired)
		{
			users.GET("/:id", deps.UserHandler.GetPublicProfile)
			users.POST("/:id/rating", deps.UserHandler.RateUser)
		}

		// Trip lifecycle and matching.
		trips := v1.Group("/trips", authRequired)
		{
			trips.POST("/start", deps.TripHandler.StartTrip)
			trips.POST("/find-matches", deps.TripHandler.FindMatches)
			trips.POST("/join", deps.TripHandler.JoinTrip)
			trips.POST("/respond", deps.TripHandler.RespondToRider)
			trips.POST("/complete", deps.TripHandler.CompleteTrip)
			trips.GET("/driver/my-trips", deps.TripHandler.GetDriverTrips)
			trips.GET("/rider/my-trips", deps.TripHandler.GetRiderTrips)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.DELETE("/:id/cancel-rider", deps.TripHandler.CancelRiderRequest)
		}

		// Trip chat.
		messages := v1.Group("/messages", authRequired)
		{
			messages.POST("", deps.MessageHandler.SendMessage)
			messages.GET("/:tripId", deps.MessageHandler.GetMessages)
			messages.PUT("/:tripId/read", deps.MessageHandler.MarkMessagesRead)
		}
	}

	return router
}
