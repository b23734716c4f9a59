// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"leash/internal/http/handlers"
	"leash/internal/http/middleware"
	"leash/internal/infra"
	"leash/internal/modules/sitter"
	"leash/internal/modules/track"
	"leash/internal/modules/walk"
	"leash/internal/telemetry"
)

type RouterDeps struct {
	Walks    *walk.Service
	Sitters  *sitter.Service
	Watcher  *walk.Watcher
	Tracks   *track.Store
	Geocoder handlers.Geocoder
	Routes   handlers.Router
	Verifier infra.TokenVerifier
	Logger   *slog.Logger
	// DispatchToken guards /internal; when empty those routes stay off.
	DispatchToken string
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Logger), middleware.Logging(deps.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(telemetry.Handler()))

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	walkHandler := handlers.NewWalkHandler(deps.Walks, deps.Geocoder)
	api.POST("/walks", walkHandler.Create)
	api.GET("/walks/active", walkHandler.Active)
	api.GET("/walks/history", walkHandler.History)
	api.GET("/walks/:id", walkHandler.Get)
	api.POST("/walks/:id/cancel", walkHandler.Cancel)
	api.POST("/walks/:id/dismiss", walkHandler.Dismiss)

	sitterHandler := handlers.NewSitterHandler(deps.Sitters)
	api.POST("/sitter/online", sitterHandler.Online)
	api.POST("/sitter/offline", sitterHandler.Offline)
	api.PUT("/sitter/location", sitterHandler.UpdateLocation)
	api.GET("/sitter/missions", sitterHandler.Missions)
	api.POST("/sitter/missions/:id/accept", sitterHandler.Accept)
	api.POST("/sitter/missions/:id/decline", sitterHandler.Decline)
	api.POST("/sitter/walks/:id/start", sitterHandler.StartWalk)
	api.POST("/sitter/walks/:id/returning", sitterHandler.MarkReturning)
	api.POST("/sitter/walks/:id/complete", sitterHandler.CompleteWalk)
	api.POST("/sitter/walks/:id/cancel", sitterHandler.CancelMission)

	streamHandler := handlers.NewStreamHandler(deps.Walks, deps.Watcher, deps.Tracks)
	api.GET("/walks/feed", streamHandler.OwnerFeed)
	api.GET("/walks/:id/track", streamHandler.WalkTrack)

	// ETA overlay is available only when a Maps API key is configured.
	if deps.Routes != nil {
		routeHandler := handlers.NewRouteHandler(deps.Walks, deps.Routes)
		api.GET("/walks/:id/eta", routeHandler.ETA)
	}

	// The matching process dispatches mission offers through here.
	if deps.DispatchToken != "" {
		internal := r.Group("/internal", middleware.InternalAuth(deps.DispatchToken))
		dispatchHandler := handlers.NewDispatchHandler(deps.Sitters)
		internal.POST("/offers", dispatchHandler.Offer)
	}

	return r
}
