package api

import (
	"github.com/gin-gonic/gin"

	"ingestion-service/internal/config"
	"ingestion-service/internal/db"
	"ingestion-service/internal/feed"
	"ingestion-service/internal/logging"
)

func NewRouter(db *db.DB, logger *logging.Logger, cfg config.Config, hub *feed.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	h := NewHandler(db, logger, hub)
	api := r.Group(cfg.API.BasePath)
	{
		api.GET("/health", h.Health)

		// Teams
		api.GET("/teams/:id", h.GetTeam)

		// Channels
		api.GET("/channels", h.ListChannels)
		api.GET("/channels/:id", h.GetChannel)
		api.GET("/channels/:id/activities", h.GetChannelActivities)

		// Activities
		api.GET("/activities/:id/replies", h.GetActivityReplies)

		// Live activity feed
		api.GET("/feed", h.ActivityFeed)
	}
	return r
}
