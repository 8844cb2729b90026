package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ingestion-service/internal/db"
	"ingestion-service/internal/feed"
	"ingestion-service/internal/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	db     *db.DB
	logger *logging.Logger
	hub    *feed.Hub
}

func NewHandler(db *db.DB, logger *logging.Logger, hub *feed.Hub) *Handler {
	return &Handler{db: db, logger: logger, hub: hub}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetTeam(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.logger.Errorf("Invalid team id %s: %v", c.Param("id"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid team id"})
		return
	}

	team, err := h.db.GetTeamByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
			return
		}
		h.logger.Errorf("Failed to get team %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get team"})
		return
	}

	c.JSON(http.StatusOK, team)
}

func (h *Handler) ListChannels(c *gin.Context) {
	channels, err := h.db.ListChannels(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Failed to list channels: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list channels"})
		return
	}

	c.JSON(http.StatusOK, channels)
}

func (h *Handler) GetChannel(c *gin.Context) {
	id := c.Param("id")
	ch, err := h.db.GetChannel(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
			return
		}
		h.logger.Errorf("Failed to get channel %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get channel"})
		return
	}

	c.JSON(http.StatusOK, ch)
}

func (h *Handler) GetChannelActivities(c *gin.Context) {
	id := c.Param("id")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	activities, total, err := h.db.GetActivitiesByChannel(c.Request.Context(), id, limit, offset)
	if err != nil {
		h.logger.Errorf("Failed to get activities for channel %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get activities"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": activities,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}

func (h *Handler) GetActivityReplies(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.logger.Errorf("Invalid activity id %s: %v", c.Param("id"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid activity id"})
		return
	}

	replies, err := h.db.GetActivityReplies(c.Request.Context(), id)
	if err != nil {
		h.logger.Errorf("Failed to get replies for activity %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get replies"})
		return
	}

	c.JSON(http.StatusOK, replies)
}

// ActivityFeed upgrades the connection and streams persisted activities
// until the client goes away.
func (h *Handler) ActivityFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("Failed to upgrade feed connection: %v", err)
		return
	}

	h.hub.Add(conn)
	defer func() {
		h.hub.Remove(conn)
		_ = conn.Close()
	}()

	// Reads are discarded; the socket is closed when the client disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
