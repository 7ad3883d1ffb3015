package ws

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/middleware"
	"github.com/lunamoss/readmaster/internal/notifier"
	"github.com/rs/zerolog/log"
)

// WsController exposes the realtime notification stream and its REST
// companion endpoints.
type WsController struct {
	hub           *notifier.Hub
	notifications notifier.Service
	upgrader      websocket.Upgrader
}

func NewWsController(hub *notifier.Hub, notifications notifier.Service) *WsController {
	return &WsController{
		hub:           hub,
		notifications: notifications,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Token auth happens in the middleware; cross-origin pages are
			// allowed to connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (c *WsController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws/notifications", c.Stream)

	notifications := rg.Group("/notifications")
	notifications.GET("", c.ListNotifications)
	notifications.POST("/:id/read", c.MarkRead)
	notifications.POST("/read-all", c.MarkAllRead)
}

// Stream godoc
// @Summary Open the realtime notification stream
// @Description Upgrades to a websocket. Pass the bearer token via the Authorization header or the token query parameter.
// @Tags notifications
// @Security BearerAuth
// @Success 101 "Switching Protocols"
// @Failure 401 {object} dto.ErrorResponse
// @Router /ws/notifications [get]
func (c *WsController) Stream(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("userID", user.ID).Msg("Websocket upgrade failed")
		return
	}

	c.hub.Register(user.ID, conn)
	log.Info().Str("userID", user.ID).Msg("Websocket connected")

	// The server never expects client messages; the read loop exists to
	// detect disconnects and honor close frames.
	defer func() {
		c.hub.Unregister(user.ID, conn)
		conn.Close()
		log.Info().Str("userID", user.ID).Msg("Websocket disconnected")
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ListNotifications godoc
// @Summary List the calling user's notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread notifications"
// @Success 200 {array} dto.NotificationResponse
// @Router /notifications [get]
func (c *WsController) ListNotifications(ctx *gin.Context) {
	unreadOnly, _ := strconv.ParseBool(ctx.DefaultQuery("unread", "false"))

	user := middleware.CurrentUser(ctx)
	notifications, err := c.notifications.ListForUser(user.ID, unreadOnly)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, notifications)
}

// MarkRead godoc
// @Summary Mark one notification as read
// @Tags notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse
// @Router /notifications/{id}/read [post]
func (c *WsController) MarkRead(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	if err := c.notifications.MarkRead(ctx.Param("id"), user.ID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, notifier.ErrNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// MarkAllRead godoc
// @Summary Mark all notifications as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /notifications/read-all [post]
func (c *WsController) MarkAllRead(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	count, err := c.notifications.MarkAllRead(user.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"marked_read": count})
}
