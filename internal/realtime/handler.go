package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/motohub/workshop-service/internal/api/response"
	"github.com/motohub/workshop-service/internal/apperror"
	"github.com/motohub/workshop-service/internal/auth"
	"github.com/motohub/workshop-service/internal/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	hub        *Hub
	tokens     *auth.TokenManager
	cookieName string
	logger     logger.ZapLogger
}

func NewHandler(hub *Hub, tokens *auth.TokenManager, cookieName string, log logger.ZapLogger) *Handler {
	return &Handler{hub: hub, tokens: tokens, cookieName: cookieName, logger: log}
}

// ServeWs authenticates with the token query parameter or the session cookie
// and subscribes the connection to its dealer's events.
func (h *Handler) ServeWs(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		tokenString, _ = c.Cookie(h.cookieName)
	}
	if tokenString == "" {
		response.Error(c, apperror.Unauthenticated("token is required"))
		return
	}

	user, err := h.tokens.Parse(tokenString)
	if err != nil {
		response.Error(c, apperror.Unauthenticated("invalid or expired token"))
		return
	}
	if !auth.HasRole(user.Role, auth.WorkshopRoles...) {
		response.Error(c, apperror.Forbidden("role cannot subscribe to workshop events"))
		return
	}
	dealerID := user.DealerID
	if user.Role == auth.RoleSuperAdmin && c.Query("dealer_id") != "" {
		dealerID = c.Query("dealer_id")
	}
	if dealerID == "" {
		response.Error(c, apperror.Validation(apperror.CodeMissingDealer, "dealer context is required"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade websocket", zap.Error(err))
		return
	}

	client := &Client{
		UserID:   user.UserID,
		DealerID: dealerID,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}
	h.hub.Register(client)

	go h.hub.writePump(client)
	h.hub.readPump(client)
}
