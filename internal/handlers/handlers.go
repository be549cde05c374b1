package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kubev2v/priority-scheduler/internal/services"
)

type Handler struct {
	echoSrv        *services.EchoService
	chatSrv        *services.ChatService
	statusSrv      *services.StatusService
	upgrader       websocket.Upgrader
	maxMessageSize int64
}

func New(echoSrv *services.EchoService, chatSrv *services.ChatService, statusSrv *services.StatusService, maxMessageSize int64) *Handler {
	return &Handler{
		echoSrv:        echoSrv,
		chatSrv:        chatSrv,
		statusSrv:      statusSrv,
		maxMessageSize: maxMessageSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts every endpoint of the handler on router.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws/echo", h.Echo)
	router.GET("/ws/chat", h.Chat)
	router.GET("/api/v1/scheduler", h.GetSchedulerStatus)
}
