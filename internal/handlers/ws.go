package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kubev2v/priority-scheduler/internal/models"
	srvErrors "github.com/kubev2v/priority-scheduler/pkg/errors"
)

const closeWriteTimeout = time.Second

// Echo upgrades the request and writes every text message back to the sender
// (GET /ws/echo)
func (h *Handler) Echo(c *gin.Context) {
	log := zap.S().Named("echo_handler")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		log.Debugw("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(h.maxMessageSize)

	client := h.echoSrv.Join(conn)
	defer h.echoSrv.Leave(client)

	log.Debugw("echo connection opened", "id", client.ID(), "remote", conn.RemoteAddr().String())

	h.readLoop(conn, func(payload []byte) error {
		return h.echoSrv.Echo(client, models.NewMessage(client.ID(), models.ConnectionKindEcho, payload))
	})

	log.Debugw("echo connection closed", "id", client.ID())
}

// Chat upgrades the request, joins the chat and broadcasts every text message
// to all connected clients (GET /ws/chat)
func (h *Handler) Chat(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.S().Named("chat_handler").Debugw("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(h.maxMessageSize)

	client := h.chatSrv.Join(conn)
	defer h.chatSrv.Leave(client)

	h.readLoop(conn, func(payload []byte) error {
		return h.chatSrv.Broadcast(models.NewMessage(client.ID(), models.ConnectionKindChat, payload))
	})
}

// readLoop hands every text frame to submit until the peer goes away or
// submit fails. Non-text frames are ignored.
func (h *Handler) readLoop(conn *websocket.Conn, submit func(payload []byte) error) {
	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.S().Named("ws_handler").Warnw("websocket read failed", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		if err := submit(payload); err != nil {
			closeWithError(conn, err)
			return
		}
	}
}

func closeWithError(conn *websocket.Conn, err error) {
	code := websocket.CloseInternalServerErr
	reason := "internal error"
	if srvErrors.IsSchedulerStoppedError(err) {
		code = websocket.CloseGoingAway
		reason = "server shutting down"
	}

	zap.S().Named("ws_handler").Infow("closing websocket", "code", code, "error", err)

	msg := websocket.FormatCloseMessage(code, reason)
	if werr := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout)); werr != nil {
		zap.S().Named("ws_handler").Debugw("failed to write close frame", "error", werr)
	}
}
