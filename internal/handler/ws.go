package handler

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"carpool/internal/auth"
	"carpool/internal/domain"
	"carpool/internal/realtime"
	"carpool/internal/service"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades clients to websocket connections, registers them with
// the event router, and services their room and messaging commands.
type WSHandler struct {
	tokens         auth.Provider
	presence       *realtime.Presence
	router         *realtime.EventRouter
	tripService    *service.TripService
	messageService *service.MessageService
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	tokens auth.Provider,
	presence *realtime.Presence,
	router *realtime.EventRouter,
	tripService *service.TripService,
	messageService *service.MessageService,
) *WSHandler {
	return &WSHandler{
		tokens:         tokens,
		presence:       presence,
		router:         router,
		tripService:    tripService,
		messageService: messageService,
	}
}

// clientMessage is the single shape for all client-to-server commands.
type clientMessage struct {
	Type        string            `json:"type"`
	TripID      string            `json:"trip_id"`
	RecipientID string            `json:"recipient_id"`
	MessageText string            `json:"message_text"`
	MessageType string            `json:"message_type"`
	Location    domain.Coordinate `json:"location"`
}

// Serve handles GET /v1/ws. Authentication uses the token query parameter
// because browser websocket clients cannot set an Authorization header.
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}

	userID, err := h.tokens.Authenticate(token)
	if err != nil {
		respondError(c, auth.ErrUnauthorized)
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the failure response.
		log.Printf("websocket upgrade failed for user %s: %v", userID, err)
		return
	}

	connID := uuid.New().String()
	ws := realtime.NewWSConn(conn)

	h.router.Register(connID, ws)
	h.presence.Join(connID, realtime.UserRoom(userID))
	defer func() {
		h.router.Unregister(connID)
		_ = ws.Close()
	}()

	// Keepalive pings; a dead peer fails its read deadline and unwinds the
	// read loop below.
	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		ticker := time.NewTicker(realtime.PingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-stopPing:
				return
			case <-ticker.C:
				if err := ws.Ping(); err != nil {
					return
				}
			}
		}
	}()

	_ = ws.Send(realtime.Envelope{
		Type:      "connected",
		Payload:   map[string]any{"user_id": userID},
		Timestamp: time.Now(),
	})

	for {
		var msg clientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			return
		}
		h.handleClientMessage(c, ws, connID, userID, msg)
	}
}

func (h *WSHandler) handleClientMessage(c *gin.Context, ws *realtime.WSConn, connID, userID string, msg clientMessage) {
	switch msg.Type {
	case "join-trip-room":
		trip, err := h.tripService.GetTrip(c.Request.Context(), msg.TripID)
		if err != nil {
			h.sendError(ws, "trip not found")
			return
		}
		if !trip.HasParticipant(userID) {
			h.sendError(ws, "not a participant of this trip")
			return
		}
		h.presence.Join(connID, realtime.TripRoom(msg.TripID))
		h.presence.Join(connID, realtime.TripUserRoom(msg.TripID, userID))

	case "leave-trip-room":
		h.presence.Leave(connID, realtime.TripRoom(msg.TripID))
		h.presence.Leave(connID, realtime.TripUserRoom(msg.TripID, userID))

	case "update-location":
		if !msg.Location.Valid() {
			h.sendError(ws, "invalid coordinates")
			return
		}
		trip, err := h.tripService.GetTrip(c.Request.Context(), msg.TripID)
		if err != nil || !trip.HasParticipant(userID) {
			h.sendError(ws, "not a participant of this trip")
			return
		}
		h.router.Publish(domain.NewLocationUpdateEvent(msg.TripID, userID, msg.Location))

	case "send-message":
		// Persistence and fan-out both happen in the service; the new-message
		// event reaches the recipient through the router.
		_, err := h.messageService.SendMessage(c.Request.Context(), service.SendMessageRequest{
			TripID:      msg.TripID,
			SenderID:    userID,
			RecipientID: msg.RecipientID,
			MessageText: msg.MessageText,
			MessageType: msg.MessageType,
		})
		if err != nil {
			h.sendError(ws, err.Error())
			return
		}

	default:
		h.sendError(ws, "unknown message type")
	}
}

func (h *WSHandler) sendError(ws *realtime.WSConn, message string) {
	_ = ws.Send(realtime.Envelope{
		Type:      "error",
		Payload:   map[string]any{"message": message},
		Timestamp: time.Now(),
	})
}
