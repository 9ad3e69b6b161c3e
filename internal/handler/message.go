package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/middleware"
	"carpool/internal/service"
)

// MessageHandler handles trip chat endpoints.
type MessageHandler struct {
	messageService *service.MessageService
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

type messageResponse struct {
	ID          string     `json:"id"`
	TripID      string     `json:"trip_id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	MessageText string     `json:"message_text"`
	MessageType string     `json:"message_type"`
	IsRead      bool       `json:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newMessageResponse(m *domain.Message) messageResponse {
	resp := messageResponse{
		ID:          m.ID,
		TripID:      m.TripID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		MessageText: m.MessageText,
		MessageType: string(m.MessageType),
		IsRead:      m.IsRead,
		CreatedAt:   m.CreatedAt,
	}
	if !m.ReadAt.IsZero() {
		readAt := m.ReadAt
		resp.ReadAt = &readAt
	}
	return resp
}

// SendMessage handles POST /v1/messages
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req struct {
		TripID      string `json:"trip_id"`
		RecipientID string `json:"recipient_id"`
		MessageText string `json:"message_text"`
		MessageType string `json:"message_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrMissingFields)
		return
	}

	msg, err := h.messageService.SendMessage(c.Request.Context(), service.SendMessageRequest{
		TripID:      req.TripID,
		SenderID:    middleware.UserID(c),
		RecipientID: req.RecipientID,
		MessageText: req.MessageText,
		MessageType: req.MessageType,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"message": "Message sent",
		"data":    newMessageResponse(msg),
	})
}

// GetMessages handles GET /v1/messages/:tripId
func (h *MessageHandler) GetMessages(c *gin.Context) {
	messages, err := h.messageService.GetMessages(c.Request.Context(), c.Param("tripId"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]messageResponse, len(messages))
	for i, m := range messages {
		out[i] = newMessageResponse(m)
	}

	respondOK(c, http.StatusOK, gin.H{"messages": out})
}

// MarkMessagesRead handles PUT /v1/messages/:tripId/read
func (h *MessageHandler) MarkMessagesRead(c *gin.Context) {
	updated, err := h.messageService.MarkMessagesRead(c.Request.Context(), c.Param("tripId"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"message": "Messages marked as read",
		"updated": updated,
	})
}
