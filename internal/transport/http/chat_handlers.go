package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/duochat-server/internal/proto"
	"github.com/vovakirdan/duochat-server/internal/service/chat"
	"github.com/vovakirdan/duochat-server/internal/store"
)

// ChatHandlers provides HTTP handlers for chat room and message endpoints.
type ChatHandlers struct {
	chat *chat.Service
	log  *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(chatService *chat.Service, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		chat: chatService,
		log:  logger,
	}
}

// CreateRoomRequest names the profile to pair with.
type CreateRoomRequest struct {
	ID string `json:"id" binding:"required"`
}

// SendMessageRequest represents the send message body. Both fields are
// checked by the service: blank text first (406), then the room (404).
type SendMessageRequest struct {
	RoomID      string `json:"roomId"`
	MessageText string `json:"messageText"`
}

// RoomMessagesResponse carries a room and its messages in order.
type RoomMessagesResponse struct {
	ChatRoom proto.ChatRoom        `json:"chatRoom"`
	Messages []proto.MessageObject `json:"messages"`
}

// SendMessageResponse is returned after a message is stored.
type SendMessageResponse struct {
	Message       string              `json:"message"`
	MessageObject proto.MessageObject `json:"messageObject"`
	ChatRoom      proto.ChatRoom      `json:"chatRoom"`
}

// DeleteMessageResponse is returned after a message is removed.
type DeleteMessageResponse struct {
	Message  string         `json:"message"`
	ChatRoom proto.ChatRoom `json:"chatRoom"`
}

// CreateRoom pairs the caller with the requested profile.
// POST /api/chat-room
func (h *ChatHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}

	room, err := h.chat.CreateRoom(c.Request.Context(), profileID(c), req.ID)
	if err != nil {
		writeError(c, h.log, err, "failed to create chat room")
		return
	}
	c.JSON(http.StatusCreated, roomResponse(room))
}

// DeleteRoom removes a room the caller takes part in.
// DELETE /api/chat-room/:roomId
func (h *ChatHandlers) DeleteRoom(c *gin.Context) {
	if err := h.chat.DeleteRoom(c.Request.Context(), profileID(c), c.Param("roomId")); err != nil {
		writeError(c, h.log, err, "failed to delete chat room")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Successfully removed chat room"})
}

// RoomMessages returns the room with its messages.
// GET /api/chat-room/messages/:roomId
func (h *ChatHandlers) RoomMessages(c *gin.Context) {
	room, msgs, err := h.chat.RoomMessages(c.Request.Context(), profileID(c), c.Param("roomId"))
	if err != nil {
		writeError(c, h.log, err, "failed to load room messages")
		return
	}
	c.JSON(http.StatusOK, RoomMessagesResponse{
		ChatRoom: roomResponse(room),
		Messages: lo.Map(msgs, func(m *store.Message, _ int) proto.MessageObject {
			return messageResponse(m)
		}),
	})
}

// SendMessage stores a message and relays it to joined connections.
// POST /api/message
func (h *ChatHandlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}

	msg, room, err := h.chat.SendMessage(c.Request.Context(), profileID(c), req.RoomID, req.MessageText)
	if err != nil {
		writeError(c, h.log, err, "failed to send message")
		return
	}
	c.JSON(http.StatusCreated, SendMessageResponse{
		Message:       "Message created successfully",
		MessageObject: messageResponse(msg),
		ChatRoom:      roomResponse(room),
	})
}

// DeleteMessage removes one of the caller's messages.
// DELETE /api/message/:messageId
func (h *ChatHandlers) DeleteMessage(c *gin.Context) {
	room, err := h.chat.DeleteMessage(c.Request.Context(), profileID(c), c.Param("messageId"))
	if err != nil {
		writeError(c, h.log, err, "failed to delete message")
		return
	}
	c.JSON(http.StatusOK, DeleteMessageResponse{
		Message:  "Successfully deleted the message",
		ChatRoom: roomResponse(room),
	})
}
