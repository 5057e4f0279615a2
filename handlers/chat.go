// File: handlers/chat.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinicagenda/services/intelligence"
	"clinicagenda/services/notification"
	"clinicagenda/services/session"
	"clinicagenda/utils"
)

// ChatHandler exposes the conversation to chat transports: the Telegram
// webhook and a direct JSON endpoint for other clients.
type ChatHandler struct {
	machine   *session.Machine
	extractor intelligence.Extractor
	notifier  notification.Notifier
	logger    *zap.Logger
}

// NewChatHandler constructs the chat handler.
func NewChatHandler(machine *session.Machine, extractor intelligence.Extractor, notifier notification.Notifier, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{machine: machine, extractor: extractor, notifier: notifier, logger: logger}
}

// telegramUpdate mirrors the subset of the Telegram webhook payload we use.
type telegramUpdate struct {
	Message *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

// TelegramWebhook receives Telegram updates, runs the turn, and relays the
// reply through the bot API. Updates without a message are acknowledged and
// ignored.
func (h *ChatHandler) TelegramWebhook(c *gin.Context) {
	var update telegramUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid webhook payload", err.Error())
		return
	}
	if update.Message == nil || update.Message.Text == "" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	ctx := c.Request.Context()
	sessionID := utils.FormatChatID(update.Message.Chat.ID)

	event, err := h.extractor.ExtractEvent(ctx, update.Message.Text)
	if err != nil {
		h.logger.Error("event extraction failed", zap.String("sessionId", sessionID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to process message", err.Error())
		return
	}

	result, err := h.machine.HandleTurn(ctx, sessionID, event)
	if err != nil {
		h.logger.Error("turn failed", zap.String("sessionId", sessionID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to process message", err.Error())
		return
	}

	if err := h.notifier.Send(ctx, sessionID, result.Reply); err != nil {
		h.logger.Error("failed to deliver reply", zap.String("sessionId", sessionID), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// chatRequest is the direct chat endpoint input.
type chatRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Text      string `json:"text" binding:"required"`
}

// Chat processes one turn for non-Telegram clients and returns the reply
// plus the resulting session state.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	ctx := c.Request.Context()
	event, err := h.extractor.ExtractEvent(ctx, req.Text)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to process message", err.Error())
		return
	}

	result, err := h.machine.HandleTurn(ctx, req.SessionID, event)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to process message", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reply": result.Reply,
		"state": result.State,
	})
}

// ResetSession clears a session back to the greeting state.
func (h *ChatHandler) ResetSession(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if err := h.machine.ResetSession(c.Request.Context(), sessionID); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to reset session", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
