package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/armi/plugin/ai/conversation"
)

// MessageRequest is one user turn.
type MessageRequest struct {
	Text         string `json:"text"`
	UserTimezone string `json:"userTimezone,omitempty"`
}

// MessageReply is the machine's reply plus the conversation id.
type MessageReply struct {
	ConversationID string `json:"conversationId"`
	*conversation.Reply
	Error string `json:"error,omitempty"`
}

// CreateConversationMessage handles POST /api/v1/conversations and
// POST /api/v1/conversations/:id/messages. Without an id a new
// conversation is started.
func (s *APIV1Service) CreateConversationMessage(c echo.Context) error {
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return badRequest(c, "text is required")
	}

	id, reply := s.Sessions.Handle(c.Request().Context(), c.Param("id"), req.UserTimezone, req.Text)
	out := MessageReply{ConversationID: id, Reply: reply}
	if reply.Err != nil {
		out.Error = reply.Err.Error()
	}

	status := http.StatusOK
	if reply.Stale {
		status = http.StatusConflict
	}
	return c.JSON(status, out)
}

// ListConversations handles GET /api/v1/conversations.
func (s *APIV1Service) ListConversations(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Sessions.List())
}

// ResetConversation handles POST /api/v1/conversations/:id/reset.
func (s *APIV1Service) ResetConversation(c echo.Context) error {
	if !s.Sessions.Reset(c.Param("id")) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteConversation handles DELETE /api/v1/conversations/:id.
func (s *APIV1Service) DeleteConversation(c echo.Context) error {
	id := c.Param("id")
	if !s.Sessions.Remove(id) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
	}
	s.limiter.Forget("conversation:" + id)
	return c.NoContent(http.StatusNoContent)
}
