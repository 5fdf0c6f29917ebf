package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/armi/plugin/ai/interpreter"
)

// Interpret handles POST /api/v1/interpret. It never executes anything.
func (s *APIV1Service) Interpret(c echo.Context) error {
	var req interpreter.Request
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.SimulatedNow = s.simulatedNow(req.SimulatedNow)

	result := s.Interpreter.Interpret(c.Request().Context(), req)
	return c.JSON(http.StatusOK, result)
}

// ReminderResponseRequest is the body of POST /api/v1/reminder-responses.
type ReminderResponseRequest struct {
	Text         string                 `json:"text"`
	Suggestion   interpreter.Suggestion `json:"suggestion"`
	UserTimezone string                 `json:"userTimezone,omitempty"`
	SimulatedNow string                 `json:"simulatedNow,omitempty"`
	// Execute saves the reminder when the answer is create.
	Execute bool `json:"execute,omitempty"`
}

// ReminderResponseReply wraps the interpreted answer.
type ReminderResponseReply struct {
	*interpreter.ReminderResponse
	Executed bool `json:"executed"`
}

// InterpretReminderResponse handles POST /api/v1/reminder-responses.
func (s *APIV1Service) InterpretReminderResponse(c echo.Context) error {
	var req ReminderResponseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Suggestion.Title) == "" {
		return badRequest(c, "suggestion.title is required")
	}

	ctx := c.Request().Context()
	tc := s.Interpreter.Clock().Resolve(req.UserTimezone, s.simulatedNow(req.SimulatedNow))
	resp, err := s.Interpreter.InterpretReminderResponse(ctx, req.Text, req.Suggestion, tc)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	reply := ReminderResponseReply{ReminderResponse: resp}
	if action, ok := resp.ToAction(); ok && req.Execute && s.Executor != nil {
		if err := s.Executor.Execute(ctx, req.Text, []interpreter.Action{action}); err != nil {
			return errorJSON(c, http.StatusUnprocessableEntity, err)
		}
		reply.Executed = true
	}
	return c.JSON(http.StatusOK, reply)
}

// simulatedNow passes the clock override through only outside prod.
func (s *APIV1Service) simulatedNow(v string) string {
	if s.Profile != nil && !s.Profile.IsDev() {
		return ""
	}
	return v
}
