package interpreter

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/hrygo/armi/internal/aierr"
)

var codeFenceRe = regexp.MustCompile("(?s)^```(?:json|JSON)?\\s*(.*?)\\s*```$")

// stripCodeFences removes a markdown code block wrapped around the JSON body.
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	if m := codeFenceRe.FindStringSubmatch(content); len(m) > 1 {
		return m[1]
	}
	return content
}

type rawAction struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type rawResult struct {
	Intent              string      `json:"intent"`
	Confidence          *float64    `json:"confidence"`
	Actions             []rawAction `json:"actions"`
	Response            string      `json:"response"`
	Clarification       *string     `json:"clarification"`
	UsedCurrentDatetime string      `json:"usedCurrentDatetime"`
	Note                *string     `json:"note"`
}

// decodeStrict decodes exactly one JSON object, rejecting unknown top-level
// fields and trailing content.
func decodeStrict(content string, v any) error {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected trailing content after JSON object")
	}
	return nil
}

// parseResult turns backend content into a Result. Decode problems come back
// as MalformedBackendResponse and contract violations as ValidationFailure.
func parseResult(content string) (*Result, error) {
	body := stripCodeFences(content)
	if body == "" || !strings.HasPrefix(body, "{") {
		return nil, aierr.MalformedBackendResponse("backend response is not a JSON object", nil)
	}

	var raw rawResult
	if err := decodeStrict(body, &raw); err != nil {
		return nil, aierr.MalformedBackendResponse("decode backend response", err)
	}
	if raw.Confidence == nil {
		return nil, aierr.ValidationFailure("confidence is missing")
	}

	result := &Result{
		Intent:              Intent(strings.TrimSpace(raw.Intent)),
		Confidence:          *raw.Confidence,
		Actions:             make([]Action, 0, len(raw.Actions)),
		Response:            raw.Response,
		UsedCurrentDatetime: raw.UsedCurrentDatetime,
		Source:              SourceLLM,
	}
	if raw.Clarification != nil {
		result.Clarification = *raw.Clarification
	}
	if raw.Note != nil {
		result.Note = *raw.Note
	}

	for i, ra := range raw.Actions {
		a, err := decodeAction(ActionType(strings.TrimSpace(ra.Type)), ra.Payload)
		if err != nil {
			return nil, aierr.ValidationFailure(fmt.Sprintf("action %d: %v", i, err))
		}
		result.Actions = append(result.Actions, a)
	}

	if err := result.validate(); err != nil {
		return nil, err
	}
	return result, nil
}

type rawReminderResponse struct {
	Action              string  `json:"action"`
	Title               string  `json:"title"`
	Description         string  `json:"description"`
	Type                string  `json:"type"`
	ScheduledFor        *string `json:"scheduledFor"`
	ProfileID           string  `json:"profileId"`
	Response            string  `json:"response"`
	UsedCurrentDatetime string  `json:"usedCurrentDatetime"`
	Note                *string `json:"note"`
}

// parseReminderResponse decodes and validates a reminder-response body.
// Missing create fields are filled from the suggestion.
func parseReminderResponse(content string, s Suggestion) (*ReminderResponse, error) {
	body := stripCodeFences(content)
	if body == "" || !strings.HasPrefix(body, "{") {
		return nil, aierr.MalformedBackendResponse("backend response is not a JSON object", nil)
	}

	var raw rawReminderResponse
	if err := decodeStrict(body, &raw); err != nil {
		return nil, aierr.MalformedBackendResponse("decode reminder response", err)
	}

	resp := &ReminderResponse{
		Action:              ReminderAction(strings.TrimSpace(raw.Action)),
		Title:               raw.Title,
		Description:         raw.Description,
		Type:                raw.Type,
		ProfileID:           raw.ProfileID,
		Response:            raw.Response,
		UsedCurrentDatetime: raw.UsedCurrentDatetime,
		Source:              SourceLLM,
	}
	if raw.ScheduledFor != nil {
		resp.ScheduledFor = *raw.ScheduledFor
	}
	if raw.Note != nil {
		resp.Note = *raw.Note
	}

	switch resp.Action {
	case ReminderCreate:
		fillFromSuggestion(resp, s)
		a, _ := resp.ToAction()
		if err := a.Validate(); err != nil {
			return nil, err
		}
	case ReminderCancel, ReminderClarify:
	default:
		return nil, aierr.ValidationFailure(fmt.Sprintf("unknown reminder action %q", resp.Action))
	}
	return resp, nil
}

func fillFromSuggestion(resp *ReminderResponse, s Suggestion) {
	if strings.TrimSpace(resp.Title) == "" {
		resp.Title = s.Title
	}
	if resp.Description == "" {
		resp.Description = s.Description
	}
	if resp.Type == "" {
		resp.Type = s.Type
	}
	if resp.Type == "" {
		resp.Type = ReminderTypeGeneral
	}
	if strings.TrimSpace(resp.ScheduledFor) == "" {
		resp.ScheduledFor = s.ScheduledFor
	}
	if resp.ProfileID == "" {
		resp.ProfileID = s.ProfileID
	}
}
