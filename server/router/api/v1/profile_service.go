package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/armi/plugin/ai/reminder"
	"github.com/hrygo/armi/store"
)

// Profile is the API view of a stored profile.
type Profile struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Age          *int     `json:"age,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Email        string   `json:"email,omitempty"`
	Birthday     string   `json:"birthday,omitempty"`
	Relationship string   `json:"relationship,omitempty"`
	Occupation   string   `json:"occupation,omitempty"`
	Location     string   `json:"location,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	FoodLikes    []string `json:"foodLikes"`
	FoodDislikes []string `json:"foodDislikes"`
	Interests    []string `json:"interests"`
	Kids         []string `json:"kids"`
	Tags         []string `json:"tags"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

// Interaction is the API view of a profile audit entry.
type Interaction struct {
	ID            string `json:"id"`
	ProfileID     string `json:"profileId"`
	Description   string `json:"description"`
	ExtractedData string `json:"extractedData"`
	CreatedAt     string `json:"createdAt"`
}

// Reminder is the API view of a stored reminder.
type Reminder struct {
	ID             string `json:"id"`
	ProfileID      string `json:"profileId,omitempty"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Type           string `json:"type"`
	ScheduledFor   string `json:"scheduledFor"`
	NotificationID string `json:"notificationId,omitempty"`
}

// ScheduledText is the API view of a stored scheduled text.
type ScheduledText struct {
	ID             string `json:"id"`
	ProfileID      string `json:"profileId,omitempty"`
	PhoneNumber    string `json:"phoneNumber"`
	Message        string `json:"message"`
	ScheduledFor   string `json:"scheduledFor"`
	NotificationID string `json:"notificationId,omitempty"`
}

// ListProfiles handles GET /api/v1/profiles[?name=].
func (s *APIV1Service) ListProfiles(c echo.Context) error {
	find := &store.FindProfile{}
	if name := c.QueryParam("name"); name != "" {
		find.Name = &name
	}
	if limit, ok := queryLimit(c); ok {
		find.Limit = &limit
	}
	list, err := s.Store.ListProfiles(c.Request().Context(), find)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	out := make([]*Profile, 0, len(list))
	for _, p := range list {
		out = append(out, convertProfile(p))
	}
	return c.JSON(http.StatusOK, out)
}

// GetProfile handles GET /api/v1/profiles/:id.
func (s *APIV1Service) GetProfile(c echo.Context) error {
	id := c.Param("id")
	p, err := s.Store.GetProfile(c.Request().Context(), &store.FindProfile{ID: &id})
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	if p == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
	}
	return c.JSON(http.StatusOK, convertProfile(p))
}

// ListInteractions handles GET /api/v1/profiles/:id/interactions.
func (s *APIV1Service) ListInteractions(c echo.Context) error {
	id := c.Param("id")
	find := &store.FindInteraction{ProfileID: &id}
	if limit, ok := queryLimit(c); ok {
		find.Limit = &limit
	}
	list, err := s.Store.ListInteractions(c.Request().Context(), find)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	out := make([]*Interaction, 0, len(list))
	for _, i := range list {
		out = append(out, &Interaction{
			ID:            i.ID,
			ProfileID:     i.ProfileID,
			Description:   i.Description,
			ExtractedData: i.ExtractedData,
			CreatedAt:     formatUnix(i.CreatedTs),
		})
	}
	return c.JSON(http.StatusOK, out)
}

// ListReminders handles GET /api/v1/reminders[?profileId=&upcoming=true].
func (s *APIV1Service) ListReminders(c echo.Context) error {
	find := &store.FindReminder{}
	if pid := c.QueryParam("profileId"); pid != "" {
		find.ProfileID = &pid
	}
	if c.QueryParam("upcoming") == "true" {
		now := time.Now().Unix()
		find.ScheduledAfter = &now
	}
	list, err := s.Store.ListReminders(c.Request().Context(), find)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	out := make([]*Reminder, 0, len(list))
	for _, r := range list {
		out = append(out, &Reminder{
			ID:             r.ID,
			ProfileID:      r.ProfileID,
			Title:          r.Title,
			Description:    r.Description,
			Type:           r.Type,
			ScheduledFor:   formatUnix(r.ScheduledTs),
			NotificationID: r.NotificationID,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// ListScheduledTexts handles GET /api/v1/scheduled-texts[?profileId=&upcoming=true].
func (s *APIV1Service) ListScheduledTexts(c echo.Context) error {
	find := &store.FindScheduledText{}
	if pid := c.QueryParam("profileId"); pid != "" {
		find.ProfileID = &pid
	}
	if c.QueryParam("upcoming") == "true" {
		now := time.Now().Unix()
		find.ScheduledAfter = &now
	}
	list, err := s.Store.ListScheduledTexts(c.Request().Context(), find)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	out := make([]*ScheduledText, 0, len(list))
	for _, t := range list {
		out = append(out, &ScheduledText{
			ID:             t.ID,
			ProfileID:      t.ProfileID,
			PhoneNumber:    t.PhoneNumber,
			Message:        t.Message,
			ScheduledFor:   formatUnix(t.ScheduledTs),
			NotificationID: t.NotificationID,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// ListNotifications handles GET /api/v1/notifications[?status=].
func (s *APIV1Service) ListNotifications(c echo.Context) error {
	if s.Notifications == nil {
		return c.JSON(http.StatusOK, []*reminder.Notification{})
	}
	list, err := s.Notifications.List(c.Request().Context(), reminder.Status(c.QueryParam("status")))
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, list)
}

func convertProfile(p *store.Profile) *Profile {
	return &Profile{
		ID:           p.ID,
		Name:         p.Name,
		Age:          p.Age,
		Phone:        p.Phone,
		Email:        p.Email,
		Birthday:     p.Birthday,
		Relationship: p.Relationship,
		Occupation:   p.Occupation,
		Location:     p.Location,
		Notes:        p.Notes,
		FoodLikes:    p.FoodLikes,
		FoodDislikes: p.FoodDislikes,
		Interests:    p.Interests,
		Kids:         p.Kids,
		Tags:         p.Tags,
		CreatedAt:    formatUnix(p.CreatedTs),
		UpdatedAt:    formatUnix(p.UpdatedTs),
	}
}

func formatUnix(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func queryLimit(c echo.Context) (int, bool) {
	v := c.QueryParam("limit")
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
