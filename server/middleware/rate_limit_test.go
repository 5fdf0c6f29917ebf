package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(0.001), 2)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	rl.Forget("a")
	assert.True(t, rl.Allow("a"))
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	assert.Equal(t, DefaultRate, rl.limit)
	assert.Equal(t, DefaultBurst, rl.burst)
	assert.Equal(t, 0, rl.Prune())
}

func TestRateLimiter_EchoPerConversation(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(rate.Limit(0.001), 1)
	e.POST("/conversations/:id/messages", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, rl.Echo(ConversationKey))

	do := func(id string) int {
		req := httptest.NewRequest(http.MethodPost, "/conversations/"+id+"/messages", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do("c1"))
	assert.Equal(t, http.StatusTooManyRequests, do("c1"))
	assert.Equal(t, http.StatusNoContent, do("c2"))
}
