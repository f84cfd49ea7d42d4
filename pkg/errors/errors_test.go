package errors

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTooManyRequestsMentionsWait(t *testing.T) {
	err := TooManyRequests("Rate limit exceeded", 90*time.Second)
	assert.Equal(t, http.StatusTooManyRequests, err.Status)
	assert.Equal(t, "Rate limit exceeded. Retry in 1m30s", err.Message)
}

func TestTooManyRequestsWithoutWait(t *testing.T) {
	err := TooManyRequests("Rate limit exceeded", 0)
	assert.Equal(t, "Rate limit exceeded", err.Message)
}

func TestIsMatchesWrappedCode(t *testing.T) {
	err := NotFound("Conversation", nil)
	assert.True(t, Is(err, "NOT_FOUND"))
	assert.False(t, Is(err, "FORBIDDEN"))
}
