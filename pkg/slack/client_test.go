package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goslack "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostMessage_ReturnsTimestamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":      true,
			"channel": "C123",
			"ts":      "1700000000.000100",
		})
	}))
	defer srv.Close()

	c := NewClientWithAPIURL("xoxb-test", srv.URL+"/")
	ts, err := c.PostMessage(context.Background(), "C123", []goslack.Block{}, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "1700000000.000100", ts)
}

func TestClient_PostMessage_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":    false,
			"error": "channel_not_found",
		})
	}))
	defer srv.Close()

	c := NewClientWithAPIURL("xoxb-test", srv.URL+"/")
	_, err := c.PostMessage(context.Background(), "C999", []goslack.Block{}, 5*time.Second)
	assert.Error(t, err)
}
