package llmclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/retry"
)

func TestClient_Complete_ReturnsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/complete", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hello"}`))
	}))
	defer srv.Close()

	c := New(&config.LLMProviderConfig{Endpoint: srv.URL, Model: "test-model", MaxOutputTokens: 256})
	text, err := c.Complete(context.Background(), "prompt", false)
	require.NoError(t, err)
	require.Equal(t, "hello", text)
}

func TestClient_Complete_ClassifiesPermanent4xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(&config.LLMProviderConfig{Endpoint: srv.URL, Model: "test-model", MaxOutputTokens: 256})
	_, err := c.Complete(context.Background(), "prompt", true)
	require.Error(t, err)
	require.True(t, retry.IsPermanent(err))
}
