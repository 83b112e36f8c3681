package asr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
)

func TestClient_Transcribe_TagsSpeaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/transcribe", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"words":[{"text":"hello","start":0.0,"end":0.5},{"text":"world","start":0.5,"end":1.0}]}`))
	}))
	defer srv.Close()

	c := New(&config.ASRProviderConfig{Endpoint: srv.URL})
	words, err := c.Transcribe(context.Background(), "https://example.com/audio.webm", "en", 2)
	require.NoError(t, err)
	require.Len(t, words, 2)
	require.Equal(t, "hello", words[0].Text)
	require.Equal(t, 2, words[0].Speaker)
	require.Equal(t, 2, words[1].Speaker)
}

func TestClient_Transcribe_NonRetryable4xx(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(&config.ASRProviderConfig{Endpoint: srv.URL})
	_, err := c.Transcribe(context.Background(), "https://example.com/audio.webm", "en", 0)
	require.Error(t, err)
	require.Equal(t, 1, calls)
}
