package summarize

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/llmclient"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

func TestGenerate_AllThreeSucceed(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"generated"}`))
	}))
	defer srv.Close()

	client := llmclient.New(&config.LLMProviderConfig{Endpoint: srv.URL, Model: "m", MaxOutputTokens: 256})
	gen := NewGenerator(client)

	result := gen.Generate(context.Background(), []models.Topic{{Title: "A", Summary: "a summary"}}, "en")
	require.Equal(t, "generated", result.Title)
	require.Equal(t, "generated", result.LongSummary)
	require.Equal(t, "generated", result.ShortSummary)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGenerate_DegradesToEmptyOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := llmclient.New(&config.LLMProviderConfig{Endpoint: srv.URL, Model: "m", MaxOutputTokens: 256})
	gen := NewGenerator(client)

	result := gen.Generate(context.Background(), []models.Topic{{Title: "A", Summary: "a summary"}}, "en")
	require.Empty(t, result.Title)
	require.Empty(t, result.LongSummary)
	require.Empty(t, result.ShortSummary)
}

func TestGenerateTitle_Independent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"a title"}`))
	}))
	defer srv.Close()

	client := llmclient.New(&config.LLMProviderConfig{Endpoint: srv.URL, Model: "m", MaxOutputTokens: 256})
	gen := NewGenerator(client)

	title := gen.GenerateTitle(context.Background(), []models.Topic{{Title: "A", Summary: "a summary"}}, "en")
	require.Equal(t, "a title", title)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateLongSummary_Independent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"a long summary"}`))
	}))
	defer srv.Close()

	client := llmclient.New(&config.LLMProviderConfig{Endpoint: srv.URL, Model: "m", MaxOutputTokens: 256})
	gen := NewGenerator(client)

	got := gen.GenerateLongSummary(context.Background(), []models.Topic{{Title: "A", Summary: "a summary"}}, "en")
	require.Equal(t, "a long summary", got)
}

func TestGenerateShortSummary_DegradesOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := llmclient.New(&config.LLMProviderConfig{Endpoint: srv.URL, Model: "m", MaxOutputTokens: 256})
	gen := NewGenerator(client)

	got := gen.GenerateShortSummary(context.Background(), []models.Topic{{Title: "A", Summary: "a summary"}}, "en")
	require.Empty(t, got)
}
