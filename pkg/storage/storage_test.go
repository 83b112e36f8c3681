package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
)

func TestGateway_BucketOverride(t *testing.T) {
	g := &Gateway{defaultBucket: "meetingscribe-audio"}

	require.Equal(t, "meetingscribe-audio", g.bucket(""))
	require.Equal(t, "other-bucket", g.bucket("other-bucket"))
}

func TestNew_DefaultPresignTTL(t *testing.T) {
	ctx := context.Background()
	cfg := &config.StorageConfig{
		Bucket:      "meetingscribe-audio",
		Region:      "us-east-1",
		EndpointURL: "http://127.0.0.1:9000",
	}

	gw, err := New(ctx, cfg)
	require.NoError(t, err)
	require.Equal(t, 2*time.Hour, gw.defaultTTL)
	require.Equal(t, "meetingscribe-audio", gw.defaultBucket)
}

func TestNew_ExplicitPresignTTL(t *testing.T) {
	ctx := context.Background()
	cfg := &config.StorageConfig{
		Bucket:     "meetingscribe-audio",
		Region:     "us-east-1",
		PresignTTL: 30 * time.Minute,
	}

	gw, err := New(ctx, cfg)
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, gw.defaultTTL)
}
