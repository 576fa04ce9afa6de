package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/save2win/save2win-front/internal/config"
)

func TestSetup_NoopWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, shutdown(ctx))
}

func TestSetup_WithEndpoint(t *testing.T) {
	// Non-routable, nothing is exported before shutdown.
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{
		Endpoint:    "http://192.0.2.1:4318",
		ServiceName: "save2win-test",
	})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
