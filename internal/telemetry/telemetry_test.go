package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/d60-Lab/break-social/config"
)

func TestInitTracingDisabled(t *testing.T) {
	before := otel.GetTracerProvider()
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestInitTracingInstallsProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	shutdown, err := InitTracing(context.Background(), config.TracingConfig{
		Enabled: true, Endpoint: "http://127.0.0.1:4318", ServiceName: "breakd-test",
	})
	require.NoError(t, err)
	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracingRejectsBadEndpoint(t *testing.T) {
	_, err := InitTracing(context.Background(), config.TracingConfig{Enabled: true, Endpoint: "http://"})
	assert.Error(t, err)
}

func TestInitTracingBareHostPort(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Enabled: true, Endpoint: "localhost:4318"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitSentryWithoutDSN(t *testing.T) {
	shutdown, err := InitSentry(config.SentryConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.False(t, Enabled())
}
