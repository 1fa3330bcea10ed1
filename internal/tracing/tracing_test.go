package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"chatbook/internal/config"
)

func TestSetupWithoutExporter(t *testing.T) {
	shutdown, err := Setup(context.Background(), &config.Config{ServiceName: "chatbook", Environment: "test"})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, shutdown(context.Background()))
}

func TestSetupWithURLEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), &config.Config{
		ServiceName:  "chatbook",
		Environment:  "test",
		OTLPEndpoint: "http://127.0.0.1:4317",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}

func TestSetupInvalidEndpoint(t *testing.T) {
	_, err := Setup(context.Background(), &config.Config{ServiceName: "chatbook", OTLPEndpoint: "ftp://collector:4317"})
	require.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestExporterOptions(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		options  int
		wantErr  bool
	}{
		{name: "host and port", endpoint: "127.0.0.1:4317", options: 2},
		{name: "http url", endpoint: "http://127.0.0.1:4317", options: 1},
		{name: "https url", endpoint: "https://collector.internal:4317", options: 1},
		{name: "unsupported scheme", endpoint: "grpc://collector:4317", wantErr: true},
		{name: "missing host", endpoint: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := exporterOptions(tt.endpoint)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidEndpoint)
				return
			}
			require.NoError(t, err)
			assert.Len(t, opts, tt.options)
		})
	}
}

func TestSetupRoutesOtelErrorsToZap(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	_, err := Setup(context.Background(), &config.Config{ServiceName: "chatbook"})
	require.NoError(t, err)

	otel.Handle(errors.New("traces export: connection refused"))

	entries := logs.FilterMessage("opentelemetry error").Filter(func(e observer.LoggedEntry) bool {
		return e.ContextMap()["error"] == "traces export: connection refused"
	}).All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}
