package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdoutProviderWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()
	tp, err := newTracerProvider(ctx, OtelConfig{Enabled: true, Environment: "test"}, &buf)
	require.NoError(t, err)

	_, span := tp.Tracer(TracerName).Start(ctx, "hierarchy.reconcile")
	span.End()
	require.NoError(t, tp.Shutdown(ctx))

	assert.Contains(t, buf.String(), "hierarchy.reconcile")
	assert.Contains(t, buf.String(), "routecard")
}

func TestSampleRatioBounds(t *testing.T) {
	assert.Equal(t, 1.0, sampleRatio(0))
	assert.Equal(t, 1.0, sampleRatio(-2))
	assert.Equal(t, 1.0, sampleRatio(4))
	assert.Equal(t, 0.3, sampleRatio(0.3))
}

func TestInitOTelDisabledIsNoop(t *testing.T) {
	shutdown := InitOTel(context.Background(), nil, OtelConfig{})
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
