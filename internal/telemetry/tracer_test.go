package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer("docsearch", "test", "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NotPanics(t, shutdown)
}

func TestInitTracer_Endpoint(t *testing.T) {
	// The gRPC exporter connects lazily, so no collector is needed here
	shutdown, err := InitTracer("docsearch", "test", "127.0.0.1:4317")
	require.NoError(t, err)
	assert.NotPanics(t, shutdown)
}

func TestInitMeter_Disabled(t *testing.T) {
	shutdown, err := InitMeter("docsearch", "test", "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NotPanics(t, shutdown)
}

func TestInitMeter_Endpoint(t *testing.T) {
	prev := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	shutdown, err := InitMeter("docsearch", "test", "127.0.0.1:4317")
	require.NoError(t, err)

	_, ok := otel.GetMeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, ok, "the SDK provider is installed globally")
	assert.NotPanics(t, shutdown)
}
