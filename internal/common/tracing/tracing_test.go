package tracing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestSetup_Noop(t *testing.T) {
	shutdown, err := Setup(context.Background(), "none", nil)
	require.NoError(t, err)
	_, span := StartSpan(context.Background(), "noop")
	End(span, nil)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_StdoutWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), "stdout", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = Setup(context.Background(), "none", nil) })

	_, span := StartSpan(context.Background(), "manager.embed", attribute.String("model", "m"))
	End(span, errors.New("boom"))
	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "manager.embed")
	assert.Contains(t, buf.String(), "boom")
}

func TestSetup_Unsupported(t *testing.T) {
	_, err := Setup(context.Background(), "jaeger", nil)
	assert.Error(t, err)
}
