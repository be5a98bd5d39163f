package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestResourceCache_FirstCallWins(t *testing.T) {
	var cache ResourceCache
	assert.False(t, cache.Initialized())

	first := cache.Get("svc-A", attribute.String("env", "dev"))
	require.NotNil(t, first)
	assert.True(t, cache.Initialized())

	second := cache.Get("svc-B", attribute.String("env", "prod"))
	assert.Same(t, first, second)
	assert.Equal(t, "svc-A", serviceName(second))

	env, ok := second.Set().Value("env")
	require.True(t, ok)
	assert.Equal(t, "dev", env.AsString())
}

func TestResource_ProcessWide(t *testing.T) {
	a := Resource("process-a")
	b := Resource("process-b")
	assert.Same(t, a, b)
	assert.True(t, processResource.Initialized())
}

func TestNew_ResourceMemoized(t *testing.T) {
	tl := newObservedLogger()
	cache := &ResourceCache{}

	newJSON := func(name string) *Manager {
		cfg := jsonConfig(name, nil)
		m, err := New(t.Context(), cfg, WithResourceCache(cache), WithLogger(tl.logger))
		require.NoError(t, err)
		t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
		return m
	}

	a := newJSON("svc-A")
	b := newJSON("svc-B")

	assert.Equal(t, "svc-A", serviceName(a.Resource()))
	assert.Equal(t, "svc-A", serviceName(b.Resource()))
	assert.Same(t, a.Resource(), b.Resource())
	assert.Equal(t, 1, tl.observed.FilterMessage("telemetry resource already initialized, keeping first service name").Len())
}
