package telemetry

import (
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// ResourceCache holds a resource that is built exactly once.
//
// The first Get wins: later calls return the stored resource unchanged even
// when they pass a different service name or attributes. Callers that need a
// distinct identity must use their own cache.
type ResourceCache struct {
	once  sync.Once
	res   *resource.Resource
	ready atomic.Bool
}

// Get returns the cached resource, building it on first use.
func (c *ResourceCache) Get(serviceName string, attrs ...attribute.KeyValue) *resource.Resource {
	c.once.Do(func() {
		c.res = newResource(serviceName, attrs...)
		c.ready.Store(true)
	})
	return c.res
}

// Initialized reports whether Get has already built the resource.
func (c *ResourceCache) Initialized() bool {
	return c.ready.Load()
}

var processResource ResourceCache

// Resource returns the process-wide resource shared by every Manager built
// with the default cache. It is never released.
func Resource(serviceName string, attrs ...attribute.KeyValue) *resource.Resource {
	return processResource.Get(serviceName, attrs...)
}

// newResource creates a resource describing the service.
// A standalone resource avoids schema URL conflicts with resource.Default().
func newResource(serviceName string, attrs ...attribute.KeyValue) *resource.Resource {
	kvs := make([]attribute.KeyValue, 0, len(attrs)+1)
	kvs = append(kvs, semconv.ServiceName(serviceName))
	kvs = append(kvs, attrs...)
	return resource.NewWithAttributes(semconv.SchemaURL, kvs...)
}

// serviceName extracts service.name from res.
func serviceName(res *resource.Resource) string {
	v, _ := res.Set().Value(semconv.ServiceNameKey)
	return v.AsString()
}
