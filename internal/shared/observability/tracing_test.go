package observability

import (
	"context"
	"testing"
)

func TestInitTracing_NoEndpointInstallsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{})
	if err != nil {
		t.Fatalf("init tracing: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	_, span := Tracer().Start(context.Background(), "test")
	defer span.End()
	if span.SpanContext().IsValid() {
		t.Fatal("expected noop provider to produce invalid span contexts")
	}
}
