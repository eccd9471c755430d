package observability

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys shared by the engine packages.
const (
	AttrSnapshotRoot  = attribute.Key("codeshape.snapshot.root")
	AttrSnapshotLabel = attribute.Key("codeshape.snapshot.label")
	AttrFileCount     = attribute.Key("codeshape.files")
	AttrFailureCount  = attribute.Key("codeshape.failures")
)

func serviceNameAttr(name string) attribute.KeyValue {
	return attribute.String("service.name", name)
}
