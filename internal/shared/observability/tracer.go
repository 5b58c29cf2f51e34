package observability

import "go.opentelemetry.io/otel"

// Tracer names every span emitted by the pipeline. Callers use it exactly
// like the rest of the otel ecosystem does:
//
//	ctx, span := observability.Tracer.Start(ctx, "coordinator.run")
//	defer span.End()
//
// No SDK/exporter is installed here — that wiring belongs to the host
// process (a CLI, a service), which is out of this module's scope. Absent
// a registered TracerProvider, otel.Tracer returns a no-op tracer, so
// every call site below is safe to exercise unconditionally.
var Tracer = otel.Tracer("slopcheck")
