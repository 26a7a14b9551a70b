// Package httpapi is the service entrypoint's HTTP surface: chi+huma
// handlers over the pipeline runner, bearer-JWT auth, and OpenAPI docs.
// It is additive tooling around the core pipeline, not a core component.
package httpapi

import (
	"github.com/jmylchreest/riskintel/internal/pipeline"
	"github.com/jmylchreest/riskintel/internal/store"
)

// Handlers holds every dependency the registered routes need. Pass real
// implementations for the running server, or StubHandlers for OpenAPI
// generation without a database or any of the scan dependencies.
type Handlers struct {
	Runner *pipeline.Runner
	Store  *store.Store

	Scan ScanHandler
}

// StubHandlers returns a Handlers whose methods never touch a real
// runner or store, for the `riskintel-openapi` generator: it only needs
// the route table's shape, not working implementations.
func StubHandlers() *Handlers {
	return &Handlers{Scan: ScanHandler{runner: nil, store: nil}}
}
