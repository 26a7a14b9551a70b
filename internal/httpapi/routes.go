package httpapi

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// NewHumaConfig builds the shared Huma config used by both the live
// server and the OpenAPI generator, so the two never drift.
func NewHumaConfig(baseURL string) huma.Config {
	cfg := huma.DefaultConfig("riskintel", "1.0.0")
	cfg.Info.Description = "Policy-gated domain reconnaissance and risk-scoring service."
	cfg.Servers = []*huma.Server{{URL: baseURL, Description: "API server"}}
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		SecurityScheme: {
			Type:        "http",
			Scheme:      "bearer",
			Description: "JWT bearer token. Include it as `Authorization: Bearer <token>`.",
		},
	}
	return cfg
}

// Register wires every route onto api, using h's handlers. Pass
// StubHandlers() to generate an OpenAPI document without a live runner
// or database.
func Register(api huma.API, h *Handlers) {
	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Health check",
		OperationID: "healthCheck",
		Tags:        []string{"Health"},
	}, HealthCheck)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/api/v1/scans",
		Summary:     "Submit a domain for risk-intel scanning",
		Description: "Runs the full C5/C8/C9/C10 pipeline against the given URL and returns the resulting risk assessment.",
		OperationID: "createScan",
		Tags:        []string{"Scans"},
		Security:    []map[string][]string{{SecurityScheme: {}}},
	}, h.Scan.CreateScan)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/api/v1/scans/{id}",
		Summary:     "Get a scan's status and risk assessment",
		OperationID: "getScan",
		Tags:        []string{"Scans"},
		Security:    []map[string][]string{{SecurityScheme: {}}},
	}, h.Scan.GetScan)
}
