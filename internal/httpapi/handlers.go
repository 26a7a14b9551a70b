package httpapi

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/riskintel/internal/pipeline"
	"github.com/jmylchreest/riskintel/internal/store"
)

// NewHandlers wires a runner and store into the route table's dependencies.
func NewHandlers(runner *pipeline.Runner, st *store.Store) *Handlers {
	return &Handlers{
		Runner: runner,
		Store:  st,
		Scan:   ScanHandler{runner: runner, store: st},
	}
}

// ScanHandler implements POST /api/v1/scans and GET /api/v1/scans/{id}.
type ScanHandler struct {
	runner *pipeline.Runner
	store  *store.Store
}

// CreateScanInput is the request body for submitting a new scan.
type CreateScanInput struct {
	Body struct {
		URL string `json:"url" minLength:"1" example:"https://example.com" doc:"Target URL to run the risk-intel pipeline against"`
	}
}

// CreateScanOutput is the response to a scan submission.
type CreateScanOutput struct {
	Body ScanResultBody
}

// GetScanInput identifies which scan to retrieve.
type GetScanInput struct {
	ID string `path:"id" doc:"Scan ID"`
}

// GetScanOutput is the response to a scan lookup.
type GetScanOutput struct {
	Body ScanResultBody
}

// ScanResultBody is the wire shape of a scan's lifecycle state and, once
// scoring has run, its risk assessment.
type ScanResultBody struct {
	ScanID       string       `json:"scan_id"`
	TargetURL    string       `json:"target_url"`
	Status       string       `json:"status" doc:"pending, completed, or failed"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Assessment   *Assessment  `json:"assessment,omitempty"`
}

// Assessment is C10's output, per spec.md §4.5.
type Assessment struct {
	OverallRiskScore  int      `json:"overall_risk_score"`
	PrimaryRiskType   string   `json:"primary_risk_type"`
	Confidence        int      `json:"confidence"`
	PhishingScore     int      `json:"phishing_score"`
	ShellCompanyScore int      `json:"shell_company_score"`
	ComplianceScore   int      `json:"compliance_score"`
	Reasons           []string `json:"reasons"`
	SignalPaths       []string `json:"signal_paths"`
}

// CreateScan creates a domain/scan row, runs the pipeline synchronously,
// and returns the resulting assessment. Per spec.md §6's entry point:
// the pipeline never surfaces a Go error here, only a (possibly failed)
// Result embedded in the 200 response.
func (h *ScanHandler) CreateScan(ctx context.Context, input *CreateScanInput) (*CreateScanOutput, error) {
	_, hostname, err := pipeline.NormalizeURL(input.Body.URL)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity("invalid URL", err)
	}

	dom, err := h.store.UpsertDomain(ctx, hostname)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to register domain", err)
	}
	scanID, err := h.store.CreateScan(ctx, dom.ID, input.Body.URL)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to create scan", err)
	}

	result := h.runner.Run(ctx, scanID, input.Body.URL)

	return &CreateScanOutput{Body: toScanResultBody(scanID, input.Body.URL, result)}, nil
}

// GetScan returns a previously submitted scan's status and assessment.
func (h *ScanHandler) GetScan(ctx context.Context, input *GetScanInput) (*GetScanOutput, error) {
	res, err := h.store.GetScanResult(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to look up scan", err)
	}
	if res == nil {
		return nil, huma.Error404NotFound("scan not found")
	}

	body := ScanResultBody{
		ScanID:       res.ScanID,
		TargetURL:    res.TargetURL,
		Status:       res.Status,
		ErrorMessage: res.ErrorMessage,
	}
	if res.Assessment != nil {
		body.Assessment = &Assessment{
			OverallRiskScore:  res.Assessment.OverallRiskScore,
			PrimaryRiskType:   res.Assessment.PrimaryRiskType,
			Confidence:        res.Assessment.Confidence,
			PhishingScore:     res.Assessment.PhishingScore,
			ShellCompanyScore: res.Assessment.ShellCompanyScore,
			ComplianceScore:   res.Assessment.ComplianceScore,
			Reasons:           res.Assessment.Reasons,
			SignalPaths:       res.Assessment.SignalPaths,
		}
	}
	return &GetScanOutput{Body: body}, nil
}

func toScanResultBody(scanID, targetURL string, result pipeline.Result) ScanResultBody {
	status := "completed"
	if result.Error != "" {
		status = "failed"
	}
	return ScanResultBody{
		ScanID:       scanID,
		TargetURL:    targetURL,
		Status:       status,
		ErrorMessage: result.Error,
		Assessment: &Assessment{
			OverallRiskScore:  result.Assessment.OverallRiskScore,
			PrimaryRiskType:   result.Assessment.PrimaryRiskType,
			Confidence:        result.Assessment.Confidence,
			PhishingScore:     result.Assessment.PhishingScore,
			ShellCompanyScore: result.Assessment.ShellCompanyScore,
			ComplianceScore:   result.Assessment.ComplianceScore,
			Reasons:           result.Assessment.Reasons,
			SignalPaths:       result.Assessment.SignalPaths,
		},
	}
}

// HealthCheckInput has no parameters.
type HealthCheckInput struct{}

// HealthCheckOutput reports liveness.
type HealthCheckOutput struct {
	Body struct {
		Status string `json:"status" example:"ok"`
	}
}

// HealthCheck is a public, documented liveness probe.
func HealthCheck(ctx context.Context, input *HealthCheckInput) (*HealthCheckOutput, error) {
	out := &HealthCheckOutput{}
	out.Body.Status = "ok"
	return out, nil
}
