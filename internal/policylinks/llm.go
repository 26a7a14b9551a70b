package policylinks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// LLMClient is the narrow surface strategy E needs from a language model.
// It exists so tests can stub it rather than depend on a live provider —
// strategy E is the one non-deterministic strategy in the pipeline.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

const llmSystemPrompt = `You identify which links on a company's homepage lead to its privacy policy, refund/return policy, and terms of service pages. You are given a numbered list of anchor texts and destination paths found on the page. Respond with strict JSON only, no prose, no markdown fencing:
{"matches":{"privacy":<index or null>,"refund":<index or null>,"terms":<index or null>},"reasoning":"<one short sentence>"}
Use the integer index from the list for a confident match, or null if none of the links plausibly lead to that page type.`

// llmCandidateLinks caps the link list sent to the model: footer links are
// prioritized since policy links live there far more often than in body
// content, per spec.md's footer-first strategy E budget.
const (
	maxLLMFooterLinks = 30
	maxLLMOtherLinks  = 20
)

type linkRef struct {
	anchor   string
	href     string
	inFooter bool
}

func buildLLMPrompt(links []linkRef) (string, []linkRef) {
	var footer, other []linkRef
	for _, l := range links {
		if l.inFooter {
			footer = append(footer, l)
		} else {
			other = append(other, l)
		}
	}
	if len(footer) > maxLLMFooterLinks {
		footer = footer[:maxLLMFooterLinks]
	}
	if len(other) > maxLLMOtherLinks {
		other = other[:maxLLMOtherLinks]
	}
	selected := append(footer, other...)

	var sb strings.Builder
	sb.WriteString("Links found on the homepage:\n")
	for i, l := range selected {
		anchor := strings.TrimSpace(l.anchor)
		if anchor == "" {
			anchor = "(no text)"
		}
		fmt.Fprintf(&sb, "%d. text=%q href=%q footer=%v\n", i, anchor, l.href, l.inFooter)
	}
	return sb.String(), selected
}

type llmResponse struct {
	Matches struct {
		Privacy *int `json:"privacy"`
		Refund  *int `json:"refund"`
		Terms   *int `json:"terms"`
	} `json:"matches"`
	Reasoning string `json:"reasoning"`
}

// parseLLMResponse tolerates a ```json fenced response even though the
// prompt asks for bare JSON — models do it anyway often enough to guard for.
func parseLLMResponse(raw string) (llmResponse, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var out llmResponse
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return llmResponse{}, fmt.Errorf("parse llm response: %w", err)
	}
	return out, nil
}

func (r llmResponse) indexFor(t Type) *int {
	switch t {
	case TypePrivacy:
		return r.Matches.Privacy
	case TypeRefund:
		return r.Matches.Refund
	case TypeTerms:
		return r.Matches.Terms
	default:
		return nil
	}
}
