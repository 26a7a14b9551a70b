package policylinks

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// anchorScanCandidates implements strategy A: score every anchor on the
// page against the anchor/href/content regex sets, awarding points for an
// anchor-text match, an href-path match, and footer placement. Every anchor
// is scored once per missing type; the caller keeps the highest-ranked
// candidate per type.
func anchorScanCandidates(doc *goquery.Document, base *url.URL, missing []Type, method Method) []Candidate {
	var out []Candidate
	if doc == nil {
		return out
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}
		abs := resolveURL(base, href)
		if abs == "" {
			return
		}
		text := strings.TrimSpace(sel.Text())
		inFooter := sel.Closest("footer").Length() > 0 || sel.Closest("[class*=footer],[id*=footer]").Length() > 0

		for _, t := range missing {
			rank := 0
			if text != "" && anchorRegex(t).MatchString(text) {
				rank += 100
			}
			if hrefRegex(t).MatchString(href) {
				rank += 50
			}
			if inFooter {
				rank += 20
			}
			if rank == 0 {
				continue
			}
			out = append(out, Candidate{Type: t, URL: abs, Rank: rank, Method: method})
		}
	})
	return out
}

// commonPathCandidates implements strategy B: a fixed, ranked list of
// well-known paths per type, tried against the origin root regardless of
// what the homepage HTML contains.
func commonPathCandidates(base *url.URL, missing []Type) []Candidate {
	var out []Candidate
	for _, t := range missing {
		paths := commonPaths[t]
		for i, p := range paths {
			abs := resolveURL(base, p)
			if abs == "" {
				continue
			}
			out = append(out, Candidate{Type: t, URL: abs, Rank: 100 - 10*i, Method: MethodCommonPaths})
		}
	}
	return out
}

// keywordProximityCandidates implements strategy D: scan the page's flat
// text for a policy keyword, then look at nearby anchors (within a fixed
// character window) for one that resolves to a same-type href — catching
// layouts where the policy word and its link sit in unlinked prose rather
// than a clean anchor, e.g. "See our refund policy here" with the link on
// a neighboring "here".
const proximityWindow = 200

func keywordProximityCandidates(doc *goquery.Document, base *url.URL, missing []Type) []Candidate {
	var out []Candidate
	if doc == nil {
		return out
	}

	type anchorPos struct {
		href string
		pos  int
	}
	var anchors []anchorPos
	var sb strings.Builder
	doc.Find("body").Each(func(_ int, body *goquery.Selection) {
		body.Find("*").Each(func(_ int, sel *goquery.Selection) {
			if href, has := sel.Attr("href"); has && sel.Is("a") {
				anchors = append(anchors, anchorPos{href: href, pos: sb.Len()})
			}
			if goquery.NodeName(sel) != "script" && goquery.NodeName(sel) != "style" {
				sb.WriteString(strings.TrimSpace(sel.Text()))
				sb.WriteString(" ")
			}
		})
	})
	text := sb.String()

	for _, t := range missing {
		loc := contentRegex(t).FindStringIndex(text)
		if loc == nil {
			continue
		}
		best := -1
		bestDist := proximityWindow + 1
		for i, a := range anchors {
			dist := a.pos - loc[0]
			if dist < 0 {
				dist = -dist
			}
			if dist <= proximityWindow && dist < bestDist {
				bestDist = dist
				best = i
			}
		}
		if best < 0 {
			continue
		}
		abs := resolveURL(base, anchors[best].href)
		if abs == "" {
			continue
		}
		out = append(out, Candidate{Type: t, URL: abs, Rank: 80, Method: MethodKeywordProximity})
	}
	return out
}

// llmSemanticCandidates implements strategy E: ask the model to pick, by
// index, which of the page's links (footer-prioritized, capped) lead to
// each missing type.
func llmSemanticCandidates(ctx context.Context, llm LLMClient, doc *goquery.Document, base *url.URL, missing []Type) []Candidate {
	var out []Candidate
	if doc == nil || llm == nil || len(missing) == 0 {
		return out
	}

	var links []linkRef
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}
		inFooter := sel.Closest("footer").Length() > 0 || sel.Closest("[class*=footer],[id*=footer]").Length() > 0
		links = append(links, linkRef{anchor: sel.Text(), href: href, inFooter: inFooter})
	})
	if len(links) == 0 {
		return out
	}

	prompt, selected := buildLLMPrompt(links)
	raw, err := llm.Complete(ctx, llmSystemPrompt, prompt, 500)
	if err != nil {
		return out
	}
	parsed, err := parseLLMResponse(raw)
	if err != nil {
		return out
	}

	for _, t := range missing {
		idx := parsed.indexFor(t)
		if idx == nil || *idx < 0 || *idx >= len(selected) {
			continue
		}
		abs := resolveURL(base, selected[*idx].href)
		if abs == "" {
			continue
		}
		rank := 30
		if selected[*idx].inFooter {
			rank += 20
		}
		out = append(out, Candidate{Type: t, URL: abs, Rank: rank, Method: MethodLLMSemantic})
	}
	return out
}

func resolveURL(base *url.URL, href string) string {
	if base == nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
