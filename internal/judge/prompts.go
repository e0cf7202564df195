package judge

import (
	"fmt"
	"strings"
)

// Kind names the four evaluation shapes
type Kind string

const (
	KindClaim         Kind = "claim"
	KindSignal        Kind = "risk_signal"
	KindSource        Kind = "source"
	KindContradiction Kind = "contradiction"
)

const systemPrompt = `You are an independent due-diligence reviewer. You assess how well evidence supports statements about a business entity. You NEVER assert truth beyond the evidence shown.

RULES:
1. Use only the material in the request. Do not cite or assume outside sources.
2. If the evidence is thin, say so and lower your confidence.
3. Respond with a single JSON object matching the requested shape. No prose outside the JSON.
4. "confidence" is a number between 0 and 1.`

const claimTemplate = `Entity: %s

Review this claim and decide whether the cited evidence supports it.

Claim: %s
Claim type: %s
Current verdict: %s (confidence %.2f)
Citations:
%s
Context:
%s

Respond with:
{"verdict": "verified|disputed|unverifiable|context_needed", "confidence": 0.0, "reasoning": "...", "redFlags": ["..."], "greenFlags": ["..."]}`

const signalTemplate = `Entity: %s

Review this risk signal and decide how severe it is given the evidence.

Category: %s
Description: %s
Current severity: %s (confidence %.2f)
Evidence:
%s
Context:
%s

Respond with:
{"severity": "low|medium|high|critical", "confidence": 0.0, "reasoning": "...", "redFlags": ["..."], "greenFlags": ["..."]}`

const sourceTemplate = `Entity: %s

Review how reliable this source is for statements about the entity.

URL: %s
Title: %s
Source type: %s
Published: %s
Current reliability: %s
Snippet: %s
Context:
%s

Respond with:
{"reliability": "authoritative|reliable|secondary|unverified", "confidence": 0.0, "reasoning": "...", "redFlags": ["..."], "greenFlags": ["..."]}`

const contradictionTemplate = `Entity: %s

Two research branches disagree on the field %q.

Branch A (%s) reports: %v
Branch B (%s) reports: %v
Current resolution: %s
Reason: %s
Context:
%s

Decide which value is better supported, or whether both can be valid (e.g. reported at different times).

Respond with:
{"resolution": "resolved_to_a|resolved_to_b|both_valid|unresolved", "confidence": 0.0, "reasoning": "..."}`

func claimPrompt(entity string, r ClaimReview) string {
	var cites strings.Builder
	for _, c := range r.Claim.Citations {
		fmt.Fprintf(&cites, "- [%s] %s", c.Reliability, c.URL)
		if c.ExtractedSnippet != "" {
			fmt.Fprintf(&cites, " - %q", c.ExtractedSnippet)
		}
		cites.WriteString("\n")
	}
	return fmt.Sprintf(claimTemplate, entity, r.Claim.ClaimText, r.Claim.ClaimType,
		r.Claim.Verdict, r.Claim.Confidence, orNone(cites.String()), contextBlock(r.Context, r.Claim.Contradictions))
}

func signalPrompt(entity string, r SignalReview) string {
	var ev strings.Builder
	for _, e := range r.Signal.Evidence {
		fmt.Fprintf(&ev, "- %s\n", e)
	}
	return fmt.Sprintf(signalTemplate, entity, r.Signal.Category, r.Signal.Description,
		r.Signal.Severity, r.Signal.Confidence, orNone(ev.String()), contextBlock(r.Context, nil))
}

func sourcePrompt(entity string, r SourceReview) string {
	c := r.Citation
	published := "unknown"
	if c.PublishedAt != nil {
		published = c.PublishedAt.Format("2006-01-02")
	}
	return fmt.Sprintf(sourceTemplate, entity, c.URL, orNone(c.Title), c.SourceType,
		published, c.Reliability, orNone(c.ExtractedSnippet), contextBlock(r.Context, nil))
}

func contradictionPrompt(entity string, r ContradictionReview) string {
	c := r.Contradiction
	return fmt.Sprintf(contradictionTemplate, entity, c.Field,
		c.SourceA, c.ValueA, c.SourceB, c.ValueB,
		c.Resolution, c.ResolutionReason, contextBlock(r.Context, nil))
}

func contextBlock(lines []string, notes []string) string {
	var b strings.Builder
	for _, l := range append(append([]string{}, lines...), notes...) {
		fmt.Fprintf(&b, "- %s\n", l)
	}
	return orNone(b.String())
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return strings.TrimRight(s, "\n")
}
