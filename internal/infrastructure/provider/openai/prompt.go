package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/connectbase/member-search/internal/core/domain"
)

const understandingSystemPrompt = `You are a query analyzer for a community member directory.
Return a strict JSON object with keys:
intent (one of: find_member, find_service, compare, clarify_needed, other),
entities (object with optional keys: graduation_years array of integers, location string, degree string, skills array of strings, services array of strings),
confidence (number from 0 to 1),
normalized_query (string, the query rewritten as a concise search phrase).
Omit entity keys you are not sure about. No markdown, no extra keys.`

func buildUnderstandingPrompt(query string, summary *domain.ContextSummary) string {
	if summary == nil {
		return "Query:\n" + query
	}

	var b strings.Builder
	b.WriteString("Previous turn of this conversation (use it to resolve references like \"what about X\"):\n")
	fmt.Fprintf(&b, "  query: %s\n", summary.LastQuery)
	fmt.Fprintf(&b, "  intent: %s\n", summary.LastIntent)
	if prior, err := json.Marshal(summary.LastEntities); err == nil {
		fmt.Fprintf(&b, "  entities: %s\n", prior)
	}
	b.WriteString("\nQuery:\n")
	b.WriteString(query)
	return b.String()
}

type understandingWire struct {
	Intent   string `json:"intent"`
	Entities struct {
		GraduationYears []int    `json:"graduation_years"`
		Location        string   `json:"location"`
		Degree          string   `json:"degree"`
		Skills          []string `json:"skills"`
		Services        []string `json:"services"`
	} `json:"entities"`
	Confidence      float64 `json:"confidence"`
	NormalizedQuery string  `json:"normalized_query"`
}

// parseUnderstanding validates the model output as an untrusted payload;
// schema mismatches become permanent errors so the caller falls back
// instead of propagating malformed data.
func parseUnderstanding(query, raw string) (domain.UnderstandingResult, error) {
	var wire understandingWire
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &wire); err != nil {
		return domain.UnderstandingResult{}, domain.WrapError(
			domain.ErrProviderPermanent, "parse understanding", err)
	}

	intent := domain.Intent(strings.ReplaceAll(strings.TrimSpace(wire.Intent), "-", "_"))
	if !intent.Valid() {
		return domain.UnderstandingResult{}, domain.WrapError(
			domain.ErrProviderPermanent, "parse understanding",
			fmt.Errorf("unknown intent %q", wire.Intent))
	}

	confidence := wire.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	normalized := strings.TrimSpace(wire.NormalizedQuery)
	if normalized == "" {
		normalized = strings.ToLower(strings.TrimSpace(query))
	}

	return domain.UnderstandingResult{
		Intent: intent,
		Entities: domain.ExtractedEntities{
			GraduationYears: wire.Entities.GraduationYears,
			Location:        strings.TrimSpace(wire.Entities.Location),
			Degree:          strings.TrimSpace(wire.Entities.Degree),
			Skills:          cleanStrings(wire.Entities.Skills),
			Services:        cleanStrings(wire.Entities.Services),
		},
		Confidence:      confidence,
		NormalizedQuery: normalized,
		Source:          domain.SourceLLM,
	}, nil
}

func cleanStrings(values []string) []string {
	out := values[:0]
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, strings.ToLower(v))
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
