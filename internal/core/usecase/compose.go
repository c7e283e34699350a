package usecase

import (
	"fmt"
	"strings"

	"github.com/connectbase/member-search/internal/core/domain"
)

// Composer decides between answering and asking for clarification, and
// assembles the response payload with pagination metadata.
type Composer struct {
	clarifyThreshold float64
	defaultPageSize  int
}

func NewComposer(clarifyThreshold float64, defaultPageSize int) *Composer {
	if clarifyThreshold <= 0 {
		clarifyThreshold = 0.3
	}
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	return &Composer{clarifyThreshold: clarifyThreshold, defaultPageSize: defaultPageSize}
}

// NeedsClarification reports whether the understanding is too uncertain
// to search on. Low confidence yields a clarification response, never a
// server error.
func (c *Composer) NeedsClarification(understanding domain.UnderstandingResult) bool {
	return understanding.Confidence < c.clarifyThreshold || understanding.Intent == domain.IntentClarify
}

// Clarify builds the zero-result clarification payload with example
// reformulations the caller can offer.
func (c *Composer) Clarify(understanding domain.UnderstandingResult, page domain.Page) domain.ResponsePayload {
	page = page.Normalize(c.defaultPageSize)
	return domain.ResponsePayload{
		Results:            []domain.ScoredCandidate{},
		Message:            "I could not work out what to search for. Could you rephrase with a skill, a place, or a graduation year?",
		Suggestions:        exampleReformulations(),
		NeedsClarification: true,
		PageInfo:           buildPageInfo(page, 0),
		Understanding:      understanding,
	}
}

// Compose assembles the success payload from an already-ranked result.
func (c *Composer) Compose(
	understanding domain.UnderstandingResult,
	result domain.SearchResult,
	options domain.SearchOptions,
	page domain.Page,
) domain.ResponsePayload {
	page = page.Normalize(c.defaultPageSize)
	payload := domain.ResponsePayload{
		Results:       result.Candidates,
		PageInfo:      buildPageInfo(page, result.TotalCount),
		Understanding: understanding,
		Degraded:      result.Degraded,
	}
	if payload.Results == nil {
		payload.Results = []domain.ScoredCandidate{}
	}
	if options.IncludeResponse {
		payload.Message = summaryMessage(understanding, result)
	}
	if options.IncludeSuggestions {
		payload.Suggestions = refinementSuggestions(understanding.Entities, result.TotalCount)
	}
	return payload
}

func buildPageInfo(page domain.Page, totalResults int) domain.PageInfo {
	totalPages := 0
	if totalResults > 0 {
		totalPages = (totalResults + page.Size - 1) / page.Size
	}
	return domain.PageInfo{
		Page:         page.Number,
		PageSize:     page.Size,
		TotalPages:   totalPages,
		TotalResults: totalResults,
		HasNext:      page.Number < totalPages,
		HasPrevious:  page.Number > 1 && totalResults > 0,
	}
}

func summaryMessage(understanding domain.UnderstandingResult, result domain.SearchResult) string {
	if result.TotalCount == 0 {
		return "No members matched that search. Try widening it: drop a filter or use a broader skill."
	}

	subject := "members"
	if understanding.Intent == domain.IntentFindService {
		subject = "members offering that service"
	}
	msg := fmt.Sprintf("Found %d %s", result.TotalCount, subject)
	if loc := understanding.Entities.Location; loc != "" {
		msg += " in " + loc
	}
	if result.Degraded != "" {
		msg += " (partial results: one search path was unavailable)"
	}
	return msg + "."
}

func refinementSuggestions(entities domain.ExtractedEntities, totalCount int) []string {
	if totalCount == 0 {
		return exampleReformulations()
	}

	var out []string
	if len(entities.GraduationYears) == 0 {
		out = append(out, "Add a graduation year to narrow the list, e.g. \"2018 passout\".")
	}
	if entities.Location == "" {
		out = append(out, "Add a city to narrow the list, e.g. \"in Bangalore\".")
	}
	if len(entities.Skills) == 0 && len(entities.Services) == 0 {
		out = append(out, "Name a skill or service, e.g. \"machine learning\" or \"tax filing\".")
	}
	return out
}

func exampleReformulations() []string {
	return []string{
		"machine learning engineers in Bangalore",
		"2018 passout from Chennai",
		"someone who does tax filing",
	}
}

// turnFromResponse records a completed query for conversation history.
func turnFromResponse(query domain.Query, payload domain.ResponsePayload) domain.ConversationTurn {
	return domain.ConversationTurn{
		Query:       strings.TrimSpace(query.Text),
		Intent:      payload.Understanding.Intent,
		Entities:    payload.Understanding.Entities,
		ResultCount: payload.PageInfo.TotalResults,
	}
}
