package domain

import "time"

// ConversationTurn records one completed query for an identity.
type ConversationTurn struct {
	Query       string            `json:"query"`
	Intent      Intent            `json:"intent"`
	Entities    ExtractedEntities `json:"entities"`
	ResultCount int               `json:"result_count"`
	Timestamp   time.Time         `json:"timestamp"`
}

// ContextSummary is the compact prior-turn view handed to the language
// understanding gateway so follow-up queries can resolve references.
type ContextSummary struct {
	LastQuery    string            `json:"last_query"`
	LastIntent   Intent            `json:"last_intent"`
	LastEntities ExtractedEntities `json:"last_entities"`
	TurnCount    int               `json:"turn_count"`
}
