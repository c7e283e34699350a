package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/connectbase/member-search/internal/core/domain"
)

// Client talks to qdrant over its HTTP API. One collection holds one
// point per membership; points are keyed deterministically so re-indexing
// a profile replaces its vector instead of accumulating duplicates.
type Client struct {
	baseURL    string
	collection string
	vectorSize int
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
}

type Config struct {
	BaseURL    string
	Collection string
	VectorSize int
	Timeout    time.Duration
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	vectorSize := cfg.VectorSize
	if vectorSize <= 0 {
		vectorSize = 768
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		collection: cfg.Collection,
		vectorSize: vectorSize,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) UpsertProfile(ctx context.Context, profile domain.MemberProfile, vector domain.EmbeddingVector) error {
	if len(vector.Values) == 0 {
		return fmt.Errorf("empty vector for membership %s", profile.MembershipID)
	}
	if err := c.ensureCollection(ctx); err != nil {
		return err
	}

	reqBody := map[string]any{
		"points": []map[string]any{
			{
				"id":     pointID(profile.MembershipID),
				"vector": vector.Values,
				"payload": map[string]any{
					"membership_id": profile.MembershipID,
					"community_id":  profile.CommunityID,
					"model":         vector.Model,
				},
			},
		},
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	return c.do(ctx, http.MethodPut, url, reqBody, nil)
}

// Search returns nearest neighbors produced by the same model family as
// the query vector; an untagged vector cannot be compared safely.
func (c *Client) Search(ctx context.Context, vector domain.EmbeddingVector, topK int) ([]domain.VectorHit, error) {
	if vector.Model == "" {
		return nil, domain.WrapError(domain.ErrModelMismatch, "vector search",
			fmt.Errorf("query vector carries no model tag"))
	}
	if topK <= 0 {
		topK = 50
	}

	reqBody := map[string]any{
		"vector":       vector.Values,
		"limit":        topK,
		"with_payload": true,
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "model", "match": map[string]any{"value": vector.Model}},
			},
		},
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, reqBody, &searchResp); err != nil {
		return nil, err
	}

	out := make([]domain.VectorHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		id := getStringPayload(r.Payload, "membership_id")
		if id == "" {
			continue
		}
		// Cosine similarity score back to cosine distance.
		out = append(out, domain.VectorHit{MembershipID: id, Distance: 1 - r.Score})
	}
	return out, nil
}

func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/collections", nil)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrStoreUnavailable, "qdrant ping", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return domain.WrapError(domain.ErrStoreUnavailable, "qdrant ping",
			fmt.Errorf("status %s", resp.Status))
	}
	return nil
}

func (c *Client) ensureCollection(ctx context.Context) error {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	if c.ensuredCollection {
		return nil
	}

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     c.vectorSize,
			"distance": "Cosine",
		},
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	err := c.do(ctx, http.MethodPut, url, reqBody, nil)
	if err != nil && !strings.Contains(err.Error(), "409") {
		return err
	}
	c.ensuredCollection = true
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, reqBody any, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal qdrant body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrStoreUnavailable, "qdrant request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("qdrant status: 409 %s", resp.Status)
	}
	if resp.StatusCode >= 300 {
		return domain.WrapError(domain.ErrStoreUnavailable, "qdrant request",
			fmt.Errorf("status %s", resp.Status))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return nil
}

// pointID derives a stable UUID from the membership id so upserts
// overwrite the previous vector for the same member.
func pointID(membershipID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(membershipID)).String()
}

func getStringPayload(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
