package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/connectbase/member-search/internal/core/domain"
)

// Config describes one OpenAI-compatible inference endpoint. Several
// providers (OpenAI, Nebius, Together, self-hosted vLLM) speak this API,
// which is what makes the failover chain practical.
type Config struct {
	Name              string
	APIKey            string
	BaseURL           string
	ChatModel         string
	EmbedModel        string
	Dimensions        int
	Timeout           time.Duration
	RequestsPerSecond float64
}

type Client struct {
	name       string
	client     *openai.Client
	chatModel  string
	embedModel string
	dimensions int
	timeout    time.Duration
	limiter    *rate.Limiter
}

func New(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		name:       cfg.Name,
		client:     openai.NewClientWithConfig(clientCfg),
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbedModel,
		dimensions: cfg.Dimensions,
		timeout:    timeout,
		limiter:    limiter,
	}
}

func (c *Client) Name() string { return c.name }

// EmbedModelID tags vectors so the relevance engine can reject
// comparisons across model families after a provider switch.
func (c *Client) EmbedModelID() string { return c.name + "/" + c.embedModel }

func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([]domain.EmbeddingVector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          openai.EmbeddingModel(c.embedModel),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if c.dimensions > 0 {
		req.Dimensions = c.dimensions
	}

	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, classifyAPIError("embed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, domain.WrapError(
			domain.ErrProviderPermanent,
			"embed",
			fmt.Errorf("vector/text count mismatch: %d/%d", len(resp.Data), len(texts)),
		)
	}

	out := make([]domain.EmbeddingVector, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = domain.EmbeddingVector{Values: d.Embedding, Model: c.EmbedModelID()}
	}
	return out, nil
}

func (c *Client) Understand(ctx context.Context, query string, summary *domain.ContextSummary) (domain.UnderstandingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.wait(ctx); err != nil {
		return domain.UnderstandingResult{}, err
	}

	req := openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: understandingSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUnderstandingPrompt(query, summary)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.UnderstandingResult{}, classifyAPIError("understand", err)
	}
	if len(resp.Choices) == 0 {
		return domain.UnderstandingResult{}, domain.WrapError(
			domain.ErrTemporary, "understand", errors.New("empty completion"))
	}
	return parseUnderstanding(query, resp.Choices[0].Message.Content)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
