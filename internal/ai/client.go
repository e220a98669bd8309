package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type ClientConfig struct {
	Timeout         time.Duration
	EmbedRetries    int
	EmbedRetryDelay time.Duration
}

// Client fronts the configured generator and embedder with a shared timeout
// and the standardized warm-up retry policy (3 attempts, fixed 2s delay).
type Client struct {
	generator IGenerator
	embedder  IEmbedder
	cfg       ClientConfig
}

func NewClient(generator IGenerator, embedder IEmbedder, cfg ClientConfig) *Client {
	if cfg.EmbedRetries <= 0 {
		cfg.EmbedRetries = 3
	}
	if cfg.EmbedRetryDelay <= 0 {
		cfg.EmbedRetryDelay = 2 * time.Second
	}
	return &Client{generator: generator, embedder: embedder, cfg: cfg}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.generator == nil {
		return "", fmt.Errorf("generator not configured")
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	resp, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

// Embed retries warm-up responses only; any other failure is returned as is.
func (c *Client) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if c.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	var lastErr error
	for attempt := 0; attempt < c.cfg.EmbedRetries; attempt++ {
		vec, err := c.embedder.Embed(ctx, text, taskType)
		if err == nil {
			if len(vec) == 0 {
				return nil, fmt.Errorf("empty embedding")
			}
			return vec, nil
		}
		lastErr = err
		if !IsModelLoading(err) {
			return nil, err
		}
		logutil.GetLogger(ctx).Warn("embedding model loading, retrying",
			zap.Int("attempt", attempt+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.EmbedRetryDelay):
		}
	}
	return nil, lastErr
}

func (c *Client) EmbeddingModelName() string {
	if c.embedder == nil {
		return ""
	}
	return c.embedder.ModelName()
}

// CleanGeneratedSQL strips markdown fences and trailing statement terminators
// from LLM-produced SQL.
func CleanGeneratedSQL(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```sql")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	clean = strings.TrimSuffix(clean, ";")
	return strings.TrimSpace(clean)
}
