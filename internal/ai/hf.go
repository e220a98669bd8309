package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

const defaultHFBaseURL = "https://api-inference.huggingface.co"

type hfConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

// hfEmbedProvider calls a hosted feature-extraction endpoint. The endpoint is
// not consistent about its response shape across models and deployments, so
// decoding normalizes everything into a flat []float32.
type hfEmbedProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type hfEmbedRequest struct {
	Inputs string `json:"inputs"`
}

type hfLoadingResponse struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

func (p *hfEmbedProvider) Name() string {
	return "hf"
}

func (p *hfEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	if p.apiKey == "" {
		return nil, ErrUnavailable
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/models/" + model
	data, err := json.Marshal(hfEmbedRequest{Inputs: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	client := p.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		var loading hfLoadingResponse
		if err := json.Unmarshal(body, &loading); err == nil && loading.EstimatedTime > 0 {
			return nil, &ModelLoadingError{EstimatedTime: loading.EstimatedTime}
		}
		return nil, &ModelLoadingError{EstimatedTime: 20}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("feature extraction failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	vec, err := NormalizeEmbedding(body)
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// NormalizeEmbedding decodes the observed feature-extraction response shapes
// into a flat vector: a flat number array, a nested array (first row wins), an
// object keyed "embedding" or "embeddings", or, as a last resort, a numeric
// scrape of the raw body.
func NormalizeEmbedding(body []byte) ([]float32, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}

	var flat []float32
	if err := json.Unmarshal(trimmed, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}

	var nested [][]float32
	if err := json.Unmarshal(trimmed, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}

	var keyed struct {
		Embedding  json.RawMessage `json:"embedding"`
		Embeddings json.RawMessage `json:"embeddings"`
	}
	if err := json.Unmarshal(trimmed, &keyed); err == nil {
		if len(keyed.Embedding) > 0 {
			if vec, err := NormalizeEmbedding(keyed.Embedding); err == nil {
				return vec, nil
			}
		}
		if len(keyed.Embeddings) > 0 {
			if vec, err := NormalizeEmbedding(keyed.Embeddings); err == nil {
				return vec, nil
			}
		}
	}

	vec := scrapeNumbers(string(trimmed))
	if len(vec) == 0 {
		return nil, fmt.Errorf("unrecognized embedding response shape")
	}
	return vec, nil
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?`)

func scrapeNumbers(s string) []float32 {
	tokens := numberPattern.FindAllString(s, -1)
	vec := make([]float32, 0, len(tokens))
	for _, tok := range tokens {
		f, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			continue
		}
		vec = append(vec, float32(f))
	}
	return vec
}

func createHFEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &hfConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultHFBaseURL
	}
	return &hfEmbedProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
	}, nil
}

func init() {
	RegisterEmbed("hf", createHFEmbedFactory)
}
