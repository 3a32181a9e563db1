package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiConfig holds API settings for the Google AI Studio (Gemini) API.
type GeminiConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	Timeout        time.Duration
}

// GeminiClient calls the Gemini generateContent and embedContent endpoints.
type GeminiClient struct {
	cfg        GeminiConfig
	httpClient *http.Client
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GenerateText returns the model's text response for a user prompt, with an
// optional system instruction framing the conversation.
func (c *GeminiClient) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: userPrompt}}},
		},
	}
	if strings.TrimSpace(systemPrompt) != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}

	var parsed generateResponse
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", strings.TrimRight(c.cfg.BaseURL, "/"), normalizeModel(c.cfg.Model), c.cfg.APIKey)
	if err := c.doJSON(ctx, url, reqBody, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty gemini candidates")
	}
	// Long answers arrive split across multiple parts.
	var answer strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		answer.WriteString(p.Text)
	}
	return answer.String(), nil
}

// Embed returns the embedding vector for the given text.
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("embedding input is empty")
	}

	reqBody := embedRequest{Content: content{Parts: []part{{Text: text}}}}
	var parsed embedResponse
	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", strings.TrimRight(c.cfg.BaseURL, "/"), normalizeModel(c.cfg.EmbeddingModel), c.cfg.APIKey)
	if err := c.doJSON(ctx, url, reqBody, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return parsed.Embedding.Values, nil
}

// EmbedBatch returns embeddings for multiple texts via batchEmbedContents.
func (c *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := normalizeModel(c.cfg.EmbeddingModel)
	reqBody := batchEmbedRequest{Requests: make([]embedRequest, len(texts))}
	for i, t := range texts {
		reqBody.Requests[i] = embedRequest{
			Model:   "models/" + model,
			Content: content{Parts: []part{{Text: t}}},
		}
	}

	var parsed batchEmbedResponse
	url := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s", strings.TrimRight(c.cfg.BaseURL, "/"), model, c.cfg.APIKey)
	if err := c.doJSON(ctx, url, reqBody, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d want %d", len(parsed.Embeddings), len(texts))
	}

	result := make([][]float32, len(parsed.Embeddings))
	for i := range parsed.Embeddings {
		result[i] = parsed.Embeddings[i].Values
	}
	return result, nil
}

func (c *GeminiClient) doJSON(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal gemini request failed: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build gemini request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error.Message != "" {
			return fmt.Errorf("gemini response status %d: %s", resp.StatusCode, errResp.Error.Message)
		}
		return fmt.Errorf("gemini response status %d: %s", resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse gemini json failed: %w", err)
	}
	return nil
}

func normalizeModel(model string) string {
	return strings.TrimPrefix(strings.TrimSpace(model), "models/")
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents          []content `json:"contents"`
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type embedRequest struct {
	Model   string  `json:"model,omitempty"`
	Content content `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

type batchEmbedRequest struct {
	Requests []embedRequest `json:"requests"`
}

type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
