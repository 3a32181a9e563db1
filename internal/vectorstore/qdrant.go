package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Chunk is the payload stored alongside each vector point.
type Chunk struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Page       int    `json:"page"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

// Point is a vector plus its chunk payload, ready for upsert.
type Point struct {
	ID      string
	Vector  []float32
	Payload Chunk
}

// ScoredChunk is a search hit with its similarity score.
type ScoredChunk struct {
	Chunk
	Score float32 `json:"score"`
}

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// QdrantStore is a minimal REST client to Qdrant. Collections are created
// with cosine distance; callers namespace collections per user.
type QdrantStore struct {
	url    string
	apiKey string
	client *http.Client
}

func NewQdrantStore(cfg Config) *QdrantStore {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &QdrantStore{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

// Ping verifies the Qdrant endpoint is reachable.
func (s *QdrantStore) Ping(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, fmt.Sprintf("%s/collections", s.url), nil, nil)
}

// EnsureCollection creates the collection if it does not exist yet.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dimension)
	}
	exists, err := s.collectionExists(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", s.url, collection), body, nil)
}

// Upsert writes points into the collection and waits for them to be indexed.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	payload := make([]map[string]any, len(points))
	for i, p := range points {
		payload[i] = map[string]any{
			"id":     p.ID,
			"vector": p.Vector,
			"payload": map[string]any{
				"document_id": p.Payload.DocumentID,
				"filename":    p.Payload.Filename,
				"page":        p.Payload.Page,
				"chunk_index": p.Payload.ChunkIndex,
				"text":        p.Payload.Text,
			},
		}
	}
	body := map[string]any{"points": payload}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, collection), body, nil)
}

// Search returns the topK nearest chunks. A non-empty documentID restricts
// results to that document. A missing collection yields empty results, not
// an error, so callers can treat never-ingested users uniformly.
func (s *QdrantStore) Search(ctx context.Context, collection string, vector []float32, topK int, documentID string) ([]ScoredChunk, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if documentID != "" {
		req["filter"] = documentFilter(documentID)
	}

	var resp struct {
		Result []struct {
			Score   float32 `json:"score"`
			Payload Chunk   `json:"payload"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/search", s.url, collection), req, &resp)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	results := make([]ScoredChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, ScoredChunk{Chunk: r.Payload, Score: r.Score})
	}
	return results, nil
}

// DeleteByDocumentID removes all points belonging to one document.
func (s *QdrantStore) DeleteByDocumentID(ctx context.Context, collection, documentID string) error {
	body := map[string]any{"filter": documentFilter(documentID)}
	err := s.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, collection), body, nil)
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

// DeleteCollection drops the whole collection.
func (s *QdrantStore) DeleteCollection(ctx context.Context, collection string) error {
	err := s.do(ctx, http.MethodDelete, fmt.Sprintf("%s/collections/%s", s.url, collection), nil, nil)
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

func (s *QdrantStore) collectionExists(ctx context.Context, collection string) (bool, error) {
	err := s.do(ctx, http.MethodGet, fmt.Sprintf("%s/collections/%s", s.url, collection), nil, nil)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func documentFilter(documentID string) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{"key": "document_id", "match": map[string]any{"value": documentID}},
		},
	}
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant response status %d: %s", e.code, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusNotFound
}

func (s *QdrantStore) do(ctx context.Context, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal qdrant request failed: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build qdrant request failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &statusError{code: resp.StatusCode, body: string(raw)}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("parse qdrant json failed: %w", err)
		}
	}
	return nil
}
