package app

import (
	"context"
	"fmt"

	"github.com/n-spicher/shipwright/internal/model"
	"github.com/n-spicher/shipwright/internal/pkg/pdfextract"
	"github.com/n-spicher/shipwright/internal/vectorstore"
)

// PageExtractor pulls page-by-page plain text out of PDF bytes.
type PageExtractor func(data []byte) ([]pdfextract.PageText, error)

// LLMClient generates a text completion for a prompt.
type LLMClient interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Embedder turns text into embedding vectors. The same embedder must be used
// at ingestion and at query time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the external nearest-neighbor index, namespaced per user
// collection with document ids carried in point payloads.
type VectorIndex interface {
	EnsureCollection(ctx context.Context, collection string, dimension int) error
	Upsert(ctx context.Context, collection string, points []vectorstore.Point) error
	Search(ctx context.Context, collection string, vector []float32, topK int, documentID string) ([]vectorstore.ScoredChunk, error)
	DeleteByDocumentID(ctx context.Context, collection, documentID string) error
	DeleteCollection(ctx context.Context, collection string) error
}

// UserStore reads user rows.
type UserStore interface {
	GetByID(id uint) (*model.User, error)
}

// DocumentStore persists document metadata rows.
type DocumentStore interface {
	Create(doc *model.Document) error
	ListByUserID(userID uint) ([]model.Document, error)
	GetByIDAndUserID(id string, userID uint) (*model.Document, error)
	CountByUserID(userID uint) (int64, error)
	DeleteByIDAndUserID(id string, userID uint) error
	DeleteByUserID(userID uint) (int64, error)
}

// KeywordStore persists keyword rows.
type KeywordStore interface {
	Create(keyword *model.Keyword) error
	CreateBatch(keywords []model.Keyword) error
	ListByUserID(userID uint) ([]model.Keyword, error)
	GetByIDAndUserID(id, userID uint) (*model.Keyword, error)
	Update(keyword *model.Keyword) error
	DeleteByIDAndUserID(id, userID uint) error
}

// KeywordCache caches a user's keyword list between ask calls.
type KeywordCache interface {
	Get(ctx context.Context, userID uint) ([]model.Keyword, bool, error)
	Set(ctx context.Context, userID uint, keywords []model.Keyword) error
	Invalidate(ctx context.Context, userID uint) error
}

// IngestEventPublisher enqueues ingest audit events for async persistence.
type IngestEventPublisher interface {
	Publish(ctx context.Context, event model.IngestEvent) error
}

// collectionName returns the per-user vector collection name.
func collectionName(userID uint) string {
	return fmt.Sprintf("user_pdf_documents_%d", userID)
}
