package app

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/n-spicher/shipwright/internal/model"
	"github.com/n-spicher/shipwright/internal/pkg/pdfextract"
	"github.com/n-spicher/shipwright/internal/vectorstore"
)

const embeddingBatchSize = 10 // providers often limit batch size

type DocumentServiceConfig struct {
	ChunkSize    int
	ChunkOverlap int
	Timeout      time.Duration
}

type DocumentService struct {
	userStore UserStore
	docStore  DocumentStore
	extract   PageExtractor
	embedder  Embedder
	index     VectorIndex
	publisher IngestEventPublisher
	cfg       DocumentServiceConfig
}

func NewDocumentService(
	userStore UserStore,
	docStore DocumentStore,
	extract PageExtractor,
	embedder Embedder,
	index VectorIndex,
	publisher IngestEventPublisher,
	cfg DocumentServiceConfig,
) *DocumentService {
	if extract == nil {
		extract = pdfextract.ExtractPagesFromBytes
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = defaultChunkOverlap
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}
	return &DocumentService{
		userStore: userStore,
		docStore:  docStore,
		extract:   extract,
		embedder:  embedder,
		index:     index,
		publisher: publisher,
		cfg:       cfg,
	}
}

type IngestInput struct {
	UserID   uint
	Filename string
	Data     []byte
}

type IngestResult struct {
	Document   model.Document `json:"document"`
	ChunkCount int            `json:"chunk_count"`
}

// Ingest extracts page-by-page text, chunks it with overlap, embeds and
// indexes the chunks, and only then creates the Document row. A failed
// indexing run leaves no metadata row behind; an image-only PDF with no
// extractable text is accepted and produces zero chunks.
func (s *DocumentService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	filename := strings.TrimSpace(input.Filename)
	if filename == "" || strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return nil, fmt.Errorf("%w: file must be a PDF", ErrInvalidDocument)
	}
	if len(input.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidDocument)
	}

	user, err := s.userStore.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrUserNotFound
	}

	pages, err := s.extract(input.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	chunks := chunkPages(pages, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	docID := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	collection := collectionName(input.UserID)
	if len(chunks) > 0 {
		if err := s.indexChunks(ctx, collection, docID, filename, chunks); err != nil {
			// Roll back whatever made it into the index so a failed
			// ingestion leaves no partial chunk set behind.
			if cleanupErr := s.index.DeleteByDocumentID(context.WithoutCancel(ctx), collection, docID); cleanupErr != nil {
				log.Printf("cleanup of document %s after failed ingest failed: %v", docID, cleanupErr)
			}
			return nil, err
		}
	}

	doc := &model.Document{
		ID:       docID,
		UserID:   input.UserID,
		Filename: filename,
	}
	if err := s.docStore.Create(doc); err != nil {
		if cleanupErr := s.index.DeleteByDocumentID(context.WithoutCancel(ctx), collection, docID); cleanupErr != nil {
			log.Printf("cleanup of document %s after failed create failed: %v", docID, cleanupErr)
		}
		return nil, err
	}

	s.publishEvent(ctx, model.IngestEvent{
		UserID:     input.UserID,
		DocumentID: docID,
		Filename:   filename,
		ChunkCount: len(chunks),
		Status:     "complete",
	})

	return &IngestResult{Document: *doc, ChunkCount: len(chunks)}, nil
}

func (s *DocumentService) indexChunks(ctx context.Context, collection, docID, filename string, chunks []pageChunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var embeddings [][]float32
	for i := 0; i < len(texts); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batched, err := s.embedder.EmbedBatch(ctx, texts[i:end])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
		}
		embeddings = append(embeddings, batched...)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: embedding count mismatch", ErrLLMUnavailable)
	}

	if err := s.index.EnsureCollection(ctx, collection, len(embeddings[0])); err != nil {
		return fmt.Errorf("%w: %v", ErrVectorStoreUnavailable, err)
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		points[i] = vectorstore.Point{
			ID:     pointID(docID, c.Index),
			Vector: embeddings[i],
			Payload: vectorstore.Chunk{
				DocumentID: docID,
				Filename:   filename,
				Page:       c.Page,
				ChunkIndex: c.Index,
				Text:       c.Text,
			},
		}
	}
	if err := s.index.Upsert(ctx, collection, points); err != nil {
		return fmt.Errorf("%w: %v", ErrVectorStoreUnavailable, err)
	}
	return nil
}

// pointID derives a deterministic UUID for a chunk from its document and index.
func pointID(docID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d", docID, index))).String()
}

func (s *DocumentService) publishEvent(ctx context.Context, event model.IngestEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("publish ingest event for document %s failed: %v", event.DocumentID, err)
	}
}

func (s *DocumentService) List(userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	user, err := s.userStore.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.docStore.ListByUserID(userID)
}

// Delete removes the document's vector entries before its metadata row so
// that a row never outlives its chunks without also never orphaning them.
func (s *DocumentService) Delete(ctx context.Context, userID uint, documentID string) error {
	if userID == 0 || documentID == "" {
		return ErrInvalidInput
	}
	doc, err := s.docStore.GetByIDAndUserID(documentID, userID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if err := s.index.DeleteByDocumentID(ctx, collectionName(userID), documentID); err != nil {
		return fmt.Errorf("%w: %v", ErrVectorStoreUnavailable, err)
	}
	return s.docStore.DeleteByIDAndUserID(documentID, userID)
}

// DeleteAll drops the user's whole vector collection and every document row.
func (s *DocumentService) DeleteAll(ctx context.Context, userID uint) (int64, error) {
	if userID == 0 {
		return 0, ErrInvalidInput
	}
	user, err := s.userStore.GetByID(userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrUserNotFound
	}

	if err := s.index.DeleteCollection(ctx, collectionName(userID)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrVectorStoreUnavailable, err)
	}
	return s.docStore.DeleteByUserID(userID)
}
