package app

import (
	"context"
	"fmt"

	"github.com/n-spicher/shipwright/internal/model"
	"github.com/n-spicher/shipwright/internal/vectorstore"
)

type fakeUserStore struct {
	users map[uint]*model.User
	err   error
}

func (f *fakeUserStore) GetByID(id uint) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

func activeUserStore(id uint) *fakeUserStore {
	return &fakeUserStore{users: map[uint]*model.User{
		id: {ID: id, Username: "builder", Email: "builder@example.com", IsActive: true},
	}}
}

type fakeDocumentStore struct {
	docs      map[string]*model.Document
	createErr error
	created   []*model.Document
	deleted   []string
}

func newFakeDocumentStore(docs ...*model.Document) *fakeDocumentStore {
	f := &fakeDocumentStore{docs: make(map[string]*model.Document)}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *fakeDocumentStore) Create(doc *model.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.docs[doc.ID] = doc
	f.created = append(f.created, doc)
	return nil
}

func (f *fakeDocumentStore) ListByUserID(userID uint) ([]model.Document, error) {
	var out []model.Document
	for _, d := range f.docs {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDocumentStore) GetByIDAndUserID(id string, userID uint) (*model.Document, error) {
	d, ok := f.docs[id]
	if !ok || d.UserID != userID {
		return nil, nil
	}
	return d, nil
}

func (f *fakeDocumentStore) CountByUserID(userID uint) (int64, error) {
	var n int64
	for _, d := range f.docs {
		if d.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeDocumentStore) DeleteByIDAndUserID(id string, userID uint) error {
	delete(f.docs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDocumentStore) DeleteByUserID(userID uint) (int64, error) {
	var n int64
	for id, d := range f.docs {
		if d.UserID == userID {
			delete(f.docs, id)
			n++
		}
	}
	return n, nil
}

type fakeKeywordStore struct {
	keywords []model.Keyword
	batches  [][]model.Keyword
	nextID   uint
}

func (f *fakeKeywordStore) Create(keyword *model.Keyword) error {
	f.nextID++
	keyword.ID = f.nextID
	f.keywords = append(f.keywords, *keyword)
	return nil
}

func (f *fakeKeywordStore) CreateBatch(keywords []model.Keyword) error {
	f.batches = append(f.batches, keywords)
	f.keywords = append(f.keywords, keywords...)
	return nil
}

func (f *fakeKeywordStore) ListByUserID(userID uint) ([]model.Keyword, error) {
	var out []model.Keyword
	for _, kw := range f.keywords {
		if kw.UserID == userID {
			out = append(out, kw)
		}
	}
	return out, nil
}

func (f *fakeKeywordStore) GetByIDAndUserID(id, userID uint) (*model.Keyword, error) {
	for i := range f.keywords {
		if f.keywords[i].ID == id && f.keywords[i].UserID == userID {
			kw := f.keywords[i]
			return &kw, nil
		}
	}
	return nil, nil
}

func (f *fakeKeywordStore) Update(keyword *model.Keyword) error {
	for i := range f.keywords {
		if f.keywords[i].ID == keyword.ID {
			f.keywords[i] = *keyword
			return nil
		}
	}
	return nil
}

func (f *fakeKeywordStore) DeleteByIDAndUserID(id, userID uint) error {
	for i := range f.keywords {
		if f.keywords[i].ID == id && f.keywords[i].UserID == userID {
			f.keywords = append(f.keywords[:i], f.keywords[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeKeywordCache struct {
	entries     map[uint][]model.Keyword
	gets        int
	hits        int
	invalidated []uint
	getErr      error
}

func newFakeKeywordCache() *fakeKeywordCache {
	return &fakeKeywordCache{entries: make(map[uint][]model.Keyword)}
}

func (f *fakeKeywordCache) Get(ctx context.Context, userID uint) ([]model.Keyword, bool, error) {
	f.gets++
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	kws, ok := f.entries[userID]
	if ok {
		f.hits++
	}
	return kws, ok, nil
}

func (f *fakeKeywordCache) Set(ctx context.Context, userID uint, keywords []model.Keyword) error {
	f.entries[userID] = keywords
	return nil
}

func (f *fakeKeywordCache) Invalidate(ctx context.Context, userID uint) error {
	delete(f.entries, userID)
	f.invalidated = append(f.invalidated, userID)
	return nil
}

type fakeLLM struct {
	response      string
	err           error
	systemPrompts []string
	userPrompts   []string
	responses     []string
}

func (f *fakeLLM) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.systemPrompts = append(f.systemPrompts, systemPrompt)
	f.userPrompts = append(f.userPrompts, userPrompt)
	if len(f.responses) > 0 {
		resp := f.responses[0]
		f.responses = f.responses[1:]
		return resp, nil
	}
	return f.response, nil
}

type fakeEmbedder struct {
	dimension int
	err       error
	batchErr  error
	texts     []string
	batches   [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, text)
	return f.vector(), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	f.batches = append(f.batches, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector()
	}
	return out, nil
}

func (f *fakeEmbedder) vector() []float32 {
	dim := f.dimension
	if dim == 0 {
		dim = 3
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = 0.1
	}
	return v
}

type fakeVectorIndex struct {
	results       []vectorstore.ScoredChunk
	resultQueue   [][]vectorstore.ScoredChunk
	searchErr     error
	upsertErr     error
	ensureErr     error
	deleteDocErr  error
	collections   map[string]int
	upserted      map[string][]vectorstore.Point
	deletedDocs   []string
	droppedScopes []string
	searches      int
}

func newFakeVectorIndex() *fakeVectorIndex {
	return &fakeVectorIndex{
		collections: make(map[string]int),
		upserted:    make(map[string][]vectorstore.Point),
	}
}

func (f *fakeVectorIndex) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.collections[collection] = dimension
	return nil
}

func (f *fakeVectorIndex) Upsert(ctx context.Context, collection string, points []vectorstore.Point) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted[collection] = append(f.upserted[collection], points...)
	return nil
}

func (f *fakeVectorIndex) Search(ctx context.Context, collection string, vector []float32, topK int, documentID string) ([]vectorstore.ScoredChunk, error) {
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.resultQueue) > 0 {
		results := f.resultQueue[0]
		f.resultQueue = f.resultQueue[1:]
		return results, nil
	}
	return f.results, nil
}

func (f *fakeVectorIndex) DeleteByDocumentID(ctx context.Context, collection, documentID string) error {
	if f.deleteDocErr != nil {
		return f.deleteDocErr
	}
	f.deletedDocs = append(f.deletedDocs, documentID)
	remaining := f.upserted[collection][:0]
	for _, p := range f.upserted[collection] {
		if p.Payload.DocumentID != documentID {
			remaining = append(remaining, p)
		}
	}
	f.upserted[collection] = remaining
	return nil
}

func (f *fakeVectorIndex) DeleteCollection(ctx context.Context, collection string) error {
	f.droppedScopes = append(f.droppedScopes, collection)
	delete(f.upserted, collection)
	delete(f.collections, collection)
	return nil
}

type fakePublisher struct {
	events []model.IngestEvent
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, event model.IngestEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func scored(docID string, index, page int, score float32) vectorstore.ScoredChunk {
	return vectorstore.ScoredChunk{
		Chunk: vectorstore.Chunk{
			DocumentID: docID,
			Filename:   "plans.pdf",
			Page:       page,
			ChunkIndex: index,
			Text:       fmt.Sprintf("chunk %d of %s", index, docID),
		},
		Score: score,
	}
}
