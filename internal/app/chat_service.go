package app

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/n-spicher/shipwright/internal/model"
	"github.com/n-spicher/shipwright/internal/vectorstore"
)

const (
	defaultTopK           = 5
	defaultRequestTimeout = 60 * time.Second

	noContentResponse = "No document content is available to answer this question. Please upload a document first."
)

// ChatMode selects the contractor persona framing the LLM call.
type ChatMode string

const (
	ChatModeNone ChatMode = "NONE"
	ChatModeGC   ChatMode = "GC"
	ChatModeMC   ChatMode = "MC"
	ChatModeEC   ChatMode = "EC"
)

// ChatModes lists the fixed mode enumeration in declaration order.
func ChatModes() []ChatMode {
	return []ChatMode{ChatModeNone, ChatModeGC, ChatModeMC, ChatModeEC}
}

func (m ChatMode) Valid() bool {
	switch m {
	case ChatModeNone, ChatModeGC, ChatModeMC, ChatModeEC:
		return true
	}
	return false
}

func promptFraming(mode ChatMode) string {
	switch mode {
	case ChatModeGC:
		return "You are Shipwright, an AI assistant specialized in construction document analysis for General Contractors (GCs). " +
			"Focus on overall project scope, scheduling, coordination between trades, and general construction requirements. " +
			"Answer the question based only on the provided context, emphasizing aspects relevant to GC responsibilities."
	case ChatModeMC:
		return "You are Shipwright, an AI assistant specialized in construction document analysis for Mechanical Contractors (MCs). " +
			"Focus on HVAC systems, mechanical equipment, ductwork, piping, and mechanical specifications. " +
			"Answer the question based only on the provided context, emphasizing mechanical systems and related requirements."
	case ChatModeEC:
		return "You are Shipwright, an AI assistant specialized in construction document analysis for Electrical Contractors (ECs). " +
			"Focus on electrical systems, power distribution, lighting, controls, and electrical specifications. " +
			"Answer the question based only on the provided context, emphasizing electrical systems and related requirements."
	default:
		return "You are a friendly assistant named Shipwright tasked with answering questions about a document. " +
			"Answer the question based only on the provided context."
	}
}

type ChatService struct {
	userStore    UserStore
	docStore     DocumentStore
	keywordStore KeywordStore
	keywordCache KeywordCache
	llmClient    LLMClient
	embedder     Embedder
	index        VectorIndex
	topK         int
	timeout      time.Duration

	// term -> *regexp.Regexp, compiled once per distinct term.
	termPatterns sync.Map
}

func NewChatService(
	userStore UserStore,
	docStore DocumentStore,
	keywordStore KeywordStore,
	keywordCache KeywordCache,
	llmClient LLMClient,
	embedder Embedder,
	index VectorIndex,
	topK int,
	timeout time.Duration,
) *ChatService {
	if topK <= 0 {
		topK = defaultTopK
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &ChatService{
		userStore:    userStore,
		docStore:     docStore,
		keywordStore: keywordStore,
		keywordCache: keywordCache,
		llmClient:    llmClient,
		embedder:     embedder,
		index:        index,
		topK:         topK,
		timeout:      timeout,
	}
}

// AskInput is the input for a document question. DocumentID is optional;
// when empty, retrieval spans all of the user's documents.
type AskInput struct {
	UserID     uint
	DocumentID string
	Question   string
	Mode       ChatMode
}

// RetrievedChunk carries enough locator info for the caller to render a
// citation marker matching the [Page N] convention.
type RetrievedChunk struct {
	Text  string  `json:"text"`
	Page  int     `json:"page"`
	Score float32 `json:"score"`
}

type AskResult struct {
	Response           string           `json:"response"`
	Chunks             []RetrievedChunk `json:"chunks"`
	ApplicableKeywords []model.Keyword  `json:"applicable_keywords"`
}

// Ask retrieves the top-matching chunks for the user's document, frames a
// mode-specific prompt, and returns the LLM answer verbatim together with
// the chunks used. Read-only: nothing is persisted.
func (s *ChatService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidInput
	}
	mode := input.Mode
	if mode == "" {
		mode = ChatModeNone
	}
	if !mode.Valid() {
		return nil, ErrInvalidInput
	}

	user, err := s.userStore.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrUserNotFound
	}

	if input.DocumentID != "" {
		doc, err := s.docStore.GetByIDAndUserID(input.DocumentID, input.UserID)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, ErrDocumentNotFound
		}
	} else {
		count, err := s.docStore.CountByUserID(input.UserID)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrDocumentNotFound
		}
	}

	keywords, err := s.loadKeywords(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	applicable := s.findApplicableKeywords(question, keywords)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	chunks, err := s.retrieve(ctx, input.UserID, input.DocumentID, question, applicable)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return &AskResult{
			Response:           noContentResponse,
			Chunks:             []RetrievedChunk{},
			ApplicableKeywords: applicable,
		}, nil
	}

	prompt := buildPrompt(question, chunks, applicable)
	answer, err := s.llmClient.GenerateText(ctx, promptFraming(mode), prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}

	selected := make([]RetrievedChunk, len(chunks))
	for i, c := range chunks {
		selected[i] = RetrievedChunk{Text: c.Text, Page: c.Page, Score: c.Score}
	}
	if applicable == nil {
		applicable = []model.Keyword{}
	}
	return &AskResult{
		Response:           answer,
		Chunks:             selected,
		ApplicableKeywords: applicable,
	}, nil
}

// retrieve embeds the question and queries the user's collection. Applicable
// keywords trigger additional enhanced queries whose hits take priority;
// duplicates are dropped and the merged list is capped at topK.
func (s *ChatService) retrieve(ctx context.Context, userID uint, documentID, question string, applicable []model.Keyword) ([]vectorstore.ScoredChunk, error) {
	collection := collectionName(userID)

	var merged []vectorstore.ScoredChunk
	seen := make(map[string]bool)

	add := func(results []vectorstore.ScoredChunk) {
		for _, r := range results {
			key := fmt.Sprintf("%s:%d", r.DocumentID, r.ChunkIndex)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, r)
		}
	}

	for _, kw := range applicable {
		enhanced := question + " " + kw.ExampleText
		vec, err := s.embedder.Embed(ctx, enhanced)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
		}
		results, err := s.index.Search(ctx, collection, vec, s.topK, documentID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVectorStoreUnavailable, err)
		}
		add(sortByRelevance(results))
	}

	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}
	results, err := s.index.Search(ctx, collection, vec, s.topK, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVectorStoreUnavailable, err)
	}
	add(sortByRelevance(results))

	if len(merged) > s.topK {
		merged = merged[:s.topK]
	}
	return merged, nil
}

// sortByRelevance orders hits by descending score. Exact score ties are
// broken by ascending chunk index (first-seen chunk wins) so identical
// queries cannot reorder across calls.
func sortByRelevance(results []vectorstore.ScoredChunk) []vectorstore.ScoredChunk {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].DocumentID != results[j].DocumentID {
			return results[i].DocumentID < results[j].DocumentID
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})
	return results
}

func buildPrompt(question string, chunks []vectorstore.ScoredChunk, applicable []model.Keyword) string {
	var b strings.Builder
	b.WriteString("Cite the pages you draw from using the exact marker format [Page N] shown in the context.\n\n")
	b.WriteString("<context>\n")
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Page %d] %s", c.Page, c.Text)
	}
	b.WriteString("\n</context>\n\n<question>\n")
	b.WriteString(question)
	b.WriteString("\n</question>")

	if len(applicable) > 0 {
		b.WriteString("\n\nAdditional instructions for specific keywords:\n")
		for _, kw := range applicable {
			fmt.Fprintf(&b, "- %s: %s\n", kw.Term, kw.ExampleText)
		}
	}
	return b.String()
}

func (s *ChatService) loadKeywords(ctx context.Context, userID uint) ([]model.Keyword, error) {
	if s.keywordCache != nil {
		cached, hit, err := s.keywordCache.Get(ctx, userID)
		if err != nil {
			log.Printf("keyword cache read failed: %v", err)
		} else if hit {
			return cached, nil
		}
	}

	keywords, err := s.keywordStore.ListByUserID(userID)
	if err != nil {
		return nil, err
	}
	if s.keywordCache != nil {
		if err := s.keywordCache.Set(ctx, userID, keywords); err != nil {
			log.Printf("keyword cache write failed: %v", err)
		}
	}
	return keywords, nil
}

// findApplicableKeywords returns keywords whose term appears as a whole word
// in the question, case-insensitive.
func (s *ChatService) findApplicableKeywords(question string, keywords []model.Keyword) []model.Keyword {
	if question == "" || len(keywords) == 0 {
		return nil
	}
	lower := strings.ToLower(question)

	var applicable []model.Keyword
	for _, kw := range keywords {
		term := strings.ToLower(strings.TrimSpace(kw.Term))
		if term == "" {
			continue
		}
		if s.termPattern(term).MatchString(lower) {
			applicable = append(applicable, kw)
		}
	}
	return applicable
}

// termPattern returns the whole-word matcher for a term, compiling it on
// first use. Terms repeat across asks, so the cache keeps the hot path free
// of per-request compilation.
func (s *ChatService) termPattern(term string) *regexp.Regexp {
	if cached, ok := s.termPatterns.Load(term); ok {
		return cached.(*regexp.Regexp)
	}
	pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
	actual, _ := s.termPatterns.LoadOrStore(term, pattern)
	return actual.(*regexp.Regexp)
}
