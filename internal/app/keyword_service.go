package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/n-spicher/shipwright/internal/model"
	"github.com/n-spicher/shipwright/internal/pkg/pdfextract"
)

// maxExtractionSegment bounds the document text sent in one extraction
// prompt; longer documents are split and the results merged.
const maxExtractionSegment = 100000

const keywordExtractionTemplate = `You are an expert at analyzing construction documents and extracting important keywords and their associated instructions.

The following is a set of instructions for keywords and what to do with them. Parse the document into a structured output with term (the keyword) and example_text (the instructions on what to do with that keyword).

Document Content:
%s

Please analyze the document and extract keywords along with their associated instructions. For each keyword:
1. Identify important terms, specifications, or requirements
2. Extract the relevant context or instructions that explain how to handle or implement that keyword
3. Format the output as a JSON array of objects with 'term' and 'example_text' string fields
   3a. The 'term' should be a single word or phrase that is the keyword
   3b. The 'example_text' should be a string that is the exact text of the targets from the document comma separated for different values

Example output format:
[
    {"term": "BOD", "example_text": "ACCEPTABLE MANUFACTURERS:,MANUFACTURERS:,Base of design:,Base:,Optional:"},
    {"term": "base of design", "example_text": "ACCEPTABLE MANUFACTURERS:,MANUFACTURERS:,Base of design:,Base:,Optional:"}
]
`

type KeywordService struct {
	userStore    UserStore
	keywordStore KeywordStore
	keywordCache KeywordCache
	llmClient    LLMClient
	timeout      time.Duration
}

func NewKeywordService(
	userStore UserStore,
	keywordStore KeywordStore,
	keywordCache KeywordCache,
	llmClient LLMClient,
	timeout time.Duration,
) *KeywordService {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &KeywordService{
		userStore:    userStore,
		keywordStore: keywordStore,
		keywordCache: keywordCache,
		llmClient:    llmClient,
		timeout:      timeout,
	}
}

type KeywordInput struct {
	Term        string
	ExampleText string
}

func (s *KeywordService) Create(ctx context.Context, userID uint, input KeywordInput) (*model.Keyword, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	term := strings.TrimSpace(input.Term)
	if term == "" {
		return nil, ErrInvalidInput
	}
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}

	keyword := &model.Keyword{
		UserID:      userID,
		Term:        term,
		ExampleText: input.ExampleText,
	}
	if err := s.keywordStore.Create(keyword); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, userID)
	return keyword, nil
}

func (s *KeywordService) List(userID uint) ([]model.Keyword, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}
	return s.keywordStore.ListByUserID(userID)
}

func (s *KeywordService) Get(userID, keywordID uint) (*model.Keyword, error) {
	if userID == 0 || keywordID == 0 {
		return nil, ErrInvalidInput
	}
	keyword, err := s.keywordStore.GetByIDAndUserID(keywordID, userID)
	if err != nil {
		return nil, err
	}
	if keyword == nil {
		return nil, ErrKeywordNotFound
	}
	return keyword, nil
}

func (s *KeywordService) Update(ctx context.Context, userID, keywordID uint, input KeywordInput) (*model.Keyword, error) {
	if userID == 0 || keywordID == 0 {
		return nil, ErrInvalidInput
	}
	term := strings.TrimSpace(input.Term)
	if term == "" {
		return nil, ErrInvalidInput
	}

	keyword, err := s.keywordStore.GetByIDAndUserID(keywordID, userID)
	if err != nil {
		return nil, err
	}
	if keyword == nil {
		return nil, ErrKeywordNotFound
	}

	keyword.Term = term
	keyword.ExampleText = input.ExampleText
	if err := s.keywordStore.Update(keyword); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, userID)
	return keyword, nil
}

func (s *KeywordService) Delete(ctx context.Context, userID, keywordID uint) error {
	if userID == 0 || keywordID == 0 {
		return ErrInvalidInput
	}
	keyword, err := s.keywordStore.GetByIDAndUserID(keywordID, userID)
	if err != nil {
		return err
	}
	if keyword == nil {
		return ErrKeywordNotFound
	}
	if err := s.keywordStore.DeleteByIDAndUserID(keywordID, userID); err != nil {
		return err
	}
	s.invalidateCache(ctx, userID)
	return nil
}

// ExtractFromPDF pulls the document text out of the PDF, asks the LLM to
// identify keyword/instruction pairs, and persists each pair for the user.
// Malformed provider output degrades to an empty list with a logged parse
// failure; duplicate terms are allowed.
func (s *KeywordService) ExtractFromPDF(ctx context.Context, userID uint, filename string, data []byte) ([]model.Keyword, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if strings.ToLower(filepath.Ext(strings.TrimSpace(filename))) != ".pdf" {
		return nil, fmt.Errorf("%w: file must be a PDF", ErrInvalidDocument)
	}
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}

	pages, err := pdfextract.ExtractPagesFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	var text strings.Builder
	for _, p := range pages {
		text.WriteString(p.Text)
		text.WriteString("\n")
	}

	pairs, err := s.extractPairs(ctx, text.String())
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return []model.Keyword{}, nil
	}

	keywords := make([]model.Keyword, len(pairs))
	for i, p := range pairs {
		keywords[i] = model.Keyword{
			UserID:      userID,
			Term:        p.Term,
			ExampleText: p.ExampleText,
		}
	}
	if err := s.keywordStore.CreateBatch(keywords); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, userID)
	return keywords, nil
}

type keywordPair struct {
	Term        string `json:"term"`
	ExampleText string `json:"example_text"`
}

func (s *KeywordService) extractPairs(ctx context.Context, documentText string) ([]keywordPair, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var pairs []keywordPair
	for _, segment := range splitSegments(documentText, maxExtractionSegment) {
		prompt := fmt.Sprintf(keywordExtractionTemplate, segment)
		raw, err := s.llmClient.GenerateText(ctx, "", prompt)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
		}

		parsed, err := parseKeywordPairs(raw)
		if err != nil {
			log.Printf("keyword extraction parse failed, skipping segment: %v", err)
			continue
		}
		pairs = append(pairs, parsed...)
	}
	return pairs, nil
}

// parseKeywordPairs decodes the provider's JSON array, tolerating markdown
// code fences and leading prose around the array.
func parseKeywordPairs(raw string) ([]keywordPair, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var parsed []keywordPair
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("decode keyword array failed: %w", err)
	}

	pairs := parsed[:0]
	for _, p := range parsed {
		if strings.TrimSpace(p.Term) == "" {
			continue
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

func splitSegments(text string, size int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}
	var segments []string
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[i:end]))
	}
	return segments
}

func (s *KeywordService) requireUser(userID uint) error {
	user, err := s.userStore.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil || !user.IsActive {
		return ErrUserNotFound
	}
	return nil
}

func (s *KeywordService) invalidateCache(ctx context.Context, userID uint) {
	if s.keywordCache == nil {
		return
	}
	if err := s.keywordCache.Invalidate(ctx, userID); err != nil {
		log.Printf("invalidate keyword cache for user %d failed: %v", userID, err)
	}
}
