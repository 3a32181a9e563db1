package app

import (
	"context"
	"errors"
	"testing"

	"github.com/n-spicher/shipwright/internal/model"
)

func newKeywordService(users *fakeUserStore, kws *fakeKeywordStore, cache *fakeKeywordCache, llm *fakeLLM) *KeywordService {
	return NewKeywordService(users, kws, cache, llm, 0)
}

func TestKeywordCreate(t *testing.T) {
	kws := &fakeKeywordStore{}
	cache := newFakeKeywordCache()
	cache.entries[1] = []model.Keyword{}
	svc := newKeywordService(activeUserStore(1), kws, cache, &fakeLLM{})

	kw, err := svc.Create(context.Background(), 1, KeywordInput{Term: "  BOD  ", ExampleText: "Base of design:"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if kw.Term != "BOD" {
		t.Errorf("term = %q, want trimmed BOD", kw.Term)
	}
	if len(cache.invalidated) != 1 {
		t.Error("cache not invalidated after create")
	}
}

func TestKeywordCreateEmptyTerm(t *testing.T) {
	svc := newKeywordService(activeUserStore(1), &fakeKeywordStore{}, newFakeKeywordCache(), &fakeLLM{})

	_, err := svc.Create(context.Background(), 1, KeywordInput{Term: "   "})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestKeywordUpdateScopedToOwner(t *testing.T) {
	kws := &fakeKeywordStore{keywords: []model.Keyword{
		{ID: 1, UserID: 2, Term: "BOD"},
	}}
	svc := newKeywordService(activeUserStore(1), kws, newFakeKeywordCache(), &fakeLLM{})

	_, err := svc.Update(context.Background(), 1, 1, KeywordInput{Term: "BOD"})
	if !errors.Is(err, ErrKeywordNotFound) {
		t.Errorf("err = %v, want ErrKeywordNotFound for another user's keyword", err)
	}
}

func TestKeywordDeleteInvalidatesCache(t *testing.T) {
	kws := &fakeKeywordStore{keywords: []model.Keyword{
		{ID: 3, UserID: 1, Term: "BOD"},
	}}
	cache := newFakeKeywordCache()
	svc := newKeywordService(activeUserStore(1), kws, cache, &fakeLLM{})

	if err := svc.Delete(context.Background(), 1, 3); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(cache.invalidated) != 1 {
		t.Error("cache not invalidated after delete")
	}
	if kw, _ := kws.GetByIDAndUserID(3, 1); kw != nil {
		t.Error("keyword still present after delete")
	}
}

func TestParseKeywordPairs(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{
			name: "plain array",
			raw:  `[{"term": "BOD", "example_text": "Base of design:"}]`,
			want: 1,
		},
		{
			name: "fenced json",
			raw:  "```json\n[{\"term\": \"BOD\", \"example_text\": \"Base of design:\"}]\n```",
			want: 1,
		},
		{
			name: "prose around array",
			raw:  "Here are the extracted keywords:\n[{\"term\": \"BOD\", \"example_text\": \"x\"}, {\"term\": \"base of design\", \"example_text\": \"y\"}]\nLet me know if you need more.",
			want: 2,
		},
		{
			name: "empty terms filtered",
			raw:  `[{"term": "", "example_text": "x"}, {"term": "BOD", "example_text": "y"}]`,
			want: 1,
		},
		{
			name:    "no array",
			raw:     "I could not find any keywords in this document.",
			wantErr: true,
		},
		{
			name:    "malformed json",
			raw:     `[{"term": "BOD", "example_text": }]`,
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pairs, err := parseKeywordPairs(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseKeywordPairs failed: %v", err)
			}
			if len(pairs) != tc.want {
				t.Errorf("pairs = %d, want %d", len(pairs), tc.want)
			}
		})
	}
}

func TestExtractPairsMalformedResponseDegrades(t *testing.T) {
	llm := &fakeLLM{response: "Sorry, I can only describe the document in prose."}
	svc := newKeywordService(activeUserStore(1), &fakeKeywordStore{}, newFakeKeywordCache(), llm)

	pairs, err := svc.extractPairs(context.Background(), "some document text")
	if err != nil {
		t.Fatalf("extractPairs failed: %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("pairs = %d, want 0 from unparseable response", len(pairs))
	}
}

func TestExtractPairsLLMFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("upstream 500")}
	svc := newKeywordService(activeUserStore(1), &fakeKeywordStore{}, newFakeKeywordCache(), llm)

	_, err := svc.extractPairs(context.Background(), "some document text")
	if !errors.Is(err, ErrLLMUnavailable) {
		t.Errorf("err = %v, want ErrLLMUnavailable", err)
	}
}

func TestExtractPairsSegmentsLongDocuments(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`[{"term": "BOD", "example_text": "a"}]`,
		`[{"term": "RFI", "example_text": "b"}]`,
	}}
	svc := newKeywordService(activeUserStore(1), &fakeKeywordStore{}, newFakeKeywordCache(), llm)

	long := make([]byte, maxExtractionSegment+100)
	for i := range long {
		long[i] = 'a'
	}
	pairs, err := svc.extractPairs(context.Background(), string(long))
	if err != nil {
		t.Fatalf("extractPairs failed: %v", err)
	}
	if len(llm.userPrompts) != 2 {
		t.Errorf("LLM calls = %d, want 2 segments", len(llm.userPrompts))
	}
	if len(pairs) != 2 {
		t.Errorf("pairs = %d, want merged results from both segments", len(pairs))
	}
}

func TestSplitSegments(t *testing.T) {
	if got := splitSegments("short", 100); len(got) != 1 || got[0] != "short" {
		t.Errorf("splitSegments(short) = %v", got)
	}
	segments := splitSegments("abcdefghij", 4)
	if len(segments) != 3 {
		t.Fatalf("segments = %d, want 3", len(segments))
	}
	if segments[0] != "abcd" || segments[1] != "efgh" || segments[2] != "ij" {
		t.Errorf("segments = %v", segments)
	}
}
