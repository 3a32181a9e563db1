package app

import (
	"strings"
	"testing"

	"github.com/n-spicher/shipwright/internal/pkg/pdfextract"
)

func TestChunkPagesSplitsWithOverlap(t *testing.T) {
	pages := []pdfextract.PageText{
		{Number: 1, Text: strings.Repeat("a", 250)},
	}

	chunks := chunkPages(pages, 100, 20)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.Page != 1 {
			t.Errorf("chunk %d page = %d, want 1", i, c.Page)
		}
	}

	// Consecutive chunks share the overlap region.
	first := []rune(chunks[0].Text)
	second := []rune(chunks[1].Text)
	if string(first[len(first)-20:]) != string(second[:20]) {
		t.Error("second chunk does not start with the first chunk's tail")
	}
}

func TestChunkPagesTracksPageOfFirstRune(t *testing.T) {
	pages := []pdfextract.PageText{
		{Number: 1, Text: strings.Repeat("x", 120)},
		{Number: 2, Text: strings.Repeat("y", 120)},
	}

	chunks := chunkPages(pages, 100, 0)
	if len(chunks) < 3 {
		t.Fatalf("chunks = %d, want at least 3", len(chunks))
	}
	if chunks[0].Page != 1 {
		t.Errorf("first chunk page = %d, want 1", chunks[0].Page)
	}
	last := chunks[len(chunks)-1]
	if last.Page != 2 {
		t.Errorf("last chunk page = %d, want 2", last.Page)
	}
}

func TestChunkPagesSkipsNearEmptyChunks(t *testing.T) {
	pages := []pdfextract.PageText{
		{Number: 1, Text: strings.Repeat("a", 100)},
		{Number: 2, Text: "   "},
	}

	chunks := chunkPages(pages, 100, 0)
	for _, c := range chunks {
		if len(strings.TrimSpace(c.Text)) < minChunkContent {
			t.Errorf("chunk %d kept with only %d non-space characters", c.Index, len(strings.TrimSpace(c.Text)))
		}
	}
}

func TestChunkPagesEmptyInput(t *testing.T) {
	if got := chunkPages(nil, 100, 20); len(got) != 0 {
		t.Errorf("chunks for no pages = %d, want 0", len(got))
	}
	if got := chunkPages([]pdfextract.PageText{{Number: 1, Text: ""}}, 100, 20); len(got) != 0 {
		t.Errorf("chunks for empty page = %d, want 0", len(got))
	}
}

func TestChunkPagesNoDuplicateTail(t *testing.T) {
	// Text length a multiple of the window size must not emit a trailing
	// chunk that is wholly contained in the previous one.
	var b strings.Builder
	for i := 0; i < 199; i++ {
		b.WriteRune(rune('a' + i%26))
	}
	pages := []pdfextract.PageText{
		{Number: 1, Text: b.String()},
	}

	chunks := chunkPages(pages, 100, 20)
	for i := 1; i < len(chunks); i++ {
		if strings.HasSuffix(chunks[i-1].Text, chunks[i].Text) {
			t.Errorf("chunk %d is a suffix of chunk %d", i, i-1)
		}
	}
}

func TestChunkPagesMultiByteRunes(t *testing.T) {
	pages := []pdfextract.PageText{
		{Number: 1, Text: strings.Repeat("混凝土浇筑", 50)},
	}

	chunks := chunkPages(pages, 100, 20)
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	for i, c := range chunks {
		if n := len([]rune(c.Text)); n > 100 {
			t.Errorf("chunk %d has %d runes, want at most 100", i, n)
		}
	}
}
