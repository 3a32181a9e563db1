package app

import (
	"strings"

	"github.com/n-spicher/shipwright/internal/pkg/pdfextract"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200

	// Chunks with almost no content (page-break artifacts) are skipped.
	minChunkContent = 10
)

// pageChunk is a bounded slice of document text tagged with the page that
// contains its first character. Index is the insertion order across the
// whole document and serves as the stable tie-breaker at retrieval time.
type pageChunk struct {
	Text  string
	Page  int
	Index int
}

// chunkPages joins page texts into one stream and splits it into fixed-size
// rune windows with overlap. Page boundaries are tracked by rune offset so
// each chunk records the page of its first rune.
func chunkPages(pages []pdfextract.PageText, size, overlap int) []pageChunk {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}

	type pageSpan struct {
		page  int
		start int
		end   int
	}

	var all []rune
	var spans []pageSpan
	for _, p := range pages {
		runes := []rune(p.Text)
		start := len(all)
		all = append(all, runes...)
		all = append(all, '\n')
		spans = append(spans, pageSpan{page: p.Number, start: start, end: len(all)})
	}

	pageAt := func(pos int) int {
		for _, s := range spans {
			if pos >= s.start && pos < s.end {
				return s.page
			}
		}
		if len(spans) > 0 {
			return spans[len(spans)-1].page
		}
		return 1
	}

	var chunks []pageChunk
	index := 0
	for i := 0; i < len(all); {
		end := i + size
		if end > len(all) {
			end = len(all)
		}
		text := string(all[i:end])
		if len(strings.TrimSpace(text)) >= minChunkContent {
			chunks = append(chunks, pageChunk{
				Text:  text,
				Page:  pageAt(i),
				Index: index,
			})
			index++
		}
		if end == len(all) {
			break
		}
		i += size - overlap
	}
	return chunks
}
