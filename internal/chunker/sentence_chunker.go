package chunker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gostrag/internal/domain"
)

// SentenceChunker splits document text into overlapping chunks of
// roughly chunkSize characters. Boundaries prefer sentence breaks;
// a sentence longer than chunkSize falls back to fixed windows with
// chunkOverlap shared characters between consecutive windows.
type SentenceChunker struct {
	chunkSize    int
	chunkOverlap int
	splitter     *regexp.Regexp
}

// NewSentenceChunker returns a chunker with the given character
// budgets. The overlap must be strictly less than the chunk size.
func NewSentenceChunker(chunkSize, chunkOverlap int) (*SentenceChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrValidation, chunkSize)
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap (%d) must be less than chunk size (%d)", domain.ErrValidation, chunkOverlap, chunkSize)
	}
	return &SentenceChunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		splitter:     regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?]+\s*)`),
	}, nil
}

// Chunk splits one document. Chunk IDs are stable: documentID:index.
func (c *SentenceChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	sentences := c.sentences(doc.Content)
	if len(sentences) == 0 {
		return nil, nil
	}

	packed := c.pack(sentences)

	// Sentences longer than the budget are window-split after packing
	// so the exact-overlap guarantee between windows is preserved.
	var texts []string
	for _, p := range packed {
		if len(p) > c.chunkSize {
			texts = append(texts, c.windows(p)...)
		} else {
			texts = append(texts, p)
		}
	}

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:         doc.ID + ":" + strconv.Itoa(i),
			DocumentID: doc.ID,
			Text:       text,
			Index:      i,
			Metadata: map[string]string{
				"source":      doc.Path,
				"document_id": doc.ID,
				"chunk_index": strconv.Itoa(i),
			},
		})
	}
	return chunks, nil
}

func (c *SentenceChunker) sentences(content string) []string {
	matches := c.splitter.FindAllString(content, -1)
	consumed := 0
	for _, m := range matches {
		consumed += len(m)
	}
	// Keep any trailing text without terminal punctuation.
	if rest := strings.TrimSpace(content[min(consumed, len(content)):]); rest != "" {
		matches = append(matches, rest)
	}
	out := matches[:0]
	for _, m := range matches {
		if t := strings.TrimSpace(m); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// pack greedily joins sentences up to the chunk budget, carrying back
// whole trailing sentences worth up to chunkOverlap characters into the
// next chunk.
func (c *SentenceChunker) pack(sentences []string) []string {
	var chunks []string
	var cur []string
	curLen := 0
	for _, s := range sentences {
		if curLen > 0 && curLen+len(s)+1 > c.chunkSize {
			chunks = append(chunks, strings.Join(cur, " "))
			var keep []string
			kl := 0
			for i := len(cur) - 1; i >= 0; i-- {
				if kl+len(cur[i]) > c.chunkOverlap {
					break
				}
				keep = append([]string{cur[i]}, keep...)
				kl += len(cur[i]) + 1
			}
			cur = keep
			curLen = kl
		}
		cur = append(cur, s)
		curLen += len(s) + 1
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, " "))
	}
	return chunks
}

// windows splits text with no usable sentence boundaries into spans of
// exactly chunkSize characters stepping chunkSize-chunkOverlap, so each
// span's trailing overlap equals the next span's leading overlap.
func (c *SentenceChunker) windows(text string) []string {
	step := c.chunkSize - c.chunkOverlap
	var out []string
	for start := 0; start < len(text); start += step {
		end := start + c.chunkSize
		if end >= len(text) {
			out = append(out, text[start:])
			break
		}
		out = append(out, text[start:end])
	}
	return out
}
