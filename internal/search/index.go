// Package search ranks the paragraphs of the knowledge document against a
// user question. The index is built once per document version, is read-only
// afterwards and therefore safe for concurrent use.
//
// Scoring uses Jaccard similarity between the question token set and each
// paragraph's token set: score = |Q ∩ P| / |Q ∪ P|.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Result is a ranked paragraph with its similarity score. Pos is the
// paragraph's position in the source document.
type Result struct {
	Snippet string
	Score   float64
	Pos     int
}

// Index is the minimal interface implemented by paragraph indices.
type Index interface {
	// TopK returns up to k paragraphs ordered by descending score.
	TopK(query string, k int) []Result
	// Len reports the number of indexed paragraphs.
	Len() int
}

// Option configures index construction.
type Option func(*config)

type config struct {
	minParagraphRunes int
	stopwords         map[string]struct{}
	maxParagraphs     int
}

func defaultConfig() config {
	return config{
		minParagraphRunes: 1,
		stopwords:         toSet(DefaultStopwords),
		maxParagraphs:     0,
	}
}

// DefaultStopwords are dropped from both questions and paragraphs so that
// filler words do not dominate the overlap.
var DefaultStopwords = []string{
	"a", "an", "and", "are", "at", "be", "can", "do", "does", "for", "how",
	"i", "in", "is", "it", "me", "my", "of", "on", "or", "the", "to", "what",
	"when", "where", "which", "who", "why", "with", "you", "your",
}

// WithMinParagraphRunes skips paragraphs shorter than n runes.
func WithMinParagraphRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minParagraphRunes = n
		}
	}
}

// WithStopwords replaces the stopword list. An empty list disables
// stopword removal.
func WithStopwords(words []string) Option {
	return func(c *config) {
		c.stopwords = toSet(words)
	}
}

// WithMaxParagraphs caps the number of indexed paragraphs.
func WithMaxParagraphs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxParagraphs = n
		}
	}
}

type paragraph struct {
	text   string
	tokens map[string]struct{}
	pos    int
}

type index struct {
	cfg   config
	paras []paragraph
}

// NewIndex splits text on blank lines and indexes each paragraph.
func NewIndex(text string, opts ...Option) Index {
	return NewIndexFromParagraphs(SplitParagraphs(text), opts...)
}

// NewIndexFromParagraphs indexes pre-split paragraphs.
func NewIndexFromParagraphs(paragraphs []string, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	idx := &index{cfg: cfg, paras: make([]paragraph, 0, len(paragraphs))}
	for pos, raw := range paragraphs {
		t := strings.TrimSpace(raw)
		if t == "" {
			continue
		}
		if cfg.minParagraphRunes > 0 && utf8.RuneCountInString(t) < cfg.minParagraphRunes {
			continue
		}
		toks := tokenize(t, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		idx.paras = append(idx.paras, paragraph{text: t, tokens: toks, pos: pos})
		if cfg.maxParagraphs > 0 && len(idx.paras) >= cfg.maxParagraphs {
			break
		}
	}
	return idx
}

func (i *index) Len() int { return len(i.paras) }

// TopK returns up to k best-matching paragraphs. Ties are broken by
// document position so results are deterministic.
func (i *index) TopK(q string, k int) []Result {
	if len(i.paras) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}

	out := make([]Result, 0, len(i.paras))
	for _, p := range i.paras {
		if s := jaccard(qTokens, p.tokens); s > 0 {
			out = append(out, Result{Snippet: p.text, Score: s, Pos: p.pos})
		}
	}
	if len(out) == 0 {
		return nil
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].Pos < out[b].Pos
	})
	if k < len(out) {
		out = out[:k]
	}
	return out
}

// InDocumentOrder returns rs re-sorted by paragraph position.
func InDocumentOrder(rs []Result) []Result {
	out := append([]Result(nil), rs...)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Pos < out[b].Pos })
	return out
}

var paraSplitRE = regexp.MustCompile(`\n\s*\n`)

// SplitParagraphs splits text on blank lines, dropping empty chunks.
func SplitParagraphs(text string) []string {
	chunks := paraSplitRE.Split(strings.ReplaceAll(text, "\r\n", "\n"), -1)
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if t := strings.TrimSpace(c); t != "" {
			out = append(out, t)
		}
	}
	return out
}

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	over := 0
	for k := range small {
		if _, ok := large[k]; ok {
			over++
		}
	}
	if over == 0 {
		return 0
	}
	return float64(over) / float64(len(a)+len(b)-over)
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			m[w] = struct{}{}
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
