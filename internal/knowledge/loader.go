// Package knowledge loads the grounding document that is injected into the
// system prompt of every /chat request.
//
// The document is read through a small cache keyed on the file's
// modification time and size, so edits on disk are picked up without a
// restart. A missing or unreadable file never fails a request: Load returns
// a placeholder Document with Available=false instead.
package knowledge

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/aoubot-backend/internal/search"
)

// Unavailable is the text used in place of the document when it cannot be
// read.
const Unavailable = "Knowledge file is not available right now."

// Document is the grounding text handed to the completion provider.
type Document struct {
	Text      string
	Available bool
}

// Loader reads and caches the knowledge document at Path.
type Loader struct {
	Path string
	// TopK > 0 limits ForQuestion to the K paragraphs most similar to the
	// question; 0 always uses the whole document.
	TopK int

	mu      sync.Mutex
	modTime time.Time
	size    int64
	doc     Document
	idx     search.Index
	loaded  bool
	warned  bool
}

// New returns a Loader for path.
func New(path string, topK int) *Loader {
	return &Loader{Path: path, TopK: topK}
}

// Load returns the whole document, re-reading the file only when it changed.
func (l *Loader) Load() Document {
	doc, _ := l.load()
	return doc
}

// ForQuestion returns the part of the document relevant to question. When
// TopK is 0, nothing matches, or the document is unavailable, the whole
// document is returned.
func (l *Loader) ForQuestion(question string) Document {
	doc, idx := l.load()
	if !doc.Available || l.TopK <= 0 || idx == nil {
		return doc
	}
	hits := idx.TopK(question, l.TopK)
	if len(hits) == 0 {
		return doc
	}
	hits = search.InDocumentOrder(hits)
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Snippet
	}
	return Document{Text: strings.Join(parts, "\n\n"), Available: true}
}

func (l *Loader) load() (Document, search.Index) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fi, err := os.Stat(l.Path)
	if err != nil || fi.IsDir() {
		// Warn once per outage.
		if l.loaded || !l.warned {
			log.Warn().Err(err).Str("path", l.Path).Msg("knowledge file unavailable")
			l.warned = true
		}
		l.reset()
		return l.doc, nil
	}
	if l.loaded && fi.ModTime().Equal(l.modTime) && fi.Size() == l.size {
		return l.doc, l.idx
	}

	raw, err := os.ReadFile(l.Path)
	if err != nil {
		log.Warn().Err(err).Str("path", l.Path).Msg("knowledge file unreadable")
		l.reset()
		return l.doc, nil
	}
	// The whole document goes out verbatim; only the paragraph index sees
	// flattened tables.
	l.doc = Document{Text: string(raw), Available: true}
	l.idx = nil
	if l.TopK > 0 {
		flat, err := search.FlattenMarkdownTables(raw)
		if err != nil {
			flat = raw
		}
		l.idx = search.NewIndex(string(flat))
	}
	l.modTime, l.size, l.loaded, l.warned = fi.ModTime(), fi.Size(), true, false
	log.Debug().Str("path", l.Path).Int64("bytes", fi.Size()).Msg("knowledge file loaded")
	return l.doc, l.idx
}

func (l *Loader) reset() {
	l.doc = Document{Text: Unavailable, Available: false}
	l.idx = nil
	l.modTime, l.size, l.loaded = time.Time{}, 0, false
}
