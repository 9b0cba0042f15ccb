package repository

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/blevesearch/bleve"

	"github.com/hecopilot/copilot-backend/internal/rag/domain"
)

const snippetLen = 240

type localDoc struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Role    string `json:"role"`
}

// LocalIndex is an in-memory full-text index over a directory of .md/.txt
// snippets. It stands in for the ranked search procedure in development and
// offline deployments. A file's parent directory name is used as its role.
type LocalIndex struct {
	mu    sync.RWMutex
	index bleve.Index
	docs  map[string]localDoc
}

func NewLocalIndex() *LocalIndex {
	return &LocalIndex{docs: map[string]localDoc{}}
}

func (l *LocalIndex) Load(dir string) error {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	docs := map[string]localDoc{}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if ext := strings.ToLower(filepath.Ext(path)); ext != ".md" && ext != ".txt" {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		role := ""
		if parent := filepath.Dir(rel); parent != "." {
			role = filepath.Base(parent)
		}
		doc := localDoc{
			Title:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Content: string(b),
			Role:    role,
		}
		docs[rel] = doc
		return idx.Index(rel, doc)
	})
	if err != nil {
		idx.Close()
		return err
	}

	l.mu.Lock()
	old := l.index
	l.index, l.docs = idx, docs
	l.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

func (l *LocalIndex) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.docs)
}

func (l *LocalIndex) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.index == nil {
		return nil, fmt.Errorf("local index not loaded")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), limit, 0, false)
	res, err := l.index.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SearchHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		d, ok := l.docs[h.ID]
		if !ok {
			continue
		}
		snip := truncate(d.Content, snippetLen)
		out = append(out, domain.SearchHit{
			Source:  "local",
			ID:      h.ID,
			Title:   d.Title,
			Snippet: snip,
			Score:   h.Score,
			Role:    d.Role,
			DocType: strings.TrimPrefix(filepath.Ext(h.ID), "."),
			Tags:    []string{},
			URL:     h.ID,
		})
	}
	return out, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
