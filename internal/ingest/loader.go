// Package ingest loads raw documents, chunks them, embeds every chunk
// and writes the result into the collection store.
package ingest

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gostrag/internal/domain"
)

var supportedExts = map[string]bool{
	".txt":  true,
	".text": true,
	".md":   true,
}

// Load reads documents from a single file or, recursively, from every
// supported file under a directory. A missing path is fatal.
func Load(path string) ([]domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, err
	}

	if !info.IsDir() {
		doc, err := readDocument(path)
		if err != nil {
			return nil, err
		}
		return []domain.Document{doc}, nil
	}

	var docs []domain.Document
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supportedExts[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		doc, err := readDocument(p)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no supported documents under %s", domain.ErrNotFound, path)
	}
	return docs, nil
}

func readDocument(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		ID:      hashPath(path),
		Path:    path,
		Content: string(data),
	}, nil
}

func hashPath(path string) string {
	h := sha1.Sum([]byte(path))
	return hex.EncodeToString(h[:8])
}
