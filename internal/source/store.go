// Package source reads the CSV extracts the warehouse is loaded from. Extracts
// live either in a local directory or under an s3:// prefix.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/config"
)

// Extract file names.
const (
	KeywordsFile   = "keywords.csv"
	AuthorsFile    = "authors.csv"
	PapersFile     = "papers_final.csv"
	ReferencesFile = "unique_references.csv"
	ParagraphsFile = "paragraphs.csv"
	SentencesFile  = "sentences.csv"
	CitationsFile  = "citations.csv"
	EntitiesFile   = "entities.csv"
)

// ErrExtractNotFound is returned when a named extract does not exist.
var ErrExtractNotFound = errors.New("extract not found")

// Store opens extract files by name.
type Store interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Describe() string
}

// LocalDir reads extracts from a directory on disk.
type LocalDir struct {
	Root string
}

func (d LocalDir) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(d.Root, filepath.Base(name)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s in %s: %w", name, d.Root, ErrExtractNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

func (d LocalDir) Describe() string { return d.Root }

// NewStore picks the extract store for cfg.SourcePath.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if cfg.SourceIsS3() {
		return NewS3Store(ctx, cfg)
	}
	root := strings.TrimSpace(cfg.SourcePath)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat source path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %q is not a directory", root)
	}
	return LocalDir{Root: root}, nil
}
