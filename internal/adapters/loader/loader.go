// Package loader provides guideline document loading adapters.
package loader

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/agrisense/irrigo/internal/domain/entities"
)

// GuidelineLoader reads agronomic guideline text files from a
// directory. Implements ports.GuidelineSource. File stems become the
// source IDs (fao.txt -> FAO), so IDs are stable across restarts.
type GuidelineLoader struct {
	dir    string
	logger *zap.Logger
}

// NewGuidelineLoader creates a loader over the guidelines directory.
func NewGuidelineLoader(dir string, logger *zap.Logger) *GuidelineLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GuidelineLoader{dir: dir, logger: logger}
}

// LoadGuidelines reads every .txt file in the directory, sorted by
// name for a stable document order. A missing directory or unreadable
// file degrades to fewer (or zero) documents, never an error.
func (l *GuidelineLoader) LoadGuidelines(ctx context.Context) ([]entities.GuidelineDocument, error) {
	dirEntries, err := os.ReadDir(l.dir)
	if err != nil {
		l.logger.Warn("guidelines directory not readable", zap.String("dir", l.dir), zap.Error(err))
		return nil, nil
	}

	var names []string
	for _, de := range dirEntries {
		if de.IsDir() || !strings.EqualFold(filepath.Ext(de.Name()), ".txt") {
			continue
		}
		names = append(names, de.Name())
	}
	sort.Strings(names)

	var documents []entities.GuidelineDocument
	for _, name := range names {
		path := filepath.Join(l.dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("skipping unreadable guideline", zap.String("path", path), zap.Error(err))
			continue
		}

		sourceID := strings.ToUpper(strings.TrimSuffix(name, filepath.Ext(name)))
		documents = append(documents, entities.GuidelineDocument{
			SourceID: sourceID,
			Content:  string(content),
			Path:     path,
			Kind:     "guideline",
		})
		l.logger.Info("loaded guideline", zap.String("source", sourceID))
	}

	return documents, nil
}
