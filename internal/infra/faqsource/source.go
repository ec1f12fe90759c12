package faqsource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/yanqian/shopbot/internal/domain/faq"
	apperrors "github.com/yanqian/shopbot/pkg/errors"
)

// ObjectFetcher downloads a whole object from a bucket.
type ObjectFetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// Source loads FAQ rows from a local path or an s3://bucket/key URL.
type Source struct {
	cols    Columns
	objects ObjectFetcher
	logger  *slog.Logger
}

// NewSource constructs a Source. objects may be nil when only local files are read.
func NewSource(cols Columns, objects ObjectFetcher, logger *slog.Logger) *Source {
	return &Source{cols: cols, objects: objects, logger: logger.With("component", "faqsource")}
}

// ReadRows loads, decodes and parses the CSV at path.
func (s *Source) ReadRows(ctx context.Context, path string) ([]faq.Row, error) {
	data, err := s.load(ctx, path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSource, "load faq csv", err)
	}
	text, err := Decode(data, s.logger)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSource, "decode "+path, err)
	}
	rows, err := ParseRows(text, s.cols)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSource, "parse "+path, err)
	}
	s.logger.Info("csv loaded", "path", path, "rows", len(rows))
	return rows, nil
}

func (s *Source) load(ctx context.Context, path string) ([]byte, error) {
	if bucket, key, ok := splitObjectURL(path); ok {
		if s.objects == nil {
			return nil, fmt.Errorf("object storage not configured for %s", path)
		}
		data, err := s.objects.Fetch(ctx, bucket, key)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", path, err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func splitObjectURL(path string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(path, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
