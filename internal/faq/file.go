package faq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"lms-chatbot/internal/domain"
)

// FileSource loads the corpus from a local JSON or YAML file. The file
// holds an ordered array of entries in the q/a/tags shape.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for the given path.
func NewFileSource(path string) (*FileSource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("faq: file path must not be empty")
	}
	return &FileSource{path: path}, nil
}

// Load reads and decodes the corpus file. Missing or malformed files
// are errors; the Store turns them into a retained previous snapshot.
func (f *FileSource) Load(_ context.Context) ([]domain.FaqEntry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("faq: read %s: %w", f.path, err)
	}

	var entries []domain.FaqEntry
	switch ext := strings.ToLower(filepath.Ext(f.path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("faq: decode %s: %w", f.path, err)
		}
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("faq: decode %s: %w", f.path, err)
		}
	}
	return entries, nil
}
