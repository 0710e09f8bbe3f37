// Package faq holds the live FAQ corpus behind an atomically swappable
// snapshot, so concurrent readers always observe a fully-old or
// fully-new set across reloads.
package faq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"lms-chatbot/internal/domain"
)

// Source loads an ordered sequence of FAQ entries. Implementations
// report load failures as errors; the Store decides what to retain.
type Source interface {
	Load(ctx context.Context) ([]domain.FaqEntry, error)
}

// Store is the process-wide FAQ corpus. It starts empty; Reload swaps
// in a new snapshot all-or-nothing.
type Store struct {
	source Source
	logger *slog.Logger

	reloadMu sync.Mutex // single writer; readers go through the pointer
	snapshot atomic.Pointer[[]domain.FaqEntry]
}

// NewStore creates an empty Store backed by the given source.
func NewStore(source Source, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{source: source, logger: logger}
	empty := make([]domain.FaqEntry, 0)
	s.snapshot.Store(&empty)
	return s
}

// Reload loads the corpus from the source and swaps it in atomically.
// On failure the previous snapshot is retained unchanged and the
// returned count is the retained entry count.
func (s *Store) Reload(ctx context.Context) (int, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	entries, err := s.source.Load(ctx)
	if err != nil {
		count := s.Count()
		s.logger.Warn("faq reload failed, keeping previous corpus",
			"err", err, "faq_items", count)
		return count, fmt.Errorf("faq: reload: %w", err)
	}
	if entries == nil {
		entries = make([]domain.FaqEntry, 0)
	}
	s.snapshot.Store(&entries)
	s.logger.Info("faq corpus loaded", "faq_items", len(entries))
	return len(entries), nil
}

// Entries returns the current snapshot in corpus order. Callers must
// not mutate it.
func (s *Store) Entries() []domain.FaqEntry {
	return *s.snapshot.Load()
}

// Count returns the number of entries in the current snapshot.
func (s *Store) Count() int {
	return len(*s.snapshot.Load())
}
