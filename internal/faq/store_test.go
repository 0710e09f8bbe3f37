package faq

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"lms-chatbot/internal/domain"
)

type fakeSource struct {
	entries []domain.FaqEntry
	err     error
}

func (f *fakeSource) Load(_ context.Context) ([]domain.FaqEntry, error) {
	return f.entries, f.err
}

func TestStore_StartsEmpty(t *testing.T) {
	s := NewStore(&fakeSource{}, nil)
	require.Equal(t, 0, s.Count())
	require.Empty(t, s.Entries())
}

func TestStore_ReloadSwapsSnapshot(t *testing.T) {
	src := &fakeSource{entries: []domain.FaqEntry{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
	}}
	s := NewStore(src, nil)

	n, err := s.Reload(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, src.entries, s.Entries())
}

func TestStore_ReloadFailureRetainsPrevious(t *testing.T) {
	src := &fakeSource{entries: []domain.FaqEntry{{Question: "q1", Answer: "a1"}}}
	s := NewStore(src, nil)

	_, err := s.Reload(context.Background())
	require.NoError(t, err)

	src.err = errors.New("source broke")
	n, err := s.Reload(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "q1", s.Entries()[0].Question)
}

func TestStore_NilEntriesBecomeEmptySlice(t *testing.T) {
	s := NewStore(&fakeSource{entries: nil}, nil)
	n, err := s.Reload(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.NotNil(t, s.Entries())
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_JSON(t *testing.T) {
	path := writeTempFile(t, "faq.json",
		`[{"q":"How do I enroll?","a":"Open the course page.","tags":["enroll","course"]}]`)
	src, err := NewFileSource(path)
	require.NoError(t, err)

	entries, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "How do I enroll?", entries[0].Question)
	require.Equal(t, []string{"enroll", "course"}, entries[0].Tags)
}

func TestFileSource_YAML(t *testing.T) {
	path := writeTempFile(t, "faq.yaml", `
- q: How do refunds work?
  a: Refunds are processed within 5 days.
  tags: [refund, payment]
`)
	src, err := NewFileSource(path)
	require.NoError(t, err)

	entries, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "How do refunds work?", entries[0].Question)
}

func TestFileSource_MissingFile(t *testing.T) {
	src, err := NewFileSource(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	_, err = src.Load(context.Background())
	require.Error(t, err)
}

func TestFileSource_MalformedKeepsStoreIntact(t *testing.T) {
	good := writeTempFile(t, "faq.json", `[{"q":"q1","a":"a1","tags":[]}]`)
	src, err := NewFileSource(good)
	require.NoError(t, err)

	s := NewStore(src, nil)
	_, err = s.Reload(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(good, []byte("{not json"), 0o644))
	n, err := s.Reload(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "q1", s.Entries()[0].Question)
}

func TestNewFileSource_EmptyPath(t *testing.T) {
	_, err := NewFileSource("  ")
	require.Error(t, err)
}
