package domain

// FaqEntry is one curated question/answer/tags record from the support
// corpus. Entries are immutable once loaded; the whole set is replaced
// atomically on reload.
//
// The wire tags match the corpus file shape ("q"/"a"/"tags").
type FaqEntry struct {
	Question string   `json:"q" yaml:"q"`
	Answer   string   `json:"a" yaml:"a"`
	Tags     []string `json:"tags" yaml:"tags"`
}
