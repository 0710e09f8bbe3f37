package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a session's conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Bucket classifies which routing tier produced a chat outcome.
type Bucket string

const (
	BucketEmpty      Bucket = "empty"
	BucketFAQ        Bucket = "faq"
	BucketLLM        Bucket = "llm"
	BucketOutOfScope Bucket = "out_of_scope"
)

// Match is a retrieval diagnostic attached to every chat outcome:
// the candidate question and its similarity score rounded to three
// decimals.
type Match struct {
	Question string
	Score    float64
}

// ChatOutcome is the router's result for one question. The router
// always produces a well-formed outcome; it never fails.
type ChatOutcome struct {
	InDomain   bool
	Bucket     Bucket
	Answer     string
	TopMatches []Match
}
