// Package usecase contains the answer-routing policy: given lexical
// retrieval results, session history, and an optional language-model
// call, it decides whether to answer from the FAQ, delegate to the
// model, or decline as out-of-scope.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"lms-chatbot/internal/domain"
	"lms-chatbot/internal/retrieval"
)

const (
	// directMatchThreshold selects the direct-FAQ tier.
	directMatchThreshold = 0.38
	// inDomainThreshold is the independent in-domain check applied in
	// the direct-FAQ tier. It is lower than directMatchThreshold, so it
	// always holds when that tier fires; the original service computed
	// both and the redundancy is kept as observed.
	inDomainThreshold = 0.15
	// fallbackThreshold selects the secondary-FAQ tier when the model
	// is unavailable.
	fallbackThreshold = 0.2

	topK          = retrieval.DefaultTopK
	historyWindow = 6

	defaultSessionID      = "anon"
	defaultGatewayTimeout = 20 * time.Second
)

const (
	emptyAnswer      = "Please type a question."
	outOfScopeAnswer = "I can help with LMS questions (courses, enrollments, assignments, deadlines, payments, player)."
)

// Retriever ranks FAQ entries against a query.
type Retriever interface {
	TopMatches(query string, k int) []retrieval.Result
}

// HistoryStore is the session history surface the router needs.
type HistoryStore interface {
	Append(sessionID string, turn domain.Turn)
	History(sessionID string) []domain.Turn
}

// Gateway generates an answer from a hosted language model. A failed
// or empty generation is reported as an error, ideally a
// *domain.UnavailableError carrying the reason.
type Gateway interface {
	Generate(ctx context.Context, question string, contextEntries []domain.FaqEntry, history []domain.Turn) (string, error)
}

// ChatInput is the transport-independent request the router accepts.
type ChatInput struct {
	Message   string
	SessionID string
}

// ChatService routes one question through the tiered answer policy.
type ChatService struct {
	retriever      Retriever
	history        HistoryStore
	gateway        Gateway
	gatewayTimeout time.Duration
	logger         *slog.Logger
}

// NewChatService creates a ChatService with injected collaborators.
func NewChatService(r Retriever, h HistoryStore, g Gateway, logger *slog.Logger) (*ChatService, error) {
	if r == nil {
		return nil, errors.New("usecase: retriever must not be nil")
	}
	if h == nil {
		return nil, errors.New("usecase: history store must not be nil")
	}
	if g == nil {
		return nil, errors.New("usecase: gateway must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		retriever:      r,
		history:        h,
		gateway:        g,
		gatewayTimeout: defaultGatewayTimeout,
		logger:         logger,
	}, nil
}

// Chat evaluates the routing tiers in fixed order and returns a
// well-formed outcome; no failure in any collaborator surfaces to the
// caller. Both the user turn and the produced answer are appended to
// the session history afterwards, except for empty input, which
// touches nothing.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) domain.ChatOutcome {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = defaultSessionID
	}

	question := strings.TrimSpace(in.Message)
	if question == "" {
		return domain.ChatOutcome{
			InDomain: false,
			Bucket:   domain.BucketEmpty,
			Answer:   emptyAnswer,
		}
	}

	top := s.retriever.TopMatches(question, topK)
	bestScore := 0.0
	if len(top) > 0 {
		bestScore = top[0].Score
	}

	var (
		bucket   domain.Bucket
		inDomain bool
		answer   string
	)
	switch {
	case len(top) > 0 && bestScore >= directMatchThreshold:
		bucket = domain.BucketFAQ
		inDomain = bestScore >= inDomainThreshold
		answer = top[0].Entry.Answer

	default:
		text, err := s.generate(ctx, question, sessionID, top)
		switch {
		case err == nil && text != "":
			bucket = domain.BucketLLM
			inDomain = true
			answer = text

		default:
			s.logger.Warn("language model unavailable",
				"reason", unavailableReason(err, text), "err", err)
			if len(top) > 0 && bestScore >= fallbackThreshold {
				bucket = domain.BucketFAQ
				inDomain = true
				answer = top[0].Entry.Answer
			} else {
				bucket = domain.BucketOutOfScope
				inDomain = false
				answer = outOfScopeAnswer
			}
		}
	}

	s.history.Append(sessionID, domain.Turn{Role: domain.RoleUser, Content: question})
	s.history.Append(sessionID, domain.Turn{Role: domain.RoleAssistant, Content: answer})

	return domain.ChatOutcome{
		InDomain:   inDomain,
		Bucket:     bucket,
		Answer:     answer,
		TopMatches: roundMatches(top),
	}
}

// generate calls the gateway with the top matches as context and at
// most the last historyWindow turns, under a bounded timeout so a slow
// provider cannot stall the request.
func (s *ChatService) generate(ctx context.Context, question, sessionID string, top []retrieval.Result) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	entries := make([]domain.FaqEntry, 0, len(top))
	for _, r := range top {
		entries = append(entries, r.Entry)
	}

	turns := s.history.History(sessionID)
	if len(turns) > historyWindow {
		turns = turns[len(turns)-historyWindow:]
	}

	text, err := s.gateway.Generate(ctx, question, entries, turns)
	return strings.TrimSpace(text), err
}

// unavailableReason maps a failed generation to its typed reason for
// logging.
func unavailableReason(err error, text string) domain.UnavailableReason {
	if err == nil && text == "" {
		return domain.UnavailableEmpty
	}
	var ue *domain.UnavailableError
	if errors.As(err, &ue) {
		return ue.Reason
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.UnavailableTimeout
	}
	return domain.UnavailableUpstream
}

func roundMatches(top []retrieval.Result) []domain.Match {
	matches := make([]domain.Match, 0, len(top))
	for _, r := range top {
		matches = append(matches, domain.Match{
			Question: r.Entry.Question,
			Score:    math.Round(r.Score*1000) / 1000,
		})
	}
	return matches
}
