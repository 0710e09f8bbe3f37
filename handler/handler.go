// Package handler exposes the chatbot over HTTP: the chat endpoint,
// the health probe, and the administrative reload/reset operations.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"lms-chatbot/internal/domain"
	"lms-chatbot/internal/usecase"
)

// Chatter routes one question to an answer.
type Chatter interface {
	Chat(ctx context.Context, in usecase.ChatInput) domain.ChatOutcome
}

// FaqAdmin is the corpus surface the admin endpoints need.
type FaqAdmin interface {
	Reload(ctx context.Context) (int, error)
	Count() int
}

// SessionAdmin clears one session's history.
type SessionAdmin interface {
	Reset(sessionID string)
}

// Handler holds the HTTP endpoints.
type Handler struct {
	chat     Chatter
	faqs     FaqAdmin
	sessions SessionAdmin
	logger   *slog.Logger
}

// NewHandler creates a Handler with injected collaborators.
func NewHandler(chat Chatter, faqs FaqAdmin, sessions SessionAdmin, logger *slog.Logger) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat service must not be nil")
	}
	if faqs == nil {
		return nil, errors.New("handler: faq admin must not be nil")
	}
	if sessions == nil {
		return nil, errors.New("handler: session admin must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{chat: chat, faqs: faqs, sessions: sessions, logger: logger}, nil
}

// Routes builds the routed handler wrapped in CORS and request-logging
// middleware.
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", h.handleChat)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("POST /reload_faq", h.handleReloadFaq)
	mux.HandleFunc("POST /reset_session", h.handleResetSession)
	return corsMiddleware(allowedOrigins, h.loggingMiddleware(mux))
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type faqTopEntry struct {
	Question string  `json:"q"`
	Score    float64 `json:"score"`
}

type chatMeta struct {
	SessionID string        `json:"session_id"`
	FaqTop    []faqTopEntry `json:"faq_top"`
}

type chatResponse struct {
	InDomain bool     `json:"in_domain"`
	Bucket   string   `json:"bucket"`
	Answer   string   `json:"answer"`
	Meta     chatMeta `json:"meta"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request_body"})
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = "anon"
	}

	out := h.chat.Chat(r.Context(), usecase.ChatInput{
		Message:   req.Message,
		SessionID: sessionID,
	})

	top := make([]faqTopEntry, 0, len(out.TopMatches))
	for _, m := range out.TopMatches {
		top = append(top, faqTopEntry{Question: m.Question, Score: m.Score})
	}

	writeJSON(w, http.StatusOK, chatResponse{
		InDomain: out.InDomain,
		Bucket:   string(out.Bucket),
		Answer:   out.Answer,
		Meta:     chatMeta{SessionID: sessionID, FaqTop: top},
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"faq_items": h.faqs.Count(),
	})
}

func (h *Handler) handleReloadFaq(w http.ResponseWriter, r *http.Request) {
	count, err := h.faqs.Reload(r.Context())
	if err != nil {
		h.logger.Warn("faq reload via endpoint failed", "err", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        err == nil,
		"faq_items": count,
	})
}

func (h *Handler) handleResetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "session_id_required"})
		return
	}
	h.sessions.Reset(sessionID)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"session_id": sessionID,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		correlationID := uuid.NewString()
		w.Header().Set("X-Correlation-Id", correlationID)
		next.ServeHTTP(w, r)
		h.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"correlation_id", correlationID,
			"duration", time.Since(start),
		)
	})
}

// corsMiddleware allows the configured frontend origins. An empty
// allow-list keeps CORS closed.
func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowed[origin]; ok && origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
