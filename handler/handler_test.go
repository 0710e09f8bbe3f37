package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"lms-chatbot/internal/domain"
	"lms-chatbot/internal/usecase"
)

type stubChatter struct {
	out domain.ChatOutcome
	in  usecase.ChatInput
}

func (s *stubChatter) Chat(_ context.Context, in usecase.ChatInput) domain.ChatOutcome {
	s.in = in
	return s.out
}

type stubFaqAdmin struct {
	count     int
	reloadN   int
	reloadErr error
	reloaded  bool
}

func (s *stubFaqAdmin) Reload(_ context.Context) (int, error) {
	s.reloaded = true
	return s.reloadN, s.reloadErr
}

func (s *stubFaqAdmin) Count() int { return s.count }

type stubSessionAdmin struct {
	resetID string
}

func (s *stubSessionAdmin) Reset(sessionID string) { s.resetID = sessionID }

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func newTestHandler(t *testing.T, chat *stubChatter, faqs *stubFaqAdmin, sessions *stubSessionAdmin) http.Handler {
	t.Helper()
	h, err := NewHandler(chat, faqs, sessions, nil)
	require.NoError(t, err)
	return h.Routes([]string{"http://localhost:5173"})
}

func TestNewHandler_ValidatesDependencies(t *testing.T) {
	_, err := NewHandler(nil, &stubFaqAdmin{}, &stubSessionAdmin{}, nil)
	require.Error(t, err)
	_, err = NewHandler(&stubChatter{}, nil, &stubSessionAdmin{}, nil)
	require.Error(t, err)
	_, err = NewHandler(&stubChatter{}, &stubFaqAdmin{}, nil, nil)
	require.Error(t, err)
}

func TestChat_HappyPath(t *testing.T) {
	chat := &stubChatter{out: domain.ChatOutcome{
		InDomain: true,
		Bucket:   domain.BucketFAQ,
		Answer:   "Open the course page.",
		TopMatches: []domain.Match{
			{Question: "How do I enroll?", Score: 0.62},
		},
	}}
	mux := newTestHandler(t, chat, &stubFaqAdmin{}, &stubSessionAdmin{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"message":"how do I enroll","session_id":"sid-1"}`))
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Correlation-Id"))
	require.Equal(t, usecase.ChatInput{Message: "how do I enroll", SessionID: "sid-1"}, chat.in)

	out := parseBody[chatResponse](t, rec.Body.String())
	require.True(t, out.InDomain)
	require.Equal(t, "faq", out.Bucket)
	require.Equal(t, "Open the course page.", out.Answer)
	require.Equal(t, "sid-1", out.Meta.SessionID)
	require.Equal(t, []faqTopEntry{{Question: "How do I enroll?", Score: 0.62}}, out.Meta.FaqTop)
}

func TestChat_DefaultsSessionID(t *testing.T) {
	chat := &stubChatter{out: domain.ChatOutcome{Bucket: domain.BucketEmpty}}
	mux := newTestHandler(t, chat, &stubFaqAdmin{}, &stubSessionAdmin{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":""}`))
	mux.ServeHTTP(rec, req)

	require.Equal(t, "anon", chat.in.SessionID)
	out := parseBody[chatResponse](t, rec.Body.String())
	require.Equal(t, "anon", out.Meta.SessionID)
}

func TestChat_InvalidBody(t *testing.T) {
	mux := newTestHandler(t, &stubChatter{}, &stubFaqAdmin{}, &stubSessionAdmin{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("not-json"))
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	out := parseBody[errorResponse](t, rec.Body.String())
	require.Equal(t, "invalid_request_body", out.Error)
}

func TestHealth(t *testing.T) {
	mux := newTestHandler(t, &stubChatter{}, &stubFaqAdmin{count: 7}, &stubSessionAdmin{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	out := parseBody[map[string]any](t, rec.Body.String())
	require.Equal(t, true, out["ok"])
	require.Equal(t, float64(7), out["faq_items"])
}

func TestReloadFaq(t *testing.T) {
	faqs := &stubFaqAdmin{reloadN: 9}
	mux := newTestHandler(t, &stubChatter{}, faqs, &stubSessionAdmin{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reload_faq", nil))

	require.True(t, faqs.reloaded)
	out := parseBody[map[string]any](t, rec.Body.String())
	require.Equal(t, true, out["ok"])
	require.Equal(t, float64(9), out["faq_items"])
}

func TestReloadFaq_FailureReportsRetainedCount(t *testing.T) {
	faqs := &stubFaqAdmin{reloadN: 4, reloadErr: errors.New("malformed corpus")}
	mux := newTestHandler(t, &stubChatter{}, faqs, &stubSessionAdmin{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reload_faq", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	out := parseBody[map[string]any](t, rec.Body.String())
	require.Equal(t, false, out["ok"])
	require.Equal(t, float64(4), out["faq_items"])
}

func TestResetSession(t *testing.T) {
	sessions := &stubSessionAdmin{}
	mux := newTestHandler(t, &stubChatter{}, &stubFaqAdmin{}, sessions)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reset_session?session_id=sid-9", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "sid-9", sessions.resetID)
}

func TestResetSession_RequiresSessionID(t *testing.T) {
	mux := newTestHandler(t, &stubChatter{}, &stubFaqAdmin{}, &stubSessionAdmin{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reset_session", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS_AllowedOrigin(t *testing.T) {
	mux := newTestHandler(t, &stubChatter{}, &stubFaqAdmin{}, &stubSessionAdmin{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_UnknownOrigin(t *testing.T) {
	mux := newTestHandler(t, &stubChatter{}, &stubFaqAdmin{}, &stubSessionAdmin{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	mux.ServeHTTP(rec, req)

	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
