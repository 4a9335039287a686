// Package httpadapter exposes the completion proxy endpoints and the
// organization and chat management API.
package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dentaware/assistd/internal/adapters/llm"
	"github.com/dentaware/assistd/internal/app/assistant"
	"github.com/dentaware/assistd/internal/app/orgs"
	"github.com/dentaware/assistd/internal/app/summary"
	"github.com/dentaware/assistd/internal/domain"
	"github.com/dentaware/assistd/internal/observability"
)

type Server struct {
	client    domain.CompletionClient
	assistant *assistant.Service
	summaries *summary.Service
	orgs      *orgs.Service
	remote    domain.RemoteStore
}

func NewServer(
	client domain.CompletionClient,
	assistantSvc *assistant.Service,
	summarySvc *summary.Service,
	orgSvc *orgs.Service,
	remote domain.RemoteStore,
) http.Handler {
	s := &Server{
		client:    client,
		assistant: assistantSvc,
		summaries: summarySvc,
		orgs:      orgSvc,
		remote:    remote,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(withRequestLogging)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Heartbeat("/health"))
	r.Use(withCORS)

	// Non-POST on the proxy endpoints must produce the documented shape,
	// not chi's plain-text default.
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Post("/chat", s.handleChat)
	r.Post("/summary", s.handleSummary)

	r.Get("/shared/{shareID}", s.handleGetShared)

	r.Post("/chats/{chatID}/messages", s.handleSendMessage)
	r.Get("/chats/{chatID}/summary", s.handleChatSummary)

	r.Post("/organizations", s.handleCreateOrg)
	r.Get("/organizations/{orgID}", s.handleGetOrg)
	r.Get("/organizations/{orgID}/users", s.handleListOrgUsers)
	r.Post("/organizations/{orgID}/invitations", s.handleInviteUser)

	return r
}

// ─────────────────────────────────────────
// DTOs
// ─────────────────────────────────────────

type chatRequest struct {
	Messages []wireMessage `json:"messages"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type summaryRequest struct {
	Conversation string `json:"conversation"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type sendMessageResponse struct {
	UserMessage      messageResponse `json:"user_message"`
	AssistantMessage messageResponse `json:"assistant_message"`
}

type createOrgRequest struct {
	Name     string `json:"name"`
	OwnerID  string `json:"owner_id"`
	Email    string `json:"email"`
	PlanType string `json:"plan_type,omitempty"`
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// ─────────────────────────────────────────
// Completion proxy endpoints
// ─────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}

	messages := make([]domain.Message, 0, len(req.Messages)+1)
	messages = append(messages, llm.SystemMessage())
	for _, m := range req.Messages {
		messages = append(messages, domain.Message{
			Role:    domain.Role(m.Role),
			Content: m.Content,
		})
	}

	completion, err := s.client.Complete(r.Context(), messages)
	if err != nil {
		s.writeCompletionError(w, r, err)
		return
	}

	// Pass the provider's response body through untouched.
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(completion.Raw)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Conversation == "" {
		writeError(w, http.StatusBadRequest, "conversation is required")
		return
	}

	completion, err := s.client.Complete(r.Context(), llm.SummaryMessages(req.Conversation))
	if err != nil {
		s.writeCompletionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{Summary: completion.Content})
}

func (s *Server) writeCompletionError(w http.ResponseWriter, r *http.Request, err error) {
	var provErr *domain.ProviderError
	if errors.As(err, &provErr) {
		writeError(w, provErr.StatusCode, provErr.Message)
		return
	}
	observability.LoggerFromContext(r.Context()).Error("completion request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "Failed to process request")
}

// ─────────────────────────────────────────
// Chat endpoints
// ─────────────────────────────────────────

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := domain.ChatID(chi.URLParam(r, "chatID"))

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	out, err := s.assistant.Send(r.Context(), chatID, req.Text)
	switch {
	case errors.Is(err, assistant.ErrEmptyInput), errors.Is(err, assistant.ErrNoChatSelected):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	// A completion failure still produced output: the transcript records the
	// failed turn as an assistant error message, and the caller gets both.
	writeJSON(w, http.StatusOK, sendMessageResponse{
		UserMessage:      toMessageResponse(out.UserMessage),
		AssistantMessage: toMessageResponse(out.AssistantMessage),
	})
}

func (s *Server) handleChatSummary(w http.ResponseWriter, r *http.Request) {
	chatID := domain.ChatID(chi.URLParam(r, "chatID"))

	text, err := s.summaries.Summarize(r.Context(), chatID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "chat not found")
		return
	case errors.Is(err, summary.ErrNotEnoughMessages):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.writeCompletionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{Summary: text})
}

func (s *Server) handleGetShared(w http.ResponseWriter, r *http.Request) {
	shareID := domain.ShareID(chi.URLParam(r, "shareID"))

	shared, err := s.remote.GetShared(r.Context(), shareID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "shared chat not found")
			return
		}
		observability.LoggerFromContext(r.Context()).Error("load shared chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}

	writeJSON(w, http.StatusOK, shared)
}

// ─────────────────────────────────────────
// Organization endpoints
// ─────────────────────────────────────────

func (s *Server) handleCreateOrg(w http.ResponseWriter, r *http.Request) {
	var req createOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.OwnerID == "" {
		writeError(w, http.StatusBadRequest, "name and owner_id are required")
		return
	}

	org, err := s.orgs.CreateOrganization(r.Context(), req.Name,
		domain.UserID(req.OwnerID), req.Email, domain.PlanType(req.PlanType))
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error("create organization failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}

	writeJSON(w, http.StatusCreated, org)
}

func (s *Server) handleGetOrg(w http.ResponseWriter, r *http.Request) {
	orgID := domain.OrgID(chi.URLParam(r, "orgID"))

	org, err := s.orgs.GetOrganization(r.Context(), orgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "organization not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}

	writeJSON(w, http.StatusOK, org)
}

func (s *Server) handleListOrgUsers(w http.ResponseWriter, r *http.Request) {
	orgID := domain.OrgID(chi.URLParam(r, "orgID"))

	users, err := s.orgs.ListUsers(r.Context(), orgID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}
	if users == nil {
		users = []*domain.UserProfile{}
	}

	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleInviteUser(w http.ResponseWriter, r *http.Request) {
	orgID := domain.OrgID(chi.URLParam(r, "orgID"))

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	inv, err := s.orgs.InviteUser(r.Context(), orgID, req.Email, req.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}

	writeJSON(w, http.StatusCreated, inv)
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func toMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		Role:      string(m.Role),
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
