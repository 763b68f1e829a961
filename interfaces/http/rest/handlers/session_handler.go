package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"specmap/application/ports"
	"specmap/application/session"
	"specmap/application/suggestion"
	"specmap/domain/chat"
	"specmap/domain/spec"
	"specmap/pkg/common"
	"specmap/pkg/errors"
	"specmap/pkg/observability"
	"specmap/pkg/utils"
)

const maxRequestBody = 1 << 20 // 1MB

// SessionHandler exposes the editing session API: creating and resuming
// sessions, the chat turn loop, and the approval workflow.
type SessionHandler struct {
	manager *session.Manager
	tracer  *observability.Tracer
	logger  *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(manager *session.Manager, tracer *observability.Tracer, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		manager: manager,
		tracer:  tracer,
		logger:  logger,
	}
}

// CreateSessionRequest represents the request body for creating a session
type CreateSessionRequest struct {
	TemplateID string `json:"templateId,omitempty" validate:"omitempty,max=50"`
	Title      string `json:"title,omitempty" validate:"omitempty,max=200"`
	FolderID   string `json:"folderId,omitempty" validate:"omitempty,max=100"`
}

// UpdateSessionRequest represents the request body for updating session details
type UpdateSessionRequest struct {
	Title    string `json:"title,omitempty" validate:"omitempty,max=200"`
	FolderID string `json:"folderId,omitempty" validate:"omitempty,max=100"`
}

// SendMessageRequest represents the request body for a chat turn
type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// MoveNodeRequest represents the request body for repositioning a node
type MoveNodeRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SessionView is the full session state returned to the client.
type SessionView struct {
	ID       string                    `json:"id"`
	Title    string                    `json:"title"`
	State    string                    `json:"state"`
	Graph    spec.Snapshot             `json:"graph"`
	Messages []chat.Message            `json:"messages"`
	Pending  []suggestion.ProposedEdit `json:"pendingSuggestions,omitempty"`
	Metrics  interface{}               `json:"progress"`
}

func sessionView(c *session.Controller) SessionView {
	return SessionView{
		ID:       c.SessionID(),
		Title:    c.Title(),
		State:    string(c.State()),
		Graph:    c.Snapshot(),
		Messages: c.Messages(),
		Pending:  c.Pending(),
		Metrics:  c.Metrics(),
	}
}

// CreateSession handles POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := common.ParseJSONBody(w, r, &req, maxRequestBody); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	ctrl, err := h.manager.StartNew(r.Context(), req.TemplateID, req.Title, req.FolderID)
	if err != nil {
		h.logger.Error("failed to start session", zap.Error(err))
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, sessionView(ctrl))
}

// ListSessions handles GET /sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	filter := listFilterFromQuery(r)
	summaries, err := h.manager.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list sessions", zap.Error(err))
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": summaries,
		"total":    len(summaries),
	})
}

// GetSession handles GET /sessions/{sessionID}, resuming the session.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	ctrl, err := h.manager.Open(r.Context(), sessionID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, sessionView(ctrl))
}

// UpdateSession handles PUT /sessions/{sessionID}, renaming the project
// or moving it to another folder.
func (h *SessionHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var req UpdateSessionRequest
	if err := common.ParseJSONBody(w, r, &req, maxRequestBody); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	ctrl, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if err := ctrl.UpdateDetails(r.Context(), req.Title, req.FolderID); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, sessionView(ctrl))
}

// DeleteSession handles DELETE /sessions/{sessionID}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.manager.Delete(r.Context(), sessionID); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"id": sessionID, "status": "deleted"})
}

// SendMessage handles POST /sessions/{sessionID}/messages. When the
// client accepts text/event-stream the assistant reply is streamed
// word by word before the final result event.
func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := common.ParseJSONBody(w, r, &req, maxRequestBody); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	ctrl, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Accept") == "text/event-stream" {
		h.streamMessage(w, r, ctrl, req.Content)
		return
	}

	var result *session.TurnResult
	err := h.tracer.TraceTurn(r.Context(), ctrl.SessionID(), func(ctx context.Context) error {
		var terr error
		result, terr = ctrl.SendMessage(ctx, req.Content, nil)
		return terr
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// streamMessage delivers the reply over SSE: one "token" event per
// chunk, then a terminal "result" event with the full turn outcome.
func (h *SessionHandler) streamMessage(w http.ResponseWriter, r *http.Request, ctrl *session.Controller, content string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	result, err := ctrl.SendMessage(r.Context(), content, func(token string) {
		fmt.Fprintf(w, "event: token\ndata: %q\n\n", token)
		flusher.Flush()
	})
	if err != nil {
		fmt.Fprintf(w, "event: error\ndata: %q\n\n", err.Error())
		flusher.Flush()
		return
	}

	payload, merr := encodeJSON(result)
	if merr != nil {
		h.logger.Error("failed to encode turn result", zap.Error(merr))
		return
	}
	fmt.Fprintf(w, "event: result\ndata: %s\n\n", payload)
	flusher.Flush()
}

// ApproveSuggestions handles POST /sessions/{sessionID}/suggestions/approve
func (h *SessionHandler) ApproveSuggestions(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.resolve(w, r)
	if !ok {
		return
	}

	outcome, err := ctrl.Approve(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"outcome": outcome,
		"session": sessionView(ctrl),
	})
}

// RejectSuggestions handles POST /sessions/{sessionID}/suggestions/reject
func (h *SessionHandler) RejectSuggestions(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if err := ctrl.Reject(r.Context()); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, sessionView(ctrl))
}

// MoveNode handles PUT /sessions/{sessionID}/nodes/{nodeID}/position
func (h *SessionHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	var req MoveNodeRequest
	if err := common.ParseJSONBody(w, r, &req, maxRequestBody); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctrl, ok := h.resolve(w, r)
	if !ok {
		return
	}

	nodeID := chi.URLParam(r, "nodeID")
	if err := ctrl.MoveNode(nodeID, spec.Position{X: req.X, Y: req.Y}); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"id": nodeID, "status": "moved"})
}

// GetProgress handles GET /sessions/{sessionID}/progress
func (h *SessionHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.resolve(w, r)
	if !ok {
		return
	}
	common.RespondJSON(w, http.StatusOK, ctrl.Metrics())
}

// resolve opens the session named in the URL, writing the error response
// when it cannot be found.
func (h *SessionHandler) resolve(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Session ID is required")
		return nil, false
	}
	ctrl, err := h.manager.Open(r.Context(), sessionID)
	if err != nil {
		if errors.IsNotFound(err) {
			common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Session not found")
		} else {
			common.RespondAppError(w, err)
		}
		return nil, false
	}
	return ctrl, true
}

func listFilterFromQuery(r *http.Request) ports.ListFilter {
	return ports.ListFilter{
		FolderID: r.URL.Query().Get("folderId"),
	}
}

func encodeJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
