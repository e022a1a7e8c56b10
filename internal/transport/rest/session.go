package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/internal/domain"
	"github.com/nguyendangtritoan/german-note/internal/service/workspace"
	"github.com/nguyendangtritoan/german-note/pkg/ctxutil"
)

// maxQueryRunes bounds the length of a search query.
const maxQueryRunes = 100

// Workspace is the per-identity surface driven by WorkspaceHandler.
type Workspace interface {
	Snapshot() workspace.Snapshot
	Subscribe() (<-chan workspace.Snapshot, func())
	Search(ctx context.Context, query string, focus *string) (workspace.SearchResult, error)
	RegenerateExample(ctx context.Context, wordID uuid.UUID) (*domain.WordEntry, error)
	DeleteWord(ctx context.Context, wordID uuid.UUID) error
	Archive(ctx context.Context) (string, error)
	ListBundles(ctx context.Context) ([]*domain.Bundle, error)
	GetBundle(ctx context.Context, id string) (*domain.Bundle, error)
	DeleteBundle(ctx context.Context, id string) error
	RemoveWordFromBundle(ctx context.Context, bundleID string, wordID uuid.UUID) error
	OpenBundle(ctx context.Context, id string) (domain.View, error)
	OpenLive(ctx context.Context) (domain.View, error)
}

// WorkspaceFunc returns the workspace of an identity, creating it on first use.
type WorkspaceFunc func(ctx context.Context, identityID uuid.UUID) Workspace

// WorkspaceHandler serves the session, search and bundle endpoints. Every
// route requires an authenticated identity.
type WorkspaceHandler struct {
	workspaces WorkspaceFunc
	log        *slog.Logger
}

// NewWorkspaceHandler creates a WorkspaceHandler.
func NewWorkspaceHandler(workspaces WorkspaceFunc, logger *slog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces, log: logger.With("handler", "workspace")}
}

func (h *WorkspaceHandler) workspace(r *http.Request) Workspace {
	identityID, _ := ctxutil.IdentityIDFromCtx(r.Context())
	return h.workspaces(r.Context(), identityID)
}

type searchRequest struct {
	Query        string  `json:"query"`
	GrammarFocus *string `json:"grammarFocus"`
}

func (req searchRequest) validate() error {
	var errs []domain.FieldError

	if utf8.RuneCountInString(strings.TrimSpace(req.Query)) > maxQueryRunes {
		errs = append(errs, domain.FieldError{Field: "query", Message: "too long"})
	}
	if req.GrammarFocus != nil {
		focus := strings.TrimSpace(*req.GrammarFocus)
		if focus != "" && !domain.IsGrammarTopic(focus) {
			errs = append(errs, domain.FieldError{Field: "grammarFocus", Message: "unknown grammar topic"})
		}
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

type searchResponse struct {
	Outcome  workspace.Outcome `json:"outcome"`
	Entry    *wordResponse     `json:"entry,omitempty"`
	Position int               `json:"position,omitempty"`
}

type viewRequest struct {
	BundleID string `json:"bundleId"`
}

// Session handles GET /api/session.
func (h *WorkspaceHandler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSessionResponse(h.workspace(r).Snapshot()))
}

// Search handles POST /api/search. A query received before the identity is
// bound is queued and answered with 202.
func (h *WorkspaceHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	result, err := h.workspace(r).Search(r.Context(), req.Query, req.GrammarFocus)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := searchResponse{Outcome: result.Outcome, Position: result.Position}
	if result.Entry != nil {
		entry := toWordResponse(*result.Entry)
		resp.Entry = &entry
	}

	status := http.StatusOK
	if result.Outcome == workspace.OutcomeQueued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

// RegenerateExample handles POST /api/words/{id}/regenerate.
func (h *WorkspaceHandler) RegenerateExample(w http.ResponseWriter, r *http.Request) {
	wordID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	entry, err := h.workspace(r).RegenerateExample(r.Context(), wordID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toWordResponse(*entry))
}

// DeleteWord handles DELETE /api/words/{id}.
func (h *WorkspaceHandler) DeleteWord(w http.ResponseWriter, r *http.Request) {
	wordID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.workspace(r).DeleteWord(r.Context(), wordID); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Archive handles POST /api/archive.
func (h *WorkspaceHandler) Archive(w http.ResponseWriter, r *http.Request) {
	bundleID, err := h.workspace(r).Archive(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"bundleId": bundleID})
}

// ListBundles handles GET /api/bundles.
func (h *WorkspaceHandler) ListBundles(w http.ResponseWriter, r *http.Request) {
	bundles, err := h.workspace(r).ListBundles(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]bundleSummaryResponse, 0, len(bundles))
	for _, b := range bundles {
		out = append(out, toBundleSummary(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bundles": out})
}

// GetBundle handles GET /api/bundles/{id}.
func (h *WorkspaceHandler) GetBundle(w http.ResponseWriter, r *http.Request) {
	b, err := h.workspace(r).GetBundle(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBundleResponse(b))
}

// DeleteBundle handles DELETE /api/bundles/{id}.
func (h *WorkspaceHandler) DeleteBundle(w http.ResponseWriter, r *http.Request) {
	if err := h.workspace(r).DeleteBundle(r.Context(), r.PathValue("id")); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveBundleWord handles DELETE /api/bundles/{id}/words/{wordID}.
func (h *WorkspaceHandler) RemoveBundleWord(w http.ResponseWriter, r *http.Request) {
	wordID, ok := pathUUID(w, r, "wordID")
	if !ok {
		return
	}

	if err := h.workspace(r).RemoveWordFromBundle(r.Context(), r.PathValue("id"), wordID); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetView handles PUT /api/view. An empty bundleId switches back to the
// live session.
func (h *WorkspaceHandler) SetView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ws := h.workspace(r)
	var (
		view domain.View
		err  error
	)
	if id := strings.TrimSpace(req.BundleID); id != "" {
		view, err = ws.OpenBundle(r.Context(), id)
	} else {
		view, err = ws.OpenLive(r.Context())
	}
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toViewResponse(view))
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
