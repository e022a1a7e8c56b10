package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nguyendangtritoan/german-note/internal/domain"
	"github.com/nguyendangtritoan/german-note/internal/service/workspace"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error  string          `json:"error"`
	Fields []fieldResponse `json:"fields,omitempty"`
}

type fieldResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// handleError maps a service error to a status code and writes it.
func handleError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError

	switch {
	case errors.As(err, &ve):
		resp := errorResponse{Error: "validation failed"}
		for _, fe := range ve.Errors {
			resp.Fields = append(resp.Fields, fieldResponse{Field: fe.Field, Message: fe.Message})
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrCredentialConflict):
		writeError(w, http.StatusConflict, "credential already bound to another identity")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrBusy):
		writeError(w, http.StatusConflict, "a search is already in progress")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	case errors.Is(err, domain.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "too many pending searches")
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "generation timed out")
	case errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrMalformedResponse):
		log.WarnContext(r.Context(), "generation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "generation failed")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful can be written.
	default:
		log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

type principalPartsResponse struct {
	Present     string `json:"present,omitempty"`
	Past        string `json:"past,omitempty"`
	Perfect     string `json:"perfect,omitempty"`
	Subjunctive string `json:"subjunctive,omitempty"`
	Summary     string `json:"summary,omitempty"`
}

type wordResponse struct {
	ID             string                  `json:"id"`
	Original       string                  `json:"original"`
	WordClass      string                  `json:"wordClass"`
	Article        *string                 `json:"article,omitempty"`
	Plural         *string                 `json:"plural,omitempty"`
	PrincipalParts *principalPartsResponse `json:"principalParts,omitempty"`
	Translations   map[string]string       `json:"translations"`
	Example        string                  `json:"example"`
	GrammarFocus   *string                 `json:"grammarFocus,omitempty"`
	Timestamp      time.Time               `json:"timestamp"`
}

type viewResponse struct {
	Live     bool   `json:"live"`
	BundleID string `json:"bundleId,omitempty"`
}

type sessionResponse struct {
	IdentityID     string         `json:"identityId"`
	Anonymous      bool           `json:"anonymous"`
	Resolving      bool           `json:"resolving"`
	Busy           bool           `json:"busy"`
	View           viewResponse   `json:"view"`
	Words          []wordResponse `json:"words"`
	Queued         int            `json:"queued"`
	BundlesChanged bool           `json:"bundlesChanged"`
	Version        uint64         `json:"version"`
}

type bundleSummaryResponse struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	LastUpdated time.Time `json:"lastUpdated"`
	WordCount   int       `json:"wordCount"`
}

type bundleResponse struct {
	bundleSummaryResponse
	Words []wordResponse `json:"words"`
}

func toWordResponse(e domain.WordEntry) wordResponse {
	resp := wordResponse{
		ID:           e.ID.String(),
		Original:     e.Original,
		WordClass:    e.WordClass,
		Article:      e.Article,
		Plural:       e.Plural,
		Translations: e.Translations,
		Example:      e.Example,
		GrammarFocus: e.GrammarFocus,
		Timestamp:    e.Timestamp,
	}
	if resp.Translations == nil {
		resp.Translations = map[string]string{}
	}
	if pp := e.PrincipalParts; pp != nil && !pp.IsEmpty() {
		resp.PrincipalParts = &principalPartsResponse{
			Present:     pp.Present,
			Past:        pp.Past,
			Perfect:     pp.Perfect,
			Subjunctive: pp.Subjunctive,
			Summary:     pp.Summary,
		}
	}
	return resp
}

func toWordsResponse(words domain.Session) []wordResponse {
	out := make([]wordResponse, 0, len(words))
	for _, w := range words {
		out = append(out, toWordResponse(w))
	}
	return out
}

func toViewResponse(v domain.View) viewResponse {
	return viewResponse{Live: v.IsLive(), BundleID: v.BundleID}
}

func toSessionResponse(s workspace.Snapshot) sessionResponse {
	return sessionResponse{
		IdentityID:     s.IdentityID.String(),
		Anonymous:      s.Anonymous,
		Resolving:      s.Resolving,
		Busy:           s.Busy,
		View:           toViewResponse(s.View),
		Words:          toWordsResponse(s.Words),
		Queued:         s.Queued,
		BundlesChanged: s.BundlesChanged,
		Version:        s.Version,
	}
}

func toBundleSummary(b *domain.Bundle) bundleSummaryResponse {
	return bundleSummaryResponse{
		ID:          b.ID,
		CreatedAt:   b.CreatedAt,
		LastUpdated: b.LastUpdated,
		WordCount:   b.WordCount,
	}
}

func toBundleResponse(b *domain.Bundle) bundleResponse {
	return bundleResponse{
		bundleSummaryResponse: toBundleSummary(b),
		Words:                 toWordsResponse(b.Words),
	}
}
