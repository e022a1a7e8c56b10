package rest

import (
	"net/http"

	"github.com/nguyendangtritoan/german-note/internal/domain"
)

type grammarLevelResponse struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Topics []string `json:"topics"`
}

type languageResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type catalogResponse struct {
	GrammarLevels   []grammarLevelResponse `json:"grammarLevels"`
	Languages       []languageResponse     `json:"languages"`
	TargetLanguages []string               `json:"targetLanguages"`
}

// CatalogHandler serves the static grammar and language catalog.
type CatalogHandler struct {
	resp catalogResponse
}

// NewCatalogHandler creates a CatalogHandler. targetLanguages are the
// languages translations are generated for.
func NewCatalogHandler(targetLanguages []string) *CatalogHandler {
	resp := catalogResponse{TargetLanguages: append([]string{}, targetLanguages...)}
	for _, l := range domain.GrammarLevels {
		resp.GrammarLevels = append(resp.GrammarLevels, grammarLevelResponse{ID: l.ID, Title: l.Title, Topics: l.Topics})
	}
	for _, l := range domain.Languages {
		resp.Languages = append(resp.Languages, languageResponse{Code: l.Code, Name: l.Name})
	}
	return &CatalogHandler{resp: resp}
}

// Catalog handles GET /api/catalog.
func (h *CatalogHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.resp)
}
