package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devlog/internal/model"
	"github.com/sakif/devlog/internal/service"
	"github.com/sakif/devlog/internal/validate"
)

// SnippetHandler serves /api/v1/snippets. It mirrors EntryHandler and adds
// a language filter.
type SnippetHandler struct {
	snippets  *service.SnippetService
	validator *validate.Validator
	logger    *slog.Logger
}

// NewSnippetHandler returns a SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, v *validate.Validator, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, validator: v, logger: logger}
}

// Routes mounts the snippet endpoints on r.
func (h *SnippetHandler) Routes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Patch("/", h.HandleUpdate)
	r.Get("/search", h.HandleSearch)
	r.Get("/filter/tag/{tag}", h.HandleFilterByTag)
	r.Get("/filter/title/{title}", h.HandleFilterByTitle)
	r.Get("/filter/language/{language}", h.HandleFilterByLanguage)
	r.Get("/{id}", h.HandleGet)
	r.Delete("/{id}", h.HandleDelete)
}

func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req model.CreateSnippetRequest
	if err := decodeBody(w, r, h.validator, &req); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.snippets.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snippet)
}

func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snippets, err := h.snippets.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.snippets.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req model.UpdateSnippetRequest
	if err := decodeBody(w, r, h.validator, &req); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.snippets.Update(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.snippets.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse)
}

func (h *SnippetHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snippets, err := h.snippets.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

func (h *SnippetHandler) HandleFilterByTag(w http.ResponseWriter, r *http.Request) {
	h.filter(w, r, "tag", h.snippets.FilterByTag)
}

func (h *SnippetHandler) HandleFilterByTitle(w http.ResponseWriter, r *http.Request) {
	h.filter(w, r, "title", h.snippets.FilterByTitle)
}

func (h *SnippetHandler) HandleFilterByLanguage(w http.ResponseWriter, r *http.Request) {
	h.filter(w, r, "language", h.snippets.FilterByLanguage)
}

func (h *SnippetHandler) filter(w http.ResponseWriter, r *http.Request, param string,
	fn func(context.Context, int64, string) ([]model.Snippet, error),
) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snippets, err := fn(r.Context(), userID, urlParam(r, param))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}
