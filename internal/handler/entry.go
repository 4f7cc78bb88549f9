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

// EntryHandler serves /api/v1/entries.
type EntryHandler struct {
	entries   *service.EntryService
	validator *validate.Validator
	logger    *slog.Logger
}

// NewEntryHandler returns an EntryHandler. v validates create and update
// bodies.
func NewEntryHandler(entries *service.EntryService, v *validate.Validator, logger *slog.Logger) *EntryHandler {
	return &EntryHandler{entries: entries, validator: v, logger: logger}
}

// Routes mounts the entry endpoints on r.
func (h *EntryHandler) Routes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Patch("/", h.HandleUpdate)
	r.Get("/search", h.HandleSearch)
	r.Get("/filter/tag/{tag}", h.HandleFilterByTag)
	r.Get("/filter/title/{title}", h.HandleFilterByTitle)
	r.Get("/{id}", h.HandleGet)
	r.Delete("/{id}", h.HandleDelete)
}

func (h *EntryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req model.CreateEntryRequest
	if err := decodeBody(w, r, h.validator, &req); err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.entries.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *EntryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.entries.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *EntryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
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

	entry, err := h.entries.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleUpdate applies a partial update. The entry id travels in the body.
//
// HTTP: PATCH /api/v1/entries
func (h *EntryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req model.UpdateEntryRequest
	if err := decodeBody(w, r, h.validator, &req); err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.entries.Update(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *EntryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.entries.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse)
}

// HandleSearch answers 200 with an empty list when nothing matches.
//
// HTTP: GET /api/v1/entries/search?q=
func (h *EntryHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.entries.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *EntryHandler) HandleFilterByTag(w http.ResponseWriter, r *http.Request) {
	h.filter(w, r, "tag", h.entries.FilterByTag)
}

func (h *EntryHandler) HandleFilterByTitle(w http.ResponseWriter, r *http.Request) {
	h.filter(w, r, "title", h.entries.FilterByTitle)
}

type entryFilter = func(ctx context.Context, userID int64, value string) ([]model.Entry, error)

func (h *EntryHandler) filter(w http.ResponseWriter, r *http.Request, param string, fn entryFilter) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := fn(r.Context(), userID, urlParam(r, param))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
