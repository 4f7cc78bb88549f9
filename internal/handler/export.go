package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/devlog/internal/export"
	"github.com/sakif/devlog/internal/service"
)

// ExportHandler serves records as file downloads.
type ExportHandler struct {
	entries  *service.EntryService
	snippets *service.SnippetService
	logger   *slog.Logger
}

func NewExportHandler(entries *service.EntryService, snippets *service.SnippetService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{entries: entries, snippets: snippets, logger: logger}
}

// Entry returns the handler for GET /api/export-entry-{format}/{id}.
func (h *ExportHandler) Entry(format export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
		doc, err := export.Entry(entry, format)
		if err != nil {
			writeError(w, err)
			return
		}
		h.writeDocument(w, doc)
	}
}

// Snippet returns the handler for GET /api/export-snippet-{format}/{id}.
func (h *ExportHandler) Snippet(format export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
		doc, err := export.Snippet(snippet, format)
		if err != nil {
			writeError(w, err)
			return
		}
		h.writeDocument(w, doc)
	}
}

func (h *ExportHandler) writeDocument(w http.ResponseWriter, doc *export.Document) {
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Body); err != nil {
		h.logger.Warn("writing export body", slog.String("error", err.Error()))
	}
}
