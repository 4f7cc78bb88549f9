package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/devlog/internal/metagen"
	"github.com/sakif/devlog/internal/model"
	"github.com/sakif/devlog/internal/validate"
)

// AutogenHandler serves /api/autogen/{title,description,tags}.
type AutogenHandler struct {
	gen       *metagen.Service
	validator *validate.Validator
	logger    *slog.Logger
}

func NewAutogenHandler(gen *metagen.Service, v *validate.Validator, logger *slog.Logger) *AutogenHandler {
	return &AutogenHandler{gen: gen, validator: v, logger: logger}
}

func (h *AutogenHandler) HandleTitle(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, "title", h.gen.Title)
}

func (h *AutogenHandler) HandleDescription(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, "description", h.gen.Description)
}

func (h *AutogenHandler) HandleTags(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, "tags", h.gen.Tags)
}

// generate answers {key: text} on success.
func (h *AutogenHandler) generate(w http.ResponseWriter, r *http.Request, key string,
	fn func(context.Context, model.GenerateRequest) (string, error),
) {
	var req model.GenerateRequest
	if err := decodeBody(w, r, h.validator, &req); err != nil {
		writeError(w, err)
		return
	}

	text, err := fn(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{key: text})
}
