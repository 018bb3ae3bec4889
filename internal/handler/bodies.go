package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/skywatch/solarscope/internal/model"
)

// One handler set serves all three collections; the domain config carries
// everything that differs between them.

func (h *Handler) handleListBodies(d model.Domain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bodies, err := h.store.ListBodies(d)
		if err != nil {
			slog.Error("failed to list records", "domain", d.Name, "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if bodies == nil {
			bodies = []model.Body{}
		}
		respondJSON(w, http.StatusOK, bodies)
	}
}

func (h *Handler) handleCreateBody(d model.Domain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b model.Body
		if err := decodeJSON(r, &b); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		dropUnknownFields(d, &b)
		id, err := h.store.InsertBody(d, b)
		if err != nil {
			slog.Error("failed to create record", "domain", d.Name, "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		slog.Info("created record", "domain", d.Name, "id", id)
		respondJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
	}
}

func (h *Handler) handleUpdateBody(d model.Domain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordID(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid id")
			return
		}
		var b model.Body
		if err := decodeJSON(r, &b); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		dropUnknownFields(d, &b)
		if err := h.store.UpdateBody(d, id, b); err != nil {
			slog.Error("failed to update record", "domain", d.Name, "id", id, "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func (h *Handler) handleDeleteBody(d model.Domain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordID(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid id")
			return
		}
		if err := h.store.DeleteBody(d, id); err != nil {
			slog.Error("failed to delete record", "domain", d.Name, "id", id, "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		slog.Info("deleted record", "domain", d.Name, "id", id)
		respondJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func recordID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// dropUnknownFields keeps only attributes that belong to the domain schema.
func dropUnknownFields(d model.Domain, b *model.Body) {
	for k := range b.Attrs {
		if !d.HasField(k) {
			delete(b.Attrs, k)
		}
	}
}
