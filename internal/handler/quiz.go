package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/skywatch/solarscope/internal/model"
)

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories()
	if err != nil {
		slog.Error("failed to list categories", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if categories == nil {
		categories = []string{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	questions, err := h.store.ListQuestions(category)
	if err != nil {
		slog.Error("failed to list questions", "category", category, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	respondJSON(w, http.StatusOK, questions)
}

func (h *Handler) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var in model.QuestionInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if err := in.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	id, err := h.store.InsertQuestion(in)
	if err != nil {
		slog.Error("failed to create question", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("created question", "id", id, "category", in.Category)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"id":       id,
		"question": in.Shape(id),
	})
}

func (h *Handler) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in model.QuestionInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if err := in.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if err := h.store.UpdateQuestion(id, in); err != nil {
		slog.Error("failed to update question", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"question": in.Shape(id),
	})
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.store.DeleteQuestion(id); err != nil {
		slog.Error("failed to delete question", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("deleted question", "id", id)
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitRequest
	if err := decodeJSON(r, &req); err != nil || req.Category == "" || req.Answers == nil {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	user := model.UserFromContext(r.Context())
	correct, err := h.store.CorrectAnswers(req.Category)
	if err != nil {
		slog.Error("failed to load answers", "category", req.Category, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Score against the stored answer key; unknown question IDs count for
	// nothing, and total is the size of the category, not of the submission.
	score := 0
	for idStr, chosen := range req.Answers {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		if key, ok := correct[id]; ok && key == chosen {
			score++
		}
	}
	total := len(correct)

	if _, err := h.store.InsertResult(user.ID, req.Category, score, total); err != nil {
		slog.Error("failed to store result", "user", user.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("stored quiz result", "user", user.ID, "category", req.Category, "score", score, "total", total)

	respondJSON(w, http.StatusOK, model.SubmitResponse{
		Score:      score,
		Total:      total,
		Percentage: model.Percentage(score, total),
		Category:   req.Category,
	})
}

func (h *Handler) handleMyResults(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	results, err := h.store.ListUserResults(user.ID)
	if err != nil {
		slog.Error("failed to list results", "user", user.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if results == nil {
		results = []model.Result{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user":    map[string]string{"username": user.Username, "email": user.Email},
		"results": results,
	})
}

func (h *Handler) handleAllResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.ListAllResults()
	if err != nil {
		slog.Error("failed to list all results", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if results == nil {
		results = []model.Result{}
	}
	respondJSON(w, http.StatusOK, results)
}
