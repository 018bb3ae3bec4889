package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skywatch/solarscope/internal/model"
	"github.com/skywatch/solarscope/internal/store"
)

// Config holds runtime handler parameters set via CLI flags.
type Config struct {
	SecureCookies bool // Set Secure flag on session cookies (disable for local dev)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	config Config
}

// New creates a new Handler.
func New(s *store.Store, cfg Config) *Handler {
	return &Handler{store: s, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/signup", h.handleSignup)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/check-auth", h.handleCheckAuth)

	for _, d := range model.Domains {
		r.Get("/"+d.Name, h.handleListBodies(d))
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth, requireAdmin)
			r.Post("/"+d.Name, h.handleCreateBody(d))
			r.Put("/"+d.Name+"/{id}", h.handleUpdateBody(d))
			r.Delete("/"+d.Name+"/{id}", h.handleDeleteBody(d))
		})
	}

	r.Get("/quiz/categories", h.handleCategories)
	r.Get("/quiz/{category}", h.handleQuestions)
	r.With(h.requireAuth).Get("/quiz/results", h.handleMyResults)
	r.With(h.requireAuth).Post("/quiz/submit", h.handleSubmitQuiz)
	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth, requireAdmin)
		r.Post("/quiz", h.handleCreateQuestion)
		r.Put("/quiz/{id}", h.handleUpdateQuestion)
		r.Delete("/quiz/{id}", h.handleDeleteQuestion)
		r.Get("/admin/quiz-results", h.handleAllResults)
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError writes the {error} envelope every failure on this API carries.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
