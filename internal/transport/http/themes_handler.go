package http

import (
	"encoding/json"
	"log"
	"net/http"

	"quiz-session-service/internal/game"
)

// ThemesHandler serves the community library's theme catalog so setup screens
// can offer prebuilt quizzes.
type ThemesHandler struct {
	library game.Library
}

func NewThemesHandler(library game.Library) *ThemesHandler {
	return &ThemesHandler{library: library}
}

func (h *ThemesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	themes, err := h.library.AvailableThemes(r.Context())
	if err != nil {
		log.Printf("load themes: %v", err)
		http.Error(w, "failed to load themes", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(themes); err != nil {
		log.Printf("encode themes: %v", err)
	}
}
