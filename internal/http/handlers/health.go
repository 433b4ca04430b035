package handlers

import (
	"net/http"

	"studio/internal/domain"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

type modeDTO struct {
	ID          domain.Mode `json:"id"`
	AspectRatio string      `json:"aspect_ratio"`
	TakesPerson bool        `json:"takes_person"`
	domain.ModeLabels
}

// Modes lists the generation modes with their form copy.
func (a *App) Modes(w http.ResponseWriter, r *http.Request) {
	out := make([]modeDTO, 0, len(domain.Modes))
	for _, m := range domain.Modes {
		out = append(out, modeDTO{
			ID:          m,
			AspectRatio: m.AspectRatio(),
			TakesPerson: m.AllowsPerson(),
			ModeLabels:  m.Labels(),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}
