package domain

import (
	"fmt"
	"strings"
)

// Mode selects one of the three generation scenarios.
type Mode string

const (
	ModeAIModel  Mode = "ai_model"
	ModeOwnModel Mode = "own_model"
	ModeFlatLay  Mode = "flat_lay"
)

// Aspect ratio directives understood by the provider.
const (
	AspectPortrait  = "3:4"
	AspectLandscape = "4:3"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeAIModel, ModeOwnModel, ModeFlatLay}

// ParseMode accepts the canonical value as well as the upper-case form used by
// older clients (AI_MODEL, OWN_MODEL, FLAT_LAY).
func ParseMode(raw string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case ModeAIModel, ModeOwnModel, ModeFlatLay:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, raw)
}

// AllowsPerson reports whether the mode takes a reference-person image.
func (m Mode) AllowsPerson() bool { return m == ModeOwnModel }

// PersonLimit returns how many reference-person images the mode accepts.
func (m Mode) PersonLimit() int {
	if m.AllowsPerson() {
		return 1
	}
	return 0
}

// AspectRatio is a pure function of the mode.
func (m Mode) AspectRatio() string {
	if m == ModeFlatLay {
		return AspectLandscape
	}
	return AspectPortrait
}

// ModeLabels carries the per-mode copy shown next to the settings form.
type ModeLabels struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Uploads      string            `json:"uploads"`
	Labels       map[string]string `json:"labels"`
	Placeholders map[string]string `json:"placeholders"`
}

// Labels returns the form copy for the mode.
func (m Mode) Labels() ModeLabels {
	switch m {
	case ModeOwnModel:
		return ModeLabels{
			Title:       "Virtual Try-On",
			Description: "Upload your own model photo and dress them in your products.",
			Uploads:     "Product Images",
			Labels: map[string]string{
				"subject":      "Styling & Fit Instructions",
				"action":       "Expression Adjustments",
				"surroundings": "Background Changes (Optional)",
				"style":        "Lighting & Color Grading",
			},
			Placeholders: map[string]string{
				"subject":      "e.g. Loose fit shirt, tucked in...",
				"action":       "e.g. Keep original expression, look at camera...",
				"surroundings": "e.g. Keep original background, or change to white...",
				"style":        "e.g. Natural lighting, match product lighting...",
			},
		}
	case ModeFlatLay:
		return ModeLabels{
			Title:       "Flat Lay Studio",
			Description: "Create artistic flat lay compositions of your items.",
			Uploads:     "Item Images",
			Labels: map[string]string{
				"subject":      "Arrangement Style",
				"action":       "Composition Focus",
				"surroundings": "Surface Material",
				"style":        "Props & Lighting",
			},
			Placeholders: map[string]string{
				"subject":      "e.g. Knolling, Organized Grid, Organic Scatter...",
				"action":       "e.g. Hero item in center, accessories surrounding...",
				"surroundings": "e.g. White Marble, Wooden Table, Pastel Background...",
				"style":        "e.g. Soft Daylight, Hard Shadows, Minimalist Props...",
			},
		}
	default:
		return ModeLabels{
			Title:       "AI Model Generator",
			Description: "Generate a professional AI model wearing your products.",
			Uploads:     "Product Images",
			Labels: map[string]string{
				"subject":      "Model Details",
				"action":       "Pose & Expression",
				"surroundings": "Background Setting",
				"style":        "Lighting & Mood",
			},
			Placeholders: map[string]string{
				"subject":      "e.g. Young woman, blonde hair, professional look...",
				"action":       "e.g. Walking towards camera, confident expression...",
				"surroundings": "e.g. Urban street, blurred city background...",
				"style":        "e.g. Golden hour, cinematic lighting, soft focus...",
			},
		}
	}
}
