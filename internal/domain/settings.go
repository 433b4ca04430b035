package domain

import "strings"

// GenerationSettings holds the four free-text fields of the settings form.
// Their meaning changes per mode; the shape does not.
type GenerationSettings struct {
	Subject      string `json:"subject"`
	Action       string `json:"action"`
	Surroundings string `json:"surroundings"`
	Style        string `json:"style"`
}

// HasDirection reports whether subject or action carries any text.
func (s GenerationSettings) HasDirection() bool {
	return strings.TrimSpace(s.Subject) != "" || strings.TrimSpace(s.Action) != ""
}

// IsZero reports whether every field is empty.
func (s GenerationSettings) IsZero() bool {
	return s == GenerationSettings{}
}
