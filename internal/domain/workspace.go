package domain

import (
	"fmt"
	"time"
)

// Per-collection defaults.
const (
	DefaultMaxProductImages = 5
	MaxPersonImages         = 1
)

// GeneratedImage is the last image produced for a workspace.
type GeneratedImage struct {
	DataURI     string    `json:"data_uri"`
	Mode        Mode      `json:"mode"`
	AspectRatio string    `json:"aspect_ratio"`
	CreatedAt   time.Time `json:"created_at"`
}

// Workspace is the studio state of one session: the active mode, the settings
// form, both image collections and the last result.
type Workspace struct {
	Mode        Mode               `json:"mode"`
	Settings    GenerationSettings `json:"settings"`
	Products    []NormalizedImage  `json:"products"`
	Persons     []NormalizedImage  `json:"persons"`
	Result      *GeneratedImage    `json:"result,omitempty"`
	MaxProducts int                `json:"max_products"`
}

// NewWorkspace starts in model-generation mode.
func NewWorkspace(maxProducts int) Workspace {
	if maxProducts <= 0 {
		maxProducts = DefaultMaxProductImages
	}
	return Workspace{Mode: ModeAIModel, MaxProducts: maxProducts}
}

// SwitchMode activates m, resetting the settings form and the last result.
// The reference-person collection survives only when m is try-on.
func (w *Workspace) SwitchMode(m Mode) {
	w.Mode = m
	w.Settings = GenerationSettings{}
	w.Result = nil
	if !m.AllowsPerson() {
		w.Persons = nil
	}
}

// Limit returns the maximum size of collection c under the active mode.
func (w *Workspace) Limit(c Collection) int {
	if c == CollectionPersons {
		return w.Mode.PersonLimit()
	}
	if w.MaxProducts <= 0 {
		return DefaultMaxProductImages
	}
	return w.MaxProducts
}

// Images returns collection c.
func (w *Workspace) Images(c Collection) []NormalizedImage {
	if c == CollectionPersons {
		return w.Persons
	}
	return w.Products
}

// SetImages replaces collection c.
func (w *Workspace) SetImages(c Collection, images []NormalizedImage) {
	if c == CollectionPersons {
		w.Persons = images
		return
	}
	w.Products = images
}

// RemoveImage drops the image with id from collection c.
func (w *Workspace) RemoveImage(c Collection, id string) bool {
	images := w.Images(c)
	for i, img := range images {
		if img.ID == id {
			out := make([]NormalizedImage, 0, len(images)-1)
			out = append(out, images[:i]...)
			out = append(out, images[i+1:]...)
			w.SetImages(c, out)
			return true
		}
	}
	return false
}

// Person returns the reference-person image, if any.
func (w *Workspace) Person() *NormalizedImage {
	if len(w.Persons) == 0 {
		return nil
	}
	p := w.Persons[0]
	return &p
}

// CanGenerate checks the conditions under which the generate action is
// enabled.
func (w *Workspace) CanGenerate() error {
	switch {
	case len(w.Products) == 0:
		return fmt.Errorf("%w: at least one product image is required", ErrPrecondition)
	case w.Mode.AllowsPerson() && len(w.Persons) != 1:
		return fmt.Errorf("%w: a target model image is required", ErrPrecondition)
	case !w.Settings.HasDirection():
		return fmt.Errorf("%w: describe the subject or the action", ErrPrecondition)
	}
	return nil
}

// ParseCollection validates a collection name.
func ParseCollection(raw string) (Collection, error) {
	switch Collection(raw) {
	case CollectionProducts, CollectionPersons:
		return Collection(raw), nil
	}
	return "", fmt.Errorf("%w: unknown collection %q", ErrInvalidInput, raw)
}
