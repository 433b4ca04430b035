package domain

// PartRole tags what a request part stands for. The provider itself only sees
// positions, so composers must keep products first, then the person, then the
// instruction.
type PartRole string

const (
	RoleProduct         PartRole = "product"
	RoleReferencePerson PartRole = "reference_person"
	RoleInstruction     PartRole = "instruction"
)

// Part is either inline image data or text.
type Part struct {
	Role     PartRole
	MIMEType string
	Data     []byte
	Text     string
}

// IsImage reports whether the part stands for an image. Every role other than
// the instruction does, whatever its payload.
func (p Part) IsImage() bool { return p.Role != RoleInstruction }

// GenerationRequest is the ordered multimodal request handed to the executor.
type GenerationRequest struct {
	Mode        Mode
	Parts       []Part
	AspectRatio string
	ImageSize   string
}

// Prompt returns the instruction text, which is always the last part.
func (r GenerationRequest) Prompt() string {
	if len(r.Parts) == 0 {
		return ""
	}
	return r.Parts[len(r.Parts)-1].Text
}

// ImageCount returns the number of image parts.
func (r GenerationRequest) ImageCount() int {
	n := 0
	for _, p := range r.Parts {
		if p.IsImage() {
			n++
		}
	}
	return n
}
