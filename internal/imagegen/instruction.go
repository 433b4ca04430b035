package imagegen

import (
	"fmt"
	"strings"

	"studio/internal/domain"
)

// QualityClause is appended to every instruction.
const QualityClause = "High fidelity, 2K resolution, highly detailed, photorealistic, masterpiece, professional photography, sharp focus, perfect lighting."

// BuildInstruction renders the text prompt for mode. Settings are interpolated
// verbatim; empty fields simply leave their line blank.
func BuildInstruction(mode domain.Mode, productCount int, settings domain.GenerationSettings) string {
	var task, inputs, instruction string
	var mandates []string
	switch mode {
	case domain.ModeOwnModel:
		task = "Professional Virtual Try-On & Editing."
		inputs = fmt.Sprintf("The first %d images are the products. The LAST image provided is the target person.", productCount)
		instruction = "Edit the target person's photo to make them wear/use the provided products naturally and realistically."
		mandates = []string{
			"Maintain the person's identity, facial features, and body shape exactly.",
			"The clothing fold, drape, and lighting interaction must be physically accurate.",
		}
	case domain.ModeFlatLay:
		task = "Artistic Flat Lay Composition."
		inputs = "The provided images are items to be arranged."
		instruction = "Create an award-winning flat lay composition."
		mandates = []string{
			"Perfect alignment and spacing (knolling or organic balance).",
			"High-end commercial look suitable for a luxury magazine.",
		}
	default:
		task = "High-End Fashion & Product Photography."
		inputs = fmt.Sprintf("The first %d images are the products.", productCount)
		instruction = "Generate a stunning, photorealistic image of a professional model wearing these products."
		mandates = []string{
			"The model must look absolutely real with natural skin texture and perfect features.",
			"The product must be the clear hero of the shot, integrated seamlessly.",
			"Use professional studio lighting techniques (Rembrandt, Butterfly, or Softbox).",
		}
	}
	mandates = append(mandates, QualityClause)

	lines := []string{
		"Task: " + task,
		"Inputs: " + inputs,
		"Instruction: " + instruction,
		"",
		"Detailed Configuration:",
		"Subject/Model Details: " + settings.Subject,
		"Pose/Action: " + settings.Action,
		"Background/Surroundings: " + settings.Surroundings,
		"Style/Lighting: " + settings.Style,
		"",
		"Mandates:",
	}
	for _, m := range mandates {
		lines = append(lines, "- "+m)
	}
	return strings.Join(lines, "\n")
}
