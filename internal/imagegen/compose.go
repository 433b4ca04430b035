package imagegen

import "studio/internal/domain"

// ImageSize is the resolution directive sent with every request.
const ImageSize = "2K"

// Compose turns the workspace inputs into an ordered generation request:
// products in upload order, then the reference person (try-on only), then the
// instruction text. It never validates; the caller gates on
// Workspace.CanGenerate.
func Compose(mode domain.Mode, products []domain.NormalizedImage, person *domain.NormalizedImage, settings domain.GenerationSettings) domain.GenerationRequest {
	parts := make([]domain.Part, 0, len(products)+2)
	for _, img := range products {
		parts = append(parts, domain.Part{Role: domain.RoleProduct, MIMEType: img.MIMEType, Data: img.Payload})
	}
	if mode.AllowsPerson() && person != nil {
		parts = append(parts, domain.Part{Role: domain.RoleReferencePerson, MIMEType: person.MIMEType, Data: person.Payload})
	}
	parts = append(parts, domain.Part{
		Role: domain.RoleInstruction,
		Text: BuildInstruction(mode, len(products), settings),
	})
	return domain.GenerationRequest{
		Mode:        mode,
		Parts:       parts,
		AspectRatio: mode.AspectRatio(),
		ImageSize:   ImageSize,
	}
}

// ComposeWorkspace composes from a session workspace.
func ComposeWorkspace(w domain.Workspace) domain.GenerationRequest {
	return Compose(w.Mode, w.Products, w.Person(), w.Settings)
}
