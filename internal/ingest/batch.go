package ingest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"studio/internal/domain"
)

// Batch ingests files into an existing collection. Only the first
// max-len(existing) files are considered; unsupported files among them are
// skipped. Accepted files are normalized concurrently and appended in input
// order once all of them are done, so the collection changes in one step.
func (n *Normalizer) Batch(ctx context.Context, existing []domain.NormalizedImage, files []File, max int) ([]domain.NormalizedImage, error) {
	remaining := max - len(existing)
	if remaining <= 0 || len(files) == 0 {
		return existing, nil
	}
	if len(files) > remaining {
		files = files[:remaining]
	}

	results := make([]*domain.NormalizedImage, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		if !Accepted(f.MIMEType) {
			n.logger.Debug().Str("file", f.Name).Str("mime", f.MIMEType).Msg("skipping unsupported upload")
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := n.Normalize(f)
			if err != nil {
				n.logger.Debug().Err(err).Str("file", f.Name).Msg("skipping upload")
				return nil
			}
			results[i] = &img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return existing, err
	}

	out := make([]domain.NormalizedImage, 0, len(existing)+len(files))
	out = append(out, existing...)
	for _, img := range results {
		if img != nil {
			out = append(out, *img)
		}
	}
	return out, nil
}
