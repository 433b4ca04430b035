package ingest

import (
	"bytes"
	"errors"
	"image"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"

	"studio/internal/domain"
)

var errUndecodable = errors.New("no decoder for preview")

// preview returns a data URI suitable for a thumbnail. Images larger than the
// preview bound are downscaled to JPEG; anything that cannot be decoded here
// (HEIC, passthrough AVIF) is previewed from its payload.
func (n *Normalizer) preview(img domain.NormalizedImage) string {
	decoded, err := decodeRaster(img.MIMEType, img.Payload)
	if err != nil {
		return img.DataURI()
	}
	b := decoded.Bounds()
	if b.Dx() <= n.previewMax && b.Dy() <= n.previewMax {
		return img.DataURI()
	}
	thumb := imaging.Fit(decoded, n.previewMax, n.previewMax, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		n.logger.Debug().Err(err).Str("id", img.ID).Msg("preview encode failed")
		return img.DataURI()
	}
	return domain.DataURI(domain.MIMEJPEG, buf.Bytes())
}

func decodeRaster(mimeType string, data []byte) (image.Image, error) {
	switch mimeType {
	case domain.MIMEWEBP:
		return webp.Decode(bytes.NewReader(data), &decoder.Options{})
	case domain.MIMEPNG, domain.MIMEJPEG:
		return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	}
	return nil, errUndecodable
}
