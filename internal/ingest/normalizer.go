package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/gen2brain/avif"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/infra"
)

// ErrUnsupportedType is returned for files outside the accepted upload set.
var ErrUnsupportedType = errors.New("unsupported image type")

// ErrEmptyFile is returned for zero-byte uploads.
var ErrEmptyFile = errors.New("empty image file")

// acceptedTypes is the upload allow-list. AVIF is accepted for conversion.
var acceptedTypes = map[string]struct{}{
	domain.MIMEPNG:  {},
	domain.MIMEJPEG: {},
	domain.MIMEWEBP: {},
	domain.MIMEHEIC: {},
	domain.MIMEHEIF: {},
	domain.MIMEAVIF: {},
}

// File is one uploaded file with the MIME type the client declared.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Options configures a Normalizer.
type Options struct {
	Logger *infra.Logger
	// PreviewMaxDimension bounds the preview thumbnail edge. Zero uses 512.
	PreviewMaxDimension int
	// DecodeAVIF overrides the AVIF decoder.
	DecodeAVIF func(io.Reader) (image.Image, error)
	// NewID overrides the id generator.
	NewID func() string
}

// Normalizer turns uploaded files into NormalizedImage records. It performs no
// network or disk I/O.
type Normalizer struct {
	logger     zerolog.Logger
	previewMax int
	decodeAVIF func(io.Reader) (image.Image, error)
	newID      func() string
}

// NewNormalizer builds a Normalizer with defaults applied.
func NewNormalizer(opts Options) *Normalizer {
	n := &Normalizer{
		logger:     zerolog.Nop(),
		previewMax: opts.PreviewMaxDimension,
		decodeAVIF: opts.DecodeAVIF,
		newID:      opts.NewID,
	}
	if opts.Logger != nil {
		n.logger = *opts.Logger
	}
	if n.previewMax <= 0 {
		n.previewMax = 512
	}
	if n.decodeAVIF == nil {
		n.decodeAVIF = avif.Decode
	}
	if n.newID == nil {
		n.newID = uuid.NewString
	}
	return n
}

// Accepted reports whether mimeType may be uploaded.
func Accepted(mimeType string) bool {
	_, ok := acceptedTypes[canonicalType(mimeType)]
	return ok
}

func canonicalType(mimeType string) string {
	t := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	if t == "image/jpg" {
		return domain.MIMEJPEG
	}
	return t
}

// Normalize ingests one file. Non-AVIF payloads are carried verbatim. AVIF is
// re-encoded as PNG when it decodes and passed through unchanged when it does
// not.
func (n *Normalizer) Normalize(f File) (domain.NormalizedImage, error) {
	mimeType := canonicalType(f.MIMEType)
	if _, ok := acceptedTypes[mimeType]; !ok {
		return domain.NormalizedImage{}, fmt.Errorf("%w: %s", ErrUnsupportedType, f.MIMEType)
	}
	if len(f.Data) == 0 {
		return domain.NormalizedImage{}, fmt.Errorf("%w: %s", ErrEmptyFile, f.Name)
	}
	img := domain.NormalizedImage{
		ID:               n.newID(),
		Payload:          f.Data,
		MIMEType:         mimeType,
		OriginalMIMEType: mimeType,
		Conversion:       domain.ConversionNone,
	}
	if mimeType == domain.MIMEAVIF {
		converted, err := n.convertAVIF(f.Data)
		if err != nil {
			n.logger.Warn().Err(err).Str("file", f.Name).Msg("avif conversion failed, keeping original")
			img.Conversion = domain.ConversionPassthrough
		} else {
			img.Payload = converted
			img.MIMEType = domain.MIMEPNG
			img.Conversion = domain.ConversionConverted
		}
	}
	img.Preview = n.preview(img)
	return img, nil
}

func (n *Normalizer) convertAVIF(data []byte) (out []byte, err error) {
	// Decoder panics count as decode failures.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode avif: %v", r)
		}
	}()
	decoded, err := n.decodeAVIF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode avif: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, decoded); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
