package domain

import (
	"encoding/base64"
	"strings"
)

// Image MIME types handled by the studio.
const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEWEBP = "image/webp"
	MIMEHEIC = "image/heic"
	MIMEHEIF = "image/heif"
	MIMEAVIF = "image/avif"
)

// Collection names the two image sets of a workspace.
type Collection string

const (
	CollectionProducts Collection = "products"
	CollectionPersons  Collection = "persons"
)

// Conversion records what ingestion did to the original payload.
type Conversion string

const (
	ConversionNone        Conversion = "none"
	ConversionConverted   Conversion = "converted"
	ConversionPassthrough Conversion = "passthrough"
)

// NormalizedImage is an ingested file reduced to a uniform record. MIMEType is
// always one of the accepted upload types.
type NormalizedImage struct {
	ID               string     `json:"id"`
	Payload          []byte     `json:"payload"`
	MIMEType         string     `json:"mime_type"`
	OriginalMIMEType string     `json:"original_mime_type"`
	Conversion       Conversion `json:"conversion"`
	Preview          string     `json:"preview"`
}

// DataURI returns the payload as a data: URI.
func (img NormalizedImage) DataURI() string {
	return DataURI(img.MIMEType, img.Payload)
}

// DataURI encodes payload as a base64 data: URI.
func DataURI(mimeType string, payload []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

// ParseDataURI splits a base64 data: URI into its MIME type and bytes.
func ParseDataURI(uri string) (string, []byte, bool) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, false
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, false
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, false
	}
	return mimeType, data, true
}
