package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	sdk "google.golang.org/genai"

	"studio/internal/domain"
	"studio/internal/infra"
)

// DefaultModel is the image model used when none is configured.
const DefaultModel = "gemini-3-pro-image-preview"

var (
	ErrMissingAPIKey        = errors.New("gemini api key is missing: set GEMINI_API_KEY or store one with studioctl apikey set")
	ErrUnsupportedFormat    = errors.New("unsupported image format")
	ErrNoImage              = errors.New("no image generated in the response")
	ErrProviderUnresponsive = errors.New("image provider did not respond in time")
)

// FormatError names an image type the provider does not accept.
type FormatError struct {
	MIMEType string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("Unsupported image format: %s. Please use PNG, JPEG, WEBP, or HEIC.", e.MIMEType)
}

func (e *FormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// providerTypes excludes AVIF; ingestion converts it before it gets here.
var providerTypes = map[string]struct{}{
	domain.MIMEPNG:  {},
	domain.MIMEJPEG: {},
	domain.MIMEWEBP: {},
	domain.MIMEHEIC: {},
	domain.MIMEHEIF: {},
}

// ContentGenerator is the slice of the SDK the executor calls. *sdk.Models
// satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*sdk.Content, config *sdk.GenerateContentConfig) (*sdk.GenerateContentResponse, error)
}

// ClientFactory returns a generator bound to apiKey.
type ClientFactory func(ctx context.Context, apiKey string) (ContentGenerator, error)

// Options controls how the executor is configured.
type Options struct {
	Model      string
	Timeout    time.Duration
	RPS        float64
	Burst      int
	HTTPClient *http.Client
	Logger     *infra.Logger
	Factory    ClientFactory
}

// Executor sends one composed request to Gemini and extracts the image. It
// never retries and never caches.
type Executor struct {
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	factory ClientFactory
	logger  zerolog.Logger
}

// NewExecutor constructs an executor with defaults applied.
func NewExecutor(opts Options) *Executor {
	e := &Executor{
		model:   strings.TrimSpace(opts.Model),
		timeout: opts.Timeout,
		factory: opts.Factory,
		logger:  zerolog.Nop(),
	}
	if e.model == "" {
		e.model = DefaultModel
	}
	if e.timeout <= 0 {
		e.timeout = 120 * time.Second
	}
	if opts.Logger != nil {
		e.logger = *opts.Logger
	}
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	} else {
		e.limiter = rate.NewLimiter(rate.Inf, 0)
	}
	if e.factory == nil {
		e.factory = SDKFactory(opts.HTTPClient)
	}
	return e
}

// SDKFactory builds generators backed by the Gemini API.
func SDKFactory(httpClient *http.Client) ClientFactory {
	return func(ctx context.Context, apiKey string) (ContentGenerator, error) {
		client, err := sdk.NewClient(ctx, &sdk.ClientConfig{
			APIKey:     apiKey,
			Backend:    sdk.BackendGeminiAPI,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return client.Models, nil
	}
}

// Model returns the configured model identifier.
func (e *Executor) Model() string { return e.model }

// Execute runs req once and returns the first inline image as a PNG data URI.
func (e *Executor) Execute(ctx context.Context, apiKey string, req domain.GenerationRequest) (string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}
	parts, err := buildParts(req.Parts)
	if err != nil {
		return "", err
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for provider slot: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	gen, err := e.factory(callCtx, apiKey)
	if err != nil {
		return "", err
	}
	config := &sdk.GenerateContentConfig{
		ImageConfig: &sdk.ImageConfig{
			AspectRatio: req.AspectRatio,
			ImageSize:   req.ImageSize,
		},
	}
	contents := []*sdk.Content{{Role: "user", Parts: parts}}

	start := time.Now()
	resp, err := gen.GenerateContent(callCtx, e.model, contents, config)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			e.logger.Warn().Dur("elapsed", elapsed).Str("model", e.model).Msg("gemini call timed out")
			return "", fmt.Errorf("%w after %s", ErrProviderUnresponsive, e.timeout)
		}
		e.logger.Error().Err(err).Str("model", e.model).Msg("gemini generate failed")
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	data, ok := firstInlineImage(resp)
	if !ok {
		e.logger.Warn().Str("model", e.model).Int("parts", len(parts)).Msg("gemini returned no image")
		return "", ErrNoImage
	}
	e.logger.Info().
		Str("model", e.model).
		Str("mode", string(req.Mode)).
		Int("images", req.ImageCount()).
		Dur("elapsed", elapsed).
		Msg("gemini image generated")
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

func buildParts(in []domain.Part) ([]*sdk.Part, error) {
	out := make([]*sdk.Part, 0, len(in))
	for _, p := range in {
		if !p.IsImage() {
			out = append(out, sdk.NewPartFromText(p.Text))
			continue
		}
		if _, ok := providerTypes[p.MIMEType]; !ok {
			return nil, &FormatError{MIMEType: p.MIMEType}
		}
		if len(p.Data) == 0 {
			return nil, fmt.Errorf("%w: empty %s part", domain.ErrInvalidInput, p.Role)
		}
		out = append(out, &sdk.Part{InlineData: &sdk.Blob{MIMEType: p.MIMEType, Data: p.Data}})
	}
	return out, nil
}

func firstInlineImage(resp *sdk.GenerateContentResponse) ([]byte, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, false
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return nil, false
	}
	for _, part := range content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, true
		}
	}
	return nil, false
}
