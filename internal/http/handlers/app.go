package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/account"
	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/ingest"
	"studio/internal/middleware"
	"studio/internal/providers/genai"
	"studio/internal/session"
)

// Accounts is the account gateway surface used by the handlers.
type Accounts interface {
	Register(ctx context.Context, email, password, displayName, handle string) (domain.Result[domain.UserAccount], error)
	Login(ctx context.Context, email, password string) (domain.Result[domain.UserAccount], error)
	LoginWithFederated(ctx context.Context, idToken string) (domain.Result[domain.UserAccount], error)
	ResetCredential(ctx context.Context, email string) error
	FetchProfile(ctx context.Context, id string) domain.Result[*domain.UserAccount]
	CheckBalance(ctx context.Context, id string) error
	DeductCredit(ctx context.Context, id string) (domain.Result[int], error)
	PurchasePackage(ctx context.Context, id, packageID string) (domain.CreditPackage, int, error)
}

// Generator runs one composed request against the image provider.
type Generator interface {
	Execute(ctx context.Context, apiKey string, req domain.GenerationRequest) (string, error)
}

// KeyResolver returns the server-wide provider key, or "" when none is set.
type KeyResolver interface {
	GeminiAPIKey(ctx context.Context) (string, error)
}

type App struct {
	Logger         infra.Logger
	Accounts       Accounts
	Sessions       *session.Manager
	Normalizer     *ingest.Normalizer
	Generator      Generator
	Keys           KeyResolver
	JWTSecret      string
	TokenTTL       time.Duration
	CreditPolicy   string
	MaxUploadBytes int64
	Now            func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) logger() *zerolog.Logger {
	return &a.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	a.failAuth(w, r, err, "")
}

// failAuth writes the envelope for err. flow picks the wording of auth
// failures.
func (a *App) failAuth(w http.ResponseWriter, r *http.Request, err error, flow account.Flow) {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		locale := middleware.LocaleFromContext(r.Context())
		a.logger().Info().Err(err).Str("flow", string(flow)).Msg("auth failed")
		a.error(w, authStatus(authErr.Code), string(authErr.Code), account.Message(authErr.Code, flow, locale))
		return
	}

	switch {
	case errors.Is(err, genai.ErrUnsupportedFormat), errors.Is(err, ingest.ErrUnsupportedType):
		a.error(w, http.StatusUnsupportedMediaType, "unsupported_format", err.Error())
	case errors.Is(err, genai.ErrNoImage):
		a.error(w, http.StatusBadGateway, "no_image", "No image generated in the response.")
	case errors.Is(err, genai.ErrProviderUnresponsive):
		a.error(w, http.StatusGatewayTimeout, "provider_unresponsive", "The image provider did not respond in time. Please try again.")
	case errors.Is(err, genai.ErrMissingAPIKey):
		a.error(w, http.StatusServiceUnavailable, "missing_api_key", "No API key is configured for image generation.")
	case errors.Is(err, domain.ErrInsufficientCredits):
		a.error(w, http.StatusPaymentRequired, "insufficient_credits", "Insufficient credits. Please purchase more to continue.")
	case errors.Is(err, domain.ErrPrecondition):
		a.error(w, http.StatusUnprocessableEntity, "precondition_failed", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrUnavailable):
		a.logger().Warn().Err(err).Msg("backing store unavailable")
		a.error(w, http.StatusServiceUnavailable, "unavailable", "service temporarily unavailable")
	case errors.Is(err, context.Canceled):
		a.error(w, 499, "cancelled", "request cancelled")
	default:
		a.logger().Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func authStatus(code domain.AuthCode) int {
	switch code {
	case domain.AuthEmailInUse:
		return http.StatusConflict
	case domain.AuthWeakPassword, domain.AuthCancelled, domain.AuthPopupBlocked:
		return http.StatusBadRequest
	case domain.AuthSignInDisabled, domain.AuthFederatedDisabled, domain.AuthUnauthorizedDomain:
		return http.StatusForbidden
	case domain.AuthNetwork:
		return http.StatusBadGateway
	case domain.AuthNotConfigured:
		return http.StatusServiceUnavailable
	}
	return http.StatusUnauthorized
}
