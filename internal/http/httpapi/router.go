package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"studio/internal/http/handlers"
	"studio/internal/middleware"
)

// Config carries the router settings that do not belong to the handlers.
type Config struct {
	JWTSecret       string
	CORSOrigins     []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(cfg.CORSOrigins),
		middleware.I18N(cfg.DefaultLocale, cfg.CountryLookup),
		middleware.RateLimit(cfg.RateLimitPerMin),
	)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)
		r.Get("/modes", app.Modes)
		r.Get("/credits/packages", app.CreditPackages)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", app.Register)
			r.Post("/login", app.Login)
			r.Post("/google", app.LoginGoogle)
			r.Post("/reset", app.ResetPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(cfg.JWTSecret))
			r.Get("/me", app.Me)
			r.Post("/credits/purchase", app.Purchase)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWTSecret))
			r.Post("/", app.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.GetSession)
				r.Delete("/", app.DeleteSession)
				r.Put("/mode", app.SwitchMode)
				r.Put("/settings", app.UpdateSettings)
				r.Post("/images/{collection}", app.UploadImages)
				r.Delete("/images/{collection}/{imageID}", app.DeleteImage)
				r.Get("/api-key", app.APIKeyStatus)
				r.Post("/api-key", app.SelectAPIKey)
				r.Get("/prompt", app.PromptPreview)
				r.Post("/generate", app.Generate)
				r.Get("/result", app.DownloadResult)
			})
		})
	})

	return r
}
