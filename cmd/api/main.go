package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"studio/internal/account"
	"studio/internal/adapter/repo"
	"studio/internal/adapter/supabase"
	"studio/internal/domain"
	"studio/internal/http/handlers"
	httpapi "studio/internal/http/httpapi"
	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/infra/geoip"
	"studio/internal/infra/google"
	"studio/internal/ingest"
	"studio/internal/providers/genai"
	"studio/internal/session"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	ctx := context.Background()

	// Account backend
	var (
		identity domain.IdentityProvider
		profiles domain.ProfileStore
		keyStore *credentials.Store
	)
	switch cfg.AccountBackend {
	case infra.BackendSupabase:
		client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create supabase client")
		}
		identity = supabase.NewIdentity(client.Auth)
		profiles = supabase.NewProfileStore(client)
		logger.Info().Str("url", cfg.SupabaseURL).Msg("using supabase account backend")
	default:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		runner := infra.NewSQLRunner(pool, logger)
		identity = repo.NewIdentityRepository(runner, logger, nil)
		profiles = repo.NewProfileRepository(runner)
		keyStore = credentials.NewStore(runner)
	}

	// Sessions live in Redis when configured, otherwise in process memory.
	var store session.Store
	if cfg.RedisURL != "" {
		rdb, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb, cfg.SessionTTL)
	} else {
		logger.Warn().Msg("REDIS_URL not set, sessions are kept in memory")
		store = session.NewMemoryStore(cfg.SessionTTL)
	}

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.GeoIPDBPath).Msg("geoip disabled")
	}
	defer geo.Close()

	gwOpts := account.Options{
		Logger:       &logger,
		ProfileWait:  cfg.ProfileFetchTimeout,
		PaymentDelay: cfg.PaymentDelay,
	}
	if cfg.GoogleClientID != "" {
		verifier, err := google.NewVerifier(ctx, cfg.GoogleJWKSURL, cfg.GoogleClientID, cfg.GoogleIssuer, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load google signing keys")
		}
		defer verifier.Close()
		gwOpts.Verifier = verifier
	}
	gateway := account.NewGateway(identity, profiles, gwOpts)

	executor := genai.NewExecutor(genai.Options{
		Model:      cfg.GeminiModel,
		Timeout:    cfg.GeminiTimeout,
		RPS:        cfg.GeminiRPS,
		HTTPClient: &http.Client{Timeout: cfg.GeminiTimeout + 5*time.Second},
		Logger:     &logger,
	})

	app := &handlers.App{
		Logger:   logger,
		Accounts: gateway,
		Sessions: session.NewManager(store, session.Options{
			MaxProducts:      cfg.MaxProductImages,
			HostKeySelection: cfg.HostKeySelection,
		}),
		Normalizer:     ingest.NewNormalizer(ingest.Options{Logger: &logger}),
		Generator:      executor,
		Keys:           credentials.NewResolver(cfg.GeminiAPIKey, keyStore),
		JWTSecret:      cfg.JWTSecret,
		TokenTTL:       cfg.TokenTTL,
		CreditPolicy:   cfg.CreditPolicy,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	router := httpapi.NewRouter(app, httpapi.Config{
		JWTSecret:       cfg.JWTSecret,
		CORSOrigins:     cfg.CORSOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   geo.Lookup(),
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("backend", cfg.AccountBackend).
			Str("credit_policy", cfg.CreditPolicy).
			Bool("host_key_selection", cfg.HostKeySelection).
			Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	gateway.Wait()
	logger.Info().Msg("server stopped")
}
