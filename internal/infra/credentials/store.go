package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// ProviderGemini names the integration_tokens row for the image provider.
const ProviderGemini = "gemini"

// Store keeps provider API keys in integration_tokens.
type Store struct {
	sql infra.SQLExecutor
	now func() time.Time
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql, now: time.Now}
}

func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGemini)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetGeminiAPIKey stores key and records who set it.
func (s *Store) SetGeminiAPIKey(ctx context.Context, key, setBy string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	return s.upsert(ctx, ProviderGemini, key, map[string]any{
		"set_by": strings.TrimSpace(setBy),
		"set_at": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}

// storedKeyTTL bounds how long a key stored with studioctl takes to reach a
// running server.
const storedKeyTTL = time.Minute

// Resolver picks the server-wide Gemini key: the configured one when present,
// otherwise the stored one.
type Resolver struct {
	configured string
	store      *Store
	cache      *cache.Cache
}

// NewResolver builds a Resolver. store may be nil when no database is wired.
func NewResolver(configured string, store *Store) *Resolver {
	return &Resolver{
		configured: strings.TrimSpace(configured),
		store:      store,
		cache:      cache.New(storedKeyTTL, 2*storedKeyTTL),
	}
}

// GeminiAPIKey returns an empty string when no key is available anywhere.
// Lookup failures are not cached.
func (r *Resolver) GeminiAPIKey(ctx context.Context) (string, error) {
	if r.configured != "" {
		return r.configured, nil
	}
	if r.store == nil {
		return "", nil
	}
	if v, ok := r.cache.Get(ProviderGemini); ok {
		return v.(string), nil
	}
	key, err := r.store.GeminiAPIKey(ctx)
	if err != nil {
		return "", err
	}
	r.cache.SetDefault(ProviderGemini, key)
	return key, nil
}
