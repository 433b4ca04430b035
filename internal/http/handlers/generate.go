package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	"studio/internal/domain"
	"studio/internal/imagegen"
	"studio/internal/infra"
	"studio/internal/providers/genai"
)

const webpQuality = 90

var errKeyNotSelected = errors.New("no api key selected")

type generateResponse struct {
	Image         string      `json:"image"`
	Mode          domain.Mode `json:"mode"`
	AspectRatio   string      `json:"aspect_ratio"`
	Credits       *int        `json:"credits,omitempty"`
	CreditsStatus string      `json:"credits_status,omitempty"`
}

// Generate composes the workspace into one provider request and stores the
// resulting image on the session.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	userID := a.currentUserID(r)

	sess, err := a.Sessions.Load(ctx, id, userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !sess.KeySelected {
		a.error(w, http.StatusForbidden, "key_not_selected", errKeyNotSelected.Error())
		return
	}
	if err := sess.Workspace.CanGenerate(); err != nil {
		a.fail(w, r, err)
		return
	}

	charge := a.CreditPolicy == infra.CreditPolicyAfterSuccess
	if charge {
		if userID == "" {
			a.error(w, http.StatusUnauthorized, "unauthorized", "sign in to spend credits")
			return
		}
		if err := a.Accounts.CheckBalance(ctx, userID); err != nil {
			a.fail(w, r, err)
			return
		}
	}

	apiKey := sess.APIKey
	if apiKey == "" {
		if apiKey, err = a.Keys.GeminiAPIKey(ctx); err != nil {
			a.logger().Warn().Err(err).Msg("resolve server api key")
		}
	}

	req := imagegen.ComposeWorkspace(sess.Workspace)
	uri, err := a.Generator.Execute(ctx, apiKey, req)
	if err != nil {
		if genai.IsEntitlementError(err) {
			a.revokeKey(ctx, id, userID)
			a.error(w, http.StatusForbidden, "key_revoked", err.Error())
			return
		}
		a.fail(w, r, err)
		return
	}

	resp := generateResponse{Image: uri, Mode: req.Mode, AspectRatio: req.AspectRatio}
	if charge {
		res, err := a.Accounts.DeductCredit(ctx, userID)
		if err != nil {
			a.logger().Error().Err(err).Str("user_id", userID).Msg("failed to deduct credit but generation worked")
		} else {
			resp.Credits = &res.Value
			resp.CreditsStatus = string(res.Status)
		}
	}

	result := &domain.GeneratedImage{
		DataURI:     uri,
		Mode:        req.Mode,
		AspectRatio: req.AspectRatio,
		CreatedAt:   a.now().UTC(),
	}
	_, err = a.Sessions.Update(ctx, id, userID, func(s *domain.Session) error {
		if s.Workspace.Mode != req.Mode {
			return nil
		}
		s.Workspace.Result = result
		return nil
	})
	if err != nil {
		a.logger().Warn().Err(err).Str("session_id", id).Msg("store generated image")
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) revokeKey(ctx context.Context, id, userID string) {
	_, err := a.Sessions.Update(ctx, id, userID, func(s *domain.Session) error {
		s.RevokeKey()
		return nil
	})
	if err != nil {
		a.logger().Warn().Err(err).Str("session_id", id).Msg("revoke api key")
	}
}

// DownloadResult serves the last generated image as an attachment, PNG by
// default or WEBP with ?format=webp.
func (a *App) DownloadResult(w http.ResponseWriter, r *http.Request) {
	sess, err := a.Sessions.Load(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if sess.Workspace.Result == nil {
		a.error(w, http.StatusNotFound, "not_found", "no generated image yet")
		return
	}
	mimeType, data, ok := domain.ParseDataURI(sess.Workspace.Result.DataURI)
	if !ok {
		a.fail(w, r, fmt.Errorf("stored result is not a data uri"))
		return
	}

	ext := "png"
	if r.URL.Query().Get("format") == "webp" {
		if data, err = toWEBP(data); err != nil {
			a.fail(w, r, err)
			return
		}
		mimeType, ext = domain.MIMEWEBP, "webp"
	}
	name := "studio-" + strconv.FormatInt(a.now().UnixMilli(), 10) + "." + ext
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func toWEBP(pngData []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decode result png: %w", err)
	}
	opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, webpQuality)
	if err != nil {
		return nil, fmt.Errorf("webp options: %w", err)
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, opts); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
