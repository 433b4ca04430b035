package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"studio/internal/domain"
	"studio/internal/imagegen"
	"studio/internal/ingest"
)

const defaultMaxUploadBytes = 32 << 20

type imageDTO struct {
	ID               string            `json:"id"`
	MIMEType         string            `json:"mime_type"`
	OriginalMIMEType string            `json:"original_mime_type"`
	Conversion       domain.Conversion `json:"conversion"`
	Preview          string            `json:"preview"`
}

type resultDTO struct {
	DataURI     string      `json:"data_uri"`
	Mode        domain.Mode `json:"mode"`
	AspectRatio string      `json:"aspect_ratio"`
	CreatedAt   time.Time   `json:"created_at"`
}

type sessionDTO struct {
	ID          string                    `json:"id"`
	KeySelected bool                      `json:"key_selected"`
	Mode        domain.Mode               `json:"mode"`
	AspectRatio string                    `json:"aspect_ratio"`
	Settings    domain.GenerationSettings `json:"settings"`
	Products    []imageDTO                `json:"products"`
	Persons     []imageDTO                `json:"persons"`
	Limits      map[string]int            `json:"limits"`
	CanGenerate bool                      `json:"can_generate"`
	Blocker     string                    `json:"blocker,omitempty"`
	Result      *resultDTO                `json:"result,omitempty"`
}

func toImageDTOs(images []domain.NormalizedImage) []imageDTO {
	out := make([]imageDTO, 0, len(images))
	for _, img := range images {
		out = append(out, imageDTO{
			ID:               img.ID,
			MIMEType:         img.MIMEType,
			OriginalMIMEType: img.OriginalMIMEType,
			Conversion:       img.Conversion,
			Preview:          img.Preview,
		})
	}
	return out
}

func toSessionDTO(s *domain.Session) sessionDTO {
	ws := s.Workspace
	dto := sessionDTO{
		ID:          s.ID,
		KeySelected: s.KeySelected,
		Mode:        ws.Mode,
		AspectRatio: ws.Mode.AspectRatio(),
		Settings:    ws.Settings,
		Products:    toImageDTOs(ws.Products),
		Persons:     toImageDTOs(ws.Persons),
		Limits: map[string]int{
			string(domain.CollectionProducts): ws.Limit(domain.CollectionProducts),
			string(domain.CollectionPersons):  ws.Limit(domain.CollectionPersons),
		},
	}
	if err := ws.CanGenerate(); err != nil {
		dto.Blocker = err.Error()
	} else {
		dto.CanGenerate = true
	}
	if ws.Result != nil {
		dto.Result = &resultDTO{
			DataURI:     ws.Result.DataURI,
			Mode:        ws.Result.Mode,
			AspectRatio: ws.Result.AspectRatio,
			CreatedAt:   ws.Result.CreatedAt,
		}
	}
	return dto
}

func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := a.Sessions.Create(r.Context(), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toSessionDTO(sess))
}

func (a *App) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := a.Sessions.Load(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toSessionDTO(sess))
}

func (a *App) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Delete(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r)); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (a *App) SwitchMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !a.decode(w, r, &req) {
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.update(w, r, func(s *domain.Session) error {
		s.Workspace.SwitchMode(mode)
		return nil
	})
}

func (a *App) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerationSettings
	if !a.decode(w, r, &req) {
		return
	}
	a.update(w, r, func(s *domain.Session) error {
		s.Workspace.Settings = req
		return nil
	})
}

// UploadImages ingests the multipart "files" into a collection. Files beyond
// the collection's remaining capacity and unsupported types are dropped.
func (a *App) UploadImages(w http.ResponseWriter, r *http.Request) {
	collection, err := domain.ParseCollection(chi.URLParam(r, "collection"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	limit := a.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart upload")
		return
	}
	files, err := readUploads(r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if len(files) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "no files uploaded")
		return
	}

	var added int
	a.update(w, r, func(s *domain.Session) error {
		ws := &s.Workspace
		max := ws.Limit(collection)
		if max == 0 {
			return fmt.Errorf("%w: %s mode takes no %s", domain.ErrInvalidInput, ws.Mode, collection)
		}
		existing := ws.Images(collection)
		next, err := a.Normalizer.Batch(r.Context(), existing, files, max)
		if err != nil {
			return err
		}
		added = len(next) - len(existing)
		ws.SetImages(collection, next)
		return nil
	})
	a.logger().Debug().Str("collection", string(collection)).Int("files", len(files)).Int("added", added).Msg("upload ingested")
}

func readUploads(r *http.Request) ([]ingest.File, error) {
	headers := r.MultipartForm.File["files"]
	out := make([]ingest.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		mimeType := fh.Header.Get("Content-Type")
		if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
			mimeType = http.DetectContentType(data)
		}
		out = append(out, ingest.File{Name: fh.Filename, MIMEType: mimeType, Data: data})
	}
	return out, nil
}

func (a *App) DeleteImage(w http.ResponseWriter, r *http.Request) {
	collection, err := domain.ParseCollection(chi.URLParam(r, "collection"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	imageID := chi.URLParam(r, "imageID")
	a.update(w, r, func(s *domain.Session) error {
		if !s.Workspace.RemoveImage(collection, imageID) {
			return domain.ErrNotFound
		}
		return nil
	})
}

type apiKeyRequest struct {
	APIKey string `json:"api_key"`
}

// APIKeyStatus reports whether generation has a usable key for this session.
func (a *App) APIKeyStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := a.Sessions.Load(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	serverKey, err := a.Keys.GeminiAPIKey(r.Context())
	if err != nil {
		a.logger().Warn().Err(err).Msg("resolve server api key")
	}
	a.json(w, http.StatusOK, map[string]any{
		"host_key_selection": a.Sessions.HostKeySelection(),
		"key_selected":       sess.KeySelected,
		"session_key":        sess.APIKey != "",
		"server_key":         serverKey != "",
	})
}

// SelectAPIKey marks a key as selected for the session, optionally storing a
// session-scoped key.
func (a *App) SelectAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if r.ContentLength != 0 && !a.decode(w, r, &req) {
		return
	}
	a.update(w, r, func(s *domain.Session) error {
		if key := strings.TrimSpace(req.APIKey); key != "" {
			s.APIKey = key
		}
		s.KeySelected = true
		return nil
	})
}

// PromptPreview shows the request that Generate would send, without payloads.
func (a *App) PromptPreview(w http.ResponseWriter, r *http.Request) {
	sess, err := a.Sessions.Load(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	req := imagegen.ComposeWorkspace(sess.Workspace)
	roles := make([]domain.PartRole, 0, len(req.Parts))
	for _, p := range req.Parts {
		roles = append(roles, p.Role)
	}
	a.json(w, http.StatusOK, map[string]any{
		"mode":         req.Mode,
		"aspect_ratio": req.AspectRatio,
		"image_size":   req.ImageSize,
		"images":       req.ImageCount(),
		"roles":        roles,
		"prompt":       req.Prompt(),
	})
}

func (a *App) update(w http.ResponseWriter, r *http.Request, fn func(*domain.Session) error) {
	sess, err := a.Sessions.Update(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r), fn)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) && chi.URLParam(r, "imageID") != "" {
			a.error(w, http.StatusNotFound, "not_found", "image not found")
			return
		}
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toSessionDTO(sess))
}
