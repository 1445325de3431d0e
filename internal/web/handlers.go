package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ai-photo-studio/internal/imageproc"
	"ai-photo-studio/internal/prompt"
	"ai-photo-studio/internal/studio"
)

type catalogResponse struct {
	Modes         []prompt.Mode                  `json:"modes"`
	Themes        map[prompt.Mode][]prompt.Group `json:"themes"`
	Effects       []prompt.Group                 `json:"effects"`
	Accessories   []prompt.Group                 `json:"accessories"`
	Aspects       map[string][]string            `json:"aspects"`
	AspectOrder   []string                       `json:"aspectOrder"`
	KeepOriginal  string                         `json:"keepOriginal"`
	MaxThemes     int                            `json:"maxThemes"`
	MaxVariations int                            `json:"maxVariations"`
	GlitchMax     int                            `json:"glitchMaxInfluence"`
}

type sessionResponse struct {
	ID string `json:"id"`
}

type generateResponse struct {
	Session string `json:"session"`
	Tasks   int    `json:"tasks"`
}

type promptEntry struct {
	Theme  string `json:"theme"`
	Prompt string `json:"prompt"`
}

type promptsResponse struct {
	Prompts []promptEntry `json:"prompts"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	resp := catalogResponse{
		Modes:         prompt.Modes(),
		Themes:        make(map[prompt.Mode][]prompt.Group),
		Effects:       prompt.EffectGroups(),
		Accessories:   prompt.AccessoryGroups(),
		Aspects:       make(map[string][]string),
		AspectOrder:   imageproc.Aspects(),
		KeepOriginal:  prompt.KeepOriginalTheme,
		MaxThemes:     studio.MaxThemes,
		MaxVariations: studio.MaxVariations,
		GlitchMax:     prompt.MaxGlitchInfluence,
	}
	for _, m := range resp.Modes {
		resp.Themes[m] = prompt.ThemeGroups(m)
	}
	for _, a := range resp.AspectOrder {
		resp.Aspects[a] = imageproc.Resolutions(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	mode := prompt.Mode(chi.URLParam(r, "mode"))
	if !mode.Valid() {
		writeError(w, http.StatusNotFound, "unknown mode")
		return
	}
	writeJSON(w, http.StatusOK, studio.Defaults(mode))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, sessionResponse{ID: uuid.NewString()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	snap, err := s.studio.Snapshot(r.Context(), id)
	if err != nil {
		s.logger.Error("snapshot failed", "session", id, "err", err)
		writeError(w, http.StatusInternalServerError, "snapshot unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleGenerate validates the request and opens the invocation
// synchronously, then runs the tasks in the background. Progress is read from the snapshot
// endpoints.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	settings, err := decodeSettings([]byte(r.FormValue("settings")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings: "+err.Error())
		return
	}

	var images studio.Images
	if images.Source, err = formImage(r, "image"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if images.Reference, err = formImage(r, "reference"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The loading board is on the store before the response goes out, so
	// the first snapshot poll already sees this invocation.
	job, err := s.studio.Start(r.Context(), id, settings, images)
	if err != nil {
		var verr *studio.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusUnprocessableEntity, studio.UserMessage(verr))
			return
		}
		s.logger.Error("generation start failed", "session", id, "err", err)
		writeError(w, http.StatusInternalServerError, studio.UserMessage(err))
		return
	}

	go func() {
		if _, err := s.studio.Run(s.baseCtx, job); err != nil {
			s.logger.Error("generation failed", "session", id, "err", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, generateResponse{Session: id, Tasks: job.Tasks})
}

func (s *Server) handlePrompts(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	settings, err := decodeSettings(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings: "+err.Error())
		return
	}
	if !settings.Mode.Valid() {
		writeError(w, http.StatusBadRequest, "unknown mode")
		return
	}

	themes := settings.Normalize().ResolveThemes()
	prompts := studio.Prompts(settings)
	resp := promptsResponse{Prompts: make([]promptEntry, len(prompts))}
	for i, p := range prompts {
		resp.Prompts[i] = promptEntry{Theme: themes[i], Prompt: p}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleExport upscales one result and returns it as a download. The image
// comes either as an "image" file or as a "dataUrl" field.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	src, err := formImage(r, "image")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(src.Data) == 0 {
		if raw := strings.TrimSpace(r.FormValue("dataUrl")); raw != "" {
			mimeType, data, err := imageproc.ParseDataURL(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid data url")
				return
			}
			src = imageproc.NewPayload("", mimeType, data)
		}
	}
	if len(src.Data) == 0 {
		writeError(w, http.StatusBadRequest, "missing image")
		return
	}

	size := strings.ToLower(strings.TrimSpace(r.FormValue("size")))
	if size == "" {
		size = "4k"
	}
	longEdge, err := imageproc.LongEdgeFor(size)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	format, err := imageproc.ParseFormat(r.FormValue("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	quality, _ := strconv.Atoi(r.FormValue("quality"))

	fit := imageproc.FitMode(strings.ToLower(strings.TrimSpace(r.FormValue("fit"))))
	if fit == "" {
		fit = imageproc.FitContain
	}
	fill := imageproc.Fill(strings.ToLower(strings.TrimSpace(r.FormValue("background"))))
	if fill == "" {
		fill = imageproc.FillAverage
	}

	img, err := imageproc.Upscale(src.Data, imageproc.UpscaleOptions{LongEdge: longEdge, Fit: fit, Background: fill})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	data, err := imageproc.Encode(img, format, quality)
	if err != nil {
		s.logger.Error("export encode failed", "err", err)
		writeError(w, http.StatusInternalServerError, "encode failed")
		return
	}

	b := img.Bounds()
	name := imageproc.ExportName(r.FormValue("name"), b.Dx(), b.Dy(), format)
	w.Header().Set("content-type", format.MimeType())
	w.Header().Set("content-disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("content-length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// decodeSettings applies raw JSON on top of the defaults of its mode, so
// omitted fields keep their mode defaults.
func decodeSettings(raw []byte) (studio.Settings, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return studio.Settings{}, errors.New("settings are required")
	}
	var head struct {
		Mode prompt.Mode `json:"mode"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return studio.Settings{}, err
	}
	s := studio.Defaults(head.Mode)
	if err := json.Unmarshal(raw, &s); err != nil {
		return studio.Settings{}, err
	}
	return s, nil
}

// formImage reads an optional uploaded file. A missing field yields an
// empty payload.
func formImage(r *http.Request, field string) (imageproc.Payload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return imageproc.Payload{}, nil
	}
	if err != nil {
		return imageproc.Payload{}, fmt.Errorf("invalid %s upload", field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return imageproc.Payload{}, fmt.Errorf("failed to read %s", field)
	}
	return imageproc.NewPayload(header.Filename, contentType(header), data), nil
}

func contentType(h *multipart.FileHeader) string {
	return strings.TrimSpace(h.Header.Get("Content-Type"))
}

func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown session")
		return "", false
	}
	return "web:" + id.String(), true
}
