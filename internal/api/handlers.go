// Package api exposes the notes service as a JSON HTTP API.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kuitang/memnotes/internal/errs"
	"github.com/kuitang/memnotes/internal/logutil"
	"github.com/kuitang/memnotes/internal/notes"
	"github.com/kuitang/memnotes/internal/obs"
)

const (
	// DefaultMaxBodyBytes caps request bodies when no explicit limit is given.
	DefaultMaxBodyBytes = 1 << 20

	msgInvalidJSON   = "Invalid JSON body"
	msgBodyTooLarge  = "Request body too large"
	msgInternalError = "internal error"
)

// Handler wraps the notes service and provides HTTP handlers
type Handler struct {
	notesService *notes.Service
	maxBodyBytes int64
}

// NewHandler creates a new API handler with the given notes service.
// maxBodyBytes <= 0 selects DefaultMaxBodyBytes.
func NewHandler(notesService *notes.Service, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{notesService: notesService, maxBodyBytes: maxBodyBytes}
}

// RegisterRoutes registers all notes API routes on the given mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /notes", h.ListNotes)
	mux.HandleFunc("POST /notes", h.CreateNote)
	mux.HandleFunc("GET /notes/{id}", h.GetNote)
	mux.HandleFunc("PUT /notes/{id}", h.UpdateNote)
	mux.HandleFunc("DELETE /notes/{id}", h.DeleteNote)
	mux.HandleFunc("GET /notes/{id}/preview", h.PreviewNote)
	mux.HandleFunc("GET /healthz", h.Health)
}

// ListNotes handles GET /notes - returns every note, newest first
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.notesService.List(r.Context()))
}

// GetNote handles GET /notes/{id} - returns a single note by ID
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.notesService.Read(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /notes - creates a new note
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	body, err := h.decodeNoteBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	note, err := h.notesService.Create(r.Context(), notes.CreateNoteParams{Title: body.Title, Content: body.Content})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// UpdateNote handles PUT /notes/{id} - replaces title and content
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	body, err := h.decodeNoteBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	note, err := h.notesService.Update(r.Context(), r.PathValue("id"), notes.UpdateNoteParams{Title: body.Title, Content: body.Content})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /notes/{id} - deletes a note and echoes it back
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.notesService.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// PreviewNote handles GET /notes/{id}/preview - renders the content as HTML
func (h *Handler) PreviewNote(w http.ResponseWriter, r *http.Request) {
	body, err := h.notesService.Preview(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Notes  int    `json:"notes"`
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Notes: h.notesService.Store().Len()})
}

// noteBody holds the title and content fields of a create or update body.
// Nil means the key was absent or null.
type noteBody struct {
	Title   *string
	Content *string
}

// decodeNoteBody reads exactly one JSON object from the capped request body.
// Keys match exactly ("Title" is not "title"); unknown keys are ignored.
func (h *Handler) decodeNoteBody(w http.ResponseWriter, r *http.Request) (noteBody, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	dec := json.NewDecoder(r.Body)

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return noteBody{}, bodyError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after JSON object")
		}
		return noteBody{}, bodyError(err)
	}

	var body noteBody
	for key, dst := range map[string]**string{"title": &body.Title, "content": &body.Content} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return noteBody{}, bodyError(err)
		}
	}
	return body, nil
}

// bodyError classifies a decode failure as too large or malformed.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errs.Wrap(errs.TooLarge, msgBodyTooLarge, err)
	}
	return errs.Wrap(errs.InvalidArgument, msgInvalidJSON, err)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps err to its status and writes a {"detail": ...} body.
// Internal failures are logged with their cause; client errors only at debug.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.CodeOf(err)
	status := errs.HTTPStatus(code)
	message := errs.MessageOf(err)

	logger := obs.FromPkg(r.Context(), "api")
	if code == errs.Internal {
		message = msgInternalError
		logger.Error("api_request_failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		logger.Debug("api_request_rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"detail", message,
			"error", err,
			"headers", logutil.FormatHeadersForLog(r.Header),
		)
	}

	writeJSON(w, status, ErrorResponse{Detail: message})
}
