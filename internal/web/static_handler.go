// Package web serves the single-page front end and its assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/kuitang/memnotes/internal/errs"
	"github.com/kuitang/memnotes/internal/obs"
)

//go:embed static
var staticFiles embed.FS

const indexFile = "index.html"

// StaticHandler serves the notes page at / and its script and stylesheet
// under /public/. All files are embedded in the binary.
type StaticHandler struct {
	files fs.FS
	index []byte
}

// NewStaticHandler creates a handler over the embedded assets.
func NewStaticHandler() (*StaticHandler, error) {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, err
	}
	return NewStaticHandlerFS(sub)
}

// NewStaticHandlerFS creates a handler over files, which must contain index.html
// at its root. The page is read once and kept in memory.
func NewStaticHandlerFS(files fs.FS) (*StaticHandler, error) {
	index, err := fs.ReadFile(files, indexFile)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "read "+indexFile, err)
	}
	return &StaticHandler{files: files, index: index}, nil
}

// RegisterRoutes registers the page and asset routes on the given mux.
func (h *StaticHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.Handle("GET /public/", http.StripPrefix("/public/", http.FileServerFS(h.files)))
}

// HandleIndex serves the notes page.
func (h *StaticHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(h.index)))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(h.index); err != nil {
		obs.FromPkg(r.Context(), "web").Debug("index_write_failed", "error", err)
	}
}
