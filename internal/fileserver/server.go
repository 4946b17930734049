// Package fileserver exposes generated mock pages over HTTP.
package fileserver

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const indexPage = "<h3>Classplus Mock Extractor Bot is running.</h3>"

// NewRouter serves files from tmpDir under /tmp/{filename}.
func NewRouter(tmpDir string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(indexPage))
	})
	r.Get("/tmp/{filename}", serveFile(http.Dir(tmpDir), logger))

	return r
}

func serveFile(root http.FileSystem, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := url.PathUnescape(chi.URLParam(r, "filename"))
		if err != nil || name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
			http.NotFound(w, r)
			return
		}

		f, err := root.Open(path.Join("/", name))
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("open served file", "file", name, "error", err)
			}
			http.NotFound(w, r)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	}
}
