// Package server exposes profiling over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/KaramelBytes/catprofile/internal/config"
	"github.com/KaramelBytes/catprofile/internal/dataset"
	"github.com/KaramelBytes/catprofile/internal/metrics"
	"github.com/KaramelBytes/catprofile/internal/parser"
	"github.com/KaramelBytes/catprofile/internal/profile"
	"github.com/KaramelBytes/catprofile/internal/report"
)

// MaxUploadBytes bounds the CSV body of a profile request.
const MaxUploadBytes = 32 << 20

// App holds server dependencies.
type App struct {
	pipeline *profile.Pipeline
	cfg      *config.Global
	writer   report.Writer
	metrics  metrics.Backend
}

// NewApp creates an App. Reports are written under cfg.ReportDir.
func NewApp(p *profile.Pipeline, cfg *config.Global) *App {
	m := p.Metrics
	if m == nil {
		m = metrics.Nop{}
	}
	dir := cfg.ReportDir
	if dir == "" {
		dir = "report"
	}
	return &App{pipeline: p, cfg: cfg, writer: report.Writer{Dir: dir}, metrics: m}
}

// Handler returns the HTTP handler (router with recovery, request counting, routes).
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(a.countRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", a.handleHealth)
		r.Post("/profile", a.handleProfile)
	})
	r.Get("/reports/{name}", a.handleReport)
	return r
}

func (a *App) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		a.metrics.IncCounter(metrics.HTTPRequestsTotal, 1, metrics.Labels{"status": strconv.Itoa(status)})
	})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": profile.Version})
}

// handleProfile profiles a CSV request body. Query parameters: mode, name,
// cat_limit, auto_prepare, delimiter and format (html or json).
func (a *App) handleProfile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, err := profile.ParseMode(q.Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	opt := a.cfg.Options(mode)
	opt.Title = strings.TrimSpace(q.Get("name"))
	if s := q.Get("cat_limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("cat_limit must be a positive integer"))
			return
		}
		opt.CatLimit = n
	}
	if s := q.Get("auto_prepare"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("auto_prepare must be a boolean"))
			return
		}
		opt.AutoPrepare = b
	}
	delim, err := delimiter(q.Get("delimiter"), a.cfg.Delimiter)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	format, err := report.ParseFormat(q.Get("format"))
	if err != nil || (format != report.FormatHTML && format != report.FormatJSON) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("format must be html or json"))
		return
	}

	body := http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	name := opt.Title
	if name == "" {
		name = "upload"
	}
	ds, err := parser.ReadCSV(body, name, delim)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := a.pipeline.Run(r.Context(), ds, opt)
	if err != nil {
		var ite *dataset.InputTypeError
		if errors.As(err, &ite) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if format == report.FormatJSON {
		writeJSON(w, http.StatusOK, res.Model())
		return
	}
	data, err := report.Export(res, report.FormatHTML)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	path, err := a.writer.Write(res.Title(), report.FormatHTML, data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Location", "/reports/"+filepath.Base(path))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(data)
}

// handleReport serves a previously written HTML report by file name.
func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".html") || strings.HasPrefix(name, ".") {
		http.NotFound(w, r)
		return
	}
	path := filepath.Join(a.writer.Dir, name)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func delimiter(param, fallback string) (rune, error) {
	s := param
	if s == "" {
		s = fallback
	}
	switch s {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character")
	}
	d, _ := utf8.DecodeRuneInString(s)
	return d, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
