package server

import (
	"bytes"
	_ "embed"
	"fmt"
	"html"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/conneroisu/sitekit/internal/dom"
	siteerrors "github.com/conneroisu/sitekit/internal/errors"
	"github.com/conneroisu/sitekit/internal/search"
)

//go:embed static/search.js
var clientScript []byte

var startTime = time.Now()

// resolvePage maps a URL path to a file below the output directory. The name
// is cleaned as an absolute URL path first, so it cannot escape the root.
// Directories resolve to their index.html.
func (s *Server) resolvePage(name string) (string, string) {
	clean := path.Clean("/" + name)
	if strings.HasSuffix(name, "/") || clean == "/" {
		clean = path.Join(clean, "index.html")
	}
	file := filepath.Join(s.root, filepath.FromSlash(clean))
	if info, err := os.Stat(file); err == nil && info.IsDir() {
		clean = path.Join(clean, "index.html")
		file = filepath.Join(file, "index.html")
	}
	return strings.TrimPrefix(clean, "/"), file
}

func (s *Server) relative(file string) string {
	rel, err := filepath.Rel(s.root, file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

func isHTML(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// loadPage parses a page of the output directory.
func (s *Server) loadPage(name string) (*dom.Document, string, error) {
	page, file := s.resolvePage(name)
	if !isHTML(page) {
		return nil, page, siteerrors.NewValidationError(siteerrors.CodeParseFailed, "not an HTML page").WithPath(page)
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, page, siteerrors.WrapIO(err, siteerrors.CodeReadFailed, "failed to open page", page)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, page, err
	}
	return doc, page, nil
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, file := s.resolvePage(r.URL.Path)

	if !isHTML(page) {
		http.ServeFile(w, r, file)
		return
	}

	content, err := os.ReadFile(file)
	if err != nil {
		s.writeError(w, r, siteerrors.WrapIO(err, siteerrors.CodeReadFailed, "failed to read page", page))
		return
	}

	info, err := os.Stat(file)
	modTime := startTime
	if err == nil {
		modTime = info.ModTime()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, page, modTime, bytes.NewReader(injectClient(content, s.clientTag(page))))
}

// clientTag builds the script element that loads the client for page.
func (s *Server) clientTag(page string) string {
	ids := dom.IDsFromConfig(s.config.Search)
	return fmt.Sprintf(
		`<script src="%s" data-page="%s" data-input="%s" data-status="%s" data-container="%s" data-live-search="%s" defer></script>`,
		ClientPath,
		html.EscapeString(page),
		html.EscapeString(ids.Input),
		html.EscapeString(ids.Status),
		html.EscapeString(ids.Container),
		strconv.FormatBool(s.config.Server.LiveSearch),
	)
}

// injectClient inserts tag before the last closing body tag, or appends it
// when the page has none.
func injectClient(content []byte, tag string) []byte {
	idx := bytes.LastIndex(bytes.ToLower(content), []byte("</body>"))
	if idx < 0 {
		out := make([]byte, 0, len(content)+len(tag))
		out = append(out, content...)
		return append(out, tag...)
	}

	out := make([]byte, 0, len(content)+len(tag))
	out = append(out, content[:idx]...)
	out = append(out, tag...)
	return append(out, content[idx:]...)
}

func (s *Server) handleClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, "search.js", startTime, bytes.NewReader(clientScript))
}

// SearchResponse is the JSON form of a one-shot search.
type SearchResponse struct {
	Page          string `json:"page"`
	Query         string `json:"query"`
	Outcome       string `json:"outcome"`
	Sections      int    `json:"sections"`
	Matches       int    `json:"matches"`
	Status        string `json:"status"`
	StatusVisible bool   `json:"status_visible"`
	Content       string `json:"content"`
}

// handleSearch renders a page with a query applied, for clients without
// scripting. format=json returns a SearchResponse instead of the page.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	doc, page, err := s.loadPage(q.Get("page"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p := dom.Bind(doc, dom.IDsFromConfig(s.config.Search), search.WithLogger(s.logger))
	if !p.Widget.Enabled() {
		s.writeError(w, r, siteerrors.NewValidationError(siteerrors.CodeMissingElement, "page has no search widget").WithPath(page))
		return
	}
	defer p.Widget.Close()

	query := q.Get("q")
	if p.Input != nil {
		p.Input.SetValue(query)
	}
	res := p.Widget.Search(query)

	if q.Get("format") == "json" {
		writeJSON(w, http.StatusOK, SearchResponse{
			Page:          page,
			Query:         res.Query,
			Outcome:       res.Outcome.String(),
			Sections:      res.Sections,
			Matches:       res.Matches,
			Status:        p.StatusText(),
			StatusVisible: p.StatusVisible(),
			Content:       p.ContentHTML(),
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := doc.Render(w); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to render search page", "page", page)
	}
}

// writeError maps error types to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case siteerrors.Is(err, os.ErrNotExist):
		status = http.StatusNotFound
	case siteerrors.IsValidationError(err):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), err, "Request failed", "path", r.URL.Path)
	} else {
		s.logger.Debug(r.Context(), "Request rejected", "path", r.URL.Path, "status", status, "error", err.Error())
	}

	writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
		"code":  siteerrors.Code(err),
	})
}
