package http

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"finbook/internal/core"
	"finbook/internal/log"
)

// page carries the fields every template expects alongside handler data.
type page struct {
	Title  string
	Active string
	Flash  *Flash
	Data   any
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money, symbol string) string {
			return m.Display(symbol)
		},
		"date": func(d core.Date) string {
			return d.String()
		},
		"accountTypes": core.AccountTypes,
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name, title, active string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	p := page{
		Title:  title,
		Active: active,
		Flash:  popFlash(w, r),
		Data:   data,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, p); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", log.FieldError, err, "template", name)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// renderError maps storage errors to HTTP responses. Records that exist
// but belong to another user surface as not found.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		s.logger.ErrorContext(r.Context(), "Handler error", log.FieldError, err, log.FieldPath, r.URL.Path)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// pathID parses the {id} route segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

func formValue(r *http.Request, key string) string {
	return sanitizeInput(r.FormValue(key))
}

func formInt64(r *http.Request, key string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(r.FormValue(key)), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
