// Package templates handles HTML template rendering for the map page and its
// Datastar SSE fragments.
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/joeblew999/geophoto/internal/richtext"
)

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	// dict creates a map from key-value pairs, useful for passing multiple values to nested templates
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
	"richtext":   richtext.HTML,
	"add":        func(a, b int) int { return a + b },
	"pathescape": url.PathEscape,
}

// Renderer manages the page and fragment templates under one directory.
type Renderer struct {
	dir       string
	templates *template.Template
	mu        sync.RWMutex
}

// New parses dir/*.html and dir/fragments/*.html.
func New(dir string) (*Renderer, error) {
	tmpl, err := parse(dir)
	if err != nil {
		return nil, err
	}
	return &Renderer{dir: dir, templates: tmpl}, nil
}

func parse(dir string) (*template.Template, error) {
	tmpl := template.New("").Funcs(funcMap)
	found := false
	for _, pattern := range []string{
		filepath.Join(dir, "*.html"),
		filepath.Join(dir, "fragments", "*.html"),
	} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			continue
		}
		if tmpl, err = tmpl.ParseFiles(matches...); err != nil {
			return nil, err
		}
		found = true
	}
	if !found {
		return nil, fmt.Errorf("no templates in %s", dir)
	}
	return tmpl, nil
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToBuffer(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named template to a buffer.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.ExecuteTemplate(buf, name, data)
}

// Reload re-parses templates from disk. On error the previous set is kept.
func (r *Renderer) Reload() error {
	tmpl, err := parse(r.dir)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}

// exists reports whether path is present; used by the watcher for
// directories that may be created after start.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
