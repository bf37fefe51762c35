package view

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Shared html/template rendering with an in-process cache. Serves both the
// admin/portal pages and the document templates the generator snapshots to
// disk.

var (
	baseDirMu sync.Mutex
	baseDir   string

	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}
)

// SetBaseDir overrides template directory detection (used by tests and by
// deployments with a non-standard layout).
func SetBaseDir(dir string) {
	baseDirMu.Lock()
	baseDir = dir
	baseDirMu.Unlock()
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
}

// BaseDir returns the detected templates directory, probing upward so the
// lookup works from the repo root, cmd/server, or a package test directory.
func BaseDir() string {
	baseDirMu.Lock()
	defer baseDirMu.Unlock()
	if baseDir != "" {
		return baseDir
	}
	candidates := []string{"templates", "../templates", "../../templates", "../../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return baseDir
		}
	}
	baseDir = "templates" // parsing will error clearly
	return baseDir
}

// FormatCLP renders a CLP amount with dot thousand separators and no
// centesimas: "CLP $ 1.234.567".
func FormatCLP(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return "CLP $ " + sign + strings.Join(parts, ".")
}

var funcs = template.FuncMap{
	"clp": FormatCLP,
	"badge": func(state string) string {
		switch state {
		case "PREGENERADA":
			return "secondary"
		case "ENVIADA":
			return "warning"
		case "ACEPTADA":
			return "success"
		case "RECHAZADA":
			return "danger"
		case "REVISION":
			return "info"
		}
		return "secondary"
	},
}

func get(name string) (*template.Template, error) {
	if os.Getenv("DEV") != "1" {
		tplCache.RLock()
		if t, ok := tplCache.m[name]; ok {
			tplCache.RUnlock()
			return t, nil
		}
		tplCache.RUnlock()
	}
	path := filepath.Join(BaseDir(), filepath.FromSlash(name))
	t, err := template.New(filepath.Base(path)).Funcs(funcs).ParseFiles(path)
	if err != nil {
		return nil, err
	}
	tplCache.Lock()
	tplCache.m[name] = t
	tplCache.Unlock()
	return t, nil
}

// RenderBytes executes the named template into memory.
func RenderBytes(name string, data any) ([]byte, error) {
	t, err := get(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render writes the named template as an HTML response. The template runs into
// a buffer first so a mid-render failure never leaks a half page.
func Render(w http.ResponseWriter, name string, data any) error {
	body, err := RenderBytes(name, data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, werr := w.Write(body)
	return werr
}
