// Package render turns a mock detail into a standalone offline HTML page.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/eliseohh/cpmockbot/internal/classplus"
	"github.com/google/uuid"
)

const MaxNameChars = 120

//go:embed templates/*.html
var templateFS embed.FS

var (
	pageTmpl = template.Must(template.ParseFS(templateFS, "templates/mock.html"))

	spaceRx  = regexp.MustCompile(`\s+`)
	unsafeRx = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

type Renderer struct {
	Dir string
}

func New(dir string) *Renderer {
	return &Renderer{Dir: dir}
}

type pageData struct {
	Name            string
	DurationSeconds int
	Questions       []any
	Mock            classplus.MockDetail
}

// HTML renders detail without touching the filesystem.
func HTML(detail classplus.MockDetail) ([]byte, error) {
	if detail == nil {
		return nil, fmt.Errorf("render: nil mock detail")
	}
	data := pageData{
		Name:            detail.Name(),
		DurationSeconds: detail.DurationSeconds(),
		Questions:       detail.Questions(),
		Mock:            detail,
	}
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	return buf.Bytes(), nil
}

// Render writes the page into Dir and returns its path.
func (r *Renderer) Render(detail classplus.MockDetail) (string, error) {
	content, err := HTML(detail)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	path := filepath.Join(r.Dir, Filename(detail.Name()))
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Filename is SafeFilename(name) plus a random 8-hex suffix.
func Filename(name string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s.html", SafeFilename(name), suffix)
}

func SafeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "mock"
	}
	name = spaceRx.ReplaceAllString(name, "_")
	name = unsafeRx.ReplaceAllString(name, "_")
	if len(name) > MaxNameChars {
		name = name[:MaxNameChars]
	}
	return name
}

// Cleanup removes a generated file. Missing files are not an error.
func Cleanup(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Sweep removes generated pages in Dir older than maxAge, left behind when
// the process died between render and send.
func (r *Renderer) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".html" {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := Cleanup(filepath.Join(r.Dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
