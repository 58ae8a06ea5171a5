// Package website renders the catalog into a static HTML page by filling the
// title and movie-grid placeholders of a template file.
package website

import (
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

const (
	TitleToken = "__TEMPLATE_TITLE__"
	GridToken  = "__TEMPLATE_MOVIE_GRID__"

	DefaultTitle = "My Movie App"
)

//go:embed templates/index_template.html
var defaultTemplate string

var itemTemplate = template.Must(template.New("item").Parse(`        <li>
            <div class="movie">
                <img class="movie-poster" src="{{.Poster}}" title="{{.Title}}"/>
                <div class="movie-title">{{.Title}}</div>
                <div class="movie-year">{{.Year}}</div>
                <div class="movie-rating">{{.Rating}}</div>
            </div>
        </li>
`))

// Generator renders pages from a template file. An empty or missing
// TemplatePath falls back to the embedded default template.
type Generator struct {
	TemplatePath string
	Title        string
	Logger       *log.Logger
}

func (g Generator) logger() *log.Logger {
	if g.Logger == nil {
		return log.Default()
	}
	return g.Logger
}

func (g Generator) loadTemplate() (string, error) {
	if g.TemplatePath == "" {
		return defaultTemplate, nil
	}
	payload, err := os.ReadFile(g.TemplatePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			g.logger().Printf("website: template %s not found, using built-in template", g.TemplatePath)
			return defaultTemplate, nil
		}
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(payload), nil
}

// Render returns the full HTML page for movies, ordered by title.
func (g Generator) Render(movies domain.Collection) (string, error) {
	tmpl, err := g.loadTemplate()
	if err != nil {
		return "", err
	}
	grid, err := RenderGrid(movies)
	if err != nil {
		return "", err
	}
	title := g.Title
	if title == "" {
		title = DefaultTitle
	}
	page := strings.ReplaceAll(tmpl, TitleToken, template.HTMLEscapeString(title))
	page = strings.ReplaceAll(page, GridToken, grid)
	return page, nil
}

// WriteFile renders movies and writes the page to path.
func (g Generator) WriteFile(movies domain.Collection, path string) error {
	page, err := g.Render(movies)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return fmt.Errorf("write website: %w", err)
	}
	g.logger().Printf("website: wrote %d movies to %s", len(movies), path)
	return nil
}

// RenderGrid returns one <li> block per movie with every value escaped.
func RenderGrid(movies domain.Collection) (string, error) {
	var b strings.Builder
	for _, movie := range movies.Sorted() {
		if err := itemTemplate.Execute(&b, movie); err != nil {
			return "", fmt.Errorf("render %q: %w", movie.Title, err)
		}
	}
	return b.String(), nil
}
