package website

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

func quietGenerator(templatePath string) Generator {
	return Generator{TemplatePath: templatePath, Title: "Movie Night", Logger: log.New(io.Discard, "", 0)}
}

func TestRenderUsesTemplateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index_template.html")
	tmpl := "<h1>" + TitleToken + "</h1><ol>" + GridToken + "</ol>"
	if err := os.WriteFile(path, []byte(tmpl), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	page, err := quietGenerator(path).Render(domain.Collection{
		"Inception": {Title: "Inception", Year: 2010, Rating: 8.8, Poster: "https://img/inception.jpg"},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		"<h1>Movie Night</h1>",
		`<img class="movie-poster" src="https://img/inception.jpg" title="Inception"/>`,
		`<div class="movie-title">Inception</div>`,
		`<div class="movie-year">2010</div>`,
		`<div class="movie-rating">8.8</div>`,
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q:\n%s", want, page)
		}
	}
	if strings.Contains(page, GridToken) || strings.Contains(page, TitleToken) {
		t.Fatalf("placeholders left in page")
	}
}

func TestRenderFallsBackToBuiltinTemplate(t *testing.T) {
	page, err := quietGenerator(filepath.Join(t.TempDir(), "missing.html")).Render(domain.Collection{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(page, `<ol class="movie-grid">`) || !strings.Contains(page, "Movie Night") {
		t.Fatalf("unexpected page:\n%s", page)
	}
}

func TestRenderGridEscapesAndOrders(t *testing.T) {
	grid, err := RenderGrid(domain.Collection{
		"Zodiac":             {Title: "Zodiac", Year: 2007, Rating: 7.7},
		"<script>x</script>": {Title: "<script>x</script>", Year: 2000, Rating: 1},
	})
	if err != nil {
		t.Fatalf("RenderGrid: %v", err)
	}
	if strings.Contains(grid, "<script>") {
		t.Fatalf("title not escaped:\n%s", grid)
	}
	if strings.Count(grid, "<li>") != 2 {
		t.Fatalf("want 2 items:\n%s", grid)
	}
	if strings.Index(grid, "Zodiac") < strings.Index(grid, "script") {
		t.Fatalf("items not ordered by title:\n%s", grid)
	}
}

func TestWriteFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "static", "index.html")
	movies := domain.Collection{"Up": {Title: "Up", Year: 2009, Rating: 8.3}}
	if err := quietGenerator("").WriteFile(movies, out); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	payload, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(payload), `<div class="movie-title">Up</div>`) {
		t.Fatalf("output missing movie:\n%s", payload)
	}
}
