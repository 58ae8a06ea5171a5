package shell

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gookit/color"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// Printer writes colored catalog output.
type Printer struct {
	out io.Writer
}

// NewPrinter returns a Printer writing to out.
func NewPrinter(out io.Writer) Printer {
	return Printer{out: out}
}

// FormatRating prints ratings without trailing zeros.
func FormatRating(rating float64) string {
	return strconv.FormatFloat(rating, 'f', -1, 64)
}

// FormatMovie renders "Title (Year): Rating".
func FormatMovie(m domain.Movie) string {
	return fmt.Sprintf("%s (%d): %s", m.Title, m.Year, FormatRating(m.Rating))
}

func (p Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.out, color.Green.Sprintf(format, args...))
}

func (p Printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.out, color.Yellow.Sprintf(format, args...))
}

func (p Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.out, color.Red.Sprintf(format, args...))
}

func (p Printer) Movie(m domain.Movie) {
	fmt.Fprintln(p.out, color.Blue.Sprint(FormatMovie(m)))
}

// Movies prints each movie on its own line.
func (p Printer) Movies(movies []domain.Movie) {
	for _, m := range movies {
		p.Movie(m)
	}
}

// Catalog prints the total followed by every movie ordered by title.
func (p Printer) Catalog(movies domain.Collection) {
	p.Info("%d movies in total", len(movies))
	p.Movies(movies.Sorted())
}

// Stats prints a rating summary.
func (p Printer) Stats(stats domain.RatingStats) {
	p.Info("Average rating: %s", FormatRating(stats.Average))
	p.Info("Median rating: %s", FormatRating(stats.Median))
	p.Info("Best rated movie(s):")
	p.Movies(stats.Best)
	p.Info("Worst rated movie(s):")
	p.Movies(stats.Worst)
}
