package catalog

import (
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// Stats computes average, median, best and worst for movies. Average and an
// even-sized median are rounded to one decimal.
func Stats(movies domain.Collection) (domain.RatingStats, error) {
	if len(movies) == 0 {
		return domain.RatingStats{}, ErrEmptyCatalog
	}

	ordered := movies.Sorted()
	ratings := make([]float64, 0, len(ordered))
	sum := 0.0
	best, worst := ordered[0].Rating, ordered[0].Rating
	for _, movie := range ordered {
		ratings = append(ratings, movie.Rating)
		sum += movie.Rating
		best = math.Max(best, movie.Rating)
		worst = math.Min(worst, movie.Rating)
	}
	sort.Float64s(ratings)

	n := len(ratings)
	median := ratings[n/2]
	if n%2 == 0 {
		median = RoundToOneDecimal((ratings[n/2-1] + ratings[n/2]) / 2)
	}

	stats := domain.RatingStats{
		Count:   n,
		Average: RoundToOneDecimal(sum / float64(n)),
		Median:  median,
	}
	for _, movie := range ordered {
		if movie.Rating == best {
			stats.Best = append(stats.Best, movie)
		}
		if movie.Rating == worst {
			stats.Worst = append(stats.Worst, movie)
		}
	}
	return stats, nil
}

// Search returns movies whose title contains query, ignoring case, ordered by title.
func Search(movies domain.Collection, query string) []domain.Movie {
	needle := fold(strings.TrimSpace(query))
	out := make([]domain.Movie, 0)
	for _, movie := range movies.Sorted() {
		if strings.Contains(fold(movie.Title), needle) {
			out = append(out, movie)
		}
	}
	return out
}

// SortByRating orders movies best first; ties are ordered by title.
func SortByRating(movies domain.Collection) []domain.Movie {
	out := movies.Sorted()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating > out[j].Rating
	})
	return out
}

// SortByYear orders movies oldest first; ties are ordered by title.
func SortByYear(movies domain.Collection) []domain.Movie {
	out := movies.Sorted()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Year < out[j].Year
	})
	return out
}

// Random picks one movie using rnd.
func Random(movies domain.Collection, rnd *rand.Rand) (domain.Movie, error) {
	if len(movies) == 0 {
		return domain.Movie{}, ErrEmptyCatalog
	}
	ordered := movies.Sorted()
	return ordered[rnd.Intn(len(ordered))], nil
}

// RoundToOneDecimal rounds half away from zero.
func RoundToOneDecimal(value float64) float64 {
	return math.Round(value*10) / 10.0
}
