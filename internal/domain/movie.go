package domain

import "sort"

// Movie represents a single catalog entry. Title is the unique key.
type Movie struct {
	Title  string
	Year   int
	Rating float64
	Poster string
}

// Collection is the full catalog keyed by title.
type Collection map[string]Movie

// Titles returns the collection keys in ascending order.
func (c Collection) Titles() []string {
	titles := make([]string, 0, len(c))
	for title := range c {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// Sorted returns the movies ordered by title.
func (c Collection) Sorted() []Movie {
	out := make([]Movie, 0, len(c))
	for _, title := range c.Titles() {
		out = append(out, c[title])
	}
	return out
}

// Clone returns a shallow copy so callers can mutate without touching the source.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
