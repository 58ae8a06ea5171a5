package domain

// RatingStats summarizes the ratings of a collection.
type RatingStats struct {
	Count   int
	Average float64
	Median  float64
	Best    []Movie
	Worst   []Movie
}
