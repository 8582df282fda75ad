package usecase

import "math"

// AverageRating computes the aggregate rating for a set of submitted
// rates: the arithmetic mean rounded half away from zero to 2 decimal
// places. ok is false for an empty set, meaning the book's rating must
// be left unset.
func AverageRating(rates []int) (avg float64, ok bool) {
	if len(rates) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range rates {
		sum += r
	}
	mean := float64(sum) / float64(len(rates))
	return math.Round(mean*100) / 100, true
}
