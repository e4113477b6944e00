// Package stats contains statistics calculations and reporting.
package stats

import (
	"sort"

	"github.com/verte-zerg/mashr/internal/model"
)

// Summary aggregates a set of finished sessions. The zero value is the empty
// summary.
type Summary struct {
	TotalGames        int
	TotalPresses      int
	TotalCorrect      int
	AverageAccuracy   float64
	AverageKPS        float64
	BestAccuracy      float64
	BestKPS           float64
	MostPressesInGame int
}

// Empty reports whether the summary covers no sessions.
func (s Summary) Empty() bool {
	return s.TotalGames == 0
}

// Summarize computes totals, means and bests over results. Accuracy and keys
// per second come from each result as stored. Means are rounded to one
// decimal; bests are reported unrounded.
func Summarize(results []model.SessionResult) Summary {
	if len(results) == 0 {
		return Summary{}
	}
	accs := make([]float64, len(results))
	kps := make([]float64, len(results))
	var sum Summary
	sum.TotalGames = len(results)
	for i, r := range results {
		sum.TotalPresses += r.TotalPresses
		sum.TotalCorrect += r.CorrectPresses
		accs[i] = r.Accuracy
		kps[i] = r.KeysPerSecond
		if i == 0 || r.Accuracy > sum.BestAccuracy {
			sum.BestAccuracy = r.Accuracy
		}
		if i == 0 || r.KeysPerSecond > sum.BestKPS {
			sum.BestKPS = r.KeysPerSecond
		}
		if i == 0 || r.TotalPresses > sum.MostPressesInGame {
			sum.MostPressesInGame = r.TotalPresses
		}
	}
	count := float64(len(results))
	sum.AverageAccuracy = model.Round1(sortedSum(accs) / count)
	sum.AverageKPS = model.Round1(sortedSum(kps) / count)
	return sum
}

// SummarizeRecords decodes stored records and summarizes them. A malformed
// record fails the whole call.
func SummarizeRecords(records []model.Record) (Summary, error) {
	results, err := DecodeRecords(records)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(results), nil
}

// sortedSum adds values in ascending order so the total does not depend on
// input order. It sorts values in place.
func sortedSum(values []float64) float64 {
	sort.Float64s(values)
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
