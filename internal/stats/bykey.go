package stats

import (
	"sort"

	"github.com/verte-zerg/mashr/internal/model"
)

// KeySummary is the summary of all sessions played on one target key.
type KeySummary struct {
	Key string
	Summary
}

// SummarizeByKey groups results by target key, most played first.
func SummarizeByKey(results []model.SessionResult) []KeySummary {
	groups := map[string][]model.SessionResult{}
	for _, r := range results {
		groups[r.TargetKey] = append(groups[r.TargetKey], r)
	}
	out := make([]KeySummary, 0, len(groups))
	for key, group := range groups {
		out = append(out, KeySummary{Key: key, Summary: Summarize(group)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalGames == out[j].TotalGames {
			return out[i].Key < out[j].Key
		}
		return out[i].TotalGames > out[j].TotalGames
	})
	return out
}
