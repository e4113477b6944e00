package stats

import (
	"context"
	"strings"

	"github.com/verte-zerg/mashr/internal/model"
)

// Source replays every stored session record.
type Source interface {
	ReadAll(ctx context.Context) ([]model.Record, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Results []model.SessionResult
	Summary Summary
}

// BuildReport loads all records, validates them, applies cfg filters and
// summarizes what remains. Every stored record is validated, including those
// the filters drop.
func BuildReport(ctx context.Context, src Source, cfg model.StatsConfig) (Report, error) {
	records, err := src.ReadAll(ctx)
	if err != nil {
		return Report{}, err
	}
	results, err := DecodeRecords(records)
	if err != nil {
		return Report{}, err
	}
	results = FilterResults(results, cfg)
	return Report{
		Results: results,
		Summary: Summarize(results),
	}, nil
}

// FilterResults keeps results matching cfg, preserving order. Last applies
// after the other filters.
func FilterResults(results []model.SessionResult, cfg model.StatsConfig) []model.SessionResult {
	out := make([]model.SessionResult, 0, len(results))
	for _, r := range results {
		if cfg.Key != "" && !strings.EqualFold(cfg.Key, r.TargetKey) {
			continue
		}
		if cfg.Duration > 0 && r.DurationSeconds != cfg.Duration {
			continue
		}
		if cfg.Since != nil && r.Timestamp.Before(*cfg.Since) {
			continue
		}
		out = append(out, r)
	}
	if cfg.Last > 0 && len(out) > cfg.Last {
		out = out[len(out)-cfg.Last:]
	}
	return out
}
