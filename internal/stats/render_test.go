package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/mashr/internal/model"
)

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, Summary{}); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if !strings.Contains(buf.String(), "No sessions found.") {
		t.Fatalf("expected empty notice, got %q", buf.String())
	}

	buf.Reset()
	s := Summary{TotalGames: 2, TotalPresses: 30, TotalCorrect: 25, AverageAccuracy: 75, AverageKPS: 0.3, BestAccuracy: 100, BestKPS: 0.4, MostPressesInGame: 20}
	if err := RenderSummary(&buf, s); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Games:", "75.0%", "Best KPS:", "0.4", "Most presses:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in summary:\n%s", want, out)
		}
	}
}

func TestRenderHistoryNewestFirst(t *testing.T) {
	cfg := model.SessionConfig{TargetKey: "A", DurationSeconds: 60}
	results := []model.SessionResult{
		model.NewSessionResult(cfg, 10, 9, time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)),
		model.NewSessionResult(cfg, 20, 20, time.Date(2024, 1, 2, 10, 0, 0, 0, time.Local)),
	}
	var buf bytes.Buffer
	if err := RenderHistory(&buf, results); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected title, header and 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[2], "2024-01-02") {
		t.Fatalf("expected newest first, got %q", lines[2])
	}
}
