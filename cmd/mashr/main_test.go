package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/mashr/internal/config"
	"github.com/verte-zerg/mashr/internal/model"
	"github.com/verte-zerg/mashr/internal/stats"
	"github.com/verte-zerg/mashr/internal/store"
)

func openTempStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "mashr.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mashr", "config.toml")
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("ensure config: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.Game.Key != nil || cfg.Game.Duration != nil || cfg.Server.Addr != nil {
		t.Fatalf("expected commented template to set nothing, got %+v", cfg)
	}
}

func TestApplyConfigRespectsChangedFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	var key string
	var duration int
	cmd.Flags().StringVar(&key, "key", "a", "")
	cmd.Flags().IntVar(&duration, "duration", 30, "")
	if err := cmd.Flags().Set("key", "f"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	fileKey, fileDuration := "j", 60
	applyStringConfig(cmd, "key", &key, &fileKey)
	applyIntConfig(cmd, "duration", &duration, &fileDuration)
	if key != "f" {
		t.Fatalf("expected flag value to win, got %q", key)
	}
	if duration != 60 {
		t.Fatalf("expected config value for unchanged flag, got %d", duration)
	}
	applyIntConfig(cmd, "duration", &duration, nil)
	if duration != 60 {
		t.Fatalf("expected nil config value to be ignored, got %d", duration)
	}
}

func TestResolveServeAddr(t *testing.T) {
	file := ":7000"
	cases := []struct {
		name      string
		changed   bool
		flag, env string
		file      *string
		want      string
	}{
		{"flag wins", true, ":9000", ":8000", &file, ":9000"},
		{"env over file", false, defaultAddr, ":8000", &file, ":8000"},
		{"file over default", false, defaultAddr, "", &file, ":7000"},
		{"default", false, defaultAddr, "", nil, defaultAddr},
	}
	for _, tc := range cases {
		if got := resolveServeAddr(tc.changed, tc.flag, tc.env, tc.file); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	st := openTempStore(t)
	ctx := context.Background()
	input := strings.Join([]string{
		"timestamp,timer,key,total_presses,correct_presses",
		"2024-05-01T12:00:00,30,a,30,27",
		"2024-05-02T12:00:00,10,a,12.0,12",
	}, "\n")
	n, err := importCSV(ctx, st, strings.NewReader(input))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 imported, got %d", n)
	}

	var buf bytes.Buffer
	n, err = exportCSV(ctx, st, &buf)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 exported, got %d", n)
	}
	records, err := store.ReadCSV(&buf)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	results, err := stats.DecodeRecords(records)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if results[0].WrongPresses != 3 || results[0].Accuracy != 90 || results[0].KeysPerSecond != 1 {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[1].TotalPresses != 12 || results[1].KeysPerSecond != 1.2 {
		t.Fatalf("unexpected second result: %+v", results[1])
	}
}

func TestImportIsAllOrNothing(t *testing.T) {
	st := openTempStore(t)
	ctx := context.Background()
	input := strings.Join([]string{
		"timestamp,duration,selected_key,total_presses,correct_presses",
		"2024-05-01T12:00:00,30,A,30,27",
		"2024-05-02T12:00:00,30,A,lots,27",
	}, "\n")
	_, err := importCSV(ctx, st, strings.NewReader(input))
	var integrity *stats.DataIntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected data integrity error, got %v", err)
	}
	if integrity.Index != 1 || integrity.Field != model.FieldTotalPresses {
		t.Fatalf("unexpected error location: %+v", integrity)
	}
	count, err := st.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected nothing imported, got %d rows", count)
	}
}

func TestRenderPlainStats(t *testing.T) {
	st := openTempStore(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, total := range []int{20, 40} {
		r := model.NewSessionResult(model.SessionConfig{TargetKey: "A", DurationSeconds: 10}, total, total, at)
		if err := st.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := renderPlainStats(ctx, &buf, st, model.StatsConfig{CurveWindow: 1}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Summary", "Games:", "History", "Learning Curves"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderPlainStatsEmpty(t *testing.T) {
	st := openTempStore(t)
	var buf bytes.Buffer
	if err := renderPlainStats(context.Background(), &buf, st, model.StatsConfig{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No sessions found." {
		t.Fatalf("unexpected empty output: %q", buf.String())
	}
}
