package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/mashr/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := seriesMinMaxSingle(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// KPSSeries extracts keys per second from results in order.
func KPSSeries(results []model.SessionResult) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.KeysPerSecond
	}
	return out
}

// AccuracySeries extracts accuracy percentages from results in order.
func AccuracySeries(results []model.SessionResult) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.Accuracy
	}
	return out
}

// SummaryLines formats a summary as label/value pairs for display.
func SummaryLines(s Summary) [][2]string {
	return [][2]string{
		{"Games", fmt.Sprintf("%d", s.TotalGames)},
		{"Total presses", fmt.Sprintf("%d", s.TotalPresses)},
		{"Total correct", fmt.Sprintf("%d", s.TotalCorrect)},
		{"Avg accuracy", fmt.Sprintf("%.1f%%", s.AverageAccuracy)},
		{"Avg KPS", fmt.Sprintf("%.1f", s.AverageKPS)},
		{"Best accuracy", FormatNumber(s.BestAccuracy) + "%"},
		{"Best KPS", FormatNumber(s.BestKPS)},
		{"Most presses", fmt.Sprintf("%d", s.MostPressesInGame)},
	}
}

// FormatNumber prints v at full precision.
func FormatNumber(v float64) string {
	return fmt.Sprintf("%v", v)
}

// RenderSummary prints a summary block.
func RenderSummary(w io.Writer, s Summary) error {
	if s.Empty() {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	rows := make([][]string, 0, 8)
	for _, line := range SummaryLines(s) {
		rows = append(rows, []string{line[0] + ":", line[1]})
	}
	for _, line := range formatTable(nil, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// HistoryHeaders are the column titles of the session history table.
var HistoryHeaders = []string{"When", "Key", "Time", "Total", "Correct", "Wrong", "Accuracy", "KPS"}

// HistoryRows formats results newest first.
func HistoryRows(results []model.SessionResult) [][]string {
	rows := make([][]string, 0, len(results))
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i]
		rows = append(rows, []string{
			r.Timestamp.Local().Format(time.DateTime),
			r.TargetKey,
			fmt.Sprintf("%ds", r.DurationSeconds),
			fmt.Sprintf("%d", r.TotalPresses),
			fmt.Sprintf("%d", r.CorrectPresses),
			fmt.Sprintf("%d", r.WrongPresses),
			fmt.Sprintf("%.1f%%", r.Accuracy),
			fmt.Sprintf("%.2f", r.KeysPerSecond),
		})
	}
	return rows
}

// RenderHistory prints the session history table.
func RenderHistory(w io.Writer, results []model.SessionResult) error {
	if len(results) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "History"); err != nil {
		return err
	}
	rightAlign := map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true, 7: true}
	for _, line := range formatTable(HistoryHeaders, HistoryRows(results), rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderCurves prints learning curves for keys per second and accuracy.
func RenderCurves(w io.Writer, results []model.SessionResult, window int) error {
	return RenderCurvesWithSize(w, results, window, 0, defaultPlotHeight, false)
}

// RenderCurvesWithSize prints learning curves sized to a given total width.
func RenderCurvesWithSize(w io.Writer, results []model.SessionResult, window, totalWidth, height int, useColor bool) error {
	if len(results) == 0 {
		return nil
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Learning Curves", []Series{
		{Name: "KPS", Values: MovingAverage(KPSSeries(results), window)},
		{Name: "Accuracy", Values: MovingAverage(AccuracySeries(results), window)},
	}, width, height, useColor)
}
