// Package server exposes session results over an HTTP API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/verte-zerg/mashr/internal/model"
	"github.com/verte-zerg/mashr/internal/stats"
	"github.com/verte-zerg/mashr/internal/store"
)

// Store appends and replays session results.
type Store interface {
	Append(ctx context.Context, result model.SessionResult) error
	ReadAll(ctx context.Context) ([]model.Record, error)
}

// saveFields maps request fields to record columns, in validation order.
var saveFields = []struct {
	name     string
	column   string
	required bool
}{
	{"timestamp", model.FieldTimestamp, true},
	{"duration", model.FieldDuration, true},
	{"selectedKey", model.FieldSelectedKey, true},
	{"totalPresses", model.FieldTotalPresses, true},
	{"correctPresses", model.FieldCorrectPresses, true},
	{"wrongPresses", model.FieldWrongPresses, true},
	{"accuracy", model.FieldAccuracy, true},
	{"keysPerSecond", model.FieldKeysPerSecond, true},
	{"device", model.FieldDevice, false},
	{"orientation", model.FieldOrientation, false},
}

const maxBodyBytes = 64 << 10

// Handler serves the results API.
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler creates a Handler backed by st.
func NewHandler(st Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: st, logger: logger}
}

// RegisterRoutes mounts the API routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/save-result", h.SaveResult)
		r.Get("/results", h.Results)
		r.Get("/stats", h.Stats)
		r.Get("/download-csv", h.DownloadCSV)
	})
}

// SaveResult validates a submitted result and appends it to the store.
func (h *Handler) SaveResult(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil || body == nil {
		Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	rec := model.Record{}
	for _, f := range saveFields {
		v, ok := body[f.name]
		if !ok {
			if f.required {
				Error(w, http.StatusBadRequest, "Missing field: "+f.name)
				return
			}
			continue
		}
		switch v := v.(type) {
		case string:
			rec[f.column] = v
		case json.Number:
			rec[f.column] = v.String()
		default:
			Error(w, http.StatusBadRequest, "Invalid field: "+f.name)
			return
		}
	}

	result, err := stats.DecodeRecord(0, rec)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := checkCounts(result); msg != "" {
		Error(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.store.Append(r.Context(), result); err != nil {
		h.logger.Error("Failed to save result", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.logger.Info("Result saved", "key", result.TargetKey, "duration", result.DurationSeconds, "total_presses", result.TotalPresses)
	JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Result saved successfully"})
}

// checkCounts enforces the press-count invariants on a new submission.
// Stored history is replayed as-is and never passes through here.
func checkCounts(r model.SessionResult) string {
	if r.CorrectPresses > r.TotalPresses {
		return "Invalid field: correctPresses exceeds totalPresses"
	}
	if r.WrongPresses != r.TotalPresses-r.CorrectPresses {
		return "Invalid field: wrongPresses must equal totalPresses - correctPresses"
	}
	return ""
}

// Results returns every stored record as text fields.
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ReadAll(r.Context())
	if err != nil {
		h.logger.Error("Failed to read results", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]any{"results": records})
}

type statsResponse struct {
	TotalGames        int     `json:"total_games"`
	TotalPresses      int     `json:"total_presses"`
	TotalCorrect      int     `json:"total_correct"`
	AverageAccuracy   float64 `json:"average_accuracy"`
	AverageKPS        float64 `json:"average_kps"`
	BestAccuracy      float64 `json:"best_accuracy"`
	BestKPS           float64 `json:"best_kps"`
	MostPressesInGame int     `json:"most_presses_in_game"`
}

// Stats returns the summary of every stored record.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ReadAll(r.Context())
	if err != nil {
		h.logger.Error("Failed to read results", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	summary, err := stats.SummarizeRecords(records)
	if err != nil {
		h.logger.Error("Failed to summarize results", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if summary.Empty() {
		JSON(w, http.StatusOK, map[string]any{"stats": struct{}{}})
		return
	}
	JSON(w, http.StatusOK, map[string]any{"stats": statsResponse{
		TotalGames:        summary.TotalGames,
		TotalPresses:      summary.TotalPresses,
		TotalCorrect:      summary.TotalCorrect,
		AverageAccuracy:   summary.AverageAccuracy,
		AverageKPS:        summary.AverageKPS,
		BestAccuracy:      summary.BestAccuracy,
		BestKPS:           summary.BestKPS,
		MostPressesInGame: summary.MostPressesInGame,
	}})
}

// DownloadCSV streams every stored record as a CSV attachment.
func (h *Handler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ReadAll(r.Context())
	if err != nil {
		h.logger.Error("Failed to read results", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(records) == 0 {
		Error(w, http.StatusNotFound, "No results file found")
		return
	}
	var buf bytes.Buffer
	if err := store.WriteCSV(&buf, records); err != nil {
		h.logger.Error("Failed to render csv", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "game_results.csv"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("Failed to write csv response", "error", err)
	}
}
