package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opensource-risk/kestrel/internal/domain"
	"github.com/opensource-risk/kestrel/internal/ingest"
	"github.com/opensource-risk/kestrel/internal/report"
	"github.com/opensource-risk/kestrel/internal/repository"
	"github.com/opensource-risk/kestrel/internal/rules"
	"github.com/opensource-risk/kestrel/internal/scoring"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo     domain.Repository
	cache    domain.Cache
	bus      domain.EventBus
	engine   *scoring.Engine
	rules    *rules.Engine
	profiles domain.ProfileSet
	version  string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *scoring.Engine, ruleEngine *rules.Engine, profiles domain.ProfileSet, version string) *Handler {
	if profiles == nil {
		profiles = domain.DefaultProfiles()
	}
	return &Handler{
		repo:     repo,
		cache:    cache,
		bus:      bus,
		engine:   engine,
		rules:    ruleEngine,
		profiles: profiles,
		version:  version,
	}
}

// AnalyzeRequest is the request body for POST /analyze.
type AnalyzeRequest struct {
	Transactions []domain.Transaction `json:"transactions"`
	Persist      bool                 `json:"persist,omitempty"`
}

// AnalyzeResponse is the response for POST /analyze and POST /upload.
type AnalyzeResponse struct {
	BatchID    string                       `json:"batchId"`
	Rows       []domain.AnalyzedTransaction `json:"rows"`
	Summary    report.Summary               `json:"summary"`
	Skipped    []ingest.RowError            `json:"skipped,omitempty"`
	Duplicates int                          `json:"duplicates,omitempty"`
	Metadata   ResponseMetadata             `json:"metadata"`
}

// ResponseMetadata carries trace and timing info for a scored batch.
type ResponseMetadata struct {
	TraceID string `json:"traceId"`
	TotalMs int64  `json:"totalMs"`
	Version string `json:"version"`
}

// Analyze handles POST /analyze: a JSON batch scored synchronously.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if len(req.Transactions) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "transactions is required and must be non-empty",
		})
		return
	}

	batchID := uuid.New().String()

	analyzed, err := h.engine.AnalyzeBatch(ctx, req.Transactions)
	if err != nil {
		slog.Error("batch analysis failed", "batch_id", batchID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "batch analysis failed",
		})
		return
	}

	if req.Persist && h.repo != nil {
		if err := h.repo.SaveBatch(ctx, batchID, analyzed); err != nil {
			slog.Error("failed to save batch", "batch_id", batchID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to persist batch",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		BatchID: batchID,
		Rows:    analyzed,
		Summary: report.Summarize(analyzed),
		Metadata: ResponseMetadata{
			TraceID: GetTraceID(ctx),
			TotalMs: time.Since(start).Milliseconds(),
			Version: h.version,
		},
	})
}

// Upload handles POST /upload: a CSV body ingested, scored and
// persisted. With ?async=true the batch is handed to the worker via the
// event bus and the call returns 202 immediately.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "multipart upload must include a 'file' part",
			})
			return
		}
		defer file.Close()
		body = file
	}

	result, err := ingest.ReadCSV(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CSV: " + err.Error(),
		})
		return
	}

	if len(result.Transactions) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "no valid transactions in upload",
		})
		return
	}

	batchID := uuid.New().String()

	if r.URL.Query().Get("async") == "true" && h.bus != nil {
		payload, err := json.Marshal(domain.BatchIngested{
			BatchID:      batchID,
			Transactions: result.Transactions,
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to encode batch",
			})
			return
		}
		if err := h.bus.Publish(ctx, domain.TopicBatchIngested, payload); err != nil {
			slog.Error("failed to publish batch", "batch_id", batchID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to queue batch",
			})
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]any{
			"batchId":    batchID,
			"rows":       len(result.Transactions),
			"skipped":    result.Skipped,
			"duplicates": result.Duplicates,
		})
		return
	}

	analyzed, err := h.engine.AnalyzeBatch(ctx, result.Transactions)
	if err != nil {
		slog.Error("batch analysis failed", "batch_id", batchID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "batch analysis failed",
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveBatch(ctx, batchID, analyzed); err != nil {
			slog.Error("failed to save batch", "batch_id", batchID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to persist batch",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		BatchID:    batchID,
		Rows:       analyzed,
		Summary:    report.Summarize(analyzed),
		Skipped:    result.Skipped,
		Duplicates: result.Duplicates,
		Metadata: ResponseMetadata{
			TraceID: GetTraceID(ctx),
			TotalMs: time.Since(start).Milliseconds(),
			Version: h.version,
		},
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// GetTransaction retrieves a stored analyzed transaction by ID.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txID := chi.URLParam(r, "id")

	if txID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "transaction id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	row, err := h.repo.GetAnalysis(ctx, txID)
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "transaction not found",
		})
		return
	}
	if err != nil {
		slog.Error("failed to get transaction", "id", txID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get transaction",
		})
		return
	}

	writeJSON(w, http.StatusOK, row)
}

// loadBatch fetches a batch's rows for the reporting endpoints.
func (h *Handler) loadBatch(w http.ResponseWriter, r *http.Request) ([]domain.AnalyzedTransaction, bool) {
	batchID := r.URL.Query().Get("batch")
	if batchID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "batch query parameter is required",
		})
		return nil, false
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return nil, false
	}

	ptrs, err := h.repo.ListBatch(r.Context(), batchID)
	if err != nil {
		slog.Error("failed to list batch", "batch_id", batchID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load batch",
		})
		return nil, false
	}

	rows := make([]domain.AnalyzedTransaction, len(ptrs))
	for i, p := range ptrs {
		rows[i] = *p
	}
	return rows, true
}

// ReportSummary handles GET /reports/summary?batch={id}.
func (h *Handler) ReportSummary(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.loadBatch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(rows))
}

// ReportCharts handles GET /reports/charts?batch={id}.
func (h *Handler) ReportCharts(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.loadBatch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.BuildCharts(rows))
}

// ReportHighRisk handles GET /reports/high-risk. With ?batch={id} it
// filters that batch by industry attention thresholds; without it, the
// repository-wide listing above ?min-score (default 70) is returned.
func (h *Handler) ReportHighRisk(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("batch") != "" {
		rows, ok := h.loadBatch(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, report.HighRisk(rows, h.profiles))
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	minScore := 70
	if v := r.URL.Query().Get("min-score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "min-score must be an integer between 0 and 100",
			})
			return
		}
		minScore = n
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	rows, err := h.repo.ListHighRisk(r.Context(), minScore, limit)
	if err != nil {
		slog.Error("failed to list high risk rows", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list high risk transactions",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rows":  rows,
		"count": len(rows),
	})
}

// ListRules returns all loaded rules from the engine.
// Rules are loaded from the database at startup and can be reloaded via POST /rules/reload.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	loadedRules := h.rules.GetLoadedRules()

	writeJSON(w, http.StatusOK, map[string]any{
		"rules":  loadedRules,
		"count":  len(loadedRules),
		"source": "database",
	})
}

// GetRule retrieves a rule by ID from the loaded engine rules.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "id")

	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule id is required",
		})
		return
	}

	for _, rule := range h.rules.GetLoadedRules() {
		if rule.ID == ruleID {
			writeJSON(w, http.StatusOK, rule)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "rule not found",
	})
}

// CreateRuleRequest is the request body for creating a rule.
type CreateRuleRequest struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	Expression         string `json:"expression"`
	Delta              int    `json:"delta"`
	Flag               string `json:"flag"`
	VelocityWindowSecs int    `json:"velocityWindowSecs,omitempty"`
	Enabled            bool   `json:"enabled"`
}

// CreateRule creates a new rule and saves it to the database.
// After saving, call POST /rules/reload to hot-reload into the engine.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.ID == "" || req.Name == "" || req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id, name, and expression are required",
		})
		return
	}
	if req.Delta <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "delta must be positive",
		})
		return
	}

	ruleConfig := &domain.CustomRule{
		ID:                 req.ID,
		Name:               req.Name,
		Description:        req.Description,
		Version:            "1.0.0",
		Expression:         req.Expression,
		Delta:              req.Delta,
		Flag:               req.Flag,
		VelocityWindowSecs: req.VelocityWindowSecs,
		Enabled:            req.Enabled,
	}

	// Validate CEL expression before persisting
	if err := h.rules.ValidateRule(ruleConfig); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveRuleConfig(ctx, ruleConfig); err != nil {
			slog.Error("failed to save rule config", "id", ruleConfig.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save rule",
			})
			return
		}
	}

	slog.Info("rule created", "id", ruleConfig.ID, "name", ruleConfig.Name)
	writeJSON(w, http.StatusCreated, map[string]any{
		"rule":    ruleConfig,
		"message": "Rule created. Call POST /rules/reload to apply changes.",
	})
}

// DeleteRule disables a stored rule. A reload is still needed for the
// engine to drop it.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "id")

	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	err := h.repo.DeleteRuleConfig(r.Context(), ruleID)
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "rule not found",
		})
		return
	}
	if err != nil {
		slog.Error("failed to delete rule", "id", ruleID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to delete rule",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Rule disabled. Call POST /rules/reload to apply changes.",
	})
}

// ReloadRules reloads all rules from the database into the engine.
// This enables hot-reloading without server restart.
func (h *Handler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	dbRules, err := h.repo.ListRuleConfigs(ctx)
	if err != nil {
		slog.Error("failed to list rules from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load rules from database",
		})
		return
	}

	if err := h.rules.ReloadRules(dbRules); err != nil {
		slog.Error("failed to reload rules into engine", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload rules: " + err.Error(),
		})
		return
	}

	slog.Info("rules reloaded from database", "count", len(dbRules))
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "rules reloaded successfully",
		"count":   len(dbRules),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
